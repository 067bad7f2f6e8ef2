package adb

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"strings"
)

// Device issues commands to one device through its client
type Device struct {
	client *Client
	serial string
}

// Serial returns the device serial
func (d *Device) Serial() string {
	return d.serial
}

// Shell executes a shell command and returns its trimmed output
func (d *Device) Shell(ctx context.Context, command string) (string, error) {
	out, err := d.client.exec(ctx, d.serial, "shell", command)
	if err != nil {
		return "", &DeviceCommandError{Serial: d.serial, Command: command, Err: err}
	}
	return strings.TrimSpace(string(out)), nil
}

// Tap performs a tap at the specified screen coordinates
func (d *Device) Tap(ctx context.Context, p image.Point) error {
	_, err := d.Shell(ctx, fmt.Sprintf("input tap %d %d", p.X, p.Y))
	return err
}

// Screencap returns the current screen as PNG bytes. exec-out keeps the
// stream binary-safe, unlike `shell` which may rewrite line endings.
func (d *Device) Screencap(ctx context.Context) ([]byte, error) {
	out, err := d.client.exec(ctx, d.serial, "exec-out", "screencap", "-p")
	if err != nil {
		return nil, &DeviceCommandError{Serial: d.serial, Command: "screencap -p", Err: err}
	}
	if !bytes.HasPrefix(out, pngSignature) {
		return nil, &DeviceCommandError{
			Serial:  d.serial,
			Command: "screencap -p",
			Err:     fmt.Errorf("unexpected screencap payload (%d bytes)", len(out)),
		}
	}
	return out, nil
}

// WindowSize returns the current screen size
func (d *Device) WindowSize(ctx context.Context) (width, height int, err error) {
	output, err := d.Shell(ctx, "wm size")
	if err != nil {
		return 0, 0, err
	}

	// Override size wins over physical size when both are printed
	var w, h int
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if _, scanErr := fmt.Sscanf(line, "Override size: %dx%d", &w, &h); scanErr == nil {
			return w, h, nil
		}
		if _, scanErr := fmt.Sscanf(line, "Physical size: %dx%d", &w, &h); scanErr == nil {
			width, height = w, h
		}
	}
	if width == 0 || height == 0 {
		return 0, 0, fmt.Errorf("failed to parse window size: %s", output)
	}
	return width, height, nil
}

var pngSignature = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}
