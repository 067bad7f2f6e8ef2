package adb

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"sync"
)

const (
	// DefaultHost is the address of the local adb server
	DefaultHost = "127.0.0.1"
	// DefaultPort is the adb server's default port
	DefaultPort = 5037
)

// StateDevice is the state adb reports for an online, authorized device
const StateDevice = "device"

// DeviceInfo is a single line of `adb devices` output
type DeviceInfo struct {
	Serial string
	State  string
}

// Online reports whether the device accepts commands
func (d DeviceInfo) Online() bool {
	return d.State == StateDevice
}

// runner executes the adb binary and returns its stdout
type runner func(ctx context.Context, name string, args ...string) ([]byte, error)

// Client talks to the adb server through the adb executable
type Client struct {
	path string
	host string
	port int
	run  runner
	mu   sync.Mutex
}

// NewClient creates a client for the adb server at host:port
func NewClient(adbPath, host string, port int) *Client {
	if host == "" {
		host = DefaultHost
	}
	if port == 0 {
		port = DefaultPort
	}
	return &Client{
		path: adbPath,
		host: host,
		port: port,
		run:  execRunner,
	}
}

// Addr returns the adb server address the client targets
func (c *Client) Addr() string {
	return fmt.Sprintf("%s:%d", c.host, c.port)
}

// ListDevices returns every device known to the adb server
func (c *Client) ListDevices(ctx context.Context) ([]DeviceInfo, error) {
	out, err := c.exec(ctx, "", "devices")
	if err != nil {
		return nil, fmt.Errorf("failed to list devices on %s: %w", c.Addr(), err)
	}
	return parseDevices(out), nil
}

// Device returns a handle bound to a single device serial
func (c *Client) Device(serial string) *Device {
	return &Device{client: c, serial: serial}
}

// exec runs one adb invocation. Commands are serialized: the device, its screen
// and the adb server connection are shared by every caller.
func (c *Client) exec(ctx context.Context, serial string, args ...string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	full := []string{"-H", c.host, "-P", fmt.Sprintf("%d", c.port)}
	if serial != "" {
		full = append(full, "-s", serial)
	}
	full = append(full, args...)

	return c.run(ctx, c.path, full...)
}

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		// A killed child after cancellation is a stop, not a transport failure
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("%w: %v", ctxErr, err)
		}
		return nil, fmt.Errorf("%w, stderr: %s", err, strings.TrimSpace(stderr.String()))
	}
	return out, nil
}

// parseDevices parses `adb devices` output:
//
//	List of devices attached
//	emulator-5554	device
func parseDevices(out []byte) []DeviceInfo {
	var devices []DeviceInfo

	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "List of devices") || strings.HasPrefix(line, "*") {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		devices = append(devices, DeviceInfo{Serial: fields[0], State: fields[1]})
	}

	return devices
}

// SelectDevice picks the device the run will drive: the one matching serial
// when set, otherwise the first online device.
func SelectDevice(devices []DeviceInfo, serial string) (DeviceInfo, error) {
	for _, d := range devices {
		if !d.Online() {
			continue
		}
		if serial == "" || d.Serial == serial {
			return d, nil
		}
	}
	if serial != "" {
		return DeviceInfo{}, fmt.Errorf("%w: %s is not online", ErrNoDeviceConnected, serial)
	}
	return DeviceInfo{}, ErrNoDeviceConnected
}
