package adb

import (
	"errors"
	"fmt"
)

// ErrNoDeviceConnected is returned at startup when the adb server lists no online device
var ErrNoDeviceConnected = errors.New("no devices connected")

// DeviceCommandError reports a command the transport rejected
type DeviceCommandError struct {
	Serial  string
	Command string
	Err     error
}

func (e *DeviceCommandError) Error() string {
	return fmt.Sprintf("device %s: command %q failed: %v", e.Serial, e.Command, e.Err)
}

func (e *DeviceCommandError) Unwrap() error {
	return e.Err
}
