package cv

import (
	"context"
	"image"
)

// Capturer produces a fresh frame of the device screen
type Capturer interface {
	Capture(ctx context.Context) (*image.RGBA, error)
}

// ScreenSource pulls an encoded screenshot from the device transport
type ScreenSource interface {
	Screencap(ctx context.Context) ([]byte, error)
}

// ADBCapturer pulls a screencap, persists it to the frame buffer and reads
// it back for the matcher.
type ADBCapturer struct {
	source ScreenSource
	store  *FrameStore
}

// NewADBCapturer creates a capturer backed by a transport and a frame store
func NewADBCapturer(source ScreenSource, store *FrameStore) *ADBCapturer {
	return &ADBCapturer{source: source, store: store}
}

// Capture refreshes the frame buffer. No retry: the caller decides.
func (c *ADBCapturer) Capture(ctx context.Context) (*image.RGBA, error) {
	data, err := c.source.Screencap(ctx)
	if err != nil {
		return nil, &CaptureError{Stage: "transfer", Err: err}
	}

	if err := c.store.Save(data); err != nil {
		return nil, &CaptureError{Stage: "write", Path: c.store.Path(), Err: err}
	}

	frame, err := c.store.Load()
	if err != nil {
		return nil, &CaptureError{Stage: "read", Path: c.store.Path(), Err: err}
	}
	return frame, nil
}
