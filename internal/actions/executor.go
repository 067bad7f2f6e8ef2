package actions

import (
	"context"
	"fmt"
	"image"
	"time"
)

// Tapper injects a synthetic touch at a screen coordinate
type Tapper interface {
	Tap(ctx context.Context, p image.Point) error
}

// Executor translates screen points into taps. Coordinates are not validated.
type Executor struct {
	tapper Tapper
	sleep  SleepFunc
	taps   int
}

// NewExecutor creates an executor on top of a transport
func NewExecutor(tapper Tapper) *Executor {
	return &Executor{tapper: tapper, sleep: Sleep}
}

// WithSleep replaces the sleep implementation
func (e *Executor) WithSleep(sleep SleepFunc) *Executor {
	e.sleep = sleep
	return e
}

// Tap sends one tap through the transport
func (e *Executor) Tap(ctx context.Context, p image.Point) error {
	if err := e.tapper.Tap(ctx, p); err != nil {
		return err
	}
	e.taps++
	return nil
}

// TapSequence taps each point in order with gap between consecutive taps
func (e *Executor) TapSequence(ctx context.Context, points []image.Point, gap time.Duration) error {
	for i, p := range points {
		if i > 0 {
			if err := e.sleep(ctx, gap); err != nil {
				return err
			}
		}
		if err := e.Tap(ctx, p); err != nil {
			return fmt.Errorf("tap %d of %d at %v: %w", i+1, len(points), p, err)
		}
	}
	return nil
}

// Sleep waits using the executor's sleep implementation
func (e *Executor) Sleep(ctx context.Context, d time.Duration) error {
	return e.sleep(ctx, d)
}

// Taps returns the number of taps sent so far
func (e *Executor) Taps() int {
	return e.taps
}
