package bot

import (
	"context"
	"errors"
	"fmt"
	"image"
	"strings"
	"time"

	"jordanella.com/battlefarm-go/internal/actions"
	"jordanella.com/battlefarm-go/internal/adb"
	"jordanella.com/battlefarm-go/internal/cv"
	"jordanella.com/battlefarm-go/internal/events"
	"jordanella.com/battlefarm-go/internal/logging"
)

// Screen is the perception side of the loop: a frame cache keyed by epoch and
// template lookup on the cached frame
type Screen interface {
	Advance() uint64
	Refresh(ctx context.Context) error
	Locate(ctx context.Context, name string, opts ...cv.Option) (*cv.MatchResult, error)
}

// Actuator is the action side of the loop
type Actuator interface {
	Tap(ctx context.Context, p image.Point) error
	TapSequence(ctx context.Context, points []image.Point, gap time.Duration) error
	Sleep(ctx context.Context, d time.Duration) error
}

// DeviceLister enumerates devices known to the transport
type DeviceLister interface {
	ListDevices(ctx context.Context) ([]adb.DeviceInfo, error)
}

// Display reports the resolution of the bound device
type Display interface {
	WindowSize(ctx context.Context) (width, height int, err error)
}

// Binding is what a Binder hands back for the selected device. Display may
// be nil, in which case the layout is not checked against the screen.
type Binding struct {
	Screen   Screen
	Actuator Actuator
	Display  Display
}

// Binder builds the perception and action sides for the selected device
type Binder func(ctx context.Context, device adb.DeviceInfo) (Binding, error)

var errNotInitialized = errors.New("bot not initialized")

// Bot runs the perception-action loop against one device
type Bot struct {
	config  *Config
	devices DeviceLister
	bind    Binder

	screen   Screen
	actuator Actuator
	pause    *PauseSwitch
	events   events.Publisher
	logger   *logging.Logger

	state     State
	serial    string
	startedAt time.Time
	now       func() time.Time
}

// New creates a bot. Nothing touches the device until Initialize.
func New(config *Config, devices DeviceLister, bind Binder) *Bot {
	return &Bot{
		config:  config,
		devices: devices,
		bind:    bind,
		pause:   NewPauseSwitch(),
		logger:  logging.NewLogger("Bot"),
		now:     time.Now,
	}
}

// SetEventBus sets where loop events are published
func (b *Bot) SetEventBus(publisher events.Publisher) *Bot {
	b.events = publisher
	return b
}

// SetLogger replaces the default logger
func (b *Bot) SetLogger(logger *logging.Logger) *Bot {
	b.logger = logger
	return b
}

// SetPauseSwitch replaces the pause channel
func (b *Bot) SetPauseSwitch(pause *PauseSwitch) *Bot {
	b.pause = pause
	return b
}

func (b *Bot) PauseSwitch() *PauseSwitch {
	return b.pause
}

// State returns a copy of the automation state. Only safe to call when the
// loop is not running.
func (b *Bot) State() State {
	return b.state
}

// Serial returns the selected device serial
func (b *Bot) Serial() string {
	return b.serial
}

// Initialize selects the device, binds capture and input to it, and seeds
// InBattle from one screen check. It fails with adb.ErrNoDeviceConnected when
// no device is online.
func (b *Bot) Initialize(ctx context.Context) error {
	devices, err := b.devices.ListDevices(ctx)
	if err != nil {
		return err
	}

	device, err := adb.SelectDevice(devices, b.config.Serial)
	if err != nil {
		return err
	}

	binding, err := b.bind(ctx, device)
	if err != nil {
		return fmt.Errorf("failed to bind device %s: %w", device.Serial, err)
	}
	b.screen = binding.Screen
	b.actuator = binding.Actuator
	b.serial = device.Serial

	if binding.Display != nil {
		b.checkLayout(ctx, binding.Display)
	}

	b.screen.Advance()
	inBattle, err := b.checkInBattle(ctx)
	if err != nil {
		return fmt.Errorf("initial battle check: %w", err)
	}
	b.state = State{InBattle: inBattle}

	b.logger.InfoWithContext("Bot initialized", map[string]interface{}{
		"serial": b.serial,
		"phase":  b.state.Phase().String(),
	})
	b.publish(events.NewRunStartedEvent(b.serial, inBattle))
	return nil
}

// checkLayout warns when a tap target lies off the device screen. The layout
// is never scaled, so a mismatch is left to the operator.
func (b *Bot) checkLayout(ctx context.Context, display Display) {
	width, height, err := display.WindowSize(ctx)
	if err != nil {
		b.logger.WarnWithContext("Could not read screen size", map[string]interface{}{
			"serial": b.serial,
			"error":  err.Error(),
		})
		return
	}

	if outside := b.config.Layout.Outside(cv.NewRegion(0, 0, width, height)); len(outside) > 0 {
		b.logger.WarnWithContext("Tap targets fall outside the screen", map[string]interface{}{
			"serial":  b.serial,
			"size":    fmt.Sprintf("%dx%d", width, height),
			"targets": strings.Join(outside, ","),
		})
	}
}

// Run drives the loop until ctx is cancelled or an operation fails. A
// cancelled run returns ctx.Err().
func (b *Bot) Run(ctx context.Context) (err error) {
	if b.screen == nil || b.actuator == nil {
		return errNotInitialized
	}

	b.startedAt = b.now()
	defer func() {
		elapsed := b.now().Sub(b.startedAt)
		stopErr := err
		if errors.Is(err, context.Canceled) {
			stopErr = nil
		}
		if stopErr != nil {
			b.publish(events.NewErrorEvent("bot", stopErr))
		}
		b.publish(events.NewRunStoppedEvent(b.state.LoopCount, elapsed, stopErr))
	}()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		b.drainPause()
		if b.state.Paused {
			if err := b.actuator.Sleep(ctx, b.config.PausePoll); err != nil {
				return stopCause(ctx, err)
			}
			continue
		}

		if err := b.step(ctx); err != nil {
			return stopCause(ctx, err)
		}
	}
}

// stopCause reports cancellation in place of the failure it caused, such as a
// device command killed mid-flight
func stopCause(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return err
}

// step runs one outer iteration
func (b *Bot) step(ctx context.Context) error {
	b.screen.Advance()

	if b.state.LoopCount > 0 && b.state.LoopCount%b.config.ResyncEvery == 0 {
		if err := b.resync(ctx); err != nil {
			return err
		}
	}

	defer func() { b.state.LoopCount++ }()

	if b.state.InBattle {
		return b.handleBattle(ctx)
	}

	onMenu, err := b.checkOnMenu(ctx)
	if err != nil {
		return fmt.Errorf("menu check: %w", err)
	}
	if onMenu {
		return b.handleMenu(ctx)
	}

	// Neither menu nor a confirmed battle: assume the battle is running
	b.publish(events.NewStateChangedEvent(PhaseUnknown.String(), PhaseInBattle.String(), b.state.LoopCount))
	b.state.InBattle = true
	return b.dismissStuck(ctx)
}

// resync replaces the assumed battle flag with a fresh screen check
func (b *Bot) resync(ctx context.Context) error {
	elapsed := b.now().Sub(b.startedAt)
	b.logger.Infof("Loop ran for %d milliseconds", elapsed.Milliseconds())

	assumed := b.state.InBattle
	actual, err := b.checkInBattle(ctx)
	if err != nil {
		return fmt.Errorf("resync battle check: %w", err)
	}

	b.publish(events.NewResyncedEvent(assumed, actual, b.state.LoopCount, elapsed))
	b.setInBattle(actual)
	return nil
}

// drainPause applies every pending toggle without blocking
func (b *Bot) drainPause() {
	for {
		select {
		case source := <-b.pause.Toggles():
			b.state.Paused = !b.state.Paused
			if b.state.Paused {
				b.logger.Info("Paused")
			} else {
				b.logger.Info("Resumed")
			}
			b.publish(events.NewPauseToggledEvent(b.state.Paused, source))
		default:
			return
		}
	}
}

// waitWhilePaused blocks while paused. Used as the gate of tap-until loops.
func (b *Bot) waitWhilePaused(ctx context.Context) error {
	for {
		b.drainPause()
		if !b.state.Paused {
			return nil
		}
		if err := b.actuator.Sleep(ctx, b.config.PausePoll); err != nil {
			return err
		}
	}
}

// retryPolicy builds the policy of a tap-until loop
func (b *Bot) retryPolicy(delay time.Duration) actions.RetryPolicy {
	return actions.RetryPolicy{
		Delay:       delay,
		MaxAttempts: b.config.MaxTapAttempts,
		Gate:        b.waitWhilePaused,
		Sleep:       b.actuator.Sleep,
	}
}

// locate matches a template, capturing a fresh frame first when refresh is set
func (b *Bot) locate(ctx context.Context, name string, refresh bool) (*cv.MatchResult, error) {
	if refresh {
		if err := b.screen.Refresh(ctx); err != nil {
			return nil, err
		}
	}

	match, err := b.screen.Locate(ctx, name)
	if err != nil {
		return nil, err
	}

	b.logger.DebugWithContext("Match", map[string]interface{}{
		"template":   name,
		"confidence": fmt.Sprintf("%.3f", match.Confidence),
		"found":      match.Found,
	})
	return match, nil
}

func (b *Bot) setInBattle(inBattle bool) {
	if b.state.InBattle == inBattle {
		return
	}
	from := b.state.Phase()
	b.state.InBattle = inBattle
	b.publish(events.NewStateChangedEvent(from.String(), b.state.Phase().String(), b.state.LoopCount))
}

func (b *Bot) publish(event events.Event) {
	if b.events != nil {
		b.events.Publish(event)
	}
}
