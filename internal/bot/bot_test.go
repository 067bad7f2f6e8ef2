package bot

import (
	"context"
	"bytes"
	"errors"
	"fmt"
	"image"
	"io"
	"reflect"
	"strings"
	"testing"
	"time"

	"jordanella.com/battlefarm-go/internal/adb"
	"jordanella.com/battlefarm-go/internal/cv"
	"jordanella.com/battlefarm-go/internal/events"
	"jordanella.com/battlefarm-go/internal/logging"
	"jordanella.com/battlefarm-go/pkg/templates"
)

type fakeMatch struct {
	confidence float64
	center     image.Point
}

// fakeScreen serves scripted confidences per template
type fakeScreen struct {
	visible   map[string]fakeMatch
	advances  int
	refreshes int
	locates   []string
}

func newFakeScreen() *fakeScreen {
	return &fakeScreen{visible: make(map[string]fakeMatch)}
}

func (s *fakeScreen) show(name string, confidence float64, center image.Point) {
	s.visible[name] = fakeMatch{confidence: confidence, center: center}
}

func (s *fakeScreen) Advance() uint64 {
	s.advances++
	return uint64(s.advances)
}

func (s *fakeScreen) Refresh(ctx context.Context) error {
	s.refreshes++
	return nil
}

func (s *fakeScreen) Locate(ctx context.Context, name string, opts ...cv.Option) (*cv.MatchResult, error) {
	s.locates = append(s.locates, name)
	m := s.visible[name]
	return &cv.MatchResult{
		Found:      m.confidence >= cv.DefaultThreshold,
		Center:     m.center,
		Confidence: m.confidence,
	}, nil
}

func (s *fakeScreen) reset() {
	s.advances, s.refreshes, s.locates = 0, 0, nil
}

// fakeActuator records taps and sleeps without waiting
type fakeActuator struct {
	taps    []image.Point
	sleeps  []time.Duration
	tapErr  error
	onTap   func(p image.Point)
	onSleep func(d time.Duration)
}

func (a *fakeActuator) Tap(ctx context.Context, p image.Point) error {
	a.taps = append(a.taps, p)
	if a.onTap != nil {
		a.onTap(p)
	}
	return a.tapErr
}

func (a *fakeActuator) TapSequence(ctx context.Context, points []image.Point, gap time.Duration) error {
	for i, p := range points {
		if i > 0 {
			if err := a.Sleep(ctx, gap); err != nil {
				return err
			}
		}
		if err := a.Tap(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

func (a *fakeActuator) Sleep(ctx context.Context, d time.Duration) error {
	a.sleeps = append(a.sleeps, d)
	if a.onSleep != nil {
		a.onSleep(d)
	}
	return ctx.Err()
}

func (a *fakeActuator) countTaps(p image.Point) int {
	n := 0
	for _, t := range a.taps {
		if t == p {
			n++
		}
	}
	return n
}

type fakeDevices struct {
	devices []adb.DeviceInfo
}

func (f fakeDevices) ListDevices(ctx context.Context) ([]adb.DeviceInfo, error) {
	return f.devices, nil
}

type fakeDisplay struct {
	width, height int
	err           error
}

func (d fakeDisplay) WindowSize(ctx context.Context) (int, int, error) {
	return d.width, d.height, d.err
}

type recordingPublisher struct {
	events []events.Event
}

func (r *recordingPublisher) Publish(e events.Event) {
	r.events = append(r.events, e)
}

func (r *recordingPublisher) ofType(t events.EventType) []events.Event {
	var out []events.Event
	for _, e := range r.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

var onlineDevice = []adb.DeviceInfo{{Serial: "emulator-5554", State: adb.StateDevice}}

// newTestBot initializes a bot against the fakes and clears the startup
// activity from them
func newTestBot(t *testing.T, screen *fakeScreen, actuator *fakeActuator) (*Bot, *recordingPublisher) {
	t.Helper()

	pub := &recordingPublisher{}
	b := New(DefaultConfig(), fakeDevices{devices: onlineDevice}, func(ctx context.Context, d adb.DeviceInfo) (Binding, error) {
		return Binding{Screen: screen, Actuator: actuator}, nil
	})
	b.SetLogger(logging.NewLogger("Bot").SetOutput(io.Discard))
	b.SetEventBus(pub)

	if err := b.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	screen.reset()
	return b, pub
}

func TestInitializeSeedsBattleState(t *testing.T) {
	tests := []struct {
		name       string
		confidence float64
		want       bool
	}{
		{"indicator visible", 0.85, true},
		{"indicator at threshold", 0.7, true},
		{"indicator below threshold", 0.5, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			screen := newFakeScreen()
			screen.show(templates.InBattle, tt.confidence, image.Pt(10, 10))

			b, pub := newTestBot(t, screen, &fakeActuator{})

			if b.State().InBattle != tt.want {
				t.Errorf("Expected InBattle=%v, got %v", tt.want, b.State().InBattle)
			}
			if b.Serial() != "emulator-5554" {
				t.Errorf("Expected serial emulator-5554, got %s", b.Serial())
			}
			if len(pub.ofType(events.EventTypeRunStarted)) != 1 {
				t.Errorf("Expected one run.started event")
			}
		})
	}
}

func TestInitializeWithoutDevice(t *testing.T) {
	bound := false
	b := New(DefaultConfig(), fakeDevices{}, func(ctx context.Context, d adb.DeviceInfo) (Binding, error) {
		bound = true
		return Binding{Screen: newFakeScreen(), Actuator: &fakeActuator{}}, nil
	})
	b.SetLogger(logging.NewLogger("Bot").SetOutput(io.Discard))

	err := b.Initialize(context.Background())
	if !errors.Is(err, adb.ErrNoDeviceConnected) {
		t.Fatalf("Expected ErrNoDeviceConnected, got %v", err)
	}
	if bound {
		t.Error("Device should not be bound when none is online")
	}

	if err := b.Run(context.Background()); !errors.Is(err, errNotInitialized) {
		t.Errorf("Expected Run to refuse an uninitialized bot, got %v", err)
	}
}

func TestInitializeChecksLayoutFit(t *testing.T) {
	tests := []struct {
		name     string
		display  fakeDisplay
		wantWarn string
	}{
		{"layout fits", fakeDisplay{width: 1080, height: 2400}, ""},
		{"smaller screen", fakeDisplay{width: 540, height: 960}, "Tap targets fall outside the screen"},
		{"size unavailable", fakeDisplay{err: errors.New("wm: not found")}, "Could not read screen size"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			screen := newFakeScreen()
			var logs bytes.Buffer

			b := New(DefaultConfig(), fakeDevices{devices: onlineDevice}, func(ctx context.Context, d adb.DeviceInfo) (Binding, error) {
				return Binding{Screen: screen, Actuator: &fakeActuator{}, Display: tt.display}, nil
			})
			b.SetLogger(logging.NewLogger("Bot").SetOutput(&logs))

			if err := b.Initialize(context.Background()); err != nil {
				t.Fatalf("A layout mismatch must not fail Initialize: %v", err)
			}

			out := logs.String()
			if tt.wantWarn == "" {
				if strings.Contains(out, "outside the screen") || strings.Contains(out, "screen size") {
					t.Errorf("Expected no layout warning, got %q", out)
				}
				return
			}
			if !strings.Contains(out, tt.wantWarn) {
				t.Errorf("Expected %q in the log, got %q", tt.wantWarn, out)
			}
		})
	}
}

func TestLayoutOutside(t *testing.T) {
	l := DefaultLayout()

	if got := l.Outside(cv.NewRegion(0, 0, 1080, 2400)); len(got) != 0 {
		t.Errorf("Expected every target on a 1080x2400 screen, got %v", got)
	}

	got := l.Outside(cv.NewRegion(0, 0, 720, 2100))
	want := []string{"upgrade_menu", "upgrade_production", "battle_menu"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Expected %v outside a 720x2100 screen, got %v", want, got)
	}
}

func TestPhaseFromState(t *testing.T) {
	tests := []struct {
		state State
		want  Phase
	}{
		{State{}, PhaseOnMenu},
		{State{InBattle: true}, PhaseInBattle},
		{State{Paused: true}, PhasePaused},
		{State{InBattle: true, Paused: true}, PhasePaused},
	}

	for _, tt := range tests {
		if got := tt.state.Phase(); got != tt.want {
			t.Errorf("%+v: expected %s, got %s", tt.state, tt.want, got)
		}
	}
}

func TestPausedLoopIssuesNothing(t *testing.T) {
	screen := newFakeScreen()
	screen.show(templates.InBattle, 0.9, image.Pt(10, 10))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	actuator := &fakeActuator{}
	actuator.onSleep = func(d time.Duration) {
		if len(actuator.sleeps) == 5 {
			cancel()
		}
	}

	b, pub := newTestBot(t, screen, actuator)
	b.PauseSwitch().Toggle("test")

	err := b.Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Expected context.Canceled, got %v", err)
	}

	if len(actuator.taps) != 0 {
		t.Errorf("Expected no taps while paused, got %v", actuator.taps)
	}
	if screen.refreshes != 0 || len(screen.locates) != 0 || screen.advances != 0 {
		t.Errorf("Expected no capture or match while paused, got refreshes=%d locates=%v advances=%d",
			screen.refreshes, screen.locates, screen.advances)
	}
	for i, d := range actuator.sleeps {
		if d != 100*time.Millisecond {
			t.Errorf("Sleep %d: expected 100ms poll, got %v", i, d)
		}
	}

	toggles := pub.ofType(events.EventTypePauseToggled)
	if len(toggles) != 1 || toggles[0].Data["paused"] != true {
		t.Errorf("Expected one pause toggle to paused, got %v", toggles)
	}
	stopped := pub.ofType(events.EventTypeRunStopped)
	if len(stopped) != 1 {
		t.Fatalf("Expected one run.stopped event, got %d", len(stopped))
	}
	if _, hasErr := stopped[0].Data["error"]; hasErr {
		t.Error("Cancellation should not be reported as a run error")
	}
}

func TestResumeFromPauseTapsTroop(t *testing.T) {
	screen := newFakeScreen()
	screen.show(templates.InBattle, 0.9, image.Pt(10, 10))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	actuator := &fakeActuator{}
	b, pub := newTestBot(t, screen, actuator)

	actuator.onSleep = func(d time.Duration) {
		b.PauseSwitch().Toggle("test")
	}
	actuator.onTap = func(p image.Point) {
		cancel()
	}
	b.PauseSwitch().Toggle("test")

	if err := b.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("Expected context.Canceled, got %v", err)
	}

	if !reflect.DeepEqual(actuator.sleeps, []time.Duration{100 * time.Millisecond}) {
		t.Errorf("Expected a single pause poll, got %v", actuator.sleeps)
	}
	if !reflect.DeepEqual(actuator.taps, []image.Point{b.config.Layout.FirstTroop}) {
		t.Errorf("Expected the troop tap right after resuming, got %v", actuator.taps)
	}
	if screen.refreshes != 0 || len(screen.locates) != 0 {
		t.Errorf("Expected no capture on resume, got refreshes=%d locates=%v", screen.refreshes, screen.locates)
	}
	if screen.advances != 1 {
		t.Errorf("Expected one iteration after resuming, got %d", screen.advances)
	}

	toggles := pub.ofType(events.EventTypePauseToggled)
	if len(toggles) != 2 || toggles[0].Data["paused"] != true || toggles[1].Data["paused"] != false {
		t.Errorf("Expected pause then resume toggles, got %v", toggles)
	}
}

func TestRunCancelledDuringTap(t *testing.T) {
	screen := newFakeScreen()
	screen.show(templates.InBattle, 0.9, image.Pt(10, 10))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	actuator := &fakeActuator{}
	b, pub := newTestBot(t, screen, actuator)

	// What a killed adb child looks like once the client wraps it
	actuator.tapErr = &adb.DeviceCommandError{
		Serial:  "emulator-5554",
		Command: "input tap 680 2024",
		Err:     fmt.Errorf("%w: signal: killed", context.Canceled),
	}
	actuator.onTap = func(p image.Point) {
		cancel()
	}

	err := b.Run(ctx)
	if err != context.Canceled {
		t.Fatalf("Expected the bare cancellation, got %v", err)
	}

	if len(pub.ofType(events.EventTypeError)) != 0 {
		t.Error("Cancellation should not publish an error event")
	}
	stopped := pub.ofType(events.EventTypeRunStopped)
	if len(stopped) != 1 {
		t.Fatalf("Expected one run.stopped event, got %d", len(stopped))
	}
	if _, hasErr := stopped[0].Data["error"]; hasErr {
		t.Error("Cancellation should not be reported as a run error")
	}
}

func TestBattleTapsUntilCheck(t *testing.T) {
	screen := newFakeScreen()
	screen.show(templates.InBattle, 0.9, image.Pt(10, 10))
	actuator := &fakeActuator{}
	b, _ := newTestBot(t, screen, actuator)

	for i := 0; i < 5; i++ {
		if err := b.step(context.Background()); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
	}

	if got := actuator.countTaps(b.config.Layout.FirstTroop); got != 5 {
		t.Errorf("Expected 5 troop taps, got %d", got)
	}
	if b.State().BattleCount != 5 || b.State().LoopCount != 5 {
		t.Errorf("Unexpected state %+v", b.State())
	}
	if screen.refreshes != 0 {
		t.Errorf("Expected no captures below the check interval, got %d", screen.refreshes)
	}
	if screen.advances != 5 {
		t.Errorf("Expected one epoch per iteration, got %d", screen.advances)
	}
}

func TestBattleCheckWithoutCloseButton(t *testing.T) {
	screen := newFakeScreen()
	screen.show(templates.InBattle, 0.9, image.Pt(10, 10))
	screen.show(templates.CloseBattle, 0.3, image.Pt(200, 300))
	actuator := &fakeActuator{}
	b, pub := newTestBot(t, screen, actuator)
	b.state.BattleCount = 99

	if err := b.step(context.Background()); err != nil {
		t.Fatalf("step failed: %v", err)
	}

	if !reflect.DeepEqual(actuator.taps, []image.Point{b.config.Layout.FirstTroop}) {
		t.Errorf("Expected only the troop tap, got %v", actuator.taps)
	}
	state := b.State()
	if !state.InBattle || state.BattleCount != 0 {
		t.Errorf("Expected to stay in battle with counter reset, got %+v", state)
	}
	if screen.refreshes != 2 {
		t.Errorf("Expected forced captures for close button and indicator, got %d", screen.refreshes)
	}
	checked := pub.ofType(events.EventTypeBattleChecked)
	if len(checked) != 1 || checked[0].Data["close_found"] != false {
		t.Errorf("Expected a battle.checked event without close button, got %v", checked)
	}
}

func TestBattleExitTapsCloseUntilMenu(t *testing.T) {
	closeAt := image.Pt(200, 300)

	screen := newFakeScreen()
	screen.show(templates.InBattle, 0.9, image.Pt(10, 10))
	screen.show(templates.CloseBattle, 0.92, closeAt)
	screen.show(templates.MarketMenu, 0.1, image.Pt(50, 2100))

	actuator := &fakeActuator{}
	b, pub := newTestBot(t, screen, actuator)
	b.state.BattleCount = 99

	actuator.onTap = func(p image.Point) {
		if p == closeAt && actuator.countTaps(closeAt) == 3 {
			screen.show(templates.MarketMenu, 0.95, image.Pt(50, 2100))
			screen.show(templates.InBattle, 0.1, image.Pt(10, 10))
		}
	}

	if err := b.step(context.Background()); err != nil {
		t.Fatalf("step failed: %v", err)
	}

	want := []image.Point{b.config.Layout.FirstTroop, closeAt, closeAt, closeAt}
	if !reflect.DeepEqual(actuator.taps, want) {
		t.Errorf("Expected taps %v, got %v", want, actuator.taps)
	}
	wantSleeps := []time.Duration{500 * time.Millisecond, 500 * time.Millisecond, 500 * time.Millisecond}
	if !reflect.DeepEqual(actuator.sleeps, wantSleeps) {
		t.Errorf("Expected sleeps %v, got %v", wantSleeps, actuator.sleeps)
	}

	state := b.State()
	if state.InBattle || state.BattleCount != 0 {
		t.Errorf("Expected to leave battle with counter reset, got %+v", state)
	}

	exited := pub.ofType(events.EventTypeBattleExited)
	if len(exited) != 1 || exited[0].Data["attempts"] != 3 {
		t.Errorf("Expected battle.exited after 3 attempts, got %v", exited)
	}
}

func TestBattleExitHonoursPause(t *testing.T) {
	closeAt := image.Pt(200, 300)

	screen := newFakeScreen()
	screen.show(templates.InBattle, 0.9, image.Pt(10, 10))
	screen.show(templates.CloseBattle, 0.92, closeAt)

	actuator := &fakeActuator{}
	b, _ := newTestBot(t, screen, actuator)
	b.state.BattleCount = 99

	actuator.onTap = func(p image.Point) {
		switch actuator.countTaps(closeAt) {
		case 1:
			b.PauseSwitch().Toggle("test")
		case 2:
			screen.show(templates.MarketMenu, 0.95, image.Pt(50, 2100))
		}
	}
	actuator.onSleep = func(d time.Duration) {
		if d == b.config.PausePoll {
			b.PauseSwitch().Toggle("test")
		}
	}

	if err := b.step(context.Background()); err != nil {
		t.Fatalf("step failed: %v", err)
	}

	wantSleeps := []time.Duration{500 * time.Millisecond, 100 * time.Millisecond, 500 * time.Millisecond}
	if !reflect.DeepEqual(actuator.sleeps, wantSleeps) {
		t.Errorf("Expected sleeps %v, got %v", wantSleeps, actuator.sleeps)
	}
	if b.State().Paused {
		t.Error("Expected the loop to be resumed")
	}
}

func TestMenuUpgradeWithoutStartButton(t *testing.T) {
	screen := newFakeScreen()
	screen.show(templates.MarketMenu, 0.9, image.Pt(50, 2100))
	screen.show(templates.StartBattle, 0.4, image.Pt(540, 1800))

	actuator := &fakeActuator{}
	b, _ := newTestBot(t, screen, actuator)

	if err := b.step(context.Background()); err != nil {
		t.Fatalf("step failed: %v", err)
	}

	l := b.config.Layout
	want := []image.Point{l.UpgradeMenu, l.UpgradeProduction, l.UpgradeProduction, l.UpgradeProduction, l.BattleMenu}
	if !reflect.DeepEqual(actuator.taps, want) {
		t.Errorf("Expected taps %v, got %v", want, actuator.taps)
	}
	wantSleeps := []time.Duration{
		400 * time.Millisecond,
		200 * time.Millisecond, 200 * time.Millisecond, 200 * time.Millisecond,
		400 * time.Millisecond,
	}
	if !reflect.DeepEqual(actuator.sleeps, wantSleeps) {
		t.Errorf("Expected sleeps %v, got %v", wantSleeps, actuator.sleeps)
	}
	if b.State().InBattle {
		t.Error("Expected to remain out of battle")
	}
}

func TestMenuStartsBattle(t *testing.T) {
	startAt := image.Pt(540, 1800)

	screen := newFakeScreen()
	screen.show(templates.MarketMenu, 0.9, image.Pt(50, 2100))
	screen.show(templates.StartBattle, 0.88, startAt)

	actuator := &fakeActuator{}
	b, pub := newTestBot(t, screen, actuator)

	actuator.onTap = func(p image.Point) {
		if p == startAt && actuator.countTaps(startAt) == 2 {
			screen.show(templates.InBattle, 0.9, image.Pt(10, 10))
		}
	}

	if err := b.step(context.Background()); err != nil {
		t.Fatalf("step failed: %v", err)
	}

	if got := actuator.countTaps(startAt); got != 2 {
		t.Errorf("Expected 2 start taps, got %d", got)
	}
	if !b.State().InBattle {
		t.Error("Expected to be in battle")
	}
	entered := pub.ofType(events.EventTypeBattleEntered)
	if len(entered) != 1 || entered[0].Data["attempts"] != 2 {
		t.Errorf("Expected battle.entered after 2 attempts, got %v", entered)
	}
}

func TestUnknownScreenAssumesBattle(t *testing.T) {
	stuckAt := image.Pt(100, 200)

	screen := newFakeScreen()
	screen.show(templates.AreYouStuck, 0.8, stuckAt)

	actuator := &fakeActuator{}
	b, pub := newTestBot(t, screen, actuator)

	if err := b.step(context.Background()); err != nil {
		t.Fatalf("step failed: %v", err)
	}

	if !b.State().InBattle {
		t.Error("Expected the loop to assume a battle")
	}
	if !reflect.DeepEqual(actuator.taps, []image.Point{stuckAt}) {
		t.Errorf("Expected the stuck prompt to be dismissed, got %v", actuator.taps)
	}
	if screen.refreshes != 1 {
		t.Errorf("Expected the stuck check to reuse the menu frame, got %d captures", screen.refreshes)
	}

	changed := pub.ofType(events.EventTypeStateChanged)
	if len(changed) != 1 || changed[0].Data["from"] != "UNKNOWN" {
		t.Errorf("Expected a transition from UNKNOWN, got %v", changed)
	}
}

func TestResyncEveryN(t *testing.T) {
	screen := newFakeScreen()
	screen.show(templates.InBattle, 0.9, image.Pt(10, 10))

	actuator := &fakeActuator{}
	b, pub := newTestBot(t, screen, actuator)
	b.config.ResyncEvery = 3

	for i := 0; i < 3; i++ {
		if err := b.step(context.Background()); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
	}
	if len(pub.ofType(events.EventTypeResynced)) != 0 {
		t.Fatal("Resync fired too early")
	}

	screen.show(templates.InBattle, 0.1, image.Pt(10, 10))
	screen.show(templates.MarketMenu, 0.9, image.Pt(50, 2100))

	if err := b.step(context.Background()); err != nil {
		t.Fatalf("resync step: %v", err)
	}

	resynced := pub.ofType(events.EventTypeResynced)
	if len(resynced) != 1 {
		t.Fatalf("Expected one resync, got %d", len(resynced))
	}
	if resynced[0].Data["assumed_in_battle"] != true || resynced[0].Data["actual_in_battle"] != false {
		t.Errorf("Unexpected resync payload %v", resynced[0].Data)
	}
	if b.State().InBattle {
		t.Error("Expected the resync to correct the battle flag")
	}
}

func TestRunStopsOnTransportError(t *testing.T) {
	screen := newFakeScreen()
	screen.show(templates.InBattle, 0.9, image.Pt(10, 10))

	tapErr := &adb.DeviceCommandError{Serial: "emulator-5554", Command: "input tap 680 2024", Err: errors.New("device offline")}
	actuator := &fakeActuator{}
	b, pub := newTestBot(t, screen, actuator)
	actuator.tapErr = tapErr

	err := b.Run(context.Background())

	var cmdErr *adb.DeviceCommandError
	if !errors.As(err, &cmdErr) {
		t.Fatalf("Expected DeviceCommandError, got %v", err)
	}
	if len(pub.ofType(events.EventTypeError)) != 1 {
		t.Error("Expected an error event")
	}
	stopped := pub.ofType(events.EventTypeRunStopped)
	if len(stopped) != 1 || stopped[0].Data["error"] == nil {
		t.Errorf("Expected run.stopped with error, got %v", stopped)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"defaults", func(c *Config) {}, false},
		{"zero threshold", func(c *Config) { c.Threshold = 0 }, true},
		{"bad codec", func(c *Config) { c.FrameCodec = "jpeg" }, true},
		{"negative retry bound", func(c *Config) { c.MaxTapAttempts = -1 }, true},
		{"negative delay", func(c *Config) { c.Timing.ExitBattleDelay = -time.Second }, true},
		{"history without path", func(c *Config) { c.HistoryEnabled = true; c.HistoryPath = "" }, true},
		{"bounded retries", func(c *Config) { c.MaxTapAttempts = 50 }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := DefaultConfig()
			tt.mutate(c)
			err := c.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
