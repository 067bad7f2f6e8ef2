package bot

import (
	"fmt"
	"time"

	"jordanella.com/battlefarm-go/internal/cv"
)

// Config holds every tunable of a farming run
type Config struct {
	// Device transport
	ADBPath string // Path to adb executable or its directory (searched when empty)
	ADBHost string
	ADBPort int
	Serial  string // Device to drive; first online device when empty

	// Capture
	FramePath  string // Single frame-buffer file, overwritten on every capture
	FrameCodec cv.Codec

	// Templates
	TemplateDir     string
	TemplateCatalog string // Optional YAML overrides
	Threshold       float64

	Layout Layout
	Timing Timing

	// Loop behaviour
	BattleCheckEvery int           // Troop taps between close-battle checks
	ResyncEvery      int           // Outer iterations between forced battle re-checks
	PausePoll        time.Duration // Poll interval while paused
	MaxTapAttempts   int           // Bound for tap-until loops, 0 = unbounded

	// Run history
	HistoryEnabled bool
	HistoryPath    string

	// Remote control socket, disabled when empty
	RemoteListen string

	LogLevel string
	LogFile  string
}

// Timing groups the fixed waits of the farming sequences
type Timing struct {
	ExitBattleDelay  time.Duration // Between close-battle taps
	UpgradeMenuDelay time.Duration // After opening the upgrade menu
	ProductionGap    time.Duration // After each upgrade production tap
	ProductionTaps   int
	BattleMenuDelay  time.Duration // Before tapping the battle menu
	StartBattleDelay time.Duration // Between start-battle taps
}

// DefaultTiming returns the hand-tuned waits
func DefaultTiming() Timing {
	return Timing{
		ExitBattleDelay:  500 * time.Millisecond,
		UpgradeMenuDelay: 400 * time.Millisecond,
		ProductionGap:    200 * time.Millisecond,
		ProductionTaps:   3,
		BattleMenuDelay:  400 * time.Millisecond,
		StartBattleDelay: 0,
	}
}

// DefaultConfig returns a configuration with the stock constants
func DefaultConfig() *Config {
	return &Config{
		ADBHost:          "127.0.0.1",
		ADBPort:          5037,
		FramePath:        "./screencap.png",
		FrameCodec:       cv.CodecPNG,
		TemplateDir:      "./images",
		Threshold:        cv.DefaultThreshold,
		Layout:           DefaultLayout(),
		Timing:           DefaultTiming(),
		BattleCheckEvery: 100,
		ResyncEvery:      10000,
		PausePoll:        100 * time.Millisecond,
		HistoryPath:      "./battlefarm.db",
		LogLevel:         "INFO",
	}
}

// Validate rejects settings the loop cannot run with
func (c *Config) Validate() error {
	if c.ADBPort <= 0 || c.ADBPort > 65535 {
		return fmt.Errorf("adb port %d out of range", c.ADBPort)
	}
	if c.FramePath == "" {
		return fmt.Errorf("frame path must be set")
	}
	if _, err := cv.ParseCodec(string(c.FrameCodec)); err != nil {
		return err
	}
	if c.TemplateDir == "" {
		return fmt.Errorf("template directory must be set")
	}
	if c.Threshold <= 0 || c.Threshold > 1 {
		return fmt.Errorf("threshold %.3f must be in (0,1]", c.Threshold)
	}
	if c.BattleCheckEvery <= 0 {
		return fmt.Errorf("battle_check_every must be positive, got %d", c.BattleCheckEvery)
	}
	if c.ResyncEvery <= 0 {
		return fmt.Errorf("resync_every must be positive, got %d", c.ResyncEvery)
	}
	if c.PausePoll <= 0 {
		return fmt.Errorf("pause poll interval must be positive")
	}
	if c.MaxTapAttempts < 0 {
		return fmt.Errorf("max_tap_attempts must not be negative")
	}
	if c.Timing.ProductionTaps < 0 {
		return fmt.Errorf("production taps must not be negative")
	}
	for name, d := range map[string]time.Duration{
		"exit_battle":  c.Timing.ExitBattleDelay,
		"upgrade_menu": c.Timing.UpgradeMenuDelay,
		"production":   c.Timing.ProductionGap,
		"battle_menu":  c.Timing.BattleMenuDelay,
		"start_battle": c.Timing.StartBattleDelay,
	} {
		if d < 0 {
			return fmt.Errorf("%s delay must not be negative", name)
		}
	}
	if c.HistoryEnabled && c.HistoryPath == "" {
		return fmt.Errorf("history enabled without a database path")
	}
	return nil
}
