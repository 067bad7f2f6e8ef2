package config

import (
	"errors"
	"fmt"
	"image"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/ini.v1"
	"jordanella.com/battlefarm-go/internal/bot"
	"jordanella.com/battlefarm-go/internal/cv"
)

// Load reads the settings file at path. A missing file yields the defaults
// and usedDefaults is true; any other read or parse failure is an error.
func Load(path string) (config *bot.Config, usedDefaults bool, err error) {
	if _, statErr := os.Stat(path); errors.Is(statErr, fs.ErrNotExist) {
		return NewDefaultConfig(), true, nil
	}

	config, err = LoadFromINI(path)
	if err != nil {
		return nil, false, err
	}
	return config, false, nil
}

// LoadFromINI loads configuration from a Settings.ini file. Keys that are
// absent keep their default value.
func LoadFromINI(path string) (*bot.Config, error) {
	cfg, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	config := NewDefaultConfig()

	// Device transport
	section := cfg.Section("ADB")
	config.ADBPath = section.Key("path").MustString(config.ADBPath)
	config.ADBHost = section.Key("host").MustString(config.ADBHost)
	config.ADBPort = section.Key("port").MustInt(config.ADBPort)
	config.Serial = section.Key("serial").MustString(config.Serial)

	// Capture
	section = cfg.Section("Capture")
	config.FramePath = section.Key("frame_path").MustString(config.FramePath)
	codec, err := cv.ParseCodec(section.Key("codec").MustString(string(config.FrameCodec)))
	if err != nil {
		return nil, fmt.Errorf("[Capture] codec: %w", err)
	}
	config.FrameCodec = codec

	// Templates and matching
	section = cfg.Section("Templates")
	config.TemplateDir = section.Key("dir").MustString(config.TemplateDir)
	config.TemplateCatalog = section.Key("catalog").MustString(config.TemplateCatalog)
	config.Threshold = cfg.Section("Matching").Key("threshold").MustFloat64(config.Threshold)

	// Tap targets
	section = cfg.Section("Layout")
	points := []struct {
		key  string
		dest *image.Point
	}{
		{"first_troop", &config.Layout.FirstTroop},
		{"upgrade_menu", &config.Layout.UpgradeMenu},
		{"upgrade_production", &config.Layout.UpgradeProduction},
		{"battle_menu", &config.Layout.BattleMenu},
	}
	for _, p := range points {
		if !section.HasKey(p.key) {
			continue
		}
		point, err := parsePoint(section.Key(p.key).String())
		if err != nil {
			return nil, fmt.Errorf("[Layout] %s: %w", p.key, err)
		}
		*p.dest = point
	}

	// Delays, all in milliseconds
	section = cfg.Section("Timing")
	t := &config.Timing
	t.ExitBattleDelay = millis(section, "exit_battle_ms", t.ExitBattleDelay)
	t.UpgradeMenuDelay = millis(section, "upgrade_menu_ms", t.UpgradeMenuDelay)
	t.ProductionGap = millis(section, "production_gap_ms", t.ProductionGap)
	t.ProductionTaps = section.Key("production_taps").MustInt(t.ProductionTaps)
	t.BattleMenuDelay = millis(section, "battle_menu_ms", t.BattleMenuDelay)
	t.StartBattleDelay = millis(section, "start_battle_ms", t.StartBattleDelay)

	// Loop behaviour
	section = cfg.Section("Loop")
	config.BattleCheckEvery = section.Key("battle_check_every").MustInt(config.BattleCheckEvery)
	config.ResyncEvery = section.Key("resync_every").MustInt(config.ResyncEvery)
	config.PausePoll = millis(section, "pause_poll_ms", config.PausePoll)
	config.MaxTapAttempts = section.Key("max_tap_attempts").MustInt(config.MaxTapAttempts)

	// Run history
	section = cfg.Section("History")
	config.HistoryEnabled = section.Key("enabled").MustBool(config.HistoryEnabled)
	config.HistoryPath = section.Key("db_path").MustString(config.HistoryPath)

	config.RemoteListen = cfg.Section("Remote").Key("listen").MustString(config.RemoteListen)

	section = cfg.Section("Logging")
	config.LogLevel = section.Key("level").MustString(config.LogLevel)
	config.LogFile = section.Key("file").MustString(config.LogFile)

	return config, nil
}

// NewDefaultConfig creates a config with default values
func NewDefaultConfig() *bot.Config {
	return bot.DefaultConfig()
}

// SaveToINI writes configuration to an INI file that LoadFromINI reads back
func SaveToINI(config *bot.Config, path string) error {
	cfg := ini.Empty()

	section := cfg.Section("ADB")
	section.Key("path").SetValue(config.ADBPath)
	section.Key("host").SetValue(config.ADBHost)
	section.Key("port").SetValue(strconv.Itoa(config.ADBPort))
	section.Key("serial").SetValue(config.Serial)

	section = cfg.Section("Capture")
	section.Key("frame_path").SetValue(config.FramePath)
	section.Key("codec").SetValue(string(config.FrameCodec))

	section = cfg.Section("Templates")
	section.Key("dir").SetValue(config.TemplateDir)
	section.Key("catalog").SetValue(config.TemplateCatalog)

	cfg.Section("Matching").Key("threshold").SetValue(strconv.FormatFloat(config.Threshold, 'f', -1, 64))

	section = cfg.Section("Layout")
	section.Key("first_troop").SetValue(formatPoint(config.Layout.FirstTroop))
	section.Key("upgrade_menu").SetValue(formatPoint(config.Layout.UpgradeMenu))
	section.Key("upgrade_production").SetValue(formatPoint(config.Layout.UpgradeProduction))
	section.Key("battle_menu").SetValue(formatPoint(config.Layout.BattleMenu))

	section = cfg.Section("Timing")
	t := config.Timing
	section.Key("exit_battle_ms").SetValue(formatMillis(t.ExitBattleDelay))
	section.Key("upgrade_menu_ms").SetValue(formatMillis(t.UpgradeMenuDelay))
	section.Key("production_gap_ms").SetValue(formatMillis(t.ProductionGap))
	section.Key("production_taps").SetValue(strconv.Itoa(t.ProductionTaps))
	section.Key("battle_menu_ms").SetValue(formatMillis(t.BattleMenuDelay))
	section.Key("start_battle_ms").SetValue(formatMillis(t.StartBattleDelay))

	section = cfg.Section("Loop")
	section.Key("battle_check_every").SetValue(strconv.Itoa(config.BattleCheckEvery))
	section.Key("resync_every").SetValue(strconv.Itoa(config.ResyncEvery))
	section.Key("pause_poll_ms").SetValue(formatMillis(config.PausePoll))
	section.Key("max_tap_attempts").SetValue(strconv.Itoa(config.MaxTapAttempts))

	section = cfg.Section("History")
	section.Key("enabled").SetValue(strconv.FormatBool(config.HistoryEnabled))
	section.Key("db_path").SetValue(config.HistoryPath)

	cfg.Section("Remote").Key("listen").SetValue(config.RemoteListen)

	section = cfg.Section("Logging")
	section.Key("level").SetValue(config.LogLevel)
	section.Key("file").SetValue(config.LogFile)

	return cfg.SaveTo(path)
}

// parsePoint parses "x,y"
func parsePoint(s string) (image.Point, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return image.Point{}, fmt.Errorf("expected \"x,y\", got %q", s)
	}

	x, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return image.Point{}, fmt.Errorf("invalid x in %q: %w", s, err)
	}
	y, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return image.Point{}, fmt.Errorf("invalid y in %q: %w", s, err)
	}
	return image.Pt(x, y), nil
}

func formatPoint(p image.Point) string {
	return fmt.Sprintf("%d,%d", p.X, p.Y)
}

func millis(section *ini.Section, key string, def time.Duration) time.Duration {
	return time.Duration(section.Key(key).MustInt(int(def.Milliseconds()))) * time.Millisecond
}

func formatMillis(d time.Duration) string {
	return strconv.FormatInt(d.Milliseconds(), 10)
}
