package config

import (
	"image"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"jordanella.com/battlefarm-go/internal/cv"
)

func writeSettings(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "Settings.ini")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write settings: %v", err)
	}
	return path
}

func TestLoadFromINIOverrides(t *testing.T) {
	path := writeSettings(t, `
[ADB]
port = 5038
serial = emulator-5556

[Capture]
codec = snappy

[Matching]
threshold = 0.8

[Layout]
first_troop = 700, 2000

[Timing]
exit_battle_ms = 750

[Loop]
max_tap_attempts = 40

[History]
enabled = true
`)

	config, err := LoadFromINI(path)
	if err != nil {
		t.Fatalf("LoadFromINI failed: %v", err)
	}

	if config.ADBPort != 5038 || config.Serial != "emulator-5556" {
		t.Errorf("ADB section not applied: port=%d serial=%s", config.ADBPort, config.Serial)
	}
	if config.ADBHost != "127.0.0.1" {
		t.Errorf("Expected default host, got %s", config.ADBHost)
	}
	if config.FrameCodec != cv.CodecSnappy {
		t.Errorf("Expected snappy codec, got %s", config.FrameCodec)
	}
	if config.Threshold != 0.8 {
		t.Errorf("Expected threshold 0.8, got %v", config.Threshold)
	}
	if config.Layout.FirstTroop != image.Pt(700, 2000) {
		t.Errorf("Expected first troop (700,2000), got %v", config.Layout.FirstTroop)
	}
	if config.Layout.BattleMenu != image.Pt(543, 2178) {
		t.Errorf("Expected default battle menu, got %v", config.Layout.BattleMenu)
	}
	if config.Timing.ExitBattleDelay != 750*time.Millisecond {
		t.Errorf("Expected 750ms exit delay, got %v", config.Timing.ExitBattleDelay)
	}
	if config.Timing.UpgradeMenuDelay != 400*time.Millisecond {
		t.Errorf("Expected default upgrade delay, got %v", config.Timing.UpgradeMenuDelay)
	}
	if config.MaxTapAttempts != 40 || !config.HistoryEnabled {
		t.Errorf("Loop/History sections not applied: %+v", config)
	}
	if err := config.Validate(); err != nil {
		t.Errorf("Loaded config should validate: %v", err)
	}
}

func TestLoadFromINIErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"bad point", "[Layout]\nbattle_menu = 543\n"},
		{"bad coordinate", "[Layout]\nbattle_menu = a,2178\n"},
		{"bad codec", "[Capture]\ncodec = jpeg\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LoadFromINI(writeSettings(t, tt.content)); err == nil {
				t.Error("Expected an error")
			}
		})
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	config, usedDefaults, err := Load(filepath.Join(t.TempDir(), "missing.ini"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !usedDefaults {
		t.Error("Expected defaults for a missing file")
	}
	if !reflect.DeepEqual(config, NewDefaultConfig()) {
		t.Errorf("Expected default config, got %+v", config)
	}
}

func TestSaveAndLoad(t *testing.T) {
	config := NewDefaultConfig()
	config.Serial = "R58M123"
	config.Layout.UpgradeProduction = image.Pt(860, 1310)
	config.Timing.StartBattleDelay = 250 * time.Millisecond
	config.RemoteListen = "127.0.0.1:8765"

	path := filepath.Join(t.TempDir(), "Settings.ini")
	if err := SaveToINI(config, path); err != nil {
		t.Fatalf("SaveToINI failed: %v", err)
	}

	loaded, err := LoadFromINI(path)
	if err != nil {
		t.Fatalf("LoadFromINI failed: %v", err)
	}
	if !reflect.DeepEqual(config, loaded) {
		t.Errorf("Round trip mismatch:\nsaved  %+v\nloaded %+v", config, loaded)
	}
}
