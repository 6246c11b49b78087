package cliapp

import (
	"os"
	"path/filepath"
	"testing"
)

func Test_LoadConfig_ReturnsZeroValue_WhenNoFileExists(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if cfg != (Config{}) {
		t.Fatalf("cfg=%+v, want zero value", cfg)
	}
}

func Test_LoadConfig_ReadsHujsonWithComments(t *testing.T) {
	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)

	dir := filepath.Join(xdg, "mmqf")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	contents := `{
		// default queue location
		"path": "/tmp/orders.mmqf",
		"capacity": 1024,
		"slot_size": 64,
	}`

	if err := os.WriteFile(filepath.Join(dir, ConfigFileName), []byte(contents), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if cfg.Path != "/tmp/orders.mmqf" || cfg.Capacity != 1024 || cfg.SlotSize != 64 {
		t.Fatalf("cfg=%+v, want path/capacity/slot_size from file", cfg)
	}
}
