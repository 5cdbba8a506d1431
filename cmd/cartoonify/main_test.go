package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfig_FallsBackToDefaults(t *testing.T) {
	t.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "missing.yaml"))

	config, err := loadConfig(rootCmd)
	if err != nil {
		t.Fatalf("loadConfig() error = %v", err)
	}
	if config.Validation.MinWidth != 512 || config.FaceDetection.Provider != "pigo" {
		t.Errorf("expected defaults, got %+v", config.Validation)
	}
}

func TestLoadConfig_ReadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("validation:\n  minWidth: 256\n  minHeight: 256\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CONFIG_PATH", path)

	config, err := loadConfig(rootCmd)
	if err != nil {
		t.Fatalf("loadConfig() error = %v", err)
	}
	if config.Validation.MinWidth != 256 {
		t.Errorf("MinWidth = %d, want 256", config.Validation.MinWidth)
	}
}

func TestSubcommandsRegistered(t *testing.T) {
	for _, name := range []string{"render", "detect"} {
		cmd, _, err := rootCmd.Find([]string{name})
		if err != nil || cmd.Name() != name {
			t.Errorf("subcommand %q not registered: %v", name, err)
		}
	}
}
