package core

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestLoadConfig_AppliesDefaults(t *testing.T) {
	path := writeConfig(t, "port: 9000\n")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Port != 9000 {
		t.Errorf("Port = %d, want 9000", cfg.Port)
	}
	if cfg.Validation.MinWidth != 512 || cfg.Validation.MinHeight != 512 {
		t.Errorf("minimum resolution = %dx%d, want 512x512", cfg.Validation.MinWidth, cfg.Validation.MinHeight)
	}
	if cfg.FaceDetection.Provider != "pigo" {
		t.Errorf("Provider = %q, want pigo", cfg.FaceDetection.Provider)
	}
	if cfg.MaskThreshold() != 0.5 {
		t.Errorf("MaskThreshold() = %v, want 0.5", cfg.MaskThreshold())
	}
	if cfg.Cache.Type != "none" {
		t.Errorf("Cache.Type = %q, want none", cfg.Cache.Type)
	}

	wantNames := []string{"BilateralFilterCommand", "BilateralFilterCommand", "EdgeOverlayCommand", "SharpenCommand"}
	if len(cfg.Commands) != len(wantNames) {
		t.Fatalf("default pipeline has %d commands, want %d", len(cfg.Commands), len(wantNames))
	}
	for i, name := range wantNames {
		if cfg.Commands[i].Name != name {
			t.Errorf("command %d = %q, want %q", i, cfg.Commands[i].Name, name)
		}
	}
}

func TestLoadConfig_ParsesCommands(t *testing.T) {
	path := writeConfig(t, `
logLevel: debug
commands:
  - name: ScaleCommand
    maxWidth: 1024
    maxHeight: 1024
  - name: BilateralFilterCommand
    diameter: 5
    sigmaColor: 75
    sigmaSpace: 75
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.SlogLevel() != slog.LevelDebug {
		t.Errorf("SlogLevel() = %v, want debug", cfg.SlogLevel())
	}

	configs := cfg.CommandConfigs()
	if len(configs) != 2 {
		t.Fatalf("got %d commands, want 2", len(configs))
	}
	if configs[0].Name != "ScaleCommand" || configs[0].Params["maxWidth"] != 1024 {
		t.Errorf("unexpected first command %+v", configs[0])
	}
	if _, ok := configs[1].Params["name"]; ok {
		t.Errorf("name must not leak into params: %+v", configs[1].Params)
	}
}

func TestLoadConfig_EnvironmentOverrides(t *testing.T) {
	t.Setenv("CARTOONIFY_PORT", "7070")
	t.Setenv("CARTOONIFY_CACHE_TYPE", "redis")
	t.Setenv("CARTOONIFY_REDIS_ADDRESS", "localhost:6379")
	t.Setenv("CARTOONIFY_MASK_THRESHOLD", "0.7")

	cfg, err := LoadConfig(writeConfig(t, "port: 9000\n"))
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Port != 7070 {
		t.Errorf("Port = %d, want 7070", cfg.Port)
	}
	if cfg.Cache.Type != "redis" || cfg.Cache.Address != "localhost:6379" {
		t.Errorf("cache = %+v", cfg.Cache)
	}
	if cfg.MaskThreshold() != 0.7 {
		t.Errorf("MaskThreshold() = %v, want 0.7", cfg.MaskThreshold())
	}
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"unknown command", "commands:\n  - name: NoSuchCommand\n"},
		{"bad log level", "logLevel: chatty\n"},
		{"bad provider", "faceDetection:\n  provider: magic\n"},
		{"threshold above one", "segmentation:\n  threshold: 1.5\n"},
		{"redis without address", "cache:\n  type: redis\n"},
		{"malformed ttl", "cache:\n  ttl: soon\n"},
		{"malformed yaml", "port: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LoadConfig(writeConfig(t, tt.content)); err == nil {
				t.Errorf("expected an error")
			}
		})
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected an error for a missing file")
	}
}

func TestRekognitionNeedsNoCascade(t *testing.T) {
	cfg := &ServiceConfig{FaceDetection: FaceDetection{Provider: "rekognition"}}
	cfg.ApplyDefaults()
	if cfg.FaceDetection.CascadePath != "" {
		t.Errorf("CascadePath = %q, want empty", cfg.FaceDetection.CascadePath)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestCacheConfig(t *testing.T) {
	cfg := &ServiceConfig{Cache: Cache{Type: "redis", Address: "cache:6379", TTL: "90m", Prefix: "test:"}}
	cfg.ApplyDefaults()

	cacheConfig := cfg.CacheConfig()
	if cacheConfig.TTL != 90*time.Minute {
		t.Errorf("TTL = %v, want 90m", cacheConfig.TTL)
	}
	if cacheConfig.Address != "cache:6379" || cacheConfig.Prefix != "test:" {
		t.Errorf("unexpected cache config %+v", cacheConfig)
	}
}

func TestLoadConfig_KeepsZeroMaskThreshold(t *testing.T) {
	tests := []struct {
		name    string
		content string
		env     string
	}{
		{"from file", "segmentation:\n  threshold: 0\n", ""},
		{"from environment", "segmentation:\n  threshold: 0.8\n", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.env != "" {
				t.Setenv("CARTOONIFY_MASK_THRESHOLD", tt.env)
			}
			cfg, err := LoadConfig(writeConfig(t, tt.content))
			if err != nil {
				t.Fatalf("LoadConfig() error = %v", err)
			}
			if cfg.MaskThreshold() != 0 {
				t.Errorf("MaskThreshold() = %v, want 0", cfg.MaskThreshold())
			}
		})
	}
}
