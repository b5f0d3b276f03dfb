package core

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg != DefaultConfig() {
		t.Errorf("got %+v, want defaults", cfg)
	}
	if cfg.MaxFramesInFlight != 2 {
		t.Errorf("default frames in flight = %d", cfg.MaxFramesInFlight)
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vkscene.toml")
	data := []byte(`
enable_validation = true
window_width = 1280
window_height = 720
max_frames_in_flight = 3
log_level = "debug"
wireframe = true
`)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if !cfg.EnableValidation || cfg.WindowWidth != 1280 || cfg.WindowHeight != 720 {
		t.Errorf("unexpected config %+v", cfg)
	}
	if cfg.MaxFramesInFlight != 3 || cfg.LogLevel != LogLevelDebug {
		t.Errorf("unexpected config %+v", cfg)
	}
	if !cfg.Wireframe || DefaultConfig().Wireframe {
		t.Error("wireframe key not applied")
	}
	if cfg.ResourcesDir != "resources" {
		t.Errorf("unset key lost its default: %q", cfg.ResourcesDir)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*RendererConfig)
		ok     bool
	}{
		{"defaults", func(*RendererConfig) {}, true},
		{"zero width", func(c *RendererConfig) { c.WindowWidth = 0 }, false},
		{"negative height", func(c *RendererConfig) { c.WindowHeight = -1 }, false},
		{"no frames", func(c *RendererConfig) { c.MaxFramesInFlight = 0 }, false},
		{"too many frames", func(c *RendererConfig) { c.MaxFramesInFlight = 8 }, false},
		{"single frame", func(c *RendererConfig) { c.MaxFramesInFlight = 1 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(&cfg)
			err := cfg.Validate()
			if tt.ok && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !tt.ok && !errors.Is(err, ErrInvalidConfig) {
				t.Fatalf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}
