package core

import (
	"os"

	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
)

const (
	DefaultMaxFramesInFlight = 2
	maxFramesInFlightLimit   = 3
)

// RendererConfig is everything the renderer needs to know before it creates
// the window and the GPU device.
type RendererConfig struct {
	ApplicationName   string     `toml:"application_name"`
	EnableValidation  bool       `toml:"enable_validation"`
	WindowWidth       int        `toml:"window_width"`
	WindowHeight      int        `toml:"window_height"`
	MaxFramesInFlight int        `toml:"max_frames_in_flight"`
	LogLevel          LogLevel   `toml:"log_level"`
	ResourcesDir      string     `toml:"resources_dir"`
	ClearColor        [4]float32 `toml:"clear_color"`
	// Draws every pipeline with line polygons.
	Wireframe         bool       `toml:"wireframe"`
}

func DefaultConfig() RendererConfig {
	return RendererConfig{
		ApplicationName:   "vkscene",
		EnableValidation:  false,
		WindowWidth:       800,
		WindowHeight:      600,
		MaxFramesInFlight: DefaultMaxFramesInFlight,
		LogLevel:          LogLevelInfo,
		ResourcesDir:      "resources",
		ClearColor:        [4]float32{0, 0, 0, 1},
	}
}

// LoadConfig reads a TOML file on top of the defaults. A missing file is not
// an error, the defaults are returned as they are.
func LoadConfig(path string) (RendererConfig, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			LogDebug("no config file at %s, using defaults", path)
			return cfg, nil
		}
		return cfg, errors.Wrapf(err, "read config %s", path)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, errors.Wrapf(err, "parse config %s", path)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c RendererConfig) Validate() error {
	if c.WindowWidth <= 0 || c.WindowHeight <= 0 {
		return errors.Wrapf(ErrInvalidConfig, "window size %dx%d", c.WindowWidth, c.WindowHeight)
	}
	if c.MaxFramesInFlight < 1 || c.MaxFramesInFlight > maxFramesInFlightLimit {
		return errors.Wrapf(ErrInvalidConfig, "max_frames_in_flight must be within [1, %d], got %d",
			maxFramesInFlightLimit, c.MaxFramesInFlight)
	}
	return nil
}
