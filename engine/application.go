package engine

import (
	"github.com/spaghettifunk/vkscene/engine/core"
	"github.com/spaghettifunk/vkscene/engine/renderer"
)

type ApplicationConfig struct {
	// Window starting position x axis, if applicable.
	StartPosX int
	// Window starting position y axis, if applicable.
	StartPosY int
	// TOML file with the renderer configuration. A missing file means defaults.
	ConfigPath string
	// The application name used in windowing, overrides the one from the
	// configuration file if set.
	Name string
	// Vertex layouts the game draws with, they decide the GPU requirements.
	Layouts []renderer.VertexLayout
}

// RendererConfig resolves the configuration file and applies the overrides.
func (a *ApplicationConfig) RendererConfig() (core.RendererConfig, error) {
	cfg, err := core.LoadConfig(a.ConfigPath)
	if err != nil {
		return cfg, err
	}
	if a.Name != "" {
		cfg.ApplicationName = a.Name
	}
	return cfg, nil
}
