/*
Runs the testbed scene: a textured floor and an optional lit model,
explored with a free-flying camera (WASD, Space/Tab, mouse, Escape quits).
*/
package main

import (
	"flag"

	"github.com/xlab/closer"

	"github.com/spaghettifunk/vkscene/engine"
	"github.com/spaghettifunk/vkscene/engine/core"
	"github.com/spaghettifunk/vkscene/testbed"
)

func main() {
	configPath := flag.String("config", "vkscene.toml", "renderer configuration file")
	flag.Parse()

	tb := testbed.NewTestGame(*configPath)

	e, err := engine.New(tb.Game)
	if err != nil {
		core.LogError("failed to create the engine: %s", err)
		closer.Exit(1)
	}

	// Shutdown runs here, on the main thread. On SIGINT/SIGTERM closer only
	// requests the window to close and waits for it.
	closer.Exit(engine.RunApplication(e, closer.Bind))
}
