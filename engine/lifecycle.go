package engine

import (
	"github.com/spaghettifunk/vkscene/engine/core"
)

// Application is what the process entry point drives.
type Application interface {
	Initialize() error
	Run() error
	Shutdown() error
	// RequestClose may be called from any goroutine.
	RequestClose()
}

// BindFunc registers a cleanup that runs on its own goroutine at process
// exit or on a termination signal, closer.Bind in main.
type BindFunc func(cleanup func())

// RunApplication initializes, runs and shuts down app on the calling
// goroutine, which must be the locked main thread. The bound cleanup only
// asks the loop to stop, then blocks until Shutdown has returned so the
// process cannot exit in the middle of a frame or of the teardown.
// It returns the process exit code.
func RunApplication(app Application, bind BindFunc) int {
	done := make(chan struct{})
	bind(func() {
		app.RequestClose()
		<-done
	})

	code := 0
	if err := app.Initialize(); err != nil {
		core.LogError("failed to initialize: %s", err)
		code = 1
	} else if err := app.Run(); err != nil {
		core.LogError("%s", err)
		code = 1
	}
	if err := app.Shutdown(); err != nil {
		core.LogError("shutdown: %s", err)
		code = 1
	}
	close(done)
	return code
}
