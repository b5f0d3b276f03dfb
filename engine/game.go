package engine

type Game struct {
	ApplicationConfig *ApplicationConfig
	State             interface{}
	FnInitialize      Initialize
	FnUpdate          Update
	FnOnResize        OnResize
	FnShutdown        Shutdown
}

// Initialize builds the scene once the renderer is up.
type Initialize func(e *Engine) error
type Update func(deltaTime float64) error
type OnResize func(width int, height int) error
type Shutdown func() error
