package renderer

// Window is the part of the platform window the renderer depends on.
type Window interface {
	// FramebufferSize returns the drawable size in pixels, (0, 0) while
	// the window is minimized.
	FramebufferSize() (width, height int)
	// WaitEvents blocks until at least one window event is available and
	// processes it.
	WaitEvents()
	PollEvents()
	ShouldClose() bool
}
