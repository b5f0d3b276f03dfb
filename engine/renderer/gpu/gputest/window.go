package gputest

import (
	"sync"

	"github.com/spaghettifunk/vkscene/engine/renderer/gpu"
)

// Window is a scriptable stand-in for the platform window.
type Window struct {
	mu     sync.Mutex
	width  int
	height int
	close  bool

	waitCalls int
	pollCalls int

	// OnWaitEvents runs inside every WaitEvents call, typically to change
	// the size after a number of calls.
	OnWaitEvents func(w *Window, calls int)
}

func NewWindow(width, height int) *Window {
	return &Window{width: width, height: height}
}

func (w *Window) FramebufferSize() (int, int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.width, w.height
}

func (w *Window) SetSize(width, height int) {
	w.mu.Lock()
	w.width, w.height = width, height
	w.mu.Unlock()
}

func (w *Window) WaitEvents() {
	w.mu.Lock()
	w.waitCalls++
	calls := w.waitCalls
	hook := w.OnWaitEvents
	w.mu.Unlock()
	if hook != nil {
		hook(w, calls)
	}
}

func (w *Window) PollEvents() {
	w.mu.Lock()
	w.pollCalls++
	w.mu.Unlock()
}

func (w *Window) ShouldClose() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.close
}

func (w *Window) RequestClose() {
	w.mu.Lock()
	w.close = true
	w.mu.Unlock()
}

func (w *Window) WaitCalls() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.waitCalls
}

// FollowWindow makes the surface report the window size as its current
// extent, the way most window systems do.
func (p *PhysicalDevice) FollowWindow(w *Window) {
	base := p.Capabilities
	p.CapabilitiesFunc = func() gpu.SurfaceCapabilities {
		caps := base
		width, height := w.FramebufferSize()
		caps.CurrentExtent = gpu.Extent2D{Width: uint32(width), Height: uint32(height)}
		return caps
	}
}
