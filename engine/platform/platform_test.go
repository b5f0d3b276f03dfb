package platform

import (
	"testing"

	"github.com/go-gl/glfw/v3.3/glfw"

	"github.com/spaghettifunk/vkscene/engine/core"
)

func TestTranslateKey(t *testing.T) {
	tests := []struct {
		key  glfw.Key
		want core.KeyCode
	}{
		{glfw.KeyW, core.KEY_W},
		{glfw.KeyA, core.KEY_A},
		{glfw.KeyS, core.KEY_S},
		{glfw.KeyD, core.KEY_D},
		{glfw.KeySpace, core.KEY_SPACE},
		{glfw.KeyTab, core.KEY_TAB},
		{glfw.KeyEscape, core.KEY_ESCAPE},
		{glfw.KeyLeftShift, core.KEY_LSHIFT},
		{glfw.KeyF12, core.KEY_UNKNOWN},
		{glfw.KeyUnknown, core.KEY_UNKNOWN},
	}
	for _, tt := range tests {
		if got := translateKey(tt.key); got != tt.want {
			t.Errorf("translateKey(%d) = %#x, want %#x", tt.key, got, tt.want)
		}
	}
}

func TestCallbacksFeedInput(t *testing.T) {
	bus := core.NewEventBus()
	input := core.NewInputState(bus)
	p := New(bus, input)

	var resized core.WindowResized
	core.Subscribe(bus, func(e core.WindowResized) bool {
		resized = e
		return false
	})

	p.keyCallback(nil, glfw.KeyW, 0, glfw.Press, 0)
	if !input.IsKeyDown(core.KEY_W) {
		t.Error("W not down after press")
	}
	p.keyCallback(nil, glfw.KeyW, 0, glfw.Release, 0)
	if input.IsKeyDown(core.KEY_W) {
		t.Error("W still down after release")
	}

	p.mouseButtonCallback(nil, glfw.MouseButtonRight, glfw.Press, 0)
	if !input.IsButtonDown(core.BUTTON_RIGHT) {
		t.Error("right button not down")
	}
	p.mouseButtonCallback(nil, glfw.MouseButton4, glfw.Press, 0)

	p.cursorPosCallback(nil, 12, 34)
	if x, y := input.MousePosition(); x != 12 || y != 34 {
		t.Errorf("mouse at (%v, %v)", x, y)
	}

	p.framebufferSizeCallback(nil, 0, 0)
	p.framebufferSizeCallback(nil, 1024, 768)
	if resized != (core.WindowResized{Width: 1024, Height: 768}) {
		t.Errorf("resized = %+v", resized)
	}
}

func TestWakeWithoutWindow(t *testing.T) {
	p := New(core.NewEventBus(), nil)
	done := make(chan struct{})
	go func() {
		defer close(done)
		p.Wake()
	}()
	<-done
	if p.running {
		t.Error("platform running before Startup")
	}
}
