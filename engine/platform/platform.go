package platform

import (
	"runtime"
	"sync"

	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/pkg/errors"

	"github.com/spaghettifunk/vkscene/engine/core"
)

func init() {
	// GLFW event handling must run on the main OS thread
	runtime.LockOSThread()
}

/**
 * @brief The native window. Its callbacks feed the input state, which
 * publishes key, button and cursor events; framebuffer resizes are
 * published as core.WindowResized.
 */
type Platform struct {
	Window *glfw.Window

	events *core.EventBus
	input  *core.InputState

	// Guards glfw between Startup and Shutdown against Wake.
	mutex   sync.Mutex
	running bool
}

func New(events *core.EventBus, input *core.InputState) *Platform {
	return &Platform{
		events: events,
		input:  input,
	}
}

func (p *Platform) Startup(applicationName string, x, y, width, height int) error {
	if err := glfw.Init(); err != nil {
		core.LogError("failed to initialize glfw: %s", err)
		return errors.Wrap(err, "glfw init")
	}
	if !glfw.VulkanSupported() {
		glfw.Terminate()
		return errors.New("glfw: vulkan loader not found")
	}

	glfw.WindowHint(glfw.Visible, glfw.False)
	glfw.WindowHint(glfw.Resizable, glfw.True)
	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI) // Required for Vulkan.

	window, err := glfw.CreateWindow(width, height, applicationName, nil, nil)
	if err != nil {
		core.LogError("failed to create window: %s", err)
		glfw.Terminate()
		return errors.Wrap(err, "create window")
	}
	p.Window = window

	p.Window.SetKeyCallback(p.keyCallback)
	p.Window.SetMouseButtonCallback(p.mouseButtonCallback)
	p.Window.SetCursorPosCallback(p.cursorPosCallback)
	p.Window.SetFramebufferSizeCallback(p.framebufferSizeCallback)
	p.Window.SetPos(x, y)
	p.Window.Show()

	p.mutex.Lock()
	p.running = true
	p.mutex.Unlock()

	core.LogInfo("Window '%s' created (%dx%d).", applicationName, width, height)
	return nil
}

func (p *Platform) Shutdown() error {
	p.mutex.Lock()
	p.running = false
	p.mutex.Unlock()

	if p.Window != nil {
		p.Window.Destroy()
		p.Window = nil
	}
	glfw.Terminate()
	return nil
}

// FramebufferSize is (0, 0) while the window is minimized.
func (p *Platform) FramebufferSize() (int, int) {
	return p.Window.GetFramebufferSize()
}

func (p *Platform) WaitEvents() {
	glfw.WaitEvents()
}

func (p *Platform) PollEvents() {
	glfw.PollEvents()
}

// Wake unblocks a WaitEvents in progress. It may be called from any
// goroutine, and does nothing before Startup or after Shutdown.
func (p *Platform) Wake() {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	if p.running {
		glfw.PostEmptyEvent()
	}
}

func (p *Platform) ShouldClose() bool {
	return p.Window.ShouldClose()
}

// RequestClose makes the next ShouldClose report true.
func (p *Platform) RequestClose() {
	p.Window.SetShouldClose(true)
}

// GetAbsoluteTime returns the seconds since glfw was initialized.
func GetAbsoluteTime() float64 {
	return glfw.GetTime()
}

func (p *Platform) keyCallback(w *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
	if action == glfw.Repeat {
		return
	}
	code := translateKey(key)
	if code == core.KEY_UNKNOWN {
		return
	}
	p.input.ProcessKey(code, action == glfw.Press)
}

func (p *Platform) mouseButtonCallback(w *glfw.Window, button glfw.MouseButton, action glfw.Action, mods glfw.ModifierKey) {
	b, ok := translateButton(button)
	if !ok {
		return
	}
	p.input.ProcessButton(b, action == glfw.Press)
}

func (p *Platform) cursorPosCallback(w *glfw.Window, xpos, ypos float64) {
	p.input.ProcessMouseMove(xpos, ypos)
}

func (p *Platform) framebufferSizeCallback(w *glfw.Window, width, height int) {
	core.Publish(p.events, core.WindowResized{Width: width, Height: height})
}

var keyMap = map[glfw.Key]core.KeyCode{
	glfw.KeyBackspace:   core.KEY_BACKSPACE,
	glfw.KeyTab:         core.KEY_TAB,
	glfw.KeyEnter:       core.KEY_ENTER,
	glfw.KeyEscape:      core.KEY_ESCAPE,
	glfw.KeySpace:       core.KEY_SPACE,
	glfw.KeyLeft:        core.KEY_LEFT,
	glfw.KeyUp:          core.KEY_UP,
	glfw.KeyRight:       core.KEY_RIGHT,
	glfw.KeyDown:        core.KEY_DOWN,
	glfw.KeyF1:          core.KEY_F1,
	glfw.KeyLeftShift:   core.KEY_LSHIFT,
	glfw.KeyLeftControl: core.KEY_LCONTROL,
}

// translateKey maps a glfw key onto the engine key codes. Letters share
// their ASCII value in both tables.
func translateKey(key glfw.Key) core.KeyCode {
	if key >= glfw.KeyA && key <= glfw.KeyZ {
		return core.KeyCode(key)
	}
	if code, ok := keyMap[key]; ok {
		return code
	}
	return core.KEY_UNKNOWN
}

func translateButton(button glfw.MouseButton) (core.Button, bool) {
	switch button {
	case glfw.MouseButtonLeft:
		return core.BUTTON_LEFT, true
	case glfw.MouseButtonRight:
		return core.BUTTON_RIGHT, true
	case glfw.MouseButtonMiddle:
		return core.BUTTON_MIDDLE, true
	}
	return 0, false
}
