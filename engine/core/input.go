package core

type Button uint8

const (
	BUTTON_LEFT Button = iota
	BUTTON_RIGHT
	BUTTON_MIDDLE
	BUTTON_MAX_BUTTONS
)

// Key codes follow the virtual-key numbering; the platform layer translates
// its native codes into these.
type KeyCode uint16

const (
	KEY_UNKNOWN   KeyCode = 0x00
	KEY_BACKSPACE KeyCode = 0x08
	KEY_TAB       KeyCode = 0x09
	KEY_ENTER     KeyCode = 0x0D
	KEY_ESCAPE    KeyCode = 0x1B
	KEY_SPACE     KeyCode = 0x20
	KEY_LEFT      KeyCode = 0x25
	KEY_UP        KeyCode = 0x26
	KEY_RIGHT     KeyCode = 0x27
	KEY_DOWN      KeyCode = 0x28
	KEY_A         KeyCode = 0x41
	KEY_D         KeyCode = 0x44
	KEY_E         KeyCode = 0x45
	KEY_Q         KeyCode = 0x51
	KEY_S         KeyCode = 0x53
	KEY_W         KeyCode = 0x57
	KEY_F1        KeyCode = 0x70
	KEY_LSHIFT    KeyCode = 0xA0
	KEY_LCONTROL  KeyCode = 0xA2
	KEYS_MAX_KEYS KeyCode = 0x100
)

type MouseState struct {
	X       float64
	Y       float64
	Buttons [BUTTON_MAX_BUTTONS]bool
}

type KeyboardState struct {
	Keys [KEYS_MAX_KEYS]bool
}

// InputState keeps the current and previous snapshot of keyboard and mouse
// so callers can detect edges. It is fed by the platform callbacks and read
// by the camera on the render thread.
type InputState struct {
	events *EventBus

	KeyboardCurrent  KeyboardState
	KeyboardPrevious KeyboardState
	MouseCurrent     MouseState
	MousePrevious    MouseState
}

func NewInputState(events *EventBus) *InputState {
	return &InputState{events: events}
}

// Update rolls the current state into the previous one. Call once per frame
// after the game logic consumed the input.
func (in *InputState) Update() {
	in.KeyboardPrevious = in.KeyboardCurrent
	in.MousePrevious = in.MouseCurrent
}

func (in *InputState) IsKeyDown(key KeyCode) bool {
	if key >= KEYS_MAX_KEYS {
		return false
	}
	return in.KeyboardCurrent.Keys[key]
}

func (in *InputState) WasKeyDown(key KeyCode) bool {
	if key >= KEYS_MAX_KEYS {
		return false
	}
	return in.KeyboardPrevious.Keys[key]
}

func (in *InputState) IsButtonDown(button Button) bool {
	return in.MouseCurrent.Buttons[button]
}

func (in *InputState) MousePosition() (float64, float64) {
	return in.MouseCurrent.X, in.MouseCurrent.Y
}

func (in *InputState) PreviousMousePosition() (float64, float64) {
	return in.MousePrevious.X, in.MousePrevious.Y
}

func (in *InputState) ProcessKey(key KeyCode, pressed bool) {
	if key >= KEYS_MAX_KEYS || in.KeyboardCurrent.Keys[key] == pressed {
		return
	}
	in.KeyboardCurrent.Keys[key] = pressed
	if in.events == nil {
		return
	}
	if pressed {
		Publish(in.events, KeyPressed{Key: key})
	} else {
		Publish(in.events, KeyReleased{Key: key})
	}
}

func (in *InputState) ProcessButton(button Button, pressed bool) {
	if button >= BUTTON_MAX_BUTTONS || in.MouseCurrent.Buttons[button] == pressed {
		return
	}
	in.MouseCurrent.Buttons[button] = pressed
	if in.events == nil {
		return
	}
	if pressed {
		Publish(in.events, ButtonPressed{Button: button})
	} else {
		Publish(in.events, ButtonReleased{Button: button})
	}
}

func (in *InputState) ProcessMouseMove(x, y float64) {
	if in.MouseCurrent.X == x && in.MouseCurrent.Y == y {
		return
	}
	in.MouseCurrent.X = x
	in.MouseCurrent.Y = y
	if in.events != nil {
		Publish(in.events, MouseMoved{X: x, Y: y})
	}
}
