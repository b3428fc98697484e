package glass

// MouseButton represents a mouse button.
type MouseButton int

const (
	MouseButtonLeft MouseButton = iota
	MouseButtonRight
	MouseButtonMiddle
	MouseButtonCount
)

// Key represents a keyboard key the interaction controller reacts to.
type Key int

const (
	KeyNone Key = iota
	Key0
	Key1
	Key2
	Key3
	Key4
	Key5
	Key6
	Key7
	Key8
	Key9
	KeyPlus
	KeyMinus
	KeySpace
	KeyF
	KeyEscape
	KeyCount
)

// DigitKey returns the key for digit d (0-9), or KeyNone.
func DigitKey(d int) Key {
	if d < 0 || d > 9 {
		return KeyNone
	}
	return Key0 + Key(d)
}

// Digit returns the digit a key represents, or -1.
func (k Key) Digit() int {
	if k < Key0 || k > Key9 {
		return -1
	}
	return int(k - Key0)
}

// edge is one button or key: whether it is held, and whether it went down
// or up since the last Reset.
type edge struct {
	down, pressed, released bool
}

func (e *edge) set(down bool) {
	if down && !e.down {
		e.pressed = true
	}
	if !down && e.down {
		e.released = true
	}
	e.down = down
}

// InputState holds input state for the current frame.
// This is typically populated by a window-system adapter such as the GLFW one
// in backend/opengl.
type InputState struct {
	// Mouse position in screen pixels
	MouseX, MouseY float32
	mouseMoved     bool

	buttons [MouseButtonCount]edge
	keys    [KeyCount]edge
}

// NewInputState creates a new InputState.
func NewInputState() *InputState {
	return &InputState{}
}

// Reset clears the per-frame edges. Held state carries over.
// Call this at the start of each frame before collecting input.
func (s *InputState) Reset() {
	for i := range s.buttons {
		s.buttons[i].pressed, s.buttons[i].released = false, false
	}
	for i := range s.keys {
		s.keys[i].pressed, s.keys[i].released = false, false
	}
	s.mouseMoved = false
}

// SetMousePos sets the mouse position.
func (s *InputState) SetMousePos(x, y float32) {
	if x != s.MouseX || y != s.MouseY {
		s.mouseMoved = true
	}
	s.MouseX, s.MouseY = x, y
}

// MouseMoved returns true if the pointer moved this frame.
func (s *InputState) MouseMoved() bool {
	return s.mouseMoved
}

func (s *InputState) button(b MouseButton) *edge {
	if b < 0 || b >= MouseButtonCount {
		return nil
	}
	return &s.buttons[b]
}

func (s *InputState) key(k Key) *edge {
	if k <= KeyNone || k >= KeyCount {
		return nil
	}
	return &s.keys[k]
}

// SetMouseButton sets mouse button state. Unknown buttons are ignored.
func (s *InputState) SetMouseButton(button MouseButton, down bool) {
	if e := s.button(button); e != nil {
		e.set(down)
	}
}

// SetKey sets key state. Unknown keys are ignored.
func (s *InputState) SetKey(key Key, down bool) {
	if e := s.key(key); e != nil {
		e.set(down)
	}
}

// MouseDown returns true if a mouse button is currently held.
func (s *InputState) MouseDown(button MouseButton) bool {
	e := s.button(button)
	return e != nil && e.down
}

// MouseClicked returns true if a mouse button went down this frame.
func (s *InputState) MouseClicked(button MouseButton) bool {
	e := s.button(button)
	return e != nil && e.pressed
}

// MouseReleased returns true if a mouse button went up this frame.
func (s *InputState) MouseReleased(button MouseButton) bool {
	e := s.button(button)
	return e != nil && e.released
}

// KeyPressed returns true if a key went down this frame.
func (s *InputState) KeyPressed(key Key) bool {
	e := s.key(key)
	return e != nil && e.pressed
}

// KeyName returns a human-readable name for a key.
func KeyName(k Key) string {
	if d := k.Digit(); d >= 0 {
		return string(rune('0' + d))
	}
	switch k {
	case KeyPlus:
		return "+"
	case KeyMinus:
		return "-"
	case KeySpace:
		return "Space"
	case KeyF:
		return "F"
	case KeyEscape:
		return "Esc"
	case KeyNone:
		return "--"
	default:
		return "?"
	}
}
