package opengl

import (
	"github.com/go-gl/glfw/v3.3/glfw"

	"github.com/go-theft-auto/glass"
)

// GLFWInputAdapter adapts GLFW input to glass.InputState.
type GLFWInputAdapter struct {
	window *glfw.Window
	input  *glass.InputState
	scale  float32 // window coordinates to framebuffer pixels
}

// NewGLFWInputAdapter installs key, button and cursor callbacks on window.
func NewGLFWInputAdapter(window *glfw.Window) *GLFWInputAdapter {
	adapter := &GLFWInputAdapter{
		window: window,
		input:  glass.NewInputState(),
		scale:  1,
	}

	window.SetKeyCallback(adapter.keyCallback)
	window.SetMouseButtonCallback(adapter.mouseButtonCallback)
	window.SetCursorPosCallback(adapter.cursorPosCallback)

	return adapter
}

// Update starts a new frame. Call it before glfw.PollEvents; the returned
// state is filled in by the callbacks the poll triggers.
func (a *GLFWInputAdapter) Update() *glass.InputState {
	a.input.Reset()
	x, y := a.window.GetCursorPos()
	a.cursorPosCallback(a.window, x, y)
	return a.input
}

// SetScale sets the framebuffer-to-window size ratio applied to cursor
// positions, so pointer events arrive in device pixels.
func (a *GLFWInputAdapter) SetScale(s float32) {
	if s > 0 {
		a.scale = s
	}
}

// Input returns the current input state.
func (a *GLFWInputAdapter) Input() *glass.InputState {
	return a.input
}

func (a *GLFWInputAdapter) keyCallback(w *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
	k := glfwKeyToKey(key)
	if k == glass.KeyNone {
		return
	}

	switch action {
	case glfw.Press:
		a.input.SetKey(k, true)
	case glfw.Release:
		a.input.SetKey(k, false)
	}
}

func (a *GLFWInputAdapter) mouseButtonCallback(w *glfw.Window, button glfw.MouseButton, action glfw.Action, mods glfw.ModifierKey) {
	b := glfwMouseButton(button)
	if b < 0 {
		return
	}

	switch action {
	case glfw.Press:
		a.input.SetMouseButton(b, true)
	case glfw.Release:
		a.input.SetMouseButton(b, false)
	}
}

func (a *GLFWInputAdapter) cursorPosCallback(w *glfw.Window, xpos, ypos float64) {
	a.input.SetMousePos(float32(xpos)*a.scale, float32(ypos)*a.scale)
}

// glfwKeyToKey maps GLFW keys to glass keys. The "=" key shares a cap with
// "+" on most layouts, so it counts as plus.
func glfwKeyToKey(key glfw.Key) glass.Key {
	switch {
	case key >= glfw.Key0 && key <= glfw.Key9:
		return glass.DigitKey(int(key - glfw.Key0))
	case key >= glfw.KeyKP0 && key <= glfw.KeyKP9:
		return glass.DigitKey(int(key - glfw.KeyKP0))
	}

	switch key {
	case glfw.KeyKPAdd, glfw.KeyEqual:
		return glass.KeyPlus
	case glfw.KeyMinus, glfw.KeyKPSubtract:
		return glass.KeyMinus
	case glfw.KeySpace:
		return glass.KeySpace
	case glfw.KeyF:
		return glass.KeyF
	case glfw.KeyEscape:
		return glass.KeyEscape
	default:
		return glass.KeyNone
	}
}

// glfwMouseButton maps GLFW mouse buttons to glass mouse buttons.
func glfwMouseButton(button glfw.MouseButton) glass.MouseButton {
	switch button {
	case glfw.MouseButtonLeft:
		return glass.MouseButtonLeft
	case glfw.MouseButtonRight:
		return glass.MouseButtonRight
	case glfw.MouseButtonMiddle:
		return glass.MouseButtonMiddle
	default:
		return -1
	}
}
