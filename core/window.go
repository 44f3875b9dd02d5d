// Package core owns the GLFW window and its OpenGL context.
package core

import (
	"fmt"
	"runtime"

	"github.com/go-gl/glfw/v3.3/glfw"

	"stereo-viewer/input"
)

func init() {
	// GLFW and the GL context must stay on the main thread.
	runtime.LockOSThread()
}

type Window struct {
	Handle *glfw.Window
	Width  int // framebuffer pixels
	Height int
	Title  string

	tracker  *input.Tracker
	joystick bool
	resized  bool
}

type WindowConfig struct {
	Width      int
	Height     int
	Title      string
	Resizable  bool
	VSync      bool
	Fullscreen bool
	Joystick   bool // poll the first joystick each frame
}

func DefaultWindowConfig() WindowConfig {
	return WindowConfig{
		Width:      1280,
		Height:     720,
		Title:      "Stereo Viewer",
		Resizable:  true,
		VSync:      true,
		Fullscreen: false,
		Joystick:   true,
	}
}

// NewWindow opens a window with an OpenGL 4.1 core context made current on
// the calling thread. Input events are forwarded to tracker.
func NewWindow(config WindowConfig, tracker *input.Tracker) (*Window, error) {
	if err := glfw.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize GLFW: %w", err)
	}

	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 1)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)
	glfw.WindowHint(glfw.DepthBits, 24)
	glfw.WindowHint(glfw.Resizable, boolToInt(config.Resizable))

	monitor := (*glfw.Monitor)(nil)
	if config.Fullscreen {
		monitor = glfw.GetPrimaryMonitor()
	}

	handle, err := glfw.CreateWindow(config.Width, config.Height, config.Title, monitor, nil)
	if err != nil {
		glfw.Terminate()
		return nil, fmt.Errorf("failed to create window: %w", err)
	}
	handle.MakeContextCurrent()
	glfw.SwapInterval(boolToInt(config.VSync))

	window := &Window{
		Handle:   handle,
		Title:    config.Title,
		tracker:  tracker,
		joystick: config.Joystick,
	}
	window.Width, window.Height = handle.GetFramebufferSize()
	window.installCallbacks()
	return window, nil
}

func (w *Window) installCallbacks() {
	w.Handle.SetFramebufferSizeCallback(func(_ *glfw.Window, width, height int) {
		w.Width, w.Height = width, height
		w.resized = true
	})
	if w.tracker == nil {
		return
	}
	w.Handle.SetKeyCallback(func(_ *glfw.Window, key glfw.Key, _ int, action glfw.Action, _ glfw.ModifierKey) {
		switch action {
		case glfw.Press:
			w.tracker.KeyDown(input.Key(key))
		case glfw.Release:
			w.tracker.KeyUp(input.Key(key))
		}
	})
	w.Handle.SetMouseButtonCallback(func(_ *glfw.Window, button glfw.MouseButton, action glfw.Action, _ glfw.ModifierKey) {
		if action == glfw.Press {
			w.tracker.MouseDown(input.MouseButton(button))
		}
	})
	w.Handle.SetCursorPosCallback(func(_ *glfw.Window, x, y float64) {
		sx, sy := w.contentScale()
		w.tracker.CursorMoved(x*sx, y*sy)
	})
	w.Handle.SetCloseCallback(func(_ *glfw.Window) {
		w.tracker.CloseRequested()
	})
}

// contentScale converts window coordinates to framebuffer pixels.
func (w *Window) contentScale() (float64, float64) {
	ww, wh := w.Handle.GetSize()
	if ww == 0 || wh == 0 {
		return 1, 1
	}
	return float64(w.Width) / float64(ww), float64(w.Height) / float64(wh)
}

func (w *Window) ShouldClose() bool {
	return w.Handle.ShouldClose()
}

// PollEvents processes pending window events and, when enabled, polls
// the first joystick.
func (w *Window) PollEvents() {
	glfw.PollEvents()
	if w.tracker == nil || !w.joystick || !glfw.Joystick1.Present() {
		return
	}
	actions := glfw.Joystick1.GetButtons()
	buttons := make([]bool, len(actions))
	for i, a := range actions {
		buttons[i] = a == glfw.Press
	}
	hat := 0
	if hats := glfw.Joystick1.GetHats(); len(hats) > 0 {
		hat = int(hats[0])
	}
	w.tracker.SetJoystick(input.Joystick{
		Axes:    glfw.Joystick1.GetAxes(),
		Buttons: buttons,
		Hat:     hat,
	})
}

func (w *Window) SwapBuffers() {
	w.Handle.SwapBuffers()
}

// TakeResize reports a framebuffer size change since the last call.
func (w *Window) TakeResize() (width, height int, ok bool) {
	if !w.resized {
		return w.Width, w.Height, false
	}
	w.resized = false
	return w.Width, w.Height, true
}

// CaptureCursor hides the cursor and warps it to the window centre, or
// shows it again.
func (w *Window) CaptureCursor(capture bool) {
	if !capture {
		w.Handle.SetInputMode(glfw.CursorMode, glfw.CursorNormal)
		return
	}
	w.Handle.SetInputMode(glfw.CursorMode, glfw.CursorHidden)
	ww, wh := w.Handle.GetSize()
	w.Handle.SetCursorPos(float64(ww)/2, float64(wh)/2)
	if w.tracker != nil {
		w.tracker.Recentre(w.Width, w.Height)
	}
}

func (w *Window) Destroy() {
	w.Handle.Destroy()
	glfw.Terminate()
}

func (w *Window) SetTitle(title string) {
	w.Handle.SetTitle(title)
	w.Title = title
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
