package input

import (
	"sync"

	"stereo-viewer/renderer"
	"stereo-viewer/scene"
)

// Joystick mapping. Axes are normalised to [-1, 1].
const (
	joystickDeadZone = 0.0916 // 3000 / 32768
	// joystickMoveScale turns an axis value into a movement delta.
	joystickMoveScale = 3.2768
	// joystickLookScale turns an axis value into a cursor offset in pixels.
	joystickLookScale = 32.768

	joystickButtonResetDioc = 0
	joystickButtonQuit      = 7
)

// Hat directions, matching GLFW's bit values.
const (
	HatUp   = 1
	HatDown = 4
)

// Joystick is one polled gamepad state.
type Joystick struct {
	Axes    []float32
	Buttons []bool
	Hat     int
}

// Tracker accumulates events between frames. Event methods may be called
// from window callbacks; Snapshot is called once per frame.
type Tracker struct {
	mu       sync.Mutex
	held     map[Key]bool
	cursorX  float32
	cursorY  float32
	commands []Command

	joystick    Joystick
	prevButtons []bool
	prevHat     int
}

func NewTracker() *Tracker {
	return &Tracker{held: map[Key]bool{}}
}

func (t *Tracker) KeyDown(k Key) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.held[k] = true
	if k == KeyEscape {
		t.commands = append(t.commands, Quit)
	}
}

func (t *Tracker) KeyUp(k Key) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.held, k)
	if c, ok := commandKeys[k]; ok {
		t.commands = append(t.commands, c)
	}
}

// MouseDown toggles the settings overlay on the right button.
func (t *Tracker) MouseDown(b MouseButton) {
	if b != MouseRight {
		return
	}
	t.mu.Lock()
	t.commands = append(t.commands, ToggleGUI)
	t.mu.Unlock()
}

func (t *Tracker) CursorMoved(x, y float64) {
	t.mu.Lock()
	t.cursorX, t.cursorY = float32(x), float32(y)
	t.mu.Unlock()
}

// Recentre records a cursor warp to the centre of a width×height viewport.
// Windowing systems do not report programmatic warps as motion, so the
// window calls this after moving the cursor itself.
func (t *Tracker) Recentre(width, height int) {
	t.CursorMoved(float64(width)/2, float64(height)/2)
}

// CloseRequested records a window close as a Quit command.
func (t *Tracker) CloseRequested() {
	t.mu.Lock()
	t.commands = append(t.commands, Quit)
	t.mu.Unlock()
}

// SetJoystick stores the latest gamepad poll. Button and hat presses are
// detected as edges against the previous poll.
func (t *Tracker) SetJoystick(j Joystick) {
	t.mu.Lock()
	defer t.mu.Unlock()

	pressed := func(i int) bool {
		return i < len(j.Buttons) && j.Buttons[i] && !(i < len(t.prevButtons) && t.prevButtons[i])
	}
	if pressed(joystickButtonQuit) {
		t.commands = append(t.commands, Quit)
	}
	if pressed(joystickButtonResetDioc) {
		t.commands = append(t.commands, ResetDioc)
	}
	newHat := j.Hat &^ t.prevHat
	if newHat&HatUp != 0 {
		t.commands = append(t.commands, IncreaseDioc)
	}
	if newHat&HatDown != 0 {
		t.commands = append(t.commands, DecreaseDioc)
	}

	t.prevButtons = append(t.prevButtons[:0], j.Buttons...)
	t.prevHat = j.Hat
	t.joystick = j
}

// Snapshot returns this frame's State and clears pending commands. Held
// keys keep producing movement until released.
func (t *Tracker) Snapshot(layout renderer.KeyboardLayout) State {
	t.mu.Lock()
	defer t.mu.Unlock()

	s := State{
		CursorX:  t.cursorX,
		CursorY:  t.cursorY,
		Commands: t.commands,
	}
	t.commands = nil

	for k, d := range movementKeys(layout) {
		if t.held[k] {
			s.Move(d, 1)
		}
	}
	applyJoystick(&s, t.joystick.Axes)
	return s
}

// applyJoystick maps axes 0/1 to strafe/walk and axes 2/3 to cursor
// offsets, ignoring values inside the dead zone.
func applyJoystick(s *State, axes []float32) {
	axis := func(i int) float32 {
		if i >= len(axes) {
			return 0
		}
		if a := axes[i]; a > joystickDeadZone || a < -joystickDeadZone {
			return a
		}
		return 0
	}

	if a := axis(1); a > 0 {
		s.Move(scene.Backward, a*joystickMoveScale)
	} else if a < 0 {
		s.Move(scene.Forward, -a*joystickMoveScale)
	}
	if a := axis(0); a < 0 {
		s.Move(scene.StrafeLeft, -a*joystickMoveScale)
	} else if a > 0 {
		s.Move(scene.StrafeRight, a*joystickMoveScale)
	}
	s.CursorX += axis(2) * joystickLookScale
	s.CursorY += axis(3) * joystickLookScale
}
