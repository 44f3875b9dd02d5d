// Package input turns raw keyboard, mouse and joystick events into
// per-frame rig and pipeline updates.
package input

import (
	"fmt"

	"stereo-viewer/renderer"
	"stereo-viewer/scene"
)

// Key is a keyboard key. Values are GLFW key codes, so a glfw.Key converts
// directly.
type Key int

const (
	KeyB      Key = 66
	KeyD      Key = 68
	KeyG      Key = 71
	KeyL      Key = 76
	KeyN      Key = 78
	KeyO      Key = 79
	KeyP      Key = 80
	KeyQ      Key = 81
	KeyS      Key = 83
	KeyT      Key = 84
	KeyV      Key = 86
	KeyZ      Key = 90
	KeyEscape Key = 256
	KeyRight  Key = 262
	KeyLeft   Key = 263
	KeyDown   Key = 264
	KeyUp     Key = 265
	KeyF4     Key = 293
)

// MouseButton values are GLFW mouse button codes.
type MouseButton int

const (
	MouseLeft  MouseButton = 0
	MouseRight MouseButton = 1
)

// Command is a one-shot action triggered by a key release, a button press
// or a joystick hat.
type Command int

const (
	ToggleViewMode Command = iota
	IncreaseDioc
	DecreaseDioc
	ResetDioc
	ToggleSSAO
	ToggleGUI
	Quit
	NextModel
	NextTexture
)

var commandNames = [...]string{
	ToggleViewMode: "toggle-view-mode",
	IncreaseDioc:   "increase-dioc",
	DecreaseDioc:   "decrease-dioc",
	ResetDioc:      "reset-dioc",
	ToggleSSAO:     "toggle-ssao",
	ToggleGUI:      "toggle-gui",
	Quit:           "quit",
	NextModel:      "next-model",
	NextTexture:    "next-texture",
}

func (c Command) String() string {
	if c >= 0 && int(c) < len(commandNames) {
		return commandNames[c]
	}
	return fmt.Sprintf("Command(%d)", int(c))
}

// DiocStep is the interocular change per IncreaseDioc/DecreaseDioc.
const DiocStep = 0.005

// directionCount covers scene.Backward..scene.Down.
const directionCount = int(scene.Down) + 1

// State is one frame of input.
type State struct {
	// Moves holds the movement delta per scene.Direction; zero means idle.
	Moves [directionCount]float32
	// CursorX, CursorY is the absolute cursor position in window pixels.
	CursorX, CursorY float32
	Commands         []Command
}

// Move adds delta to the movement in direction d.
func (s *State) Move(d scene.Direction, delta float32) {
	if int(d) >= 0 && int(d) < directionCount {
		s.Moves[d] += delta
	}
}

// movementKeys returns the layout's key → direction bindings. T and G are
// shared by both layouts.
func movementKeys(layout renderer.KeyboardLayout) map[Key]scene.Direction {
	m := map[Key]scene.Direction{
		KeyT: scene.Up,
		KeyG: scene.Down,
	}
	if layout == renderer.Qwerty {
		m[KeyUp] = scene.Forward
		m[KeyDown] = scene.Backward
		m[KeyLeft] = scene.StrafeLeft
		m[KeyRight] = scene.StrafeRight
	} else {
		m[KeyZ] = scene.Forward
		m[KeyS] = scene.Backward
		m[KeyQ] = scene.StrafeLeft
		m[KeyD] = scene.StrafeRight
	}
	return m
}

// commandKeys fire on release. Escape quits on press instead.
var commandKeys = map[Key]Command{
	KeyV:  ToggleViewMode,
	KeyP:  IncreaseDioc,
	KeyL:  DecreaseDioc,
	KeyO:  ResetDioc,
	KeyF4: ToggleSSAO,
	KeyN:  NextModel,
	KeyB:  NextTexture,
}
