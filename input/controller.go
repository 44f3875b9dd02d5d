package input

import (
	"log/slog"

	"stereo-viewer/renderer"
	"stereo-viewer/scene"
)

// Frame tells the window layer what to do after Apply.
type Frame struct {
	Quit bool
	// CaptureCursor is set while the overlay is hidden: the cursor is
	// hidden and must be warped back to the viewport centre.
	CaptureCursor bool
	// NextModel and NextTexture ask the caller to load the next catalog
	// entry.
	NextModel   bool
	NextTexture bool
}

// Controller applies input to the rig and the pipeline parameters.
type Controller struct {
	rig    *scene.Rig
	params *renderer.Params
	log    *slog.Logger

	// recentre makes the first look update after the overlay closes use
	// the viewport centre, so the stale cursor does not jerk the view.
	recentre bool
}

func NewController(rig *scene.Rig, params *renderer.Params, log *slog.Logger) *Controller {
	if log == nil {
		log = slog.Default()
	}
	return &Controller{rig: rig, params: params, log: log}
}

// Apply runs commands, then movement, then look, then refreshes the
// rig's target, up and view matrices.
func (c *Controller) Apply(s State) Frame {
	var f Frame
	for _, cmd := range s.Commands {
		c.command(cmd, &f)
	}

	for d, delta := range s.Moves {
		if delta != 0 {
			c.rig.UpdatePosition(scene.Direction(d), delta)
		}
	}

	w, h := c.rig.Viewport()
	cx, cy := float32(w)/2, float32(h)/2
	x, y := s.CursorX, s.CursorY
	switch {
	case c.params.ShowGUI:
		x, y = cx, cy
	case c.recentre:
		x, y = cx, cy
		c.recentre = false
	}
	c.rig.UpdateHorizontalAngle(x)
	c.rig.UpdateVerticalAngle(y)

	c.rig.UpdateTarget()
	c.rig.UpdateUp()
	c.rig.ComputeViewMatrices()

	f.CaptureCursor = !c.params.ShowGUI
	return f
}

func (c *Controller) command(cmd Command, f *Frame) {
	c.log.Debug("input command", "command", cmd)
	switch cmd {
	case ToggleViewMode:
		c.params.ViewMode = c.params.ViewMode.Next()
	case IncreaseDioc:
		c.rig.ChangeDioc(DiocStep)
	case DecreaseDioc:
		c.rig.ChangeDioc(-DiocStep)
	case ResetDioc:
		c.rig.ResetDioc()
	case ToggleSSAO:
		c.params.SSAOEnabled = !c.params.SSAOEnabled
	case ToggleGUI:
		c.params.ShowGUI = !c.params.ShowGUI
		if !c.params.ShowGUI {
			c.recentre = true
		}
	case Quit:
		f.Quit = true
	case NextModel:
		f.NextModel = true
	case NextTexture:
		f.NextTexture = true
	}
}
