package main

import (
	"fmt"

	"stereo-viewer/core"
	"stereo-viewer/renderer"
	"stereo-viewer/scene"
)

// titleOverlay shows the pipeline settings in the window title while the
// settings overlay is toggled on.
type titleOverlay struct {
	window *core.Window
	rig    *scene.Rig
	base   string
	shown  string
}

func newTitleOverlay(window *core.Window, rig *scene.Rig) *titleOverlay {
	return &titleOverlay{window: window, rig: rig, base: window.Title}
}

func (o *titleOverlay) Draw(p *renderer.Params) {
	title := fmt.Sprintf("%s | %s | dioc %.3f | light %.1f r %.1f | ssao %t bias %.3f radius %.2f scale %.1f samples %d | blur %.0f",
		o.base, p.ViewMode, o.rig.Dioc(), p.LightIntensity, p.LightRadius,
		p.SSAOEnabled, p.SSAOBias, p.SSAORadius, p.SSAOScale, p.SSAOSamples, p.BlurCoefficient)
	if title != o.shown {
		o.window.SetTitle(title)
		o.shown = title
	}
}

// Hide restores the plain title.
func (o *titleOverlay) Hide() {
	if o.shown == "" {
		return
	}
	o.window.SetTitle(o.base)
	o.shown = ""
}
