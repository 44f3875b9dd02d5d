package renderer

import "fmt"

// ViewMode selects how the two eye images are presented.
type ViewMode int

const (
	Anaglyph ViewMode = iota
	SideBySide
)

func (m ViewMode) String() string {
	switch m {
	case Anaglyph:
		return "anaglyph"
	case SideBySide:
		return "side-by-side"
	}
	return fmt.Sprintf("ViewMode(%d)", int(m))
}

// Next cycles Anaglyph → SideBySide → Anaglyph.
func (m ViewMode) Next() ViewMode {
	if m == Anaglyph {
		return SideBySide
	}
	return Anaglyph
}

// ParseViewMode accepts the names produced by String.
func ParseViewMode(s string) (ViewMode, error) {
	switch s {
	case "anaglyph":
		return Anaglyph, nil
	case "side-by-side", "sidebyside":
		return SideBySide, nil
	}
	return Anaglyph, fmt.Errorf("unknown view mode %q", s)
}

// KeyboardLayout only affects input mapping.
type KeyboardLayout int

const (
	Azerty KeyboardLayout = iota
	Qwerty
)

func (k KeyboardLayout) String() string {
	if k == Azerty {
		return "azerty"
	}
	return "qwerty"
}

func ParseKeyboardLayout(s string) (KeyboardLayout, error) {
	switch s {
	case "azerty":
		return Azerty, nil
	case "qwerty":
		return Qwerty, nil
	}
	return Azerty, fmt.Errorf("unknown keyboard layout %q", s)
}

// Slider ranges exposed to the settings overlay.
const (
	MaxLightIntensity  = 50
	MaxLightRadius     = 20
	MaxSSAOBias        = 10
	MaxSSAORadius      = 1
	MaxSSAOScale       = 10
	MaxSSAOSamples     = 64
	MaxBlurCoefficient = 36
)

// Params are the pipeline knobs read every frame. The settings overlay and
// the input controller write them between frames.
type Params struct {
	LightIntensity float32
	// LightRadius places the four point lights at (±r, ±r, -r).
	LightRadius float32

	SSAOEnabled     bool
	SSAOBias        float32
	SSAORadius      float32
	SSAOScale       float32
	SSAOSamples     int
	BlurCoefficient float32

	ViewMode       ViewMode
	ShowGUI        bool
	KeyboardLayout KeyboardLayout
}

func DefaultParams() Params {
	return Params{
		LightIntensity:  15.5,
		LightRadius:     4.8,
		SSAOEnabled:     true,
		SSAOBias:        0.025,
		SSAORadius:      0.5,
		SSAOScale:       1,
		SSAOSamples:     16,
		BlurCoefficient: 4,
		ViewMode:        Anaglyph,
	}
}

// Clamp forces every numeric knob into its slider range.
func (p *Params) Clamp() {
	p.LightIntensity = clampf(p.LightIntensity, 0, MaxLightIntensity)
	p.LightRadius = clampf(p.LightRadius, 0, MaxLightRadius)
	p.SSAOBias = clampf(p.SSAOBias, 0, MaxSSAOBias)
	p.SSAORadius = clampf(p.SSAORadius, 0, MaxSSAORadius)
	p.SSAOScale = clampf(p.SSAOScale, 0, MaxSSAOScale)
	p.BlurCoefficient = clampf(p.BlurCoefficient, 0, MaxBlurCoefficient)
	p.SSAOSamples = max(0, min(p.SSAOSamples, MaxSSAOSamples))
	if p.ViewMode != SideBySide {
		p.ViewMode = Anaglyph
	}
}

func clampf(v, lo, hi float32) float32 {
	if v != v { // NaN
		return lo
	}
	return max(lo, min(v, hi))
}

// LightPositions returns the fixed rig of four point lights.
func (p *Params) LightPositions() [4][3]float32 {
	r := p.LightRadius
	return [4][3]float32{
		{-r, -r, -r},
		{r, -r, -r},
		{-r, r, -r},
		{r, r, -r},
	}
}
