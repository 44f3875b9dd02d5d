package renderer

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"
)

func TestDefaultParams(t *testing.T) {
	p := DefaultParams()
	assert.Equal(t, float32(15.5), p.LightIntensity)
	assert.Equal(t, float32(4.8), p.LightRadius)
	assert.True(t, p.SSAOEnabled)
	assert.False(t, p.ShowGUI)
	assert.Equal(t, Anaglyph, p.ViewMode)

	before := p
	p.Clamp()
	assert.Equal(t, before, p, "defaults are inside the slider ranges")
}

func TestParamsClamp(t *testing.T) {
	p := Params{
		LightIntensity:  -1,
		LightRadius:     100,
		SSAOBias:        math32.NaN(),
		SSAORadius:      2,
		SSAOScale:       11,
		SSAOSamples:     200,
		BlurCoefficient: -3,
		ViewMode:        ViewMode(7),
	}
	p.Clamp()

	assert.Equal(t, float32(0), p.LightIntensity)
	assert.Equal(t, float32(MaxLightRadius), p.LightRadius)
	assert.Equal(t, float32(0), p.SSAOBias)
	assert.Equal(t, float32(MaxSSAORadius), p.SSAORadius)
	assert.Equal(t, float32(MaxSSAOScale), p.SSAOScale)
	assert.Equal(t, MaxSSAOSamples, p.SSAOSamples)
	assert.Equal(t, float32(0), p.BlurCoefficient)
	assert.Equal(t, Anaglyph, p.ViewMode)
}

func TestLightPositions(t *testing.T) {
	p := DefaultParams()
	p.LightRadius = 3
	assert.Equal(t, [4][3]float32{
		{-3, -3, -3},
		{3, -3, -3},
		{-3, 3, -3},
		{3, 3, -3},
	}, p.LightPositions())
}

func TestViewModeCycle(t *testing.T) {
	assert.Equal(t, SideBySide, Anaglyph.Next())
	assert.Equal(t, Anaglyph, SideBySide.Next())

	for _, m := range []ViewMode{Anaglyph, SideBySide} {
		got, err := ParseViewMode(m.String())
		assert.NoError(t, err)
		assert.Equal(t, m, got)
	}
	_, err := ParseViewMode("interlaced")
	assert.Error(t, err)
	assert.Equal(t, "ViewMode(9)", ViewMode(9).String())
}

func TestParseKeyboardLayout(t *testing.T) {
	for _, k := range []KeyboardLayout{Azerty, Qwerty} {
		got, err := ParseKeyboardLayout(k.String())
		assert.NoError(t, err)
		assert.Equal(t, k, got)
	}
	_, err := ParseKeyboardLayout("dvorak")
	assert.Error(t, err)
}
