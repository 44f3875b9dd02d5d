package renderer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stereo-viewer/gpu"
	"stereo-viewer/gpu/gputest"
	"stereo-viewer/scene"
)

const (
	testWidth  = 1280
	testHeight = 720
)

func newTestPipeline(t *testing.T, dev *gputest.Recorder, params Params) *Pipeline {
	t.Helper()
	rig, err := scene.NewRig(scene.DefaultRigConfig(testWidth, testHeight))
	require.NoError(t, err)
	p, err := NewPipeline(dev, rig, params, Options{Width: testWidth, Height: testHeight})
	require.NoError(t, err)
	return p
}

func loadQuad(t *testing.T, dev *gputest.Recorder, p *Pipeline) *Drawable {
	t.Helper()
	d, err := NewDrawable(dev, scene.ScreenQuad(), scene.NewSolidTexture("white", 255, 255, 255))
	require.NoError(t, err)
	p.SetDrawable(d)
	return d
}

func programsOf(draws []gputest.DrawCall) []string {
	out := make([]string, len(draws))
	for i, d := range draws {
		out[i] = d.ProgramName
	}
	return out
}

type overlayFunc func(*Params)

func (f overlayFunc) Draw(p *Params) { f(p) }

func TestNewPipelineResources(t *testing.T) {
	dev := gputest.New()
	p := newTestPipeline(t, dev, DefaultParams())

	assert.Equal(t, []string{"blend", "blur", "composite", "geometry", "lighting", "ssao"}, dev.ProgramNames())
	assert.Equal(t, 7, dev.Live("framebuffer"))
	// 9 colour + 7 depth attachments and the noise texture.
	assert.Equal(t, 17, dev.Live("texture"))
	assert.Equal(t, 1, dev.Live("vertexarray"))

	assert.Len(t, p.gbuffer.ColorTextures(), 3)
	for _, fb := range []*Framebuffer{p.ssao, p.blur, p.eyes[0].output, p.eyes[1].output, p.eyes[0].blend, p.eyes[1].blend} {
		assert.Len(t, fb.ColorTextures(), 1)
	}

	p.Destroy()
	p.Destroy()
	assert.Zero(t, dev.Live(""))
	assert.Empty(t, dev.DoubleFrees())
}

func TestNewPipelineUploadsKernel(t *testing.T) {
	dev := gputest.New()
	newTestPipeline(t, dev, DefaultParams())

	var kernel []float32
	for _, c := range dev.Calls() {
		if c.Op == "SetVec3Array" && c.Args[0] == "kernel" {
			kernel = c.Args[1].([]float32)
		}
	}
	assert.Len(t, kernel, ssaoKernelSize*3)
}

func TestNewPipelineProgramFailure(t *testing.T) {
	dev := gputest.New()
	dev.FailProgram = "lighting"
	rig, err := scene.NewRig(scene.DefaultRigConfig(testWidth, testHeight))
	require.NoError(t, err)

	p, err := NewPipeline(dev, rig, DefaultParams(), Options{Width: testWidth, Height: testHeight})
	assert.Nil(t, p)
	assert.ErrorIs(t, err, ErrProgram)
	assert.ErrorContains(t, err, "lighting")
	assert.Zero(t, dev.Live(""))
}

func TestNewPipelineMissingShaderSource(t *testing.T) {
	dev := gputest.New()
	rig, err := scene.NewRig(scene.DefaultRigConfig(testWidth, testHeight))
	require.NoError(t, err)

	shaders := DefaultShaderSources()
	delete(shaders, "blur.frag")
	_, err = NewPipeline(dev, rig, DefaultParams(), Options{Width: testWidth, Height: testHeight, Shaders: shaders})
	assert.ErrorIs(t, err, ErrProgram)
	assert.Zero(t, dev.Live(""))
}

func TestNewPipelineFramebufferFailure(t *testing.T) {
	dev := gputest.New()
	dev.FailFramebufferAt = 3 // geometry buffer
	rig, err := scene.NewRig(scene.DefaultRigConfig(testWidth, testHeight))
	require.NoError(t, err)

	_, err = NewPipeline(dev, rig, DefaultParams(), Options{Width: testWidth, Height: testHeight})
	assert.ErrorIs(t, err, ErrFramebufferIncomplete)
	assert.ErrorContains(t, err, "geometry")
	assert.Zero(t, dev.Live(""))
	assert.Empty(t, dev.DoubleFrees())
}

func TestNewPipelineRejectsBadInput(t *testing.T) {
	dev := gputest.New()
	_, err := NewPipeline(dev, nil, DefaultParams(), Options{Width: 1, Height: 1})
	assert.Error(t, err)

	rig, err := scene.NewRig(scene.DefaultRigConfig(testWidth, testHeight))
	require.NoError(t, err)
	_, err = NewPipeline(dev, rig, DefaultParams(), Options{})
	assert.Error(t, err)
	assert.Zero(t, dev.Live(""))
}

func TestRenderWithoutDrawableOnlyClears(t *testing.T) {
	dev := gputest.New()
	p := newTestPipeline(t, dev, DefaultParams())
	dev.Reset()

	p.Render()
	assert.Empty(t, dev.Draws())
	assert.Contains(t, dev.Ops(), "Clear")
}

func TestRenderSkipsPipelineWhileGUIShown(t *testing.T) {
	dev := gputest.New()
	params := DefaultParams()
	params.ShowGUI = true
	p := newTestPipeline(t, dev, params)
	loadQuad(t, dev, p)

	calls := 0
	p.SetOverlay(overlayFunc(func(pp *Params) {
		calls++
		pp.LightIntensity = 1000
	}))
	dev.Reset()

	p.Render()
	assert.Equal(t, 1, calls)
	assert.Empty(t, dev.Draws())
	assert.Equal(t, float32(MaxLightIntensity), p.Params().LightIntensity)

	p.Params().ShowGUI = false
	p.Render()
	assert.Equal(t, 1, calls)
	assert.NotEmpty(t, dev.Draws())
}

func TestRenderPassOrderWithSSAO(t *testing.T) {
	dev := gputest.New()
	p := newTestPipeline(t, dev, DefaultParams())
	loadQuad(t, dev, p)
	dev.Reset()

	p.Render()

	eye := []string{"geometry", "ssao", "blur", "lighting", "lighting", "lighting", "lighting", "blend"}
	want := append(append(append([]string{}, eye...), eye...), "composite")
	draws := dev.Draws()
	assert.Equal(t, want, programsOf(draws))

	assert.Equal(t, p.gbuffer.ID(), draws[0].Framebuffer)
	assert.Equal(t, p.ssao.ID(), draws[1].Framebuffer)
	assert.Equal(t, p.blur.ID(), draws[2].Framebuffer)
	assert.Equal(t, p.eyes[scene.EyeLeft].output.ID(), draws[3].Framebuffer)
	assert.Equal(t, p.eyes[scene.EyeLeft].blend.ID(), draws[7].Framebuffer)
	assert.Equal(t, p.eyes[scene.EyeRight].blend.ID(), draws[15].Framebuffer)

	composite := draws[16]
	assert.Equal(t, gpu.Screen, composite.Framebuffer)
	assert.Equal(t, p.eyes[scene.EyeLeft].blend.ColorTexture(0), composite.Textures[0])
	assert.Equal(t, p.eyes[scene.EyeRight].blend.ColorTexture(0), composite.Textures[1])
	assert.Equal(t, gpu.Viewport{Width: testWidth, Height: testHeight}, composite.Viewport)
}

func TestRenderSSAOInputs(t *testing.T) {
	dev := gputest.New()
	params := DefaultParams()
	params.SSAOBias = 0.05
	params.SSAORadius = 0.8
	params.SSAOScale = 1.5
	params.SSAOSamples = 32
	p := newTestPipeline(t, dev, params)
	loadQuad(t, dev, p)
	dev.Reset()

	p.Render()

	ssao := dev.Draws()[1]
	require.Equal(t, "ssao", ssao.ProgramName)
	g := p.gbuffer
	assert.Equal(t, g.ColorTexture(1), ssao.Textures[0], "normal")
	assert.Equal(t, g.ColorTexture(2), ssao.Textures[1], "position")
	assert.Equal(t, p.noise, ssao.Textures[2], "noise")
	assert.Equal(t, g.DepthTexture(), ssao.Textures[3], "depth")

	assert.Equal(t, float32(0.05), ssao.Uniforms["bias"])
	assert.Equal(t, float32(0.8), ssao.Uniforms["radius"])
	assert.Equal(t, float32(1.5), ssao.Uniforms["scale"])
	assert.Equal(t, int32(32), ssao.Uniforms["samples"])
}

func TestRenderUsesEachEyeMatrices(t *testing.T) {
	dev := gputest.New()
	p := newTestPipeline(t, dev, DefaultParams())
	loadQuad(t, dev, p)
	dev.Reset()

	p.Render()
	draws := dev.Draws()
	left, right := draws[0], draws[8]
	require.Equal(t, "geometry", right.ProgramName)

	assert.Equal(t, p.rig.Left().ViewMatrix().Flat(), left.Uniforms["view_matrix"])
	assert.Equal(t, p.rig.Right().ViewMatrix().Flat(), right.Uniforms["view_matrix"])
	assert.Equal(t, p.rig.Left().ProjectionMatrix().Flat(), left.Uniforms["projection_matrix"])
	assert.Equal(t, p.rig.Right().ProjectionMatrix().Flat(), right.Uniforms["projection_matrix"])
	assert.Equal(t, int32(1), left.Uniforms["has_diffuse"])
	assert.Equal(t, p.Drawable().Texture(), left.Textures[0])
}

func TestRenderSSAODisabled(t *testing.T) {
	dev := gputest.New()
	params := DefaultParams()
	params.SSAOEnabled = false
	p := newTestPipeline(t, dev, params)
	loadQuad(t, dev, p)
	dev.Reset()

	p.Render()

	eye := []string{"geometry", "lighting", "lighting", "lighting", "lighting"}
	want := append(append(append([]string{}, eye...), eye...), "composite")
	draws := dev.Draws()
	require.Equal(t, want, programsOf(draws))

	composite := draws[len(draws)-1]
	assert.Equal(t, p.eyes[scene.EyeLeft].output.ColorTexture(0), composite.Textures[0])
	assert.Equal(t, p.eyes[scene.EyeRight].output.ColorTexture(0), composite.Textures[1])
}

func TestRenderLightingState(t *testing.T) {
	dev := gputest.New()
	params := DefaultParams()
	params.LightRadius = 2
	params.LightIntensity = 7
	p := newTestPipeline(t, dev, params)
	loadQuad(t, dev, p)
	dev.Reset()

	p.Render()

	var lights [][3]float32
	for _, d := range dev.Draws() {
		if d.ProgramName != "lighting" {
			assert.True(t, d.Enabled[gpu.DepthTest], "%s runs with depth test", d.ProgramName)
			assert.False(t, d.Enabled[gpu.Blend], "%s runs without blending", d.ProgramName)
			continue
		}
		assert.False(t, d.Enabled[gpu.DepthTest])
		assert.True(t, d.Enabled[gpu.Blend])
		assert.Equal(t, [3]float32{1, 1, 1}, d.Uniforms["light_color"])
		assert.Equal(t, float32(7), d.Uniforms["light_intensity"])
		lights = append(lights, d.Uniforms["light_position"].([3]float32))
	}
	require.Len(t, lights, 8)
	assert.ElementsMatch(t, [][3]float32{{-2, -2, -2}, {2, -2, -2}, {-2, 2, -2}, {2, 2, -2}}, lights[:4])
	assert.Contains(t, dev.Calls(), gputest.Call{Op: "BlendFunc", Args: []any{gpu.BlendOne, gpu.BlendOne}})
}

func TestRenderSideBySide(t *testing.T) {
	dev := gputest.New()
	params := DefaultParams()
	params.ViewMode = SideBySide
	p := newTestPipeline(t, dev, params)
	loadQuad(t, dev, p)
	dev.Reset()

	p.Render()
	draws := dev.Draws()
	require.GreaterOrEqual(t, len(draws), 2)
	left, right := draws[len(draws)-2], draws[len(draws)-1]

	assert.Equal(t, "composite", left.ProgramName)
	assert.Equal(t, "composite", right.ProgramName)
	assert.Equal(t, gpu.Viewport{X: 0, Y: 0, Width: testWidth / 2, Height: testHeight}, left.Viewport)
	assert.Equal(t, gpu.Viewport{X: testWidth / 2, Y: 0, Width: testWidth / 2, Height: testHeight}, right.Viewport)

	l := p.eyes[scene.EyeLeft].blend.ColorTexture(0)
	r := p.eyes[scene.EyeRight].blend.ColorTexture(0)
	assert.Equal(t, l, left.Textures[0])
	assert.Equal(t, l, left.Textures[1])
	assert.Equal(t, r, right.Textures[0])
	assert.Equal(t, r, right.Textures[1])
}

func TestRenderReadsParamsEachFrame(t *testing.T) {
	dev := gputest.New()
	p := newTestPipeline(t, dev, DefaultParams())
	loadQuad(t, dev, p)

	p.Params().SSAOEnabled = false
	p.Params().ViewMode = SideBySide
	dev.Reset()
	p.Render()

	names := programsOf(dev.Draws())
	assert.NotContains(t, names, "ssao")
	assert.Equal(t, []string{"composite", "composite"}, names[len(names)-2:])
}

func TestSetDrawableReplacesPrevious(t *testing.T) {
	dev := gputest.New()
	p := newTestPipeline(t, dev, DefaultParams())
	before := dev.Live("")

	first := loadQuad(t, dev, p)
	p.SetDrawable(first)
	assert.Same(t, first, p.Drawable())

	second := loadQuad(t, dev, p)
	assert.Same(t, second, p.Drawable())
	assert.Equal(t, before+5, dev.Live(""), "one vertex array, three buffers and one texture")

	p.SetDrawable(nil)
	assert.Nil(t, p.Drawable())
	assert.Equal(t, before, dev.Live(""))
	assert.Empty(t, dev.DoubleFrees())
}

func TestPipelineResize(t *testing.T) {
	dev := gputest.New()
	p := newTestPipeline(t, dev, DefaultParams())
	live := dev.Live("")

	require.NoError(t, p.Resize(800, 600))
	w, h := p.Size()
	assert.Equal(t, 800, w)
	assert.Equal(t, 600, h)
	assert.Equal(t, live, dev.Live(""))
	assert.Equal(t, 800, dev.TextureDesc(p.gbuffer.ColorTexture(0)).Width)
	assert.Equal(t, 600, p.eyes[scene.EyeRight].blend.Height())

	assert.Error(t, p.Resize(0, 600))
	assert.Empty(t, dev.DoubleFrees())
}

func TestPipelineResizeFailureKeepsRenderSafe(t *testing.T) {
	dev := gputest.New()
	p := newTestPipeline(t, dev, DefaultParams())
	loadQuad(t, dev, p)
	// Seven targets were checked at construction; fail the new geometry buffer.
	dev.FailFramebufferAt = 7 + 3

	err := p.Resize(800, 600)
	require.ErrorIs(t, err, ErrFramebufferIncomplete)
	assert.Zero(t, dev.Live("framebuffer"))

	dev.Reset()
	require.NotPanics(t, p.Render)
	assert.Empty(t, dev.Draws())

	require.NoError(t, p.Resize(800, 600))
	assert.Equal(t, 7, dev.Live("framebuffer"))
	p.Render()
	assert.NotEmpty(t, dev.Draws())
	assert.Empty(t, dev.DoubleFrees())
}
