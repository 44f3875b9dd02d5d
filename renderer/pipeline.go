package renderer

import (
	"errors"
	"fmt"
	"log/slog"

	"stereo-viewer/gpu"
	reMath "stereo-viewer/math"
	"stereo-viewer/scene"
)

// ErrProgram matches shader compile and link failures.
var ErrProgram = errors.New("shader program failed")

// Overlay draws the settings panel. While Params.ShowGUI is set it replaces
// the whole stereo pipeline for the frame and may edit params in place.
type Overlay interface {
	Draw(params *Params)
}

// Options configure NewPipeline.
type Options struct {
	Width, Height int
	// Shaders overrides the built-in GLSL; nil uses DefaultShaderSources.
	Shaders ShaderSources
	Overlay Overlay
	Logger  *slog.Logger
}

var lightColor = [3]float32{1, 1, 1}

// program is a linked program with its uniform locations resolved once.
type program struct {
	dev      gpu.Device
	id       gpu.Program
	uniforms map[string]gpu.Uniform
}

func newProgram(dev gpu.Device, spec programSpec, shaders ShaderSources) (*program, error) {
	id, err := dev.CreateProgram(spec.name, shaders[spec.vert], shaders[spec.frag])
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrProgram, spec.name, err)
	}
	pr := &program{dev: dev, id: id, uniforms: map[string]gpu.Uniform{}}

	dev.UseProgram(id)
	for unit, name := range spec.samplers {
		loc := dev.UniformLocation(id, name)
		pr.uniforms[name] = loc
		dev.SetInt(loc, int32(unit))
	}
	for _, name := range spec.uniforms {
		pr.uniforms[name] = dev.UniformLocation(id, name)
	}
	return pr, nil
}

func (pr *program) loc(name string) gpu.Uniform {
	if u, ok := pr.uniforms[name]; ok {
		return u
	}
	return -1
}

func (pr *program) setInt(name string, v int32) { pr.dev.SetInt(pr.loc(name), v) }
func (pr *program) setFloat(name string, v float32) { pr.dev.SetFloat(pr.loc(name), v) }
func (pr *program) setVec3(name string, v [3]float32) { pr.dev.SetVec3(pr.loc(name), v) }
func (pr *program) setMat4(name string, m reMath.Mat4) { pr.dev.SetMat4(pr.loc(name), m.Flat()) }

// eyeTargets are the framebuffers owned by one eye.
type eyeTargets struct {
	output *Framebuffer // lit colour
	blend  *Framebuffer // lit colour × occlusion
}

// Pipeline renders the loaded drawable from both rig cameras and composites
// the two results to the screen. It reads the rig but never mutates it.
type Pipeline struct {
	dev     gpu.Device
	rig     *scene.Rig
	params  Params
	overlay Overlay
	log     *slog.Logger

	width, height int

	programs [programCount]*program
	gbuffer  *Framebuffer // albedo, normal, position
	ssao     *Framebuffer
	blur     *Framebuffer
	eyes     [2]eyeTargets
	noise    gpu.Texture
	quad     *Drawable

	drawable *Drawable
}

// NewPipeline compiles every program and allocates every render target.
// Any failure releases what was created and is returned.
func NewPipeline(dev gpu.Device, rig *scene.Rig, params Params, opts Options) (*Pipeline, error) {
	if rig == nil {
		return nil, errors.New("pipeline: nil rig")
	}
	if opts.Width <= 0 || opts.Height <= 0 {
		return nil, fmt.Errorf("pipeline: invalid size %dx%d", opts.Width, opts.Height)
	}
	shaders := opts.Shaders
	if shaders == nil {
		shaders = DefaultShaderSources()
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}

	params.Clamp()
	p := &Pipeline{
		dev:     dev,
		rig:     rig,
		params:  params,
		overlay: opts.Overlay,
		log:     log,
		width:   opts.Width,
		height:  opts.Height,
	}
	if err := p.init(shaders); err != nil {
		p.Destroy()
		return nil, err
	}
	p.log.Info("pipeline ready", "width", p.width, "height", p.height, "ssao", p.params.SSAOEnabled)
	return p, nil
}

func (p *Pipeline) init(shaders ShaderSources) error {
	for kind, spec := range programTable {
		pr, err := newProgram(p.dev, spec, shaders)
		if err != nil {
			return err
		}
		p.programs[kind] = pr
	}

	ssaoProg := p.programs[progSSAO]
	p.dev.UseProgram(ssaoProg.id)
	p.dev.SetVec3Array(ssaoProg.loc("kernel"), ssaoKernel())

	noise, err := newSSAONoise(p.dev)
	if err != nil {
		return fmt.Errorf("ssao noise: %w", err)
	}
	p.noise = noise

	if p.quad, err = NewScreenQuad(p.dev); err != nil {
		return fmt.Errorf("screen quad: %w", err)
	}
	return p.createTargets()
}

func (p *Pipeline) createTargets() error {
	var err error
	newFB := func(dst **Framebuffer, n int, what string) {
		if err != nil {
			return
		}
		if *dst, err = NewFramebuffer(p.dev, n, p.width, p.height); err != nil {
			err = fmt.Errorf("%s framebuffer: %w", what, err)
		}
	}
	newFB(&p.eyes[scene.EyeLeft].output, 1, "left output")
	newFB(&p.eyes[scene.EyeRight].output, 1, "right output")
	newFB(&p.gbuffer, 3, "geometry")
	newFB(&p.ssao, 1, "ssao")
	newFB(&p.blur, 1, "blur")
	newFB(&p.eyes[scene.EyeLeft].blend, 1, "left blend")
	newFB(&p.eyes[scene.EyeRight].blend, 1, "right blend")
	return err
}

func (p *Pipeline) destroyTargets() {
	for _, fb := range []**Framebuffer{
		&p.eyes[scene.EyeLeft].output, &p.eyes[scene.EyeRight].output,
		&p.gbuffer, &p.ssao, &p.blur,
		&p.eyes[scene.EyeLeft].blend, &p.eyes[scene.EyeRight].blend,
	} {
		(*fb).Destroy()
		*fb = nil
	}
}

// ── Accessors ────────────────────────────────────────────────────────────────

// Params returns the live parameters; edits apply from the next frame.
func (p *Pipeline) Params() *Params { return &p.params }

// Drawable returns the current drawable, nil when no mesh is loaded.
func (p *Pipeline) Drawable() *Drawable { return p.drawable }

// SetDrawable replaces the drawable, destroying the previous one. nil
// returns the pipeline to the "no mesh" state.
func (p *Pipeline) SetDrawable(d *Drawable) {
	if p.drawable != nil && p.drawable != d {
		p.drawable.Destroy()
	}
	p.drawable = d
}

func (p *Pipeline) SetOverlay(o Overlay) { p.overlay = o }

// Size returns the output size in pixels.
func (p *Pipeline) Size() (width, height int) { return p.width, p.height }

// Resize recreates every render target at the new size. The rig is not
// touched; callers resize it separately. After a failure the pipeline has
// no targets and Render only clears the screen until a Resize succeeds.
func (p *Pipeline) Resize(width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("pipeline: invalid size %dx%d", width, height)
	}
	if width == p.width && height == p.height && p.gbuffer != nil {
		return nil
	}
	p.destroyTargets()
	p.width, p.height = width, height
	if err := p.createTargets(); err != nil {
		p.destroyTargets()
		return err
	}
	p.log.Debug("pipeline resized", "width", width, "height", height)
	return nil
}

// Destroy releases every GPU resource including the current drawable. It
// is safe to call more than once.
func (p *Pipeline) Destroy() {
	p.SetDrawable(nil)
	p.destroyTargets()
	p.quad.Destroy()
	p.quad = nil
	if p.noise != 0 {
		p.dev.DeleteTexture(p.noise)
		p.noise = 0
	}
	for i, pr := range p.programs {
		if pr != nil {
			p.dev.DeleteProgram(pr.id)
			p.programs[i] = nil
		}
	}
}

// ── Frame ────────────────────────────────────────────────────────────────────

func (p *Pipeline) fullViewport() gpu.Viewport {
	return gpu.Viewport{Width: p.width, Height: p.height}
}

// Render draws one frame into the default framebuffer.
func (p *Pipeline) Render() {
	p.dev.BindFramebuffer(gpu.Screen)
	p.dev.SetViewport(p.fullViewport())
	p.dev.Enable(gpu.DepthTest)
	p.dev.Clear(0, 0, 0, 1)

	if p.params.ShowGUI {
		if p.overlay != nil {
			p.overlay.Draw(&p.params)
			p.params.Clamp()
		}
		return
	}
	if p.drawable == nil || p.quad == nil || p.gbuffer == nil {
		return
	}

	for _, eye := range []scene.Eye{scene.EyeLeft, scene.EyeRight} {
		p.renderEye(eye)
	}
	p.compositePass()
}

func (p *Pipeline) renderEye(eye scene.Eye) {
	cam := p.rig.Camera(eye)
	view, proj := cam.ViewMatrix(), cam.ProjectionMatrix()
	targets := p.eyes[eye]

	p.geometryPass(view, proj)
	if p.params.SSAOEnabled {
		p.ssaoPass(view, proj)
		p.blurPass()
	}
	p.lightingPass(targets.output, view, proj)
	if p.params.SSAOEnabled {
		p.blendPass(targets)
	}
}

// use activates a program and binds inputs to texture units 0..n-1.
func (p *Pipeline) use(kind programKind, inputs ...gpu.Texture) *program {
	pr := p.programs[kind]
	p.dev.UseProgram(pr.id)
	for unit, tex := range inputs {
		p.dev.BindTexture(unit, tex)
	}
	return pr
}

func (p *Pipeline) geometryPass(view, proj reMath.Mat4) {
	p.gbuffer.Bind()
	p.dev.Clear(0, 0, 0, 0)

	d := p.drawable
	pr := p.use(progGeometry, d.Texture())
	hasDiffuse := int32(0)
	if d.Texture() != 0 {
		hasDiffuse = 1
	}
	pr.setInt("has_diffuse", hasDiffuse)
	pr.setMat4("model_matrix", d.Model())
	pr.setMat4("view_matrix", view)
	pr.setMat4("projection_matrix", proj)
	d.Draw()
}

func (p *Pipeline) ssaoPass(view, proj reMath.Mat4) {
	p.ssao.Bind()
	p.dev.Clear(1, 1, 1, 1)

	g := p.gbuffer
	pr := p.use(progSSAO, g.ColorTexture(1), g.ColorTexture(2), p.noise, g.DepthTexture())
	pr.setFloat("bias", p.params.SSAOBias)
	pr.setFloat("radius", p.params.SSAORadius)
	pr.setFloat("scale", p.params.SSAOScale)
	pr.setInt("samples", int32(p.params.SSAOSamples))
	pr.setMat4("model_matrix", p.drawable.Model())
	pr.setMat4("view_matrix", view)
	pr.setMat4("projection_matrix", proj)
	p.quad.Draw()
}

func (p *Pipeline) blurPass() {
	p.blur.Bind()
	p.dev.Clear(1, 1, 1, 1)

	pr := p.use(progBlur, p.ssao.ColorTexture(0))
	pr.setFloat("blur_coefficient", p.params.BlurCoefficient)
	p.quad.Draw()
}

// lightingPass accumulates the four point lights additively into out.
func (p *Pipeline) lightingPass(out *Framebuffer, view, proj reMath.Mat4) {
	out.Bind()
	p.dev.Clear(0, 0, 0, 1)

	g := p.gbuffer
	pr := p.use(progLighting, g.ColorTexture(0), g.ColorTexture(1), g.DepthTexture(), g.ColorTexture(2))
	pr.setMat4("view_matrix", view)
	pr.setMat4("projection_matrix", proj)

	p.dev.Disable(gpu.DepthTest)
	p.dev.Enable(gpu.Blend)
	p.dev.BlendFunc(gpu.BlendOne, gpu.BlendOne)
	for _, pos := range p.params.LightPositions() {
		pr.setVec3("light_position", pos)
		pr.setVec3("light_color", lightColor)
		pr.setFloat("light_intensity", p.params.LightIntensity)
		p.quad.Draw()
	}
	p.dev.Enable(gpu.DepthTest)
	p.dev.Disable(gpu.Blend)
}

func (p *Pipeline) blendPass(t eyeTargets) {
	t.blend.Bind()
	p.dev.Clear(0, 0, 0, 1)

	p.use(progBlend, t.output.ColorTexture(0), p.blur.ColorTexture(0))
	p.quad.Draw()
}

// result is the final image of one eye: the occlusion-blended image when
// SSAO is on, the raw lit image otherwise.
func (p *Pipeline) result(eye scene.Eye) gpu.Texture {
	if p.params.SSAOEnabled {
		return p.eyes[eye].blend.ColorTexture(0)
	}
	return p.eyes[eye].output.ColorTexture(0)
}

func (p *Pipeline) compositePass() {
	p.dev.BindFramebuffer(gpu.Screen)
	left, right := p.result(scene.EyeLeft), p.result(scene.EyeRight)

	switch p.params.ViewMode {
	case SideBySide:
		half := p.width / 2
		p.dev.SetViewport(gpu.Viewport{X: 0, Y: 0, Width: half, Height: p.height})
		p.use(progComposite, left, left)
		p.quad.Draw()

		p.dev.SetViewport(gpu.Viewport{X: half, Y: 0, Width: half, Height: p.height})
		p.use(progComposite, right, right)
		p.quad.Draw()
	default:
		p.dev.SetViewport(p.fullViewport())
		p.use(progComposite, left, right)
		p.quad.Draw()
	}
}
