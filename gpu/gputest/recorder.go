// Package gputest provides a fake gpu.Device that records every call and
// the bind state in effect at each draw, so pass ordering can be asserted
// without a GL context.
package gputest

import (
	"errors"
	"fmt"
	"sort"

	"stereo-viewer/gpu"
)

// ErrInjected is returned by operations configured to fail.
var ErrInjected = errors.New("gputest: injected failure")

// Call is one recorded Device method invocation.
type Call struct {
	Op   string
	Args []any
}

func (c Call) String() string { return fmt.Sprintf("%s%v", c.Op, c.Args) }

// DrawCall is the bind state captured by DrawTriangles.
type DrawCall struct {
	Framebuffer gpu.Framebuffer
	Program     gpu.Program
	ProgramName string
	VertexArray gpu.VertexArray
	Viewport    gpu.Viewport
	Textures    map[int]gpu.Texture
	Enabled     map[gpu.Capability]bool
	VertexCount int
	// Uniforms holds the last value written to each uniform of Program.
	Uniforms map[string]any
}

type uniformKey struct {
	program gpu.Program
	loc     gpu.Uniform
}

// Recorder implements gpu.Device in memory.
type Recorder struct {
	// FailProgram makes CreateProgram fail for the program with this name.
	FailProgram string
	// FailFramebufferAt makes the n-th CheckFramebuffer call (1-based)
	// report an incomplete framebuffer. Zero disables.
	FailFramebufferAt int
	// FailTextures makes every CreateTexture call fail.
	FailTextures bool

	calls []Call
	draws []DrawCall

	nextHandle   uint32
	live         map[string]map[uint32]bool
	doubleFrees  []string
	fbChecks     int
	programNames map[gpu.Program]string
	uniformNames map[uniformKey]string
	nextUniform  map[gpu.Program]gpu.Uniform
	uniformVals  map[uniformKey]any
	textureDescs map[gpu.Texture]gpu.TextureDesc

	framebuffer gpu.Framebuffer
	program     gpu.Program
	vertexArray gpu.VertexArray
	viewport    gpu.Viewport
	textures    map[int]gpu.Texture
	enabled     map[gpu.Capability]bool
}

var _ gpu.Device = (*Recorder)(nil)

func New() *Recorder {
	return &Recorder{
		live:         map[string]map[uint32]bool{},
		programNames: map[gpu.Program]string{},
		uniformNames: map[uniformKey]string{},
		nextUniform:  map[gpu.Program]gpu.Uniform{},
		uniformVals:  map[uniformKey]any{},
		textureDescs: map[gpu.Texture]gpu.TextureDesc{},
		textures:     map[int]gpu.Texture{},
		enabled:      map[gpu.Capability]bool{},
	}
}

func (r *Recorder) record(op string, args ...any) {
	r.calls = append(r.calls, Call{Op: op, Args: args})
}

func (r *Recorder) alloc(kind string) uint32 {
	r.nextHandle++
	if r.live[kind] == nil {
		r.live[kind] = map[uint32]bool{}
	}
	r.live[kind][r.nextHandle] = true
	return r.nextHandle
}

func (r *Recorder) free(kind string, h uint32) {
	if h == 0 {
		return
	}
	if !r.live[kind][h] {
		r.doubleFrees = append(r.doubleFrees, fmt.Sprintf("%s %d", kind, h))
		return
	}
	delete(r.live[kind], h)
}

// ── Inspection ──────────────────────────────────────────────────────────────

// Calls returns every recorded call in order.
func (r *Recorder) Calls() []Call { return r.calls }

// Ops returns the operation names of every recorded call in order.
func (r *Recorder) Ops() []string {
	out := make([]string, len(r.calls))
	for i, c := range r.calls {
		out[i] = c.Op
	}
	return out
}

// Draws returns the captured state of every draw call in order.
func (r *Recorder) Draws() []DrawCall { return r.draws }

// Reset forgets recorded calls and draws but keeps resources and state.
func (r *Recorder) Reset() {
	r.calls = nil
	r.draws = nil
}

// Live returns the number of created and not yet deleted objects of kind
// ("texture", "framebuffer", "program", "vertexarray", "buffer"), or of
// all kinds when kind is empty.
func (r *Recorder) Live(kind string) int {
	if kind != "" {
		return len(r.live[kind])
	}
	n := 0
	for _, m := range r.live {
		n += len(m)
	}
	return n
}

// DoubleFrees lists objects deleted more than once.
func (r *Recorder) DoubleFrees() []string { return r.doubleFrees }

// ProgramName returns the name a program was created with.
func (r *Recorder) ProgramName(p gpu.Program) string { return r.programNames[p] }

// TextureDesc returns the description a texture was created with.
func (r *Recorder) TextureDesc(t gpu.Texture) gpu.TextureDesc { return r.textureDescs[t] }

// ProgramNames lists the names of all live programs, sorted.
func (r *Recorder) ProgramNames() []string {
	var out []string
	for p, name := range r.programNames {
		if r.live["program"][uint32(p)] {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

// ── gpu.Device ──────────────────────────────────────────────────────────────

func (r *Recorder) CreateTexture(desc gpu.TextureDesc) (gpu.Texture, error) {
	if r.FailTextures {
		r.record("CreateTexture", desc.Format, ErrInjected)
		return 0, ErrInjected
	}
	t := gpu.Texture(r.alloc("texture"))
	r.textureDescs[t] = desc
	r.record("CreateTexture", desc.Format, desc.Width, desc.Height, t)
	return t, nil
}

func (r *Recorder) DeleteTexture(tex gpu.Texture) {
	r.record("DeleteTexture", tex)
	r.free("texture", uint32(tex))
}

func (r *Recorder) BindTexture(unit int, tex gpu.Texture) {
	r.record("BindTexture", unit, tex)
	r.textures[unit] = tex
}

func (r *Recorder) CreateFramebuffer() gpu.Framebuffer {
	fb := gpu.Framebuffer(r.alloc("framebuffer"))
	r.record("CreateFramebuffer", fb)
	return fb
}

func (r *Recorder) AttachColor(fb gpu.Framebuffer, index int, tex gpu.Texture) {
	r.record("AttachColor", fb, index, tex)
}

func (r *Recorder) AttachDepth(fb gpu.Framebuffer, tex gpu.Texture) {
	r.record("AttachDepth", fb, tex)
}

func (r *Recorder) CheckFramebuffer(fb gpu.Framebuffer) (bool, uint32) {
	r.fbChecks++
	r.record("CheckFramebuffer", fb)
	if r.FailFramebufferAt > 0 && r.fbChecks == r.FailFramebufferAt {
		return false, 0x8CD6 // FRAMEBUFFER_INCOMPLETE_ATTACHMENT
	}
	return true, 0x8CD5 // FRAMEBUFFER_COMPLETE
}

func (r *Recorder) DeleteFramebuffer(fb gpu.Framebuffer) {
	r.record("DeleteFramebuffer", fb)
	r.free("framebuffer", uint32(fb))
}

func (r *Recorder) BindFramebuffer(fb gpu.Framebuffer) {
	r.record("BindFramebuffer", fb)
	r.framebuffer = fb
}

func (r *Recorder) DrawBuffers(n int) { r.record("DrawBuffers", n) }

func (r *Recorder) SetViewport(v gpu.Viewport) {
	r.record("SetViewport", v)
	r.viewport = v
}

func (r *Recorder) Clear(cr, cg, cb, ca float32) { r.record("Clear", cr, cg, cb, ca) }

func (r *Recorder) CreateProgram(name, vertSrc, fragSrc string) (gpu.Program, error) {
	if name == r.FailProgram || vertSrc == "" || fragSrc == "" {
		r.record("CreateProgram", name, ErrInjected)
		return 0, fmt.Errorf("program %q: %w", name, ErrInjected)
	}
	p := gpu.Program(r.alloc("program"))
	r.programNames[p] = name
	r.record("CreateProgram", name, p)
	return p, nil
}

func (r *Recorder) DeleteProgram(p gpu.Program) {
	r.record("DeleteProgram", p)
	r.free("program", uint32(p))
}

func (r *Recorder) UseProgram(p gpu.Program) {
	r.record("UseProgram", p)
	r.program = p
}

// UniformLocation hands out locations per program in lookup order, so
// every name is "active".
func (r *Recorder) UniformLocation(p gpu.Program, name string) gpu.Uniform {
	for k, n := range r.uniformNames {
		if k.program == p && n == name {
			return k.loc
		}
	}
	loc := r.nextUniform[p]
	r.nextUniform[p] = loc + 1
	r.uniformNames[uniformKey{p, loc}] = name
	return loc
}

func (r *Recorder) setUniform(op string, u gpu.Uniform, v any) {
	r.record(op, r.uniformNames[uniformKey{r.program, u}], v)
	if u >= 0 {
		r.uniformVals[uniformKey{r.program, u}] = v
	}
}

func (r *Recorder) SetInt(u gpu.Uniform, v int32) { r.setUniform("SetInt", u, v) }
func (r *Recorder) SetFloat(u gpu.Uniform, v float32) { r.setUniform("SetFloat", u, v) }
func (r *Recorder) SetVec3(u gpu.Uniform, v [3]float32) { r.setUniform("SetVec3", u, v) }
func (r *Recorder) SetVec3Array(u gpu.Uniform, v []float32) { r.setUniform("SetVec3Array", u, v) }
func (r *Recorder) SetMat4(u gpu.Uniform, m [16]float32) { r.setUniform("SetMat4", u, m) }

func (r *Recorder) CreateVertexArray() gpu.VertexArray {
	va := gpu.VertexArray(r.alloc("vertexarray"))
	r.record("CreateVertexArray", va)
	return va
}

func (r *Recorder) CreateBuffer(loc, components int, data []float32) gpu.Buffer {
	b := gpu.Buffer(r.alloc("buffer"))
	r.record("CreateBuffer", loc, components, len(data), b)
	return b
}

func (r *Recorder) BindVertexArray(va gpu.VertexArray) {
	r.record("BindVertexArray", va)
	r.vertexArray = va
}

func (r *Recorder) DeleteVertexArray(va gpu.VertexArray) {
	r.record("DeleteVertexArray", va)
	r.free("vertexarray", uint32(va))
}

func (r *Recorder) DeleteBuffer(b gpu.Buffer) {
	r.record("DeleteBuffer", b)
	r.free("buffer", uint32(b))
}

func (r *Recorder) DrawTriangles(vertexCount int) {
	r.record("DrawTriangles", vertexCount)

	dc := DrawCall{
		Framebuffer: r.framebuffer,
		Program:     r.program,
		ProgramName: r.programNames[r.program],
		VertexArray: r.vertexArray,
		Viewport:    r.viewport,
		Textures:    make(map[int]gpu.Texture, len(r.textures)),
		Enabled:     make(map[gpu.Capability]bool, len(r.enabled)),
		VertexCount: vertexCount,
		Uniforms:    map[string]any{},
	}
	for u, t := range r.textures {
		dc.Textures[u] = t
	}
	for c, on := range r.enabled {
		dc.Enabled[c] = on
	}
	for k, v := range r.uniformVals {
		if k.program == r.program {
			dc.Uniforms[r.uniformNames[k]] = v
		}
	}
	r.draws = append(r.draws, dc)
}

func (r *Recorder) Enable(c gpu.Capability) {
	r.record("Enable", c)
	r.enabled[c] = true
}

func (r *Recorder) Disable(c gpu.Capability) {
	r.record("Disable", c)
	r.enabled[c] = false
}

func (r *Recorder) BlendFunc(src, dst gpu.BlendFactor) { r.record("BlendFunc", src, dst) }
