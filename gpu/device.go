// Package gpu describes the render context the pipeline drives. GPU bind
// state (current framebuffer, program, texture units, viewport, blending) is
// process-wide and order dependent, so every state change goes through a
// Device and is visible to tests through a recording implementation.
//
// A Device must only be used from the goroutine that owns the GL context.
package gpu

// Handles are opaque, non-zero once created. The zero Framebuffer is the
// default (screen) framebuffer.
type (
	Framebuffer uint32
	Texture     uint32
	Program     uint32
	VertexArray uint32
	Buffer      uint32
)

// Uniform is a program-local uniform location. -1 means the uniform is not
// active and writes to it are ignored.
type Uniform int32

// Screen is the default framebuffer.
const Screen Framebuffer = 0

type TextureFormat int

const (
	FormatRGB8    TextureFormat = iota // diffuse textures
	FormatRGB32F                       // SSAO noise
	FormatRGBA32F                      // HDR colour attachments
	FormatDepth24                      // depth attachments
)

func (f TextureFormat) String() string {
	switch f {
	case FormatRGB8:
		return "RGB8"
	case FormatRGB32F:
		return "RGB32F"
	case FormatRGBA32F:
		return "RGBA32F"
	case FormatDepth24:
		return "DEPTH24"
	}
	return "unknown"
}

type Filter int

const (
	FilterNearest Filter = iota
	FilterLinear
	FilterMipmap // trilinear with generated mipmaps
)

type Wrap int

const (
	WrapClamp Wrap = iota
	WrapRepeat
)

// TextureDesc describes a 2D texture. At most one of Pixels (8-bit
// formats) or Floats (float formats) is set; both nil allocates storage
// only.
type TextureDesc struct {
	Width, Height int
	Format        TextureFormat
	Filter        Filter
	Wrap          Wrap
	Pixels        []byte
	Floats        []float32
}

type Capability int

const (
	DepthTest Capability = iota
	Blend
)

func (c Capability) String() string {
	if c == DepthTest {
		return "DEPTH_TEST"
	}
	return "BLEND"
}

type BlendFactor int

const (
	BlendZero BlendFactor = iota
	BlendOne
)

// Viewport is a pixel rectangle with its origin at the bottom left.
type Viewport struct {
	X, Y, Width, Height int
}

// Device is the render context: resource creation plus every bind-state
// mutation the pipeline performs.
type Device interface {
	// ── Textures ──
	CreateTexture(desc TextureDesc) (Texture, error)
	DeleteTexture(tex Texture)
	BindTexture(unit int, tex Texture)

	// ── Framebuffers ──
	CreateFramebuffer() Framebuffer
	AttachColor(fb Framebuffer, index int, tex Texture)
	AttachDepth(fb Framebuffer, tex Texture)
	// CheckFramebuffer reports whether fb is complete, with the raw status
	// code for diagnostics.
	CheckFramebuffer(fb Framebuffer) (complete bool, status uint32)
	DeleteFramebuffer(fb Framebuffer)
	BindFramebuffer(fb Framebuffer)
	// DrawBuffers routes fragment outputs 0..n-1 to colour attachments
	// 0..n-1 of the bound framebuffer.
	DrawBuffers(n int)
	SetViewport(v Viewport)
	Clear(r, g, b, a float32)

	// ── Programs ──
	CreateProgram(name, vertSrc, fragSrc string) (Program, error)
	DeleteProgram(p Program)
	UseProgram(p Program)
	UniformLocation(p Program, name string) Uniform
	SetInt(u Uniform, v int32)
	SetFloat(u Uniform, v float32)
	SetVec3(u Uniform, v [3]float32)
	SetVec3Array(u Uniform, v []float32)
	SetMat4(u Uniform, m [16]float32)

	// ── Geometry ──
	CreateVertexArray() VertexArray
	// CreateBuffer uploads data into a new buffer bound to attribute
	// location loc of the currently bound vertex array, components floats
	// per vertex.
	CreateBuffer(loc, components int, data []float32) Buffer
	BindVertexArray(va VertexArray)
	DeleteVertexArray(va VertexArray)
	DeleteBuffer(b Buffer)
	DrawTriangles(vertexCount int)

	// ── Fixed-function state ──
	Enable(c Capability)
	Disable(c Capability)
	BlendFunc(src, dst BlendFactor)
}
