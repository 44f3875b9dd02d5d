// Package opengl implements gpu.Device on an OpenGL 4.1 core context.
package opengl

import (
	"fmt"
	"log/slog"
	"unsafe"

	gl "github.com/go-gl/gl/v4.1-core/gl"

	"stereo-viewer/gpu"
)

// Device issues GL calls directly. The GL context must be current on the
// calling goroutine for every method.
type Device struct {
	log *slog.Logger
}

var _ gpu.Device = (*Device)(nil)

// NewDevice loads the GL function pointers for the current context.
func NewDevice(log *slog.Logger) (*Device, error) {
	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", err)
	}
	if log == nil {
		log = slog.Default()
	}
	log.Info("OpenGL ready",
		"version", gl.GoStr(gl.GetString(gl.VERSION)),
		"renderer", gl.GoStr(gl.GetString(gl.RENDERER)))

	gl.Enable(gl.DEPTH_TEST)
	gl.DepthFunc(gl.LESS)
	return &Device{log: log}, nil
}

// ── Textures ─────────────────────────────────────────────────────────────────

type texFormat struct {
	internal int32
	format   uint32
	xtype    uint32
}

var texFormats = map[gpu.TextureFormat]texFormat{
	gpu.FormatRGB8:    {gl.RGB8, gl.RGB, gl.UNSIGNED_BYTE},
	gpu.FormatRGB32F:  {gl.RGB32F, gl.RGB, gl.FLOAT},
	gpu.FormatRGBA32F: {gl.RGBA32F, gl.RGBA, gl.FLOAT},
	gpu.FormatDepth24: {gl.DEPTH_COMPONENT24, gl.DEPTH_COMPONENT, gl.FLOAT},
}

func (d *Device) CreateTexture(desc gpu.TextureDesc) (gpu.Texture, error) {
	f, ok := texFormats[desc.Format]
	if !ok {
		return 0, fmt.Errorf("unsupported texture format %v", desc.Format)
	}
	if desc.Width <= 0 || desc.Height <= 0 {
		return 0, fmt.Errorf("texture size %dx%d", desc.Width, desc.Height)
	}

	var data unsafe.Pointer
	switch {
	case len(desc.Pixels) > 0:
		data = gl.Ptr(desc.Pixels)
	case len(desc.Floats) > 0:
		data = gl.Ptr(desc.Floats)
	}

	var id uint32
	gl.GenTextures(1, &id)
	gl.BindTexture(gl.TEXTURE_2D, id)

	wrap := int32(gl.CLAMP_TO_EDGE)
	if desc.Wrap == gpu.WrapRepeat {
		wrap = gl.REPEAT
	}
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, wrap)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, wrap)

	minFilter, magFilter := int32(gl.NEAREST), int32(gl.NEAREST)
	switch desc.Filter {
	case gpu.FilterLinear:
		minFilter, magFilter = gl.LINEAR, gl.LINEAR
	case gpu.FilterMipmap:
		minFilter, magFilter = gl.LINEAR_MIPMAP_LINEAR, gl.LINEAR
	}
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, minFilter)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, magFilter)

	if desc.Format == gpu.FormatRGB8 {
		// RGB rows are not 4-byte aligned in general
		gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)
	}
	gl.TexImage2D(gl.TEXTURE_2D, 0, f.internal,
		int32(desc.Width), int32(desc.Height), 0, f.format, f.xtype, data)
	if desc.Filter == gpu.FilterMipmap {
		gl.GenerateMipmap(gl.TEXTURE_2D)
	}
	gl.BindTexture(gl.TEXTURE_2D, 0)

	return gpu.Texture(id), nil
}

func (d *Device) DeleteTexture(tex gpu.Texture) {
	id := uint32(tex)
	gl.DeleteTextures(1, &id)
}

func (d *Device) BindTexture(unit int, tex gpu.Texture) {
	gl.ActiveTexture(gl.TEXTURE0 + uint32(unit))
	gl.BindTexture(gl.TEXTURE_2D, uint32(tex))
}

// ── Framebuffers ─────────────────────────────────────────────────────────────

func (d *Device) CreateFramebuffer() gpu.Framebuffer {
	var id uint32
	gl.GenFramebuffers(1, &id)
	return gpu.Framebuffer(id)
}

func (d *Device) AttachColor(fb gpu.Framebuffer, index int, tex gpu.Texture) {
	gl.BindFramebuffer(gl.FRAMEBUFFER, uint32(fb))
	gl.FramebufferTexture2D(gl.FRAMEBUFFER, gl.COLOR_ATTACHMENT0+uint32(index),
		gl.TEXTURE_2D, uint32(tex), 0)
}

func (d *Device) AttachDepth(fb gpu.Framebuffer, tex gpu.Texture) {
	gl.BindFramebuffer(gl.FRAMEBUFFER, uint32(fb))
	gl.FramebufferTexture2D(gl.FRAMEBUFFER, gl.DEPTH_ATTACHMENT,
		gl.TEXTURE_2D, uint32(tex), 0)
}

func (d *Device) CheckFramebuffer(fb gpu.Framebuffer) (bool, uint32) {
	gl.BindFramebuffer(gl.FRAMEBUFFER, uint32(fb))
	status := gl.CheckFramebufferStatus(gl.FRAMEBUFFER)
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	return status == gl.FRAMEBUFFER_COMPLETE, status
}

func (d *Device) DeleteFramebuffer(fb gpu.Framebuffer) {
	id := uint32(fb)
	gl.DeleteFramebuffers(1, &id)
}

func (d *Device) BindFramebuffer(fb gpu.Framebuffer) {
	gl.BindFramebuffer(gl.FRAMEBUFFER, uint32(fb))
}

func (d *Device) DrawBuffers(n int) {
	if n <= 0 {
		return
	}
	bufs := make([]uint32, n)
	for i := range bufs {
		bufs[i] = gl.COLOR_ATTACHMENT0 + uint32(i)
	}
	gl.DrawBuffers(int32(n), &bufs[0])
}

func (d *Device) SetViewport(v gpu.Viewport) {
	gl.Viewport(int32(v.X), int32(v.Y), int32(v.Width), int32(v.Height))
}

func (d *Device) Clear(r, g, b, a float32) {
	gl.ClearColor(r, g, b, a)
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
}

// ── Programs ─────────────────────────────────────────────────────────────────

func (d *Device) CreateProgram(name, vertSrc, fragSrc string) (gpu.Program, error) {
	prog, err := newProgram(vertSrc, fragSrc)
	if err != nil {
		return 0, fmt.Errorf("%s shader: %w", name, err)
	}
	d.log.Debug("program linked", "name", name, "id", prog)
	return gpu.Program(prog), nil
}

func (d *Device) DeleteProgram(p gpu.Program) { gl.DeleteProgram(uint32(p)) }
func (d *Device) UseProgram(p gpu.Program) { gl.UseProgram(uint32(p)) }

func (d *Device) UniformLocation(p gpu.Program, name string) gpu.Uniform {
	return gpu.Uniform(gl.GetUniformLocation(uint32(p), gl.Str(name+"\x00")))
}

func (d *Device) SetInt(u gpu.Uniform, v int32) { gl.Uniform1i(int32(u), v) }
func (d *Device) SetFloat(u gpu.Uniform, v float32) { gl.Uniform1f(int32(u), v) }
func (d *Device) SetVec3(u gpu.Uniform, v [3]float32) { gl.Uniform3fv(int32(u), 1, &v[0]) }

func (d *Device) SetVec3Array(u gpu.Uniform, v []float32) {
	if len(v) < 3 {
		return
	}
	gl.Uniform3fv(int32(u), int32(len(v)/3), &v[0])
}

func (d *Device) SetMat4(u gpu.Uniform, m [16]float32) {
	gl.UniformMatrix4fv(int32(u), 1, false, &m[0])
}

// ── Geometry ─────────────────────────────────────────────────────────────────

func (d *Device) CreateVertexArray() gpu.VertexArray {
	var id uint32
	gl.GenVertexArrays(1, &id)
	return gpu.VertexArray(id)
}

func (d *Device) CreateBuffer(loc, components int, data []float32) gpu.Buffer {
	var id uint32
	gl.GenBuffers(1, &id)
	gl.BindBuffer(gl.ARRAY_BUFFER, id)
	if len(data) > 0 {
		gl.BufferData(gl.ARRAY_BUFFER, len(data)*4, gl.Ptr(data), gl.STATIC_DRAW)
	}
	gl.EnableVertexAttribArray(uint32(loc))
	gl.VertexAttribPointerWithOffset(uint32(loc), int32(components), gl.FLOAT, false, 0, 0)
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
	return gpu.Buffer(id)
}

func (d *Device) BindVertexArray(va gpu.VertexArray) { gl.BindVertexArray(uint32(va)) }

func (d *Device) DeleteVertexArray(va gpu.VertexArray) {
	id := uint32(va)
	gl.DeleteVertexArrays(1, &id)
}

func (d *Device) DeleteBuffer(b gpu.Buffer) {
	id := uint32(b)
	gl.DeleteBuffers(1, &id)
}

func (d *Device) DrawTriangles(vertexCount int) {
	gl.DrawArrays(gl.TRIANGLES, 0, int32(vertexCount))
}

// ── Fixed-function state ─────────────────────────────────────────────────────

var capabilities = map[gpu.Capability]uint32{
	gpu.DepthTest: gl.DEPTH_TEST,
	gpu.Blend:     gl.BLEND,
}

var blendFactors = map[gpu.BlendFactor]uint32{
	gpu.BlendZero: gl.ZERO,
	gpu.BlendOne:  gl.ONE,
}

func (d *Device) Enable(c gpu.Capability) { gl.Enable(capabilities[c]) }
func (d *Device) Disable(c gpu.Capability) { gl.Disable(capabilities[c]) }

func (d *Device) BlendFunc(src, dst gpu.BlendFactor) {
	gl.BlendFunc(blendFactors[src], blendFactors[dst])
}
