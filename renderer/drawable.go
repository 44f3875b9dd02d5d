package renderer

import (
	"fmt"

	"stereo-viewer/gpu"
	reMath "stereo-viewer/math"
	"stereo-viewer/scene"
)

// Attribute locations shared by every vertex shader.
const (
	attribPosition = 0
	attribNormal   = 1
	attribUV       = 2
)

// Drawable is a mesh resident on the GPU: one vertex array with position,
// normal and UV buffers, plus an optional diffuse texture.
type Drawable struct {
	dev         gpu.Device
	vao         gpu.VertexArray
	buffers     [3]gpu.Buffer
	vertexCount int
	model       reMath.Mat4
	texture     gpu.Texture
}

// NewDrawable uploads mesh and, when tex is non-nil, its RGB texture.
func NewDrawable(dev gpu.Device, mesh *scene.Mesh, tex *scene.Texture) (*Drawable, error) {
	if mesh == nil || mesh.VertexCount() == 0 {
		return nil, fmt.Errorf("drawable: empty mesh")
	}

	d := &Drawable{
		dev:         dev,
		vertexCount: mesh.VertexCount(),
		model:       mesh.Model,
	}
	if tex != nil {
		if len(tex.Pixels) != tex.Width*tex.Height*3 {
			return nil, fmt.Errorf("texture %q: %d bytes for %dx%d RGB", tex.Name, len(tex.Pixels), tex.Width, tex.Height)
		}
		t, err := dev.CreateTexture(gpu.TextureDesc{
			Width:  tex.Width,
			Height: tex.Height,
			Format: gpu.FormatRGB8,
			Filter: gpu.FilterMipmap,
			Wrap:   gpu.WrapRepeat,
			Pixels: tex.Pixels,
		})
		if err != nil {
			return nil, fmt.Errorf("upload texture %q: %w", tex.Name, err)
		}
		d.texture = t
	}

	d.vao = dev.CreateVertexArray()
	dev.BindVertexArray(d.vao)
	d.buffers[0] = dev.CreateBuffer(attribPosition, 3, mesh.PositionData())
	d.buffers[1] = dev.CreateBuffer(attribNormal, 3, mesh.NormalData())
	d.buffers[2] = dev.CreateBuffer(attribUV, 2, mesh.UVData())
	dev.BindVertexArray(0)
	return d, nil
}

// NewScreenQuad uploads the full-screen quad used by every screen-space
// pass.
func NewScreenQuad(dev gpu.Device) (*Drawable, error) {
	return NewDrawable(dev, scene.ScreenQuad(), nil)
}

func (d *Drawable) Model() reMath.Mat4 { return d.model }
func (d *Drawable) SetModel(m reMath.Mat4) { d.model = m }
func (d *Drawable) VertexCount() int { return d.vertexCount }

// Texture returns the diffuse texture, zero when there is none.
func (d *Drawable) Texture() gpu.Texture { return d.texture }

// Draw binds the vertex array and issues the draw call. Program, uniforms
// and textures must already be set.
func (d *Drawable) Draw() {
	d.dev.BindVertexArray(d.vao)
	d.dev.DrawTriangles(d.vertexCount)
	d.dev.BindVertexArray(0)
}

// Destroy releases all GPU objects. It is safe to call more than once.
func (d *Drawable) Destroy() {
	if d == nil {
		return
	}
	for i, b := range d.buffers {
		if b != 0 {
			d.dev.DeleteBuffer(b)
			d.buffers[i] = 0
		}
	}
	if d.vao != 0 {
		d.dev.DeleteVertexArray(d.vao)
		d.vao = 0
	}
	if d.texture != 0 {
		d.dev.DeleteTexture(d.texture)
		d.texture = 0
	}
}
