package renderer

import (
	"errors"
	"fmt"

	"stereo-viewer/gpu"
)

// ErrFramebufferIncomplete matches every framebuffer construction failure.
var ErrFramebufferIncomplete = errors.New("framebuffer incomplete")

// FramebufferError reports a framebuffer that failed its completeness check
// or could not allocate an attachment.
type FramebufferError struct {
	ColorCount    int
	Width, Height int
	// Status is the raw completeness status, zero when an attachment could
	// not be allocated.
	Status uint32
	Err    error
}

func (e *FramebufferError) Error() string {
	msg := fmt.Sprintf("framebuffer %d×%d with %d colour attachments: status=0x%X",
		e.Width, e.Height, e.ColorCount, e.Status)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *FramebufferError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrFramebufferIncomplete}
	}
	return []error{ErrFramebufferIncomplete, e.Err}
}

// Framebuffer is an off-screen target: N RGBA32F colour textures and one
// 24-bit depth texture, all sized width×height.
type Framebuffer struct {
	dev    gpu.Device
	id     gpu.Framebuffer
	colors []gpu.Texture
	depth  gpu.Texture
	width  int
	height int
}

// NewFramebuffer allocates and attaches the textures and validates
// completeness. On failure everything allocated so far is released.
func NewFramebuffer(dev gpu.Device, colorCount, width, height int) (*Framebuffer, error) {
	fail := func(fb *Framebuffer, status uint32, err error) (*Framebuffer, error) {
		fb.Destroy()
		return nil, &FramebufferError{
			ColorCount: colorCount,
			Width:      width,
			Height:     height,
			Status:     status,
			Err:        err,
		}
	}

	fb := &Framebuffer{dev: dev, width: width, height: height}
	if colorCount < 1 || width <= 0 || height <= 0 {
		return fail(fb, 0, fmt.Errorf("invalid dimensions"))
	}

	fb.id = dev.CreateFramebuffer()
	for i := 0; i < colorCount; i++ {
		tex, err := dev.CreateTexture(gpu.TextureDesc{
			Width:  width,
			Height: height,
			Format: gpu.FormatRGBA32F,
			Filter: gpu.FilterNearest,
			Wrap:   gpu.WrapClamp,
		})
		if err != nil {
			return fail(fb, 0, fmt.Errorf("colour attachment %d: %w", i, err))
		}
		fb.colors = append(fb.colors, tex)
		dev.AttachColor(fb.id, i, tex)
	}

	depth, err := dev.CreateTexture(gpu.TextureDesc{
		Width:  width,
		Height: height,
		Format: gpu.FormatDepth24,
		Filter: gpu.FilterNearest,
		Wrap:   gpu.WrapClamp,
	})
	if err != nil {
		return fail(fb, 0, fmt.Errorf("depth attachment: %w", err))
	}
	fb.depth = depth
	dev.AttachDepth(fb.id, depth)

	if ok, status := dev.CheckFramebuffer(fb.id); !ok {
		return fail(fb, status, nil)
	}
	dev.BindFramebuffer(gpu.Screen)
	return fb, nil
}

func (fb *Framebuffer) ID() gpu.Framebuffer { return fb.id }
func (fb *Framebuffer) DepthTexture() gpu.Texture { return fb.depth }
func (fb *Framebuffer) Width() int { return fb.width }
func (fb *Framebuffer) Height() int { return fb.height }

// ColorTextures returns a copy of the colour attachment handles.
func (fb *Framebuffer) ColorTextures() []gpu.Texture {
	return append([]gpu.Texture(nil), fb.colors...)
}

// ColorTexture returns attachment i.
func (fb *Framebuffer) ColorTexture(i int) gpu.Texture { return fb.colors[i] }

// DrawBuffers returns the number of colour outputs routed by Bind.
func (fb *Framebuffer) DrawBuffers() int { return len(fb.colors) }

// Bind makes fb the render target, routes all colour outputs and sets a
// full-size viewport.
func (fb *Framebuffer) Bind() {
	fb.dev.BindFramebuffer(fb.id)
	fb.dev.DrawBuffers(len(fb.colors))
	fb.dev.SetViewport(gpu.Viewport{Width: fb.width, Height: fb.height})
}

// Destroy releases the framebuffer and its textures. It is safe to call
// more than once.
func (fb *Framebuffer) Destroy() {
	if fb == nil {
		return
	}
	for _, t := range fb.colors {
		fb.dev.DeleteTexture(t)
	}
	fb.colors = nil
	if fb.depth != 0 {
		fb.dev.DeleteTexture(fb.depth)
		fb.depth = 0
	}
	if fb.id != 0 {
		fb.dev.DeleteFramebuffer(fb.id)
		fb.id = 0
	}
}
