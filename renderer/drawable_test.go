package renderer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stereo-viewer/gpu"
	"stereo-viewer/gpu/gputest"
	reMath "stereo-viewer/math"
	"stereo-viewer/scene"
)

func TestNewDrawableUploads(t *testing.T) {
	dev := gputest.New()
	mesh := scene.ScreenQuad()
	mesh.Model = reMath.Mat4Translation(reMath.NewVec3(0, 0, -2))
	tex := scene.NewSolidTexture("grey", 128, 128, 128)

	d, err := NewDrawable(dev, mesh, tex)
	require.NoError(t, err)
	assert.Equal(t, 6, d.VertexCount())
	assert.Equal(t, mesh.Model, d.Model())

	desc := dev.TextureDesc(d.Texture())
	assert.Equal(t, gpu.FormatRGB8, desc.Format)
	assert.Equal(t, gpu.FilterMipmap, desc.Filter)
	assert.Equal(t, gpu.WrapRepeat, desc.Wrap)
	assert.Equal(t, tex.Pixels, desc.Pixels)

	var buffers []gputest.Call
	for _, c := range dev.Calls() {
		if c.Op == "CreateBuffer" {
			buffers = append(buffers, c)
		}
	}
	require.Len(t, buffers, 3)
	assert.Equal(t, []any{attribPosition, 3, 18}, buffers[0].Args[:3])
	assert.Equal(t, []any{attribNormal, 3, 18}, buffers[1].Args[:3])
	assert.Equal(t, []any{attribUV, 2, 12}, buffers[2].Args[:3])

	dev.Reset()
	d.Draw()
	require.Len(t, dev.Draws(), 1)
	assert.Equal(t, 6, dev.Draws()[0].VertexCount)

	d.Destroy()
	d.Destroy()
	assert.Zero(t, dev.Live(""))
	assert.Empty(t, dev.DoubleFrees())
}

func TestNewDrawableWithoutTexture(t *testing.T) {
	dev := gputest.New()
	d, err := NewScreenQuad(dev)
	require.NoError(t, err)
	assert.Zero(t, d.Texture())
	assert.Zero(t, dev.Live("texture"))
}

func TestNewDrawableRejectsBadInput(t *testing.T) {
	dev := gputest.New()

	_, err := NewDrawable(dev, nil, nil)
	assert.Error(t, err)

	bad := &scene.Texture{Name: "short", Width: 2, Height: 2, Pixels: make([]byte, 5)}
	_, err = NewDrawable(dev, scene.ScreenQuad(), bad)
	assert.Error(t, err)

	dev.FailTextures = true
	_, err = NewDrawable(dev, scene.ScreenQuad(), scene.NewSolidTexture("w", 1, 1, 1))
	assert.ErrorIs(t, err, gputest.ErrInjected)
	assert.Zero(t, dev.Live(""))
}
