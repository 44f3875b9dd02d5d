package scene

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	reMath "stereo-viewer/math"
)

func TestCreateSphere(t *testing.T) {
	m := CreateSphere(2, 16, 8)
	require.Equal(t, 16*8*6, m.VertexCount())
	require.Len(t, m.Normals, m.VertexCount())
	require.Len(t, m.UVs, m.VertexCount())

	for i, p := range m.Positions {
		assert.InDelta(t, 2, p.Length(), 1e-4)
		assert.InDelta(t, 1, m.Normals[i].Length(), 1e-4)
	}
	assert.InDelta(t, 2, m.AvgDistToBarycentre(), 1e-3)
}

func TestCreateTorus(t *testing.T) {
	m := CreateTorus(1, 0.25, 24, 12)
	require.Equal(t, 24*12*6, m.VertexCount())
	for _, p := range m.Positions {
		ring := reMath.Vec3{X: p.X, Z: p.Z}.Length()
		assert.InDelta(t, 0.25, reMath.Vec3{X: ring - 1, Y: p.Y}.Length(), 1e-4)
	}
	assertVec3(t, reMath.Vec3Zero, m.Barycentre())
}

func TestCreatePlane(t *testing.T) {
	m := CreatePlane(4, 2, 0)
	require.Equal(t, 6, m.VertexCount(), "subdivisions are clamped to 1")
	for i, p := range m.Positions {
		assert.Zero(t, p.Y)
		assert.LessOrEqual(t, p.X*p.X, float32(4))
		assert.Equal(t, reMath.Vec3Up, m.Normals[i])
	}
}

func TestPrimitivesFit(t *testing.T) {
	m := CreateSphere(10, 8, 4)
	m.Fit(2)
	centre := m.Model.MulVec3(m.Barycentre())
	assertVec3(t, reMath.NewVec3(0, 0, -2), centre)
}

func TestNewCheckerTexture(t *testing.T) {
	black := color.RGBA{A: 255}
	white := color.RGBA{R: 255, G: 255, B: 255, A: 255}
	tex := NewCheckerTexture("checker", 16, white, black)

	require.Len(t, tex.Pixels, 16*16*3)
	px := func(x, y int) []byte { i := (y*16 + x) * 3; return tex.Pixels[i : i+3] }
	assert.Equal(t, []byte{255, 255, 255}, px(0, 0))
	assert.Equal(t, []byte{0, 0, 0}, px(2, 0))
	assert.Equal(t, []byte{255, 255, 255}, px(2, 2))
}
