package scene

import (
	"fmt"

	"github.com/chewxy/math32"

	reMath "stereo-viewer/math"
)

// Mesh holds CPU-side, already triangulated geometry: every three
// consecutive entries form one triangle. Positions, Normals and UVs always
// have the same length. UVs address textures stored top row first.
//
// GPU upload is handled by renderer.NewDrawable.
type Mesh struct {
	Name      string
	Positions []reMath.Vec3
	Normals   []reMath.Vec3
	UVs       []reMath.Vec2

	// Model is the object-to-world transform used by the geometry pass.
	Model reMath.Mat4
}

// NewMesh builds a mesh from non-indexed triangle data. Missing normals are
// generated per face and missing UVs default to zero.
func NewMesh(name string, positions, normals []reMath.Vec3, uvs []reMath.Vec2) (*Mesh, error) {
	n := len(positions)
	switch {
	case n == 0:
		return nil, fmt.Errorf("mesh %q: no vertices", name)
	case n%3 != 0:
		return nil, fmt.Errorf("mesh %q: %d vertices is not a triangle list", name, n)
	case len(normals) != 0 && len(normals) != n:
		return nil, fmt.Errorf("mesh %q: %d normals for %d vertices", name, len(normals), n)
	case len(uvs) != 0 && len(uvs) != n:
		return nil, fmt.Errorf("mesh %q: %d uvs for %d vertices", name, len(uvs), n)
	}

	if len(normals) == 0 {
		normals = faceNormals(positions)
	}
	if len(uvs) == 0 {
		uvs = make([]reMath.Vec2, n)
	}
	return &Mesh{
		Name:      name,
		Positions: positions,
		Normals:   normals,
		UVs:       uvs,
		Model:     reMath.Mat4Identity(),
	}, nil
}

// faceNormals gives every vertex the normal of the triangle it belongs to.
func faceNormals(positions []reMath.Vec3) []reMath.Vec3 {
	out := make([]reMath.Vec3, len(positions))
	for i := 0; i+2 < len(positions); i += 3 {
		v0, v1, v2 := positions[i], positions[i+1], positions[i+2]
		n := v1.Sub(v0).Cross(v2.Sub(v0)).Normalize()
		if n.LengthSqr() == 0 {
			n = reMath.Vec3Up
		}
		out[i], out[i+1], out[i+2] = n, n, n
	}
	return out
}

func (m *Mesh) VertexCount() int {
	return len(m.Positions)
}

// ── Flat buffers for upload ─────────────────────────────────────────────────

func (m *Mesh) PositionData() []float32 { return flattenVec3(m.Positions) }
func (m *Mesh) NormalData() []float32 { return flattenVec3(m.Normals) }

func (m *Mesh) UVData() []float32 {
	out := make([]float32, 0, len(m.UVs)*2)
	for _, uv := range m.UVs {
		out = append(out, uv.X, uv.Y)
	}
	return out
}

func flattenVec3(vs []reMath.Vec3) []float32 {
	out := make([]float32, 0, len(vs)*3)
	for _, v := range vs {
		out = append(out, v.X, v.Y, v.Z)
	}
	return out
}

// ── Statistics ──────────────────────────────────────────────────────────────

// Barycentre returns the mean of all vertex positions.
func (m *Mesh) Barycentre() reMath.Vec3 {
	if len(m.Positions) == 0 {
		return reMath.Vec3Zero
	}
	var sum reMath.Vec3
	for _, p := range m.Positions {
		sum = sum.Add(p)
	}
	return sum.Div(float32(len(m.Positions)))
}

// AvgDistToBarycentre returns the mean distance of the vertices to the
// barycentre.
func (m *Mesh) AvgDistToBarycentre() float32 {
	if len(m.Positions) == 0 {
		return 0
	}
	b := m.Barycentre()
	var sum float32
	for _, p := range m.Positions {
		sum += p.Distance(b)
	}
	return sum / float32(len(m.Positions))
}

// StandardDeviation returns the standard deviation of the vertex distances
// to the barycentre.
func (m *Mesh) StandardDeviation() float32 {
	if len(m.Positions) == 0 {
		return 0
	}
	b := m.Barycentre()
	avg := m.AvgDistToBarycentre()
	var sum float32
	for _, p := range m.Positions {
		d := p.Distance(b) - avg
		sum += d * d
	}
	return math32.Sqrt(sum / float32(len(m.Positions)))
}

// Fit places the mesh in front of a viewer looking at a screen dc away: its
// barycentre lands on (0, 0, -dc), it is scaled so the average vertex
// distance to the barycentre is 2dc/3, and it is turned 90° about Y.
// Fit replaces Model.
func (m *Mesh) Fit(dc float32) {
	avg := m.AvgDistToBarycentre()
	scale := float32(1)
	if avg > 0 {
		scale = dc * (2.0 / 3.0) / avg
	}
	m.Model = reMath.Mat4Translation(reMath.NewVec3(0, 0, -dc)).
		Mul(reMath.Mat4Scale(reMath.NewVec3(scale, scale, scale))).
		Mul(reMath.Mat4RotationY(math32.Pi / 2)).
		Mul(reMath.Mat4Translation(m.Barycentre().Negate()))
}

// ScreenQuad returns the two-triangle quad covering clip space, used by the
// full-screen passes. UVs span [0,1]².
func ScreenQuad() *Mesh {
	p := []reMath.Vec3{
		{X: -1, Y: -1}, {X: 1, Y: -1}, {X: 1, Y: 1},
		{X: -1, Y: -1}, {X: 1, Y: 1}, {X: -1, Y: 1},
	}
	uv := []reMath.Vec2{
		{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1},
		{X: 0, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1},
	}
	n := make([]reMath.Vec3, len(p))
	for i := range n {
		n[i] = reMath.Vec3Front
	}
	return &Mesh{Name: "screen-quad", Positions: p, Normals: n, UVs: uv, Model: reMath.Mat4Identity()}
}
