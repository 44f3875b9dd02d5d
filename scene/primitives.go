package scene

import (
	"github.com/chewxy/math32"

	reMath "stereo-viewer/math"
)

// gridVertex describes one vertex of a parametric (u, v) grid.
type gridVertex struct {
	position reMath.Vec3
	normal   reMath.Vec3
	uv       reMath.Vec2
}

// meshFromGrid triangulates a (cols+1)×(rows+1) vertex grid into a
// non-indexed triangle list, two triangles per cell.
func meshFromGrid(name string, cols, rows int, at func(col, row int) gridVertex) *Mesh {
	grid := make([]gridVertex, 0, (cols+1)*(rows+1))
	for row := 0; row <= rows; row++ {
		for col := 0; col <= cols; col++ {
			grid = append(grid, at(col, row))
		}
	}

	n := cols * rows * 6
	m := &Mesh{
		Name:      name,
		Positions: make([]reMath.Vec3, 0, n),
		Normals:   make([]reMath.Vec3, 0, n),
		UVs:       make([]reMath.Vec2, 0, n),
		Model:     reMath.Mat4Identity(),
	}
	for row := 0; row < rows; row++ {
		for col := 0; col < cols; col++ {
			current := row*(cols+1) + col
			next := current + cols + 1
			for _, i := range [6]int{current, next, current + 1, current + 1, next, next + 1} {
				v := grid[i]
				m.Positions = append(m.Positions, v.position)
				m.Normals = append(m.Normals, v.normal)
				m.UVs = append(m.UVs, v.uv)
			}
		}
	}
	return m
}

// CreateSphere generates a UV-sphere centred on the origin.
func CreateSphere(radius float32, segments, rings int) *Mesh {
	segments = max(segments, 3)
	rings = max(rings, 2)

	return meshFromGrid("Sphere", segments, rings, func(seg, ring int) gridVertex {
		phi := float32(ring) * math32.Pi / float32(rings)
		theta := float32(seg) * 2 * math32.Pi / float32(segments)
		normal := reMath.Vec3{
			X: math32.Sin(phi) * math32.Cos(theta),
			Y: math32.Cos(phi),
			Z: math32.Sin(phi) * math32.Sin(theta),
		}
		return gridVertex{
			position: normal.Mul(radius),
			normal:   normal,
			uv:       reMath.Vec2{X: float32(seg) / float32(segments), Y: float32(ring) / float32(rings)},
		}
	})
}

// CreateTorus generates a torus around the Y axis.
func CreateTorus(majorRadius, minorRadius float32, majorSegments, minorSegments int) *Mesh {
	majorSegments = max(majorSegments, 3)
	minorSegments = max(minorSegments, 3)

	return meshFromGrid("Torus", minorSegments, majorSegments, func(j, i int) gridVertex {
		theta := float32(i) * 2 * math32.Pi / float32(majorSegments)
		phi := float32(j) * 2 * math32.Pi / float32(minorSegments)
		cosTheta, sinTheta := math32.Cos(theta), math32.Sin(theta)
		cosPhi, sinPhi := math32.Cos(phi), math32.Sin(phi)

		return gridVertex{
			position: reMath.Vec3{
				X: (majorRadius + minorRadius*cosPhi) * cosTheta,
				Y: minorRadius * sinPhi,
				Z: (majorRadius + minorRadius*cosPhi) * sinTheta,
			},
			normal: reMath.Vec3{X: cosPhi * cosTheta, Y: sinPhi, Z: cosPhi * sinTheta}.Normalize(),
			uv:     reMath.Vec2{X: float32(i) / float32(majorSegments), Y: float32(j) / float32(minorSegments)},
		}
	})
}

// CreatePlane generates a flat XZ plane facing +Y.
func CreatePlane(width, depth float32, subdivisions int) *Mesh {
	subdivisions = max(subdivisions, 1)

	return meshFromGrid("Plane", subdivisions, subdivisions, func(x, z int) gridVertex {
		u := float32(x) / float32(subdivisions)
		v := float32(z) / float32(subdivisions)
		return gridVertex{
			position: reMath.Vec3{X: (u - 0.5) * width, Z: (v - 0.5) * depth},
			normal:   reMath.Vec3Up,
			uv:       reMath.Vec2{X: u, Y: v},
		}
	})
}
