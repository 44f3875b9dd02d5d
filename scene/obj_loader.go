package scene

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	reMath "stereo-viewer/math"
)

// objRef is one face corner: 0-based position / UV / normal indices
// (-1 = absent).
type objRef struct{ v, vt, vn int }

// LoadOBJ parses a Wavefront .obj file into a single triangulated Mesh.
// Every object and group is merged; materials are ignored since the viewer
// takes its diffuse texture separately.
func LoadOBJ(path string) (*Mesh, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open obj %q: %w", path, err)
	}
	defer f.Close()
	return ParseOBJ(path, f)
}

// ParseOBJ reads OBJ text from r. Polygons are fan-triangulated and texture
// coordinates are flipped vertically.
func ParseOBJ(name string, r io.Reader) (*Mesh, error) {
	var (
		positions []reMath.Vec3
		normals   []reMath.Vec3
		uvs       []reMath.Vec2
		corners   []objRef
	)

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)

		switch fields[0] {
		case "v", "vn":
			if len(fields) < 4 {
				return nil, fmt.Errorf("line %d: %s needs 3 components", lineNo, fields[0])
			}
			v, err := parseFloats(fields[1:4])
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
			vec := reMath.NewVec3(v[0], v[1], v[2])
			if fields[0] == "v" {
				positions = append(positions, vec)
			} else {
				normals = append(normals, vec)
			}

		case "vt":
			if len(fields) < 3 {
				return nil, fmt.Errorf("line %d: vt needs 2 components", lineNo)
			}
			v, err := parseFloats(fields[1:3])
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
			uvs = append(uvs, reMath.NewVec2(v[0], v[1]))

		case "f":
			if len(fields) < 4 {
				return nil, fmt.Errorf("line %d: face needs at least 3 vertices", lineNo)
			}
			refs := make([]objRef, 0, len(fields)-1)
			for _, tok := range fields[1:] {
				ref, err := parseFaceVertex(tok, len(positions), len(uvs), len(normals))
				if err != nil {
					return nil, fmt.Errorf("line %d: %w", lineNo, err)
				}
				refs = append(refs, ref)
			}
			// Fan triangulation: 0-1-2, 0-2-3, 0-3-4, ...
			for i := 1; i+1 < len(refs); i++ {
				corners = append(corners, refs[0], refs[i], refs[i+1])
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan obj: %w", err)
	}
	if len(corners) == 0 {
		return nil, fmt.Errorf("no faces found in %q", name)
	}

	return buildMeshFromOBJ(name, corners, positions, normals, uvs)
}

func parseFloats(fields []string) ([]float32, error) {
	out := make([]float32, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 32)
		if err != nil {
			return nil, fmt.Errorf("bad number %q", f)
		}
		out[i] = float32(v)
	}
	return out, nil
}

// parseFaceVertex parses one face vertex token: "v", "v/vt", "v//vn" or
// "v/vt/vn". OBJ indices are 1-based; negative ones count back from the
// end of the pool read so far.
func parseFaceVertex(tok string, nv, nvt, nvn int) (objRef, error) {
	parseIdx := func(s string, n int) (int, error) {
		if s == "" {
			return -1, nil
		}
		i, err := strconv.Atoi(s)
		if err != nil {
			return 0, fmt.Errorf("bad index %q", s)
		}
		switch {
		case i > 0 && i <= n:
			return i - 1, nil
		case i < 0 && -i <= n:
			return n + i, nil
		}
		return 0, fmt.Errorf("index %d out of range (%d defined)", i, n)
	}

	parts := strings.Split(tok, "/")
	ref := objRef{v: -1, vt: -1, vn: -1}
	var err error
	if ref.v, err = parseIdx(parts[0], nv); err != nil {
		return ref, err
	}
	if ref.v < 0 {
		return ref, fmt.Errorf("face vertex %q has no position", tok)
	}
	if len(parts) > 1 {
		if ref.vt, err = parseIdx(parts[1], nvt); err != nil {
			return ref, err
		}
	}
	if len(parts) > 2 {
		if ref.vn, err = parseIdx(parts[2], nvn); err != nil {
			return ref, err
		}
	}
	return ref, nil
}

// buildMeshFromOBJ expands the corner list into flat per-vertex arrays.
func buildMeshFromOBJ(
	name string,
	corners []objRef,
	positions []reMath.Vec3,
	normals []reMath.Vec3,
	uvs []reMath.Vec2,
) (*Mesh, error) {
	outPos := make([]reMath.Vec3, len(corners))
	outUV := make([]reMath.Vec2, len(corners))
	var outNorm []reMath.Vec3

	hasNormals := true
	for _, c := range corners {
		if c.vn < 0 {
			hasNormals = false
			break
		}
	}
	if hasNormals {
		outNorm = make([]reMath.Vec3, len(corners))
	}

	for i, c := range corners {
		outPos[i] = positions[c.v]
		if c.vt >= 0 {
			outUV[i] = uvs[c.vt].FlipV()
		}
		if hasNormals {
			outNorm[i] = normals[c.vn]
		}
	}
	return NewMesh(name, outPos, outNorm, outUV)
}
