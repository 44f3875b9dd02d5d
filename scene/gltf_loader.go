package scene

import (
	"fmt"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	reMath "stereo-viewer/math"
)

// LoadGLTF opens a .glb or .gltf file and merges every triangle primitive
// of every mesh into one Mesh. Node transforms are not applied; Fit is
// expected to place the result.
func LoadGLTF(path string) (*Mesh, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("gltf open %q: %w", path, err)
	}
	return meshFromGLTF(path, doc)
}

func meshFromGLTF(name string, doc *gltf.Document) (*Mesh, error) {
	var (
		positions []reMath.Vec3
		normals   []reMath.Vec3
		uvs       []reMath.Vec2
	)
	allNormals := true

	for mi, gm := range doc.Meshes {
		for pi, prim := range gm.Primitives {
			if prim.Mode != gltf.PrimitiveTriangles {
				continue
			}
			p, n, uv, err := loadGLTFPrimitive(doc, prim)
			if err != nil {
				return nil, fmt.Errorf("mesh %d prim %d: %w", mi, pi, err)
			}
			positions = append(positions, p...)
			uvs = append(uvs, uv...)
			if n == nil {
				allNormals = false
			}
			normals = append(normals, n...)
		}
	}
	if len(positions) == 0 {
		return nil, fmt.Errorf("no triangle geometry in %q", name)
	}
	if !allNormals {
		normals = nil
	}
	return NewMesh(name, positions, normals, uvs)
}

// loadGLTFPrimitive returns de-indexed positions, normals (nil when the
// primitive has none) and UVs. glTF already puts the UV origin at the top
// left, which is how textures are uploaded, so no flip is needed.
func loadGLTFPrimitive(doc *gltf.Document, prim *gltf.Primitive) ([]reMath.Vec3, []reMath.Vec3, []reMath.Vec2, error) {
	posIdx, ok := prim.Attributes["POSITION"]
	if !ok {
		return nil, nil, nil, fmt.Errorf("no POSITION attribute")
	}
	rawPos, err := modeler.ReadPosition(doc, doc.Accessors[posIdx], nil)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("positions: %w", err)
	}

	var rawNorm [][3]float32
	var rawUV [][2]float32
	if idx, ok := prim.Attributes["NORMAL"]; ok {
		if rawNorm, err = modeler.ReadNormal(doc, doc.Accessors[idx], nil); err != nil {
			return nil, nil, nil, fmt.Errorf("normals: %w", err)
		}
	}
	if idx, ok := prim.Attributes["TEXCOORD_0"]; ok {
		if rawUV, err = modeler.ReadTextureCoord(doc, doc.Accessors[idx], nil); err != nil {
			return nil, nil, nil, fmt.Errorf("uvs: %w", err)
		}
	}

	var indices []uint32
	if prim.Indices != nil {
		indices, err = modeler.ReadIndices(doc, doc.Accessors[*prim.Indices], nil)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("indices: %w", err)
		}
	} else {
		indices = make([]uint32, len(rawPos))
		for i := range indices {
			indices[i] = uint32(i)
		}
	}
	if len(indices)%3 != 0 {
		return nil, nil, nil, fmt.Errorf("%d indices is not a triangle list", len(indices))
	}

	positions := make([]reMath.Vec3, len(indices))
	uvs := make([]reMath.Vec2, len(indices))
	var normals []reMath.Vec3
	if len(rawNorm) == len(rawPos) {
		normals = make([]reMath.Vec3, len(indices))
	}
	for i, ix := range indices {
		if int(ix) >= len(rawPos) {
			return nil, nil, nil, fmt.Errorf("index %d out of range", ix)
		}
		p := rawPos[ix]
		positions[i] = reMath.NewVec3(p[0], p[1], p[2])
		if normals != nil {
			n := rawNorm[ix]
			normals[i] = reMath.NewVec3(n[0], n[1], n[2])
		}
		if int(ix) < len(rawUV) {
			uvs[i] = reMath.NewVec2(rawUV[ix][0], rawUV[ix][1])
		}
	}
	return positions, normals, uvs, nil
}
