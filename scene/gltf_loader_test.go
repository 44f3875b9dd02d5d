package scene

import (
	"path/filepath"
	"testing"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	reMath "stereo-viewer/math"
)

var quadCorners = [][3]float32{{-1, -1, 0}, {1, -1, 0}, {1, 1, 0}, {-1, 1, 0}}

func addPrimitive(doc *gltf.Document, prim *gltf.Primitive) {
	if len(doc.Meshes) == 0 {
		doc.Meshes = append(doc.Meshes, &gltf.Mesh{Name: "test"})
	}
	doc.Meshes[0].Primitives = append(doc.Meshes[0].Primitives, prim)
}

// indexedQuad adds a two-triangle quad with +Y normals, which deliberately
// disagree with the +Z face normal.
func indexedQuad(doc *gltf.Document, indices []uint16) {
	normals := make([][3]float32, len(quadCorners))
	for i := range normals {
		normals[i] = [3]float32{0, 1, 0}
	}
	addPrimitive(doc, &gltf.Primitive{
		Indices: gltf.Index(modeler.WriteIndices(doc, indices)),
		Attributes: gltf.PrimitiveAttributes{
			"POSITION":   modeler.WritePosition(doc, quadCorners),
			"NORMAL":     modeler.WriteNormal(doc, normals),
			"TEXCOORD_0": modeler.WriteTextureCoord(doc, [][2]float32{{0, 1}, {1, 1}, {1, 0}, {0, 0}}),
		},
	})
}

func plainTriangle(doc *gltf.Document) {
	addPrimitive(doc, &gltf.Primitive{
		Attributes: gltf.PrimitiveAttributes{
			"POSITION": modeler.WritePosition(doc, [][3]float32{{0, 0, 2}, {1, 0, 2}, {0, 1, 2}}),
		},
	})
}

func saveGLTF(t *testing.T, doc *gltf.Document, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if filepath.Ext(name) == ".glb" {
		require.NoError(t, gltf.SaveBinary(doc, path))
	} else {
		require.NoError(t, gltf.Save(doc, path))
	}
	return path
}

func TestLoadGLTFIndexed(t *testing.T) {
	for _, name := range []string{"quad.gltf", "quad.glb"} {
		t.Run(name, func(t *testing.T) {
			doc := gltf.NewDocument()
			indexedQuad(doc, []uint16{0, 1, 2, 0, 2, 3})

			m, err := LoadMesh(saveGLTF(t, doc, name))
			require.NoError(t, err)
			require.Len(t, m.Positions, 6)
			assertVec3(t, reMath.NewVec3(1, 1, 0), m.Positions[2])
			assertVec3(t, reMath.NewVec3(-1, 1, 0), m.Positions[5])
			for _, n := range m.Normals {
				assertVec3(t, reMath.Vec3Up, n)
			}
			assert.Equal(t, reMath.NewVec2(1, 0), m.UVs[2])
		})
	}
}

func TestLoadGLTFNonIndexed(t *testing.T) {
	doc := gltf.NewDocument()
	plainTriangle(doc)

	m, err := LoadMesh(saveGLTF(t, doc, "tri.gltf"))
	require.NoError(t, err)
	require.Len(t, m.Positions, 3)
	assertVec3(t, reMath.NewVec3(1, 0, 2), m.Positions[1])
	for _, n := range m.Normals {
		assertVec3(t, reMath.Vec3Front, n)
	}
	assert.Equal(t, reMath.Vec2{}, m.UVs[0])
}

func TestLoadGLTFMixedNormalsUsesFaceNormals(t *testing.T) {
	doc := gltf.NewDocument()
	indexedQuad(doc, []uint16{0, 1, 2, 0, 2, 3})
	plainTriangle(doc)

	m, err := LoadMesh(saveGLTF(t, doc, "mixed.glb"))
	require.NoError(t, err)
	require.Len(t, m.Positions, 9)
	// The quad's stored +Y normals are dropped along with the missing ones.
	for _, n := range m.Normals {
		assertVec3(t, reMath.Vec3Front, n)
	}
}

func TestLoadGLTFIndexOutOfRange(t *testing.T) {
	doc := gltf.NewDocument()
	indexedQuad(doc, []uint16{0, 1, 2, 0, 2, 9})

	_, err := LoadMesh(saveGLTF(t, doc, "broken.gltf"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMeshParse)
	assert.ErrorContains(t, err, "index 9 out of range")
}
