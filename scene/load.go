package scene

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

var (
	// ErrMeshNotFound matches errors for mesh files that do not exist.
	ErrMeshNotFound = errors.New("mesh not found")
	// ErrMeshParse matches errors for mesh files that exist but cannot be
	// decoded into triangles.
	ErrMeshParse = errors.New("mesh parse failed")
)

// MeshLoadError reports why LoadMesh failed. Kind is ErrMeshNotFound or
// ErrMeshParse; errors.Is matches both Kind and the underlying cause.
type MeshLoadError struct {
	Path string
	Kind error
	Err  error
}

func (e *MeshLoadError) Error() string {
	return fmt.Sprintf("load mesh %q: %v: %v", e.Path, e.Kind, e.Err)
}

func (e *MeshLoadError) Unwrap() []error {
	return []error{e.Kind, e.Err}
}

// LoadMesh loads a triangulated mesh from path, choosing the decoder from
// the file extension (.obj, .gltf, .glb). All sub-meshes are merged.
func LoadMesh(path string) (*Mesh, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &MeshLoadError{Path: path, Kind: ErrMeshNotFound, Err: err}
		}
		return nil, fmt.Errorf("stat mesh %q: %w", path, err)
	}

	var (
		m   *Mesh
		err error
	)
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".obj":
		m, err = LoadOBJ(path)
	case ".gltf", ".glb":
		m, err = LoadGLTF(path)
	default:
		err = fmt.Errorf("unsupported format %q", ext)
	}
	var pathErr *fs.PathError
	switch {
	case err == nil:
		return m, nil
	case errors.As(err, &pathErr):
		// I/O failure after the stat; the caller may retry.
		return nil, fmt.Errorf("read mesh %q: %w", path, err)
	default:
		return nil, &MeshLoadError{Path: path, Kind: ErrMeshParse, Err: err}
	}
}

// IsMeshExt reports whether LoadMesh can decode files with this extension.
func IsMeshExt(ext string) bool {
	switch strings.ToLower(ext) {
	case ".obj", ".gltf", ".glb":
		return true
	}
	return false
}
