package main

import "stereo-viewer/assets"

// selection tracks the current model and texture by catalog name.
type selection struct {
	catalog *assets.Catalog
	model   string
	texture string
}

// newSelection starts from the configured names, falling back to the
// first catalog model.
func newSelection(catalog *assets.Catalog, model, texture string) *selection {
	s := &selection{catalog: catalog, model: model, texture: texture}
	if s.model == "" {
		if models := catalog.Models(); len(models) > 0 {
			s.model = models[0].Name
		}
	}
	return s
}

// paths resolves the selection. A texture that is not in the catalog is
// dropped; a missing model means there is nothing to load.
func (s *selection) paths() (model, texture string, ok bool) {
	m, ok := s.catalog.Find(assets.KindModel, s.model)
	if !ok {
		return "", "", false
	}
	if t, found := s.catalog.Find(assets.KindTexture, s.texture); found {
		texture = t.Path
	}
	return m.Path, texture, true
}

// next advances to the following entry of kind, wrapping around.
func (s *selection) next(kind assets.Kind) {
	list := s.catalog.Models()
	cur := &s.model
	if kind == assets.KindTexture {
		list = s.catalog.Textures()
		cur = &s.texture
	}
	if len(list) == 0 {
		return
	}
	i := 0
	for j, e := range list {
		if e.Name == *cur {
			i = (j + 1) % len(list)
			break
		}
	}
	*cur = list[i].Name
}
