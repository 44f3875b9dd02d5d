// Package assets lists the model and texture files available to the viewer
// and decodes them off the render goroutine.
package assets

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/h2non/filetype"

	"stereo-viewer/scene"
)

// Kind says which directory an entry came from.
type Kind int

const (
	KindModel Kind = iota
	KindTexture
)

func (k Kind) String() string {
	if k == KindModel {
		return "model"
	}
	return "texture"
}

// Entry is one loadable file.
type Entry struct {
	Name string // file name, the sort key
	Path string
	Kind Kind
	// MIME is the sniffed content type; empty for models, which have no
	// magic numbers filetype knows about.
	MIME string
}

// sniffLen covers every image header filetype inspects.
const sniffLen = 261

// textureTypes are the sniffed extensions scene.LoadTexture can decode.
var textureTypes = map[string]bool{
	"png": true, "jpg": true, "gif": true, "bmp": true, "tif": true,
}

// Catalog holds sorted snapshots of the model and texture directories.
// Snapshots are replaced atomically; readers never see a partial listing.
type Catalog struct {
	modelsDir   string
	texturesDir string
	log         *slog.Logger

	mu       sync.RWMutex
	models   []Entry
	textures []Entry

	watcher *fsnotify.Watcher
	done    chan struct{}
	wg      sync.WaitGroup
	changed chan struct{}
}

// NewCatalog scans both directories once. A missing directory yields an
// empty listing rather than an error.
func NewCatalog(modelsDir, texturesDir string, log *slog.Logger) (*Catalog, error) {
	if log == nil {
		log = slog.Default()
	}
	c := &Catalog{
		modelsDir:   modelsDir,
		texturesDir: texturesDir,
		log:         log,
		changed:     make(chan struct{}, 1),
	}
	if err := c.Refresh(); err != nil {
		return nil, err
	}
	return c, nil
}

// Refresh rescans both directories and publishes new snapshots.
func (c *Catalog) Refresh() error {
	models, err := c.scan(c.modelsDir, KindModel)
	if err != nil {
		return err
	}
	textures, err := c.scan(c.texturesDir, KindTexture)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.models, c.textures = models, textures
	c.mu.Unlock()
	c.log.Debug("asset catalog refreshed", "models", len(models), "textures", len(textures))
	return nil
}

func (c *Catalog) scan(dir string, kind Kind) ([]Entry, error) {
	if dir == "" {
		return nil, nil
	}
	dirEntries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		c.log.Warn("asset directory missing", "kind", kind, "dir", dir)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list %s directory: %w", kind, err)
	}

	var out []Entry
	for _, de := range dirEntries {
		if de.IsDir() || strings.HasPrefix(de.Name(), ".") {
			continue
		}
		path := filepath.Join(dir, de.Name())
		e, ok := c.classify(path, kind)
		if ok {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (c *Catalog) classify(path string, kind Kind) (Entry, bool) {
	e := Entry{Name: filepath.Base(path), Path: path, Kind: kind}
	if kind == KindModel {
		return e, scene.IsMeshExt(filepath.Ext(path))
	}

	mime, err := sniffImage(path)
	if err != nil {
		c.log.Debug("skipping texture", "path", path, "err", err)
		return e, false
	}
	e.MIME = mime
	return e, true
}

// sniffImage reads the file header and accepts only decodable images.
func sniffImage(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
		return "", err
	}
	kind, err := filetype.Match(head[:n])
	if err != nil {
		return "", err
	}
	if kind == filetype.Unknown || !textureTypes[kind.Extension] {
		return "", fmt.Errorf("unsupported content %q", kind.MIME.Value)
	}
	return kind.MIME.Value, nil
}

// ── Snapshots ───────────────────────────────────────────────────────────────

func (c *Catalog) Models() []Entry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]Entry(nil), c.models...)
}

func (c *Catalog) Textures() []Entry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]Entry(nil), c.textures...)
}

// Find looks an entry up by file name.
func (c *Catalog) Find(kind Kind, name string) (Entry, bool) {
	list := c.Models()
	if kind == KindTexture {
		list = c.Textures()
	}
	i := sort.Search(len(list), func(i int) bool { return list[i].Name >= name })
	if i < len(list) && list[i].Name == name {
		return list[i], true
	}
	return Entry{}, false
}

// ── Watching ────────────────────────────────────────────────────────────────

// Changed receives a value after a watch-triggered refresh. Bursts of
// events coalesce into one notification.
func (c *Catalog) Changed() <-chan struct{} { return c.changed }

// Watch refreshes the catalog whenever a file is created, removed, renamed
// or written in either directory. Directories that do not exist are not
// watched.
func (c *Catalog) Watch() error {
	if c.watcher != nil {
		return nil
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("asset watcher: %w", err)
	}
	for _, dir := range []string{c.modelsDir, c.texturesDir} {
		if dir == "" {
			continue
		}
		if err := w.Add(dir); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			w.Close()
			return fmt.Errorf("watch %q: %w", dir, err)
		}
	}

	c.watcher = w
	c.done = make(chan struct{})
	c.wg.Add(1)
	go c.watch(w, c.done)
	return nil
}

func (c *Catalog) watch(w *fsnotify.Watcher, done <-chan struct{}) {
	defer c.wg.Done()
	for {
		select {
		case <-done:
			return
		case event, ok := <-w.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Remove) &&
				!event.Has(fsnotify.Rename) && !event.Has(fsnotify.Write) {
				continue
			}
			if err := c.Refresh(); err != nil {
				c.log.Warn("asset catalog refresh failed", "err", err)
				continue
			}
			select {
			case c.changed <- struct{}{}:
			default:
			}
		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			c.log.Warn("asset watcher error", "err", err)
		}
	}
}

// Close stops watching. It is safe to call on an unwatched catalog.
func (c *Catalog) Close() error {
	if c.watcher == nil {
		return nil
	}
	close(c.done)
	err := c.watcher.Close()
	c.wg.Wait()
	c.watcher = nil
	return err
}
