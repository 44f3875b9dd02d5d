package assets

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/sync/errgroup"

	"stereo-viewer/scene"
)

// Result is one finished load, delivered on Loader.Results.
type Result struct {
	Model       string
	TexturePath string
	Mesh        *scene.Mesh
	Texture     *scene.Texture // nil when no texture was requested
	Err         error
}

// LoaderOptions configure NewLoader. Zero values pick the defaults.
type LoaderOptions struct {
	// Dc, when positive, places each loaded mesh with Mesh.Fit(Dc).
	Dc float32
	// MaxRetries bounds the retries of a transient read failure.
	MaxRetries uint64
	// InitialInterval is the first backoff delay.
	InitialInterval time.Duration
	Logger          *slog.Logger
}

const (
	defaultMaxRetries      = 3
	defaultInitialInterval = 50 * time.Millisecond
)

// Loader decodes meshes and textures on worker goroutines. It never
// touches the GPU; the render goroutine uploads what arrives on Results.
type Loader struct {
	dc         float32
	maxRetries uint64
	interval   time.Duration
	log        *slog.Logger

	loadMesh    func(string) (*scene.Mesh, error)
	loadTexture func(string) (*scene.Texture, error)

	results chan Result
	wg      sync.WaitGroup
}

func NewLoader(opts LoaderOptions) *Loader {
	l := &Loader{
		dc:          opts.Dc,
		maxRetries:  opts.MaxRetries,
		interval:    opts.InitialInterval,
		log:         opts.Logger,
		loadMesh:    scene.LoadMesh,
		loadTexture: scene.LoadTexture,
		results:     make(chan Result, 4),
	}
	if l.maxRetries == 0 {
		l.maxRetries = defaultMaxRetries
	}
	if l.interval <= 0 {
		l.interval = defaultInitialInterval
	}
	if l.log == nil {
		l.log = slog.Default()
	}
	return l
}

// Load decodes model and, if texturePath is not empty, the texture
// concurrently. Transient read failures are retried with exponential
// backoff; missing files and undecodable content fail immediately.
func (l *Loader) Load(ctx context.Context, model, texturePath string) (*scene.Mesh, *scene.Texture, error) {
	var (
		mesh *scene.Mesh
		tex  *scene.Texture
	)
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return l.retry(ctx, model, func() (err error) {
			mesh, err = l.loadMesh(model)
			return err
		})
	})
	if texturePath != "" {
		g.Go(func() error {
			return l.retry(ctx, texturePath, func() (err error) {
				tex, err = l.loadTexture(texturePath)
				return err
			})
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	if l.dc > 0 {
		mesh.Fit(l.dc)
	}
	l.log.Info("asset loaded", "model", model, "vertices", mesh.VertexCount(), "texture", texturePath)
	return mesh, tex, nil
}

// LoadAsync runs Load on a new goroutine and sends the outcome to Results.
func (l *Loader) LoadAsync(ctx context.Context, model, texturePath string) {
	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		mesh, tex, err := l.Load(ctx, model, texturePath)
		if err != nil {
			l.log.Error("asset load failed", "model", model, "texture", texturePath, "err", err)
		}
		select {
		case l.results <- Result{Model: model, TexturePath: texturePath, Mesh: mesh, Texture: tex, Err: err}:
		case <-ctx.Done():
		}
	}()
}

// Results delivers LoadAsync outcomes. Drain it from the render loop.
func (l *Loader) Results() <-chan Result { return l.results }

// Wait blocks until every LoadAsync goroutine has delivered or given up.
func (l *Loader) Wait() { l.wg.Wait() }

func (l *Loader) retry(ctx context.Context, path string, op func() error) error {
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = l.interval
	b := backoff.WithContext(backoff.WithMaxRetries(eb, l.maxRetries), ctx)

	attempt := func() error {
		err := op()
		if err != nil && !retryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}
	notify := func(err error, d time.Duration) {
		l.log.Warn("asset read failed, retrying", "path", path, "in", d, "err", err)
	}
	if err := backoff.RetryNotify(attempt, b, notify); err != nil {
		return fmt.Errorf("load %q: %w", path, err)
	}
	return nil
}

// retryable reports whether err looks like a transient I/O failure.
func retryable(err error) bool {
	if errors.Is(err, scene.ErrMeshNotFound) || errors.Is(err, scene.ErrMeshParse) ||
		errors.Is(err, fs.ErrNotExist) || errors.Is(err, fs.ErrPermission) {
		return false
	}
	var pathErr *fs.PathError
	return errors.As(err, &pathErr)
}
