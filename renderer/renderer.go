// Package renderer hosts the scene loading side of the application: it owns
// a scene converter, runs loads on a background goroutine and publishes a
// flag the frame loop polls before touching converter resources.
package renderer

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/PrimozLavric/LogiPathTracer/converter"
	"github.com/PrimozLavric/LogiPathTracer/converter/pt"
	"github.com/PrimozLavric/LogiPathTracer/converter/rtx"
	"github.com/PrimozLavric/LogiPathTracer/log"
	"github.com/PrimozLavric/LogiPathTracer/scene"
	"github.com/PrimozLavric/LogiPathTracer/transfer"
)

// NewConverter creates the converter selected by opts.
func NewConverter(u *transfer.Uploader, opts Options) (converter.Converter, error) {
	switch opts.Tracer {
	case TracerPT:
		return pt.New(u, opts.ConverterOptions()), nil
	case TracerRTX:
		return rtx.New(u, opts.ConverterOptions()), nil
	}
	return nil, fmt.Errorf("%w: unknown tracer %q", ErrInvalidOptions, opts.Tracer)
}

// Renderer loads scenes into a converter in the background.
type Renderer struct {
	logger log.Logger
	conv   converter.Converter

	// Set once a load has completed successfully. Converter accessors may
	// only be used while it is set.
	sceneLoaded atomic.Bool

	// Incremented by every load request; only the latest request may set
	// sceneLoaded.
	requested atomic.Uint64

	mu    sync.Mutex
	group *errgroup.Group

	// Closed when the most recently requested load returns. Each load waits
	// for its predecessor so loads run in request order.
	tail chan struct{}

	camera   *scene.Object
	lastLoad LoadStats
}

// New creates a renderer that owns conv.
func New(conv converter.Converter) *Renderer {
	return &Renderer{
		logger: log.New("renderer"),
		conv:   conv,
	}
}

// Converter returns the converter owned by the renderer.
func (r *Renderer) Converter() converter.Converter {
	return r.conv
}

// LoadSceneAsync clears the loaded flag and converts sc on a background
// goroutine. Overlapping requests run one after the other in request order.
func (r *Renderer) LoadSceneAsync(sc *scene.Scene) {
	// Clearing the flag and bumping the request counter happen under mu so a
	// finishing load cannot set the flag in between.
	r.mu.Lock()
	r.sceneLoaded.Store(false)
	gen := r.requested.Add(1)
	if r.group == nil {
		r.group = new(errgroup.Group)
	}
	g := r.group
	prev := r.tail
	done := make(chan struct{})
	r.tail = done
	r.mu.Unlock()

	g.Go(func() error {
		defer close(done)
		if prev != nil {
			<-prev
		}
		return r.load(sc, gen)
	})
}

// LoadScene converts sc and blocks until the load completes.
func (r *Renderer) LoadScene(sc *scene.Scene) error {
	r.LoadSceneAsync(sc)
	return r.Wait()
}

// Wait blocks until every pending load has returned and reports the first
// load error.
func (r *Renderer) Wait() error {
	r.mu.Lock()
	g := r.group
	r.group = nil
	r.mu.Unlock()

	if g == nil {
		return nil
	}
	return g.Wait()
}

func (r *Renderer) load(sc *scene.Scene, gen uint64) error {
	if sc == nil {
		return ErrSceneNotDefined
	}

	stats := LoadStats{ID: uuid.New(), Scene: sc.Name}
	r.logger.Infof("load %s: converting scene %q", stats.ID, sc.Name)

	start := time.Now()
	err := r.conv.LoadScene(sc)
	stats.Duration = time.Since(start)
	stats.Error = err

	cam := converter.Camera(r.conv)
	r.mu.Lock()
	r.camera = cam
	r.lastLoad = stats
	r.mu.Unlock()

	if err != nil {
		r.logger.Errorf("load %s: %v", stats.ID, err)
		return err
	}
	if cam == nil {
		r.logger.Warningf("load %s: scene %q has no camera", stats.ID, sc.Name)
	}

	r.mu.Lock()
	if r.requested.Load() == gen {
		r.sceneLoaded.Store(true)
	}
	r.mu.Unlock()
	r.logger.Noticef("load %s: scene %q ready in %d ms", stats.ID, sc.Name, stats.Duration.Milliseconds())
	return nil
}

// SceneLoaded reports whether the latest requested load has completed.
func (r *Renderer) SceneLoaded() bool {
	return r.sceneLoaded.Load()
}

// Camera returns the camera chosen by the last load.
func (r *Renderer) Camera() (*scene.Object, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.camera == nil {
		return nil, ErrCameraNotDefined
	}
	return r.camera, nil
}

// LastLoad returns the stats of the most recent completed load.
func (r *Renderer) LastLoad() LoadStats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastLoad
}

// Close waits for pending loads and releases the converter resources.
func (r *Renderer) Close() {
	_ = r.Wait()
	r.sceneLoaded.Store(false)
	r.conv.Destroy()
}
