package renderer

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PrimozLavric/LogiPathTracer/converter"
	"github.com/PrimozLavric/LogiPathTracer/gpu"
	"github.com/PrimozLavric/LogiPathTracer/scene"
	"github.com/PrimozLavric/LogiPathTracer/transfer"
	"github.com/PrimozLavric/LogiPathTracer/types"
)

func testScene(withCamera bool) *scene.Scene {
	up := types.Vec3{0, 0, 1}
	sc := scene.NewScene("test")
	obj := sc.Add(scene.NewObject("triangle"))
	obj.Mesh = &scene.Mesh{SubMeshes: []*scene.SubMesh{{
		Geometry: &scene.Geometry{
			Positions: []types.Vec3{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}},
			Normals:   []types.Vec3{up, up, up},
		},
		Material: scene.NewMetallicRoughnessMaterial("white"),
	}}}
	if withCamera {
		cam := sc.Add(scene.NewObject("camera"))
		cam.Camera = scene.NewPerspectiveCamera(45)
	}
	return sc
}

func newRenderer(t *testing.T, opts Options) (*Renderer, *Device) {
	t.Helper()
	require.NoError(t, opts.Validate())

	dev, err := NewDevice(opts)
	require.NoError(t, err)
	conv, err := NewConverter(dev.Uploader(), opts)
	require.NoError(t, err)
	return New(conv), dev
}

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestLoadOptions(t *testing.T) {
	opts, err := LoadOptions(writeConfig(t, "tracer = \"rtx\"\nmesh_leaf_size = 8\n"))
	require.NoError(t, err)

	exp := DefaultOptions()
	exp.Tracer = TracerRTX
	exp.MeshLeafSize = 8
	assert.Equal(t, exp, opts)
}

func TestLoadOptionsRejectsUnknownKeys(t *testing.T) {
	_, err := LoadOptions(writeConfig(t, "tracer = \"pt\"\nframe_width = 1024\n"))
	assert.ErrorIs(t, err, ErrInvalidOptions)
}

func TestValidateOptions(t *testing.T) {
	require.NoError(t, DefaultOptions().Validate())

	for _, mutate := range []func(*Options){
		func(o *Options) { o.Tracer = "opencl" },
		func(o *Options) { o.Backend = "metal" },
		func(o *Options) { o.Device = -1 },
		func(o *Options) { o.MeshLeafSize = 0 },
		func(o *Options) { o.ObjectLeafSize = 0 },
		func(o *Options) { o.MaxAnisotropy = -1 },
		func(o *Options) { o.Tracer, o.Backend = TracerRTX, BackendVulkan },
	} {
		opts := DefaultOptions()
		mutate(&opts)
		assert.ErrorIs(t, opts.Validate(), ErrInvalidOptions, "%+v", opts)
	}
}

func TestLoadScene(t *testing.T) {
	for _, tracer := range []string{TracerPT, TracerRTX} {
		t.Run(tracer, func(t *testing.T) {
			opts := DefaultOptions()
			opts.Tracer = tracer
			r, dev := newRenderer(t, opts)
			sc := testScene(true)

			assert.False(t, r.SceneLoaded())
			require.NoError(t, r.LoadScene(sc))
			assert.True(t, r.SceneLoaded())
			assert.Equal(t, converter.Ready, r.Converter().State())

			cam, err := r.Camera()
			require.NoError(t, err)
			assert.Same(t, sc.Children()[1], cam)

			stats := r.LastLoad()
			assert.NotEqual(t, uuid.Nil, stats.ID)
			assert.Equal(t, "test", stats.Scene)
			assert.NoError(t, stats.Error)

			r.Close()
			assert.False(t, r.SceneLoaded())
			require.NoError(t, dev.Close())
		})
	}
}

func TestLoadSceneAsync(t *testing.T) {
	r, dev := newRenderer(t, DefaultOptions())

	r.LoadSceneAsync(testScene(false))
	r.LoadSceneAsync(testScene(true))
	require.NoError(t, r.Wait())

	assert.True(t, r.SceneLoaded())
	_, err := r.Camera()
	assert.NoError(t, err)

	r.Close()
	require.NoError(t, dev.Close())
}

func TestSceneWithoutCamera(t *testing.T) {
	r, dev := newRenderer(t, DefaultOptions())

	require.NoError(t, r.LoadScene(testScene(false)))
	_, err := r.Camera()
	assert.ErrorIs(t, err, ErrCameraNotDefined)

	r.Close()
	require.NoError(t, dev.Close())
}

func TestFailedLoad(t *testing.T) {
	opts := DefaultOptions()
	opts.MemoryLimit = 64
	r, dev := newRenderer(t, opts)

	err := r.LoadScene(testScene(true))
	assert.ErrorIs(t, err, gpu.ErrOutOfDeviceMemory)
	assert.False(t, r.SceneLoaded())
	assert.ErrorIs(t, r.LastLoad().Error, gpu.ErrOutOfDeviceMemory)
	assert.Equal(t, converter.Failed, r.Converter().State())

	assert.ErrorIs(t, r.LoadScene(nil), ErrSceneNotDefined)

	r.Close()
	require.NoError(t, dev.Close())
}

// gatedConverter blocks every LoadScene call until the test releases it.
type gatedConverter struct {
	entered chan int
	release chan struct{}
	calls   int
}

func newGatedConverter() *gatedConverter {
	return &gatedConverter{entered: make(chan int), release: make(chan struct{})}
}

func (c *gatedConverter) LoadScene(*scene.Scene) error {
	c.calls++
	c.entered <- c.calls
	<-c.release
	return nil
}

func (c *gatedConverter) Cameras() []*scene.Object     { return nil }
func (c *gatedConverter) Textures() []transfer.Texture { return nil }
func (c *gatedConverter) State() converter.State       { return converter.Ready }
func (c *gatedConverter) Stats() string                { return "" }
func (c *gatedConverter) Destroy()                     {}

func TestSupersededLoadDoesNotSetFlag(t *testing.T) {
	conv := newGatedConverter()
	r := New(conv)

	r.LoadSceneAsync(testScene(true))
	require.Equal(t, 1, <-conv.entered)

	// Request a new scene while the first load is still converting.
	r.LoadSceneAsync(testScene(true))
	conv.release <- struct{}{}

	// The second load only starts after the first one has returned.
	require.Equal(t, 2, <-conv.entered)
	assert.False(t, r.SceneLoaded(), "superseded load must not mark the scene as loaded")

	conv.release <- struct{}{}
	require.NoError(t, r.Wait())
	assert.True(t, r.SceneLoaded())
}

func TestConcurrentRequestsLeaveFlagConsistent(t *testing.T) {
	r, dev := newRenderer(t, DefaultOptions())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.LoadSceneAsync(testScene(true))
			_ = r.SceneLoaded()
		}()
	}
	wg.Wait()
	require.NoError(t, r.Wait())
	assert.True(t, r.SceneLoaded())

	r.Close()
	require.NoError(t, dev.Close())
}
