package cmd

import (
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli"

	"github.com/PrimozLavric/LogiPathTracer/asset/reader"
	"github.com/PrimozLavric/LogiPathTracer/renderer"
)

func mockContext(t *testing.T, args ...string) *cli.Context {
	t.Helper()

	set := flag.NewFlagSet("test", flag.ContinueOnError)
	set.String("tracer", "pt", "")
	set.String("backend", "host", "")
	set.Int("device", 0, "")
	set.String("config", "", "")
	require.NoError(t, set.Parse(args))
	return cli.NewContext(cli.NewApp(), set, nil)
}

func TestRendererOptionsDefaults(t *testing.T) {
	opts, err := rendererOptions(mockContext(t))
	require.NoError(t, err)
	assert.Equal(t, renderer.DefaultOptions(), opts)
}

func TestFlagsOverrideConfig(t *testing.T) {
	cfg := filepath.Join(t.TempDir(), "opts.toml")
	require.NoError(t, os.WriteFile(cfg, []byte("tracer = \"rtx\"\nmesh_leaf_size = 8\n"), 0o644))

	opts, err := rendererOptions(mockContext(t, "--config", cfg))
	require.NoError(t, err)
	assert.Equal(t, renderer.TracerRTX, opts.Tracer)
	assert.Equal(t, 8, opts.MeshLeafSize)

	opts, err = rendererOptions(mockContext(t, "--config", cfg, "--tracer", "pt"))
	require.NoError(t, err)
	assert.Equal(t, renderer.TracerPT, opts.Tracer)
	assert.Equal(t, 8, opts.MeshLeafSize)
}

func TestInvalidTracerFlag(t *testing.T) {
	_, err := rendererOptions(mockContext(t, "--tracer", "opencl"))
	assert.ErrorIs(t, err, renderer.ErrInvalidOptions)
}

func TestConvertSceneOnHostDevice(t *testing.T) {
	dir := t.TempDir()
	sceneFile := filepath.Join(dir, "scene.obj")
	require.NoError(t, os.WriteFile(sceneFile, []byte(`
camera_eye 0 0 5
camera_look 0 0 0
o tri
v 0 0 0
v 1 0 0
v 0 1 0
f 1 2 3
`), 0o644))

	ctx := mockContext(t, sceneFile)
	r, dev, err := newRenderer(ctx)
	require.NoError(t, err)
	defer dev.Close()
	defer r.Close()

	sc, err := reader.ReadScene(sceneFile)
	require.NoError(t, err)
	require.NoError(t, convert(r, sc))
	assert.True(t, r.SceneLoaded())

	cam, err := r.Camera()
	require.NoError(t, err)
	assert.Equal(t, "camera", cam.Name)
}
