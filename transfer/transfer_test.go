package transfer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PrimozLavric/LogiPathTracer/gpu"
	"github.com/PrimozLavric/LogiPathTracer/gpu/host"
	"github.com/PrimozLavric/LogiPathTracer/scene"
)

func newUploader(opts ...host.Option) (*Uploader, *host.Device) {
	dev := host.NewDevice(opts...)
	return NewUploader(dev, dev, dev), dev
}

func testTexture(t *testing.T) *scene.Texture {
	img, err := scene.NewImage(2, 1, scene.Rgba8, []byte{1, 2, 3, 4, 5, 6, 7, 8})
	require.NoError(t, err)
	return &scene.Texture{Name: "checker", Image: img}
}

func TestCopyToGPU(t *testing.T) {
	u, dev := newUploader()

	buf, err := u.CopyToGPU([]byte{1, 2, 3, 4, 5}, gpu.BufferUsageStorage)
	require.NoError(t, err)

	assert.Equal(t, uint64(5), buf.Size())
	assert.Equal(t, gpu.DeviceLocal, buf.Location())
	assert.True(t, buf.Usage().Has(gpu.BufferUsageStorage|gpu.BufferUsageTransferDst))

	data, err := dev.ReadBuffer(buf)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3, 4, 5}, data)

	stats := dev.Stats()
	assert.Equal(t, 1, stats.LiveBuffers, "staging buffer must be released")
	assert.Equal(t, 0, stats.LiveCommandBuffers, "command buffer must be released")
	assert.Equal(t, 1, stats.Submits)
	assert.Equal(t, 1, stats.WaitIdles)

	buf.Destroy()
	require.NoError(t, dev.Close())
}

func TestCopyEmptySlice(t *testing.T) {
	u, dev := newUploader()

	buf, err := CopySlice[uint32](u, nil, gpu.BufferUsageStorage)
	require.NoError(t, err)
	assert.Equal(t, uint64(MinBufferSize), buf.Size())

	buf.Destroy()
	require.NoError(t, dev.Close())
}

func TestCopyToGPUOutOfMemory(t *testing.T) {
	u, dev := newUploader(host.WithMemoryLimit(12))

	// Staging fits but the device-local copy does not.
	_, err := u.CopyToGPU(make([]byte, 8), gpu.BufferUsageStorage)
	assert.ErrorIs(t, err, gpu.ErrOutOfDeviceMemory)
	require.NoError(t, dev.Close(), "failed uploads must not leak")
}

func TestBytes(t *testing.T) {
	type rec struct {
		A uint32
		B float32
	}
	data := Bytes([]rec{{A: 1, B: 0}, {A: 2, B: 0}})
	assert.Equal(t, []byte{1, 0, 0, 0, 0, 0, 0, 0, 2, 0, 0, 0, 0, 0, 0, 0}, data)
	assert.Nil(t, Bytes[rec](nil))
}

func TestCopyTextureToGPU(t *testing.T) {
	u, dev := newUploader()

	tex, err := u.CopyTextureToGPU(testTexture(t), 0)
	require.NoError(t, err)

	img := tex.Image.(*host.Image)
	assert.Equal(t, gpu.ImageLayoutShaderReadOnly, img.Layout())
	assert.Equal(t, gpu.FormatR8G8B8A8Unorm, img.Format())
	texels, err := dev.ReadImage(img)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3, 4, 5, 6, 7, 8}, texels)

	assert.Equal(t, gpu.DefaultSamplerInfo(), tex.Sampler.(*host.Sampler).Info())
	assert.Equal(t, float32(16), tex.Sampler.(*host.Sampler).Info().MaxAnisotropy)

	stats := dev.Stats()
	assert.Equal(t, 0, stats.LiveBuffers, "staging buffer must be released")
	assert.Equal(t, 1, stats.LiveImages)
	assert.Equal(t, 1, stats.LiveImageViews)
	assert.Equal(t, 1, stats.LiveSamplers)

	tex.Destroy()
	require.NoError(t, dev.Close())
}

func TestSamplerInfoFromScene(t *testing.T) {
	info := SamplerInfo(&scene.Sampler{
		MagFilter:        scene.FilterNearest,
		MinFilter:        scene.FilterLinear,
		MipmapMode:       scene.MipmapNearest,
		WrapS:            scene.WrapClampToEdge,
		WrapT:            scene.WrapMirroredRepeat,
		WrapR:            scene.WrapRepeat,
		AnisotropyEnable: false,
		CompareEnable:    true,
		CompareOp:        scene.CompareLessOrEqual,
	}, 4)

	assert.Equal(t, gpu.SamplerInfo{
		MagFilter:     gpu.FilterNearest,
		MinFilter:     gpu.FilterLinear,
		MipmapMode:    gpu.MipmapModeNearest,
		AddressModeU:  gpu.AddressModeClampToEdge,
		AddressModeV:  gpu.AddressModeMirroredRepeat,
		AddressModeW:  gpu.AddressModeRepeat,
		CompareEnable: true,
		CompareOp:     gpu.CompareOpLessOrEqual,
	}, info)

	assert.Equal(t, float32(4), SamplerInfo(nil, 4).MaxAnisotropy)
}

func TestCopyTextureWithoutImage(t *testing.T) {
	u, dev := newUploader()

	_, err := u.CopyTextureToGPU(&scene.Texture{Name: "empty"}, 0)
	assert.ErrorIs(t, err, ErrNilTexture)
	require.NoError(t, dev.Close())
}

func TestRegistryDoesNotDeduplicate(t *testing.T) {
	u, dev := newUploader()
	reg := NewTextureRegistry()
	tex := testTexture(t)

	first, err := reg.Upload(u, tex, 0)
	require.NoError(t, err)
	second, err := reg.Upload(u, tex, 0)
	require.NoError(t, err)
	none, err := reg.Upload(u, nil, 0)
	require.NoError(t, err)

	assert.Equal(t, uint32(0), first)
	assert.Equal(t, uint32(1), second)
	assert.Equal(t, NoTexture, none)
	assert.Equal(t, 2, reg.Len())
	assert.Equal(t, 2, dev.Stats().LiveImages)

	gen := reg.Generation()
	reg.Reset()
	assert.NotEqual(t, gen, reg.Generation())
	assert.Equal(t, 0, reg.Len())
	require.NoError(t, dev.Close())

	idx, err := reg.Upload(u, tex, 0)
	require.NoError(t, err)
	assert.Equal(t, uint32(0), idx, "indices restart in a new generation")
	reg.Reset()
}

func TestCreateAccelerationStructure(t *testing.T) {
	u, dev := newUploader()

	vertices, err := CopySlice(u, []float32{0, 0, 0, 1, 0, 0, 0, 1, 0}, gpu.BufferUsageRayTracing)
	require.NoError(t, err)

	blas, err := u.CreateAccelerationStructure(gpu.BottomLevel, []gpu.Geometry{{
		Triangles: gpu.Triangles{
			VertexData:   vertices,
			VertexCount:  3,
			VertexStride: 12,
			VertexFormat: gpu.FormatR32G32B32Sfloat,
		},
		Flags: gpu.GeometryOpaque,
	}}, 0, nil)
	require.NoError(t, err)

	built := blas.(*host.AccelerationStructure)
	assert.True(t, built.Built())
	assert.Equal(t, gpu.BuildPreferFastTrace, built.Info().Flags)

	instances, err := u.CreateHostBuffer(Bytes([]gpu.Instance{
		gpu.NewInstance([12]float32{}, 0, 0xFF, 0, gpu.InstanceTriangleCullDisable, blas.Handle()),
	}), gpu.BufferUsageRayTracing)
	require.NoError(t, err)

	tlas, err := u.CreateAccelerationStructure(gpu.TopLevel, nil, 1, instances)
	require.NoError(t, err)
	recs := tlas.(*host.AccelerationStructure).Instances()
	require.Len(t, recs, 1)
	assert.Equal(t, blas.Handle(), recs[0].Handle)

	stats := dev.Stats()
	assert.Equal(t, 2, stats.LiveBuffers, "scratch buffers must be released")

	for _, res := range []gpu.Resource{tlas, instances, blas, vertices} {
		res.Destroy()
	}
	require.NoError(t, dev.Close())
}
