package transfer

import (
	"fmt"

	"github.com/PrimozLavric/LogiPathTracer/gpu"
	"github.com/PrimozLavric/LogiPathTracer/scene"
)

// Texture is a device image with the view and sampler shaders bind it through.
type Texture struct {
	Image   gpu.Image
	View    gpu.ImageView
	Sampler gpu.Sampler
}

// Destroy releases the sampler, view and image.
func (t Texture) Destroy() {
	if t.Sampler != nil {
		t.Sampler.Destroy()
	}
	if t.View != nil {
		t.View.Destroy()
	}
	if t.Image != nil {
		t.Image.Destroy()
	}
}

// CopyTextureToGPU uploads the texture image into a new device image in the
// shader-read-only layout and creates a view and a sampler for it. Textures
// without a sampler use gpu.DefaultSamplerInfo with maxAnisotropy applied.
func (u *Uploader) CopyTextureToGPU(tex *scene.Texture, maxAnisotropy float32) (Texture, error) {
	if tex == nil || tex.Image == nil || len(tex.Image.Pixels) == 0 {
		return Texture{}, ErrNilTexture
	}

	img := tex.Image
	format, err := imageFormat(img.Format)
	if err != nil {
		return Texture{}, err
	}
	if exp := int(img.Width) * int(img.Height) * format.BytesPerPixel(); len(img.Pixels) < exp {
		return Texture{}, fmt.Errorf("transfer: texture %q holds %d bytes; %dx%d %s needs %d", tex.Name, len(img.Pixels), img.Width, img.Height, format, exp)
	}

	staging, err := u.allocator.CreateBuffer(gpu.BufferInfo{
		Size:     uint64(len(img.Pixels)),
		Usage:    gpu.BufferUsageTransferSrc,
		Location: gpu.HostVisible,
	})
	if err != nil {
		return Texture{}, fmt.Errorf("transfer: allocating texture staging buffer: %w", err)
	}
	defer staging.Destroy()

	if err = staging.Write(0, img.Pixels); err != nil {
		return Texture{}, fmt.Errorf("transfer: writing texture staging buffer: %w", err)
	}

	var out Texture
	out.Image, err = u.allocator.CreateImage(gpu.ImageInfo{
		Extent: gpu.Extent{Width: img.Width, Height: img.Height},
		Format: format,
		Usage:  gpu.ImageUsageTransferDst | gpu.ImageUsageSampled,
	})
	if err != nil {
		return Texture{}, fmt.Errorf("transfer: allocating texture image: %w", err)
	}

	err = u.submit(func(cmd gpu.CommandBuffer) {
		cmd.ImageBarrier(out.Image, gpu.ImageLayoutUndefined, gpu.ImageLayoutTransferDst)
		cmd.CopyBufferToImage(staging, out.Image)
		cmd.ImageBarrier(out.Image, gpu.ImageLayoutTransferDst, gpu.ImageLayoutShaderReadOnly)
	})
	if err != nil {
		out.Destroy()
		return Texture{}, err
	}

	if out.View, err = u.allocator.CreateImageView(out.Image); err != nil {
		out.Destroy()
		return Texture{}, fmt.Errorf("transfer: creating texture view: %w", err)
	}
	if out.Sampler, err = u.allocator.CreateSampler(SamplerInfo(tex.Sampler, maxAnisotropy)); err != nil {
		out.Destroy()
		return Texture{}, fmt.Errorf("transfer: creating texture sampler: %w", err)
	}

	return out, nil
}

func imageFormat(f scene.ImageFormat) (gpu.Format, error) {
	switch f {
	case scene.Luminance8:
		return gpu.FormatR8Unorm, nil
	case scene.Luminance32F:
		return gpu.FormatR32Sfloat, nil
	case scene.Rgba8:
		return gpu.FormatR8G8B8A8Unorm, nil
	case scene.Rgba32F:
		return gpu.FormatR32G32B32A32Sfloat, nil
	}
	return gpu.FormatUndefined, fmt.Errorf("%w: %s", ErrUnsupportedFormat, f)
}

// SamplerInfo converts a scene sampler into a device sampler description.
// A nil sampler yields gpu.DefaultSamplerInfo. A positive maxAnisotropy
// overrides the default anisotropy level.
func SamplerInfo(s *scene.Sampler, maxAnisotropy float32) gpu.SamplerInfo {
	if s == nil {
		info := gpu.DefaultSamplerInfo()
		if maxAnisotropy > 0 {
			info.MaxAnisotropy = maxAnisotropy
		}
		return info
	}

	return gpu.SamplerInfo{
		MagFilter:        gpu.Filter(s.MagFilter),
		MinFilter:        gpu.Filter(s.MinFilter),
		MipmapMode:       gpu.MipmapMode(s.MipmapMode),
		AddressModeU:     gpu.AddressMode(s.WrapS),
		AddressModeV:     gpu.AddressMode(s.WrapT),
		AddressModeW:     gpu.AddressMode(s.WrapR),
		AnisotropyEnable: s.AnisotropyEnable,
		MaxAnisotropy:    s.MaxAnisotropy,
		CompareEnable:    s.CompareEnable,
		CompareOp:        gpu.CompareOp(s.CompareOp),
	}
}
