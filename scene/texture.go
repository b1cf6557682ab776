package scene

import "fmt"

// ImageFormat describes the texel layout of an Image.
type ImageFormat uint32

const (
	Luminance8 ImageFormat = iota
	Luminance32F
	Rgba8
	Rgba32F
)

// BytesPerPixel returns the texel size of the format.
func (f ImageFormat) BytesPerPixel() int {
	switch f {
	case Luminance8:
		return 1
	case Luminance32F, Rgba8:
		return 4
	case Rgba32F:
		return 16
	}
	return 0
}

func (f ImageFormat) String() string {
	switch f {
	case Luminance8:
		return "Luminance8"
	case Luminance32F:
		return "Luminance32F"
	case Rgba8:
		return "Rgba8"
	case Rgba32F:
		return "Rgba32F"
	}
	return fmt.Sprintf("ImageFormat(%d)", uint32(f))
}

// Image is a tightly packed 2D pixel buffer.
type Image struct {
	Pixels        []byte
	Width         uint32
	Height        uint32
	BytesPerPixel int
	Format        ImageFormat
}

// NewImage wraps pixels in an Image, validating the buffer size.
func NewImage(width, height uint32, format ImageFormat, pixels []byte) (*Image, error) {
	bpp := format.BytesPerPixel()
	if bpp == 0 {
		return nil, fmt.Errorf("scene: unsupported image format %s", format)
	}
	if exp := int(width) * int(height) * bpp; len(pixels) != exp {
		return nil, fmt.Errorf("scene: %dx%d %s image needs %d bytes; got %d", width, height, format, exp, len(pixels))
	}
	return &Image{
		Pixels:        pixels,
		Width:         width,
		Height:        height,
		BytesPerPixel: bpp,
		Format:        format,
	}, nil
}

type Filter uint8

const (
	FilterNearest Filter = iota
	FilterLinear
)

type MipmapMode uint8

const (
	MipmapNearest MipmapMode = iota
	MipmapLinear
)

type Wrap uint8

const (
	WrapRepeat Wrap = iota
	WrapMirroredRepeat
	WrapClampToEdge
	WrapClampToBorder
)

type CompareOp uint8

const (
	CompareNever CompareOp = iota
	CompareLess
	CompareEqual
	CompareLessOrEqual
	CompareGreater
	CompareNotEqual
	CompareGreaterOrEqual
	CompareAlways
)

// Sampler describes how a texture is filtered and addressed.
type Sampler struct {
	MagFilter  Filter
	MinFilter  Filter
	MipmapMode MipmapMode

	WrapS Wrap
	WrapT Wrap
	WrapR Wrap

	AnisotropyEnable bool
	MaxAnisotropy    float32

	CompareEnable bool
	CompareOp     CompareOp
}

// Texture is an image with an optional sampler. Textures without a sampler
// are sampled with the converter default.
type Texture struct {
	Name    string
	Image   *Image
	Sampler *Sampler
}
