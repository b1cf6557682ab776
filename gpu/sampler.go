package gpu

type Filter uint8

const (
	FilterNearest Filter = iota
	FilterLinear
)

type MipmapMode uint8

const (
	MipmapModeNearest MipmapMode = iota
	MipmapModeLinear
)

type AddressMode uint8

const (
	AddressModeRepeat AddressMode = iota
	AddressModeMirroredRepeat
	AddressModeClampToEdge
	AddressModeClampToBorder
)

type CompareOp uint8

const (
	CompareOpNever CompareOp = iota
	CompareOpLess
	CompareOpEqual
	CompareOpLessOrEqual
	CompareOpGreater
	CompareOpNotEqual
	CompareOpGreaterOrEqual
	CompareOpAlways
)

// SamplerInfo describes how a texture is sampled.
type SamplerInfo struct {
	MagFilter        Filter
	MinFilter        Filter
	MipmapMode       MipmapMode
	AddressModeU     AddressMode
	AddressModeV     AddressMode
	AddressModeW     AddressMode
	AnisotropyEnable bool
	MaxAnisotropy    float32
	CompareEnable    bool
	CompareOp        CompareOp
}

// DefaultSamplerInfo returns the sampler used for textures that do not
// define their own: linear filtering, repeat addressing and 16x anisotropy.
func DefaultSamplerInfo() SamplerInfo {
	return SamplerInfo{
		MagFilter:        FilterLinear,
		MinFilter:        FilterLinear,
		MipmapMode:       MipmapModeLinear,
		AddressModeU:     AddressModeRepeat,
		AddressModeV:     AddressModeRepeat,
		AddressModeW:     AddressModeRepeat,
		AnisotropyEnable: true,
		MaxAnisotropy:    16,
		CompareEnable:    false,
		CompareOp:        CompareOpNever,
	}
}
