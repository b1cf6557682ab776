package vulkan

import (
	vk "github.com/goki/vulkan"

	"github.com/PrimozLavric/LogiPathTracer/gpu"
)

func memoryProperties(location gpu.MemoryLocation) vk.MemoryPropertyFlagBits {
	if location == gpu.HostVisible {
		return vk.MemoryPropertyHostVisibleBit | vk.MemoryPropertyHostCoherentBit
	}
	return vk.MemoryPropertyDeviceLocalBit
}

func bufferUsage(usage gpu.BufferUsage) vk.BufferUsageFlags {
	var flags vk.BufferUsageFlagBits
	if usage.Has(gpu.BufferUsageTransferSrc) {
		flags |= vk.BufferUsageTransferSrcBit
	}
	if usage.Has(gpu.BufferUsageTransferDst) {
		flags |= vk.BufferUsageTransferDstBit
	}
	if usage.Has(gpu.BufferUsageStorage) {
		flags |= vk.BufferUsageStorageBufferBit
	}
	if usage.Has(gpu.BufferUsageVertex) {
		flags |= vk.BufferUsageVertexBufferBit
	}
	if usage.Has(gpu.BufferUsageIndex) {
		flags |= vk.BufferUsageIndexBufferBit
	}
	// Ray tracing inputs are read through device addresses.
	if usage.Has(gpu.BufferUsageRayTracing) {
		flags |= vk.BufferUsageStorageBufferBit | vk.BufferUsageShaderDeviceAddressBit
	}
	return vk.BufferUsageFlags(flags)
}

func imageUsage(usage gpu.ImageUsage) vk.ImageUsageFlags {
	var flags vk.ImageUsageFlagBits
	if usage&gpu.ImageUsageTransferDst != 0 {
		flags |= vk.ImageUsageTransferDstBit
	}
	if usage&gpu.ImageUsageSampled != 0 {
		flags |= vk.ImageUsageSampledBit
	}
	return vk.ImageUsageFlags(flags)
}

func imageFormat(f gpu.Format) (vk.Format, bool) {
	switch f {
	case gpu.FormatR8Unorm:
		return vk.FormatR8Unorm, true
	case gpu.FormatR8G8B8A8Unorm:
		return vk.FormatR8g8b8a8Unorm, true
	case gpu.FormatR32Sfloat:
		return vk.FormatR32Sfloat, true
	case gpu.FormatR32G32B32Sfloat:
		return vk.FormatR32g32b32Sfloat, true
	case gpu.FormatR32G32B32A32Sfloat:
		return vk.FormatR32g32b32a32Sfloat, true
	}
	return vk.FormatUndefined, false
}

func imageLayout(l gpu.ImageLayout) vk.ImageLayout {
	switch l {
	case gpu.ImageLayoutTransferDst:
		return vk.ImageLayoutTransferDstOptimal
	case gpu.ImageLayoutShaderReadOnly:
		return vk.ImageLayoutShaderReadOnlyOptimal
	}
	return vk.ImageLayoutUndefined
}

// layoutAccess returns the access mask and pipeline stage that touch an
// image while it is in layout l.
func layoutAccess(l gpu.ImageLayout) (vk.AccessFlagBits, vk.PipelineStageFlagBits) {
	switch l {
	case gpu.ImageLayoutTransferDst:
		return vk.AccessTransferWriteBit, vk.PipelineStageTransferBit
	case gpu.ImageLayoutShaderReadOnly:
		return vk.AccessShaderReadBit, vk.PipelineStageFragmentShaderBit
	}
	return 0, vk.PipelineStageTopOfPipeBit
}

func filter(f gpu.Filter) vk.Filter {
	if f == gpu.FilterLinear {
		return vk.FilterLinear
	}
	return vk.FilterNearest
}

func mipmapMode(m gpu.MipmapMode) vk.SamplerMipmapMode {
	if m == gpu.MipmapModeLinear {
		return vk.SamplerMipmapModeLinear
	}
	return vk.SamplerMipmapModeNearest
}

func addressMode(m gpu.AddressMode) vk.SamplerAddressMode {
	switch m {
	case gpu.AddressModeMirroredRepeat:
		return vk.SamplerAddressModeMirroredRepeat
	case gpu.AddressModeClampToEdge:
		return vk.SamplerAddressModeClampToEdge
	case gpu.AddressModeClampToBorder:
		return vk.SamplerAddressModeClampToBorder
	}
	return vk.SamplerAddressModeRepeat
}

// The gpu compare ops are declared in Vulkan order.
func compareOp(op gpu.CompareOp) vk.CompareOp {
	return vk.CompareOp(op)
}

func bool32(b bool) vk.Bool32 {
	if b {
		return vk.True
	}
	return vk.False
}

func samplerCreateInfo(info gpu.SamplerInfo) vk.SamplerCreateInfo {
	return vk.SamplerCreateInfo{
		SType:                   vk.StructureTypeSamplerCreateInfo,
		MagFilter:               filter(info.MagFilter),
		MinFilter:               filter(info.MinFilter),
		MipmapMode:              mipmapMode(info.MipmapMode),
		AddressModeU:            addressMode(info.AddressModeU),
		AddressModeV:            addressMode(info.AddressModeV),
		AddressModeW:            addressMode(info.AddressModeW),
		AnisotropyEnable:        bool32(info.AnisotropyEnable),
		MaxAnisotropy:           info.MaxAnisotropy,
		CompareEnable:           bool32(info.CompareEnable),
		CompareOp:               compareOp(info.CompareOp),
		MaxLod:                  vk.LodClampNone,
		BorderColor:             vk.BorderColorIntOpaqueBlack,
		UnnormalizedCoordinates: vk.False,
	}
}
