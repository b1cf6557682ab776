package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"

	"github.com/PrimozLavric/LogiPathTracer/gpu"
)

// CommandBuffer records directly into a primary VkCommandBuffer.
type CommandBuffer struct {
	dev        *Device
	handle     vk.CommandBuffer
	recording  bool
	executable bool
	err        error
}

func (cb *CommandBuffer) fail(err error) {
	if cb.err == nil {
		cb.err = err
	}
}

// ready reports whether a command can be recorded, remembering the failure otherwise.
func (cb *CommandBuffer) ready(name string) bool {
	if !cb.recording {
		cb.fail(fmt.Errorf("recording %s: %w", name, gpu.ErrNotRecording))
		return false
	}
	return true
}

// Begin starts a one-time-submit recording.
func (cb *CommandBuffer) Begin() error {
	if cb.handle == nil {
		return gpu.ErrInvalidHandle
	}
	err := vk.Error(vk.BeginCommandBuffer(cb.handle, &vk.CommandBufferBeginInfo{
		SType: vk.StructureTypeCommandBufferBeginInfo,
		Flags: vk.CommandBufferUsageFlags(vk.CommandBufferUsageOneTimeSubmitBit),
	}))
	if err != nil {
		return fmt.Errorf("vulkan: begin command buffer: %w", err)
	}
	cb.recording = true
	cb.executable = false
	cb.err = nil
	return nil
}

func (cb *CommandBuffer) CopyBuffer(src, dst gpu.Buffer, size uint64) {
	srcBuf, srcOk := src.(*Buffer)
	dstBuf, dstOk := dst.(*Buffer)
	if !srcOk || !dstOk {
		cb.fail(fmt.Errorf("copy buffer: %w", gpu.ErrInvalidHandle))
		return
	}
	if size > srcBuf.info.Size || size > dstBuf.info.Size {
		cb.fail(fmt.Errorf("copy buffer: %d bytes between buffers of size %d and %d: %w", size, srcBuf.info.Size, dstBuf.info.Size, gpu.ErrWriteOutOfRange))
		return
	}
	if !cb.ready("copy-buffer") {
		return
	}

	vk.CmdCopyBuffer(cb.handle, srcBuf.handle, dstBuf.handle, 1, []vk.BufferCopy{{
		Size: vk.DeviceSize(size),
	}})
}

func (cb *CommandBuffer) CopyBufferToImage(src gpu.Buffer, dst gpu.Image) {
	srcBuf, srcOk := src.(*Buffer)
	dstImg, dstOk := dst.(*Image)
	if !srcOk || !dstOk {
		cb.fail(fmt.Errorf("copy buffer to image: %w", gpu.ErrInvalidHandle))
		return
	}
	extent := dstImg.info.Extent
	if need := uint64(extent.Width) * uint64(extent.Height) * uint64(dstImg.info.Format.BytesPerPixel()); need > srcBuf.info.Size {
		cb.fail(fmt.Errorf("copy buffer to image: source holds %d bytes; image needs %d: %w", srcBuf.info.Size, need, gpu.ErrWriteOutOfRange))
		return
	}
	if !cb.ready("copy-buffer-to-image") {
		return
	}

	vk.CmdCopyBufferToImage(cb.handle, srcBuf.handle, dstImg.handle, vk.ImageLayoutTransferDstOptimal, 1, []vk.BufferImageCopy{{
		ImageSubresource: vk.ImageSubresourceLayers{
			AspectMask: vk.ImageAspectFlags(vk.ImageAspectColorBit),
			LayerCount: 1,
		},
		ImageExtent: vk.Extent3D{
			Width:  extent.Width,
			Height: extent.Height,
			Depth:  1,
		},
	}})
}

func (cb *CommandBuffer) ImageBarrier(image gpu.Image, from, to gpu.ImageLayout) {
	img, ok := image.(*Image)
	if !ok {
		cb.fail(fmt.Errorf("image barrier: %w", gpu.ErrInvalidHandle))
		return
	}
	if !cb.ready("image-barrier") {
		return
	}

	srcAccess, srcStage := layoutAccess(from)
	dstAccess, dstStage := layoutAccess(to)
	vk.CmdPipelineBarrier(cb.handle,
		vk.PipelineStageFlags(srcStage), vk.PipelineStageFlags(dstStage), 0,
		0, nil,
		0, nil,
		1, []vk.ImageMemoryBarrier{{
			SType:               vk.StructureTypeImageMemoryBarrier,
			SrcAccessMask:       vk.AccessFlags(srcAccess),
			DstAccessMask:       vk.AccessFlags(dstAccess),
			OldLayout:           imageLayout(from),
			NewLayout:           imageLayout(to),
			SrcQueueFamilyIndex: vk.QueueFamilyIgnored,
			DstQueueFamilyIndex: vk.QueueFamilyIgnored,
			Image:               img.handle,
			SubresourceRange:    colorSubresourceRange(),
		}})
}

func (cb *CommandBuffer) BuildAccelerationStructure(info gpu.AccelerationStructureInfo, _ gpu.Buffer, _ gpu.AccelerationStructure, _ gpu.Buffer) {
	cb.fail(fmt.Errorf("build %s structure: %w", info.Type, gpu.ErrRayTracingUnsupported))
}

func (cb *CommandBuffer) AccelerationStructureBarrier() {
	cb.fail(fmt.Errorf("acceleration structure barrier: %w", gpu.ErrRayTracingUnsupported))
}

func (cb *CommandBuffer) End() error {
	if cb.handle == nil {
		return gpu.ErrInvalidHandle
	}
	if !cb.recording {
		return gpu.ErrNotRecording
	}
	cb.recording = false
	if err := vk.Error(vk.EndCommandBuffer(cb.handle)); err != nil {
		return fmt.Errorf("vulkan: end command buffer: %w", err)
	}
	if cb.err != nil {
		return cb.err
	}
	cb.executable = true
	return nil
}

// Destroy returns the command buffer to the device pool.
func (cb *CommandBuffer) Destroy() {
	if cb.handle == nil {
		return
	}
	cb.dev.mu.Lock()
	defer cb.dev.mu.Unlock()

	vk.FreeCommandBuffers(cb.dev.device, cb.dev.pool, 1, []vk.CommandBuffer{cb.handle})
	cb.handle = nil
	cb.executable = false
}
