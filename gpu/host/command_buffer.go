package host

import (
	"fmt"

	"github.com/PrimozLavric/LogiPathTracer/gpu"
)

type cmdState uint8

const (
	stateInitial cmdState = iota
	stateRecording
	stateExecutable
	statePending
)

type command func() error

// CommandBuffer records commands as closures that run when the device
// processes the submission.
type CommandBuffer struct {
	dev       *Device
	state     cmdState
	cmds      []command
	err       error
	destroyed bool

	// Recorded command names, in order.
	trace []string
}

// Trace returns the names of the recorded commands.
func (cb *CommandBuffer) Trace() []string {
	return append([]string(nil), cb.trace...)
}

func (cb *CommandBuffer) Begin() error {
	if cb.destroyed {
		return gpu.ErrInvalidHandle
	}
	cb.state = stateRecording
	cb.cmds = cb.cmds[:0]
	cb.trace = cb.trace[:0]
	cb.err = nil
	return nil
}

func (cb *CommandBuffer) record(name string, cmd command) {
	if cb.state != stateRecording {
		if cb.err == nil {
			cb.err = fmt.Errorf("recording %s: %w", name, gpu.ErrNotRecording)
		}
		return
	}
	cb.trace = append(cb.trace, name)
	cb.cmds = append(cb.cmds, cmd)
}

func (cb *CommandBuffer) fail(err error) {
	if cb.err == nil {
		cb.err = err
	}
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

	cb.record("copy-buffer", func() error {
		if srcBuf.destroyed || dstBuf.destroyed {
			return fmt.Errorf("copy buffer: %w", gpu.ErrInvalidHandle)
		}
		copy(dstBuf.data[:size], srcBuf.data[:size])
		return nil
	})
}

func (cb *CommandBuffer) CopyBufferToImage(src gpu.Buffer, dst gpu.Image) {
	srcBuf, srcOk := src.(*Buffer)
	dstImg, dstOk := dst.(*Image)
	if !srcOk || !dstOk {
		cb.fail(fmt.Errorf("copy buffer to image: %w", gpu.ErrInvalidHandle))
		return
	}

	cb.record("copy-buffer-to-image", func() error {
		if srcBuf.destroyed || dstImg.destroyed {
			return fmt.Errorf("copy buffer to image: %w", gpu.ErrInvalidHandle)
		}
		if dstImg.layout != gpu.ImageLayoutTransferDst {
			return fmt.Errorf("copy buffer to image: image in layout %s; expected %s", dstImg.layout, gpu.ImageLayoutTransferDst)
		}
		if uint64(len(dstImg.data)) > srcBuf.info.Size {
			return fmt.Errorf("copy buffer to image: source holds %d bytes; image needs %d: %w", srcBuf.info.Size, len(dstImg.data), gpu.ErrWriteOutOfRange)
		}
		copy(dstImg.data, srcBuf.data)
		return nil
	})
}

func (cb *CommandBuffer) ImageBarrier(image gpu.Image, from, to gpu.ImageLayout) {
	img, ok := image.(*Image)
	if !ok {
		cb.fail(fmt.Errorf("image barrier: %w", gpu.ErrInvalidHandle))
		return
	}

	cb.record(fmt.Sprintf("image-barrier %s->%s", from, to), func() error {
		if img.destroyed {
			return fmt.Errorf("image barrier: %w", gpu.ErrInvalidHandle)
		}
		if from != gpu.ImageLayoutUndefined && img.layout != from {
			return fmt.Errorf("image barrier: image in layout %s; expected %s", img.layout, from)
		}
		img.layout = to
		return nil
	})
}

func (cb *CommandBuffer) BuildAccelerationStructure(info gpu.AccelerationStructureInfo, instances gpu.Buffer, dst gpu.AccelerationStructure, scratch gpu.Buffer) {
	as, asOk := dst.(*AccelerationStructure)
	scratchBuf, scratchOk := scratch.(*Buffer)
	if !asOk || !scratchOk {
		cb.fail(fmt.Errorf("build acceleration structure: %w", gpu.ErrInvalidHandle))
		return
	}

	var instanceBuf *Buffer
	if info.Type == gpu.TopLevel {
		var ok bool
		if instanceBuf, ok = instances.(*Buffer); !ok && info.InstanceCount != 0 {
			cb.fail(fmt.Errorf("build acceleration structure: instance buffer: %w", gpu.ErrInvalidHandle))
			return
		}
	}

	cb.record("build-acceleration-structure "+info.Type.String(), func() error {
		return as.build(info, instanceBuf, scratchBuf)
	})
}

func (cb *CommandBuffer) AccelerationStructureBarrier() {
	cb.record("acceleration-structure-barrier", func() error { return nil })
}

func (cb *CommandBuffer) End() error {
	if cb.destroyed {
		return gpu.ErrInvalidHandle
	}
	if cb.state != stateRecording {
		return gpu.ErrNotRecording
	}
	if cb.err != nil {
		return cb.err
	}
	cb.state = stateExecutable
	return nil
}

func (cb *CommandBuffer) Destroy() {
	cb.dev.mu.Lock()
	defer cb.dev.mu.Unlock()

	if cb.destroyed {
		return
	}
	cb.destroyed = true
	cb.cmds = nil
	cb.dev.stats.LiveCommandBuffers--
}

func (cb *CommandBuffer) execute() error {
	if cb.destroyed {
		return fmt.Errorf("execute: command buffer destroyed before completion: %w", gpu.ErrInvalidHandle)
	}
	defer func() { cb.state = stateExecutable }()

	for _, cmd := range cb.cmds {
		if err := cmd(); err != nil {
			return err
		}
	}
	return nil
}
