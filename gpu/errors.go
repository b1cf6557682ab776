package gpu

import "errors"

var (
	ErrOutOfDeviceMemory     = errors.New("gpu: out of device memory")
	ErrNotHostVisible        = errors.New("gpu: buffer memory is not host visible")
	ErrWriteOutOfRange       = errors.New("gpu: write exceeds buffer size")
	ErrRayTracingUnsupported = errors.New("gpu: device does not support ray tracing")
	ErrNotRecording          = errors.New("gpu: command buffer is not in the recording state")
	ErrNotExecutable         = errors.New("gpu: command buffer has not finished recording")
	ErrInvalidHandle         = errors.New("gpu: invalid or destroyed resource handle")
	ErrUnsupportedFormat     = errors.New("gpu: unsupported format")
)
