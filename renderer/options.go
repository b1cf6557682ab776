package renderer

import (
	"bytes"
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/PrimozLavric/LogiPathTracer/converter"
)

// Supported tracers.
const (
	TracerPT  = "pt"
	TracerRTX = "rtx"
)

// Supported device backends.
const (
	BackendHost   = "host"
	BackendVulkan = "vulkan"
)

type Options struct {
	// The scene converter to use (pt or rtx).
	Tracer string `toml:"tracer"`

	// Device selection.
	Backend string `toml:"backend"`
	Device  int    `toml:"device"`

	// Max items per BVH leaf.
	MeshLeafSize   int `toml:"mesh_leaf_size"`
	ObjectLeafSize int `toml:"object_leaf_size"`

	// Anisotropy for textures without a sampler.
	MaxAnisotropy float32 `toml:"max_anisotropy"`

	// Host device memory limit in bytes. Zero means unlimited.
	MemoryLimit uint64 `toml:"memory_limit"`
}

// DefaultOptions returns the options used when no config file is given.
func DefaultOptions() Options {
	conv := converter.DefaultOptions()
	return Options{
		Tracer:         TracerPT,
		Backend:        BackendHost,
		MeshLeafSize:   conv.MeshLeafSize,
		ObjectLeafSize: conv.ObjectLeafSize,
		MaxAnisotropy:  conv.MaxAnisotropy,
	}
}

// LoadOptions reads a TOML config file on top of DefaultOptions. Keys missing
// from the file keep their defaults and unknown keys are rejected.
func LoadOptions(path string) (Options, error) {
	opts := DefaultOptions()

	data, err := os.ReadFile(path)
	if err != nil {
		return opts, err
	}

	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err = dec.Decode(&opts); err != nil {
		return opts, fmt.Errorf("%w: %s: %v", ErrInvalidOptions, path, err)
	}
	return opts, opts.Validate()
}

// Validate checks the option values.
func (o Options) Validate() error {
	switch o.Tracer {
	case TracerPT, TracerRTX:
	default:
		return fmt.Errorf("%w: unknown tracer %q", ErrInvalidOptions, o.Tracer)
	}

	switch o.Backend {
	case BackendHost, BackendVulkan:
	default:
		return fmt.Errorf("%w: unknown backend %q", ErrInvalidOptions, o.Backend)
	}

	switch {
	case o.Device < 0:
		return fmt.Errorf("%w: device index %d", ErrInvalidOptions, o.Device)
	case o.MeshLeafSize < 1:
		return fmt.Errorf("%w: mesh leaf size must be at least 1", ErrInvalidOptions)
	case o.ObjectLeafSize < 1:
		return fmt.Errorf("%w: object leaf size must be at least 1", ErrInvalidOptions)
	case o.MaxAnisotropy < 0:
		return fmt.Errorf("%w: negative max anisotropy", ErrInvalidOptions)
	case o.Tracer == TracerRTX && o.Backend == BackendVulkan:
		return fmt.Errorf("%w: the vulkan backend does not support the %s tracer", ErrInvalidOptions, TracerRTX)
	}
	return nil
}

// ConverterOptions returns the scene conversion subset of the options.
func (o Options) ConverterOptions() converter.Options {
	return converter.Options{
		MeshLeafSize:   o.MeshLeafSize,
		ObjectLeafSize: o.ObjectLeafSize,
		MaxAnisotropy:  o.MaxAnisotropy,
	}
}
