// Package converter defines the contract shared by the scene converters that
// turn a scene graph into device resources.
package converter

import (
	"github.com/PrimozLavric/LogiPathTracer/scene"
	"github.com/PrimozLavric/LogiPathTracer/transfer"
)

// State is the lifecycle state of a converter.
type State uint8

const (
	Idle State = iota
	Loading
	Ready
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	case Failed:
		return "failed"
	}
	return "unknown"
}

// Converter flattens a scene graph into device resources. LoadScene performs
// a full rebuild, releasing everything produced by the previous call before
// allocating the new generation. Accessors must not be called while a load
// is in flight.
type Converter interface {
	// LoadScene converts sc. It blocks until every upload and build has
	// completed.
	LoadScene(sc *scene.Scene) error

	// Cameras returns the camera candidates found by the last load.
	Cameras() []*scene.Object

	// Textures returns the device textures of the last load. A record's
	// texture index selects an entry of this list.
	Textures() []transfer.Texture

	State() State

	// Stats renders a summary of the last load.
	Stats() string

	// Destroy releases all device resources.
	Destroy()
}

// Options tune scene conversion.
type Options struct {
	// Max triangles per leaf of a mesh BVH.
	MeshLeafSize int

	// Max objects per leaf of the object BVH.
	ObjectLeafSize int

	// Anisotropy applied to textures that do not define a sampler.
	MaxAnisotropy float32
}

// WithDefaults replaces leaf sizes below one with their default values.
func (o Options) WithDefaults() Options {
	def := DefaultOptions()
	if o.MeshLeafSize < 1 {
		o.MeshLeafSize = def.MeshLeafSize
	}
	if o.ObjectLeafSize < 1 {
		o.ObjectLeafSize = def.ObjectLeafSize
	}
	return o
}

// DefaultOptions returns the options used when none are specified.
func DefaultOptions() Options {
	return Options{
		MeshLeafSize:   4,
		ObjectLeafSize: 1,
		MaxAnisotropy:  16,
	}
}
