package scene

import (
	"github.com/chewxy/math32"

	"github.com/PrimozLavric/LogiPathTracer/types"
)

// PerspectiveCamera is a camera component. The camera looks down the -Z axis
// of its object's world matrix.
type PerspectiveCamera struct {
	// Vertical field of view in degrees.
	FOV float32

	Aspect float32
	Near   float32
	Far    float32
}

// NewPerspectiveCamera creates a camera with the given vertical field of view.
func NewPerspectiveCamera(fov float32) *PerspectiveCamera {
	return &PerspectiveCamera{
		FOV:    fov,
		Aspect: 1,
		Near:   0.1,
		Far:    1000,
	}
}

// Projection returns the camera projection matrix.
func (c *PerspectiveCamera) Projection() types.Mat4 {
	f := 1.0 / math32.Tan(c.FOV*math32.Pi/360.0)
	nf := 1.0 / (c.Near - c.Far)
	return types.Mat4{
		f / c.Aspect, 0, 0, 0,
		0, f, 0, 0,
		0, 0, (c.Far + c.Near) * nf, -1,
		0, 0, 2 * c.Far * c.Near * nf, 0,
	}
}

// LookAt builds the world matrix of a camera placed at eye, looking at
// target with the given up vector.
func LookAt(eye, target, up types.Vec3) types.Mat4 {
	f := target.Sub(eye).Normalize()
	s := f.Cross(up.Normalize()).Normalize()
	u := s.Cross(f)
	return types.Mat4{
		s[0], s[1], s[2], 0,
		u[0], u[1], u[2], 0,
		-f[0], -f[1], -f[2], 0,
		eye[0], eye[1], eye[2], 1,
	}
}
