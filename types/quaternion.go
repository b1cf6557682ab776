package types

import "github.com/chewxy/math32"

// Quat is a rotation quaternion with vector part V and scalar part W.
type Quat struct {
	V Vec3
	W float32
}

// Create identity quaternion.
func QuatIdent() Quat {
	return Quat{W: 1.0}
}

// Create a quaternion from an axis vector and an angle in radians.
func QuatFromAxisAngle(axis Vec3, angle float32) Quat {
	sin, cos := math32.Sincos(angle * 0.5)
	return Quat{
		V: axis.Normalize().Mul(sin),
		W: cos,
	}
}

// Create a quaternion from yaw (Y axis), pitch (X axis) and roll (Z axis)
// angles in degrees. Rotations are applied in roll, pitch, yaw order.
func QuatFromEuler(yaw, pitch, roll float32) Quat {
	const deg2rad = math32.Pi / 180.0
	qy := QuatFromAxisAngle(Vec3{0, 1, 0}, yaw*deg2rad)
	qx := QuatFromAxisAngle(Vec3{1, 0, 0}, pitch*deg2rad)
	qz := QuatFromAxisAngle(Vec3{0, 0, 1}, roll*deg2rad)
	return qy.Mul(qx).Mul(qz).Normalize()
}

// Multiply two quaternions. q1.Mul(q2) applies q2 first.
func (q1 Quat) Mul(q2 Quat) Quat {
	return Quat{
		V: q1.V.Cross(q2.V).Add(q2.V.Mul(q1.W)).Add(q1.V.Mul(q2.W)),
		W: q1.W*q2.W - q1.V.Dot(q2.V),
	}
}

// Rotate a vector by this quaternion.
func (q1 Quat) Rotate(v Vec3) Vec3 {
	cross := q1.V.Cross(v)
	return v.Add(cross.Mul(2 * q1.W)).Add(q1.V.Mul(2).Cross(cross))
}

// Length of the quaternion.
func (q1 Quat) Len() float32 {
	return math32.Sqrt(q1.W*q1.W + q1.V.Dot(q1.V))
}

// Normalize the quaternion. A zero quaternion normalizes to the identity.
func (q1 Quat) Normalize() Quat {
	length := q1.Len()
	if math32.Abs(1-length) < floatCmpEpsilon {
		return q1
	}
	if length == 0 {
		return QuatIdent()
	}
	return Quat{q1.V.Mul(1 / length), q1.W / length}
}

// Returns the homogeneous 3D rotation matrix corresponding to the quaternion.
func (q1 Quat) Mat4() Mat4 {
	w, x, y, z := q1.W, q1.V[0], q1.V[1], q1.V[2]
	return Mat4{
		1 - 2*y*y - 2*z*z, 2*x*y + 2*w*z, 2*x*z - 2*w*y, 0,
		2*x*y - 2*w*z, 1 - 2*x*x - 2*z*z, 2*y*z + 2*w*x, 0,
		2*x*z + 2*w*y, 2*y*z - 2*w*x, 1 - 2*x*x - 2*y*y, 0,
		0, 0, 0, 1,
	}
}
