package scene

import "github.com/PrimozLavric/LogiPathTracer/types"

// Transform places an object relative to its parent.
type Transform struct {
	owner *Object
	local types.Mat4
	dirty bool
}

func newTransform(owner *Object, local types.Mat4) *Transform {
	return &Transform{owner: owner, local: local, dirty: true}
}

// Local returns the matrix relative to the parent object.
func (t *Transform) Local() types.Mat4 {
	return t.local
}

// SetLocal replaces the local matrix and marks the transform dirty.
func (t *Transform) SetLocal(m types.Mat4) {
	t.local = m
	t.dirty = true
}

// WorldMatrix composes the local matrix with the transforms of all ancestors.
// Ancestors without a transform component do not contribute.
func (t *Transform) WorldMatrix() types.Mat4 {
	world := t.local
	for obj := t.owner.parent; obj != nil; obj = obj.parent {
		if obj.Transform != nil {
			world = obj.Transform.local.Mul4(world)
		}
	}
	return world
}

// IsDirty reports whether the transform changed since the last ClearDirty.
// The renderer uses it to decide when camera state must be refreshed.
func (t *Transform) IsDirty() bool {
	return t.dirty
}

// ClearDirty resets the dirty flag.
func (t *Transform) ClearDirty() {
	t.dirty = false
}

// WorldMatrix returns the world matrix of obj or the identity matrix if the
// object has no transform component.
func WorldMatrix(obj *Object) types.Mat4 {
	if obj.Transform == nil {
		return types.Ident4()
	}
	return obj.Transform.WorldMatrix()
}
