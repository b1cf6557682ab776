// Package scene implements the scene graph consumed by the scene converters:
// a tree of objects carrying optional transform, camera and mesh components.
package scene

import "github.com/PrimozLavric/LogiPathTracer/types"

// Scene is the root of a scene graph.
type Scene struct {
	Name string

	root *Object
}

// NewScene creates an empty scene.
func NewScene(name string) *Scene {
	return &Scene{
		Name: name,
		root: NewObject(name),
	}
}

// Root returns the scene root object.
func (s *Scene) Root() *Object {
	return s.root
}

// Children returns the top-level scene objects.
func (s *Scene) Children() []*Object {
	return s.root.children
}

// Add attaches obj as a top-level scene object and returns it.
func (s *Scene) Add(obj *Object) *Object {
	return s.root.AddChild(obj)
}

// TraverseDown visits the root and every descendant depth first. The
// traversal stops as soon as fn returns false.
func (s *Scene) TraverseDown(fn func(*Object) bool) {
	s.root.TraverseDown(fn)
}

// TraverseDownExcl behaves like TraverseDown but does not visit the root.
func (s *Scene) TraverseDownExcl(fn func(*Object) bool) {
	s.root.TraverseDownExcl(fn)
}

// Object is a scene graph node.
type Object struct {
	Name string

	// Optional components.
	Transform *Transform
	Camera    *PerspectiveCamera
	Mesh      *Mesh

	parent   *Object
	children []*Object
}

// NewObject creates a detached object without components.
func NewObject(name string) *Object {
	return &Object{Name: name}
}

// AddChild attaches child to this object and returns it. A child that
// already has a parent is detached from it first.
func (o *Object) AddChild(child *Object) *Object {
	if child.parent != nil {
		child.parent.removeChild(child)
	}
	child.parent = o
	o.children = append(o.children, child)
	if child.Transform != nil {
		child.Transform.dirty = true
	}
	return child
}

func (o *Object) removeChild(child *Object) {
	for i, c := range o.children {
		if c == child {
			o.children = append(o.children[:i], o.children[i+1:]...)
			break
		}
	}
	child.parent = nil
}

// Parent returns the parent object or nil for detached and root objects.
func (o *Object) Parent() *Object {
	return o.parent
}

// Children returns the object's children in insertion order.
func (o *Object) Children() []*Object {
	return o.children
}

// SetTransform attaches a transform component with the given local matrix.
func (o *Object) SetTransform(local types.Mat4) *Transform {
	o.Transform = newTransform(o, local)
	return o.Transform
}

// TraverseDown visits o and every descendant depth first. It returns false
// if fn stopped the traversal.
func (o *Object) TraverseDown(fn func(*Object) bool) bool {
	if !fn(o) {
		return false
	}
	return o.TraverseDownExcl(fn)
}

// TraverseDownExcl visits every descendant of o depth first. It returns
// false if fn stopped the traversal.
func (o *Object) TraverseDownExcl(fn func(*Object) bool) bool {
	for _, child := range o.children {
		if !child.TraverseDown(fn) {
			return false
		}
	}
	return true
}
