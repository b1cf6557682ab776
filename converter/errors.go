package converter

import "errors"

var (
	ErrUnsupportedMaterial = errors.New("converter: unsupported material")
	ErrMissingGeometry     = errors.New("converter: submesh has no usable geometry")
	ErrNotLoaded           = errors.New("converter: no scene loaded")
)
