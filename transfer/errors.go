package transfer

import "errors"

var (
	ErrNilTexture        = errors.New("transfer: texture has no image data")
	ErrUnsupportedFormat = errors.New("transfer: unsupported texture format")
)
