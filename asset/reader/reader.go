// Package reader parses scene description files into a scene graph.
package reader

import (
	"errors"
	"fmt"
	"strings"

	"github.com/PrimozLavric/LogiPathTracer/asset"
	"github.com/PrimozLavric/LogiPathTracer/scene"
)

var ErrUnsupportedFormat = errors.New("reader: unsupported scene format")

// The Reader interface is implemented by all scene readers.
type Reader interface {
	// Read a scene definition from a resource.
	Read(*asset.Resource) (*scene.Scene, error)
}

// ParseError reports a syntax or reference error in a scene file. Stack
// lists the include directives that led to File, innermost first.
type ParseError struct {
	File  string
	Line  int
	Err   error
	Stack []string
}

func (e *ParseError) Error() string {
	msg := fmt.Sprintf("[%s: %d] error: %s", e.File, e.Line, e.Err)
	if len(e.Stack) != 0 {
		msg += "\n" + strings.Join(e.Stack, "\n")
	}
	return msg
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// ReadScene reads a scene from a file, selecting the reader by extension.
func ReadScene(filename string) (*scene.Scene, error) {
	sc, _, err := Load(filename)
	return sc, err
}

// Load reads a scene like ReadScene and also returns the local files the
// scene was assembled from, starting with filename itself.
func Load(filename string) (*scene.Scene, []string, error) {
	res, err := asset.NewResource(filename, nil)
	if err != nil {
		return nil, nil, err
	}
	defer res.Close()

	switch res.Ext() {
	case ".obj":
		r := newWavefrontReader()
		sc, err := r.Read(res)
		if err != nil {
			return nil, nil, err
		}
		return sc, r.files, nil
	}
	return nil, nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, res.Ext())
}
