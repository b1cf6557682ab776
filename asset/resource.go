// Package asset opens the files a scene is assembled from. Resources are
// local files or http(s) streams and can be resolved relative to each other,
// so a scene file can reference its materials and textures by relative path.
package asset

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
)

var (
	ErrUnsupportedScheme = errors.New("resource: unsupported scheme")
	ErrFetchFailed       = errors.New("resource: fetch failed")
)

// Resource is a readable file or remote stream. Callers must Close it.
type Resource struct {
	io.ReadCloser
	url *url.URL
}

// Path returns the location of the resource.
func (r *Resource) Path() string {
	return r.url.String()
}

// Name returns the last element of the resource path.
func (r *Resource) Name() string {
	return path.Base(r.url.Path)
}

// Ext returns the lower-cased extension of the resource path, including the dot.
func (r *Resource) Ext() string {
	return strings.ToLower(path.Ext(r.url.Path))
}

// IsRemote returns true if the resource is streamed over http/https.
func (r *Resource) IsRemote() bool {
	return r.url.Scheme != ""
}

// LocalPath returns the filesystem path of a local resource and false for
// remote and in-memory resources.
func (r *Resource) LocalPath() (string, bool) {
	if r.IsRemote() || r.url.Path == "" {
		return "", false
	}
	if _, err := os.Stat(r.url.Path); err != nil {
		return "", false
	}
	return filepath.Clean(r.url.Path), true
}

// NewResource opens a resource. If relTo is not nil and pathToResource has
// no scheme, the path is resolved against the directory of relTo.
func NewResource(pathToResource string, relTo *Resource) (*Resource, error) {
	u, err := url.Parse(strings.ReplaceAll(pathToResource, `\`, `/`))
	if err != nil {
		return nil, fmt.Errorf("resource: parsing %q: %w", pathToResource, err)
	}

	if u.Scheme == "" && relTo != nil && !filepath.IsAbs(u.Path) {
		if u, err = resolve(u.Path, relTo); err != nil {
			return nil, err
		}
	}

	var reader io.ReadCloser
	switch u.Scheme {
	case "":
		if reader, err = os.Open(filepath.Clean(u.Path)); err != nil {
			return nil, fmt.Errorf("resource: %w", err)
		}
	case "http", "https":
		resp, err := http.Get(u.String())
		if err != nil {
			return nil, fmt.Errorf("resource: could not fetch %q: %w", u.String(), err)
		}
		if resp.StatusCode >= 400 {
			resp.Body.Close()
			return nil, fmt.Errorf("%w: %q: status %d", ErrFetchFailed, u.String(), resp.StatusCode)
		}
		reader = resp.Body
	default:
		return nil, fmt.Errorf("%w %q", ErrUnsupportedScheme, u.Scheme)
	}

	return &Resource{
		ReadCloser: reader,
		url:        u,
	}, nil
}

// resolve joins a relative path with the directory of parent.
func resolve(rel string, parent *Resource) (*url.URL, error) {
	u := *parent.url
	if u.Scheme != "" {
		u.Path = path.Join(path.Dir(u.Path), rel)
		return &u, nil
	}

	prefix, err := filepath.Abs(parent.url.Path)
	if err != nil {
		return nil, fmt.Errorf("resource: resolving %q against %q: %w", rel, parent.url.Path, err)
	}
	u.Path = filepath.Join(filepath.Dir(prefix), rel)
	return &u, nil
}

// NewResourceFromStream wraps source in a resource called name.
func NewResourceFromStream(name string, source io.Reader) *Resource {
	u, err := url.Parse(name)
	if err != nil {
		u = &url.URL{Path: name}
	}
	return &Resource{
		ReadCloser: io.NopCloser(source),
		url:        u,
	}
}
