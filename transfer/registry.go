package transfer

import (
	"github.com/google/uuid"

	"github.com/PrimozLavric/LogiPathTracer/log"
	"github.com/PrimozLavric/LogiPathTracer/scene"
)

// NoTexture is the texture index stored in records that do not reference a
// texture. It never collides with a registry index.
const NoTexture uint32 = 0xFFFFFFFF

// TextureRegistry is an append-only list of device textures for one scene
// load. Indices returned by Add are stable until the next Reset. Textures
// are never deduplicated: adding the same scene texture twice produces two
// entries.
type TextureRegistry struct {
	logger log.Logger

	generation uuid.UUID
	entries    []Texture

	// Number of uploads per scene texture in this generation.
	uploads map[*scene.Texture]int
}

// NewTextureRegistry creates an empty registry.
func NewTextureRegistry() *TextureRegistry {
	return &TextureRegistry{
		logger:     log.New("transfer"),
		generation: uuid.New(),
		uploads:    make(map[*scene.Texture]int),
	}
}

// Generation identifies the current set of entries.
func (r *TextureRegistry) Generation() uuid.UUID {
	return r.generation
}

// Add appends tex and returns its index.
func (r *TextureRegistry) Add(tex Texture) uint32 {
	r.entries = append(r.entries, tex)
	return uint32(len(r.entries) - 1)
}

// Upload copies tex to the device and appends it to the registry. A nil
// texture is not uploaded and yields NoTexture.
func (r *TextureRegistry) Upload(u *Uploader, tex *scene.Texture, maxAnisotropy float32) (uint32, error) {
	if tex == nil {
		return NoTexture, nil
	}

	gpuTex, err := u.CopyTextureToGPU(tex, maxAnisotropy)
	if err != nil {
		return NoTexture, err
	}

	r.uploads[tex]++
	if n := r.uploads[tex]; n > 1 {
		r.logger.Debugf("texture %q uploaded %d times in generation %s", tex.Name, n, r.generation)
	}
	return r.Add(gpuTex), nil
}

// Len returns the number of entries.
func (r *TextureRegistry) Len() int {
	return len(r.entries)
}

// Entries returns a copy of the registry entries.
func (r *TextureRegistry) Entries() []Texture {
	return append([]Texture(nil), r.entries...)
}

// Reset destroys every entry of the current generation and starts a new,
// empty generation.
func (r *TextureRegistry) Reset() {
	prev := r.entries
	r.entries = nil
	for _, tex := range prev {
		tex.Destroy()
	}

	if len(prev) != 0 {
		r.logger.Debugf("released %d textures of generation %s", len(prev), r.generation)
	}
	r.generation = uuid.New()
	clear(r.uploads)
}
