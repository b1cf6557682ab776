package converter

import (
	"fmt"

	"github.com/PrimozLavric/LogiPathTracer/scene"
	"github.com/PrimozLavric/LogiPathTracer/transfer"
)

// ResolveMaterial returns the metallic-roughness view of mat. Every other
// material kind yields ErrUnsupportedMaterial.
func ResolveMaterial(mat scene.Material) (*scene.MetallicRoughnessMaterial, error) {
	switch m := mat.(type) {
	case *scene.MetallicRoughnessMaterial:
		if m == nil {
			return nil, fmt.Errorf("%w: nil material", ErrUnsupportedMaterial)
		}
		return m, nil
	case *scene.SpecularGlossinessMaterial:
		return nil, fmt.Errorf("%w: %q uses the %s model", ErrUnsupportedMaterial, m.Name(), m.Kind())
	case *scene.UnlitMaterial:
		return nil, fmt.Errorf("%w: %q uses the %s model", ErrUnsupportedMaterial, m.Name(), m.Kind())
	case nil:
		return nil, fmt.Errorf("%w: submesh has no material", ErrUnsupportedMaterial)
	}
	return nil, fmt.Errorf("%w: %T", ErrUnsupportedMaterial, mat)
}

// TextureSet holds the registry indices of the texture slots of a
// metallic-roughness material.
type TextureSet struct {
	Color             uint32
	Emission          uint32
	MetallicRoughness uint32
	Transmission      uint32
}

// UploadTextures uploads every texture slot of mat through reg. Each slot is
// uploaded independently, so a texture referenced by two slots produces two
// registry entries. Empty slots get transfer.NoTexture.
func UploadTextures(u *transfer.Uploader, reg *transfer.TextureRegistry, mat *scene.MetallicRoughnessMaterial, maxAnisotropy float32) (TextureSet, error) {
	var (
		set TextureSet
		err error
	)

	slots := []struct {
		dst *uint32
		tex *scene.Texture
	}{
		{&set.Color, mat.BaseColorTexture},
		{&set.Emission, mat.EmissiveTexture},
		{&set.MetallicRoughness, mat.MetallicRoughnessTexture},
		{&set.Transmission, mat.TransmissionTexture},
	}
	for _, slot := range slots {
		if *slot.dst, err = reg.Upload(u, slot.tex, maxAnisotropy); err != nil {
			return set, fmt.Errorf("material %q: %w", mat.Name(), err)
		}
	}
	return set, nil
}

// ValidateGeometry checks that a submesh carries the channels every converter
// needs: positions and per-vertex normals. Indices must reference existing
// vertices.
func ValidateGeometry(sub *scene.SubMesh) error {
	geom := sub.Geometry
	switch {
	case geom == nil:
		return fmt.Errorf("%w: no geometry", ErrMissingGeometry)
	case !geom.HasVertices():
		return fmt.Errorf("%w: no vertex positions", ErrMissingGeometry)
	case !geom.HasNormals():
		return fmt.Errorf("%w: no vertex normals", ErrMissingGeometry)
	case geom.TriangleCount() == 0:
		return fmt.Errorf("%w: no triangles", ErrMissingGeometry)
	}

	vertexCount := uint32(len(geom.Positions))
	for i := 0; i < geom.Indices.Count(); i++ {
		if idx := geom.Indices.At(i); idx >= vertexCount {
			return fmt.Errorf("%w: index %d references vertex %d of %d", ErrMissingGeometry, i, idx, vertexCount)
		}
	}
	return nil
}

// Camera returns the first camera candidate or nil.
func Camera(c Converter) *scene.Object {
	if cams := c.Cameras(); len(cams) != 0 {
		return cams[0]
	}
	return nil
}
