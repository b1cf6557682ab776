package scene

import (
	"fmt"

	"github.com/PrimozLavric/LogiPathTracer/types"
)

// MaterialKind identifies a material model.
type MaterialKind uint8

const (
	MetallicRoughness MaterialKind = iota
	SpecularGlossiness
	Unlit
)

func (k MaterialKind) String() string {
	switch k {
	case MetallicRoughness:
		return "metallic-roughness"
	case SpecularGlossiness:
		return "specular-glossiness"
	case Unlit:
		return "unlit"
	}
	return fmt.Sprintf("MaterialKind(%d)", uint8(k))
}

// Material is implemented by the material models defined in this package.
// The set is closed; consumers switch over the concrete types.
type Material interface {
	Name() string
	Kind() MaterialKind

	// Textures returns every texture the material references.
	Textures() []*Texture

	sealed()
}

type materialBase struct {
	name string
}

func (m materialBase) Name() string { return m.name }
func (m materialBase) sealed()      {}

// MetallicRoughnessMaterial is a physically based material with a
// metal/roughness workflow and optional transmission.
type MetallicRoughnessMaterial struct {
	materialBase

	BaseColorFactor  types.Vec4
	BaseColorTexture *Texture

	EmissiveFactor  types.Vec3
	EmissiveTexture *Texture

	MetallicFactor           float32
	RoughnessFactor          float32
	MetallicRoughnessTexture *Texture

	TransmissionFactor  float32
	TransmissionTexture *Texture

	IOR float32
}

// NewMetallicRoughnessMaterial creates a white dielectric material.
func NewMetallicRoughnessMaterial(name string) *MetallicRoughnessMaterial {
	return &MetallicRoughnessMaterial{
		materialBase:    materialBase{name: name},
		BaseColorFactor: types.Vec4{1, 1, 1, 1},
		MetallicFactor:  0,
		RoughnessFactor: 1,
		IOR:             1.5,
	}
}

func (m *MetallicRoughnessMaterial) Kind() MaterialKind { return MetallicRoughness }

func (m *MetallicRoughnessMaterial) Textures() []*Texture {
	return nonNilTextures(m.BaseColorTexture, m.EmissiveTexture, m.MetallicRoughnessTexture, m.TransmissionTexture)
}

// SpecularGlossinessMaterial is a physically based material with a
// specular/glossiness workflow.
type SpecularGlossinessMaterial struct {
	materialBase

	DiffuseFactor  types.Vec4
	DiffuseTexture *Texture

	SpecularFactor            types.Vec3
	GlossinessFactor          float32
	SpecularGlossinessTexture *Texture
}

// NewSpecularGlossinessMaterial creates a white specular-glossiness material.
func NewSpecularGlossinessMaterial(name string) *SpecularGlossinessMaterial {
	return &SpecularGlossinessMaterial{
		materialBase:     materialBase{name: name},
		DiffuseFactor:    types.Vec4{1, 1, 1, 1},
		SpecularFactor:   types.Vec3{1, 1, 1},
		GlossinessFactor: 1,
	}
}

func (m *SpecularGlossinessMaterial) Kind() MaterialKind { return SpecularGlossiness }

func (m *SpecularGlossinessMaterial) Textures() []*Texture {
	return nonNilTextures(m.DiffuseTexture, m.SpecularGlossinessTexture)
}

// UnlitMaterial outputs its color without any lighting.
type UnlitMaterial struct {
	materialBase

	Color        types.Vec4
	ColorTexture *Texture
}

// NewUnlitMaterial creates an unlit material with the given color.
func NewUnlitMaterial(name string, color types.Vec4) *UnlitMaterial {
	return &UnlitMaterial{
		materialBase: materialBase{name: name},
		Color:        color,
	}
}

func (m *UnlitMaterial) Kind() MaterialKind { return Unlit }

func (m *UnlitMaterial) Textures() []*Texture {
	return nonNilTextures(m.ColorTexture)
}

func nonNilTextures(textures ...*Texture) []*Texture {
	out := textures[:0]
	for _, tex := range textures {
		if tex != nil {
			out = append(out, tex)
		}
	}
	return out
}
