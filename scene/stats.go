package scene

import (
	"bytes"
	"fmt"

	"github.com/olekukonko/tablewriter"
)

// Summary holds object and asset counts for a scene.
type Summary struct {
	Objects   int
	Cameras   int
	Meshes    int
	SubMeshes int
	Triangles int
	Vertices  int

	// Distinct materials and textures, by identity.
	Materials    map[MaterialKind]int
	Textures     int
	TextureBytes int
}

// Summarize walks the scene and counts its contents.
func (s *Scene) Summarize() Summary {
	sum := Summary{Materials: make(map[MaterialKind]int)}
	seenMaterials := make(map[Material]struct{})
	seenTextures := make(map[*Texture]struct{})

	s.TraverseDownExcl(func(obj *Object) bool {
		sum.Objects++
		if obj.Camera != nil {
			sum.Cameras++
		}
		if obj.Mesh == nil {
			return true
		}

		sum.Meshes++
		for _, sub := range obj.Mesh.SubMeshes {
			sum.SubMeshes++
			if sub.Geometry != nil {
				sum.Triangles += sub.Geometry.TriangleCount()
				sum.Vertices += len(sub.Geometry.Positions)
			}
			if sub.Material == nil {
				continue
			}
			if _, seen := seenMaterials[sub.Material]; !seen {
				seenMaterials[sub.Material] = struct{}{}
				sum.Materials[sub.Material.Kind()]++
			}
			for _, tex := range sub.Material.Textures() {
				if _, seen := seenTextures[tex]; seen {
					continue
				}
				seenTextures[tex] = struct{}{}
				sum.Textures++
				if tex.Image != nil {
					sum.TextureBytes += len(tex.Image.Pixels)
				}
			}
		}
		return true
	})

	return sum
}

// Stats renders a table with the scene contents.
func (s *Scene) Stats() string {
	sum := s.Summarize()

	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoFormatHeaders(false)
	table.SetHeader([]string{"Asset Type", "Asset", "Count"})
	table.Append([]string{"Graph", "Objects", fmt.Sprint(sum.Objects)})
	table.Append([]string{"", "Cameras", fmt.Sprint(sum.Cameras)})
	table.Append([]string{" ", " ", " "})
	table.Append([]string{"Geometry", "Meshes", fmt.Sprint(sum.Meshes)})
	table.Append([]string{"", "Submeshes", fmt.Sprint(sum.SubMeshes)})
	table.Append([]string{"", "Triangles", fmt.Sprint(sum.Triangles)})
	table.Append([]string{"", "Vertices", fmt.Sprint(sum.Vertices)})
	table.Append([]string{" ", " ", " "})
	for _, kind := range []MaterialKind{MetallicRoughness, SpecularGlossiness, Unlit} {
		label := ""
		if kind == MetallicRoughness {
			label = "Materials"
		}
		table.Append([]string{label, kind.String(), fmt.Sprint(sum.Materials[kind])})
	}
	table.Append([]string{" ", " ", " "})
	table.Append([]string{"Textures", "Images", fmt.Sprint(sum.Textures)})
	table.SetFooter([]string{"Texture data", " ", FormatBytes(sum.TextureBytes)})

	table.Render()
	return buf.String()
}

// FormatBytes returns a byte count with the appropriate byte/kb/mb unit.
func FormatBytes(totalBytes int) string {
	if totalBytes < 1e3 {
		return fmt.Sprintf("%3d bytes", totalBytes)
	} else if totalBytes < 1e6 {
		return fmt.Sprintf("%3.1f kb", float32(totalBytes)/1e3)
	}
	return fmt.Sprintf("%5.1f mb", float32(totalBytes)/1e6)
}
