package scene

// Mesh is a mesh component made of one or more submeshes.
type Mesh struct {
	Name      string
	SubMeshes []*SubMesh
}

// SubMesh pairs a geometry with the material used to shade it.
type SubMesh struct {
	Geometry *Geometry
	Material Material
}
