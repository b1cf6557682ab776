// Package pt converts scene graphs into the flat buffers consumed by the
// compute based path tracer: object records, an object BVH, leaf ordered
// vertices and the concatenated per-submesh triangle BVHs.
package pt

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/PrimozLavric/LogiPathTracer/arena"
	"github.com/PrimozLavric/LogiPathTracer/bvh"
	"github.com/PrimozLavric/LogiPathTracer/converter"
	"github.com/PrimozLavric/LogiPathTracer/gpu"
	"github.com/PrimozLavric/LogiPathTracer/log"
	"github.com/PrimozLavric/LogiPathTracer/scene"
	"github.com/PrimozLavric/LogiPathTracer/transfer"
	"github.com/PrimozLavric/LogiPathTracer/types"
)

// The device buffers of one scene generation.
type buffers struct {
	objects     gpu.Buffer
	objectNodes gpu.Buffer
	vertices    gpu.Buffer
	meshNodes   gpu.Buffer
}

func (b buffers) destroy() {
	for _, buf := range []gpu.Buffer{b.objects, b.objectNodes, b.vertices, b.meshNodes} {
		if buf != nil {
			buf.Destroy()
		}
	}
}

// Converter is the software tracer scene converter.
type Converter struct {
	logger   log.Logger
	uploader *transfer.Uploader
	opts     converter.Options

	state   converter.State
	cameras []*scene.Object

	textures    *transfer.TextureRegistry
	objects     *arena.Arena[ObjectData]
	objectNodes []BVHNode
	meshNodes   *arena.Arena[BVHNode]
	vertices    *arena.Arena[VertexPNT]
	layout      Layout

	// World space bounds of each object record, in record order.
	objectBounds []types.AABB

	buffers  buffers
	skipped  int
	loadTime time.Duration
}

var _ converter.Converter = (*Converter)(nil)

// New creates a converter that uploads through u.
func New(u *transfer.Uploader, opts converter.Options) *Converter {
	return &Converter{
		logger:    log.New("converter/pt"),
		uploader:  u,
		opts:      opts.WithDefaults(),
		textures:  transfer.NewTextureRegistry(),
		objects:   arena.New[ObjectData](0),
		meshNodes: arena.New[BVHNode](0),
		vertices:  arena.New[VertexPNT](0),
	}
}

// LoadScene converts sc into device buffers, replacing the previous scene.
// A scene without cameras leaves the converter Ready but empty.
func (c *Converter) LoadScene(sc *scene.Scene) error {
	c.reset()
	c.state = converter.Loading

	start := time.Now()
	c.logger.Noticef("converting scene %q", sc.Name)

	if err := c.load(sc); err != nil {
		c.reset()
		c.state = converter.Failed
		return err
	}

	c.loadTime = time.Since(start)
	c.state = converter.Ready
	c.logger.Noticef(
		"converted scene %q in %d ms (%d objects, %d vertices, %d mesh BVH nodes, %d textures, %d skipped submeshes)",
		sc.Name, c.loadTime.Milliseconds(), c.objects.Len(), c.vertices.Len(), c.meshNodes.Len(), c.textures.Len(), c.skipped,
	)
	return nil
}

func (c *Converter) load(sc *scene.Scene) error {
	var err error
	sc.TraverseDownExcl(func(obj *scene.Object) bool {
		if obj.Camera != nil {
			c.cameras = append(c.cameras, obj)
		}
		if obj.Mesh == nil {
			return true
		}

		world := scene.WorldMatrix(obj)
		for index, sub := range obj.Mesh.SubMeshes {
			if err = c.convertSubMesh(sub, world); err != nil {
				if errors.Is(err, converter.ErrUnsupportedMaterial) || errors.Is(err, converter.ErrMissingGeometry) {
					c.logger.Warningf("%q: skipping submesh %d: %v", obj.Name, index, err)
					c.skipped++
					err = nil
					continue
				}
				err = fmt.Errorf("pt: object %q submesh %d: %w", obj.Name, index, err)
				return false
			}
		}
		return true
	})
	if err != nil {
		return err
	}

	if len(c.cameras) == 0 {
		c.logger.Warning("the scene defines no cameras; nothing will be rendered")
		c.reset()
		return nil
	}

	c.partitionObjects()
	return c.upload()
}

// Flatten one submesh into an object record, its leaf ordered vertices and
// its triangle BVH.
func (c *Converter) convertSubMesh(sub *scene.SubMesh, world types.Mat4) error {
	mat, err := converter.ResolveMaterial(sub.Material)
	if err != nil {
		return err
	}
	if err = converter.ValidateGeometry(sub); err != nil {
		return err
	}

	tex, err := converter.UploadTextures(c.uploader, c.textures, mat, c.opts.MaxAnisotropy)
	if err != nil {
		return err
	}

	geom := sub.Geometry
	positions := geom.Triangles()
	normals := geom.TriangleNormals()
	uvs := geom.TriangleUVs(0)
	hasUV := geom.HasUVs(0)

	tris := make([][3]types.Vec3, positions.Count())
	for i := range tris {
		tris[i] = positions.At(i)
	}
	tree := bvh.Build(bvh.Triangles(tris), c.opts.MeshLeafSize, bvh.SurfaceAreaHeuristic)

	record := ObjectData{
		WorldMatrix:              world,
		InvWorldMatrix:           world.Inv(),
		BaseColorFactor:          mat.BaseColorFactor,
		EmissionFactor:           mat.EmissiveFactor,
		MetallicFactor:           mat.MetallicFactor,
		RoughnessFactor:          mat.RoughnessFactor,
		TransmissionFactor:       mat.TransmissionFactor,
		IOR:                      mat.IOR,
		ColorTexture:             tex.Color,
		EmissionTexture:          tex.Emission,
		MetallicRoughnessTexture: tex.MetallicRoughness,
		TransmissionTexture:      tex.Transmission,
	}
	if hasUV {
		record.Flags |= ObjectHasUV
	}

	nodes := make([]BVHNode, len(tree.Nodes))
	for i, n := range tree.Nodes {
		nodes[i] = newBVHNode(n)
	}
	record.BVHOffset = c.meshNodes.Append(nodes...)

	// Emit triangle corners in leaf order so leaf primitive ranges address
	// vertex ranges directly.
	verts := make([]VertexPNT, 0, 3*len(tree.Primitives))
	for _, prim := range tree.Primitives {
		p := tris[prim]
		n := normals.At(int(prim))
		var uv [3]types.Vec2
		if hasUV {
			uv = uvs.At(int(prim))
		}
		for corner := 0; corner < 3; corner++ {
			verts = append(verts, VertexPNT{Position: p[corner], Normal: n[corner], UV: uv[corner]})
		}
	}
	record.VerticesOffset = c.vertices.Append(verts...)

	c.objects.Append(record)
	c.objectBounds = append(c.objectBounds, tree.Bounds.Transform(world))
	return nil
}

// Build the object BVH and store the object records in its leaf order.
func (c *Converter) partitionObjects() {
	tree := bvh.Build(bvh.Boxes(c.objectBounds), c.opts.ObjectLeafSize, bvh.SurfaceAreaHeuristic)

	c.objects.Permute(tree.Primitives)
	bounds := make([]types.AABB, len(c.objectBounds))
	for i, src := range tree.Primitives {
		bounds[i] = c.objectBounds[src]
	}
	c.objectBounds = bounds

	c.objectNodes = make([]BVHNode, len(tree.Nodes))
	for i, n := range tree.Nodes {
		c.objectNodes[i] = newBVHNode(n)
	}

	c.layout = LayoutPN
	for _, obj := range c.objects.Items() {
		if obj.Flags&ObjectHasUV != 0 {
			c.layout = LayoutPNT
			break
		}
	}
}

func (c *Converter) upload() error {
	var err error
	if c.buffers.objects, err = transfer.CopySlice(c.uploader, c.objects.Items(), gpu.BufferUsageStorage); err != nil {
		return fmt.Errorf("pt: uploading object records: %w", err)
	}
	if c.buffers.objectNodes, err = transfer.CopySlice(c.uploader, c.objectNodes, gpu.BufferUsageStorage); err != nil {
		return fmt.Errorf("pt: uploading object BVH: %w", err)
	}
	if c.buffers.vertices, err = c.uploader.CopyToGPU(c.vertexData(), gpu.BufferUsageStorage); err != nil {
		return fmt.Errorf("pt: uploading vertices: %w", err)
	}
	if c.buffers.meshNodes, err = transfer.CopySlice(c.uploader, c.meshNodes.Items(), gpu.BufferUsageStorage); err != nil {
		return fmt.Errorf("pt: uploading mesh BVH: %w", err)
	}
	return nil
}

// Pack the vertices using the scene vertex layout.
func (c *Converter) vertexData() []byte {
	if c.layout == LayoutPNT {
		return transfer.Bytes(c.vertices.Items())
	}

	packed := make([]VertexPN, c.vertices.Len())
	for i, v := range c.vertices.Items() {
		packed[i] = VertexPN{Position: v.Position, Normal: v.Normal}
	}
	return transfer.Bytes(packed)
}

// Release the previous generation. Buffers are moved out before they are
// destroyed so no accessor observes a destroyed handle.
func (c *Converter) reset() {
	prev := c.buffers
	c.buffers = buffers{}
	prev.destroy()

	c.textures.Reset()
	c.objects.Reset()
	c.meshNodes.Reset()
	c.vertices.Reset()
	c.objectNodes = nil
	c.objectBounds = nil
	c.cameras = nil
	c.layout = LayoutPN
	c.skipped = 0
	c.loadTime = 0
}

// Destroy releases all device resources and returns the converter to Idle.
func (c *Converter) Destroy() {
	c.reset()
	c.state = converter.Idle
}

func (c *Converter) State() converter.State {
	return c.state
}

func (c *Converter) Cameras() []*scene.Object {
	return append([]*scene.Object(nil), c.cameras...)
}

func (c *Converter) Textures() []transfer.Texture {
	return c.textures.Entries()
}

// VertexLayout returns the layout of the vertex buffer.
func (c *Converter) VertexLayout() Layout {
	return c.layout
}

// ObjectBuffer returns the object record buffer.
func (c *Converter) ObjectBuffer() (gpu.Buffer, error) {
	return c.buffer(c.buffers.objects)
}

// ObjectBVHBuffer returns the object BVH node buffer.
func (c *Converter) ObjectBVHBuffer() (gpu.Buffer, error) {
	return c.buffer(c.buffers.objectNodes)
}

// VertexBuffer returns the vertex buffer. Its stride is VertexLayout().Stride().
func (c *Converter) VertexBuffer() (gpu.Buffer, error) {
	return c.buffer(c.buffers.vertices)
}

// MeshBVHBuffer returns the concatenated mesh BVH node buffer.
func (c *Converter) MeshBVHBuffer() (gpu.Buffer, error) {
	return c.buffer(c.buffers.meshNodes)
}

func (c *Converter) buffer(buf gpu.Buffer) (gpu.Buffer, error) {
	if c.state != converter.Ready || buf == nil {
		return nil, converter.ErrNotLoaded
	}
	return buf, nil
}

// Objects returns a copy of the object records in device order.
func (c *Converter) Objects() []ObjectData {
	return append([]ObjectData(nil), c.objects.Items()...)
}

// ObjectBounds returns the world space bounds of each object record.
func (c *Converter) ObjectBounds() []types.AABB {
	return append([]types.AABB(nil), c.objectBounds...)
}

// ObjectNodes returns a copy of the object BVH.
func (c *Converter) ObjectNodes() []BVHNode {
	return append([]BVHNode(nil), c.objectNodes...)
}

// MeshNodes returns a copy of the concatenated mesh BVHs.
func (c *Converter) MeshNodes() []BVHNode {
	return append([]BVHNode(nil), c.meshNodes.Items()...)
}

// Vertices returns a copy of the vertices. UVs are zero when the layout is
// LayoutPN.
func (c *Converter) Vertices() []VertexPNT {
	return append([]VertexPNT(nil), c.vertices.Items()...)
}

// Stats renders a table describing the last load.
func (c *Converter) Stats() string {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoFormatHeaders(false)
	table.SetHeader([]string{"Buffer", "Entries", "Size"})
	table.Append([]string{"Objects", fmt.Sprint(c.objects.Len()), scene.FormatBytes(c.objects.Len() * objectDataSize)})
	table.Append([]string{"Object BVH", fmt.Sprint(len(c.objectNodes)), scene.FormatBytes(len(c.objectNodes) * bvhNodeSize)})
	table.Append([]string{"Vertices (" + c.layout.String() + ")", fmt.Sprint(c.vertices.Len()), scene.FormatBytes(c.vertices.Len() * c.layout.Stride())})
	table.Append([]string{"Mesh BVH", fmt.Sprint(c.meshNodes.Len()), scene.FormatBytes(c.meshNodes.Len() * bvhNodeSize)})
	table.Append([]string{"Textures", fmt.Sprint(c.textures.Len()), " "})
	table.SetFooter([]string{"State", c.state.String(), fmt.Sprintf("%d ms", c.loadTime.Milliseconds())})
	table.Render()
	return buf.String()
}
