package model

import (
	"encoding/binary"
	"fmt"

	"github.com/meigma/essence/arena"
	"github.com/meigma/essence/chunky"
)

// Semantic is the meaning of a vertex element.
type Semantic uint32

// Vertex element semantics.
const (
	Position     Semantic = 0
	BlendIndices Semantic = 1
	BlendWeight  Semantic = 2
	Normal       Semantic = 3
	Binormal     Semantic = 4
	Tangent      Semantic = 5
	Color        Semantic = 6
	TexCoord0    Semantic = 8
	TexCoord1    Semantic = 9
	TexCoord9    Semantic = 14
)

var semanticNames = map[Semantic]string{
	Position:     "POSITION",
	BlendIndices: "BLENDINDICES",
	BlendWeight:  "BLENDWEIGHT",
	Normal:       "NORMAL",
	Binormal:     "BINORMAL",
	Tangent:      "TANGENT",
	Color:        "COLOR",
	TexCoord0:    "TEXCOORD0",
	TexCoord1:    "TEXCOORD1",
	TexCoord9:    "TEXCOORD9",
}

func (s Semantic) String() string {
	if n, ok := semanticNames[s]; ok {
		return n
	}
	return fmt.Sprintf("semantic(%d)", uint32(s))
}

// Format is the storage format of a vertex element.
type Format uint32

// Vertex element formats.
const (
	B8G8R8A8Unorm  Format = 2
	R32G32Float    Format = 3
	R32G32B32Float Format = 4
	R8G8B8A8Uint   Format = 13
)

// Size returns the number of bytes an element of format f occupies, or 0
// for unknown formats.
func (f Format) Size() int {
	switch f {
	case B8G8R8A8Unorm, R8G8B8A8Uint:
		return 4
	case R32G32Float:
		return 8
	case R32G32B32Float:
		return 12
	default:
		return 0
	}
}

func (f Format) String() string {
	switch f {
	case B8G8R8A8Unorm:
		return "B8G8R8A8_UNORM"
	case R32G32Float:
		return "R32G32_FLOAT"
	case R32G32B32Float:
		return "R32G32B32_FLOAT"
	case R8G8B8A8Uint:
		return "R8G8B8A8_UINT"
	default:
		return fmt.Sprintf("format(%d)", uint32(f))
	}
}

// Element is one attribute of the vertex layout.
type Element struct {
	Semantic Semantic
	Format   Format
	Offset   int
}

// BoundingVolume is an oriented bounding box.
type BoundingVolume struct {
	Center   [3]float32
	Extents  [3]float32
	Rotation [9]float32
}

// boundingVolumeSize is the encoded size of a BoundingVolume.
const boundingVolumeSize = 60

// Mesh is a vertex buffer shared by one or more objects.
type Mesh struct {
	Name        string
	Material    *Material
	Objects     []*Object
	Layout      []Element
	VertexCount int
	Stride      int
	// Vertices aliases the model file.
	Vertices []byte
	// Bounds is nil when the mesh has no usable DATABVOL chunk.
	Bounds *BoundingVolume
}

// Object is an indexed primitive list drawn from its mesh's vertices.
type Object struct {
	Name string
	// Index is the position of the object in Model.Objects and the slot
	// used by Model.Visible.
	Index      int
	Mesh       *Mesh
	IndexCount int
	indexData  []byte
}

// Indices decodes the object's 16-bit triangle list indices.
func (o *Object) Indices() []uint16 {
	out := make([]uint16, o.IndexCount)
	for i := range out {
		out[i] = binary.LittleEndian.Uint16(o.indexData[2*i:])
	}
	return out
}

// objectHeaderSize is the smallest encoding of an object: index count,
// transform floats and flag, and an empty name.
const objectHeaderSize = 4 + 13 + 4

func (m *Model) loadMesh(c *chunky.Chunk) (*Mesh, error) {
	mesh := arena.Make[Mesh](m.arena, nil)
	mesh.Name = c.Name()
	mrgm := c.FindFirst("FOLDMRGM")
	data := mrgm.FindFirst("DATADATA v8")
	if data == nil {
		return nil, fmt.Errorf("%w: %q", ErrMissingMeshData, mesh.Name)
	}
	r := data.Reader()
	r.Skip(1)

	numObjects := r.Uint32()
	mesh.Objects = make([]*Object, 0, min(int(numObjects), r.Remaining()/objectHeaderSize))
	for range numObjects {
		count := r.Uint32()
		if uint64(count)*2 > uint64(r.Remaining()) {
			return nil, fmt.Errorf("model: mesh %q: %w: %d indices", mesh.Name, chunky.ErrUnexpectedEnd, count)
		}
		idx := r.Bytes(int(count) * 2)
		r.Skip(13)
		name := r.String()
		if r.Err() != nil {
			break
		}
		mesh.Objects = append(mesh.Objects, &Object{
			Name:       name,
			Mesh:       mesh,
			IndexCount: int(count),
			indexData:  idx,
		})
	}

	numElements := r.Uint32()
	offset := 0
	for i := uint32(0); i < numElements && r.Err() == nil; i++ {
		sem := Semantic(r.Uint32())
		r.Skip(4)
		format := Format(r.Uint32())
		if r.Err() != nil {
			break
		}
		if _, ok := semanticNames[sem]; !ok {
			return nil, fmt.Errorf("%w: mesh %q element %d has %s", ErrUnsupportedLayout, mesh.Name, i, sem)
		}
		size := format.Size()
		if size == 0 {
			return nil, fmt.Errorf("%w: mesh %q element %d has %s", ErrUnsupportedLayout, mesh.Name, i, format)
		}
		mesh.Layout = append(mesh.Layout, Element{Semantic: sem, Format: format, Offset: offset})
		offset += size
	}

	numVerts := r.Uint32()
	stride := r.Uint32()
	if err := r.Err(); err != nil {
		return nil, fmt.Errorf("model: mesh %q: %w", mesh.Name, err)
	}
	if int(stride) != offset {
		return nil, fmt.Errorf("%w: mesh %q declares %d, layout is %d bytes", ErrStrideMismatch, mesh.Name, stride, offset)
	}
	if uint64(numVerts)*uint64(stride) > uint64(r.Remaining()) {
		return nil, fmt.Errorf("model: mesh %q: %w: %d vertices of %d bytes", mesh.Name, chunky.ErrUnexpectedEnd, numVerts, stride)
	}
	mesh.VertexCount = int(numVerts)
	mesh.Stride = int(stride)
	mesh.Vertices = r.Bytes(mesh.VertexCount * mesh.Stride)
	r.Skip(4)
	matName := r.String()
	if err := r.Err(); err != nil {
		return nil, fmt.Errorf("model: mesh %q: %w", mesh.Name, err)
	}
	mat, ok := m.materials[matName]
	if !ok {
		return nil, fmt.Errorf("%w: mesh %q uses %q", ErrMissingMaterial, mesh.Name, matName)
	}
	mesh.Material = mat

	if bvol := mrgm.FindFirst("DATABVOL v2"); bvol != nil && bvol.Size() > boundingVolumeSize {
		var bv BoundingVolume
		br := chunky.NewReader(bvol.Contents()[1 : 1+boundingVolumeSize])
		if br.Decode(&bv) == nil {
			mesh.Bounds = &bv
		}
	}
	return mesh, nil
}
