package rose

import (
	"fmt"
	"os"
)

// VertexFlags gates which per-vertex streams a ZMS file carries.
type VertexFlags uint32

const (
	VertexPosition   VertexFlags = 1 << 1
	VertexNormal     VertexFlags = 1 << 2
	VertexColor      VertexFlags = 1 << 3
	VertexBoneWeight VertexFlags = 1 << 4
	VertexBoneIndex  VertexFlags = 1 << 5
	VertexTangent    VertexFlags = 1 << 6
	VertexUV1        VertexFlags = 1 << 7
	VertexUV2        VertexFlags = 1 << 8
	VertexUV3        VertexFlags = 1 << 9
	VertexUV4        VertexFlags = 1 << 10
)

func (f VertexFlags) HasPositions() bool { return f&VertexPosition != 0 }
func (f VertexFlags) HasNormals() bool   { return f&VertexNormal != 0 }
func (f VertexFlags) HasColors() bool    { return f&VertexColor != 0 }
func (f VertexFlags) HasTangents() bool  { return f&VertexTangent != 0 }

// HasBones reports whether both weight and index streams are present;
// one without the other is meaningless for skinning.
func (f VertexFlags) HasBones() bool {
	return f&VertexBoneWeight != 0 && f&VertexBoneIndex != 0
}

// HasUV reports whether UV set n (1-4) is present.
func (f VertexFlags) HasUV(n int) bool {
	return f&(VertexUV1<<(n-1)) != 0
}

// Vertex is a fully decoded ZMS vertex. Streams absent from the file
// leave their fields zero.
type Vertex struct {
	Position    Vector3
	Normal      Vector3
	Color       Color4
	BoneWeights [4]float32
	BoneIndices [4]uint16
	Tangent     Vector3
	UV          [4]Vector2
}

// Mesh holds the contents of a ZMS file, versions 5 through 8.
// Bone indices in vertices are already remapped through the file's bone
// table, so they refer to skeleton bones directly.
type Mesh struct {
	Identifier     string
	Version        int
	Flags          VertexFlags
	BoundingBoxMin Vector3
	BoundingBoxMax Vector3
	Bones          []uint16
	Vertices       []Vertex
	Triangles      [][3]int32
	Materials      []int32
	Strips         []uint16
	Pool           uint16
}

// positionScale unscales version 5/6 vertex positions (stored ×100).
const positionScale = 100.0

// ReadMesh parses ZMS data.
func ReadMesh(data []byte) (*Mesh, error) {
	r := newReader(data)

	m := &Mesh{Identifier: r.cstring()}
	if err := r.err(); err != nil {
		return nil, fmt.Errorf("zms header: %w", err)
	}

	switch m.Identifier {
	case "ZMS0005":
		m.Version = 5
	case "ZMS0006":
		m.Version = 6
	case "ZMS0007":
		m.Version = 7
	case "ZMS0008":
		m.Version = 8
	default:
		return nil, fmt.Errorf("zms: unsupported version %q", m.Identifier)
	}

	m.Flags = VertexFlags(r.uint32())
	m.BoundingBoxMin = r.vector3()
	m.BoundingBoxMax = r.vector3()
	if err := r.err(); err != nil {
		return nil, fmt.Errorf("zms bounds: %w", err)
	}

	var err error
	if m.Version <= 6 {
		err = m.readV6(r)
	} else {
		err = m.readV8(r)
	}
	if err != nil {
		return nil, err
	}
	return m, nil
}

// encodedVertexSize returns the byte size of one vertex for the given
// flags. Prefixed streams (v5/6) add 4 bytes per stream; boneIndexWidth
// is 4 for v5/6 and 2 for v7/8. Never less than 1 so header counts can
// be checked against the remaining input.
func encodedVertexSize(f VertexFlags, prefix, boneIndexWidth int) int {
	n := 0
	if f.HasPositions() {
		n += prefix + 12
	}
	if f.HasNormals() {
		n += prefix + 12
	}
	if f.HasColors() {
		n += prefix + 16
	}
	if f.HasBones() {
		n += prefix + 16 + 4*boneIndexWidth
	}
	if f.HasTangents() {
		n += prefix + 12
	}
	for uv := 1; uv <= 4; uv++ {
		if f.HasUV(uv) {
			n += prefix + 8
		}
	}
	return max(n, 1)
}

// readV6 reads versions 5 and 6: every stream entry is prefixed with its
// index, bone references go through a lookup table, positions are scaled.
func (m *Mesh) readV6(r *reader) error {
	boneCount := int(r.uint32())
	if !r.checkCount(boneCount, 8) {
		return fmt.Errorf("zms bone table: %w", r.err())
	}
	m.Bones = make([]uint16, boneCount)
	for i := range m.Bones {
		r.uint32() // table slot, always sequential
		m.Bones[i] = uint16(r.uint32())
	}

	vertCount := int(r.uint32())
	if !r.checkCount(vertCount, encodedVertexSize(m.Flags, 4, 4)) {
		return fmt.Errorf("zms vertex count: %w", r.err())
	}
	m.Vertices = make([]Vertex, vertCount)

	if m.Flags.HasPositions() {
		for i := range m.Vertices {
			r.uint32()
			m.Vertices[i].Position = r.vector3().Scale(1.0 / positionScale)
		}
	}
	if m.Flags.HasNormals() {
		for i := range m.Vertices {
			r.uint32()
			m.Vertices[i].Normal = r.vector3()
		}
	}
	if m.Flags.HasColors() {
		for i := range m.Vertices {
			r.uint32()
			m.Vertices[i].Color = r.color4()
		}
	}
	if m.Flags.HasBones() {
		for i := range m.Vertices {
			r.uint32()
			for j := 0; j < 4; j++ {
				m.Vertices[i].BoneWeights[j] = r.float32()
			}
			for j := 0; j < 4; j++ {
				idx := r.uint32()
				if int(idx) < len(m.Bones) {
					m.Vertices[i].BoneIndices[j] = m.Bones[idx]
				}
			}
		}
	}
	if m.Flags.HasTangents() {
		for i := range m.Vertices {
			r.uint32()
			m.Vertices[i].Tangent = r.vector3()
		}
	}
	for uv := 1; uv <= 4; uv++ {
		if !m.Flags.HasUV(uv) {
			continue
		}
		for i := range m.Vertices {
			r.uint32()
			m.Vertices[i].UV[uv-1] = r.vector2()
		}
	}
	if err := r.err(); err != nil {
		return fmt.Errorf("zms vertices: %w", err)
	}

	triCount := int(r.uint32())
	if !r.checkCount(triCount, 16) {
		return fmt.Errorf("zms triangle count: %w", r.err())
	}
	m.Triangles = make([][3]int32, triCount)
	for i := range m.Triangles {
		r.uint32()
		m.Triangles[i] = [3]int32{r.int32(), r.int32(), r.int32()}
	}

	if m.Version >= 6 {
		matCount := int(r.uint32())
		if !r.checkCount(matCount, 8) {
			return fmt.Errorf("zms materials: %w", r.err())
		}
		m.Materials = make([]int32, matCount)
		for i := range m.Materials {
			r.uint32()
			m.Materials[i] = r.int32()
		}
	}
	if err := r.err(); err != nil {
		return fmt.Errorf("zms triangles: %w", err)
	}
	return nil
}

// readV8 reads versions 7 and 8: compact u16 counts, no index prefixes.
func (m *Mesh) readV8(r *reader) error {
	boneCount := int(r.uint16())
	if !r.checkCount(boneCount, 2) {
		return fmt.Errorf("zms bones: %w", r.err())
	}
	m.Bones = make([]uint16, boneCount)
	for i := range m.Bones {
		m.Bones[i] = r.uint16()
	}

	vertCount := int(r.uint16())
	if !r.checkCount(vertCount, encodedVertexSize(m.Flags, 0, 2)) {
		return fmt.Errorf("zms vertex count: %w", r.err())
	}
	m.Vertices = make([]Vertex, vertCount)

	if m.Flags.HasPositions() {
		for i := range m.Vertices {
			m.Vertices[i].Position = r.vector3()
		}
	}
	if m.Flags.HasNormals() {
		for i := range m.Vertices {
			m.Vertices[i].Normal = r.vector3()
		}
	}
	if m.Flags.HasColors() {
		for i := range m.Vertices {
			m.Vertices[i].Color = r.color4()
		}
	}
	if m.Flags.HasBones() {
		for i := range m.Vertices {
			for j := 0; j < 4; j++ {
				m.Vertices[i].BoneWeights[j] = r.float32()
			}
			for j := 0; j < 4; j++ {
				idx := r.uint16()
				if int(idx) < len(m.Bones) {
					m.Vertices[i].BoneIndices[j] = m.Bones[idx]
				}
			}
		}
	}
	if m.Flags.HasTangents() {
		for i := range m.Vertices {
			m.Vertices[i].Tangent = r.vector3()
		}
	}
	for uv := 1; uv <= 4; uv++ {
		if !m.Flags.HasUV(uv) {
			continue
		}
		for i := range m.Vertices {
			m.Vertices[i].UV[uv-1] = r.vector2()
		}
	}
	if err := r.err(); err != nil {
		return fmt.Errorf("zms vertices: %w", err)
	}

	triCount := int(r.uint16())
	if !r.checkCount(triCount, 6) {
		return fmt.Errorf("zms triangle count: %w", r.err())
	}
	m.Triangles = make([][3]int32, triCount)
	for i := range m.Triangles {
		m.Triangles[i] = [3]int32{int32(r.uint16()), int32(r.uint16()), int32(r.uint16())}
	}

	matCount := int(r.uint16())
	if !r.checkCount(matCount, 2) {
		return fmt.Errorf("zms materials: %w", r.err())
	}
	m.Materials = make([]int32, matCount)
	for i := range m.Materials {
		m.Materials[i] = int32(r.uint16())
	}

	stripCount := int(r.uint16())
	if !r.checkCount(stripCount, 2) {
		return fmt.Errorf("zms strips: %w", r.err())
	}
	m.Strips = make([]uint16, stripCount)
	for i := range m.Strips {
		m.Strips[i] = r.uint16()
	}

	if m.Version >= 8 {
		m.Pool = r.uint16()
	}
	if err := r.err(); err != nil {
		return fmt.Errorf("zms trailer: %w", err)
	}
	return nil
}

// LoadMesh reads and parses a ZMS file from disk.
func LoadMesh(path string) (*Mesh, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading zms %s: %w", path, err)
	}
	m, err := ReadMesh(data)
	if err != nil {
		return nil, fmt.Errorf("parsing zms %s: %w", path, err)
	}
	return m, nil
}
