package rose

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleMeshV8() *Mesh {
	return &Mesh{
		Identifier:     "ZMS0008",
		Version:        8,
		Flags:          VertexPosition | VertexNormal | VertexUV1 | VertexBoneWeight | VertexBoneIndex,
		BoundingBoxMin: Vector3{X: -1, Y: -1, Z: 0},
		BoundingBoxMax: Vector3{X: 1, Y: 1, Z: 2},
		Bones:          []uint16{4, 9},
		Vertices: []Vertex{
			{
				Position:    Vector3{X: 0, Y: 0, Z: 0},
				Normal:      Vector3{Z: 1},
				BoneWeights: [4]float32{1, 0, 0, 0},
				BoneIndices: [4]uint16{4, 4, 4, 4},
				UV:          [4]Vector2{{X: 0, Y: 0}},
			},
			{
				Position:    Vector3{X: 1, Y: 0, Z: 0},
				Normal:      Vector3{Z: 1},
				BoneWeights: [4]float32{0.5, 0.5, 0, 0},
				BoneIndices: [4]uint16{4, 9, 4, 4},
				UV:          [4]Vector2{{X: 1, Y: 0}},
			},
			{
				Position:    Vector3{X: 0, Y: 1, Z: 0},
				Normal:      Vector3{Z: 1},
				BoneWeights: [4]float32{1, 0, 0, 0},
				BoneIndices: [4]uint16{9, 4, 4, 4},
				UV:          [4]Vector2{{X: 0, Y: 1}},
			},
		},
		Triangles: [][3]int32{{0, 1, 2}},
		Materials: []int32{0},
		Strips:    []uint16{},
		Pool:      1,
	}
}

func TestMeshRoundTripV8(t *testing.T) {
	orig := sampleMeshV8()
	data, err := EncodeMesh(orig)
	require.NoError(t, err)

	m, err := ReadMesh(data)
	require.NoError(t, err)

	assert.Equal(t, 8, m.Version)
	assert.Equal(t, orig.Flags, m.Flags)
	assert.Equal(t, orig.Bones, m.Bones)
	assert.Equal(t, orig.Triangles, m.Triangles)
	assert.Equal(t, orig.Materials, m.Materials)
	assert.Equal(t, orig.Pool, m.Pool)
	require.Len(t, m.Vertices, 3)
	assert.Equal(t, orig.Vertices[1].BoneIndices, m.Vertices[1].BoneIndices)
	assert.Equal(t, orig.Vertices[2].UV[0], m.Vertices[2].UV[0])
}

func TestMeshRoundTripV6Scaling(t *testing.T) {
	orig := &Mesh{
		Identifier:     "ZMS0006",
		Version:        6,
		Flags:          VertexPosition,
		BoundingBoxMin: Vector3{},
		BoundingBoxMax: Vector3{X: 1, Y: 1, Z: 1},
		Vertices: []Vertex{
			{Position: Vector3{X: 1.25, Y: -2.5, Z: 0.75}},
		},
		Triangles: [][3]int32{},
	}

	data, err := EncodeMesh(orig)
	require.NoError(t, err)

	m, err := ReadMesh(data)
	require.NoError(t, err)
	require.Len(t, m.Vertices, 1)
	// v5/v6 positions are stored ×100 and unscaled on read.
	assert.InDelta(t, 1.25, m.Vertices[0].Position.X, 1e-5)
	assert.InDelta(t, -2.5, m.Vertices[0].Position.Y, 1e-5)
}

func TestReadMeshUnsupportedVersion(t *testing.T) {
	w := &writer{}
	w.cstring("ZMS0004")
	_, err := ReadMesh(w.buf.Bytes())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported version")
}

func TestReadMeshTruncated(t *testing.T) {
	data, err := EncodeMesh(sampleMeshV8())
	require.NoError(t, err)
	_, err = ReadMesh(data[:len(data)-3])
	require.Error(t, err)
}

func TestReadMeshHugeCounts(t *testing.T) {
	t.Run("v6 bone table", func(t *testing.T) {
		w := &writer{}
		w.cstring("ZMS0005")
		w.uint32(uint32(VertexPosition))
		w.vector3(Vector3{})
		w.vector3(Vector3{})
		w.uint32(0x7fffffff) // bone count far beyond the input
		_, err := ReadMesh(w.buf.Bytes())
		require.Error(t, err)
		assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
	})

	t.Run("v8 vertices", func(t *testing.T) {
		w := &writer{}
		w.cstring("ZMS0008")
		w.uint32(uint32(VertexPosition))
		w.vector3(Vector3{})
		w.vector3(Vector3{})
		w.uint16(0)      // bones
		w.uint16(0xffff) // vertex count with no data behind it
		_, err := ReadMesh(w.buf.Bytes())
		require.Error(t, err)
		assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
	})
}

func TestVertexFlags(t *testing.T) {
	tests := []struct {
		name  string
		flags VertexFlags
		bones bool
		uv1   bool
	}{
		{"position only", VertexPosition, false, false},
		{"weights without indices", VertexPosition | VertexBoneWeight, false, false},
		{"full skinning", VertexBoneWeight | VertexBoneIndex, true, false},
		{"uv1", VertexUV1, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.flags.HasBones(); got != tt.bones {
				t.Errorf("HasBones() = %v, want %v", got, tt.bones)
			}
			if got := tt.flags.HasUV(1); got != tt.uv1 {
				t.Errorf("HasUV(1) = %v, want %v", got, tt.uv1)
			}
		})
	}
}
