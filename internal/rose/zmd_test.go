package rose

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildZmd(withDummies bool) []byte {
	w := &writer{}
	w.buf.WriteString("ZMD0003")

	w.uint32(2) // bone count
	// Root bone with a bogus stored parent, forced to -1 on read.
	w.uint32(5)
	w.cstring("root")
	w.vector3(Vector3{X: 100, Y: 200, Z: 300}) // centimetres
	w.float32(1)                               // w
	w.float32(0)                               // x
	w.float32(0)                               // y
	w.float32(0)                               // z

	w.uint32(0)
	w.cstring("spine")
	w.vector3(Vector3{X: 0, Y: 0, Z: 50})
	w.float32(0.5)
	w.float32(0.5)
	w.float32(0.5)
	w.float32(0.5)

	if withDummies {
		w.uint32(1)
		w.cstring("p_weapon")
		w.uint32(1) // parent (dummy order: name first)
		w.vector3(Vector3{X: 10, Y: 0, Z: 0})
		w.float32(1)
		w.float32(0)
		w.float32(0)
		w.float32(0)
	}
	return w.buf.Bytes()
}

func TestReadSkeleton(t *testing.T) {
	s, err := ReadSkeleton(buildZmd(true))
	require.NoError(t, err)

	require.Len(t, s.Bones, 2)
	assert.Equal(t, "ZMD0003", s.Identifier)

	root := s.Bones[0]
	assert.Equal(t, "root", root.Name)
	assert.Equal(t, int32(-1), root.ParentID, "first bone must be forced to root")
	assert.InDelta(t, 1.0, root.Position.X, 1e-6, "positions are scaled cm to m")
	assert.InDelta(t, 2.0, root.Position.Y, 1e-6)

	spine := s.Bones[1]
	assert.Equal(t, int32(0), spine.ParentID)
	assert.Equal(t, Quaternion{X: 0.5, Y: 0.5, Z: 0.5, W: 0.5}, spine.Rotation)

	require.Len(t, s.Dummies, 1)
	assert.Equal(t, "p_weapon", s.Dummies[0].Name)
	assert.Equal(t, int32(1), s.Dummies[0].ParentID)
	assert.InDelta(t, 0.1, s.Dummies[0].Position.X, 1e-6)
}

func TestReadSkeletonNoDummies(t *testing.T) {
	s, err := ReadSkeleton(buildZmd(false))
	require.NoError(t, err)
	assert.Len(t, s.Bones, 2)
	assert.Empty(t, s.Dummies)
}

func TestReadSkeletonBadMagic(t *testing.T) {
	data := buildZmd(false)
	copy(data, "XXX0003")
	_, err := ReadSkeleton(data)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad identifier")
}

func TestReadSkeletonTruncated(t *testing.T) {
	data := buildZmd(false)
	_, err := ReadSkeleton(data[:20])
	require.Error(t, err)
}

func TestReadSkeletonHugeBoneCount(t *testing.T) {
	w := &writer{}
	w.buf.WriteString("ZMD0003")
	w.uint32(0xffffffff)
	_, err := ReadSkeleton(w.buf.Bytes())
	require.Error(t, err)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}
