package catalog

import (
	"bytes"
	"context"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "catalog.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStorePutGet(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	a := Asset{
		Path:      "MAPS/JUNON/30_30.HIM",
		Kind:      "heightmap",
		SizeBytes: 16916,
		Records:   65 * 65,
		Detail:    "65x65, height -100.0..250.0",
		ScannedAt: time.Now().UTC().Truncate(time.Second),
	}
	require.NoError(t, s.Put(ctx, a))

	got, err := s.Get(ctx, a.Path)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, a.Kind, got.Kind)
	assert.Equal(t, a.Records, got.Records)
	assert.Equal(t, a.Detail, got.Detail)

	missing, err := s.Get(ctx, "MAPS/NOPE.HIM")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestStorePutReplaces(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	a := Asset{Path: "A.ZMS", Kind: "mesh", SizeBytes: 10, Records: 3, ScannedAt: time.Now()}
	require.NoError(t, s.Put(ctx, a))
	a.Records = 7
	require.NoError(t, s.Put(ctx, a))

	got, err := s.Get(ctx, "A.ZMS")
	require.NoError(t, err)
	assert.Equal(t, int64(7), got.Records)

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestStoreStats(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	now := time.Now()
	require.NoError(t, s.Put(ctx, Asset{Path: "A.ZMS", Kind: "mesh", SizeBytes: 100, Records: 10, ScannedAt: now}))
	require.NoError(t, s.Put(ctx, Asset{Path: "B.ZMS", Kind: "mesh", SizeBytes: 200, Records: 20, ScannedAt: now}))
	require.NoError(t, s.Put(ctx, Asset{Path: "C.ZMD", Kind: "skeleton", SizeBytes: 50, Records: 5, ScannedAt: now}))

	stats, err := s.Stats(ctx)
	require.NoError(t, err)
	require.Len(t, stats, 2)
	assert.Equal(t, "mesh", stats[0].Kind)
	assert.Equal(t, int64(2), stats[0].Files)
	assert.Equal(t, int64(300), stats[0].SizeBytes)
	assert.Equal(t, int64(30), stats[0].Records)

	meshes, err := s.ByKind(ctx, "mesh")
	require.NoError(t, err)
	require.Len(t, meshes, 2)
	assert.Equal(t, "A.ZMS", meshes[0].Path)
}

func himFixture(width, length int32) []byte {
	var buf bytes.Buffer
	binary.Write(&buf, binary.LittleEndian, width)
	binary.Write(&buf, binary.LittleEndian, length)
	binary.Write(&buf, binary.LittleEndian, int32(4))
	binary.Write(&buf, binary.LittleEndian, float32(250))
	binary.Write(&buf, binary.LittleEndian, make([]float32, width*length))
	return buf.Bytes()
}

func tilFixture(width, length int32) []byte {
	var buf bytes.Buffer
	binary.Write(&buf, binary.LittleEndian, width)
	binary.Write(&buf, binary.LittleEndian, length)
	for i := int32(0); i < width*length; i++ {
		buf.Write([]byte{0, 0, 0})
		binary.Write(&buf, binary.LittleEndian, uint32(0))
	}
	return buf.Bytes()
}

// zmoFixture builds a 2-frame motion with position channels on
// successive bones.
func zmoFixture(channels int) []byte {
	var buf bytes.Buffer
	buf.WriteString("ZMO0002")
	buf.WriteByte(0)
	binary.Write(&buf, binary.LittleEndian, uint32(30)) // fps
	binary.Write(&buf, binary.LittleEndian, uint32(2))  // frames
	binary.Write(&buf, binary.LittleEndian, uint32(channels))
	for i := 0; i < channels; i++ {
		binary.Write(&buf, binary.LittleEndian, uint32(2)) // position
		binary.Write(&buf, binary.LittleEndian, uint32(i)) // bone
	}
	for frame := 0; frame < 2*channels; frame++ {
		binary.Write(&buf, binary.LittleEndian, [3]float32{})
	}
	return buf.Bytes()
}

func TestScannerMotionDetail(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "WALK.ZMO"), zmoFixture(2), 0o644))

	s := openStore(t)
	res, err := NewScanner(s, 1).Scan(context.Background(), root)
	require.NoError(t, err)
	require.Equal(t, 1, res.Scanned)

	got, err := s.Get(context.Background(), "WALK.ZMO")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, int64(2), got.Records)
	assert.Equal(t, "30 fps, 2 channels", got.Detail)
}

func TestScannerScan(t *testing.T) {
	root := t.TempDir()
	sub := filepath.Join(root, "MAPS", "JUNON")
	require.NoError(t, os.MkdirAll(sub, 0o755))

	require.NoError(t, os.WriteFile(filepath.Join(sub, "30_30.HIM"), himFixture(3, 3), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(sub, "31_30.HIM"), himFixture(3, 3), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(sub, "30_30.TIL"), tilFixture(2, 2), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(sub, "BROKEN.ZMS"), []byte("junk"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(sub, "README.TXT"), []byte("ignore"), 0o644))

	s := openStore(t)
	res, err := NewScanner(s, 4).Scan(context.Background(), root)
	require.NoError(t, err)

	assert.Equal(t, 3, res.Scanned)
	assert.Equal(t, 1, res.Failed)
	assert.Equal(t, 1, res.Skipped)

	got, err := s.Get(context.Background(), "MAPS/JUNON/30_30.HIM")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "heightmap", got.Kind)
	assert.Equal(t, int64(9), got.Records)

	stats, err := s.Stats(context.Background())
	require.NoError(t, err)
	require.Len(t, stats, 2)
	assert.Equal(t, "heightmap", stats[0].Kind)
	assert.Equal(t, int64(2), stats[0].Files)
}

func TestScannerEmptyTree(t *testing.T) {
	s := openStore(t)
	res, err := NewScanner(s, 1).Scan(context.Background(), t.TempDir())
	require.NoError(t, err)
	assert.Zero(t, res.Scanned)
	n, err := s.Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}
