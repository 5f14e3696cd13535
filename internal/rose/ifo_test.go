package rose

import (
	"encoding/binary"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeIfoObject(w *writer, name string, id uint32, pos Vector3) {
	w.uint8(uint8(len(name)))
	w.buf.WriteString(name)
	w.uint16(3)  // warp id
	w.uint16(0)  // event id
	w.uint32(1)  // object type
	w.uint32(id) // object id
	w.uint32(10) // minimap x
	w.uint32(20) // minimap y
	w.float32(1) // rotation wxyz
	w.float32(0)
	w.float32(0)
	w.float32(0)
	w.vector3(pos)
	w.vector3(Vector3{X: 1, Y: 1, Z: 1})
}

// buildIfo assembles a block table pointing at payloads written after it.
func buildIfo(blocks map[uint32]func(w *writer)) []byte {
	// Deterministic block order keeps offsets stable.
	var order []uint32
	for t := uint32(0); t <= 12; t++ {
		if _, ok := blocks[t]; ok {
			order = append(order, t)
		}
	}

	payloads := make(map[uint32][]byte, len(order))
	for _, t := range order {
		pw := &writer{}
		blocks[t](pw)
		payloads[t] = pw.buf.Bytes()
	}

	w := &writer{}
	w.uint32(uint32(len(order)))
	offset := 4 + 8*len(order)
	for _, t := range order {
		w.uint32(t)
		w.uint32(uint32(offset))
		offset += len(payloads[t])
	}
	for _, t := range order {
		w.buf.Write(payloads[t])
	}
	return w.buf.Bytes()
}

func TestReadMapData(t *testing.T) {
	data := buildIfo(map[uint32]func(w *writer){
		ifoBlockDeco: func(w *writer) {
			w.uint32(2)
			writeIfoObject(w, "TREE01", 100, Vector3{X: 1})
			writeIfoObject(w, "ROCK02", 101, Vector3{X: 2})
		},
		ifoBlockNpc: func(w *writer) {
			w.uint32(1)
			writeIfoObject(w, "NPC_SMITH", 5, Vector3{Y: 3})
			w.uint32(42) // ai id
			w.uint8(9)
			w.buf.WriteString("SMITH.QSD")
		},
		ifoBlockMonsterSpawn: func(w *writer) {
			w.uint32(1)
			writeIfoObject(w, "SPAWN01", 7, Vector3{Z: 4})
			w.uint8(5)
			w.buf.WriteString("basic") // spawn name
			w.uint32(2)                // basic spawn groups
			w.uint8(5)
			w.buf.WriteString("JELLY")
			w.uint32(10) // monster id
			w.uint32(3)  // count
			w.uint8(5)
			w.buf.WriteString("MOLDY")
			w.uint32(11)
			w.uint32(1)
			w.uint32(0)   // tactic groups
			w.uint32(30)  // interval
			w.uint32(6)   // limit
			w.uint32(250) // range
			w.uint32(100) // tactic points
		},
		ifoBlockWaterPlanes: func(w *writer) {
			w.float32(200)
			w.uint32(1)
			w.vector3(Vector3{X: 0, Y: 0, Z: 10})
			w.vector3(Vector3{X: 50, Y: 50, Z: 10})
		},
	})

	m, err := ReadMapData(data)
	require.NoError(t, err)

	require.Len(t, m.DecoObjects, 2)
	assert.Equal(t, "TREE01", m.DecoObjects[0].Name)
	assert.Equal(t, uint32(101), m.DecoObjects[1].ObjectID)
	assert.Equal(t, [2]uint32{10, 20}, m.DecoObjects[0].MinimapPosition)

	require.Len(t, m.Npcs, 1)
	assert.Equal(t, uint32(42), m.Npcs[0].AiID)
	assert.Equal(t, "SMITH.QSD", m.Npcs[0].QuestFileName)

	require.Len(t, m.MonsterSpawns, 1)
	sp := m.MonsterSpawns[0]
	require.Len(t, sp.BasicSpawns, 2)
	assert.Equal(t, SpawnGroup{ID: 10, Count: 3}, sp.BasicSpawns[0])
	assert.Empty(t, sp.TacticSpawns)
	assert.Equal(t, uint32(30), sp.Interval)
	assert.Equal(t, uint32(250), sp.Range)

	assert.Equal(t, float32(200), m.WaterSize)
	require.Len(t, m.WaterPlanes, 1)
	assert.Equal(t, float32(50), m.WaterPlanes[0].End.X)

	assert.Equal(t, 5, m.ObjectCount())
}

func TestReadMapDataBadOffset(t *testing.T) {
	w := &writer{}
	w.uint32(1)
	w.uint32(ifoBlockDeco)
	w.uint32(9999)
	_, err := ReadMapData(w.buf.Bytes())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad offset")
}

func TestReadMapDataTruncatedBlock(t *testing.T) {
	data := buildIfo(map[uint32]func(w *writer){
		ifoBlockWarp: func(w *writer) {
			w.uint32(1)
			writeIfoObject(w, "WARP01", 1, Vector3{})
		},
	})
	// Chop into the warp object payload.
	_, err := ReadMapData(data[:len(data)-8])
	require.Error(t, err)
}

func TestReadMapDataHugeCounts(t *testing.T) {
	t.Run("block table", func(t *testing.T) {
		w := &writer{}
		w.uint32(0x7fffffff)
		_, err := ReadMapData(w.buf.Bytes())
		require.Error(t, err)
		assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
	})

	t.Run("deco objects", func(t *testing.T) {
		w := &writer{}
		w.uint32(1)
		w.uint32(ifoBlockDeco)
		w.uint32(12) // offset just past the block table
		w.uint32(0x7fffffff)
		_, err := ReadMapData(w.buf.Bytes())
		require.Error(t, err)
		assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
	})
}

func TestReadMapDataEmpty(t *testing.T) {
	var hdr [4]byte
	binary.LittleEndian.PutUint32(hdr[:], 0)
	m, err := ReadMapData(hdr[:])
	require.NoError(t, err)
	assert.Equal(t, 0, m.ObjectCount())
}
