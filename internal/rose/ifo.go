package rose

import (
	"fmt"
	"os"
)

// IFO block types. Each block in the file header carries its type and an
// absolute offset to its payload.
const (
	ifoBlockMapInfo      = 0 // deprecated
	ifoBlockDeco         = 1
	ifoBlockNpc          = 2
	ifoBlockCnst         = 3
	ifoBlockSound        = 4
	ifoBlockEffect       = 5
	ifoBlockAnimated     = 6
	ifoBlockWater        = 7 // deprecated
	ifoBlockMonsterSpawn = 8
	ifoBlockWaterPlanes  = 9
	ifoBlockWarp         = 10
	ifoBlockCollision    = 11
	ifoBlockEvent        = 12
)

// MapObject is the placement record shared by all IFO object kinds.
type MapObject struct {
	Name            string
	WarpID          uint16
	EventID         uint16
	ObjectType      uint32
	ObjectID        uint32
	MinimapPosition [2]uint32
	Rotation        Quaternion
	Position        Vector3
	Scale           Vector3
}

// MapNpc is an NPC placement with its AI and quest bindings.
type MapNpc struct {
	Object        MapObject
	AiID          uint32
	QuestFileName string
}

// SpawnGroup is one monster id/count pair inside a spawn point.
type SpawnGroup struct {
	ID    uint32
	Count uint32
}

// SpawnPoint describes a monster spawn area.
type SpawnPoint struct {
	Object       MapObject
	BasicSpawns  []SpawnGroup
	TacticSpawns []SpawnGroup
	Interval     uint32
	LimitCount   uint32
	Range        uint32
	TacticPoints uint32
}

// MapEffect places an effect file in the world.
type MapEffect struct {
	Object     MapObject
	EffectPath string
}

// MapSound places a looping sound emitter in the world.
type MapSound struct {
	Object    MapObject
	SoundPath string
	Range     uint32
	Interval  uint32
}

// MapEvent binds a placed object to quest trigger scripting.
type MapEvent struct {
	Object             MapObject
	QuestTriggerName   string
	ScriptFunctionName string
}

// WaterPlane is an axis-aligned water quad given by two corners.
type WaterPlane struct {
	Start Vector3
	End   Vector3
}

// MapData holds the contents of an IFO file: everything placed on one
// map tile beyond the terrain itself.
type MapData struct {
	DecoObjects      []MapObject
	CnstObjects      []MapObject
	AnimatedObjects  []MapObject
	CollisionObjects []MapObject
	Warps            []MapObject
	Npcs             []MapNpc
	MonsterSpawns    []SpawnPoint
	EffectObjects    []MapEffect
	SoundObjects     []MapSound
	EventObjects     []MapEvent
	WaterSize        float32
	WaterPlanes      []WaterPlane
}

// ObjectCount returns the total number of placed records.
func (m *MapData) ObjectCount() int {
	return len(m.DecoObjects) + len(m.CnstObjects) + len(m.AnimatedObjects) +
		len(m.CollisionObjects) + len(m.Warps) + len(m.Npcs) +
		len(m.MonsterSpawns) + len(m.EffectObjects) + len(m.SoundObjects) +
		len(m.EventObjects) + len(m.WaterPlanes)
}

// mapObjectMinSize is the smallest encoding of the shared object
// record: empty name (1 length byte), warp/event IDs, type and id,
// minimap position, rotation, position and scale.
const mapObjectMinSize = 1 + 2 + 2 + 4 + 4 + 8 + 16 + 12 + 12

func readMapObject(r *reader) MapObject {
	obj := MapObject{
		Name:       r.byteString(),
		WarpID:     r.uint16(),
		EventID:    r.uint16(),
		ObjectType: r.uint32(),
		ObjectID:   r.uint32(),
	}
	obj.MinimapPosition[0] = r.uint32()
	obj.MinimapPosition[1] = r.uint32()
	obj.Rotation = r.quatWXYZ()
	obj.Position = r.vector3()
	obj.Scale = r.vector3()
	return obj
}

// ReadMapData parses IFO data.
func ReadMapData(data []byte) (*MapData, error) {
	r := newReader(data)
	m := &MapData{}

	blockCount := int(r.uint32())
	if !r.checkCount(blockCount, 8) {
		return nil, fmt.Errorf("ifo header: %w", r.err())
	}

	type block struct {
		typ    uint32
		offset uint32
	}
	blocks := make([]block, 0, blockCount)
	for i := 0; i < blockCount; i++ {
		blocks = append(blocks, block{typ: r.uint32(), offset: r.uint32()})
	}
	if err := r.err(); err != nil {
		return nil, fmt.Errorf("ifo block table: %w", err)
	}

	for _, b := range blocks {
		r.seek(int(b.offset))
		if err := r.err(); err != nil {
			return nil, fmt.Errorf("ifo block %d: bad offset %d: %w", b.typ, b.offset, err)
		}

		switch b.typ {
		case ifoBlockDeco:
			m.DecoObjects = readObjectBlock(r)
		case ifoBlockCnst:
			m.CnstObjects = readObjectBlock(r)
		case ifoBlockAnimated:
			m.AnimatedObjects = readObjectBlock(r)
		case ifoBlockCollision:
			m.CollisionObjects = readObjectBlock(r)
		case ifoBlockWarp:
			m.Warps = readObjectBlock(r)
		case ifoBlockNpc:
			count := int(r.uint32())
			if !r.checkCount(count, mapObjectMinSize+5) {
				break
			}
			for i := 0; i < count; i++ {
				npc := MapNpc{Object: readMapObject(r)}
				npc.AiID = r.uint32()
				npc.QuestFileName = r.byteString()
				m.Npcs = append(m.Npcs, npc)
			}
		case ifoBlockMonsterSpawn:
			count := int(r.uint32())
			if !r.checkCount(count, mapObjectMinSize+21) {
				break
			}
			for i := 0; i < count; i++ {
				m.MonsterSpawns = append(m.MonsterSpawns, readSpawnPoint(r))
			}
		case ifoBlockEffect:
			count := int(r.uint32())
			if !r.checkCount(count, mapObjectMinSize+1) {
				break
			}
			for i := 0; i < count; i++ {
				eff := MapEffect{Object: readMapObject(r)}
				eff.EffectPath = r.byteString()
				m.EffectObjects = append(m.EffectObjects, eff)
			}
		case ifoBlockSound:
			count := int(r.uint32())
			if !r.checkCount(count, mapObjectMinSize+9) {
				break
			}
			for i := 0; i < count; i++ {
				snd := MapSound{Object: readMapObject(r)}
				snd.SoundPath = r.byteString()
				snd.Range = r.uint32()
				snd.Interval = r.uint32()
				m.SoundObjects = append(m.SoundObjects, snd)
			}
		case ifoBlockEvent:
			count := int(r.uint32())
			if !r.checkCount(count, mapObjectMinSize+2) {
				break
			}
			for i := 0; i < count; i++ {
				ev := MapEvent{Object: readMapObject(r)}
				ev.QuestTriggerName = r.byteString()
				ev.ScriptFunctionName = r.byteString()
				m.EventObjects = append(m.EventObjects, ev)
			}
		case ifoBlockWaterPlanes:
			m.WaterSize = r.float32()
			count := int(r.uint32())
			if !r.checkCount(count, 24) {
				break
			}
			for i := 0; i < count; i++ {
				m.WaterPlanes = append(m.WaterPlanes, WaterPlane{
					Start: r.vector3(),
					End:   r.vector3(),
				})
			}
		case ifoBlockMapInfo, ifoBlockWater:
			// deprecated blocks, present in old files
		}
		if err := r.err(); err != nil {
			return nil, fmt.Errorf("ifo block %d: %w", b.typ, err)
		}
	}
	return m, nil
}

func readObjectBlock(r *reader) []MapObject {
	count := int(r.uint32())
	if !r.checkCount(count, mapObjectMinSize) {
		return nil
	}
	objs := make([]MapObject, 0, count)
	for i := 0; i < count; i++ {
		objs = append(objs, readMapObject(r))
		if r.err() != nil {
			break
		}
	}
	return objs
}

func readSpawnPoint(r *reader) SpawnPoint {
	sp := SpawnPoint{Object: readMapObject(r)}
	r.byteString() // spawn name, unused

	basicCount := int(r.uint32())
	if !r.checkCount(basicCount, 9) {
		return sp
	}
	for i := 0; i < basicCount; i++ {
		r.byteString() // monster name, unused
		sp.BasicSpawns = append(sp.BasicSpawns, SpawnGroup{ID: r.uint32(), Count: r.uint32()})
	}

	tacticCount := int(r.uint32())
	if !r.checkCount(tacticCount, 9) {
		return sp
	}
	for i := 0; i < tacticCount; i++ {
		r.byteString()
		sp.TacticSpawns = append(sp.TacticSpawns, SpawnGroup{ID: r.uint32(), Count: r.uint32()})
	}

	sp.Interval = r.uint32()
	sp.LimitCount = r.uint32()
	sp.Range = r.uint32()
	sp.TacticPoints = r.uint32()
	return sp
}

// LoadMapData reads and parses an IFO file from disk.
func LoadMapData(path string) (*MapData, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading ifo %s: %w", path, err)
	}
	m, err := ReadMapData(data)
	if err != nil {
		return nil, fmt.Errorf("parsing ifo %s: %w", path, err)
	}
	return m, nil
}
