package rose

import (
	"fmt"
	"os"
)

// ZON block types.
const (
	zonBlockInfo        = 0
	zonBlockEventPoints = 1
	zonBlockTextures    = 2
	zonBlockTiles       = 3
	zonBlockEconomy     = 4
)

// TileRotation describes how a zone tile's texture is oriented.
type TileRotation uint32

const (
	RotationUnknown TileRotation = iota
	RotationNone
	RotationFlipHorizontal
	RotationFlipVertical
	RotationFlip
	RotationClockwise90
	RotationCounterClockwise90
)

// ZoneTile is one entry of the ZON tile array. TIL cells reference these
// by index; the two layers plus offsets select entries in the zone's
// texture list.
type ZoneTile struct {
	Layer1   uint32
	Layer2   uint32
	Offset1  uint32
	Offset2  uint32
	Blend    bool
	Rotation TileRotation
	TileType uint32
}

// BottomTexture returns the texture list index of the base layer.
func (t ZoneTile) BottomTexture() int { return int(t.Layer1 + t.Offset1) }

// TopTexture returns the texture list index of the blended layer.
func (t ZoneTile) TopTexture() int { return int(t.Layer2 + t.Offset2) }

// EventPoint is a named world position (start points, revive points).
type EventPoint struct {
	Position Vector3
	Name     string
}

// Zone holds the contents of a ZON file: the zone-wide metadata shared by
// all of a map's HIM/TIL/IFO tiles.
type Zone struct {
	ZoneType  uint32
	Width     uint32
	Length    uint32
	GridCount uint32
	GridSize  float32
	StartX    uint32
	StartY    uint32

	EventPoints []EventPoint
	Textures    []string
	Tiles       []ZoneTile

	// Economy block.
	AreaName             string
	IsUnderground        bool
	BackgroundMusic      string
	Sky                  string
	EconomyCheckRate     uint32
	PopulationBase       uint32
	PopulationGrowthRate uint32
	MetalConsumption     uint32
	StoneConsumption     uint32
	WoodConsumption      uint32
	LeatherConsumption   uint32
	ClothConsumption     uint32
	AlchemyConsumption   uint32
	ChemicalConsumption  uint32
	MedicineConsumption  uint32
	FoodConsumption      uint32
}

// ReadZone parses ZON data. The file is a table of typed blocks addressed
// by absolute offsets; unknown block types are skipped.
func ReadZone(data []byte) (*Zone, error) {
	r := newReader(data)
	z := &Zone{}

	blockCount := int(r.uint32())
	if !r.checkCount(blockCount, 8) {
		return nil, fmt.Errorf("zon header: %w", r.err())
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
		return nil, fmt.Errorf("zon block table: %w", err)
	}

	for _, b := range blocks {
		r.seek(int(b.offset))
		if err := r.err(); err != nil {
			return nil, fmt.Errorf("zon block %d: bad offset %d: %w", b.typ, b.offset, err)
		}

		switch b.typ {
		case zonBlockInfo:
			z.ZoneType = r.uint32()
			z.Width = r.uint32()
			z.Length = r.uint32()
			z.GridCount = r.uint32()
			z.GridSize = r.float32()
			z.StartX = r.uint32()
			z.StartY = r.uint32()
		case zonBlockEventPoints:
			count := int(r.uint32())
			if !r.checkCount(count, 13) {
				return nil, fmt.Errorf("zon event points: %w", r.err())
			}
			z.EventPoints = make([]EventPoint, 0, count)
			for i := 0; i < count; i++ {
				p := EventPoint{Position: r.vector3()}
				p.Name = r.byteString()
				z.EventPoints = append(z.EventPoints, p)
			}
		case zonBlockTextures:
			count := int(r.uint32())
			if !r.checkCount(count, 1) {
				return nil, fmt.Errorf("zon textures: %w", r.err())
			}
			z.Textures = make([]string, 0, count)
			for i := 0; i < count; i++ {
				z.Textures = append(z.Textures, r.byteString())
			}
		case zonBlockTiles:
			count := int(r.uint32())
			if !r.checkCount(count, 28) {
				return nil, fmt.Errorf("zon tiles: %w", r.err())
			}
			z.Tiles = make([]ZoneTile, 0, count)
			for i := 0; i < count; i++ {
				t := ZoneTile{
					Layer1:  r.uint32(),
					Layer2:  r.uint32(),
					Offset1: r.uint32(),
					Offset2: r.uint32(),
					Blend:   r.uint32() != 0,
				}
				if rot := r.uint32(); rot <= uint32(RotationCounterClockwise90) {
					t.Rotation = TileRotation(rot)
				}
				t.TileType = r.uint32()
				z.Tiles = append(z.Tiles, t)
			}
		case zonBlockEconomy:
			z.AreaName = r.byteString()
			z.IsUnderground = r.uint32() != 0
			z.BackgroundMusic = r.byteString()
			z.Sky = r.byteString()
			z.EconomyCheckRate = r.uint32()
			z.PopulationBase = r.uint32()
			z.PopulationGrowthRate = r.uint32()
			z.MetalConsumption = r.uint32()
			z.StoneConsumption = r.uint32()
			z.WoodConsumption = r.uint32()
			z.LeatherConsumption = r.uint32()
			z.ClothConsumption = r.uint32()
			z.AlchemyConsumption = r.uint32()
			z.ChemicalConsumption = r.uint32()
			z.MedicineConsumption = r.uint32()
			z.FoodConsumption = r.uint32()
		}
		if err := r.err(); err != nil {
			return nil, fmt.Errorf("zon block %d: %w", b.typ, err)
		}
	}
	return z, nil
}

// LoadZone reads and parses a ZON file from disk.
func LoadZone(path string) (*Zone, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading zon %s: %w", path, err)
	}
	z, err := ReadZone(data)
	if err != nil {
		return nil, fmt.Errorf("parsing zon %s: %w", path, err)
	}
	return z, nil
}
