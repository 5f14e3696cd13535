package rose

import (
	"fmt"
	"os"
)

// TilePatch is one cell of a TIL file. Only Tile is consumed downstream:
// it indexes the tile array of the owning zone's ZON file. The three
// leading metadata bytes are kept for completeness.
type TilePatch struct {
	Brush     int8
	TileIndex int8
	TileSet   int8
	Tile      uint32
}

// TileMap holds the contents of a TIL file: per-cell tile indices for a
// single map tile, row-major, length rows of width cells.
type TileMap struct {
	Width   int32
	Length  int32
	Patches []TilePatch
}

// PatchAt returns the patch at column x, row y.
func (t *TileMap) PatchAt(x, y int) TilePatch {
	return t.Patches[y*int(t.Width)+x]
}

// ReadTileMap parses TIL data. Each cell is 7 bytes: 3 metadata bytes
// followed by a u32 tile index.
func ReadTileMap(data []byte) (*TileMap, error) {
	r := newReader(data)

	t := &TileMap{
		Width:  r.int32(),
		Length: r.int32(),
	}
	if err := r.err(); err != nil {
		return nil, fmt.Errorf("til header: %w", err)
	}
	if t.Width <= 0 || t.Length <= 0 {
		return nil, fmt.Errorf("til: invalid dimensions %dx%d", t.Width, t.Length)
	}

	n := int(t.Width) * int(t.Length)
	if !r.checkCount(n, 7) {
		return nil, fmt.Errorf("til patches: %w", r.err())
	}
	t.Patches = make([]TilePatch, n)
	for i := range t.Patches {
		t.Patches[i] = TilePatch{
			Brush:     r.int8(),
			TileIndex: r.int8(),
			TileSet:   r.int8(),
			Tile:      r.uint32(),
		}
	}
	if err := r.err(); err != nil {
		return nil, fmt.Errorf("til patches: %w", err)
	}
	return t, nil
}

// LoadTileMap reads and parses a TIL file from disk.
func LoadTileMap(path string) (*TileMap, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading til %s: %w", path, err)
	}
	t, err := ReadTileMap(data)
	if err != nil {
		return nil, fmt.Errorf("parsing til %s: %w", path, err)
	}
	return t, nil
}
