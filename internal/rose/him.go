package rose

import (
	"fmt"
	"os"
)

// Heightmap holds the contents of a HIM file: one patch of terrain heights
// for a single map tile. Heights are stored row-major, length rows of width
// values, in client units (centimeters).
type Heightmap struct {
	Width      int32
	Length     int32
	GridCount  int32
	PatchScale float32
	Heights    []float32

	MinHeight float32
	MaxHeight float32
}

// HeightAt returns the raw height at column x, row y.
func (h *Heightmap) HeightAt(x, y int) float32 {
	return h.Heights[y*int(h.Width)+x]
}

// ReadHeightmap parses HIM data.
func ReadHeightmap(data []byte) (*Heightmap, error) {
	r := newReader(data)

	h := &Heightmap{
		Width:      r.int32(),
		Length:     r.int32(),
		GridCount:  r.int32(),
		PatchScale: r.float32(),
	}
	if err := r.err(); err != nil {
		return nil, fmt.Errorf("him header: %w", err)
	}
	if h.Width <= 0 || h.Length <= 0 {
		return nil, fmt.Errorf("him: invalid dimensions %dx%d", h.Width, h.Length)
	}

	n := int(h.Width) * int(h.Length)
	if !r.checkCount(n, 4) {
		return nil, fmt.Errorf("him heights: %w", r.err())
	}
	h.Heights = make([]float32, n)
	for i := range h.Heights {
		v := r.float32()
		h.Heights[i] = v
		if v > h.MaxHeight {
			h.MaxHeight = v
		}
		if v < h.MinHeight {
			h.MinHeight = v
		}
	}
	if err := r.err(); err != nil {
		return nil, fmt.Errorf("him heights: %w", err)
	}
	return h, nil
}

// LoadHeightmap reads and parses a HIM file from disk.
func LoadHeightmap(path string) (*Heightmap, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading him %s: %w", path, err)
	}
	h, err := ReadHeightmap(data)
	if err != nil {
		return nil, fmt.Errorf("parsing him %s: %w", path, err)
	}
	return h, nil
}
