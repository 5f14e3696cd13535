// Package terrain assembles a zone's HIM/TIL/IFO tile files into one
// stitched terrain mesh with per-face texture assignment from the ZON
// tile array.
package terrain

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rosedev/rose2go/internal/rose"
)

// Tile is one loaded map tile. TileMap and Objects are nil when the
// corresponding TIL/IFO file is missing; only the heightmap is required.
type Tile struct {
	X, Y      int
	Heightmap *rose.Heightmap
	TileMap   *rose.TileMap
	Objects   *rose.MapData
}

// Zone is a fully loaded zone: the ZON metadata plus the grid of tiles
// found next to it. Grid is indexed [y][x] with nil holes where no tile
// file exists.
type Zone struct {
	Zon  *rose.Zone
	Path string

	MinX, MinY int
	Width      int
	Length     int
	Grid       [][]*Tile
}

// TileAt returns the tile at grid position (x, y), nil when absent.
func (z *Zone) TileAt(x, y int) *Tile {
	if y < 0 || y >= z.Length || x < 0 || x >= z.Width {
		return nil
	}
	return z.Grid[y][x]
}

// TileCount returns the number of loaded tiles.
func (z *Zone) TileCount() int {
	n := 0
	for _, row := range z.Grid {
		for _, t := range row {
			if t != nil {
				n++
			}
		}
	}
	return n
}

// ObjectCount returns the total of IFO records across all tiles.
func (z *Zone) ObjectCount() int {
	n := 0
	for _, row := range z.Grid {
		for _, t := range row {
			if t != nil && t.Objects != nil {
				n += t.Objects.ObjectCount()
			}
		}
	}
	return n
}

// LoadOptions controls zone loading.
type LoadOptions struct {
	// Parallelism bounds concurrent tile loads. Zero means sequential.
	Parallelism int
	// SkipObjects skips IFO parsing when only the terrain is needed.
	SkipObjects bool
	// LimitTile restricts loading to the tile with these absolute
	// coordinates. Nil loads every tile.
	LimitTile *[2]int
}

// Load reads a ZON file and every `<x>_<y>.him` tile next to it, together
// with the matching TIL and IFO files.
func Load(ctx context.Context, zonPath string, opts LoadOptions) (*Zone, error) {
	start := time.Now()

	zon, err := rose.LoadZone(zonPath)
	if err != nil {
		return nil, err
	}

	dir := filepath.Dir(zonPath)
	coords, err := scanTiles(dir, opts.LimitTile)
	if err != nil {
		return nil, err
	}
	if len(coords) == 0 {
		return nil, fmt.Errorf("terrain: no tiles found in %s", dir)
	}

	z := &Zone{Zon: zon, Path: zonPath}
	z.MinX, z.MinY = coords[0][0], coords[0][1]
	maxX, maxY := z.MinX, z.MinY
	for _, c := range coords {
		z.MinX = min(z.MinX, c[0])
		z.MinY = min(z.MinY, c[1])
		maxX = max(maxX, c[0])
		maxY = max(maxY, c[1])
	}
	z.Width = maxX - z.MinX + 1
	z.Length = maxY - z.MinY + 1

	z.Grid = make([][]*Tile, z.Length)
	for y := range z.Grid {
		z.Grid[y] = make([]*Tile, z.Width)
	}

	var (
		mu          sync.Mutex
		failedTiles int
	)
	g, gctx := errgroup.WithContext(ctx)
	if opts.Parallelism > 0 {
		g.SetLimit(opts.Parallelism)
	} else {
		g.SetLimit(1)
	}

	for _, c := range coords {
		x, y := c[0], c[1]
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			tile, err := loadTile(dir, x, y, opts.SkipObjects)
			if err != nil {
				// A corrupt tile leaves a hole in the grid instead of
				// failing the whole zone.
				slog.Debug("tile load failed", "x", x, "y", y, "err", err)
				mu.Lock()
				failedTiles++
				mu.Unlock()
				return nil
			}
			z.Grid[y-z.MinY][x-z.MinX] = tile
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("terrain: loading tiles: %w", err)
	}

	slog.Info("zone loaded",
		"zon", filepath.Base(zonPath),
		"tiles", z.TileCount(),
		"failed", failedTiles,
		"grid", fmt.Sprintf("%dx%d", z.Width, z.Length),
		"objects", z.ObjectCount(),
		"elapsed", time.Since(start).Round(time.Millisecond),
	)
	return z, nil
}

// scanTiles finds `<x>_<y>.him` files in dir and returns their coordinates.
func scanTiles(dir string, limit *[2]int) ([][2]int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("terrain: reading zone dir: %w", err)
	}

	var coords [][2]int
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		ext := filepath.Ext(name)
		if !strings.EqualFold(ext, ".him") {
			continue
		}

		var x, y int
		if _, err := fmt.Sscanf(name[:len(name)-len(ext)], "%d_%d", &x, &y); err != nil {
			slog.Debug("skip him file (bad name)", "file", name)
			continue
		}
		if limit != nil && (x != limit[0] || y != limit[1]) {
			continue
		}
		coords = append(coords, [2]int{x, y})
	}
	return coords, nil
}

// loadTile loads the HIM plus optional TIL/IFO for one tile, matching
// the extension case of the file found on disk.
func loadTile(dir string, x, y int, skipObjects bool) (*Tile, error) {
	base := fmt.Sprintf("%d_%d", x, y)

	himPath, err := findTileFile(dir, base, ".him")
	if err != nil {
		return nil, err
	}
	him, err := rose.LoadHeightmap(himPath)
	if err != nil {
		return nil, err
	}

	tile := &Tile{X: x, Y: y, Heightmap: him}

	if tilPath, err := findTileFile(dir, base, ".til"); err == nil {
		tm, err := rose.LoadTileMap(tilPath)
		if err != nil {
			return nil, err
		}
		tile.TileMap = tm
	}

	if !skipObjects {
		if ifoPath, err := findTileFile(dir, base, ".ifo"); err == nil {
			md, err := rose.LoadMapData(ifoPath)
			if err != nil {
				return nil, err
			}
			tile.Objects = md
		}
	}
	return tile, nil
}

// findTileFile locates base+ext trying upper- and lowercase extensions,
// for data trees unpacked on case-sensitive filesystems.
func findTileFile(dir, base, ext string) (string, error) {
	for _, e := range []string{strings.ToUpper(ext), strings.ToLower(ext)} {
		p := filepath.Join(dir, base+e)
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	return "", fmt.Errorf("terrain: %s%s not found in %s", base, ext, dir)
}
