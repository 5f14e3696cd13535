package terrain

import (
	"log/slog"

	"github.com/rosedev/rose2go/internal/rose"
)

const (
	// worldOffset shifts assembled terrain into the client's world
	// coordinate origin.
	worldOffset = 52.0
	// heightScale converts HIM heights from centimeters to meters.
	heightScale = 100.0
	// defaultGridSize is used when the ZON info block is absent.
	defaultGridSize = 250.0
)

// Mesh is an assembled terrain mesh: quad faces indexing into Vertices,
// with one texture-list index per face. A face material of -1 means the
// face could not be aligned to the zone's texture set.
type Mesh struct {
	Vertices      []rose.Vector3
	Faces         [][4]int
	FaceMaterials []int

	// UnalignedFaces counts faces whose TIL cell referenced a tile
	// outside the ZON tile array or a texture outside the texture list.
	UnalignedFaces int
}

// unaligned marks a face without a usable texture index.
const unaligned = -1

// BuildMesh assembles the zone's tiles into a single stitched mesh:
// one quad per heightmap cell, seam quads between adjacent tiles, and a
// corner quad where four tiles meet.
func (z *Zone) BuildMesh() *Mesh {
	m := &Mesh{}

	gridSize := z.Zon.GridSize
	if gridSize == 0 {
		gridSize = defaultGridSize
	}
	gridScale := gridSize / heightScale

	// Per-tile vertex index grids, filled during vertex generation and
	// shared by the seam pass.
	indices := make([][][][]int, z.Length)
	offsets := z.tileOffsets()

	for y := 0; y < z.Length; y++ {
		indices[y] = make([][][]int, z.Width)
		for x := 0; x < z.Width; x++ {
			tile := z.Grid[y][x]
			if tile == nil {
				continue
			}
			him := tile.Heightmap
			idx := make([][]int, him.Length)
			for vy := range idx {
				idx[vy] = make([]int, him.Width)
			}
			indices[y][x] = idx

			offX, offY := offsets[y][x][0], offsets[y][x][1]
			for vy := 0; vy < int(him.Length); vy++ {
				for vx := 0; vx < int(him.Width); vx++ {
					h := him.HeightAt(vx, vy) / heightScale
					m.Vertices = append(m.Vertices, rose.Vector3{
						X: float32(vx+offX)*gridScale + worldOffset,
						Y: float32(vy+offY)*gridScale + worldOffset,
						Z: -h,
					})
					idx[vy][vx] = len(m.Vertices) - 1

					if vx < int(him.Width)-1 && vy < int(him.Length)-1 {
						vi := idx[vy][vx]
						m.addFace(
							[4]int{vi, vi + 1, vi + 1 + int(him.Width), vi + int(him.Width)},
							z.faceMaterial(tile, vx, vy),
						)
					}
				}
			}
		}
	}

	z.stitchSeams(m, indices)

	if m.UnalignedFaces > 0 {
		slog.Debug("texture alignment skipped for some faces",
			"faces", m.UnalignedFaces, "total", len(m.Faces))
	}
	return m
}

func (m *Mesh) addFace(face [4]int, material int) {
	m.Faces = append(m.Faces, face)
	m.FaceMaterials = append(m.FaceMaterials, material)
	if material == unaligned {
		m.UnalignedFaces++
	}
}

// tileOffsets computes each tile's vertex offset inside the assembled
// grid: widths accumulate along a row, row heights accumulate down.
func (z *Zone) tileOffsets() [][][2]int {
	offsets := make([][][2]int, z.Length)
	length := 0
	for y := 0; y < z.Length; y++ {
		offsets[y] = make([][2]int, z.Width)
		width, rowLength := 0, 0
		for x := 0; x < z.Width; x++ {
			tile := z.Grid[y][x]
			if tile == nil {
				continue
			}
			offsets[y][x] = [2]int{width, length}
			width += int(tile.Heightmap.Width)
			rowLength = int(tile.Heightmap.Length)
		}
		length += rowLength
	}
	return offsets
}

// faceMaterial resolves the texture index for the face whose lower-left
// vertex is (vx, vy) inside the given tile. TIL cells are clamped to the
// patch bounds; a reference outside the ZON tile or texture arrays
// yields an unaligned face.
func (z *Zone) faceMaterial(tile *Tile, vx, vy int) int {
	tm := tile.TileMap
	if tm == nil || len(z.Zon.Tiles) == 0 {
		return unaligned
	}
	tx := min(vx, int(tm.Width)-1)
	ty := min(vy, int(tm.Length)-1)
	patch := tm.PatchAt(tx, ty)

	if int(patch.Tile) >= len(z.Zon.Tiles) {
		return unaligned
	}
	tex := z.Zon.Tiles[patch.Tile].BottomTexture()
	if tex >= len(z.Zon.Textures) {
		return unaligned
	}
	return tex
}

// stitchSeams adds the quads joining adjacent tiles: one strip along
// shared X edges, one along shared Y edges, and a single quad at each
// four-corner meeting point.
func (z *Zone) stitchSeams(m *Mesh, indices [][][][]int) {
	for y := 0; y < z.Length; y++ {
		for x := 0; x < z.Width; x++ {
			tile := z.Grid[y][x]
			if tile == nil {
				continue
			}
			him := tile.Heightmap
			idx := indices[y][x]
			lastX := int(him.Width) - 1
			lastY := int(him.Length) - 1

			if right := z.TileAt(x+1, y); right != nil {
				next := indices[y][x+1]
				for vy := 0; vy < lastY; vy++ {
					m.addFace(
						[4]int{idx[vy][lastX], next[vy][0], next[vy+1][0], idx[vy+1][lastX]},
						z.faceMaterial(tile, lastX, vy),
					)
				}
			}

			if down := z.TileAt(x, y+1); down != nil {
				next := indices[y+1][x]
				for vx := 0; vx < lastX; vx++ {
					m.addFace(
						[4]int{idx[lastY][vx], idx[lastY][vx+1], next[0][vx+1], next[0][vx]},
						z.faceMaterial(tile, vx, lastY),
					)
				}
			}

			right, diag, down := z.TileAt(x+1, y), z.TileAt(x+1, y+1), z.TileAt(x, y+1)
			if right != nil && diag != nil && down != nil {
				rightIdx := indices[y][x+1]
				diagIdx := indices[y+1][x+1]
				downIdx := indices[y+1][x]
				m.addFace(
					[4]int{
						idx[lastY][lastX],
						rightIdx[int(right.Heightmap.Length)-1][0],
						diagIdx[0][0],
						downIdx[0][int(down.Heightmap.Width)-1],
					},
					z.faceMaterial(tile, lastX, lastY),
				)
			}
		}
	}
}
