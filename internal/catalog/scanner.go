package catalog

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/remeh/sizedwaitgroup"

	"github.com/rosedev/rose2go/internal/rose"
)

// ScanResult summarizes one catalog scan.
type ScanResult struct {
	Scanned int
	Failed  int
	Skipped int
	Elapsed time.Duration
}

// Scanner walks a data tree, parses every recognized asset file and
// records it in the store. Files are parsed concurrently; writes go
// through a single goroutine-safe store.
type Scanner struct {
	store       *Store
	parallelism int
}

// NewScanner returns a scanner writing into store. Parallelism below 1
// is treated as 1.
func NewScanner(store *Store, parallelism int) *Scanner {
	if parallelism < 1 {
		parallelism = 1
	}
	return &Scanner{store: store, parallelism: parallelism}
}

// Scan catalogs every recognized file under root. Unparseable files
// are counted and skipped; walking errors abort the scan.
func (s *Scanner) Scan(ctx context.Context, root string) (*ScanResult, error) {
	start := time.Now()
	res := &ScanResult{}

	var mu sync.Mutex
	var assets []Asset

	swg := sizedwaitgroup.New(s.parallelism)
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("walking %s: %w", path, err)
		}
		if d.IsDir() {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		kind := assetKind(path)
		if kind == "" {
			mu.Lock()
			res.Skipped++
			mu.Unlock()
			return nil
		}

		swg.Add()
		go func() {
			defer swg.Done()
			asset, err := inspectFile(root, path, kind)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				slog.Debug("asset parse failed", "path", path, "error", err)
				res.Failed++
				return
			}
			assets = append(assets, *asset)
			res.Scanned++
		}()
		return nil
	})
	swg.Wait()
	if err != nil {
		return nil, err
	}

	for _, a := range assets {
		if err := s.store.Put(ctx, a); err != nil {
			return nil, err
		}
	}

	res.Elapsed = time.Since(start)
	slog.Info("catalog scan finished",
		"root", root,
		"scanned", res.Scanned,
		"failed", res.Failed,
		"skipped", res.Skipped,
		"elapsed", res.Elapsed)
	return res, nil
}

// assetKind maps a file extension to a catalog kind, empty for files
// the catalog does not track.
func assetKind(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".zms":
		return "mesh"
	case ".zmd":
		return "skeleton"
	case ".zmo":
		return "motion"
	case ".zsc":
		return "modellist"
	case ".zon":
		return "zone"
	case ".him":
		return "heightmap"
	case ".til":
		return "tilemap"
	case ".ifo":
		return "mapdata"
	default:
		return ""
	}
}

// inspectFile parses one asset and condenses it into a catalog row.
// ZMO files are parsed header-only; frame data is not needed here.
func inspectFile(root, path, kind string) (*Asset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	rel, err := filepath.Rel(root, path)
	if err != nil {
		rel = path
	}
	a := &Asset{
		Path:      filepath.ToSlash(rel),
		Kind:      kind,
		SizeBytes: int64(len(data)),
		ScannedAt: time.Now().UTC(),
	}

	switch kind {
	case "mesh":
		m, err := rose.ReadMesh(data)
		if err != nil {
			return nil, err
		}
		a.Records = int64(len(m.Vertices))
		a.Detail = fmt.Sprintf("v%d, %d triangles", m.Version, len(m.Triangles))
	case "skeleton":
		sk, err := rose.ReadSkeleton(data)
		if err != nil {
			return nil, err
		}
		a.Records = int64(len(sk.Bones))
		a.Detail = fmt.Sprintf("%d dummies", len(sk.Dummies))
	case "motion":
		mo, err := rose.ReadMotionInfo(data)
		if err != nil {
			return nil, err
		}
		a.Records = int64(mo.FrameCount)
		a.Detail = fmt.Sprintf("%d fps, %d channels", mo.FPS, len(mo.Channels))
	case "modellist":
		ml, err := rose.ReadModelList(data)
		if err != nil {
			return nil, err
		}
		a.Records = int64(len(ml.Objects))
		a.Detail = fmt.Sprintf("%d meshes, %d materials", len(ml.Meshes), len(ml.Materials))
	case "zone":
		z, err := rose.ReadZone(data)
		if err != nil {
			return nil, err
		}
		a.Records = int64(len(z.Textures))
		a.Detail = fmt.Sprintf("%dx%d grid, %d tiles", z.Width, z.Length, len(z.Tiles))
	case "heightmap":
		h, err := rose.ReadHeightmap(data)
		if err != nil {
			return nil, err
		}
		a.Records = int64(h.Width) * int64(h.Length)
		a.Detail = fmt.Sprintf("%dx%d, height %.1f..%.1f", h.Width, h.Length, h.MinHeight, h.MaxHeight)
	case "tilemap":
		tm, err := rose.ReadTileMap(data)
		if err != nil {
			return nil, err
		}
		a.Records = int64(tm.Width) * int64(tm.Length)
		a.Detail = fmt.Sprintf("%dx%d", tm.Width, tm.Length)
	case "mapdata":
		md, err := rose.ReadMapData(data)
		if err != nil {
			return nil, err
		}
		a.Records = int64(md.ObjectCount())
		a.Detail = fmt.Sprintf("%d npcs, %d spawns", len(md.Npcs), len(md.MonsterSpawns))
	}
	return a, nil
}
