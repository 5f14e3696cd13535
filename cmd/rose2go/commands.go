package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/rosedev/rose2go/internal/catalog"
	"github.com/rosedev/rose2go/internal/config"
	"github.com/rosedev/rose2go/internal/obj"
	"github.com/rosedev/rose2go/internal/resolve"
	"github.com/rosedev/rose2go/internal/rose"
	"github.com/rosedev/rose2go/internal/terrain"
)

func requireArg(c *cli.Context, name string) (string, error) {
	if c.NArg() < 1 {
		return "", fmt.Errorf("missing %s argument", name)
	}
	return c.Args().First(), nil
}

func inspectCommand(cfg *config.Tool) *cli.Command {
	return &cli.Command{
		Name:      "inspect",
		Usage:     "parse one asset file and print its contents",
		ArgsUsage: "<file>",
		Action: func(c *cli.Context) error {
			path, err := requireArg(c, "file")
			if err != nil {
				return err
			}
			return inspect(path)
		},
	}
}

func inspect(path string) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".zms":
		m, err := rose.LoadMesh(path)
		if err != nil {
			return err
		}
		fmt.Printf("mesh %s (version %d)\n", m.Identifier, m.Version)
		fmt.Printf("  vertices:  %d\n", len(m.Vertices))
		fmt.Printf("  triangles: %d\n", len(m.Triangles))
		fmt.Printf("  bones:     %d\n", len(m.Bones))
		fmt.Printf("  normals:   %v\n", m.Flags.HasNormals())
		fmt.Printf("  uv:        %v\n", m.Flags.HasUV(1))
		fmt.Printf("  skinned:   %v\n", m.Flags.HasBones())
	case ".zmd":
		sk, err := rose.LoadSkeleton(path)
		if err != nil {
			return err
		}
		fmt.Printf("skeleton %s\n", sk.Identifier)
		for i, b := range sk.Bones {
			fmt.Printf("  bone %3d parent %3d  %s\n", i, b.ParentID, b.Name)
		}
		for i, d := range sk.Dummies {
			fmt.Printf("  dummy %2d parent %3d  %s\n", i, d.ParentID, d.Name)
		}
	case ".zmo":
		mo, err := rose.LoadMotion(path)
		if err != nil {
			return err
		}
		fmt.Printf("motion: %d frames at %d fps (%s)\n", mo.FrameCount, mo.FPS, mo.Duration())
		fmt.Printf("  channels: %d\n", len(mo.Channels))
		for i, ch := range mo.Channels {
			fmt.Printf("  channel %3d bone %3d  %s\n", i, ch.BoneIndex, ch.Type)
		}
		if len(mo.FrameEvents) > 0 {
			fmt.Printf("  frame events: %d (attack frames: %d)\n", len(mo.FrameEvents), mo.TotalAttackFrames)
		}
	case ".zsc":
		ml, err := rose.LoadModelList(path)
		if err != nil {
			return err
		}
		fmt.Printf("model list: %d objects, %d meshes, %d materials, %d effects\n",
			len(ml.Objects), len(ml.Meshes), len(ml.Materials), len(ml.Effects))
		for i, o := range ml.Objects {
			fmt.Printf("  object %3d: %d parts, %d effects\n", i, len(o.Parts), len(o.Effects))
		}
	case ".zon":
		z, err := rose.LoadZone(path)
		if err != nil {
			return err
		}
		fmt.Printf("zone: %dx%d grid (grid size %.0f), start %d,%d\n",
			z.Width, z.Length, z.GridSize, z.StartX, z.StartY)
		fmt.Printf("  textures:     %d\n", len(z.Textures))
		fmt.Printf("  tiles:        %d\n", len(z.Tiles))
		fmt.Printf("  event points: %d\n", len(z.EventPoints))
		if z.AreaName != "" {
			fmt.Printf("  area: %s (music %s)\n", z.AreaName, z.BackgroundMusic)
		}
	case ".him":
		h, err := rose.LoadHeightmap(path)
		if err != nil {
			return err
		}
		fmt.Printf("heightmap: %dx%d, heights %.1f..%.1f\n",
			h.Width, h.Length, h.MinHeight, h.MaxHeight)
	case ".til":
		tm, err := rose.LoadTileMap(path)
		if err != nil {
			return err
		}
		fmt.Printf("tile map: %dx%d\n", tm.Width, tm.Length)
	case ".ifo":
		md, err := rose.LoadMapData(path)
		if err != nil {
			return err
		}
		fmt.Printf("map data: %d objects total\n", md.ObjectCount())
		fmt.Printf("  decorations: %d\n", len(md.DecoObjects))
		fmt.Printf("  buildings:   %d\n", len(md.CnstObjects))
		fmt.Printf("  npcs:        %d\n", len(md.Npcs))
		fmt.Printf("  spawns:      %d\n", len(md.MonsterSpawns))
	default:
		return fmt.Errorf("unrecognized asset extension %q", filepath.Ext(path))
	}
	return nil
}

func terrainCommand(cfg *config.Tool) *cli.Command {
	return &cli.Command{
		Name:      "terrain",
		Usage:     "assemble a zone's heightmap tiles, optionally exporting OBJ",
		ArgsUsage: "<zone.ZON>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "obj",
				Usage: "write the assembled terrain to this OBJ file",
			},
			&cli.StringFlag{
				Name:  "tile",
				Usage: "load only the tile at `X,Y`",
			},
			&cli.BoolFlag{
				Name:  "skip-objects",
				Usage: "skip IFO object placement files",
			},
		},
		Action: func(c *cli.Context) error {
			zonPath, err := requireArg(c, "zone")
			if err != nil {
				return err
			}

			opts := terrain.LoadOptions{
				Parallelism: cfg.Parallelism,
				SkipObjects: c.Bool("skip-objects"),
			}
			if coord := c.String("tile"); coord != "" {
				var tx, ty int
				if _, err := fmt.Sscanf(coord, "%d,%d", &tx, &ty); err != nil {
					return fmt.Errorf("invalid tile %q, expected X,Y", coord)
				}
				opts.LimitTile = &[2]int{tx, ty}
			}

			zone, err := terrain.Load(c.Context, zonPath, opts)
			if err != nil {
				return err
			}

			fmt.Printf("zone: %d tiles in a %dx%d grid at %d,%d\n",
				zone.TileCount(), zone.Width, zone.Length, zone.MinX, zone.MinY)
			fmt.Printf("  objects: %d\n", zone.ObjectCount())

			if out := c.String("obj"); out != "" {
				mesh := zone.BuildMesh()
				fmt.Printf("  mesh: %d vertices, %d faces\n", len(mesh.Vertices), len(mesh.Faces))
				if err := obj.SaveTerrain(out, mesh, zone.Zon.Textures, textureResolver(cfg, zonPath)); err != nil {
					return err
				}
				fmt.Printf("  wrote %s\n", out)
			}
			return nil
		},
	}
}

// textureResolver builds a resolver for the data tree containing path.
// Outside a 3DDATA tree textures stay unresolved, which only costs the
// map_Kd lines in the exported MTL.
func textureResolver(cfg *config.Tool, path string) obj.TextureResolver {
	root := cfg.DataRoot
	if root == "" {
		found, err := resolve.FindDataRoot(path)
		if err != nil {
			return nil
		}
		root = found
	}
	return resolve.New(root, cfg.TextureExtensions)
}

func meshCommand(cfg *config.Tool) *cli.Command {
	return &cli.Command{
		Name:      "mesh",
		Usage:     "parse a ZMS mesh, optionally exporting OBJ",
		ArgsUsage: "<mesh.ZMS>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "obj",
				Usage: "write the mesh to this OBJ file",
			},
		},
		Action: func(c *cli.Context) error {
			path, err := requireArg(c, "mesh")
			if err != nil {
				return err
			}
			m, err := rose.LoadMesh(path)
			if err != nil {
				return err
			}
			fmt.Printf("mesh %s: %d vertices, %d triangles\n",
				m.Identifier, len(m.Vertices), len(m.Triangles))
			if out := c.String("obj"); out != "" {
				if err := obj.SaveMesh(out, m); err != nil {
					return err
				}
				fmt.Printf("wrote %s\n", out)
			}
			return nil
		},
	}
}

func catalogCommand(cfg *config.Tool) *cli.Command {
	return &cli.Command{
		Name:  "catalog",
		Usage: "maintain the SQLite asset catalog",
		Subcommands: []*cli.Command{
			{
				Name:      "scan",
				Usage:     "walk a data tree and catalog every asset",
				ArgsUsage: "[root]",
				Action: func(c *cli.Context) error {
					root := c.Args().First()
					if root == "" {
						root = cfg.DataRoot
					}
					if root == "" {
						return errors.New("no scan root given and data_root not configured")
					}

					store, err := catalog.Open(c.Context, cfg.CatalogPath)
					if err != nil {
						return err
					}
					defer store.Close()

					res, err := catalog.NewScanner(store, cfg.Parallelism).Scan(c.Context, root)
					if err != nil {
						return err
					}
					fmt.Printf("scanned %d assets (%d failed, %d skipped) in %s\n",
						res.Scanned, res.Failed, res.Skipped, res.Elapsed.Round(time.Millisecond))
					return nil
				},
			},
			{
				Name:  "stats",
				Usage: "print per-kind catalog totals",
				Action: func(c *cli.Context) error {
					store, err := catalog.Open(c.Context, cfg.CatalogPath)
					if err != nil {
						return err
					}
					defer store.Close()

					stats, err := store.Stats(c.Context)
					if err != nil {
						return err
					}
					if len(stats) == 0 {
						fmt.Println("catalog is empty")
						return nil
					}
					fmt.Printf("%-10s %8s %12s %12s\n", "kind", "files", "bytes", "records")
					for _, k := range stats {
						fmt.Printf("%-10s %8d %12d %12d\n", k.Kind, k.Files, k.SizeBytes, k.Records)
					}
					return nil
				},
			},
		},
	}
}
