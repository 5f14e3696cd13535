// Package obj writes meshes as Wavefront OBJ with an optional MTL
// sidecar. OBJ indices are 1-based; faces are emitted grouped by
// material so viewers keep one draw batch per texture.
package obj

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rosedev/rose2go/internal/rose"
	"github.com/rosedev/rose2go/internal/terrain"
)

// materialName derives a stable MTL name from a texture reference.
func materialName(texture string, index int) string {
	base := texture
	if i := strings.LastIndexAny(base, `\/`); i >= 0 {
		base = base[i+1:]
	}
	if dot := strings.LastIndex(base, "."); dot > 0 {
		base = base[:dot]
	}
	if base == "" {
		return fmt.Sprintf("material_%d", index)
	}
	return strings.ToLower(base)
}

// WriteTerrain writes an assembled terrain mesh. Textures name the
// ZON texture list; faces with an unresolved material index are
// emitted under a shared untextured group.
func WriteTerrain(w io.Writer, m *terrain.Mesh, textures []string, mtlLib string) error {
	bw := bufio.NewWriter(w)

	if mtlLib != "" {
		fmt.Fprintf(bw, "mtllib %s\n", mtlLib)
	}
	fmt.Fprintln(bw, "o terrain")
	for _, v := range m.Vertices {
		fmt.Fprintf(bw, "v %g %g %g\n", v.X, v.Y, v.Z)
	}

	// Group face indices by material rather than emitting usemtl per
	// face; terrain alternates textures every quad.
	groups := make(map[int][]int)
	for i, mat := range m.FaceMaterials {
		groups[mat] = append(groups[mat], i)
	}
	for mat := -1; mat < len(textures); mat++ {
		faces, ok := groups[mat]
		if !ok {
			continue
		}
		if mat < 0 {
			fmt.Fprintln(bw, "usemtl untextured")
		} else {
			fmt.Fprintf(bw, "usemtl %s\n", materialName(textures[mat], mat))
		}
		for _, fi := range faces {
			f := m.Faces[fi]
			fmt.Fprintf(bw, "f %d %d %d %d\n", f[0]+1, f[1]+1, f[2]+1, f[3]+1)
		}
	}
	return bw.Flush()
}

// WriteMesh writes a ZMS mesh as triangles, with texture coordinates
// and normals when the source carries them.
func WriteMesh(w io.Writer, m *rose.Mesh, name string) error {
	bw := bufio.NewWriter(w)

	if name == "" {
		name = "mesh"
	}
	fmt.Fprintf(bw, "o %s\n", name)
	for _, v := range m.Vertices {
		fmt.Fprintf(bw, "v %g %g %g\n", v.Position.X, v.Position.Y, v.Position.Z)
	}
	hasUV := m.Flags.HasUV(1)
	if hasUV {
		for _, v := range m.Vertices {
			// OBJ expects the V axis flipped.
			fmt.Fprintf(bw, "vt %g %g\n", v.UV[0].X, 1-v.UV[0].Y)
		}
	}
	hasNormals := m.Flags.HasNormals()
	if hasNormals {
		for _, v := range m.Vertices {
			fmt.Fprintf(bw, "vn %g %g %g\n", v.Normal.X, v.Normal.Y, v.Normal.Z)
		}
	}

	for _, tri := range m.Triangles {
		fmt.Fprint(bw, "f")
		for _, vi := range tri {
			switch {
			case hasUV && hasNormals:
				fmt.Fprintf(bw, " %d/%d/%d", vi+1, vi+1, vi+1)
			case hasUV:
				fmt.Fprintf(bw, " %d/%d", vi+1, vi+1)
			case hasNormals:
				fmt.Fprintf(bw, " %d//%d", vi+1, vi+1)
			default:
				fmt.Fprintf(bw, " %d", vi+1)
			}
		}
		fmt.Fprintln(bw)
	}
	return bw.Flush()
}

// TextureResolver resolves a stored texture reference to a file path.
type TextureResolver interface {
	Texture(ref string) (string, error)
}

// WriteMaterials writes an MTL library for the given texture list.
// References the resolver cannot map keep their material entry but get
// no map_Kd line.
func WriteMaterials(w io.Writer, textures []string, resolver TextureResolver) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintln(bw, "newmtl untextured")
	fmt.Fprintln(bw, "Kd 0.8 0.8 0.8")
	for i, tex := range textures {
		fmt.Fprintf(bw, "\nnewmtl %s\n", materialName(tex, i))
		fmt.Fprintln(bw, "Kd 1 1 1")
		if resolver == nil {
			continue
		}
		if path, err := resolver.Texture(tex); err == nil {
			fmt.Fprintf(bw, "map_Kd %s\n", filepath.ToSlash(path))
		}
	}
	return bw.Flush()
}

// SaveTerrain writes the mesh and its material library next to each
// other, deriving the mtllib name from the OBJ path.
func SaveTerrain(path string, m *terrain.Mesh, textures []string, resolver TextureResolver) error {
	mtlPath := strings.TrimSuffix(path, filepath.Ext(path)) + ".mtl"

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("write obj: %w", err)
	}
	defer f.Close()
	if err := WriteTerrain(f, m, textures, filepath.Base(mtlPath)); err != nil {
		return fmt.Errorf("write obj: %w", err)
	}

	mf, err := os.Create(mtlPath)
	if err != nil {
		return fmt.Errorf("write mtl: %w", err)
	}
	defer mf.Close()
	if err := WriteMaterials(mf, textures, resolver); err != nil {
		return fmt.Errorf("write mtl: %w", err)
	}
	return nil
}

// SaveMesh writes a ZMS mesh to the given path, naming the object
// after the file.
func SaveMesh(path string, m *rose.Mesh) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("write obj: %w", err)
	}
	defer f.Close()
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	if err := WriteMesh(f, m, name); err != nil {
		return fmt.Errorf("write obj: %w", err)
	}
	return nil
}
