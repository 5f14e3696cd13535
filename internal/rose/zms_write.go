package rose

import (
	"fmt"
	"os"
)

// EncodeMesh serializes a mesh back into ZMS bytes. The version is taken
// from m.Version; versions 5-8 are supported and the output round-trips
// through ReadMesh.
func EncodeMesh(m *Mesh) ([]byte, error) {
	if m.Version < 5 || m.Version > 8 {
		return nil, fmt.Errorf("zms: unsupported version %d", m.Version)
	}

	w := &writer{}
	w.cstring(fmt.Sprintf("ZMS%04d", m.Version))
	w.uint32(uint32(m.Flags))
	w.vector3(m.BoundingBoxMin)
	w.vector3(m.BoundingBoxMax)

	if m.Version <= 6 {
		m.writeV6(w)
	} else {
		m.writeV8(w)
	}
	return w.buf.Bytes(), nil
}

// boneSlot maps a skeleton bone id back to its slot in the bone table.
// Unknown ids collapse to slot 0, mirroring what the client tolerates.
func (m *Mesh) boneSlot(id uint16) int {
	for i, b := range m.Bones {
		if b == id {
			return i
		}
	}
	return 0
}

func (m *Mesh) writeV6(w *writer) {
	w.uint32(uint32(len(m.Bones)))
	for i, b := range m.Bones {
		w.uint32(uint32(i))
		w.uint32(uint32(b))
	}

	w.uint32(uint32(len(m.Vertices)))
	if m.Flags.HasPositions() {
		for i, v := range m.Vertices {
			w.uint32(uint32(i))
			w.vector3(v.Position.Scale(positionScale))
		}
	}
	if m.Flags.HasNormals() {
		for i, v := range m.Vertices {
			w.uint32(uint32(i))
			w.vector3(v.Normal)
		}
	}
	if m.Flags.HasColors() {
		for i, v := range m.Vertices {
			w.uint32(uint32(i))
			w.color4(v.Color)
		}
	}
	if m.Flags.HasBones() {
		for i, v := range m.Vertices {
			w.uint32(uint32(i))
			for _, wt := range v.BoneWeights {
				w.float32(wt)
			}
			for _, id := range v.BoneIndices {
				w.uint32(uint32(m.boneSlot(id)))
			}
		}
	}
	if m.Flags.HasTangents() {
		for i, v := range m.Vertices {
			w.uint32(uint32(i))
			w.vector3(v.Tangent)
		}
	}
	for uv := 1; uv <= 4; uv++ {
		if !m.Flags.HasUV(uv) {
			continue
		}
		for i, v := range m.Vertices {
			w.uint32(uint32(i))
			w.vector2(v.UV[uv-1])
		}
	}

	w.uint32(uint32(len(m.Triangles)))
	for i, t := range m.Triangles {
		w.uint32(uint32(i))
		w.uint32(uint32(t[0]))
		w.uint32(uint32(t[1]))
		w.uint32(uint32(t[2]))
	}

	if m.Version >= 6 {
		w.uint32(uint32(len(m.Materials)))
		for i, mat := range m.Materials {
			w.uint32(uint32(i))
			w.uint32(uint32(mat))
		}
	}
}

func (m *Mesh) writeV8(w *writer) {
	w.uint16(uint16(len(m.Bones)))
	for _, b := range m.Bones {
		w.uint16(b)
	}

	w.uint16(uint16(len(m.Vertices)))
	if m.Flags.HasPositions() {
		for _, v := range m.Vertices {
			w.vector3(v.Position)
		}
	}
	if m.Flags.HasNormals() {
		for _, v := range m.Vertices {
			w.vector3(v.Normal)
		}
	}
	if m.Flags.HasColors() {
		for _, v := range m.Vertices {
			w.color4(v.Color)
		}
	}
	if m.Flags.HasBones() {
		for _, v := range m.Vertices {
			for _, wt := range v.BoneWeights {
				w.float32(wt)
			}
			for _, id := range v.BoneIndices {
				w.uint16(uint16(m.boneSlot(id)))
			}
		}
	}
	if m.Flags.HasTangents() {
		for _, v := range m.Vertices {
			w.vector3(v.Tangent)
		}
	}
	for uv := 1; uv <= 4; uv++ {
		if !m.Flags.HasUV(uv) {
			continue
		}
		for _, v := range m.Vertices {
			w.vector2(v.UV[uv-1])
		}
	}

	w.uint16(uint16(len(m.Triangles)))
	for _, t := range m.Triangles {
		w.uint16(uint16(t[0]))
		w.uint16(uint16(t[1]))
		w.uint16(uint16(t[2]))
	}

	w.uint16(uint16(len(m.Materials)))
	for _, mat := range m.Materials {
		w.uint16(uint16(mat))
	}

	w.uint16(uint16(len(m.Strips)))
	for _, s := range m.Strips {
		w.uint16(s)
	}

	if m.Version >= 8 {
		w.uint16(m.Pool)
	}
}

// SaveMesh serializes a mesh and writes it to disk.
func SaveMesh(path string, m *Mesh) error {
	data, err := EncodeMesh(m)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing zms %s: %w", path, err)
	}
	return nil
}
