package rose

import (
	"fmt"
	"os"
	"strings"
)

// boneScale converts bone positions from client centimeters to meters.
const boneScale = 0.01

// Bone is a single skeleton joint. ParentID is -1 for the root and for
// dummies attached directly to the skeleton origin.
type Bone struct {
	ParentID int32
	Name     string
	Position Vector3
	Rotation Quaternion
}

// Skeleton holds the contents of a ZMD file. Dummies are attachment
// points (weapons, effects); older files omit the dummy block entirely.
type Skeleton struct {
	Identifier string
	Bones      []Bone
	Dummies    []Bone
}

// ReadSkeleton parses ZMD data. Bone positions are scaled to meters and
// the first bone is forced to be the root regardless of its stored parent.
func ReadSkeleton(data []byte) (*Skeleton, error) {
	r := newReader(data)

	s := &Skeleton{Identifier: r.fixedString(7)}
	if err := r.err(); err != nil {
		return nil, fmt.Errorf("zmd header: %w", err)
	}
	if !strings.HasPrefix(s.Identifier, "ZMD") {
		return nil, fmt.Errorf("zmd: bad identifier %q", s.Identifier)
	}

	// parent id + empty name + position + rotation
	const boneMinSize = 4 + 1 + 12 + 16

	boneCount := int(r.uint32())
	if !r.checkCount(boneCount, boneMinSize) {
		return nil, fmt.Errorf("zmd bone count: %w", r.err())
	}
	s.Bones = make([]Bone, 0, boneCount)
	for i := 0; i < boneCount; i++ {
		b := Bone{
			ParentID: r.int32(),
			Name:     r.cstring(),
		}
		b.Position = r.vector3().Scale(boneScale)
		b.Rotation = r.quatWXYZ()
		if i == 0 {
			b.ParentID = -1
		}
		s.Bones = append(s.Bones, b)
	}
	if err := r.err(); err != nil {
		return nil, fmt.Errorf("zmd bones: %w", err)
	}

	// Older files end after the bones; the dummy block is optional.
	if r.remaining() == 0 {
		return s, nil
	}

	dummyCount := int(r.uint32())
	if !r.checkCount(dummyCount, boneMinSize) {
		return nil, fmt.Errorf("zmd dummies: %w", r.err())
	}
	for i := 0; i < dummyCount; i++ {
		d := Bone{Name: r.cstring()}
		d.ParentID = r.int32()
		d.Position = r.vector3().Scale(boneScale)
		d.Rotation = r.quatWXYZ()
		s.Dummies = append(s.Dummies, d)
	}
	if err := r.err(); err != nil {
		return nil, fmt.Errorf("zmd dummies: %w", err)
	}
	return s, nil
}

// LoadSkeleton reads and parses a ZMD file from disk.
func LoadSkeleton(path string) (*Skeleton, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading zmd %s: %w", path, err)
	}
	s, err := ReadSkeleton(data)
	if err != nil {
		return nil, fmt.Errorf("parsing zmd %s: %w", path, err)
	}
	return s, nil
}
