package rose

import (
	"fmt"
	"os"
)

// BlendMode controls how a ZSC material is composited.
type BlendMode uint16

const (
	BlendNone BlendMode = iota
	BlendCustom
	BlendNormal
	BlendLighten
)

// GlowType selects the glow rendering of a ZSC material.
type GlowType uint16

const (
	GlowNone GlowType = iota
	GlowNotSet
	GlowSimple
	GlowLight
	GlowTexture
	GlowTextureLight
	GlowAlpha
)

// CollisionType is the collision shape of an object part.
type CollisionType uint16

const (
	CollisionNone CollisionType = iota
	CollisionSphere
	CollisionAABB
	CollisionOBB
	CollisionPolygon
)

// EffectType classifies an object effect slot.
type EffectType uint16

const (
	EffectNormal EffectType = iota
	EffectDayNight
	EffectLightContainer
	EffectUnknown
)

// Material is one entry of a ZSC material table.
type Material struct {
	Path            string
	IsSkin          bool
	AlphaEnabled    bool
	TwoSided        bool
	AlphaTestRef    float32 // negative when alpha test is disabled
	ZTestEnabled    bool
	ZWriteEnabled   bool
	Blend           BlendMode
	SpecularEnabled bool
	Alpha           float32
	Glow            GlowType
	GlowColor       Vector3
}

// AlphaTestEnabled reports whether the material uses alpha testing.
func (m Material) AlphaTestEnabled() bool { return m.AlphaTestRef >= 0 }

// noIndex marks an absent bone/dummy/parent reference.
const noIndex = -1

// ObjectPart places one mesh/material pair inside a ZSC object.
// BoneIndex, DummyIndex and Parent are -1 when the file does not set them;
// Parent is already converted from the file's 1-based numbering.
type ObjectPart struct {
	MeshID         uint16
	MaterialID     uint16
	Position       Vector3
	Rotation       Quaternion
	Scale          Vector3
	BoneIndex      int
	DummyIndex     int
	Parent         int
	CollisionShape CollisionType
	CollisionFlags uint16
	AnimationPath  string
}

// ObjectEffect attaches an effect from the effect table to an object.
type ObjectEffect struct {
	EffectID uint16
	Type     EffectType
	Position Vector3
	Rotation Quaternion
	Scale    Vector3
	Parent   int
}

// Object is one composed model: a list of parts plus attached effects.
type Object struct {
	Parts   []ObjectPart
	Effects []ObjectEffect
}

// ModelList holds the contents of a ZSC file: shared mesh, material and
// effect path tables, plus the objects assembled from them.
type ModelList struct {
	Meshes    []string
	Materials []Material
	Effects   []string
	Objects   []Object
}

// Part property tags. A part is serialized as a sequence of
// (tag u8, size u8, payload) records terminated by tag 0.
const (
	zscPropEnd       = 0
	zscPropPosition  = 1
	zscPropRotation  = 2
	zscPropScale     = 3
	zscPropAxisRot   = 4 // unused 4-float payload
	zscPropBone      = 5
	zscPropDummy     = 6
	zscPropParent    = 7
	zscPropCollision = 29
	zscPropAnimation = 30
	zscPropRangeSet  = 31
	zscPropUseDefault = 32
)

// ReadModelList parses ZSC data.
func ReadModelList(data []byte) (*ModelList, error) {
	r := newReader(data)
	l := &ModelList{}

	meshCount := int(r.uint16())
	if err := r.err(); err != nil {
		return nil, fmt.Errorf("zsc mesh table: %w", err)
	}
	l.Meshes = make([]string, 0, meshCount)
	for i := 0; i < meshCount; i++ {
		l.Meshes = append(l.Meshes, r.cstring())
	}

	matCount := int(r.uint16())
	if err := r.err(); err != nil {
		return nil, fmt.Errorf("zsc material table: %w", err)
	}
	l.Materials = make([]Material, 0, matCount)
	for i := 0; i < matCount; i++ {
		m, err := readMaterial(r)
		if err != nil {
			return nil, fmt.Errorf("zsc material %d: %w", i, err)
		}
		l.Materials = append(l.Materials, m)
	}

	effectCount := int(r.uint16())
	if err := r.err(); err != nil {
		return nil, fmt.Errorf("zsc effect table: %w", err)
	}
	l.Effects = make([]string, 0, effectCount)
	for i := 0; i < effectCount; i++ {
		l.Effects = append(l.Effects, r.cstring())
	}

	objectCount := int(r.uint16())
	if err := r.err(); err != nil {
		return nil, fmt.Errorf("zsc object table: %w", err)
	}
	l.Objects = make([]Object, 0, objectCount)
	for i := 0; i < objectCount; i++ {
		obj, err := readObject(r)
		if err != nil {
			return nil, fmt.Errorf("zsc object %d: %w", i, err)
		}
		l.Objects = append(l.Objects, obj)
	}
	return l, nil
}

func readMaterial(r *reader) (Material, error) {
	m := Material{
		Path:   r.cstring(),
		IsSkin: r.uint16() != 0,
	}
	m.AlphaEnabled = r.uint16() != 0
	m.TwoSided = r.uint16() != 0
	alphaTestEnabled := r.uint16() != 0
	alphaRef := float32(r.uint16()) / 256.0
	m.ZTestEnabled = r.uint16() != 0
	m.ZWriteEnabled = r.uint16() != 0

	// The client remaps stored blend values: 0 means normal blending and
	// 1 means lighten; everything else disables blending.
	switch r.uint16() {
	case 0:
		m.Blend = BlendNormal
	case 1:
		m.Blend = BlendLighten
	default:
		m.Blend = BlendNone
	}

	m.SpecularEnabled = r.uint16() != 0
	m.Alpha = r.float32()

	glow := r.uint16()
	if glow <= uint16(GlowAlpha) {
		m.Glow = GlowType(glow)
	} else {
		m.Glow = GlowNone
	}
	m.GlowColor = r.vector3()

	if alphaTestEnabled {
		m.AlphaTestRef = alphaRef
	} else {
		m.AlphaTestRef = -1
	}
	return m, r.err()
}

func readObject(r *reader) (Object, error) {
	// Bounding cylinder: radius and center, unused here.
	r.skip(12)

	obj := Object{}
	partCount := int(r.uint16())
	if err := r.err(); err != nil {
		return obj, fmt.Errorf("part count: %w", err)
	}
	if partCount == 0 {
		return obj, nil
	}

	for i := 0; i < partCount; i++ {
		part, err := readObjectPart(r)
		if err != nil {
			return obj, fmt.Errorf("part %d: %w", i, err)
		}
		obj.Parts = append(obj.Parts, part)
	}

	effectCount := int(r.uint16())
	if err := r.err(); err != nil {
		return obj, fmt.Errorf("effect count: %w", err)
	}
	for i := 0; i < effectCount; i++ {
		eff, err := readObjectEffect(r)
		if err != nil {
			return obj, fmt.Errorf("effect %d: %w", i, err)
		}
		obj.Effects = append(obj.Effects, eff)
	}

	// Bounding box, unused here.
	r.skip(24)
	return obj, r.err()
}

func readObjectPart(r *reader) (ObjectPart, error) {
	part := ObjectPart{
		MeshID:     r.uint16(),
		MaterialID: r.uint16(),
		Scale:      Vector3{X: 1, Y: 1, Z: 1},
		Rotation:   Quaternion{W: 1},
		BoneIndex:  noIndex,
		DummyIndex: noIndex,
		Parent:     noIndex,
	}

	for {
		tag := r.uint8()
		if err := r.err(); err != nil {
			return part, err
		}
		if tag == zscPropEnd {
			return part, nil
		}
		size := int(r.uint8())

		switch tag {
		case zscPropPosition:
			part.Position = r.vector3()
		case zscPropRotation:
			part.Rotation = r.quatWXYZ()
		case zscPropScale:
			part.Scale = r.vector3()
		case zscPropAxisRot:
			r.skip(16)
		case zscPropBone:
			part.BoneIndex = int(r.uint16())
		case zscPropDummy:
			part.DummyIndex = int(r.uint16())
		case zscPropParent:
			if id := r.uint16(); id != 0 {
				part.Parent = int(id) - 1
			}
		case zscPropCollision:
			bits := r.uint16()
			shape := bits & 0b111
			if shape >= uint16(CollisionSphere) && shape <= uint16(CollisionPolygon) {
				part.CollisionShape = CollisionType(shape)
			}
			part.CollisionFlags = bits >> 3
		case zscPropAnimation:
			if size > 0 {
				part.AnimationPath = string(r.bytes(size))
			}
		case zscPropRangeSet, zscPropUseDefault:
			r.skip(2)
		default:
			return part, fmt.Errorf("invalid part property %d", tag)
		}
		if err := r.err(); err != nil {
			return part, err
		}
	}
}

func readObjectEffect(r *reader) (ObjectEffect, error) {
	eff := ObjectEffect{
		EffectID: r.uint16(),
		Scale:    Vector3{X: 1, Y: 1, Z: 1},
		Rotation: Quaternion{W: 1},
		Parent:   noIndex,
	}
	if t := r.uint16(); t <= uint16(EffectLightContainer) {
		eff.Type = EffectType(t)
	} else {
		eff.Type = EffectUnknown
	}

	for {
		tag := r.uint8()
		if err := r.err(); err != nil {
			return eff, err
		}
		if tag == zscPropEnd {
			return eff, nil
		}
		size := int(r.uint8())

		switch tag {
		case zscPropPosition:
			eff.Position = r.vector3()
		case zscPropRotation:
			eff.Rotation = r.quatWXYZ()
		case zscPropScale:
			eff.Scale = r.vector3()
		case zscPropParent:
			if id := r.uint16(); id != 0 {
				eff.Parent = int(id) - 1
			}
		default:
			// Effects carry forward-compatible properties; skip unknowns.
			r.skip(size)
		}
		if err := r.err(); err != nil {
			return eff, err
		}
	}
}

// LoadModelList reads and parses a ZSC file from disk.
func LoadModelList(path string) (*ModelList, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading zsc %s: %w", path, err)
	}
	l, err := ReadModelList(data)
	if err != nil {
		return nil, fmt.Errorf("parsing zsc %s: %w", path, err)
	}
	return l, nil
}
