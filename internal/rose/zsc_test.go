package rose

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeZscMaterial(w *writer, path string, alphaTest bool, blend uint16) {
	w.cstring(path)
	w.uint16(1) // is_skin
	w.uint16(1) // alpha_enabled
	w.uint16(0) // two_sided
	if alphaTest {
		w.uint16(1)
	} else {
		w.uint16(0)
	}
	w.uint16(128)   // alpha ref (128/256 = 0.5)
	w.uint16(1)     // z_test
	w.uint16(1)     // z_write
	w.uint16(blend) // blend mode
	w.uint16(0)     // specular
	w.float32(0.75) // alpha
	w.uint16(2)     // glow simple
	w.vector3(Vector3{X: 1, Y: 0.5, Z: 0.25})
}

func buildZsc() []byte {
	w := &writer{}

	// Mesh table.
	w.uint16(2)
	w.cstring(`3DDATA\JUNON\HOUSE01.ZMS`)
	w.cstring(`3DDATA\JUNON\ROOF01.ZMS`)

	// Material table.
	w.uint16(1)
	writeZscMaterial(w, `3DDATA\JUNON\HOUSE01.DDS`, true, 0)

	// Effect table.
	w.uint16(1)
	w.cstring(`3DDATA\EFFECT\SMOKE.EFT`)

	// Objects.
	w.uint16(2)

	// Object 0: one part with properties, one effect.
	w.uint32(0) // bounding cylinder radius
	w.uint32(0) // center x
	w.uint32(0) // center y
	w.uint16(1) // part count
	w.uint16(0) // mesh id
	w.uint16(0) // material id
	w.uint8(1)  // position
	w.uint8(12)
	w.vector3(Vector3{X: 5, Y: 6, Z: 7})
	w.uint8(2) // rotation
	w.uint8(16)
	w.float32(1) // w
	w.float32(0)
	w.float32(0)
	w.float32(0)
	w.uint8(7) // parent (1-based)
	w.uint8(2)
	w.uint16(1)
	w.uint8(29) // collision
	w.uint8(2)
	w.uint16(uint16(CollisionAABB) | 8<<3)
	w.uint8(30) // animation path
	w.uint8(8)
	w.buf.WriteString("WALK.ZMO")
	w.uint8(0) // end of part

	w.uint16(1) // effect count
	w.uint16(0) // effect id
	w.uint16(1) // day/night
	w.uint8(1)  // position
	w.uint8(12)
	w.vector3(Vector3{X: 1, Y: 2, Z: 3})
	w.uint8(77) // unknown property, skipped by size
	w.uint8(4)
	w.uint32(0xFFFFFFFF)
	w.uint8(0) // end of effect

	for i := 0; i < 6; i++ { // bounding box
		w.uint32(0)
	}

	// Object 1: empty.
	w.uint32(0)
	w.uint32(0)
	w.uint32(0)
	w.uint16(0)

	return w.buf.Bytes()
}

func TestReadModelList(t *testing.T) {
	l, err := ReadModelList(buildZsc())
	require.NoError(t, err)

	assert.Equal(t, []string{`3DDATA\JUNON\HOUSE01.ZMS`, `3DDATA\JUNON\ROOF01.ZMS`}, l.Meshes)
	assert.Equal(t, []string{`3DDATA\EFFECT\SMOKE.EFT`}, l.Effects)
	require.Len(t, l.Objects, 2)

	require.Len(t, l.Materials, 1)
	mat := l.Materials[0]
	assert.True(t, mat.IsSkin)
	assert.True(t, mat.AlphaEnabled)
	assert.False(t, mat.TwoSided)
	assert.True(t, mat.AlphaTestEnabled())
	assert.InDelta(t, 0.5, mat.AlphaTestRef, 1e-6)
	assert.Equal(t, BlendNormal, mat.Blend, "stored 0 maps to normal blending")
	assert.InDelta(t, 0.75, mat.Alpha, 1e-6)
	assert.Equal(t, GlowSimple, mat.Glow)

	obj := l.Objects[0]
	require.Len(t, obj.Parts, 1)
	part := obj.Parts[0]
	assert.Equal(t, uint16(0), part.MeshID)
	assert.Equal(t, Vector3{X: 5, Y: 6, Z: 7}, part.Position)
	assert.Equal(t, Quaternion{W: 1}, part.Rotation)
	assert.Equal(t, 0, part.Parent, "1-based parent converted to 0-based")
	assert.Equal(t, noIndex, part.BoneIndex)
	assert.Equal(t, CollisionAABB, part.CollisionShape)
	assert.Equal(t, uint16(8), part.CollisionFlags)
	assert.Equal(t, "WALK.ZMO", part.AnimationPath)

	require.Len(t, obj.Effects, 1)
	eff := obj.Effects[0]
	assert.Equal(t, EffectDayNight, eff.Type)
	assert.Equal(t, Vector3{X: 1, Y: 2, Z: 3}, eff.Position)
	assert.Equal(t, noIndex, eff.Parent)

	assert.Empty(t, l.Objects[1].Parts)
}

func TestReadModelListMaterialBlendLighten(t *testing.T) {
	w := &writer{}
	w.uint16(0) // meshes
	w.uint16(1) // materials
	writeZscMaterial(w, "A.DDS", false, 1)
	w.uint16(0) // effects
	w.uint16(0) // objects

	l, err := ReadModelList(w.buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, BlendLighten, l.Materials[0].Blend)
	assert.False(t, l.Materials[0].AlphaTestEnabled())
	assert.Less(t, l.Materials[0].AlphaTestRef, float32(0))
}

func TestReadModelListInvalidPartProperty(t *testing.T) {
	w := &writer{}
	w.uint16(0) // meshes
	w.uint16(0) // materials
	w.uint16(0) // effects
	w.uint16(1) // objects
	w.uint32(0)
	w.uint32(0)
	w.uint32(0)
	w.uint16(1)  // part count
	w.uint16(0)  // mesh id
	w.uint16(0)  // material id
	w.uint8(200) // bogus property tag
	w.uint8(1)

	_, err := ReadModelList(w.buf.Bytes())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid part property")
}

func TestReadModelListTruncated(t *testing.T) {
	data := buildZsc()
	_, err := ReadModelList(data[:10])
	require.Error(t, err)
}
