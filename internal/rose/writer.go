package rose

import (
	"bytes"
	"encoding/binary"
	"math"
)

// writer encodes little-endian primitives into a growing buffer.
// Used by the ZMS writer; writes to memory cannot fail.
type writer struct {
	buf bytes.Buffer
}

func (w *writer) uint8(v uint8)   { w.buf.WriteByte(v) }
func (w *writer) uint16(v uint16) { w.putN(2, uint64(v)) }
func (w *writer) uint32(v uint32) { w.putN(4, uint64(v)) }

func (w *writer) putN(n int, v uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	w.buf.Write(b[:n])
}

func (w *writer) float32(v float32) {
	w.uint32(math.Float32bits(v))
}

func (w *writer) cstring(s string) {
	w.buf.WriteString(s)
	w.buf.WriteByte(0)
}

func (w *writer) vector2(v Vector2) {
	w.float32(v.X)
	w.float32(v.Y)
}

func (w *writer) vector3(v Vector3) {
	w.float32(v.X)
	w.float32(v.Y)
	w.float32(v.Z)
}

func (w *writer) color4(c Color4) {
	w.float32(c.R)
	w.float32(c.G)
	w.float32(c.B)
	w.float32(c.A)
}
