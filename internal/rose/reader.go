package rose

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// reader decodes little-endian primitives from a byte slice.
//
// The error is sticky: after the first short read every subsequent call
// returns the zero value, and err() reports the offset of the failure.
// Format parsers check err() at block boundaries instead of after every
// field, which keeps the long record loops readable.
type reader struct {
	data    []byte
	off     int
	failed  bool
	failOff int
}

func newReader(data []byte) *reader {
	return &reader{data: data}
}

func (r *reader) err() error {
	if !r.failed {
		return nil
	}
	return fmt.Errorf("at offset %d: %w", r.failOff, io.ErrUnexpectedEOF)
}

func (r *reader) fail() {
	if !r.failed {
		r.failed = true
		r.failOff = r.off
	}
}

func (r *reader) offset() int { return r.off }

// checkCount fails the reader when count records of at least size bytes
// each cannot fit in the remaining input. Guards slice allocations and
// record loops against corrupt headers.
func (r *reader) checkCount(count, size int) bool {
	if r.failed {
		return false
	}
	if count < 0 || count > r.remaining()/size {
		r.fail()
		return false
	}
	return true
}

func (r *reader) remaining() int { return len(r.data) - r.off }

func (r *reader) seek(off int) {
	if r.failed {
		return
	}
	if off < 0 || off > len(r.data) {
		r.fail()
		return
	}
	r.off = off
}

func (r *reader) skip(n int) {
	r.seek(r.off + n)
}

func (r *reader) bytes(n int) []byte {
	if r.failed || n < 0 || r.off+n > len(r.data) {
		r.fail()
		return nil
	}
	b := r.data[r.off : r.off+n]
	r.off += n
	return b
}

func (r *reader) uint8() uint8 {
	b := r.bytes(1)
	if b == nil {
		return 0
	}
	return b[0]
}

func (r *reader) int8() int8 { return int8(r.uint8()) }

func (r *reader) uint16() uint16 {
	b := r.bytes(2)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint16(b)
}

func (r *reader) int16() int16 { return int16(r.uint16()) }

func (r *reader) uint32() uint32 {
	b := r.bytes(4)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint32(b)
}

func (r *reader) int32() int32 { return int32(r.uint32()) }

func (r *reader) float32() float32 {
	return math.Float32frombits(r.uint32())
}

// cstring reads a null-terminated string.
func (r *reader) cstring() string {
	if r.failed {
		return ""
	}
	start := r.off
	for r.off < len(r.data) {
		if r.data[r.off] == 0 {
			s := string(r.data[start:r.off])
			r.off++
			return s
		}
		r.off++
	}
	r.fail()
	return ""
}

// fixedString reads exactly n bytes and trims trailing NULs.
func (r *reader) fixedString(n int) string {
	b := r.bytes(n)
	if b == nil {
		return ""
	}
	end := len(b)
	for end > 0 && b[end-1] == 0 {
		end--
	}
	return string(b[:end])
}

// byteString reads a u8 length prefix followed by that many characters.
func (r *reader) byteString() string {
	n := int(r.uint8())
	b := r.bytes(n)
	if b == nil {
		return ""
	}
	return string(b)
}

func (r *reader) vector2() Vector2 {
	return Vector2{X: r.float32(), Y: r.float32()}
}

func (r *reader) vector3() Vector3 {
	return Vector3{X: r.float32(), Y: r.float32(), Z: r.float32()}
}

func (r *reader) color4() Color4 {
	return Color4{R: r.float32(), G: r.float32(), B: r.float32(), A: r.float32()}
}

// quatWXYZ reads a quaternion stored in W, X, Y, Z order.
func (r *reader) quatWXYZ() Quaternion {
	w := r.float32()
	x := r.float32()
	y := r.float32()
	z := r.float32()
	return Quaternion{X: x, Y: y, Z: z, W: w}
}
