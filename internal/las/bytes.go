package las

import (
	"encoding/binary"
	"math"
)

// within reports whether n bytes starting at off fit inside a buffer of the
// given length. It is the single bounds check used by header and point
// decoding alike, and is written to avoid integer overflow on large offsets.
func within(length, off, n int) bool {
	return off >= 0 && n >= 0 && off <= length && n <= length-off
}

// byteView reads little-endian values at absolute offsets. Callers must
// establish bounds with within (or require) before reading.
type byteView []byte

// require returns a TruncatedHeaderError when the region [off, off+n) is
// not inside the view.
func (b byteView) require(region string, off, n int) error {
	if !within(len(b), off, n) {
		return &TruncatedHeaderError{Region: region, Need: off + n, Have: len(b)}
	}
	return nil
}

func (b byteView) u8(off int) uint8 {
	return b[off]
}

func (b byteView) u16(off int) uint16 {
	return binary.LittleEndian.Uint16(b[off : off+2])
}

func (b byteView) u32(off int) uint32 {
	return binary.LittleEndian.Uint32(b[off : off+4])
}

func (b byteView) i32(off int) int32 {
	return int32(binary.LittleEndian.Uint32(b[off : off+4]))
}

func (b byteView) u64(off int) uint64 {
	return binary.LittleEndian.Uint64(b[off : off+8])
}

func (b byteView) f64(off int) float64 {
	return math.Float64frombits(binary.LittleEndian.Uint64(b[off : off+8]))
}

// text decodes a fixed-width ASCII field, dropping trailing NUL and space
// padding.
func (b byteView) text(off, n int) string {
	field := b[off : off+n]
	end := len(field)
	for end > 0 && (field[end-1] == 0 || field[end-1] == ' ') {
		end--
	}
	return string(field[:end])
}
