package testutil

import (
	"encoding/binary"
	"math"
)

// LASPoint is one synthetic point record. Coordinates are the raw integers
// stored in the file; the header's scale and offset turn them into real
// coordinates.
type LASPoint struct {
	X, Y, Z          int32
	Intensity        uint16
	Classification   uint8
	GPSTime          float64
	Red, Green, Blue uint16
}

// LASBuilder assembles an in-memory LAS file. Zero-valued fields fall back
// to sensible defaults in Build, so a test only sets what it cares about.
type LASBuilder struct {
	VersionMajor, VersionMinor uint8
	Format                     uint8

	HeaderSize        uint16 // 0: 227 for 1.0-1.2, 243 for 1.3, 375 for 1.4
	OffsetToPointData uint32 // 0: HeaderSize
	RecordLength      uint16 // 0: LAS minimum for Format

	FileSourceID       uint16
	GlobalEncoding     uint16
	SystemIdentifier   string
	GeneratingSoftware string
	CreationDay        uint16
	CreationYear       uint16
	NumberOfVLRs       uint32

	Scale  [3]float64 // zero: 0.01 on every axis
	Offset [3]float64
	Min    [3]float64
	Max    [3]float64

	LegacyCount   *uint32 // nil: len(Points)
	ExtendedCount *uint64 // nil: len(Points); only written for 1.4

	WaveformStart uint64
	EVLRStart     uint64
	EVLRCount     uint32

	Points []LASPoint
}

// NewLASBuilder returns a builder for the given version and point format.
func NewLASBuilder(major, minor, format uint8) *LASBuilder {
	return &LASBuilder{
		VersionMajor:       major,
		VersionMinor:       minor,
		Format:             format,
		SystemIdentifier:   "testutil",
		GeneratingSoftware: "lasview fixtures",
		CreationDay:        42,
		CreationYear:       2024,
	}
}

// AddPoint appends a record and returns the builder for chaining.
func (b *LASBuilder) AddPoint(p LASPoint) *LASBuilder {
	b.Points = append(b.Points, p)
	return b
}

var minRecordLength = map[uint8]uint16{0: 20, 1: 28, 2: 26, 3: 34, 4: 57, 5: 63, 6: 30, 7: 36, 8: 38, 9: 59, 10: 67}

func (b *LASBuilder) headerSize() uint16 {
	if b.HeaderSize != 0 {
		return b.HeaderSize
	}
	switch {
	case b.VersionMajor == 1 && b.VersionMinor >= 4:
		return 375
	case b.VersionMajor == 1 && b.VersionMinor == 3:
		return 243
	}
	return 227
}

func (b *LASBuilder) recordLength() uint16 {
	if b.RecordLength != 0 {
		return b.RecordLength
	}
	return minRecordLength[b.Format]
}

// Build serialises the header and every point record.
func (b *LASBuilder) Build() []byte {
	hs := b.headerSize()
	offset := b.OffsetToPointData
	if offset == 0 {
		offset = uint32(hs)
	}
	stride := int(b.recordLength())

	headerBytes := max(int(hs), int(offset), 263)
	buf := make([]byte, int(offset)+stride*len(b.Points))
	if len(buf) < headerBytes {
		buf = append(buf, make([]byte, headerBytes-len(buf))...)
	}
	le := binary.LittleEndian

	copy(buf[0:4], "LASF")
	le.PutUint16(buf[4:], b.FileSourceID)
	le.PutUint16(buf[6:], b.GlobalEncoding)
	buf[24] = b.VersionMajor
	buf[25] = b.VersionMinor
	putText(buf[26:58], b.SystemIdentifier)
	putText(buf[58:90], b.GeneratingSoftware)
	le.PutUint16(buf[90:], b.CreationDay)
	le.PutUint16(buf[92:], b.CreationYear)
	le.PutUint16(buf[94:], hs)
	le.PutUint32(buf[96:], offset)
	le.PutUint32(buf[100:], b.NumberOfVLRs)
	buf[104] = b.Format
	le.PutUint16(buf[105:], uint16(stride))

	legacy := uint32(len(b.Points))
	if b.LegacyCount != nil {
		legacy = *b.LegacyCount
	}
	le.PutUint32(buf[107:], legacy)

	scale := b.Scale
	if scale == [3]float64{} {
		scale = [3]float64{0.01, 0.01, 0.01}
	}
	for i := 0; i < 3; i++ {
		putF64(buf[131+8*i:], scale[i])
		putF64(buf[155+8*i:], b.Offset[i])
		putF64(buf[179+16*i:], b.Max[i])
		putF64(buf[187+16*i:], b.Min[i])
	}

	if b.VersionMajor == 1 && b.VersionMinor >= 3 {
		le.PutUint64(buf[235:], b.WaveformStart)
	}
	if b.VersionMajor == 1 && b.VersionMinor >= 4 {
		extended := uint64(len(b.Points))
		if b.ExtendedCount != nil {
			extended = *b.ExtendedCount
		}
		le.PutUint64(buf[243:], b.EVLRStart)
		le.PutUint32(buf[251:], b.EVLRCount)
		le.PutUint64(buf[255:], extended)
	}

	for i, p := range b.Points {
		putRecord(buf[int(offset)+i*stride:int(offset)+(i+1)*stride], b.Format, p)
	}

	return buf[:max(int(offset)+stride*len(b.Points), int(hs))]
}

// putRecord writes p into rec, silently dropping fields that do not fit in
// the record so tests can declare undersized record lengths.
func putRecord(rec []byte, format uint8, p LASPoint) {
	le := binary.LittleEndian
	put := func(off, n int, write func([]byte)) {
		if off+n <= len(rec) {
			write(rec[off : off+n])
		}
	}
	put(0, 4, func(d []byte) { le.PutUint32(d, uint32(p.X)) })
	put(4, 4, func(d []byte) { le.PutUint32(d, uint32(p.Y)) })
	put(8, 4, func(d []byte) { le.PutUint32(d, uint32(p.Z)) })
	put(12, 2, func(d []byte) { le.PutUint16(d, p.Intensity) })
	put(14, 1, func(d []byte) { d[0] = 0x09 }) // return 1 of 1
	put(15, 1, func(d []byte) { d[0] = p.Classification })

	hasGPS := format != 0 && format != 2
	if hasGPS {
		put(20, 8, func(d []byte) { putF64(d, p.GPSTime) })
	}

	switch format {
	case 2, 3, 5, 7, 8, 10:
		colorOffset := 20
		if hasGPS {
			colorOffset = 28
		}
		put(colorOffset, 2, func(d []byte) { le.PutUint16(d, p.Red) })
		put(colorOffset+2, 2, func(d []byte) { le.PutUint16(d, p.Green) })
		put(colorOffset+4, 2, func(d []byte) { le.PutUint16(d, p.Blue) })
	}
}

func putText(dst []byte, s string) {
	n := copy(dst, s)
	for i := n; i < len(dst); i++ {
		dst[i] = 0
	}
}

func putF64(dst []byte, v float64) {
	binary.LittleEndian.PutUint64(dst, math.Float64bits(v))
}

// Uint32Ptr returns a pointer to v.
func Uint32Ptr(v uint32) *uint32 { return &v }

// Uint64Ptr returns a pointer to v.
func Uint64Ptr(v uint64) *uint64 { return &v }
