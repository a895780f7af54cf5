package las

import "fmt"

// PointFormat is the point data record format (PDRF) code from the header.
// It selects which optional per-point fields are present.
type PointFormat uint8

// Record-relative offsets shared by every point format
const (
	RECORD_X_OFFSET              = 0  // int32
	RECORD_Y_OFFSET              = 4  // int32
	RECORD_Z_OFFSET              = 8  // int32
	RECORD_INTENSITY_OFFSET      = 12 // uint16
	RECORD_CLASSIFICATION_OFFSET = 15 // uint8
	RECORD_CORE_SIZE             = 16 // bytes needed to read X..classification

	COLOR_OFFSET_NO_GPS   = 20 // RGB directly after the 20-byte base record
	COLOR_OFFSET_WITH_GPS = 28 // RGB after an 8-byte GPS time
	COLOR_SIZE            = 6  // three uint16 channels

	COLOR_CHANNEL_MAX = 65535.0 // full-scale 16-bit channel value
	NEUTRAL_GRAY      = 0.5     // substituted when colour bytes are out of range

	MAX_SUPPORTED_FORMAT = 10
)

// minRecordLengths is the LAS-defined minimum record size per format.
// The header's declared record length is authoritative for stride; these
// values only feed Header.Warnings.
var minRecordLengths = [MAX_SUPPORTED_FORMAT + 1]uint16{
	0:  20,
	1:  28,
	2:  26,
	3:  34,
	4:  57,
	5:  63,
	6:  30,
	7:  36,
	8:  38,
	9:  59,
	10: 67,
}

// Supported reports whether the format code is one of 0-10.
func (f PointFormat) Supported() bool {
	return f <= MAX_SUPPORTED_FORMAT
}

// HasRGB reports whether records of this format carry an explicit RGB triple.
func (f PointFormat) HasRGB() bool {
	switch f {
	case 2, 3, 5, 7, 8, 10:
		return true
	}
	return false
}

// HasGPSTime reports whether records of this format carry a GPS time field.
func (f PointFormat) HasGPSTime() bool {
	return f.Supported() && f != 0 && f != 2
}

// ColorOffset returns the record-relative offset of the RGB triple, or -1
// for formats without colour.
func (f PointFormat) ColorOffset() int {
	if !f.HasRGB() {
		return -1
	}
	if f.HasGPSTime() {
		return COLOR_OFFSET_WITH_GPS
	}
	return COLOR_OFFSET_NO_GPS
}

// MinRecordLength returns the minimum record length the LAS standard
// defines for this format, or 0 for unsupported codes.
func (f PointFormat) MinRecordLength() uint16 {
	if !f.Supported() {
		return 0
	}
	return minRecordLengths[f]
}

func (f PointFormat) String() string {
	if !f.Supported() {
		return fmt.Sprintf("PDRF %d (unsupported)", uint8(f))
	}
	return fmt.Sprintf("PDRF %d", uint8(f))
}
