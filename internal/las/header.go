package las

import (
	"fmt"
	"math"
)

// LAS public header block layout. All offsets are absolute from the start
// of the file; all multi-byte values are little-endian.
const (
	FILE_SIGNATURE = "LASF"

	OFFSET_SIGNATURE           = 0   // [4]byte "LASF"
	OFFSET_FILE_SOURCE_ID      = 4   // uint16
	OFFSET_GLOBAL_ENCODING     = 6   // uint16
	OFFSET_PROJECT_GUID        = 8   // 16 bytes, skipped
	OFFSET_VERSION_MAJOR       = 24  // uint8
	OFFSET_VERSION_MINOR       = 25  // uint8
	OFFSET_SYSTEM_IDENTIFIER   = 26  // 32-byte text
	OFFSET_GENERATING_SOFTWARE = 58  // 32-byte text
	OFFSET_CREATION_DAY        = 90  // uint16
	OFFSET_CREATION_YEAR       = 92  // uint16
	OFFSET_HEADER_SIZE         = 94  // uint16
	OFFSET_POINT_DATA          = 96  // uint32
	OFFSET_NUM_VLRS            = 100 // uint32
	OFFSET_POINT_FORMAT        = 104 // uint8
	OFFSET_RECORD_LENGTH       = 105 // uint16
	OFFSET_LEGACY_POINT_COUNT  = 107 // uint32
	OFFSET_LEGACY_BY_RETURN    = 111 // 5 × uint32, skipped
	OFFSET_SCALE_FACTORS       = 131 // 3 × float64 (x, y, z)
	OFFSET_OFFSETS             = 155 // 3 × float64 (x, y, z)
	OFFSET_BOUNDS              = 179 // 6 × float64 (maxX, minX, maxY, minY, maxZ, minZ)

	SIGNATURE_SIZE   = 4
	TEXT_FIELD_SIZE  = 32
	HEADER_CORE_SIZE = 227 // end of the bounds block; every version has it

	// Version-conditional regions are read at fixed offsets, gated on
	// version and declared header size.
	OFFSET_WAVEFORM_START  = 235 // uint64, 1.3+
	WAVEFORM_REGION_SIZE   = 8
	WAVEFORM_MIN_HEADER    = 235
	OFFSET_EXTENDED_FIELDS = 243 // uint64 EVLR start, uint32 EVLR count, uint64 point count; 1.4+
	EXTENDED_REGION_SIZE   = 20
	EXTENDED_MIN_HEADER    = 243
)

// Header is the decoded public header block. It is produced once by
// ParseHeader and never modified afterwards.
type Header struct {
	FileSignature  [4]byte
	FileSourceID   uint16
	GlobalEncoding uint16
	VersionMajor   uint8
	VersionMinor   uint8

	SystemIdentifier   string
	GeneratingSoftware string

	FileCreationDayOfYear uint16
	FileCreationYear      uint16

	HeaderSize                    uint16 // declared total header length
	OffsetToPointData             uint32 // byte offset of the first point record
	NumberOfVariableLengthRecords uint32
	PointDataRecordFormat         PointFormat
	PointDataRecordLength         uint16 // declared stride, authoritative over the format minimum
	LegacyNumberOfPointRecords    uint32

	XScaleFactor, YScaleFactor, ZScaleFactor float64
	XOffset, YOffset, ZOffset                float64

	MinX, MaxX float64
	MinY, MaxY float64
	MinZ, MaxZ float64

	// 1.3+ (HasWaveformPointer)
	HasWaveformPointer              bool
	StartOfWaveformDataPacketRecord uint64

	// 1.4+ (HasExtendedFields)
	HasExtendedFields                        bool
	StartOfFirstExtendedVariableLengthRecord uint64
	NumberOfExtendedVariableLengthRecords    uint32
	NumberOfPointRecords                     uint64
}

// ParseHeader decodes the public header block at the start of data.
//
// It fails with *FormatError when the signature is not "LASF" and with
// *TruncatedHeaderError when data is too short for the regions that the
// declared version and header size require. No partial header is returned
// on error.
func ParseHeader(data []byte) (Header, error) {
	b := byteView(data)

	if err := b.require("file signature", OFFSET_SIGNATURE, SIGNATURE_SIZE); err != nil {
		return Header{}, err
	}
	var h Header
	copy(h.FileSignature[:], b[OFFSET_SIGNATURE:OFFSET_SIGNATURE+SIGNATURE_SIZE])
	if string(h.FileSignature[:]) != FILE_SIGNATURE {
		return Header{}, &FormatError{Got: h.FileSignature}
	}

	if err := b.require("header core", 0, HEADER_CORE_SIZE); err != nil {
		return Header{}, err
	}

	h.FileSourceID = b.u16(OFFSET_FILE_SOURCE_ID)
	h.GlobalEncoding = b.u16(OFFSET_GLOBAL_ENCODING)
	h.VersionMajor = b.u8(OFFSET_VERSION_MAJOR)
	h.VersionMinor = b.u8(OFFSET_VERSION_MINOR)
	h.SystemIdentifier = b.text(OFFSET_SYSTEM_IDENTIFIER, TEXT_FIELD_SIZE)
	h.GeneratingSoftware = b.text(OFFSET_GENERATING_SOFTWARE, TEXT_FIELD_SIZE)
	h.FileCreationDayOfYear = b.u16(OFFSET_CREATION_DAY)
	h.FileCreationYear = b.u16(OFFSET_CREATION_YEAR)
	h.HeaderSize = b.u16(OFFSET_HEADER_SIZE)
	h.OffsetToPointData = b.u32(OFFSET_POINT_DATA)
	h.NumberOfVariableLengthRecords = b.u32(OFFSET_NUM_VLRS)
	h.PointDataRecordFormat = PointFormat(b.u8(OFFSET_POINT_FORMAT))
	h.PointDataRecordLength = b.u16(OFFSET_RECORD_LENGTH)
	h.LegacyNumberOfPointRecords = b.u32(OFFSET_LEGACY_POINT_COUNT)

	h.XScaleFactor = b.f64(OFFSET_SCALE_FACTORS)
	h.YScaleFactor = b.f64(OFFSET_SCALE_FACTORS + 8)
	h.ZScaleFactor = b.f64(OFFSET_SCALE_FACTORS + 16)
	h.XOffset = b.f64(OFFSET_OFFSETS)
	h.YOffset = b.f64(OFFSET_OFFSETS + 8)
	h.ZOffset = b.f64(OFFSET_OFFSETS + 16)

	// Bounds are stored max-first per axis
	h.MaxX = b.f64(OFFSET_BOUNDS)
	h.MinX = b.f64(OFFSET_BOUNDS + 8)
	h.MaxY = b.f64(OFFSET_BOUNDS + 16)
	h.MinY = b.f64(OFFSET_BOUNDS + 24)
	h.MaxZ = b.f64(OFFSET_BOUNDS + 32)
	h.MinZ = b.f64(OFFSET_BOUNDS + 40)

	if h.VersionMajor == 1 && h.VersionMinor >= 3 && h.HeaderSize >= WAVEFORM_MIN_HEADER {
		if err := b.require("waveform data packet pointer", OFFSET_WAVEFORM_START, WAVEFORM_REGION_SIZE); err != nil {
			return Header{}, err
		}
		h.HasWaveformPointer = true
		h.StartOfWaveformDataPacketRecord = b.u64(OFFSET_WAVEFORM_START)
	}

	if h.VersionMajor == 1 && h.VersionMinor >= 4 && h.HeaderSize >= EXTENDED_MIN_HEADER {
		if err := b.require("extended VLR and point count fields", OFFSET_EXTENDED_FIELDS, EXTENDED_REGION_SIZE); err != nil {
			return Header{}, err
		}
		// Per-return counts that follow are not decoded
		off := OFFSET_EXTENDED_FIELDS
		h.HasExtendedFields = true
		h.StartOfFirstExtendedVariableLengthRecord = b.u64(off)
		h.NumberOfExtendedVariableLengthRecords = b.u32(off + 8)
		h.NumberOfPointRecords = b.u64(off + 12)
	}

	return h, nil
}

// PointCount returns the effective number of point records: the 64-bit
// count when the 1.4 fields were read, otherwise the legacy 32-bit count.
func (h Header) PointCount() uint64 {
	if h.HasExtendedFields {
		return h.NumberOfPointRecords
	}
	return uint64(h.LegacyNumberOfPointRecords)
}

// Version returns the "major.minor" version string.
func (h Header) Version() string {
	return fmt.Sprintf("%d.%d", h.VersionMajor, h.VersionMinor)
}

// RecordsInBuffer returns how many complete point records fit in a buffer of
// bufferLen bytes, independent of the declared point count.
func (h Header) RecordsInBuffer(bufferLen int) uint64 {
	start := int(h.OffsetToPointData)
	stride := int(h.PointDataRecordLength)
	if stride == 0 {
		return 0
	}
	// The last record must cover the core fields even if the declared
	// stride is shorter than that.
	need := stride
	if need < RECORD_CORE_SIZE {
		need = RECORD_CORE_SIZE
	}
	if !within(bufferLen, start, need) {
		return 0
	}
	return uint64((bufferLen-start-need)/stride) + 1
}

// Warnings lists consistency problems between the header and a buffer of
// bufferLen bytes. None of them stop decoding.
func (h Header) Warnings(bufferLen int) []string {
	var warnings []string

	if int(h.HeaderSize) < HEADER_CORE_SIZE {
		warnings = append(warnings, fmt.Sprintf("header size %d is smaller than the %d-byte core header", h.HeaderSize, HEADER_CORE_SIZE))
	}
	if h.OffsetToPointData < uint32(h.HeaderSize) {
		warnings = append(warnings, fmt.Sprintf("offset to point data %d is inside the %d-byte header", h.OffsetToPointData, h.HeaderSize))
	}
	if int64(h.OffsetToPointData) > int64(bufferLen) {
		warnings = append(warnings, fmt.Sprintf("offset to point data %d is beyond the %d-byte buffer", h.OffsetToPointData, bufferLen))
	}
	if h.XScaleFactor == 0 || h.YScaleFactor == 0 || h.ZScaleFactor == 0 {
		warnings = append(warnings, "zero scale factor: decoded geometry is degenerate")
	}
	if !h.PointDataRecordFormat.Supported() {
		warnings = append(warnings, fmt.Sprintf("point data record format %d is not a known LAS format", uint8(h.PointDataRecordFormat)))
	} else if minLen := h.PointDataRecordFormat.MinRecordLength(); h.PointDataRecordLength < minLen {
		warnings = append(warnings, fmt.Sprintf("record length %d is below the %d-byte minimum for %s", h.PointDataRecordLength, minLen, h.PointDataRecordFormat))
	}
	if fit := h.RecordsInBuffer(bufferLen); fit < h.PointCount() {
		warnings = append(warnings, fmt.Sprintf("buffer holds %d of %d declared point records", fit, h.PointCount()))
	}
	return warnings
}

// Summary returns the decoded fields as a flat map for logging or JSON.
// Non-finite floats are reported as strings so the map always encodes.
func (h Header) Summary() map[string]any {
	s := map[string]any{
		"file_signature":                    string(h.FileSignature[:]),
		"file_source_id":                    h.FileSourceID,
		"global_encoding":                   h.GlobalEncoding,
		"version":                           h.Version(),
		"system_identifier":                 h.SystemIdentifier,
		"generating_software":               h.GeneratingSoftware,
		"file_creation_day_of_year":         h.FileCreationDayOfYear,
		"file_creation_year":                h.FileCreationYear,
		"header_size":                       h.HeaderSize,
		"offset_to_point_data":              h.OffsetToPointData,
		"number_of_variable_length_records": h.NumberOfVariableLengthRecords,
		"point_data_record_format":          uint8(h.PointDataRecordFormat),
		"point_data_record_length":          h.PointDataRecordLength,
		"legacy_number_of_point_records":    h.LegacyNumberOfPointRecords,
		"point_count":                       h.PointCount(),
		"scale":                             [3]any{jsonFloat(h.XScaleFactor), jsonFloat(h.YScaleFactor), jsonFloat(h.ZScaleFactor)},
		"offset":                            [3]any{jsonFloat(h.XOffset), jsonFloat(h.YOffset), jsonFloat(h.ZOffset)},
		"min":                               [3]any{jsonFloat(h.MinX), jsonFloat(h.MinY), jsonFloat(h.MinZ)},
		"max":                               [3]any{jsonFloat(h.MaxX), jsonFloat(h.MaxY), jsonFloat(h.MaxZ)},
	}
	if h.HasWaveformPointer {
		s["start_of_waveform_data_packet_record"] = h.StartOfWaveformDataPacketRecord
	}
	if h.HasExtendedFields {
		s["start_of_first_extended_variable_length_record"] = h.StartOfFirstExtendedVariableLengthRecord
		s["number_of_extended_variable_length_records"] = h.NumberOfExtendedVariableLengthRecords
		s["number_of_point_records"] = h.NumberOfPointRecords
	}
	return s
}

func jsonFloat(v float64) any {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Sprint(v)
	}
	return v
}
