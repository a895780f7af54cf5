// Package las decodes ASPRS LAS point-cloud files (versions 1.0 through 1.4)
// from an in-memory byte buffer.
//
// Decoding is a two-stage pipeline of pure functions:
//
//	data []byte → ParseHeader → Header → Extract(data, Header, limit) → *PointCloud
//
// Neither stage keeps state between calls, so both are safe to run
// concurrently on different (or the same, read-only) buffers.
//
/*
LAS FILE LAYOUT

├── Public header block (227 bytes for 1.0-1.2, larger for 1.3/1.4)
│   ├── "LASF" signature, source id, global encoding, GUID (skipped)
│   ├── version, system identifier, generating software (32-byte text)
│   ├── header size, offset to point data, VLR count, PDRF, record length
│   ├── legacy 32-bit point count + 5 per-return counts (skipped)
│   ├── scale (x,y,z) and offset (x,y,z) as float64
│   └── bounds in max/min pairs: maxX minX maxY minY maxZ minZ
├── Variable length records (counted, not decoded)
└── Point records, fixed stride = header record length
    ├── X, Y, Z int32 at 0/4/8
    ├── intensity uint16 at 12
    ├── classification uint8 at 15
    └── RGB uint16 triple at 20 (format 2) or 28 (formats 3,5,7,8,10)

ERROR MODEL:
- FormatError: signature is not "LASF". Fatal for the header.
- TruncatedHeaderError: buffer ends inside a header region that the
  declared version and header size require. Fatal for the header.
- Partial reads of the point stream are not errors. The returned cloud
  carries fewer points than expected and PointCloud.Partial reports it.
- Colour bytes outside the buffer or the record degrade that one point
  to neutral grey.
*/
package las
