package lasstats

import "fmt"

// ASPRS standard point classes for LAS 1.4 formats 6-10. Formats 0-5 share
// codes 0-12; the remaining codes are reported by number when unknown.
var classNames = map[uint8]string{
	0:  "Created, never classified",
	1:  "Unclassified",
	2:  "Ground",
	3:  "Low vegetation",
	4:  "Medium vegetation",
	5:  "High vegetation",
	6:  "Building",
	7:  "Low point (noise)",
	8:  "Model key-point",
	9:  "Water",
	10: "Rail",
	11: "Road surface",
	12: "Overlap",
	13: "Wire guard",
	14: "Wire conductor",
	15: "Transmission tower",
	16: "Wire-structure connector",
	17: "Bridge deck",
	18: "High noise",
}

// ClassName returns the ASPRS name for a classification code.
func ClassName(code uint8) string {
	if name, ok := classNames[code]; ok {
		return name
	}
	if code >= 64 {
		return fmt.Sprintf("User defined %d", code)
	}
	return fmt.Sprintf("Reserved %d", code)
}
