package las

import (
	"context"
	"fmt"
	"math"
)

const (
	// NoLimit asks Extract for every record the header declares.
	NoLimit = math.MaxUint64

	// DEFAULT_CANCEL_CHECK_INTERVAL is how many records ExtractContext
	// decodes between context checks.
	DEFAULT_CANCEL_CHECK_INTERVAL = 4096
)

// ExtractOptions tunes ExtractContext.
type ExtractOptions struct {
	Limit               uint64 // maximum points to return; NoLimit for all
	CancelCheckInterval int    // records between ctx checks; <= 0 uses the default
}

// Extract decodes up to limit point records from data using hdr. It never
// fails: truncated input yields fewer points (see PointCloud.Partial) and
// out-of-range colour bytes degrade to neutral grey for that point.
func Extract(data []byte, hdr Header, limit uint64) *PointCloud {
	// Background is never cancelled, so the error is always nil
	pc, _ := ExtractContext(context.Background(), data, hdr, ExtractOptions{Limit: limit})
	return pc
}

// ExtractContext is Extract with periodic cancellation checks. When ctx is
// cancelled mid-decode it returns nil and the wrapped context error.
func ExtractContext(ctx context.Context, data []byte, hdr Header, opts ExtractOptions) (*PointCloud, error) {
	interval := opts.CancelCheckInterval
	if interval <= 0 {
		interval = DEFAULT_CANCEL_CHECK_INTERVAL
	}

	expected := min(hdr.PointCount(), opts.Limit)
	count := min(expected, hdr.RecordsInBuffer(len(data)))

	pc := &PointCloud{
		Count:          count,
		Position:       make([][3]float64, count),
		Color:          make([][3]float32, count),
		Intensity:      make([]uint16, count),
		Classification: make([]uint8, count),
		HasColor:       hdr.PointDataRecordFormat.HasRGB(),
		Expected:       expected,
	}

	b := byteView(data)
	stride := int(hdr.PointDataRecordLength)
	colorOffset := hdr.PointDataRecordFormat.ColorOffset()
	offset := int(hdr.OffsetToPointData)

	for i := uint64(0); i < count; i++ {
		if i > 0 && i%uint64(interval) == 0 {
			if err := ctx.Err(); err != nil {
				return nil, fmt.Errorf("las: extraction cancelled after %d of %d records: %w", i, count, err)
			}
		}

		pc.Position[i] = [3]float64{
			float64(b.i32(offset+RECORD_X_OFFSET))*hdr.XScaleFactor + hdr.XOffset,
			float64(b.i32(offset+RECORD_Y_OFFSET))*hdr.YScaleFactor + hdr.YOffset,
			float64(b.i32(offset+RECORD_Z_OFFSET))*hdr.ZScaleFactor + hdr.ZOffset,
		}
		intensity := b.u16(offset + RECORD_INTENSITY_OFFSET)
		pc.Intensity[i] = intensity
		pc.Classification[i] = b.u8(offset + RECORD_CLASSIFICATION_OFFSET)

		if pc.HasColor {
			pc.Color[i] = readColor(b, offset, stride, colorOffset)
		} else {
			gray := float32(math.Min(float64(intensity)/COLOR_CHANNEL_MAX, 1))
			pc.Color[i] = [3]float32{gray, gray, gray}
		}

		offset += stride
	}

	return pc, nil
}

// readColor reads the RGB triple of the record at recordOffset. If the
// colour bytes would run past the buffer or past the record's declared
// length, it returns neutral grey instead.
func readColor(b byteView, recordOffset, stride, colorOffset int) [3]float32 {
	if !within(stride, colorOffset, COLOR_SIZE) || !within(len(b), recordOffset+colorOffset, COLOR_SIZE) {
		return [3]float32{NEUTRAL_GRAY, NEUTRAL_GRAY, NEUTRAL_GRAY}
	}
	at := recordOffset + colorOffset
	return [3]float32{
		float32(float64(b.u16(at)) / COLOR_CHANNEL_MAX),
		float32(float64(b.u16(at+2)) / COLOR_CHANNEL_MAX),
		float32(float64(b.u16(at+4)) / COLOR_CHANNEL_MAX),
	}
}

// Decode parses the header and extracts up to limit points in one call.
func Decode(data []byte, limit uint64) (Header, *PointCloud, error) {
	hdr, err := ParseHeader(data)
	if err != nil {
		return Header{}, nil, err
	}
	return hdr, Extract(data, hdr, limit), nil
}
