package testutil

import (
	"encoding/binary"
	"net/http"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssertStatusCode_Matching(t *testing.T) {
	fakeT := &testing.T{}
	AssertStatusCode(fakeT, http.StatusOK, http.StatusOK)
	assert.False(t, fakeT.Failed())
}

func TestNewTestRequest(t *testing.T) {
	req := NewTestRequest("/api/files")
	assert.Equal(t, http.MethodGet, req.Method)
	assert.Equal(t, "/api/files", req.URL.Path)
}

func TestWriteFile(t *testing.T) {
	path := WriteFile(t, t.TempDir(), "a.las", []byte("LASF"))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte("LASF"), data)
}

func TestLASBuilder_DefaultsForVersion(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		minor      uint8
		headerSize uint16
	}{
		{"1.2", 2, 227},
		{"1.3", 3, 243},
		{"1.4", 4, 375},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := NewLASBuilder(1, tt.minor, 0).Build()
			require.Len(t, data, int(tt.headerSize))
			assert.Equal(t, "LASF", string(data[0:4]))
			assert.Equal(t, tt.headerSize, binary.LittleEndian.Uint16(data[94:]))
			assert.Equal(t, uint32(tt.headerSize), binary.LittleEndian.Uint32(data[96:]))
		})
	}
}

func TestLASBuilder_RecordLayout(t *testing.T) {
	b := NewLASBuilder(1, 2, 3)
	b.AddPoint(LASPoint{X: -5, Y: 6, Z: 7, Intensity: 100, Classification: 2, Red: 1, Green: 2, Blue: 3})
	data := b.Build()

	require.Len(t, data, 227+34)
	rec := data[227:]
	assert.Equal(t, int32(-5), int32(binary.LittleEndian.Uint32(rec[0:])))
	assert.Equal(t, uint16(100), binary.LittleEndian.Uint16(rec[12:]))
	assert.Equal(t, uint8(2), rec[15])
	assert.Equal(t, uint16(1), binary.LittleEndian.Uint16(rec[28:]))
	assert.Equal(t, uint16(3), binary.LittleEndian.Uint16(rec[32:]))
}

func TestLASBuilder_UndersizedRecordDropsFields(t *testing.T) {
	b := NewLASBuilder(1, 2, 2)
	b.RecordLength = 22
	b.AddPoint(LASPoint{Red: 0xFFFF, Green: 0xFFFF, Blue: 0xFFFF})
	data := b.Build()

	require.Len(t, data, 227+22)
	// Red fits at 20..22, green and blue are dropped
	assert.Equal(t, uint16(0xFFFF), binary.LittleEndian.Uint16(data[227+20:]))
}
