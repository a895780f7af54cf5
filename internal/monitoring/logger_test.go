package monitoring

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func capture(t *testing.T) *[]string {
	t.Helper()
	original := Logf
	t.Cleanup(func() { Logf = original })

	var lines []string
	SetLogger(func(format string, v ...interface{}) {
		lines = append(lines, fmt.Sprintf(format, v...))
	})
	return &lines
}

func TestSetLogger(t *testing.T) {
	lines := capture(t)
	Logf("decoded %d points", 3)
	assert.Equal(t, []string{"decoded 3 points"}, *lines)

	SetLogger(nil)
	Logf("dropped")
	assert.Len(t, *lines, 1, "nil logger must be a no-op")
}

func TestLogf_Default(t *testing.T) {
	assert.NotNil(t, Logf)
	assert.NotPanics(t, func() { Logf("test message: %s", "value") })
}

func TestPrefixed(t *testing.T) {
	lines := capture(t)
	logf := Prefixed("[api] ")
	logf("GET %s", "/api/files")
	assert.Equal(t, []string{"[api] GET /api/files"}, *lines)
}

func TestLogWarnings(t *testing.T) {
	lines := capture(t)
	LogWarnings("a.las", []string{"zero scale factor", "short buffer"})
	LogWarnings("b.las", nil)
	assert.Equal(t, []string{
		"warning: a.las: zero scale factor",
		"warning: a.las: short buffer",
	}, *lines)
}
