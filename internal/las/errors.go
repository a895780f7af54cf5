package las

import (
	"errors"
	"fmt"
)

// Sentinels for errors.Is. The concrete error types below carry details.
var (
	ErrFormat          = errors.New("las: not a LAS file")
	ErrTruncatedHeader = errors.New("las: truncated header")
)

// FormatError reports a buffer whose first four bytes are not "LASF".
type FormatError struct {
	Got [4]byte
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("las: invalid file signature %q, expected %q", e.Got[:], FILE_SIGNATURE)
}

// Is reports whether target is ErrFormat.
func (e *FormatError) Is(target error) bool {
	return target == ErrFormat
}

// TruncatedHeaderError reports a buffer that ends before a header region
// the file's own version and header size call for.
type TruncatedHeaderError struct {
	Region string // which part of the header could not be read
	Need   int    // bytes required from the start of the buffer
	Have   int    // bytes available
}

func (e *TruncatedHeaderError) Error() string {
	return fmt.Sprintf("las: truncated header: %s needs %d bytes, have %d", e.Region, e.Need, e.Have)
}

// Is reports whether target is ErrTruncatedHeader.
func (e *TruncatedHeaderError) Is(target error) bool {
	return target == ErrTruncatedHeader
}
