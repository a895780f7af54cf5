// Package source loads LAS bytes from local files or remote URLs with a
// hard size cap. It returns raw buffers; decoding is left to package las.
package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/banshee-data/lasview/internal/fsutil"
	"github.com/banshee-data/lasview/internal/httputil"
)

// LAS_EXTENSION is the file extension ListLAS matches, case-insensitively.
const LAS_EXTENSION = ".las"

// ErrTooLarge is returned when a file or response body exceeds maxBytes.
var ErrTooLarge = errors.New("source: input exceeds size limit")

// HTTPStatusError reports a non-2xx response from Fetch.
type HTTPStatusError struct {
	URL        string
	StatusCode int
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("source: GET %s: unexpected status %d %s", e.URL, e.StatusCode, http.StatusText(e.StatusCode))
}

// ReadFile reads path from fsys, refusing files larger than maxBytes.
// A maxBytes of zero or less disables the cap.
func ReadFile(fsys fsutil.FileSystem, path string, maxBytes int64) ([]byte, error) {
	info, err := fsys.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("read %s: is a directory", path)
	}
	if maxBytes > 0 && info.Size() > maxBytes {
		return nil, fmt.Errorf("read %s (%d bytes, max %d): %w", path, info.Size(), maxBytes, ErrTooLarge)
	}

	f, err := fsys.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	data, err := readCapped(f, maxBytes)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}

// Fetch downloads url with a GET request, failing with *HTTPStatusError on
// a non-2xx status and ErrTooLarge when the body exceeds maxBytes.
func Fetch(ctx context.Context, client httputil.HTTPClient, url string, maxBytes int64) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request for %s: %w", url, err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &HTTPStatusError{URL: url, StatusCode: resp.StatusCode}
	}
	if maxBytes > 0 && resp.ContentLength > maxBytes {
		return nil, fmt.Errorf("GET %s (%d bytes, max %d): %w", url, resp.ContentLength, maxBytes, ErrTooLarge)
	}

	data, err := readCapped(resp.Body, maxBytes)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", url, err)
	}
	return data, nil
}

// readCapped reads r to EOF, reading one byte past maxBytes to detect
// oversize streams whose length was not known up front.
func readCapped(r io.Reader, maxBytes int64) ([]byte, error) {
	if maxBytes <= 0 {
		return io.ReadAll(r)
	}
	data, err := io.ReadAll(io.LimitReader(r, maxBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > maxBytes {
		return nil, ErrTooLarge
	}
	return data, nil
}

// ListLAS returns the names of .las files directly inside dir, sorted.
func ListLAS(fsys fsutil.FileSystem, dir string) ([]FileInfo, error) {
	entries, err := fsys.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", dir, err)
	}
	var out []FileInfo
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), LAS_EXTENSION) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", e.Name(), err)
		}
		out = append(out, FileInfo{Name: e.Name(), Size: info.Size()})
	}
	return out, nil
}

// FileInfo describes one listed LAS file.
type FileInfo struct {
	Name string `json:"name"`
	Size int64  `json:"size"`
}
