package fsutil

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryFileSystem_OpenAndStat(t *testing.T) {
	mfs := NewMemoryFileSystem()
	mfs.WriteFile("/data/a.las", []byte("LASF1234"))

	f, err := mfs.Open("/data/./a.las")
	require.NoError(t, err)
	data, err := io.ReadAll(f)
	require.NoError(t, err)
	assert.Equal(t, "LASF1234", string(data))
	require.NoError(t, f.Close())

	info, err := mfs.Stat("/data/a.las")
	require.NoError(t, err)
	assert.Equal(t, int64(8), info.Size())
	assert.False(t, info.IsDir())

	info, err = mfs.Stat("/data")
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestMemoryFileSystem_Missing(t *testing.T) {
	mfs := NewMemoryFileSystem()

	_, err := mfs.Open("/nope.las")
	assert.True(t, errors.Is(err, fs.ErrNotExist))
	_, err = mfs.Stat("/nope.las")
	assert.True(t, errors.Is(err, fs.ErrNotExist))
	_, err = mfs.ReadDir("/nope")
	assert.True(t, errors.Is(err, fs.ErrNotExist))
}

func TestMemoryFileSystem_ReadDir(t *testing.T) {
	mfs := NewMemoryFileSystem()
	mfs.WriteFile("/data/b.las", []byte("b"))
	mfs.WriteFile("/data/a.las", []byte("aa"))
	mfs.WriteFile("/data/sub/c.las", []byte("c"))
	mfs.WriteFile("/other/d.las", []byte("d"))

	entries, err := mfs.ReadDir("/data")
	require.NoError(t, err)

	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.Equal(t, []string{"a.las", "b.las", "sub"}, names)
	assert.True(t, entries[2].IsDir())
}

func TestMemoryFileSystem_WriteCopiesData(t *testing.T) {
	mfs := NewMemoryFileSystem()
	src := []byte("original")
	mfs.WriteFile("/f", src)
	src[0] = 'X'

	f, err := mfs.Open("/f")
	require.NoError(t, err)
	data, _ := io.ReadAll(f)
	assert.Equal(t, "original", string(data))
}

func TestOSFileSystem(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "x.las"), []byte("LASF"), 0644))

	var fsys FileSystem = OSFileSystem{}
	info, err := fsys.Stat(filepath.Join(dir, "x.las"))
	require.NoError(t, err)
	assert.Equal(t, int64(4), info.Size())

	entries, err := fsys.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "x.las", entries[0].Name())

	f, err := fsys.Open(filepath.Join(dir, "x.las"))
	require.NoError(t, err)
	defer f.Close()
}
