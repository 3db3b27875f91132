package fsutil

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryFileSystem_WriteAndRead(t *testing.T) {
	fs := NewMemoryFileSystem()

	require.NoError(t, fs.WriteFile("docs/potential_bounds.json", []byte("[-6,49,2,56]"), 0644))

	data, err := fs.ReadFile("docs/potential_bounds.json")
	require.NoError(t, err)
	assert.Equal(t, "[-6,49,2,56]", string(data))

	// returned slice is a copy
	data[0] = 'X'
	again, _ := fs.ReadFile("docs/potential_bounds.json")
	assert.Equal(t, byte('['), again[0])
}

func TestMemoryFileSystem_Open(t *testing.T) {
	fs := NewMemoryFileSystem()
	require.NoError(t, fs.WriteFile("points.bin", []byte{1, 2, 3, 4}, 0644))

	f, err := fs.Open("points.bin")
	require.NoError(t, err)
	defer f.Close()
	got, err := io.ReadAll(f)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3, 4}, got)

	info, err := f.Stat()
	require.NoError(t, err)
	assert.Equal(t, int64(4), info.Size())
}

func TestMemoryFileSystem_Missing(t *testing.T) {
	fs := NewMemoryFileSystem()

	_, err := fs.Open("nope")
	assert.ErrorIs(t, err, os.ErrNotExist)
	_, err = fs.ReadFile("nope")
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.ErrorIs(t, fs.Remove("nope"), os.ErrNotExist)
	assert.ErrorIs(t, fs.Rename("nope", "other"), os.ErrNotExist)
}

func TestMemoryFileSystem_MkdirAllAndRemove(t *testing.T) {
	fs := NewMemoryFileSystem()

	require.NoError(t, fs.MkdirAll("tiles/8/127", 0755))
	assert.True(t, fs.Exists("tiles"))
	assert.True(t, fs.Exists("tiles/8"))
	assert.True(t, fs.Exists("tiles/8/127"))

	require.NoError(t, fs.WriteFile("tiles/8/127/85.png", []byte("png"), 0644))
	require.NoError(t, fs.Remove("tiles/8/127/85.png"))
	assert.False(t, fs.Exists("tiles/8/127/85.png"))
	require.NoError(t, fs.Remove("tiles/8/127"))
	assert.False(t, fs.Exists("tiles/8/127"))
	assert.True(t, fs.Exists("tiles/8"))
}

func TestMemoryFileSystem_RenameAndFiles(t *testing.T) {
	fs := NewMemoryFileSystem()
	require.NoError(t, fs.WriteFile("b.tmp", []byte("b"), 0644))
	require.NoError(t, fs.WriteFile("a", []byte("a"), 0644))

	require.NoError(t, fs.Rename("b.tmp", "b"))
	assert.Equal(t, []string{"a", "b"}, fs.Files())
}

func TestMemoryFileSystem_PathCleaning(t *testing.T) {
	fs := NewMemoryFileSystem()
	require.NoError(t, fs.WriteFile("docs/./hex.geojson", []byte("x"), 0644))
	assert.True(t, fs.Exists("docs/hex.geojson"))
}

func TestWriteFileAtomic(t *testing.T) {
	fs := NewMemoryFileSystem()

	require.NoError(t, WriteFileAtomic(fs, "docs/hex.geojson", []byte(`{"type":"FeatureCollection"}`)))
	assert.Equal(t, []string{"docs/hex.geojson"}, fs.Files(), "temporary file must not remain")
	assert.True(t, fs.Exists("docs"))

	// overwrite
	require.NoError(t, WriteFileAtomic(fs, "docs/hex.geojson", []byte("2")))
	data, _ := fs.ReadFile("docs/hex.geojson")
	assert.Equal(t, "2", string(data))
}

func TestWriteFileAtomic_OS(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "out.json")

	require.NoError(t, WriteFileAtomic(OSFileSystem{}, path, []byte("[1,2]")))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "[1,2]", string(data))
	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))
}

func TestHashFile(t *testing.T) {
	fs := NewMemoryFileSystem()
	require.NoError(t, fs.WriteFile("abc", []byte("abc"), 0644))

	sum, size, err := HashFile(fs, "abc")
	require.NoError(t, err)
	assert.Equal(t, int64(3), size)
	assert.Equal(t, "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad", sum)

	_, _, err = HashFile(fs, "missing")
	assert.Error(t, err)
}

func TestOSFileSystem_RoundTrip(t *testing.T) {
	fs := OSFileSystem{}
	dir := t.TempDir()
	path := filepath.Join(dir, "a.txt")

	require.NoError(t, fs.WriteFile(path, []byte("hello"), 0644))
	assert.True(t, fs.Exists(path))

	data, err := fs.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))

	moved := filepath.Join(dir, "b.txt")
	require.NoError(t, fs.Rename(path, moved))
	assert.False(t, fs.Exists(path))
	require.NoError(t, fs.Remove(moved))
	assert.False(t, fs.Exists(moved))
}
