package tiles

import (
	"errors"
	"image"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wetwoodland/webmap/internal/raster"
)

func TestDelegateRun(t *testing.T) {
	tmpDir := t.TempDir()
	outDir := filepath.Join(t.TempDir(), "tiles")
	g := mercatorGrid(t, 8, 8)

	var written string
	var gotTransform raster.GeoTransform
	var gotEPSG int
	writer := func(path string, img *image.NRGBA, transform raster.GeoTransform, epsg int) error {
		written = path
		gotTransform = transform
		gotEPSG = epsg
		return os.WriteFile(path, []byte("tif"), 0644)
	}

	builder := &MockCommandBuilder{}
	d := &Delegate{Binary: "gdal2tiles", Builder: builder, WriteTIFF: writer, TempDir: tmpDir}

	builder.Executor = &MockCommandExecutor{OnRun: func() {
		_, err := os.Stat(written)
		assert.NoError(t, err, "GeoTIFF exists while gdal2tiles runs")
	}}

	require.NoError(t, d.Run(g, outDir, Options{MinZoom: 0, MaxZoom: 12, Opacity: 0.85}))
	require.Len(t, builder.Commands, 1)
	want := []string{"-r", "near", "-z", "0-12", "--processes=1", written, outDir}
	if diff := cmp.Diff(want, builder.Commands[0].Args); diff != "" {
		t.Errorf("args mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, "gdal2tiles", builder.Commands[0].Name)
	assert.Equal(t, EPSGWebMercator, gotEPSG)
	assert.True(t, gotTransform.NorthUp())

	_, err := os.Stat(written)
	assert.True(t, os.IsNotExist(err), "temporary GeoTIFF removed")
	assert.DirExists(t, outDir)
}

func TestDelegateFailureStillCleansUp(t *testing.T) {
	tmpDir := t.TempDir()
	var written string
	writer := func(path string, img *image.NRGBA, transform raster.GeoTransform, epsg int) error {
		written = path
		return os.WriteFile(path, []byte("tif"), 0644)
	}
	builder := &MockCommandBuilder{Executor: &MockCommandExecutor{
		Output: []byte("ERROR 4: cannot open\n"),
		Err:    errors.New("exit status 1"),
	}}
	d := &Delegate{Binary: "gdal2tiles", Builder: builder, WriteTIFF: writer, TempDir: tmpDir, XYZ: true}

	err := d.Run(mercatorGrid(t, 4, 4), filepath.Join(tmpDir, "out"), Options{MinZoom: 2, MaxZoom: 4})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot open")
	assert.Contains(t, builder.Commands[0].Args, "--xyz")

	_, statErr := os.Stat(written)
	assert.True(t, os.IsNotExist(statErr))
}

func TestDelegateRequiresWriter(t *testing.T) {
	d := &Delegate{Binary: "gdal2tiles", Builder: &MockCommandBuilder{}}
	err := d.Run(mercatorGrid(t, 4, 4), t.TempDir(), Options{MaxZoom: 1})
	assert.Error(t, err)
}
