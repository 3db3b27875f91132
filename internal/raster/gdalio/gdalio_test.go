package gdalio

import (
	"image"
	"image/color"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wetwoodland/webmap/internal/raster"
)

func TestWarpSwitches(t *testing.T) {
	tests := []struct {
		name       string
		opts       WarpOptions
		srcW, srcH int
		want       []string
	}{
		{
			name: "target srs only",
			opts: WarpOptions{DstSRS: "EPSG:4326"},
			want: []string{"-of", "MEM", "-t_srs", "EPSG:4326", "-r", "bilinear"},
		},
		{
			name: "width keeps aspect",
			opts: WarpOptions{DstSRS: "EPSG:4326", Width: 1200},
			srcW: 400, srcH: 300,
			want: []string{"-of", "MEM", "-t_srs", "EPSG:4326", "-ts", "1200", "900", "-r", "bilinear"},
		},
		{
			name: "pinned grid with nearest",
			opts: WarpOptions{
				DstSRS: "EPSG:4326", SrcSRS: "EPSG:27700",
				Width: 10, Height: 5,
				Bounds:     &[4]float64{-2, 50, 2, 52.5},
				Resampling: "near",
			},
			want: []string{
				"-of", "MEM", "-s_srs", "EPSG:27700", "-t_srs", "EPSG:4326",
				"-ts", "10", "5", "-te", "-2", "50", "2", "52.5", "-r", "near",
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, tt.opts.switches(tt.srcW, tt.srcH)); diff != "" {
				t.Errorf("switches mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestWriteGridRoundTrip(t *testing.T) {
	g := raster.New(4, 3, 0.5).WithNoData(-9999)
	g.Transform = raster.GeoTransform{-2, 0.5, 0, 53, 0, -0.5}
	g.Set(1, 1, -9999)
	g.Set(3, 2, 0.25)

	path := filepath.Join(t.TempDir(), "grid.tif")
	require.NoError(t, WriteGrid(path, g, Float32, 4326))

	got, err := Open(path)
	require.NoError(t, err)
	assert.Equal(t, 4, got.Width)
	assert.Equal(t, 3, got.Height)
	assert.Equal(t, g.Transform, got.Transform)
	assert.True(t, got.HasNoData)
	assert.Equal(t, -9999.0, got.NoData)
	assert.Equal(t, 11, got.ValidCount())
	assert.Equal(t, 0.25, got.At(3, 2))
	assert.True(t, got.IsGeographic())
}

func TestWriteRGBA(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	img.SetNRGBA(1, 0, color.NRGBA{R: 10, G: 20, B: 30, A: 216})

	path := filepath.Join(t.TempDir(), "rgba.tif")
	require.NoError(t, WriteRGBA(path, img, raster.GeoTransform{0, 1, 0, 2, 0, -1}, 3857))

	g, err := Open(path)
	require.NoError(t, err)
	assert.Equal(t, 10.0, g.At(1, 0), "band 1 holds red")
}

func TestOpenMissing(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing.tif"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing.tif")
}
