// Package gdalio reads and writes raster.Grid values through GDAL.
package gdalio

import (
	"errors"
	"fmt"
	"image"
	"strconv"
	"sync"

	"github.com/airbusgeo/godal"

	"github.com/wetwoodland/webmap/internal/raster"
)

// Target CRSs used by the exporters.
const (
	SRSWGS84       = "EPSG:4326"
	SRSWebMercator = "EPSG:3857"
)

var registerOnce sync.Once

func register() {
	registerOnce.Do(godal.RegisterAll)
}

// Open reads band 1 of the raster at path.
func Open(path string) (*raster.Grid, error) {
	register()
	ds, err := godal.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open raster %s: %w", path, err)
	}
	defer ds.Close()

	g, err := readGrid(ds)
	if err != nil {
		return nil, fmt.Errorf("read raster %s: %w", path, err)
	}
	return g, nil
}

// WarpOptions controls an in-memory reprojection.
type WarpOptions struct {
	// DstSRS is the target CRS, e.g. "EPSG:4326".
	DstSRS string
	// SrcSRS overrides the source CRS when set.
	SrcSRS string
	// Width and Height fix the output size. When Height is zero it is
	// derived from the source aspect ratio. Both zero lets GDAL choose.
	Width  int
	Height int
	// Bounds pins the output extent as [minX, minY, maxX, maxY] in DstSRS.
	Bounds *[4]float64
	// Resampling is a gdalwarp -r method; bilinear when empty.
	Resampling string
}

func (o WarpOptions) switches(srcW, srcH int) []string {
	sw := []string{"-of", "MEM"}
	if o.SrcSRS != "" {
		sw = append(sw, "-s_srs", o.SrcSRS)
	}
	if o.DstSRS != "" {
		sw = append(sw, "-t_srs", o.DstSRS)
	}
	w, h := o.Width, o.Height
	if w > 0 && h == 0 && srcW > 0 {
		h = int(float64(w) * float64(srcH) / float64(srcW))
		if h < 1 {
			h = 1
		}
	}
	if w > 0 && h > 0 {
		sw = append(sw, "-ts", strconv.Itoa(w), strconv.Itoa(h))
	}
	if o.Bounds != nil {
		b := o.Bounds
		sw = append(sw, "-te",
			strconv.FormatFloat(b[0], 'f', -1, 64), strconv.FormatFloat(b[1], 'f', -1, 64),
			strconv.FormatFloat(b[2], 'f', -1, 64), strconv.FormatFloat(b[3], 'f', -1, 64))
	}
	r := o.Resampling
	if r == "" {
		r = "bilinear"
	}
	return append(sw, "-r", r)
}

// Warp reprojects the raster at path in memory and returns band 1.
func Warp(path string, opts WarpOptions) (*raster.Grid, error) {
	register()
	src, err := godal.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open raster %s: %w", path, err)
	}
	defer src.Close()

	st := src.Structure()
	dst, err := src.Warp("", opts.switches(st.SizeX, st.SizeY))
	if err != nil {
		return nil, fmt.Errorf("warp raster %s to %s: %w", path, opts.DstSRS, err)
	}
	defer dst.Close()

	g, err := readGrid(dst)
	if err != nil {
		return nil, fmt.Errorf("read warped raster %s: %w", path, err)
	}
	return g, nil
}

func readGrid(ds *godal.Dataset) (*raster.Grid, error) {
	bands := ds.Bands()
	if len(bands) == 0 {
		return nil, errors.New("raster has no bands")
	}
	st := ds.Structure()
	buf := make([]float64, st.SizeX*st.SizeY)
	if err := bands[0].Read(0, 0, buf, st.SizeX, st.SizeY); err != nil {
		return nil, err
	}
	gt, err := ds.GeoTransform()
	if err != nil {
		return nil, fmt.Errorf("geotransform: %w", err)
	}
	g := &raster.Grid{
		Width:     st.SizeX,
		Height:    st.SizeY,
		Data:      buf,
		Transform: raster.GeoTransform(gt),
	}
	if nd, ok := bands[0].NoData(); ok {
		g.WithNoData(nd)
	}
	if sr := ds.SpatialRef(); sr != nil {
		if wkt, err := sr.WKT(); err == nil {
			g.CRS = wkt
		}
	}
	return g, nil
}

// DataType selects the on-disk sample type for WriteGrid.
type DataType int

const (
	Byte DataType = iota
	Float32
)

func (d DataType) godal() godal.DataType {
	if d == Byte {
		return godal.Byte
	}
	return godal.Float32
}

// WriteGrid writes g as a single-band LZW-compressed GeoTIFF. epsg, when
// non-zero, sets the CRS; otherwise the grid's own WKT is used.
func WriteGrid(path string, g *raster.Grid, dtype DataType, epsg int) error {
	register()
	ds, err := godal.Create(godal.GTiff, path, 1, dtype.godal(), g.Width, g.Height,
		godal.CreationOption("COMPRESS=LZW", "TILED=YES"))
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := setGeoref(ds, g.Transform, g.CRS, epsg); err != nil {
		ds.Close()
		return fmt.Errorf("georeference %s: %w", path, err)
	}
	band := ds.Bands()[0]
	if g.HasNoData {
		if err := band.SetNoData(g.NoData); err != nil {
			ds.Close()
			return fmt.Errorf("set nodata on %s: %w", path, err)
		}
	}
	if err := band.Write(0, 0, g.Data, g.Width, g.Height); err != nil {
		ds.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return ds.Close()
}

// WriteRGBA writes img as a four-band byte GeoTIFF.
func WriteRGBA(path string, img *image.NRGBA, transform raster.GeoTransform, epsg int) error {
	register()
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	ds, err := godal.Create(godal.GTiff, path, 4, godal.Byte, w, h)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := setGeoref(ds, transform, "", epsg); err != nil {
		ds.Close()
		return fmt.Errorf("georeference %s: %w", path, err)
	}
	plane := make([]byte, w*h)
	for i, band := range ds.Bands() {
		for y := 0; y < h; y++ {
			row := img.Pix[(y)*img.Stride:]
			for x := 0; x < w; x++ {
				plane[y*w+x] = row[x*4+i]
			}
		}
		if err := band.Write(0, 0, plane, w, h); err != nil {
			ds.Close()
			return fmt.Errorf("write band %d of %s: %w", i+1, path, err)
		}
	}
	return ds.Close()
}

func setGeoref(ds *godal.Dataset, gt raster.GeoTransform, wkt string, epsg int) error {
	if err := ds.SetGeoTransform([6]float64(gt)); err != nil {
		return err
	}
	var (
		sr  *godal.SpatialRef
		err error
	)
	switch {
	case epsg != 0:
		sr, err = godal.NewSpatialRefFromEPSG(epsg)
	case wkt != "":
		sr, err = godal.NewSpatialRefFromWKT(wkt)
	default:
		return nil
	}
	if err != nil {
		return err
	}
	defer sr.Close()
	return ds.SetSpatialRef(sr)
}
