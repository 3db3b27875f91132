// Package landclass burns Agricultural Land Classification parcels onto a
// reference raster grid as three grade buckets.
package landclass

import (
	"fmt"
	"math"
	"strings"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/encoding/shp"

	"github.com/wetwoodland/webmap/internal/monitoring"
	"github.com/wetwoodland/webmap/internal/projection"
	"github.com/wetwoodland/webmap/internal/raster"
)

// NoData marks cells outside every parcel.
const NoData = 255

// DefaultField is the shapefile attribute holding the grade.
const DefaultField = "alc_grade"

// Buckets in burn order; later buckets overwrite earlier ones.
const (
	Grade12 = 0
	Grade3  = 1
	Grade45 = 2
)

var groups = map[string]int{
	"grade 1": Grade12,
	"grade 2": Grade12,
	"grade 3": Grade3,
	"grade 4": Grade45,
	"grade 5": Grade45,
}

// Group maps a grade label such as "Grade 3" to its bucket.
func Group(grade string) (int, bool) {
	g, ok := groups[strings.ToLower(strings.TrimSpace(grade))]
	return g, ok
}

// Parcel is one graded polygon.
type Parcel struct {
	Class int
	Shape geom.Polygonal
}

// ReadShapefile loads graded parcels from path. Parcels whose grade has no
// bucket are dropped. When targetCRS is set and the shapefile has a .prj,
// geometries are reprojected to targetCRS.
func ReadShapefile(path, field, targetCRS string) ([]Parcel, error) {
	if field == "" {
		field = DefaultField
	}
	d, err := shp.NewDecoder(path)
	if err != nil {
		return nil, fmt.Errorf("open shapefile %s: %w", path, err)
	}
	defer d.Close()

	var trans func(geom.Geom) (geom.Geom, error)
	if targetCRS != "" {
		if sr, err := d.SR(); err == nil {
			fn, err := projection.TransformerFromSR(sr, targetCRS)
			if err != nil {
				return nil, fmt.Errorf("reproject %s: %w", path, err)
			}
			trans = func(g geom.Geom) (geom.Geom, error) { return g.Transform(fn) }
		} else {
			monitoring.Logf("%s has no usable projection, assuming raster CRS: %v", path, err)
		}
	}

	var (
		parcels []Parcel
		skipped int
	)
	for {
		g, fields, more := d.DecodeRowFields(field)
		if !more {
			break
		}
		class, ok := Group(fields[field])
		if !ok || g == nil {
			skipped++
			continue
		}
		if trans != nil {
			if g, err = trans(g); err != nil {
				return nil, fmt.Errorf("reproject parcel: %w", err)
			}
		}
		poly, ok := g.(geom.Polygonal)
		if !ok {
			skipped++
			continue
		}
		parcels = append(parcels, Parcel{Class: class, Shape: poly})
	}
	if err := d.Error(); err != nil {
		return nil, fmt.Errorf("read shapefile %s: %w", path, err)
	}
	monitoring.Logf("loaded %d graded parcels from %s (%d skipped)", len(parcels), path, skipped)
	return parcels, nil
}

// Rasterize burns parcels onto ref's grid. A cell takes a parcel's bucket
// when its centre lies inside the parcel. Buckets are burned in order
// Grade12, Grade3, Grade45.
func Rasterize(ref *raster.Grid, parcels []Parcel) (*raster.Grid, error) {
	inv, err := ref.Transform.Invert()
	if err != nil {
		return nil, err
	}
	out := raster.New(ref.Width, ref.Height, NoData).WithNoData(NoData)
	out.Transform = ref.Transform
	out.CRS = ref.CRS

	progress := monitoring.NewProgress("rasterising parcels", len(parcels), 0)
	for class := Grade12; class <= Grade45; class++ {
		for _, p := range parcels {
			if p.Class != class {
				continue
			}
			burn(out, inv, p)
			progress.Add(1)
		}
	}
	progress.Done()
	return out, nil
}

func burn(out *raster.Grid, inv raster.GeoTransform, p Parcel) {
	b := p.Shape.Bounds()
	if b == nil {
		return
	}
	c0, r0, c1, r1 := pixelWindow(inv, b, out.Width, out.Height)
	for row := r0; row <= r1; row++ {
		for col := c0; col <= c1; col++ {
			x, y := out.PixelCenter(col, row)
			if (geom.Point{X: x, Y: y}).Within(p.Shape) == geom.Inside {
				out.Set(col, row, float64(p.Class))
			}
		}
	}
}

// pixelWindow returns the inclusive cell range whose centres may fall in b.
func pixelWindow(inv raster.GeoTransform, b *geom.Bounds, w, h int) (c0, r0, c1, r1 int) {
	minC, minR := math.Inf(1), math.Inf(1)
	maxC, maxR := math.Inf(-1), math.Inf(-1)
	for _, pt := range [][2]float64{{b.Min.X, b.Min.Y}, {b.Min.X, b.Max.Y}, {b.Max.X, b.Min.Y}, {b.Max.X, b.Max.Y}} {
		c, r := inv.Apply(pt[0], pt[1])
		minC, maxC = math.Min(minC, c), math.Max(maxC, c)
		minR, maxR = math.Min(minR, r), math.Max(maxR, r)
	}
	c0 = max(0, int(math.Floor(minC)))
	r0 = max(0, int(math.Floor(minR)))
	c1 = min(w-1, int(math.Ceil(maxC)))
	r1 = min(h-1, int(math.Ceil(maxR)))
	return c0, r0, c1, r1
}
