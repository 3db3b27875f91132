// Package units holds the area unit conversions and rounding used by the
// exporters.
package units

import "math"

// Unit constants
const (
	SquareMetres     = "m2"
	Hectares         = "ha"
	SquareKilometres = "km2"
)

// ConvertArea converts an area in square metres to the target units.
// Raster pixel areas and geodesic areas are computed in m².
func ConvertArea(areaM2 float64, targetUnits string) float64 {
	switch targetUnits {
	case Hectares:
		return areaM2 / 1e4
	case SquareKilometres:
		return areaM2 / 1e6
	case SquareMetres:
		return areaM2
	default:
		return areaM2 // default to m² if unknown unit
	}
}

// Round rounds v to the given number of decimal places. Output files use it
// so coordinates and statistics are stable across runs.
func Round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
