// Package colorramp maps suitability values to the six-stop cyan to red
// ramp shared by the overlay, the tile pyramid and the report charts.
package colorramp

import (
	"image/color"
	"math"

	"gonum.org/v1/plot/palette"
)

// Stops is the ramp from low (cyan) to high (red) suitability.
var Stops = [...]color.NRGBA{
	{R: 1, G: 152, B: 189, A: 255},
	{R: 73, G: 227, B: 206, A: 255},
	{R: 216, G: 254, B: 181, A: 255},
	{R: 254, G: 237, B: 177, A: 255},
	{R: 254, G: 173, B: 84, A: 255},
	{R: 209, G: 55, B: 78, A: 255},
}

// Ramp is a palette.ColorMap over [Min, Max] using Stops.
type Ramp struct {
	min, max float64
	alpha    float64
}

var _ palette.ColorMap = (*Ramp)(nil)

// New returns a ramp over [0, 1] with the given opacity.
func New(opacity float64) *Ramp {
	return &Ramp{min: 0, max: 1, alpha: clamp01(opacity)}
}

// At implements palette.ColorMap.
func (r *Ramp) At(v float64) (color.Color, error) {
	switch {
	case math.IsNaN(v):
		return nil, palette.ErrNaN
	case v > r.max:
		return nil, palette.ErrOverflow
	case v < r.min:
		return nil, palette.ErrUnderflow
	}
	return r.NRGBA(r.scale(v)), nil
}

func (r *Ramp) scale(v float64) float64 {
	if r.max == r.min {
		return 0.5
	}
	return (v - r.min) / (r.max - r.min)
}

// NRGBA returns the colour for a value already normalised to [0, 1].
// Values outside the range are clamped; NaN is fully transparent.
func (r *Ramp) NRGBA(v float64) color.NRGBA {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return color.NRGBA{}
	}
	c := Interpolate(v)
	c.A = uint8(255 * r.alpha)
	return c
}

// Interpolate returns the opaque ramp colour for v, clamped to [0, 1].
// Channels are truncated, not rounded.
func Interpolate(v float64) color.NRGBA {
	v = clamp01(v)
	n := len(Stops) - 1
	pos := v * float64(n)
	i := int(math.Floor(pos))
	if i > n-1 {
		i = n - 1
	}
	if i < 0 {
		i = 0
	}
	j := i + 1
	t := pos - float64(i)
	lerp := func(a, b uint8) uint8 {
		return uint8(float64(a) + (float64(b)-float64(a))*t)
	}
	return color.NRGBA{
		R: lerp(Stops[i].R, Stops[j].R),
		G: lerp(Stops[i].G, Stops[j].G),
		B: lerp(Stops[i].B, Stops[j].B),
		A: 255,
	}
}

// Max implements palette.ColorMap.
func (r *Ramp) Max() float64 { return r.max }

// Min implements palette.ColorMap.
func (r *Ramp) Min() float64 { return r.min }

// SetMax implements palette.ColorMap.
func (r *Ramp) SetMax(v float64) { r.max = v }

// SetMin implements palette.ColorMap.
func (r *Ramp) SetMin(v float64) { r.min = v }

// Alpha implements palette.ColorMap.
func (r *Ramp) Alpha() float64 { return r.alpha }

// SetAlpha implements palette.ColorMap.
func (r *Ramp) SetAlpha(a float64) { r.alpha = clamp01(a) }

// Palette implements palette.ColorMap, sampling n evenly spaced colours.
func (r *Ramp) Palette(n int) palette.Palette {
	cols := make([]color.Color, n)
	for k := range cols {
		v := 0.0
		if n > 1 {
			v = float64(k) / float64(n-1)
		}
		cols[k] = r.NRGBA(v)
	}
	return plainPalette(cols)
}

type plainPalette []color.Color

func (p plainPalette) Colors() []color.Color { return p }

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
