package render

import (
	"image"
	"image/color"
	"math"
)

// GradientStop is one colour stop of a linear gradient, Offset in [0, 1].
type GradientStop struct {
	Offset float64
	Color  color.NRGBA
}

// GradientRect is a filled rectangle in display units: Width wide and Length
// long, centred horizontally on (X, Y), extending Length along its local +Y
// axis and rotated by AngleDeg about (X, Y). The gradient runs along the
// length, offset 0 at (X, Y).
type GradientRect struct {
	X, Y     float64
	Width    float64
	Length   float64
	AngleDeg float64
	Stops    []GradientStop
}

// corners returns the four corners of r in display units, clockwise from the
// top-left of the unrotated rectangle.
func (r GradientRect) corners() [4][2]float64 {
	sin, cos := math.Sincos(r.AngleDeg * math.Pi / 180)
	half := r.Width / 2
	local := [4][2]float64{{-half, 0}, {half, 0}, {half, r.Length}, {-half, r.Length}}
	var out [4][2]float64
	for i, p := range local {
		out[i] = [2]float64{
			r.X + p[0]*cos - p[1]*sin,
			r.Y + p[0]*sin + p[1]*cos,
		}
	}
	return out
}

// gradientImage is an unbounded-looking source image whose colour at a
// pixel is the gradient value at that pixel's centre, mapped back through
// the surface transform into the rectangle's local frame.
type gradientImage struct {
	bounds image.Rectangle
	inv    float64 // display units per layer pixel
	ox, oy float64
	sin    float64
	cos    float64
	length float64
	stops  []GradientStop
}

func newGradientImage(r GradientRect, pixelsPerUnit float64, bounds image.Rectangle) *gradientImage {
	sin, cos := math.Sincos(r.AngleDeg * math.Pi / 180)
	return &gradientImage{
		bounds: bounds,
		inv:    1 / pixelsPerUnit,
		ox:     r.X,
		oy:     r.Y,
		sin:    sin,
		cos:    cos,
		length: r.Length,
		stops:  r.Stops,
	}
}

func (g *gradientImage) ColorModel() color.Model { return color.NRGBAModel }
func (g *gradientImage) Bounds() image.Rectangle { return g.bounds }

func (g *gradientImage) At(x, y int) color.Color {
	u := (float64(x)+0.5)*g.inv - g.ox
	v := (float64(y)+0.5)*g.inv - g.oy
	along := -u*g.sin + v*g.cos
	if g.length <= 0 {
		return color.NRGBA{}
	}
	return sampleStops(g.stops, along/g.length)
}

// sampleStops linearly interpolates the stop list at t, clamping outside
// the first and last stop.
func sampleStops(stops []GradientStop, t float64) color.NRGBA {
	if len(stops) == 0 {
		return color.NRGBA{}
	}
	if t <= stops[0].Offset {
		return stops[0].Color
	}
	last := stops[len(stops)-1]
	if t >= last.Offset {
		return last.Color
	}
	for i := 1; i < len(stops); i++ {
		hi := stops[i]
		if t > hi.Offset {
			continue
		}
		lo := stops[i-1]
		span := hi.Offset - lo.Offset
		if span <= 0 {
			return hi.Color
		}
		f := (t - lo.Offset) / span
		return color.NRGBA{
			R: lerp8(lo.Color.R, hi.Color.R, f),
			G: lerp8(lo.Color.G, hi.Color.G, f),
			B: lerp8(lo.Color.B, hi.Color.B, f),
			A: lerp8(lo.Color.A, hi.Color.A, f),
		}
	}
	return last.Color
}

func lerp8(a, b uint8, f float64) uint8 {
	return uint8(math.Round(float64(a) + (float64(b)-float64(a))*f))
}
