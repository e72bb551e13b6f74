package beam

import (
	"image/color"
	"math"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// Field-wide constants. They are compiled in and not configurable at runtime.
const (
	Count = 12

	MinWidth    = 40.0
	WidthSpread = 20.0

	LengthFactor = 1.5

	MinTilt    = -35.0
	TiltSpread = 10.0

	MinSpeed    = 0.5
	SpeedSpread = 0.5

	PulseRate = 0.015

	// RecycleMargin is how far past an edge a beam travels before it is
	// recycled, and how far below the bottom edge it re-enters.
	RecycleMargin = 100.0
)

// Palette is the fixed colour scheme shared by every beam.
type Palette struct {
	BaseHue    float64 // degrees
	HueSpread  float64 // degrees either side of BaseHue
	Opacity    float64
	Blur       float64 // blur radius in display units
	Saturation float64 // 0..1
	Lightness  float64 // 0..1
}

var DefaultPalette = Palette{
	BaseHue:    45,
	HueSpread:  20,
	Opacity:    0.2,
	Blur:       20,
	Saturation: 0.70,
	Lightness:  0.55,
}

// Rand is the source of randomness for beam construction. *rand.Rand satisfies it.
type Rand interface {
	Float64() float64
}

// Beam is one light beam. Only X, Y and Pulse change after construction.
type Beam struct {
	X, Y       float64
	Width      float64
	Length     float64
	Angle      float64 // degrees
	Speed      float64 // units per frame
	Opacity    float64 // base opacity before pulsing
	Hue        float64 // degrees
	Pulse      float64 // radians
	PulseSpeed float64 // radians per frame
}

// New builds a beam placed anywhere inside a width x height viewport.
func New(rng Rand, p Palette, width, height float64) Beam {
	return Beam{
		X:          rng.Float64() * width,
		Y:          rng.Float64() * height,
		Width:      MinWidth + rng.Float64()*WidthSpread,
		Length:     height * LengthFactor,
		Angle:      MinTilt + rng.Float64()*TiltSpread,
		Speed:      MinSpeed + rng.Float64()*SpeedSpread,
		Opacity:    p.Opacity * (0.8 + rng.Float64()*0.4),
		Hue:        p.BaseHue + (rng.Float64()*2-1)*p.HueSpread,
		Pulse:      rng.Float64() * math.Pi * 2,
		PulseSpeed: PulseRate,
	}
}

// Advance moves the beam up by its speed and steps its pulse phase.
func Advance(b *Beam) {
	b.Y -= b.Speed
	b.Pulse += b.PulseSpeed
}

// OffScreen reports whether the trailing edge has cleared the top edge by
// more than RecycleMargin.
func OffScreen(b Beam) bool {
	return b.Y+b.Length < -RecycleMargin
}

// Recycle moves the beam back below the bottom edge at a new horizontal
// position. Shape, colour and speed are kept.
func Recycle(b *Beam, rng Rand, width, height float64) {
	b.Y = height + RecycleMargin
	b.X = rng.Float64() * width
}

// PulseOpacity is the peak opacity for the current pulse phase, always
// within [0.8, 1.0] of the base opacity.
func PulseOpacity(b Beam) float64 {
	return b.Opacity * (0.8 + math.Sin(b.Pulse)*0.2)
}

// Stop is one colour stop of a beam gradient.
type Stop struct {
	Offset float64
	Color  color.NRGBA
}

// Stops returns the five gradient stops along the beam length: transparent
// at both ends, half peak at 0.2 and 0.8, peak at the midpoint.
func Stops(b Beam, p Palette) [5]Stop {
	peak := PulseOpacity(b)
	base := hslColor(b.Hue, p.Saturation, p.Lightness)
	at := func(offset, alpha float64) Stop {
		c := base
		c.A = alphaByte(alpha)
		return Stop{Offset: offset, Color: c}
	}
	return [5]Stop{
		at(0, 0),
		at(0.2, peak*0.5),
		at(0.5, peak),
		at(0.8, peak*0.5),
		at(1, 0),
	}
}

func hslColor(hue, s, l float64) color.NRGBA {
	hue = math.Mod(hue, 360)
	if hue < 0 {
		hue += 360
	}
	r, g, b := colorful.Hsl(hue, s, l).Clamped().RGB255()
	return color.NRGBA{R: r, G: g, B: b}
}

func alphaByte(a float64) uint8 {
	if a <= 0 {
		return 0
	}
	if a >= 1 {
		return 0xFF
	}
	return uint8(math.Round(a * 0xFF))
}
