package beam

import (
	"math"
	"math/rand"
	"testing"
)

// fixedRand returns the same value for every draw.
type fixedRand float64

func (f fixedRand) Float64() float64 { return float64(f) }

func TestNewRanges(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	const width, height = 1280.0, 720.0

	for i := 0; i < 1000; i++ {
		b := New(rng, DefaultPalette, width, height)

		if b.X < 0 || b.X >= width {
			t.Fatalf("Expected X in [0, %v), got %v", width, b.X)
		}
		if b.Y < 0 || b.Y >= height {
			t.Fatalf("Expected Y in [0, %v), got %v", height, b.Y)
		}
		if b.Width < MinWidth || b.Width > MinWidth+WidthSpread {
			t.Fatalf("Expected width in [40, 60], got %v", b.Width)
		}
		if b.Length != height*LengthFactor {
			t.Fatalf("Expected length %v, got %v", height*LengthFactor, b.Length)
		}
		if b.Angle < -35 || b.Angle > -25 {
			t.Fatalf("Expected tilt in [-35, -25], got %v", b.Angle)
		}
		if b.Speed < 0.5 || b.Speed > 1.0 {
			t.Fatalf("Expected speed in [0.5, 1.0], got %v", b.Speed)
		}
		if b.Hue < 25 || b.Hue > 65 {
			t.Fatalf("Expected hue in [25, 65], got %v", b.Hue)
		}
		if b.Opacity < 0.16 || b.Opacity > 0.24 {
			t.Fatalf("Expected base opacity in [0.16, 0.24], got %v", b.Opacity)
		}
		if b.Pulse < 0 || b.Pulse >= 2*math.Pi {
			t.Fatalf("Expected pulse phase in [0, 2pi), got %v", b.Pulse)
		}
		if b.PulseSpeed != PulseRate {
			t.Fatalf("Expected pulse speed %v, got %v", PulseRate, b.PulseSpeed)
		}
		if b.Width/b.Length < 0 {
			t.Fatalf("Expected non-negative width/length ratio, got %v", b.Width/b.Length)
		}
	}
}

func TestAdvance(t *testing.T) {
	b := Beam{Y: 10, Speed: 0.5, Length: 750, PulseSpeed: PulseRate}
	Advance(&b)

	if b.Y != 9.5 {
		t.Errorf("Expected Y 9.5 after one advance, got %v", b.Y)
	}
	if b.Pulse != PulseRate {
		t.Errorf("Expected pulse %v, got %v", PulseRate, b.Pulse)
	}
	if OffScreen(b) {
		t.Error("Expected beam at 9.5 to stay on screen")
	}
}

func TestOffScreen(t *testing.T) {
	tests := []struct {
		name   string
		y      float64
		length float64
		want   bool
	}{
		{"Fully visible", 100, 650, false},
		{"Trailing edge at top", -650, 650, false},
		{"Inside margin", -749, 650, false},
		{"Exactly at margin", -750, 650, false},
		{"Past margin", -800, 650, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := OffScreen(Beam{Y: tt.y, Length: tt.length})
			if got != tt.want {
				t.Errorf("Expected OffScreen=%v for y=%v length=%v, got %v", tt.want, tt.y, tt.length, got)
			}
		})
	}
}

func TestRecycleKeepsShape(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	b := New(rng, DefaultPalette, 800, 600)
	before := b
	b.Y = -2000

	Recycle(&b, fixedRand(0.25), 800, 600)

	if b.Y != 700 {
		t.Errorf("Expected Y 700 after recycle, got %v", b.Y)
	}
	if b.X != 200 {
		t.Errorf("Expected X 200 after recycle, got %v", b.X)
	}
	if b.Width != before.Width || b.Length != before.Length || b.Angle != before.Angle ||
		b.Speed != before.Speed || b.Opacity != before.Opacity || b.Hue != before.Hue {
		t.Errorf("Expected recycle to keep shape and colour, got %+v from %+v", b, before)
	}
}

func TestPulseOpacityBounds(t *testing.T) {
	b := Beam{Opacity: 0.2, PulseSpeed: PulseRate}
	for i := 0; i < 2000; i++ {
		p := PulseOpacity(b)
		if p < 0.8*b.Opacity-1e-12 || p > b.Opacity+1e-12 {
			t.Fatalf("Expected pulse opacity in [%v, %v], got %v at phase %v", 0.8*b.Opacity, b.Opacity, p, b.Pulse)
		}
		Advance(&b)
	}
}

func TestStops(t *testing.T) {
	b := Beam{Hue: 45, Opacity: 0.2, Pulse: math.Pi / 2}
	stops := Stops(b, DefaultPalette)

	wantOffsets := []float64{0, 0.2, 0.5, 0.8, 1}
	for i, s := range stops {
		if s.Offset != wantOffsets[i] {
			t.Errorf("Expected stop %d at %v, got %v", i, wantOffsets[i], s.Offset)
		}
	}
	if stops[0].Color.A != 0 || stops[4].Color.A != 0 {
		t.Errorf("Expected transparent ends, got %d and %d", stops[0].Color.A, stops[4].Color.A)
	}
	// sin(pi/2) = 1 so the peak is the full base opacity.
	if stops[2].Color.A != 51 {
		t.Errorf("Expected peak alpha 51, got %d", stops[2].Color.A)
	}
	if stops[1].Color.A != stops[3].Color.A || stops[1].Color.A >= stops[2].Color.A {
		t.Errorf("Expected symmetric half-peak stops below the peak, got %d %d %d", stops[1].Color.A, stops[2].Color.A, stops[3].Color.A)
	}
	for i := 1; i < len(stops); i++ {
		a, b := stops[0].Color, stops[i].Color
		if a.R != b.R || a.G != b.G || a.B != b.B {
			t.Errorf("Expected all stops to share one colour, stop %d differs", i)
		}
	}
	// hsl(45, 70%, 55%) is a warm gold.
	c := stops[2].Color
	if !(c.R > c.G && c.G > c.B) {
		t.Errorf("Expected gold colour (R > G > B), got %+v", c)
	}
}
