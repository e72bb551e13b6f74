package layout

import "image"

// Inset shrinks rect by paddingPx on all sides.
func Inset(rect image.Rectangle, paddingPx int) image.Rectangle {
	if paddingPx <= 0 {
		return rect
	}
	out := image.Rect(rect.Min.X+paddingPx, rect.Min.Y+paddingPx, rect.Max.X-paddingPx, rect.Max.Y-paddingPx)
	if out.Dx() < 0 || out.Dy() < 0 {
		c := image.Pt(rect.Min.X+rect.Dx()/2, rect.Min.Y+rect.Dy()/2)
		return image.Rectangle{Min: c, Max: c}
	}
	return out
}

// Normalize ensures Min is <= Max on both axes.
func Normalize(rect image.Rectangle) image.Rectangle {
	if rect.Min.X > rect.Max.X {
		rect.Min.X, rect.Max.X = rect.Max.X, rect.Min.X
	}
	if rect.Min.Y > rect.Max.Y {
		rect.Min.Y, rect.Max.Y = rect.Max.Y, rect.Min.Y
	}
	return rect
}

// BottomBand returns the bottom heightPx of rect, clamped to rect.
func BottomBand(rect image.Rectangle, heightPx int) image.Rectangle {
	rect = Normalize(rect)
	heightPx = clamp(heightPx, 0, rect.Dy())
	return image.Rect(rect.Min.X, rect.Max.Y-heightPx, rect.Max.X, rect.Max.Y)
}

// AnchorBottomRight returns a widthPx x heightPx rectangle placed in the
// bottom-right corner of rect, clamped to rect.
func AnchorBottomRight(rect image.Rectangle, widthPx, heightPx int) image.Rectangle {
	rect = Normalize(rect)
	widthPx = clamp(widthPx, 0, rect.Dx())
	heightPx = clamp(heightPx, 0, rect.Dy())
	return image.Rect(rect.Max.X-widthPx, rect.Max.Y-heightPx, rect.Max.X, rect.Max.Y)
}

// SquareFraction returns the side of a square covering fraction of the
// shorter side of rect, never below minPx unless rect itself is smaller.
func SquareFraction(rect image.Rectangle, fraction float64, minPx int) int {
	rect = Normalize(rect)
	short := rect.Dx()
	if rect.Dy() < short {
		short = rect.Dy()
	}
	side := int(float64(short) * fraction)
	if side < minPx {
		side = minPx
	}
	if side > short {
		side = short
	}
	return side
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
