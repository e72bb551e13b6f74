package render

import (
	"image"
	"image/draw"
	"math"
	"sync"

	"github.com/disintegration/imaging"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/vector"
)

// LayerDivisor is the down-sampling factor of the drawing layer while a
// blur filter is set. Blurred content carries no detail at full resolution.
const LayerDivisor = 4

// Surface is a drawing surface plus its 2D context: a pixel buffer sized in
// device pixels, a display size in logical units and a scale transform from
// logical units to device pixels.
//
// All methods are safe for concurrent use; the preview server reads
// snapshots while the host loop draws.
type Surface struct {
	mu sync.Mutex

	displayW, displayH float64
	scale              float64
	blur               float64

	pixels *image.RGBA // device resolution, what hosts present
	layer  *image.RGBA // drawing target, reduced while blurring
	div    int

	raster *vector.Rasterizer
	draws  uint64
	dirty  bool
}

// NewSurface returns an empty 0x0 surface with an identity transform.
func NewSurface() *Surface {
	return &Surface{
		scale:  1,
		pixels: image.NewRGBA(image.Rectangle{}),
		layer:  image.NewRGBA(image.Rectangle{}),
		div:    1,
		raster: vector.NewRasterizer(0, 0),
	}
}

// SetPixelSize reallocates the pixel buffer. Like a canvas, resizing drops
// the content and resets the transform.
func (s *Surface) SetPixelSize(width, height int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	s.pixels = image.NewRGBA(image.Rect(0, 0, width, height))
	s.layer = image.NewRGBA(image.Rectangle{})
	s.scale = 1
	s.dirty = true
}

// SetDisplaySize records the on-screen size in logical units.
func (s *Surface) SetDisplaySize(width, height float64) {
	s.mu.Lock()
	s.displayW, s.displayH = width, height
	s.mu.Unlock()
}

// Scale multiplies the current transform by factor.
func (s *Surface) Scale(factor float64) {
	s.mu.Lock()
	s.scale *= factor
	s.mu.Unlock()
}

func (s *Surface) PixelSize() (width, height int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b := s.pixels.Bounds()
	return b.Dx(), b.Dy()
}

func (s *Surface) DisplaySize() (width, height float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.displayW, s.displayH
}

func (s *Surface) Transform() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scale
}

// Draws reports how many fills have been issued since the surface was created.
func (s *Surface) Draws() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draws
}

// Clear makes every pixel transparent.
func (s *Surface) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.pixels.Pix)
	clear(s.layer.Pix)
	s.dirty = true
}

// SetBlur sets the Gaussian blur radius, in logical units, applied to
// everything drawn from now on. Zero disables it.
func (s *Surface) SetBlur(radius float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if radius < 0 {
		radius = 0
	}
	s.blur = radius
}

// ensureLayer sizes the drawing layer for the current blur setting.
func (s *Surface) ensureLayer() {
	div := 1
	if s.blur > 0 {
		div = LayerDivisor
	}
	pb := s.pixels.Bounds()
	want := image.Rect(0, 0, ceilDiv(pb.Dx(), div), ceilDiv(pb.Dy(), div))
	if div == s.div && s.layer.Bounds() == want {
		return
	}
	s.div = div
	s.layer = image.NewRGBA(want)
}

// FillGradientRect composites r over the surface.
func (s *Surface) FillGradientRect(r GradientRect) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.draws++
	s.ensureLayer()
	if s.layer.Bounds().Empty() || r.Width <= 0 || r.Length <= 0 {
		return
	}

	ppu := s.scale / float64(s.div) // layer pixels per logical unit
	corners := r.corners()
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for i := range corners {
		corners[i][0] *= ppu
		corners[i][1] *= ppu
		minX = math.Min(minX, corners[i][0])
		minY = math.Min(minY, corners[i][1])
		maxX = math.Max(maxX, corners[i][0])
		maxY = math.Max(maxY, corners[i][1])
	}
	box := image.Rect(int(math.Floor(minX)), int(math.Floor(minY)), int(math.Ceil(maxX)), int(math.Ceil(maxY)))
	box = box.Intersect(s.layer.Bounds())
	if box.Empty() {
		return
	}

	s.raster.Reset(box.Dx(), box.Dy())
	s.raster.DrawOp = draw.Over
	ox, oy := float64(box.Min.X), float64(box.Min.Y)
	s.raster.MoveTo(float32(corners[0][0]-ox), float32(corners[0][1]-oy))
	for _, c := range corners[1:] {
		s.raster.LineTo(float32(c[0]-ox), float32(c[1]-oy))
	}
	s.raster.ClosePath()

	src := newGradientImage(r, ppu, s.layer.Bounds())
	s.raster.Draw(s.layer, box, src, box.Min)
	s.dirty = true
}

// Present resolves the drawing layer into the pixel buffer, blurring and
// up-scaling as needed, and returns it. The returned image is owned by the
// surface and only valid until the next drawing call.
func (s *Surface) Present() *image.RGBA {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resolve()
	return s.pixels
}

// Snapshot returns a copy of the presented frame.
func (s *Surface) Snapshot() *image.RGBA {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resolve()
	out := image.NewRGBA(s.pixels.Bounds())
	copy(out.Pix, s.pixels.Pix)
	return out
}

func (s *Surface) resolve() {
	if !s.dirty {
		return
	}
	s.dirty = false
	if s.layer.Bounds().Empty() || s.pixels.Bounds().Empty() {
		return
	}

	var src image.Image = s.layer
	if s.blur > 0 {
		sigma := s.blur * s.scale / float64(s.div)
		src = imaging.Blur(s.layer, sigma)
	}
	if s.layer.Bounds() == s.pixels.Bounds() && src == image.Image(s.layer) {
		copy(s.pixels.Pix, s.layer.Pix)
		return
	}
	xdraw.BiLinear.Scale(s.pixels, s.pixels.Bounds(), src, src.Bounds(), xdraw.Src, nil)
}

func ceilDiv(n, d int) int {
	if n <= 0 {
		return 0
	}
	return (n + d - 1) / d
}
