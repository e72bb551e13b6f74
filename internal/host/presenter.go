package host

import (
	"image"
	"sync"

	"github.com/rook-computer/beamfield/internal/render"
	"github.com/rook-computer/beamfield/internal/render/overlay"
)

// Presenter turns a surface into a finished output frame and remembers the
// last one it produced for previews.
type Presenter struct {
	// Overlay is drawn on top of the beams when set.
	Overlay *overlay.Overlay

	mu   sync.Mutex
	last *image.RGBA
}

// Render composes the backdrop, the surface and the overlay into dst.
// A nil surface leaves only the backdrop.
func (p *Presenter) Render(dst *image.RGBA, s *render.Surface) {
	var frame *image.RGBA
	if s != nil {
		frame = s.Present()
	}
	Compose(dst, frame)
	if p == nil {
		return
	}
	p.Overlay.Compose(dst)

	p.mu.Lock()
	if p.last == nil || p.last.Bounds() != dst.Bounds() {
		p.last = image.NewRGBA(dst.Bounds())
	}
	copy(p.last.Pix, dst.Pix)
	p.mu.Unlock()
}

// Latest returns a copy of the last rendered frame, or nil before the first.
func (p *Presenter) Latest() *image.RGBA {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.last == nil {
		return nil
	}
	out := image.NewRGBA(p.last.Bounds())
	copy(out.Pix, p.last.Pix)
	return out
}
