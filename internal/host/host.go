package host

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/draw"
	"math"
	"sort"
	"sync"

	"github.com/rook-computer/beamfield/internal/render"
)

// ErrNoContext is returned by InsertSurface when the host cannot provide a
// drawing context at all.
var ErrNoContext = errors.New("host has no drawing context")

// Backdrop is painted behind the surface by hosts that own the whole output.
var Backdrop = color.RGBA{R: 0x0E, G: 0x0C, B: 0x12, A: 0xFF}

// Viewport is the visible area in logical units plus the device pixel ratio.
type Viewport struct {
	Width      float64
	Height     float64
	PixelRatio float64
}

// PixelSize returns the device pixel dimensions of v.
func (v Viewport) PixelSize() (int, int) {
	ratio := v.PixelRatio
	if ratio <= 0 {
		ratio = 1
	}
	return int(math.Round(v.Width * ratio)), int(math.Round(v.Height * ratio))
}

// FrameHandle identifies a requested frame callback. Zero is never issued.
type FrameHandle uint64

// Host is the environment a beam field runs in: it owns the output, the
// refresh cadence and the viewport signals.
//
// Frame and resize callbacks are invoked from the goroutine running Run,
// one at a time.
type Host interface {
	// Run drives the refresh loop until ctx ends or the host is closed.
	Run(ctx context.Context) error
	// Ready is closed once the host can accept a surface.
	Ready() <-chan struct{}
	Viewport() Viewport
	// InsertSurface creates the drawing surface as the bottom-most visual
	// element of the output.
	InsertSurface() (*render.Surface, error)
	AddResizeListener(fn func()) (remove func())
	RequestFrame(fn func()) FrameHandle
	CancelFrame(h FrameHandle)
}

// FrameQueue holds requested frame callbacks. Callbacks requested while
// Drain runs are kept for the next Drain.
type FrameQueue struct {
	mu      sync.Mutex
	next    FrameHandle
	pending map[FrameHandle]func()
}

func (q *FrameQueue) Request(fn func()) FrameHandle {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.pending == nil {
		q.pending = make(map[FrameHandle]func())
	}
	q.next++
	q.pending[q.next] = fn
	return q.next
}

func (q *FrameQueue) Cancel(h FrameHandle) {
	q.mu.Lock()
	delete(q.pending, h)
	q.mu.Unlock()
}

// Pending reports how many callbacks are waiting.
func (q *FrameQueue) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// Drain runs every callback that was pending when it was called, in request
// order, and returns how many ran.
func (q *FrameQueue) Drain() int {
	q.mu.Lock()
	if len(q.pending) == 0 {
		q.mu.Unlock()
		return 0
	}
	handles := make([]FrameHandle, 0, len(q.pending))
	for h := range q.pending {
		handles = append(handles, h)
	}
	sort.Slice(handles, func(i, j int) bool { return handles[i] < handles[j] })
	q.mu.Unlock()

	ran := 0
	for _, h := range handles {
		// A callback may cancel a later one.
		q.mu.Lock()
		fn, ok := q.pending[h]
		delete(q.pending, h)
		q.mu.Unlock()
		if !ok {
			continue
		}
		fn()
		ran++
	}
	return ran
}

// Listeners is a resize listener registry.
type Listeners struct {
	mu    sync.Mutex
	next  uint64
	funcs map[uint64]func()
}

// Add registers fn and returns a function that removes it. Removing twice
// is harmless.
func (l *Listeners) Add(fn func()) (remove func()) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.funcs == nil {
		l.funcs = make(map[uint64]func())
	}
	l.next++
	id := l.next
	l.funcs[id] = fn
	return func() {
		l.mu.Lock()
		delete(l.funcs, id)
		l.mu.Unlock()
	}
}

func (l *Listeners) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.funcs)
}

// Notify calls every registered listener in registration order.
func (l *Listeners) Notify() {
	l.mu.Lock()
	ids := make([]uint64, 0, len(l.funcs))
	for id := range l.funcs {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	fns := make([]func(), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, l.funcs[id])
	}
	l.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

// Compose paints the backdrop, then the presented surface, into dst and
// scales the surface when the sizes differ.
func Compose(dst *image.RGBA, frame *image.RGBA) {
	draw.Draw(dst, dst.Bounds(), &image.Uniform{C: Backdrop}, image.Point{}, draw.Src)
	if frame == nil || frame.Bounds().Empty() {
		return
	}
	if frame.Bounds().Size() == dst.Bounds().Size() {
		draw.Draw(dst, dst.Bounds(), frame, frame.Bounds().Min, draw.Over)
		return
	}
	scaleOver(dst, frame)
}
