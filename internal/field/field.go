package field

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/rook-computer/beamfield/internal/beam"
	"github.com/rook-computer/beamfield/internal/host"
	"github.com/rook-computer/beamfield/internal/render"
)

// ErrUnsupportedRenderingContext is returned by Initialize when the host
// cannot provide a drawing context. It is not retryable.
var ErrUnsupportedRenderingContext = errors.New("unsupported rendering context")

type Logger interface {
	Infof(component string, format string, args ...interface{})
	Errorf(component string, format string, args ...interface{})
}

type noopLogger struct{}

func (noopLogger) Infof(string, string, ...interface{})  {}
func (noopLogger) Errorf(string, string, ...interface{}) {}

// Stats is published after every frame.
type Stats struct {
	Frame    uint64
	Beams    int
	Viewport host.Viewport
}

// Animator is the beam field: it owns the surface, the beams and the frame
// loop of one host.
type Animator struct {
	host    host.Host
	logger  Logger
	palette beam.Palette
	count   int
	rng     *rand.Rand
	observe func(Stats)

	mu           sync.Mutex
	surface      *render.Surface
	beams        []beam.Beam
	view         host.Viewport
	frame        host.FrameHandle
	removeResize func()
	initialized  bool
	stopped      bool
	frames       uint64
}

type Option func(*Animator)

func WithCount(n int) Option { return func(a *Animator) { a.count = n } }

func WithPalette(p beam.Palette) Option { return func(a *Animator) { a.palette = p } }

func WithRand(rng *rand.Rand) Option { return func(a *Animator) { a.rng = rng } }

func WithLogger(l Logger) Option { return func(a *Animator) { a.logger = l } }

// WithFrameObserver registers fn to receive Stats after each frame. It runs
// on the host loop and must not block.
func WithFrameObserver(fn func(Stats)) Option { return func(a *Animator) { a.observe = fn } }

func New(h host.Host, opts ...Option) *Animator {
	a := &Animator{
		host:    h,
		logger:  noopLogger{},
		palette: beam.DefaultPalette,
		count:   beam.Count,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.rng == nil {
		a.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if a.logger == nil {
		a.logger = noopLogger{}
	}
	return a
}

// Initialize waits for the host to become ready, inserts the surface,
// listens for resizes, sizes it and requests the first frame. Calling it again
// after success does nothing.
func (a *Animator) Initialize(ctx context.Context) error {
	select {
	case <-a.host.Ready():
	case <-ctx.Done():
		return ctx.Err()
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.initialized || a.stopped {
		return nil
	}
	a.logger.Infof("field", "initializing beams")

	surface, err := a.host.InsertSurface()
	if err != nil {
		a.logger.Errorf("field", "could not get a drawing context: %v", err)
		return fmt.Errorf("%w: %w", ErrUnsupportedRenderingContext, err)
	}
	a.surface = surface
	a.initialized = true
	// Listen before the first sizing so a resize landing in between is
	// replayed once the lock is released.
	a.removeResize = a.host.AddResizeListener(a.Resize)
	a.resizeLocked()

	a.frame = a.host.RequestFrame(a.Tick)
	a.logger.Infof("field", "beams animation started")
	return nil
}

// Resize sizes the surface to the current viewport and rebuilds every beam.
func (a *Animator) Resize() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.surface == nil || a.stopped {
		return
	}
	a.resizeLocked()
}

func (a *Animator) resizeLocked() {
	v := a.host.Viewport()
	if v.PixelRatio <= 0 {
		v.PixelRatio = 1
	}
	a.view = v

	pw, ph := v.PixelSize()
	a.surface.SetPixelSize(pw, ph)
	a.surface.SetDisplaySize(v.Width, v.Height)
	a.surface.Scale(v.PixelRatio)
	a.logger.Infof("field", "surface sized %.0fx%.0f at %gx", v.Width, v.Height, v.PixelRatio)

	beams := make([]beam.Beam, a.count)
	for i := range beams {
		beams[i] = beam.New(a.rng, a.palette, v.Width, v.Height)
	}
	a.beams = beams
	a.logger.Infof("field", "beams created: %d", len(beams))
}

// Tick draws one frame and schedules the next.
func (a *Animator) Tick() {
	a.mu.Lock()
	if a.stopped || a.surface == nil {
		a.mu.Unlock()
		return
	}

	a.surface.Clear()
	a.surface.SetBlur(a.palette.Blur)
	for i := range a.beams {
		b := &a.beams[i]
		beam.Advance(b)
		if beam.OffScreen(*b) {
			beam.Recycle(b, a.rng, a.view.Width, a.view.Height)
		}
		renderBeam(a.surface, *b, a.palette)
	}
	a.frames++
	stats := Stats{Frame: a.frames, Beams: len(a.beams), Viewport: a.view}
	a.frame = a.host.RequestFrame(a.Tick)
	observe := a.observe
	a.mu.Unlock()

	if observe != nil {
		observe(stats)
	}
}

// Teardown cancels the pending frame and detaches the resize listener. No
// frame runs after it returns.
func (a *Animator) Teardown() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.stopped {
		return
	}
	a.stopped = true
	if a.frame != 0 {
		a.host.CancelFrame(a.frame)
		a.frame = 0
	}
	if a.removeResize != nil {
		a.removeResize()
		a.removeResize = nil
	}
	a.logger.Infof("field", "beams animation stopped after %d frames", a.frames)
}

// Beams returns a copy of the current beams.
func (a *Animator) Beams() []beam.Beam {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]beam.Beam, len(a.beams))
	copy(out, a.beams)
	return out
}

// Viewport is the viewport of the last regeneration.
func (a *Animator) Viewport() host.Viewport {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.view
}

func (a *Animator) Frames() uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.frames
}

// Surface returns the drawing surface, nil before Initialize.
func (a *Animator) Surface() *render.Surface {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.surface
}

// renderBeam fills b's rectangle with its pulsing gradient.
func renderBeam(s *render.Surface, b beam.Beam, p beam.Palette) {
	stops := beam.Stops(b, p)
	gs := make([]render.GradientStop, len(stops))
	for i, st := range stops {
		gs[i] = render.GradientStop{Offset: st.Offset, Color: st.Color}
	}
	s.FillGradientRect(render.GradientRect{
		X:        b.X,
		Y:        b.Y,
		Width:    b.Width,
		Length:   b.Length,
		AngleDeg: b.Angle,
		Stops:    gs,
	})
}
