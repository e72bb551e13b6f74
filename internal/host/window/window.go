// Package window runs the beam field in a desktop window through ebiten.
// The surface is rendered on the CPU and uploaded once per frame.
package window

import (
	"context"
	"errors"
	"fmt"
	"image"
	"math"
	"sync"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/rook-computer/beamfield/internal/host"
	"github.com/rook-computer/beamfield/internal/render"
)

const (
	DefaultWidth  = 960
	DefaultHeight = 600
	DefaultTitle  = "beamfield"
)

type Logger interface {
	Infof(component string, format string, args ...any)
	Errorf(component string, format string, args ...any)
}

type Host struct {
	Title  string
	Width  int
	Height int
	FPS    int
	// PixelRatio overrides the monitor scale factor when positive.
	PixelRatio float64
	Fullscreen bool
	Presenter  *host.Presenter
	Logger     Logger

	frames    host.FrameQueue
	listeners host.Listeners

	mu       sync.Mutex
	viewport host.Viewport
	surface  *render.Surface
	canvas   *image.RGBA
	stopped  bool

	ready     chan struct{}
	readyOnce sync.Once
	closed    chan struct{}
	closeOnce sync.Once
}

func New() *Host {
	return &Host{
		Title:  DefaultTitle,
		Width:  DefaultWidth,
		Height: DefaultHeight,
		ready:  make(chan struct{}),
		closed: make(chan struct{}),
	}
}

func (h *Host) Ready() <-chan struct{} { return h.ready }

func (h *Host) Viewport() host.Viewport {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.viewport
}

func (h *Host) InsertSurface() (*render.Surface, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.stopped {
		return nil, fmt.Errorf("window: %w: window closed", host.ErrNoContext)
	}
	if h.surface == nil {
		h.surface = render.NewSurface()
	}
	return h.surface, nil
}

func (h *Host) AddResizeListener(fn func()) (remove func()) { return h.listeners.Add(fn) }

func (h *Host) RequestFrame(fn func()) host.FrameHandle { return h.frames.Request(fn) }
func (h *Host) CancelFrame(id host.FrameHandle)         { h.frames.Cancel(id) }

// Close asks the window to close at the next update.
func (h *Host) Close() { h.closeOnce.Do(func() { close(h.closed) }) }

// Run opens the window and blocks until it is closed or ctx ends. It must
// be called from the main goroutine.
func (h *Host) Run(ctx context.Context) error {
	w, ht := h.Width, h.Height
	if w <= 0 || ht <= 0 {
		w, ht = DefaultWidth, DefaultHeight
	}
	ebiten.SetWindowSize(w, ht)
	ebiten.SetWindowTitle(h.Title)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetWindowClosingHandled(true)
	ebiten.SetFullscreen(h.Fullscreen)
	if h.FPS > 0 {
		ebiten.SetTPS(h.FPS)
	}

	go func() {
		select {
		case <-ctx.Done():
			h.Close()
		case <-h.closed:
		}
	}()

	err := ebiten.RunGame(&game{h: h})

	h.mu.Lock()
	h.stopped = true
	h.mu.Unlock()
	h.Close()
	// Unblock anyone still waiting for a window that never opened.
	h.readyOnce.Do(func() { close(h.ready) })

	if err != nil && !errors.Is(err, ebiten.Termination) {
		return fmt.Errorf("window: %w", err)
	}
	return nil
}

// resize records a new output size and notifies listeners when it changed.
// Listeners are called without h.mu held.
func (h *Host) resize(v host.Viewport) {
	h.mu.Lock()
	changed := h.viewport != v
	h.viewport = v
	h.mu.Unlock()

	h.readyOnce.Do(func() {
		changed = false
		close(h.ready)
		if h.Logger != nil {
			h.Logger.Infof("window", "window ready, %.0fx%.0f @%.2g", v.Width, v.Height, v.PixelRatio)
		}
	})
	if changed {
		h.listeners.Notify()
	}
}

func (h *Host) scaleFactor() float64 {
	if h.PixelRatio > 0 {
		return h.PixelRatio
	}
	if m := ebiten.Monitor(); m != nil {
		if s := m.DeviceScaleFactor(); s > 0 {
			return s
		}
	}
	return 1
}

type game struct {
	h *Host
}

func (g *game) Update() error {
	h := g.h
	if ebiten.IsWindowBeingClosed() {
		return ebiten.Termination
	}
	select {
	case <-h.closed:
		return ebiten.Termination
	default:
	}
	h.frames.Drain()
	return nil
}

func (g *game) Draw(screen *ebiten.Image) {
	h := g.h
	b := screen.Bounds()

	h.mu.Lock()
	surface := h.surface
	if h.canvas == nil || h.canvas.Bounds().Size() != b.Size() {
		h.canvas = image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	}
	canvas := h.canvas
	h.mu.Unlock()

	h.Presenter.Render(canvas, surface)
	screen.WritePixels(canvas.Pix)
}

// Layout reports a device-pixel screen so the surface is drawn 1:1.
func (g *game) Layout(outsideWidth, outsideHeight int) (int, int) {
	scale := g.h.scaleFactor()
	g.h.resize(host.Viewport{
		Width:      float64(outsideWidth),
		Height:     float64(outsideHeight),
		PixelRatio: scale,
	})
	return int(math.Round(float64(outsideWidth) * scale)), int(math.Round(float64(outsideHeight) * scale))
}
