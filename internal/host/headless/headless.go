// Package headless is an in-memory host. Its frames are pumped either
// manually with Step or by Run at a fixed rate; tests and the simulator use
// it in place of a real output.
package headless

import (
	"context"
	"fmt"
	"image"
	"sync"
	"time"

	"github.com/rook-computer/beamfield/internal/host"
	"github.com/rook-computer/beamfield/internal/render"
)

const DefaultFPS = 60

type Host struct {
	// FPS is the Run loop rate. Zero means DefaultFPS.
	FPS int
	// FailSurface makes InsertSurface report that no context is available.
	FailSurface bool
	// Presenter, when set, receives a composed frame after every Step.
	Presenter *host.Presenter

	frames    host.FrameQueue
	listeners host.Listeners

	mu        sync.Mutex
	viewport  host.Viewport
	surface   *render.Surface
	ready     chan struct{}
	readyOnce sync.Once
	closed    chan struct{}
	closeOnce sync.Once
	steps     uint64
	queued    *host.Viewport
	canvas    *image.RGBA
}

// New returns a host with the given viewport that is not yet ready.
func New(v host.Viewport) *Host {
	if v.PixelRatio <= 0 {
		v.PixelRatio = 1
	}
	return &Host{
		viewport: v,
		ready:    make(chan struct{}),
		closed:   make(chan struct{}),
	}
}

// NewReady returns a host that is already ready.
func NewReady(v host.Viewport) *Host {
	h := New(v)
	h.MarkReady()
	return h
}

func (h *Host) MarkReady() {
	h.readyOnce.Do(func() { close(h.ready) })
}

func (h *Host) Ready() <-chan struct{} { return h.ready }

func (h *Host) Viewport() host.Viewport {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.viewport
}

// SetViewport changes the viewport and fires the resize listeners on the
// calling goroutine.
func (h *Host) SetViewport(v host.Viewport) {
	if v.PixelRatio <= 0 {
		v.PixelRatio = 1
	}
	h.mu.Lock()
	h.viewport = v
	h.mu.Unlock()
	h.listeners.Notify()
}

// QueueViewport hands a viewport change to the Run loop, which applies it
// between frames. A later call replaces an unapplied one.
func (h *Host) QueueViewport(v host.Viewport) {
	h.mu.Lock()
	h.queued = &v
	h.mu.Unlock()
}

func (h *Host) applyQueued() {
	h.mu.Lock()
	v := h.queued
	h.queued = nil
	h.mu.Unlock()
	if v != nil {
		h.SetViewport(*v)
	}
}

func (h *Host) InsertSurface() (*render.Surface, error) {
	if h.FailSurface {
		return nil, fmt.Errorf("headless: %w", host.ErrNoContext)
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.surface == nil {
		h.surface = render.NewSurface()
	}
	return h.surface, nil
}

// Surface returns the inserted surface, or nil.
func (h *Host) Surface() *render.Surface {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.surface
}

func (h *Host) AddResizeListener(fn func()) (remove func()) { return h.listeners.Add(fn) }
func (h *Host) ResizeListeners() int                       { return h.listeners.Len() }

func (h *Host) RequestFrame(fn func()) host.FrameHandle { return h.frames.Request(fn) }
func (h *Host) CancelFrame(id host.FrameHandle)         { h.frames.Cancel(id) }
func (h *Host) PendingFrames() int                      { return h.frames.Pending() }

// Step runs one refresh: every pending frame callback is invoked once.
func (h *Host) Step() int {
	n := h.frames.Drain()
	h.mu.Lock()
	h.steps++
	surface := h.surface
	h.mu.Unlock()
	if h.Presenter != nil && surface != nil {
		h.Presenter.Render(h.outputCanvas(), surface)
	}
	return n
}

func (h *Host) outputCanvas() *image.RGBA {
	w, ht := h.Viewport().PixelSize()
	if h.canvas == nil || h.canvas.Bounds().Dx() != w || h.canvas.Bounds().Dy() != ht {
		h.canvas = image.NewRGBA(image.Rect(0, 0, w, ht))
	}
	return h.canvas
}

func (h *Host) Steps() uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.steps
}

// Close is the unload signal: Run returns and Done is closed.
func (h *Host) Close() {
	h.closeOnce.Do(func() { close(h.closed) })
}

func (h *Host) Done() <-chan struct{} { return h.closed }

// Run marks the host ready and steps it at FPS until ctx ends or Close is
// called.
func (h *Host) Run(ctx context.Context) error {
	fps := h.FPS
	if fps <= 0 {
		fps = DefaultFPS
	}
	h.MarkReady()
	ticker := time.NewTicker(time.Second / time.Duration(fps))
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-h.closed:
			return nil
		case <-ticker.C:
			h.applyQueued()
			h.Step()
		}
	}
}
