// Package fbhost runs the beam field full-screen on a Linux framebuffer
// device. The virtual terminal is switched to graphics mode for the run and
// an evdev exit key acts as the unload signal.
package fbhost

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"sync"
	"time"

	fb "github.com/gonutz/framebuffer"

	"github.com/rook-computer/beamfield/internal/host"
	"github.com/rook-computer/beamfield/internal/render"
	"github.com/rook-computer/beamfield/internal/system"
)

const (
	DefaultDevice = "/dev/fb0"
	DefaultFPS    = 30
)

type Logger interface {
	Infof(component string, format string, args ...any)
	Errorf(component string, format string, args ...any)
}

// Host owns a framebuffer device. The device has a fixed size, so resize
// listeners only fire if PixelRatio changes between runs.
type Host struct {
	Device     string
	PixelRatio float64
	FPS        int
	Presenter  *host.Presenter
	Logger     Logger
	// ExitKeys are evdev key codes that end Run. Nil means system.DefaultExitKeys.
	ExitKeys []uint16
	// KeepConsole leaves the virtual terminal in text mode.
	KeepConsole bool

	frames    host.FrameQueue
	listeners host.Listeners

	mu      sync.Mutex
	dev     *fb.Device
	openErr error
	bounds  image.Rectangle
	surface *render.Surface
	canvas  *image.RGBA

	ready     chan struct{}
	readyOnce sync.Once
	closed    chan struct{}
	closeOnce sync.Once
}

func New(device string) *Host {
	if device == "" {
		device = DefaultDevice
	}
	return &Host{
		Device:     device,
		PixelRatio: 1,
		ready:      make(chan struct{}),
		closed:     make(chan struct{}),
	}
}

func (h *Host) Ready() <-chan struct{} { return h.ready }

func (h *Host) markReady() { h.readyOnce.Do(func() { close(h.ready) }) }

// Viewport is the device size divided by PixelRatio.
func (h *Host) Viewport() host.Viewport {
	h.mu.Lock()
	defer h.mu.Unlock()
	return viewportFor(h.bounds, h.PixelRatio)
}

func viewportFor(bounds image.Rectangle, ratio float64) host.Viewport {
	if ratio <= 0 {
		ratio = 1
	}
	return host.Viewport{
		Width:      float64(bounds.Dx()) / ratio,
		Height:     float64(bounds.Dy()) / ratio,
		PixelRatio: ratio,
	}
}

func (h *Host) InsertSurface() (*render.Surface, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.dev == nil {
		err := h.openErr
		if err == nil {
			err = fmt.Errorf("%s not open", h.Device)
		}
		return nil, fmt.Errorf("framebuffer: %w: %v", host.ErrNoContext, err)
	}
	if h.surface == nil {
		h.surface = render.NewSurface()
	}
	return h.surface, nil
}

func (h *Host) AddResizeListener(fn func()) (remove func()) { return h.listeners.Add(fn) }

func (h *Host) RequestFrame(fn func()) host.FrameHandle { return h.frames.Request(fn) }
func (h *Host) CancelFrame(id host.FrameHandle)         { h.frames.Cancel(id) }

// Close is the unload signal.
func (h *Host) Close() { h.closeOnce.Do(func() { close(h.closed) }) }

// Run opens the device and refreshes it at FPS until ctx ends, Close is
// called or an exit key is pressed. When the device cannot be opened Run
// still becomes ready, so InsertSurface can report the failure, and then
// waits for the unload signal.
func (h *Host) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	h.open()
	h.markReady()

	h.mu.Lock()
	dev := h.dev
	h.mu.Unlock()
	if dev == nil {
		select {
		case <-ctx.Done():
		case <-h.closed:
		}
		return nil
	}
	defer h.release()

	console := &system.Console{Logger: h.Logger}
	if !h.KeepConsole {
		console.Acquire()
		defer console.Release()
	}
	system.StartExitOnKey(ctx, h.Logger, h.ExitKeys, h.Close)

	fps := h.FPS
	if fps <= 0 {
		fps = DefaultFPS
	}
	ticker := time.NewTicker(time.Second / time.Duration(fps))
	defer ticker.Stop()

	lastLog := time.Now()
	frames := 0
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-h.closed:
			return nil
		case <-ticker.C:
			h.frames.Drain()
			h.present(dev)
			frames++
			if h.Logger != nil && time.Since(lastLog) > 10*time.Second {
				h.Logger.Infof("fb", "heartbeat, %d frames", frames)
				lastLog = time.Now()
			}
		}
	}
}

func (h *Host) open() {
	dev, err := fb.Open(h.Device)
	h.mu.Lock()
	defer h.mu.Unlock()
	if err != nil {
		h.openErr = err
		if h.Logger != nil {
			h.Logger.Errorf("fb", "open %s failed: %v", h.Device, err)
		}
		return
	}
	h.dev = dev
	h.bounds = dev.Bounds()
	h.canvas = image.NewRGBA(image.Rect(0, 0, h.bounds.Dx(), h.bounds.Dy()))
	if h.Logger != nil {
		h.Logger.Infof("fb", "framebuffer open, bounds=%dx%d", h.bounds.Dx(), h.bounds.Dy())
	}
}

func (h *Host) release() {
	h.mu.Lock()
	dev := h.dev
	h.dev = nil
	h.mu.Unlock()
	if dev != nil {
		dev.Close()
	}
}

func (h *Host) present(dev *fb.Device) {
	h.mu.Lock()
	surface, canvas, bounds := h.surface, h.canvas, h.bounds
	h.mu.Unlock()
	h.Presenter.Render(canvas, surface)
	blit(dev, bounds, canvas)
}

// blit copies canvas onto the device. The canvas always matches the device
// size so no scaling is needed.
func blit(dev interface{ Set(x, y int, c color.Color) }, bounds image.Rectangle, canvas *image.RGBA) {
	w, ht := bounds.Dx(), bounds.Dy()
	for y := 0; y < ht; y++ {
		row := canvas.Pix[y*canvas.Stride:]
		for x := 0; x < w; x++ {
			i := x * 4
			dev.Set(bounds.Min.X+x, bounds.Min.Y+y, color.RGBA{R: row[i], G: row[i+1], B: row[i+2], A: 0xFF})
		}
	}
}

