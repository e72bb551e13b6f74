// Package termhost renders the beam field into a terminal with tcell. Each
// character cell shows two vertically stacked pixels using a half block.
package termhost

import (
	"context"
	"fmt"
	"image"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/rook-computer/beamfield/internal/host"
	"github.com/rook-computer/beamfield/internal/render"
)

const (
	DefaultFPS = 30
	// CellUnits is the logical width of one pixel column. Keeps beam
	// proportions close to a desktop display.
	CellUnits = 8

	halfBlock = '▀'
)

type Logger interface {
	Infof(component string, format string, args ...any)
	Errorf(component string, format string, args ...any)
}

type Host struct {
	FPS       int
	Presenter *host.Presenter
	Logger    Logger
	// NewScreen creates the terminal screen. Nil means tcell.NewScreen.
	NewScreen func() (tcell.Screen, error)

	frames    host.FrameQueue
	listeners host.Listeners

	mu      sync.Mutex
	screen  tcell.Screen
	initErr error
	cols    int
	rows    int
	surface *render.Surface
	canvas  *image.RGBA

	ready     chan struct{}
	readyOnce sync.Once
	closed    chan struct{}
	closeOnce sync.Once
}

func New() *Host {
	return &Host{
		ready:  make(chan struct{}),
		closed: make(chan struct{}),
	}
}

func (h *Host) Ready() <-chan struct{} { return h.ready }

func (h *Host) Viewport() host.Viewport {
	h.mu.Lock()
	defer h.mu.Unlock()
	return viewportFor(h.cols, h.rows)
}

// viewportFor maps a cols x rows terminal to logical units. The pixel grid
// is cols x 2*rows.
func viewportFor(cols, rows int) host.Viewport {
	return host.Viewport{
		Width:      float64(cols * CellUnits),
		Height:     float64(rows * 2 * CellUnits),
		PixelRatio: 1.0 / CellUnits,
	}
}

func (h *Host) InsertSurface() (*render.Surface, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.screen == nil {
		err := h.initErr
		if err == nil {
			err = fmt.Errorf("screen not initialized")
		}
		return nil, fmt.Errorf("terminal: %w: %v", host.ErrNoContext, err)
	}
	if h.surface == nil {
		h.surface = render.NewSurface()
	}
	return h.surface, nil
}

func (h *Host) AddResizeListener(fn func()) (remove func()) { return h.listeners.Add(fn) }

func (h *Host) RequestFrame(fn func()) host.FrameHandle { return h.frames.Request(fn) }
func (h *Host) CancelFrame(id host.FrameHandle)         { h.frames.Cancel(id) }

func (h *Host) Close() { h.closeOnce.Do(func() { close(h.closed) }) }

type termEvent struct {
	resize bool
	quit   bool
}

// Run takes over the terminal until ctx ends, Close is called or the user
// presses Esc, q or Ctrl-C.
func (h *Host) Run(ctx context.Context) error {
	screen, err := h.openScreen()
	if err != nil {
		h.mu.Lock()
		h.initErr = err
		h.mu.Unlock()
		if h.Logger != nil {
			h.Logger.Errorf("term", "screen init failed: %v", err)
		}
		h.readyOnce.Do(func() { close(h.ready) })
		select {
		case <-ctx.Done():
		case <-h.closed:
		}
		return nil
	}
	defer screen.Fini()

	screen.HideCursor()
	screen.Clear()
	cols, rows := screen.Size()
	h.mu.Lock()
	h.screen = screen
	h.cols, h.rows = cols, rows
	h.mu.Unlock()
	if h.Logger != nil {
		h.Logger.Infof("term", "terminal %dx%d cells", cols, rows)
	}
	h.readyOnce.Do(func() { close(h.ready) })

	events := make(chan termEvent, 8)
	go pollEvents(screen, events)

	fps := h.FPS
	if fps <= 0 {
		fps = DefaultFPS
	}
	ticker := time.NewTicker(time.Second / time.Duration(fps))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-h.closed:
			return nil
		case ev, ok := <-events:
			if !ok || ev.quit {
				h.Close()
				return nil
			}
			if ev.resize {
				h.handleResize(screen)
			}
		case <-ticker.C:
			h.frames.Drain()
			h.draw(screen)
		}
	}
}

func (h *Host) openScreen() (tcell.Screen, error) {
	newScreen := h.NewScreen
	if newScreen == nil {
		newScreen = tcell.NewScreen
	}
	screen, err := newScreen()
	if err != nil {
		return nil, err
	}
	if err := screen.Init(); err != nil {
		return nil, err
	}
	return screen, nil
}

// pollEvents forwards the events the loop cares about. It returns when the
// screen is finalized.
func pollEvents(screen tcell.Screen, out chan<- termEvent) {
	defer close(out)
	for {
		ev := screen.PollEvent()
		if ev == nil {
			return
		}
		switch ev := ev.(type) {
		case *tcell.EventResize:
			trySend(out, termEvent{resize: true})
		case *tcell.EventKey:
			if isQuitKey(ev) {
				trySend(out, termEvent{quit: true})
				return
			}
		}
	}
}

// trySend drops the event when the loop is gone or far behind.
func trySend(out chan<- termEvent, ev termEvent) {
	select {
	case out <- ev:
	default:
	}
}

func isQuitKey(ev *tcell.EventKey) bool {
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return true
	case tcell.KeyRune:
		return ev.Rune() == 'q' || ev.Rune() == 'Q'
	}
	return false
}

func (h *Host) handleResize(screen tcell.Screen) {
	screen.Sync()
	cols, rows := screen.Size()
	h.mu.Lock()
	changed := cols != h.cols || rows != h.rows
	h.cols, h.rows = cols, rows
	h.mu.Unlock()
	if changed {
		h.listeners.Notify()
	}
}

func (h *Host) draw(screen tcell.Screen) {
	h.mu.Lock()
	cols, rows, surface := h.cols, h.rows, h.surface
	if h.canvas == nil || h.canvas.Bounds().Dx() != cols || h.canvas.Bounds().Dy() != rows*2 {
		h.canvas = image.NewRGBA(image.Rect(0, 0, cols, rows*2))
	}
	canvas := h.canvas
	h.mu.Unlock()

	h.Presenter.Render(canvas, surface)
	paintCells(screen, canvas, cols, rows)
	screen.Show()
}

// paintCells puts pixel row 2y in the foreground and 2y+1 in the background
// of cell row y.
func paintCells(screen tcell.Screen, canvas *image.RGBA, cols, rows int) {
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			top := canvas.RGBAAt(x, 2*y)
			bottom := canvas.RGBAAt(x, 2*y+1)
			style := tcell.StyleDefault.
				Foreground(tcell.NewRGBColor(int32(top.R), int32(top.G), int32(top.B))).
				Background(tcell.NewRGBColor(int32(bottom.R), int32(bottom.G), int32(bottom.B)))
			screen.SetContent(x, y, halfBlock, nil, style)
		}
	}
}
