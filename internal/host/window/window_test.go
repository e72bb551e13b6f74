package window

import (
	"errors"
	"testing"

	"github.com/rook-computer/beamfield/internal/host"
)

func TestResizeMarksReadyOnce(t *testing.T) {
	h := New()
	notified := 0
	h.AddResizeListener(func() { notified++ })

	h.resize(host.Viewport{Width: 960, Height: 600, PixelRatio: 1})
	select {
	case <-h.Ready():
	default:
		t.Fatal("Expected first layout to mark the host ready")
	}
	if notified != 0 {
		t.Errorf("Expected no notification for the initial size, got %d", notified)
	}

	h.resize(host.Viewport{Width: 960, Height: 600, PixelRatio: 1})
	if notified != 0 {
		t.Errorf("Expected no notification for an unchanged size, got %d", notified)
	}

	h.resize(host.Viewport{Width: 1280, Height: 720, PixelRatio: 2})
	if notified != 1 {
		t.Errorf("Expected 1 notification after a size change, got %d", notified)
	}
	if got := h.Viewport(); got.Width != 1280 || got.PixelRatio != 2 {
		t.Errorf("Expected 1280 wide at ratio 2, got %+v", got)
	}
}

func TestScaleFactorOverride(t *testing.T) {
	h := New()
	h.PixelRatio = 1.5
	if got := h.scaleFactor(); got != 1.5 {
		t.Errorf("Expected override 1.5, got %v", got)
	}
}

func TestInsertSurfaceAfterStop(t *testing.T) {
	h := New()
	s1, err := h.InsertSurface()
	if err != nil {
		t.Fatalf("Expected surface, got error: %v", err)
	}
	s2, _ := h.InsertSurface()
	if s1 != s2 {
		t.Error("Expected the same surface on repeated inserts")
	}

	h.stopped = true
	if _, err := h.InsertSurface(); !errors.Is(err, host.ErrNoContext) {
		t.Errorf("Expected ErrNoContext after stop, got %v", err)
	}
}

func TestRequestAndCancelFrame(t *testing.T) {
	h := New()
	ran := false
	id := h.RequestFrame(func() { ran = true })
	h.CancelFrame(id)
	if n := h.frames.Drain(); n != 0 || ran {
		t.Errorf("Expected cancelled frame not to run, ran=%v n=%d", ran, n)
	}
}
