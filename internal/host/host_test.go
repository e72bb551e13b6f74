package host

import (
	"image"
	"image/color"
	"testing"
)

func TestFrameQueueDrainOrderAndDeferral(t *testing.T) {
	var q FrameQueue
	var order []int

	q.Request(func() { order = append(order, 1) })
	q.Request(func() {
		order = append(order, 2)
		// Requested during a drain: runs on the next one.
		q.Request(func() { order = append(order, 3) })
	})

	if ran := q.Drain(); ran != 2 {
		t.Fatalf("Expected 2 callbacks on first drain, got %d", ran)
	}
	if len(order) != 2 || order[0] != 1 || order[1] != 2 {
		t.Fatalf("Expected order [1 2], got %v", order)
	}
	if q.Pending() != 1 {
		t.Fatalf("Expected 1 deferred callback, got %d", q.Pending())
	}
	if ran := q.Drain(); ran != 1 || order[2] != 3 {
		t.Errorf("Expected deferred callback on second drain, got ran=%d order=%v", ran, order)
	}
}

func TestFrameQueueCancel(t *testing.T) {
	var q FrameQueue
	called := false
	h := q.Request(func() { called = true })
	if h == 0 {
		t.Fatal("Expected a non-zero handle")
	}
	q.Cancel(h)
	q.Cancel(h)

	if ran := q.Drain(); ran != 0 || called {
		t.Errorf("Expected cancelled callback not to run, got ran=%d called=%v", ran, called)
	}
}

func TestFrameQueueCancelDuringDrain(t *testing.T) {
	var q FrameQueue
	var second FrameHandle
	calledSecond := false
	q.Request(func() { q.Cancel(second) })
	second = q.Request(func() { calledSecond = true })

	q.Drain()
	if calledSecond {
		t.Error("Expected a callback cancelled mid-drain not to run")
	}
}

func TestListeners(t *testing.T) {
	var l Listeners
	var calls []string
	removeA := l.Add(func() { calls = append(calls, "a") })
	l.Add(func() { calls = append(calls, "b") })

	l.Notify()
	removeA()
	removeA()
	l.Notify()

	want := []string{"a", "b", "b"}
	if len(calls) != len(want) {
		t.Fatalf("Expected calls %v, got %v", want, calls)
	}
	for i := range want {
		if calls[i] != want[i] {
			t.Errorf("Expected calls %v, got %v", want, calls)
			break
		}
	}
	if l.Len() != 1 {
		t.Errorf("Expected 1 listener left, got %d", l.Len())
	}
}

func TestViewportPixelSize(t *testing.T) {
	tests := []struct {
		name  string
		v     Viewport
		wantW int
		wantH int
	}{
		{"Unit ratio", Viewport{Width: 800, Height: 600, PixelRatio: 1}, 800, 600},
		{"Retina", Viewport{Width: 800, Height: 600, PixelRatio: 2}, 1600, 1200},
		{"Missing ratio", Viewport{Width: 640, Height: 480}, 640, 480},
		{"Fractional", Viewport{Width: 101, Height: 51, PixelRatio: 1.5}, 152, 77},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, h := tt.v.PixelSize()
			if w != tt.wantW || h != tt.wantH {
				t.Errorf("Expected %dx%d, got %dx%d", tt.wantW, tt.wantH, w, h)
			}
		})
	}
}

func TestComposePaintsBackdropUnderFrame(t *testing.T) {
	dst := image.NewRGBA(image.Rect(0, 0, 4, 4))
	frame := image.NewRGBA(image.Rect(0, 0, 4, 4))
	frame.SetRGBA(1, 1, color.RGBA{R: 255, A: 255})

	Compose(dst, frame)

	if got := dst.RGBAAt(0, 0); got != Backdrop {
		t.Errorf("Expected backdrop %v, got %v", Backdrop, got)
	}
	if got := dst.RGBAAt(1, 1); got.R != 255 || got.A != 255 {
		t.Errorf("Expected opaque red frame pixel, got %v", got)
	}

	Compose(dst, nil)
	if got := dst.RGBAAt(1, 1); got != Backdrop {
		t.Errorf("Expected backdrop only without a frame, got %v", got)
	}
}
