package state

import (
	"errors"
	"sync"
	"testing"
)

func TestStoreLifecycle(t *testing.T) {
	store := NewStore()
	if got := store.Snapshot().Phase; got != BOOTING {
		t.Fatalf("Expected BOOTING, got %v", got)
	}

	store.SetPhase(RUNNING)
	store.UpdateFrame(42, 12, ViewportInfo{Width: 800, Height: 600, PixelRatio: 2})
	snap := store.Snapshot()
	if snap.Phase != RUNNING || snap.Frames != 42 || snap.Beams != 12 || snap.Viewport.PixelRatio != 2 {
		t.Errorf("Expected running frame 42 with 12 beams at 2x, got %+v", snap)
	}

	store.Fail(errors.New("no context"))
	snap = store.Snapshot()
	if snap.Phase != FAILED || snap.Err != "no context" {
		t.Errorf("Expected FAILED with error, got %+v", snap)
	}
}

func TestPhaseString(t *testing.T) {
	tests := []struct {
		phase Phase
		want  string
	}{
		{BOOTING, "booting"},
		{RUNNING, "running"},
		{FAILED, "failed"},
		{STOPPED, "stopped"},
		{Phase(99), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.phase.String(); got != tt.want {
			t.Errorf("Expected %q, got %q", tt.want, got)
		}
	}
}

func TestStoreConcurrentAccess(t *testing.T) {
	store := NewStore()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				store.UpdateFrame(uint64(n*100+j), 12, ViewportInfo{})
			}
		}(i)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_ = store.Snapshot()
			}
		}()
	}
	wg.Wait()
	if store.Snapshot().Beams != 12 {
		t.Errorf("Expected 12 beams after concurrent updates, got %d", store.Snapshot().Beams)
	}
}
