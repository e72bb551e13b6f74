package state

import "sync"

type Phase int

const (
	BOOTING Phase = iota
	RUNNING
	FAILED
	STOPPED
)

func (p Phase) String() string {
	switch p {
	case BOOTING:
		return "booting"
	case RUNNING:
		return "running"
	case FAILED:
		return "failed"
	case STOPPED:
		return "stopped"
	default:
		return "unknown"
	}
}

type ViewportInfo struct {
	Width      float64
	Height     float64
	PixelRatio float64
}

type State struct {
	Phase    Phase
	Viewport ViewportInfo
	Beams    int
	Frames   uint64
	Err      string
}

type Store struct {
	mu    sync.RWMutex
	state State
}

func NewStore() *Store {
	return &Store{state: State{Phase: BOOTING}}
}

func (store *Store) Snapshot() State {
	store.mu.RLock()
	defer store.mu.RUnlock()
	return store.state
}

func (store *Store) SetPhase(phase Phase) {
	store.mu.Lock()
	store.state.Phase = phase
	store.mu.Unlock()
}

// Fail moves the store to FAILED and records err.
func (store *Store) Fail(err error) {
	store.mu.Lock()
	store.state.Phase = FAILED
	if err != nil {
		store.state.Err = err.Error()
	}
	store.mu.Unlock()
}

// UpdateFrame records the latest frame statistics.
func (store *Store) UpdateFrame(frames uint64, beams int, viewport ViewportInfo) {
	store.mu.Lock()
	store.state.Frames = frames
	store.state.Beams = beams
	store.state.Viewport = viewport
	store.mu.Unlock()
}
