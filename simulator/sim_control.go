package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"

	"github.com/rook-computer/beamfield/internal/host"
)

// viewportHost is the part of the headless host the controls drive.
type viewportHost interface {
	Viewport() host.Viewport
	QueueViewport(v host.Viewport)
}

// exiter is the app's unload hook.
type exiter interface {
	Exit(err error)
}

// SimControl exposes the signals a browser would send the animation:
// resizes and unload.
type SimControl struct {
	host     viewportHost
	app      exiter
	resizes  atomic.Int64
	unloaded atomic.Bool
}

func NewSimControl(h viewportHost, a exiter) *SimControl {
	return &SimControl{host: h, app: a}
}

type viewportRequest struct {
	Width      float64 `json:"width"`
	Height     float64 `json:"height"`
	PixelRatio float64 `json:"pixelRatio"`
}

// SetViewport queues a simulated resize. A missing pixel ratio keeps the
// current one.
func (c *SimControl) SetViewport(req viewportRequest) (host.Viewport, error) {
	if req.Width <= 0 || req.Height <= 0 {
		return host.Viewport{}, fmt.Errorf("width and height must be positive (got %gx%g)", req.Width, req.Height)
	}
	if req.PixelRatio < 0 {
		return host.Viewport{}, fmt.Errorf("pixelRatio must not be negative (got %g)", req.PixelRatio)
	}
	v := host.Viewport{Width: req.Width, Height: req.Height, PixelRatio: req.PixelRatio}
	if v.PixelRatio == 0 {
		v.PixelRatio = c.host.Viewport().PixelRatio
	}
	c.host.QueueViewport(v)
	c.resizes.Add(1)
	return v, nil
}

// Reset replays the current viewport as a resize, which regenerates every beam.
func (c *SimControl) Reset() host.Viewport {
	v := c.host.Viewport()
	c.host.QueueViewport(v)
	c.resizes.Add(1)
	return v
}

func (c *SimControl) Unload() {
	if c.unloaded.CompareAndSwap(false, true) {
		c.app.Exit(nil)
	}
}

// Register mounts the /sim/ endpoints on mux.
func (c *SimControl) Register(mux *http.ServeMux) {
	mux.HandleFunc("/sim/viewport", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			writeSimJSON(w, http.StatusOK, toResponse(c.host.Viewport()))
		case http.MethodPost:
			var req viewportRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				writeSimError(w, http.StatusBadRequest, "invalid json")
				return
			}
			v, err := c.SetViewport(req)
			if err != nil {
				writeSimError(w, http.StatusBadRequest, err.Error())
				return
			}
			writeSimJSON(w, http.StatusAccepted, toResponse(v))
		default:
			writeSimError(w, http.StatusMethodNotAllowed, "method not allowed")
		}
	})

	mux.HandleFunc("/sim/reset", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeSimError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		writeSimJSON(w, http.StatusAccepted, toResponse(c.Reset()))
	})

	mux.HandleFunc("/sim/unload", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeSimError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		c.Unload()
		writeSimJSON(w, http.StatusAccepted, map[string]any{"ok": true})
	})
}

func toResponse(v host.Viewport) viewportRequest {
	return viewportRequest{Width: v.Width, Height: v.Height, PixelRatio: v.PixelRatio}
}

func writeSimJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeSimError(w http.ResponseWriter, status int, message string) {
	writeSimJSON(w, status, map[string]any{"error": message})
}
