package web

import (
	"bytes"
	"encoding/json"
	"image"
	"image/png"
	"net/http"
	"strconv"

	"github.com/rook-computer/beamfield/internal/render/overlay"
	"github.com/rook-computer/beamfield/internal/state"
)

const (
	defaultQRSizePx = 256
	maxQRSizePx     = 2048
)

type apiError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

type viewportResponse struct {
	Width      float64 `json:"width"`
	Height     float64 `json:"height"`
	PixelRatio float64 `json:"pixelRatio"`
}

type statusResponse struct {
	Phase    string           `json:"phase"`
	Viewport viewportResponse `json:"viewport"`
	Beams    int              `json:"beams"`
	Frames   uint64           `json:"frames"`
	Error    string           `json:"error,omitempty"`
}

// StatusSource is typically a *state.Store.
type StatusSource interface {
	Snapshot() state.State
}

type APIV1Deps struct {
	Status StatusSource
	// Frame returns the latest composed frame, or nil while there is none.
	Frame func() *image.RGBA
	// PreviewURL is encoded by /qr.png.
	PreviewURL string
}

func apiV1Router(deps APIV1Deps) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/status", func(w http.ResponseWriter, r *http.Request) { handleStatus(w, r, deps) })
	mux.HandleFunc("/frame.png", func(w http.ResponseWriter, r *http.Request) { handleFrame(w, r, deps) })
	mux.HandleFunc("/qr.png", func(w http.ResponseWriter, r *http.Request) { handleQR(w, r, deps) })
	return mux
}

func handleStatus(w http.ResponseWriter, r *http.Request, deps APIV1Deps) {
	if r.Method != http.MethodGet {
		writeAPIError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
		return
	}
	if deps.Status == nil {
		writeAPIError(w, http.StatusNotImplemented, "not_implemented", "status not configured")
		return
	}
	snap := deps.Status.Snapshot()
	writeJSON(w, http.StatusOK, statusResponse{
		Phase: snap.Phase.String(),
		Viewport: viewportResponse{
			Width:      snap.Viewport.Width,
			Height:     snap.Viewport.Height,
			PixelRatio: snap.Viewport.PixelRatio,
		},
		Beams:  snap.Beams,
		Frames: snap.Frames,
		Error:  snap.Err,
	})
}

func handleFrame(w http.ResponseWriter, r *http.Request, deps APIV1Deps) {
	if r.Method != http.MethodGet {
		writeAPIError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
		return
	}
	if deps.Frame == nil {
		writeAPIError(w, http.StatusNotImplemented, "not_implemented", "frame preview not configured")
		return
	}
	img := deps.Frame()
	if img == nil || img.Bounds().Empty() {
		writeAPIError(w, http.StatusServiceUnavailable, "no_frame", "no frame rendered yet")
		return
	}

	var buf bytes.Buffer
	enc := png.Encoder{CompressionLevel: png.BestSpeed}
	if err := enc.Encode(&buf, img); err != nil {
		writeAPIError(w, http.StatusInternalServerError, "encode_failed", err.Error())
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func handleQR(w http.ResponseWriter, r *http.Request, deps APIV1Deps) {
	if r.Method != http.MethodGet {
		writeAPIError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
		return
	}
	if deps.PreviewURL == "" {
		writeAPIError(w, http.StatusNotFound, "no_preview_url", "preview url not configured")
		return
	}

	size := defaultQRSizePx
	if raw := r.URL.Query().Get("size"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 || parsed > maxQRSizePx {
			writeAPIError(w, http.StatusBadRequest, "invalid_size", "size must be between 1 and "+strconv.Itoa(maxQRSizePx))
			return
		}
		size = parsed
	}

	data, err := overlay.GenerateQRCodePNG(deps.PreviewURL, size)
	if err != nil {
		writeAPIError(w, http.StatusInternalServerError, "qr_failed", err.Error())
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeAPIError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, apiError{Error: code, Message: message})
}
