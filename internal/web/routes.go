package web

import (
	"net/http"
)

const indexHTML = `<!doctype html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>beamfield preview</title>
<style>
html, body { margin: 0; height: 100%; background: #0e0c12; }
img { display: block; width: 100%; height: 100%; object-fit: contain; }
</style>
</head>
<body>
<img id="frame" src="api/v1/frame.png" alt="">
<script>
const img = document.getElementById('frame');
img.onload = img.onerror = () => setTimeout(() => { img.src = 'api/v1/frame.png?t=' + Date.now(); }, 250);
</script>
</body>
</html>
`

// RegisterAPIV1 registers the preview API routes under /api/v1/.
func RegisterAPIV1(mux *http.ServeMux, deps APIV1Deps) {
	mux.Handle("/api/v1/", http.StripPrefix("/api/v1", apiV1Router(deps)))
}

// RegisterUI serves the preview page at "/".
func RegisterUI(mux *http.ServeMux) {
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(indexHTML))
	})
}

// NewDefaultMux builds the mux HTTPServer serves when no StaticDir is set:
// - /api/v1/* for the API
// - / for the preview page
func NewDefaultMux(deps APIV1Deps) *http.ServeMux {
	mux := http.NewServeMux()
	RegisterAPIV1(mux, deps)
	RegisterUI(mux)
	return mux
}
