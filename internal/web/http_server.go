package web

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Logger is the subset of the app logger used here.
type Logger interface {
	Errorf(component, format string, args ...any)
}

type HTTPServer struct {
	Addr string

	// DevMode wraps the handler with permissive CORS.
	DevMode bool

	// Deps feeds the /api/v1 handlers.
	Deps APIV1Deps

	// StaticDir, when set to an existing directory, is served at "/"
	// instead of the built-in preview page.
	StaticDir string

	// ExtraRoutes registers additional handlers, e.g. simulator controls.
	ExtraRoutes func(mux *http.ServeMux)

	Logger Logger

	mu     sync.Mutex
	srv    *http.Server
	ln     net.Listener
	closed bool
}

func NewHTTPServer(cfg ServerConfig, deps APIV1Deps) *HTTPServer {
	return &HTTPServer{Addr: cfg.ListenAddr, DevMode: cfg.DevMode, Deps: deps}
}

// Handler returns the full handler the server would serve.
func (s *HTTPServer) Handler() http.Handler {
	var mux *http.ServeMux
	if s.StaticDir != "" {
		mux = http.NewServeMux()
		RegisterAPIV1(mux, s.Deps)
		mux.Handle("/", s.staticHandler())
	} else {
		mux = NewDefaultMux(s.Deps)
	}
	if s.ExtraRoutes != nil {
		s.ExtraRoutes(mux)
	}

	var h http.Handler = mux
	if s.DevMode {
		h = WithDevCORS(h)
	}
	return h
}

// BoundAddr returns the bound address once started, which differs from
// s.Addr when listening on port 0.
func (s *HTTPServer) BoundAddr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return ""
	}
	return s.ln.Addr().String()
}

func (s *HTTPServer) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return errors.New("web server already stopped")
	}
	if s.srv != nil {
		return nil
	}

	addr := s.Addr
	if addr == "" {
		addr = ":8080"
	}

	s.srv = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		s.srv = nil
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	s.ln = ln

	go func() {
		<-ctx.Done()
		_ = s.Stop()
	}()

	srv := s.srv
	go func() {
		err := srv.Serve(ln)
		if err == nil || errors.Is(err, http.ErrServerClosed) {
			return
		}
		if s.Logger != nil {
			s.Logger.Errorf("web", "serve %s: %v", addr, err)
		}
	}()

	return nil
}

func (s *HTTPServer) Stop() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	srv := s.srv
	ln := s.ln
	s.srv = nil
	s.mu.Unlock()

	if ln != nil {
		_ = ln.Close()
	}
	if srv == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}

func (s *HTTPServer) staticHandler() http.Handler {
	dir := s.StaticDir
	if st, err := os.Stat(dir); err != nil || !st.IsDir() {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.NotFound(w, r)
		})
	}

	fileServer := http.FileServer(http.Dir(dir))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.URL.Path = filepath.ToSlash(filepath.Clean("/" + r.URL.Path))
		fileServer.ServeHTTP(w, r)
	})
}
