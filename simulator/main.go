package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rook-computer/beamfield/internal/app"
	"github.com/rook-computer/beamfield/internal/field"
	"github.com/rook-computer/beamfield/internal/host"
	"github.com/rook-computer/beamfield/internal/host/headless"
	"github.com/rook-computer/beamfield/internal/state"
	"github.com/rook-computer/beamfield/internal/web"
)

func main() {
	defaults, err := web.DefaultServerConfigFromEnv(":8080")
	if err != nil {
		fmt.Println("server config error:", err)
		os.Exit(2)
	}

	listenAddr := flag.String("listen", defaults.ListenAddr, "http listen address; also configurable via "+web.EnvListenAddr)
	devMode := flag.Bool("dev", defaults.DevMode, "enable dev mode; also configurable via "+web.EnvDevMode)
	staticDir := flag.String("static-dir", "", "serve a preview UI from this directory instead of the built-in page")
	width := flag.Float64("width", 1280, "simulated viewport width in logical units")
	height := flag.Float64("height", 720, "simulated viewport height in logical units")
	dpr := flag.Float64("dpr", 1, "simulated device pixel ratio")
	fps := flag.Int("fps", headless.DefaultFPS, "simulated refresh rate")
	seed := flag.Int64("seed", 0, "random seed, 0 for time based")
	debug := flag.Bool("debug", false, "log to stdout")
	flag.Parse()

	if *listenAddr == "" {
		fmt.Println("simulator needs a listen address")
		os.Exit(2)
	}

	var logger app.Logger = app.NoopLogger{}
	if *debug {
		logger = app.NewFileLogger(os.Stdout)
	}

	s := *seed
	if s == 0 {
		s = time.Now().UnixNano()
	}

	h := headless.New(host.Viewport{Width: *width, Height: *height, PixelRatio: *dpr})
	h.FPS = *fps
	h.Presenter = &host.Presenter{}

	store := state.NewStore()
	animator := field.New(h,
		field.WithRand(rand.New(rand.NewSource(s))),
		field.WithLogger(logger),
		field.WithFrameObserver(app.RecordStats(store)),
	)

	cfg := web.ServerConfig{ListenAddr: *listenAddr, DevMode: *devMode}
	server := web.NewHTTPServer(cfg, web.APIV1Deps{
		Status:     store,
		Frame:      h.Presenter.Latest,
		PreviewURL: web.PreviewURL(cfg.ListenAddr, ""),
	})
	server.StaticDir = *staticDir
	server.Logger = logger

	a := app.New(store, h, animator, server)
	a.Logger = logger
	control := NewSimControl(h, a)
	server.ExtraRoutes = control.Register

	processCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Println("Beamfield simulator listening on", cfg.ListenAddr)
	fmt.Printf("Viewport: %.0fx%.0f @%gx, seed %d\n", *width, *height, *dpr, s)
	fmt.Println("Preview:", web.PreviewURL(cfg.ListenAddr, ""))

	if err := a.Start(processCtx); err != nil {
		fmt.Println("simulator error:", err)
		os.Exit(1)
	}
}
