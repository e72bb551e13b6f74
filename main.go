package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rook-computer/beamfield/internal/app"
	"github.com/rook-computer/beamfield/internal/field"
	"github.com/rook-computer/beamfield/internal/host"
	"github.com/rook-computer/beamfield/internal/host/fbhost"
	"github.com/rook-computer/beamfield/internal/host/termhost"
	"github.com/rook-computer/beamfield/internal/host/window"
	"github.com/rook-computer/beamfield/internal/render/overlay"
	"github.com/rook-computer/beamfield/internal/state"
	"github.com/rook-computer/beamfield/internal/web"
)

const (
	envHost     = "BEAMFIELD_HOST"
	envStdioLog = "BEAMFIELD_STDIO_LOG"
)

func main() {
	serverCfg, err := web.DefaultServerConfigFromEnv("")
	if err != nil {
		fmt.Fprintln(os.Stderr, "config error:", err)
		os.Exit(2)
	}
	defaultHost := os.Getenv(envHost)
	if defaultHost == "" {
		defaultHost = "fb"
	}

	// Flags
	hostKind := flag.String("host", defaultHost, "output to drive: fb, window or term; also configurable via "+envHost)
	listen := flag.String("listen", serverCfg.ListenAddr, "preview server listen address, empty to disable; also configurable via "+web.EnvListenAddr)
	dev := flag.Bool("dev", serverCfg.DevMode, "enable permissive CORS on the preview server")
	advertise := flag.String("advertise", "", "hostname to put in the preview URL when listening on all interfaces")
	fps := flag.Int("fps", 0, "refresh rate, 0 for the host default")
	dpr := flag.Float64("dpr", 0, "device pixel ratio override, 0 for the host default")
	caption := flag.String("caption", "", "caption drawn along the bottom edge")
	captionFont := flag.String("font", "", "TrueType/OpenType font file for the caption; bundled Go Regular when empty")
	showQR := flag.Bool("qr", false, "draw a QR code of the preview URL in the corner")
	debug := flag.Bool("debug", false, "enable debug logging to ./beamfield-debug.log")
	stdioLog := flag.String("stdio-log", "", "redirect stdout+stderr (including panics) to this file; also configurable via "+envStdioLog)
	fbDevice := flag.String("fbdev", fbhost.DefaultDevice, "framebuffer device for -host fb")
	keepConsole := flag.Bool("keep-console", false, "leave the virtual terminal in text mode for -host fb")
	flag.Parse()

	// Best-effort: a framebuffer run leaves the console in graphics mode, so
	// crashes are only visible in the file.
	logPath := *stdioLog
	if logPath == "" {
		logPath = os.Getenv(envStdioLog)
	}
	if logPath != "" {
		if err := redirectStdIO(logPath); err != nil {
			fmt.Fprintln(os.Stderr, "stdio log redirect error:", err)
		}
	}

	var logger app.Logger = app.NoopLogger{}
	if *debug {
		f, err := os.OpenFile("./beamfield-debug.log", os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err == nil {
			defer f.Close()
			logger = app.NewFileLogger(f)
			logger.Infof("main", "debug logging enabled")
		} else {
			fmt.Fprintln(os.Stderr, "debug log open error:", err)
		}
	}

	serverCfg.ListenAddr = strings.TrimSpace(*listen)
	serverCfg.DevMode = *dev
	previewURL := web.PreviewURL(serverCfg.ListenAddr, *advertise)

	presenter := &host.Presenter{Overlay: &overlay.Overlay{Caption: *caption, FontFile: *captionFont, Logger: logger}}
	if *showQR {
		if previewURL == "" {
			logger.Errorf("main", "-qr needs -listen; no QR code drawn")
		}
		presenter.Overlay.QRPayload = previewURL
	}

	h, err := newHost(*hostKind, hostOptions{
		fps:         *fps,
		dpr:         *dpr,
		fbDevice:    *fbDevice,
		keepConsole: *keepConsole,
		presenter:   presenter,
		logger:      logger,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	store := state.NewStore()
	animator := field.New(h,
		field.WithLogger(logger),
		field.WithFrameObserver(app.RecordStats(store)),
	)

	var server web.Server = web.NoopServer{}
	if serverCfg.Enabled() {
		srv := web.NewHTTPServer(serverCfg, web.APIV1Deps{
			Status:     store,
			Frame:      presenter.Latest,
			PreviewURL: previewURL,
		})
		srv.Logger = logger
		server = srv
		logger.Infof("main", "preview server at %s", previewURL)
	}

	a := app.New(store, h, animator, server)
	a.Logger = logger

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.Start(ctx); err != nil {
		if errors.Is(err, field.ErrUnsupportedRenderingContext) {
			fmt.Fprintln(os.Stderr, "beamfield: no drawing context:", err)
		} else {
			fmt.Fprintln(os.Stderr, "beamfield:", err)
		}
		os.Exit(1)
	}
}

type hostOptions struct {
	fps         int
	dpr         float64
	fbDevice    string
	keepConsole bool
	presenter   *host.Presenter
	logger      app.Logger
}

func newHost(kind string, opts hostOptions) (host.Host, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "fb", "framebuffer":
		h := fbhost.New(opts.fbDevice)
		if opts.dpr > 0 {
			h.PixelRatio = opts.dpr
		}
		h.FPS = opts.fps
		h.KeepConsole = opts.keepConsole
		h.Presenter = opts.presenter
		h.Logger = opts.logger
		return h, nil
	case "window":
		h := window.New()
		h.PixelRatio = opts.dpr
		h.FPS = opts.fps
		h.Presenter = opts.presenter
		h.Logger = opts.logger
		return h, nil
	case "term", "terminal":
		h := termhost.New()
		h.FPS = opts.fps
		h.Presenter = opts.presenter
		h.Logger = opts.logger
		return h, nil
	default:
		return nil, fmt.Errorf("unknown host %q (want fb, window or term)", kind)
	}
}
