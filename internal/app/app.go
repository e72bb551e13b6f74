package app

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/rook-computer/beamfield/internal/field"
	"github.com/rook-computer/beamfield/internal/host"
	"github.com/rook-computer/beamfield/internal/state"
	"github.com/rook-computer/beamfield/internal/web"
)

// App ties one beam field to its host, the preview server and the state
// store for the lifetime of the process.
type App struct {
	Store    *state.Store
	Host     host.Host
	Animator *field.Animator
	Web      web.Server
	Logger   Logger

	exitOnce atomic.Bool
	exitCh   chan error
}

func New(store *state.Store, h host.Host, animator *field.Animator, webServer web.Server) *App {
	return &App{Store: store, Host: h, Animator: animator, Web: webServer, Logger: NoopLogger{}, exitCh: make(chan error, 1)}
}

// RecordStats returns a frame observer that publishes animator stats to store.
func RecordStats(store *state.Store) func(field.Stats) {
	return func(s field.Stats) {
		store.UpdateFrame(s.Frame, s.Beams, state.ViewportInfo{
			Width:      s.Viewport.Width,
			Height:     s.Viewport.Height,
			PixelRatio: s.Viewport.PixelRatio,
		})
	}
}

// Exit requests the app to stop running. This is the unload signal for
// hosts that have none of their own.
func (app *App) Exit(err error) {
	if app.exitCh == nil {
		return
	}
	if !app.exitOnce.CompareAndSwap(false, true) {
		return
	}
	select {
	case app.exitCh <- err:
	default:
	}
}

// Start runs the host loop on the calling goroutine, which some hosts
// require to be the main goroutine, and initializes the animator beside it.
// It returns once the host stops, ctx ends, Exit is called or
// initialization fails. The animator is torn down before returning.
func (app *App) Start(ctx context.Context) error {
	if app.exitCh == nil {
		app.exitCh = make(chan error, 1)
	}
	if app.Logger == nil {
		app.Logger = NoopLogger{}
	}
	if app.Web == nil {
		app.Web = web.NoopServer{}
	}
	app.exitOnce.Store(false)
	app.Store.SetPhase(state.BOOTING)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := app.Web.Start(runCtx); err != nil {
		app.Logger.Errorf("web", "preview server start failed: %v", err)
	}
	defer func() {
		if err := app.Web.Stop(); err != nil {
			app.Logger.Errorf("web", "preview server stop failed: %v", err)
		}
	}()

	initDone := make(chan error, 1)
	go func() {
		err := app.Animator.Initialize(runCtx)
		switch {
		case err == nil:
			app.Store.SetPhase(state.RUNNING)
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			err = nil
		default:
			app.Store.Fail(err)
			app.Logger.Errorf("app", "initialize failed: %v", err)
			cancel()
		}
		initDone <- err
	}()

	var exitErr error
	exitDone := make(chan struct{})
	go func() {
		defer close(exitDone)
		select {
		case <-runCtx.Done():
		case exitErr = <-app.exitCh:
			app.Logger.Infof("app", "exit requested")
			cancel()
		}
	}()

	runErr := app.Host.Run(runCtx)
	cancel()
	initErr := <-initDone
	<-exitDone

	app.Animator.Teardown()
	if app.Store.Snapshot().Phase != state.FAILED {
		app.Store.SetPhase(state.STOPPED)
	}
	if runErr != nil {
		app.Logger.Errorf("app", "host stopped with error: %v", runErr)
	}

	switch {
	case initErr != nil:
		return initErr
	case runErr != nil:
		return runErr
	default:
		return exitErr
	}
}
