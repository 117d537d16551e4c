// Package server assembles the news helper HTTP application and runs it.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/news-helper/internal/api"
	"github.com/JakeFAU/news-helper/internal/auth"
	"github.com/JakeFAU/news-helper/internal/config"
	"github.com/JakeFAU/news-helper/internal/id/uuid"
	"github.com/JakeFAU/news-helper/internal/web"
)

// Mode selects which surfaces an App serves.
type Mode int

const (
	// ModeAll serves the API and, when enabled in config, the web frontend.
	ModeAll Mode = iota
	// ModeWeb serves only the web frontend against a remote API base.
	ModeWeb
)

// App contains the application's dependencies.
type App struct {
	cfg     config.Config
	logger  *zap.Logger
	handler http.Handler
}

// NewApp creates a new App with the given configuration.
func NewApp(cfg config.Config, mode Mode, logger *zap.Logger) (*App, error) {
	allow := auth.ParseAllowList(cfg.Auth.AllowedKeys)
	if mode == ModeAll && allow.Len() == 0 {
		logger.Warn("no API keys configured; every analyze request will be rejected")
	}

	var opts []api.Option
	withFrontend := mode == ModeWeb || cfg.Web.Enabled
	if withFrontend {
		frontend := web.NewHandler(
			web.Config{APIBase: cfg.Web.APIBase, Origin: cfg.LocalOrigin(), DefaultLang: cfg.Web.DefaultLang},
			logger.Named("web"),
			web.WithHTTPClient(&http.Client{Timeout: cfg.WebTimeout()}),
		)
		opts = append(opts, api.WithFrontend(frontend))
	}
	if mode == ModeWeb {
		opts = append(opts, api.FrontendOnly())
		if u, err := url.Parse(cfg.Web.APIBase); err != nil || !u.IsAbs() {
			logger.Warn("web-only mode with a relative API base; submissions go to this server's own listener",
				zap.String("api_base", cfg.Web.APIBase))
		}
	}

	logger.Info("creating application",
		zap.String("addr", cfg.Addr()),
		zap.Int("allowed_keys", allow.Len()),
		zap.Bool("frontend", withFrontend),
		zap.Bool("api", mode == ModeAll),
	)
	apiServer := api.NewServer(cfg, allow, uuid.New(), logger.Named("api"), opts...)
	return &App{
		cfg:     cfg,
		logger:  logger,
		handler: apiServer.Handler(),
	}, nil
}

// Handler exposes the composed router, mainly for tests.
func (a *App) Handler() http.Handler {
	return a.handler
}

// Listen binds the configured address. Callers treat an error as fatal.
func (a *App) Listen() (net.Listener, error) {
	ln, err := net.Listen("tcp", a.cfg.Addr())
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", a.cfg.Addr(), err)
	}
	return ln, nil
}

// Serve handles requests on ln until ctx is canceled, then drains in-flight
// requests for up to the configured shutdown timeout.
func (a *App) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           a.handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("http server started", zap.String("addr", ln.Addr().String()))
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}
	a.logger.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout())
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	<-errCh
	a.logger.Info("shutdown complete")
	return nil
}

// Run binds and serves until ctx is canceled.
func (a *App) Run(ctx context.Context) error {
	ln, err := a.Listen()
	if err != nil {
		return err
	}
	return a.Serve(ctx, ln)
}
