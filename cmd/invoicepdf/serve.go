package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/alnah/invoicepdf"
)

// Server defaults applied when the config leaves them empty.
const (
	defaultReadTimeout     = 10 * time.Second
	defaultWriteTimeout    = 60 * time.Second
	defaultShutdownTimeout = 15 * time.Second
	defaultHealthInterval  = 30 * time.Second
)

// runServe starts the HTTP service and blocks until ctx is cancelled.
func runServe(ctx context.Context, args []string, env *Environment) error {
	flags, err := parseServeFlags(args, env.Stderr)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(flags.common.config, env)
	if err != nil {
		return err
	}
	applyCommonFlags(&flags.common, cfg)
	applyBrowserFlags(&flags.browser, cfg)
	if flags.addr != "" {
		cfg.Server.Addr = flags.addr
	}
	if flags.storeAddr != "" {
		cfg.Store.Addr = flags.storeAddr
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := newLogger(cfg, env)
	if err != nil {
		return err
	}
	gin.SetMode(gin.ReleaseMode)

	biz, err := businessProfile(cfg)
	if err != nil {
		return err
	}

	opts := rendererOptions(cfg, logger)
	st, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	if st != nil {
		defer func() { _ = st.Close() }()
		opts = append(opts, invoicepdf.WithStore(st, cfg.Store.TTL.Or(0)))
		logger.Info().Str("addr", cfg.Store.Addr).Msg("shared cache enabled")
	}

	r, err := invoicepdf.NewRenderer(opts...)
	if err != nil {
		return err
	}
	defer func() {
		if err := r.Close(); err != nil {
			logger.Warn().Err(err).Msg("closing renderer")
		}
	}()

	if !flags.noWarmup {
		// A failed warmup is retried by the first request.
		if err := r.Warmup(ctx); err != nil {
			logger.Warn().Err(err).Msg("warmup failed")
		}
	}
	r.StartHealthCheck(ctx, cfg.Browser.HealthInterval.Or(defaultHealthInterval))

	srv := &http.Server{
		Addr: cfg.Server.Addr,
		Handler: newRouter(&server{
			svc:          r,
			business:     biz,
			logger:       logger,
			maxBodyBytes: cfg.Server.MaxBodyBytes,
		}),
		ReadHeaderTimeout: cfg.Server.ReadTimeout.Or(defaultReadTimeout),
		ReadTimeout:       cfg.Server.ReadTimeout.Or(defaultReadTimeout),
		WriteTimeout:      cfg.Server.WriteTimeout.Or(defaultWriteTimeout),
	}

	return serveUntilDone(ctx, srv, cfg.Server.ShutdownTimeout.Or(defaultShutdownTimeout), logger)
}

// serveUntilDone runs srv until ctx ends, then drains in-flight requests.
func serveUntilDone(ctx context.Context, srv *http.Server, shutdownTimeout time.Duration, logger zerolog.Logger) error {
	ln, err := net.Listen("tcp", srv.Addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", srv.Addr, err)
	}
	logger.Info().Str("addr", ln.Addr().String()).Str("version", Version).Msg("listening")

	errc := make(chan error, 1)
	go func() {
		errc <- srv.Serve(ln)
	}()

	select {
	case err := <-errc:
		return fmt.Errorf("serving on %s: %w", srv.Addr, err)
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
