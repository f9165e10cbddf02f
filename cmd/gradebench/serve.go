package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/chainguard-dev/clog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/bryanwahyu/gradebench/internal/infra/httpserver"
	"github.com/bryanwahyu/gradebench/internal/infra/ratelimit"
	"github.com/bryanwahyu/gradebench/internal/middleware"
)

func (c *cli) newServeCmd() *cobra.Command {
	var port int
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the verdict API over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if port == 0 {
				port = c.cfg.Server.Port
			}
			return c.serve(cmd.Context(), port)
		},
	}
	cmd.Flags().IntVar(&port, "port", 0, "listen port (default from config)")
	return cmd
}

func (c *cli) serve(ctx context.Context, port int) error {
	log := clog.FromContext(ctx)
	deps, err := newVerdictService(ctx, c.cfg)
	if err != nil {
		return err
	}
	defer deps.Close()

	checkers := map[string]middleware.HealthChecker{
		"responses": middleware.DirHealthChecker{Path: c.cfg.Pipeline.ResponsesDir},
	}
	if deps.db != nil {
		checkers["database"] = &middleware.DatabaseHealthChecker{DB: deps.db}
	}

	var limiter *ratelimit.Limiter
	if c.cfg.Server.RateLimit > 0 {
		limiter = ratelimit.PerMinute(c.cfg.Server.RateLimit)
	}

	handler := httpserver.NewRouter(deps.svc, httpserver.Options{
		LogPath:        c.cfg.Analysis.LogPath,
		ReportPath:     c.cfg.Analysis.ReportPath,
		ResponsesDir:   c.cfg.Pipeline.ResponsesDir,
		APIKeys:        c.cfg.Server.APIKeys,
		AllowedOrigins: c.cfg.Server.AllowedOrigins,
		Limiter:        limiter,
		HealthCheckers: checkers,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
		BaseContext:  func(_ net.Listener) context.Context { return ctx },
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Infof("Server listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	if limiter != nil {
		g.Go(func() error {
			limiter.Run(gctx)
			return nil
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
