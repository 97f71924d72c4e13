package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"go.eggybyte.com/codestart/internal/catalog"
	"go.eggybyte.com/codestart/internal/envloader"
	"go.eggybyte.com/codestart/internal/errors"
	"go.eggybyte.com/codestart/internal/log"
	"go.eggybyte.com/codestart/internal/logx"
	"go.eggybyte.com/codestart/internal/obsx"
	"go.eggybyte.com/codestart/internal/server"
	"go.eggybyte.com/codestart/internal/version"
)

// Environment keys read by serve, without the CODESTART_ prefix.
const (
	envAddr      = "ADDR"
	envCacheSize = "CACHE_SIZE"
)

type serveOptions struct {
	addr            string
	cacheSize       int
	shutdownTimeout time.Duration
	metrics         bool
}

func newServeCmd(global *globalOptions) *cobra.Command {
	opts := &serveOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve project generation over HTTP",
		Long: `Serve the extension registry and project downloads over HTTP.

Endpoints:
  GET  /api/extensions   extension registry as JSON
  GET  /api/download     zip download, query g, a, v, b, l, e
  POST /api/download     zip download, JSON request body
  GET  /healthz          liveness
  GET  /metrics          Prometheus metrics (unless --metrics=false)

CODESTART_ADDR and CODESTART_CACHE_SIZE override the flag defaults.

Examples:
  codestart serve
  codestart serve --addr 127.0.0.1:9000 --cache-size 0`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := applyServeEnv(cmd, opts); err != nil {
				return err
			}
			return runServe(cmd.Context(), global, opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.addr, "addr", ":8080", "Listen address")
	f.IntVar(&opts.cacheSize, "cache-size", 256, "Archive cache entries; negative disables caching")
	f.DurationVar(&opts.shutdownTimeout, "shutdown-timeout", 15*time.Second, "Graceful shutdown bound")
	f.BoolVar(&opts.metrics, "metrics", true, "Expose Prometheus metrics on /metrics")
	return cmd
}

// applyServeEnv fills unchanged flags from CODESTART_* variables.
func applyServeEnv(cmd *cobra.Command, opts *serveOptions) error {
	env := envloader.Prefixed(os.Environ(), envloader.Prefix)
	if v, ok := env[envAddr]; ok && !cmd.Flags().Changed("addr") {
		opts.addr = v
	}
	if v, ok := env[envCacheSize]; ok && !cmd.Flags().Changed("cache-size") {
		n, err := strconv.Atoi(v)
		if err != nil {
			return errors.Build(errors.CodeInvalidRequest).
				WithOp("cli.serve").
				WithErr(err).
				WithMsgf("%s%s must be an integer", envloader.Prefix, envCacheSize).
				WithDetail("value", v).
				Err()
		}
		if n == 0 {
			n = -1
		}
		opts.cacheSize = n
	}
	if cmd.Flags().Changed("cache-size") && opts.cacheSize == 0 {
		opts.cacheSize = -1
	}
	return nil
}

// runServe runs the HTTP server until SIGINT or SIGTERM.
//
// Parameters:
//   - parent: Command context, may be nil
//   - global: Persistent flags
//   - opts: Serve flags
//
// Returns:
//   - error: Listen, metrics setup or shutdown failure
//
// Concurrency:
//   - Blocks until the signal context is canceled
//
// Performance:
//   - One catalog shared by all requests
func runServe(parent context.Context, global *globalOptions, opts *serveOptions) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Request logs are the server's normal output.
	logger := newLoggerAt(global, slog.LevelInfo, logx.WithTimestamp(true))
	errorLog := slog.NewLogLogger(logx.NewSlog(logOptions(global, slog.LevelInfo, logx.WithTimestamp(true))...).Handler(), slog.LevelWarn)

	cat, err := catalog.Default()
	if err != nil {
		return err
	}

	var provider *obsx.Provider
	if opts.metrics {
		provider, err = obsx.NewProvider(ctx, obsx.Options{
			ServiceName:    "codestart",
			ServiceVersion: version.Version,
		})
		if err != nil {
			return errors.Wrap(errors.CodeInternal, "cli.serve", err)
		}
		defer func() {
			if err := provider.Shutdown(context.Background()); err != nil {
				logger.Error(err, "failed to shutdown metrics provider")
			}
		}()
		if err := provider.EnableRuntimeMetrics(ctx); err != nil {
			return errors.Wrap(errors.CodeInternal, "cli.serve", err)
		}
	}

	srv, err := server.New(cat, server.Options{
		Addr:            opts.addr,
		CacheSize:       opts.cacheSize,
		ShutdownTimeout: opts.shutdownTimeout,
		Logger:          logger,
		ErrorLog:        errorLog,
		Metrics:         provider,
	})
	if err != nil {
		return errors.Wrap(errors.CodeInternal, "cli.serve", err)
	}

	logger.Info("starting codestart server", log.Str("version", version.Version), log.Str("addr", opts.addr))
	return srv.Run(ctx)
}
