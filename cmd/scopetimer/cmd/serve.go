package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/psantana5/scopetimer/internal/ratelimit"
	"github.com/psantana5/scopetimer/internal/report"
	"github.com/psantana5/scopetimer/internal/server"
	"github.com/psantana5/scopetimer/internal/shutdown"
	"github.com/psantana5/scopetimer/internal/tracing"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the formatter and metrics over HTTP",
	Long: `Serve exposes:
  GET /health                     liveness check
  GET /metrics                    Prometheus metrics
  GET /v1/format?seconds=&mode=   format a duration as JSON`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", "", "listen address (default localhost:9095)")
	serveCmd.Flags().Float64("rate-limit", 0, "requests per second per client, 0 for unlimited")
	serveCmd.Flags().Int("burst", 0, "rate limit burst size")
	serveCmd.Flags().String("otlp-endpoint", "", "export request spans to this OTLP/HTTP endpoint")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdowns := shutdown.New(10*time.Second, logger)
	defer shutdowns.Shutdown()

	provider, err := tracing.InitTracer(ctx, cfg.Tracing, logger)
	if err != nil {
		return err
	}
	shutdowns.Register("tracer", provider.Shutdown)

	limiter := ratelimit.NewLimiter(cfg.Serve.RateLimit, cfg.Serve.Burst)
	go cleanupLimiters(ctx, limiter)

	srv := server.New(report.Global(), limiter, logger)
	if cfg.Tracing.Enabled {
		srv.SetTracer(provider.Tracer())
	}
	httpServer := &http.Server{
		Addr:         cfg.Serve.Addr,
		ReadTimeout:  cfg.Serve.ReadTimeout,
		WriteTimeout: cfg.Serve.WriteTimeout,
	}

	logger.Info("Starting HTTP server", map[string]interface{}{
		"addr":       cfg.Serve.Addr,
		"rate_limit": cfg.Serve.RateLimit,
		"burst":      cfg.Serve.Burst,
	})

	if err := srv.ListenAndServe(ctx, httpServer); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	logger.Info("HTTP server stopped")
	return nil
}

func cleanupLimiters(ctx context.Context, limiter *ratelimit.Limiter) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := limiter.CleanupOldLimiters(10 * time.Minute); removed > 0 {
				logger.Debug("Removed idle rate limiters", map[string]interface{}{"count": removed})
			}
		}
	}
}
