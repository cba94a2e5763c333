package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	phttp "github.com/Strob0t/professor/internal/adapter/http"
	"github.com/Strob0t/professor/internal/config"
	"github.com/Strob0t/professor/internal/logger"
	"github.com/Strob0t/professor/internal/port/messagequeue"
)

const shutdownTimeout = 15 * time.Second

func newServeCmd(g *globalFlags) *cobra.Command {
	var port string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the research API server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, g, func(f *config.CLIFlags) {
				if cmd.Flags().Changed("port") {
					f.Port = &port
				}
			})
			if err != nil {
				return fmt.Errorf("config: %w", err)
			}
			return serve(cmd.Context(), cfg)
		},
	}
	cmd.Flags().StringVarP(&port, "port", "p", "", "HTTP listen port")
	return cmd
}

func serve(parent context.Context, cfg *config.Config) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log, closeLog := logger.New(cfg.Logging)
	slog.SetDefault(log)
	defer closeLog.Close()

	slog.Info("config loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Logging.Level,
		"context_budget", cfg.Research.ContextBudget,
		"max_concurrent", cfg.Research.MaxConcurrent,
		"nats", cfg.NATS.URL != "",
		"otel", cfg.OTEL.Endpoint != "",
	)
	for _, w := range cfg.Warnings() {
		slog.Warn(w)
	}

	a, err := buildApp(ctx, cfg, nil)
	if err != nil {
		return err
	}
	defer a.close()

	// --- Background work ---
	sweepCtx, stopSweep := context.WithCancel(ctx)
	defer stopSweep()
	a.registry.StartSweeper(sweepCtx, cfg.Research.SweepInterval, cfg.Research.Retention)

	if a.queue != nil {
		cancelIntake, err := a.queue.Subscribe(ctx, messagequeue.SubjectResearchRequest, a.research.HandleRequestMessage)
		if err != nil {
			return fmt.Errorf("research request subscriber: %w", err)
		}
		defer cancelIntake()
	}

	// --- HTTP ---
	routerCfg := phttp.RouterConfig{
		Handlers:    &phttp.Handlers{Research: a.research},
		CORSOrigin:  cfg.Server.CORSOrigin,
		ServiceName: cfg.OTEL.ServiceName,
		WebSocket:   a.hub.HandleWS,
		StaticDir:   cfg.Server.StaticDir,

		Idempotency:    a.idem,
		IdempotencyTTL: cfg.Research.Retention,
	}
	if a.mcp != nil {
		routerCfg.MCP = a.mcp.Handler()
	}

	addr := ":" + cfg.Server.Port
	srv := &http.Server{
		Addr:              addr,
		Handler:           phttp.NewRouter(routerCfg),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("starting server", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	}
	slog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	stopSweep()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("http shutdown", "error", err)
	}
	if err := a.pool.Shutdown(shutdownCtx); err != nil {
		slog.Warn("research tasks still running at shutdown", "error", err)
	}
	return nil
}
