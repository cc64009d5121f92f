package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/aretw0/studiobridge"
	"github.com/aretw0/studiobridge/internal/config"
	"github.com/aretw0/studiobridge/internal/presentation/tui"
	httpAdapter "github.com/aretw0/studiobridge/pkg/adapters/http"
	"github.com/aretw0/studiobridge/pkg/adapters/memory"
	"github.com/aretw0/studiobridge/pkg/adapters/process"
	redisAdapter "github.com/aretw0/studiobridge/pkg/adapters/redis"
	"github.com/aretw0/studiobridge/pkg/metrics"
	"github.com/aretw0/studiobridge/pkg/ports"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the bridge HTTP server",
	Long: `Starts the bridge HTTP server. When gui.command is configured the GUI host is
launched as a child process and the server stops when the window closes.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		logger, err := newLogger(cfg)
		if err != nil {
			return err
		}
		return serve(cmd.Context(), cfg, logger)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("host", "127.0.0.1", "Address to listen on")
	serveCmd.Flags().IntP("port", "p", 5000, "Port to listen on")
	serveCmd.Flags().Bool("metrics", true, "Expose Prometheus metrics on /metrics")
	serveCmd.Flags().String("store", "memory", "Submission backend: memory or redis")
	serveCmd.Flags().String("gui", "", "GUI host command to launch")
}

func openStore(ctx context.Context, cfg config.Config) (ports.SubmissionStore, func() error, error) {
	if cfg.Store.Backend != "redis" {
		return memory.NewStore(), func() error { return nil }, nil
	}
	store := redisAdapter.New(cfg.Store.Redis.Addr, cfg.Store.Redis.Password, cfg.Store.Redis.DB,
		redisAdapter.WithPrefix(cfg.Store.Redis.Prefix))
	if err := store.Ping(ctx); err != nil {
		store.Close()
		return nil, nil, fmt.Errorf("redis store unavailable: %w", err)
	}
	return store, store.Close, nil
}

func serve(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	var m *metrics.Metrics
	if cfg.Server.Metrics {
		m = metrics.New()
	}

	bridge, err := studiobridge.New(
		studiobridge.WithStore(store),
		studiobridge.WithLogger(logger),
		studiobridge.WithMetrics(m),
	)
	if err != nil {
		return err
	}

	opts := []httpAdapter.Option{
		httpAdapter.WithLogger(logger),
		httpAdapter.WithGUIState(bridge.Handle()),
	}
	if m != nil {
		opts = append(opts, httpAdapter.WithMetricsHandler(m.Handler()))
	}
	srv := &http.Server{
		Addr:    cfg.Addr(),
		Handler: httpAdapter.NewHandler(bridge.Dispatcher(), bridge.Submissions(), opts...),
	}

	// Listen before the GUI host starts so its first request finds the server.
	ln, err := net.Listen("tcp", srv.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", srv.Addr, err)
	}

	// Channel to listen for errors coming from the listener.
	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("Bridge server listening", "address", srv.Addr, "store", cfg.Store.Backend)
		serverErrors <- srv.Serve(ln)
	}()

	var host *process.Host
	var hostDone <-chan struct{}
	guiLabel := "headless (commands answer 503 until a GUI binds)"
	if cfg.GUI.Command != "" {
		host = process.NewHost(cfg.GUI.Command,
			process.WithArgs(cfg.GUI.Args...),
			process.WithEnv("STUDIOBRIDGE_API_URL="+cfg.APIURL()),
			process.WithLogger(logger),
		)
		if err := host.Start(ctx); err != nil {
			srv.Close()
			return err
		}
		hostDone = host.Done()
		guiLabel = cfg.GUI.Command

		go func() {
			if err := process.BindWhenReady(ctx, host, bridge.BindGUI); err != nil && !errors.Is(err, context.Canceled) {
				logger.Warn("GUI host never became ready", "error", err)
			}
		}()
	}

	if tui.IsTerminal(os.Stdout) {
		tui.PrintBanner(os.Stdout, cfg.APIURL(), guiLabel)
	}

	// Channel to listen for interrupt or terminate signals.
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(shutdown)

	var runErr error
	select {
	case err := <-serverErrors:
		runErr = fmt.Errorf("server error: %w", err)
	case sig := <-shutdown:
		logger.Info("Start shutdown", "signal", sig.String())
	case <-hostDone:
		logger.Info("GUI host exited, shutting down", "error", host.Err())
	case <-ctx.Done():
		logger.Info("Start shutdown", "reason", context.Cause(ctx))
	}

	// Give outstanding requests a deadline for completion.
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancelShutdown()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Graceful shutdown did not complete", "timeout", cfg.Server.ShutdownTimeout, "error", err)
		if err := srv.Close(); err != nil {
			logger.Error("Error killing server", "error", err)
		}
	}
	if host != nil {
		if err := host.Stop(shutdownCtx); err != nil {
			logger.Warn("GUI host did not stop in time", "error", err)
		}
	}

	logger.Info("Bridge server stopped")
	return runErr
}
