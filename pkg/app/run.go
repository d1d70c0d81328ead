// Package app wires the chron daemon together and owns its main loop.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/flemzord/chron/internal/gateway"
	"github.com/flemzord/chron/internal/mailbox"
	"github.com/flemzord/chron/internal/reload"
	"github.com/flemzord/chron/internal/schedule"
	"github.com/flemzord/chron/internal/status"
	"github.com/flemzord/chron/internal/supervisor"
)

// RunParams configures the daemon.
type RunParams struct {
	// ConfigPath is the chronfile to load and watch.
	ConfigPath string

	// DataDir overrides the default data directory.
	DataDir string

	// LogLevel sets the minimum log level. Defaults to slog.LevelInfo.
	LogLevel slog.Level
}

// Run starts every subsystem, applies the chronfile, and blocks until a
// shutdown signal arrives. Chronfile changes and SIGHUP trigger a live
// reload; reload failures are logged. A chronfile that fails to load
// leaves the previous job set running; a registration failure during
// apply leaves only the jobs registered before it.
func Run(params RunParams) error {
	port, err := PortFromEnv()
	if err != nil {
		return err
	}

	dataDir := params.DataDir
	if dataDir == "" {
		dataDir = DefaultDataDir()
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: params.LogLevel,
	}))

	statusStore, err := status.Open(filepath.Join(dataDir, "jobStatus.json"))
	if err != nil {
		return err
	}
	mailboxStore, err := mailbox.Open(filepath.Join(dataDir, "mailbox.json"))
	if err != nil {
		return err
	}

	scheduler := schedule.NewScheduler(logger)
	scheduler.Start()
	defer scheduler.Stop()

	registry := prometheus.NewRegistry()
	metrics := supervisor.NewMetrics(registry)

	sup := supervisor.New(supervisor.Config{
		DataDir:   dataDir,
		Port:      port,
		Logger:    logger,
		Scheduler: scheduler,
		Status:    statusStore,
		Mailbox:   mailboxStore,
		Metrics:   metrics,
	})
	defer sup.Reset()

	if port > 0 {
		gw := gateway.New(gateway.Config{
			Bind:       fmt.Sprintf("0.0.0.0:%d", port),
			Logger:     logger,
			Supervisor: sup,
			Metrics:    registry,
		})
		if err := gw.Start(); err != nil {
			return err
		}
		defer func() { _ = gw.Stop(context.Background()) }()
	}

	// The first load must succeed; a broken chronfile aborts startup.
	handler := reload.NewHandler(sup, logger)
	if err := handler.HandleReload(params.ConfigPath); err != nil {
		return err
	}

	watcher, err := reload.NewWatcher(reload.WatcherConfig{
		ConfigPath: params.ConfigPath,
		Logger:     logger,
	})
	if err != nil {
		return err
	}
	if err := watcher.Start(); err != nil {
		return err
	}
	defer watcher.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigCh)

	for {
		select {
		case sig := <-sigCh:
			if sig == syscall.SIGHUP {
				logger.Info("SIGHUP received, reloading configuration")
				if err := handler.HandleReload(params.ConfigPath); err != nil {
					logger.Error("reload failed", "error", err)
				}
				continue
			}
			logger.Info("shutdown signal received", "signal", sig.String())
			return nil
		case evt := <-watcher.Events():
			logger.Info("chronfile changed, reloading", "path", evt.ConfigPath)
			if err := handler.HandleReload(evt.ConfigPath); err != nil {
				logger.Error("reload failed", "error", err)
			}
		}
	}
}

// PortFromEnv reads the required PORT environment variable. Zero
// disables the control plane.
func PortFromEnv() (int, error) {
	raw, ok := os.LookupEnv("PORT")
	if !ok {
		return 0, fmt.Errorf("app: PORT environment variable is required")
	}
	port, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("app: PORT must be an integer, got %q", raw)
	}
	if port < 0 {
		return 0, fmt.Errorf("app: PORT must be non-negative, got %d", port)
	}
	return port, nil
}

// DefaultDataDir returns CHRON_DIR when set, otherwise
// ~/.local/share/chron.
func DefaultDataDir() string {
	if dir, ok := os.LookupEnv("CHRON_DIR"); ok {
		return dir
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", "chron")
}
