// Package gateway is the HTTP control plane: job inspection, log
// retrieval, mailbox access, and termination requests.
package gateway

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/flemzord/chron/internal/mailbox"
	"github.com/flemzord/chron/internal/supervisor"
)

// Supervisor is the slice of the job engine the control plane consumes.
type Supervisor interface {
	ListJobs() []supervisor.JobStatus
	Detail(name string) (supervisor.JobDetail, bool)
	LogPath(name string) string
	Terminate(name string) bool
	Mailbox() *mailbox.Store
}

// Config configures the control-plane server.
type Config struct {
	// Bind is the listen address, e.g. "0.0.0.0:4521".
	Bind string

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration

	Logger     *slog.Logger
	Supervisor Supervisor

	// Metrics, when non-nil, mounts GET /metrics.
	Metrics prometheus.Gatherer
}

func (c *Config) defaults() {
	if c.ReadTimeout == 0 {
		c.ReadTimeout = 15 * time.Second
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = 30 * time.Second
	}
	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = 5 * time.Second
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Gateway serves the control-plane HTTP surface.
type Gateway struct {
	config    Config
	logger    *slog.Logger
	sup       Supervisor
	server    *http.Server
	startedAt time.Time
}

// New creates a gateway. Start actually binds the port.
func New(cfg Config) *Gateway {
	cfg.defaults()
	return &Gateway{
		config: cfg,
		logger: cfg.Logger,
		sup:    cfg.Supervisor,
	}
}

// Start binds the listen address and serves in the background.
func (g *Gateway) Start() error {
	g.startedAt = time.Now()
	g.server = &http.Server{
		Addr:         g.config.Bind,
		Handler:      g.buildRouter(),
		ReadTimeout:  g.config.ReadTimeout,
		WriteTimeout: g.config.WriteTimeout,
	}

	var lc net.ListenConfig
	ln, err := lc.Listen(context.Background(), "tcp", g.config.Bind)
	if err != nil {
		return errors.New("gateway: listen failed: " + err.Error())
	}

	go func() {
		g.logger.Info("gateway listening", "addr", g.config.Bind)
		if err := g.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			g.logger.Error("gateway serve error", "error", err)
		}
	}()

	return nil
}

// Stop gracefully shuts the server down.
func (g *Gateway) Stop(ctx context.Context) error {
	if g.server == nil {
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, g.config.ShutdownTimeout)
	defer cancel()

	g.logger.Info("gateway shutting down")
	return g.server.Shutdown(shutdownCtx)
}
