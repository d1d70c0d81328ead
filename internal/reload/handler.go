package reload

import (
	"fmt"
	"log/slog"

	"github.com/flemzord/chron/internal/config"
	"github.com/flemzord/chron/internal/supervisor"
)

// Handler re-applies the chronfile to the supervisor.
type Handler struct {
	sup    *supervisor.Supervisor
	logger *slog.Logger
}

// NewHandler creates a reload handler.
func NewHandler(sup *supervisor.Supervisor, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{sup: sup, logger: logger}
}

// HandleReload loads the chronfile and replaces the running job set
// with its contents. A parse or validation failure leaves the current
// registry untouched.
func (h *Handler) HandleReload(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading chronfile: %w", err)
	}
	if err := config.Apply(h.sup, cfg); err != nil {
		return fmt.Errorf("applying chronfile: %w", err)
	}
	h.logger.Info("configuration reloaded successfully")
	return nil
}
