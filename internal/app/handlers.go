package app

import (
	"github.com/tcdsagency/renewals-backend/internal/http/handlers"
	"github.com/tcdsagency/renewals-backend/internal/platform/logger"
)

type Handlers struct {
	Renewal *handlers.RenewalHandler
	Health  *handlers.HealthHandler
}

func wireHandlers(log *logger.Logger, cfg Config, serviceset Services) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Renewal: handlers.NewRenewalHandler(
			log,
			serviceset.Poller,
			serviceset.Upload,
			serviceset.Comparison,
			serviceset.UUIDSync,
			serviceset.TaskSync,
			cfg.DefaultTenantID,
			cfg.DefaultWindowDays,
			cfg.DefaultBatchSize,
		),
		Health: handlers.NewHealthHandler(),
	}
}
