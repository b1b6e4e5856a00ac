package app

import (
	"github.com/gin-gonic/gin"

	httpserver "github.com/tcdsagency/renewals-backend/internal/http"
	"github.com/tcdsagency/renewals-backend/internal/platform/logger"
)

func wireRouter(log *logger.Logger, cfg Config, handlerset Handlers) *gin.Engine {
	return httpserver.NewRouter(httpserver.RouterConfig{
		Log:            log,
		ServiceName:    cfg.ServiceName,
		RenewalHandler: handlerset.Renewal,
		HealthHandler:  handlerset.Health,
	})
}
