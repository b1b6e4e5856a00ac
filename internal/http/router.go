package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/tcdsagency/renewals-backend/internal/http/handlers"
	httpMW "github.com/tcdsagency/renewals-backend/internal/http/middleware"
	"github.com/tcdsagency/renewals-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log *logger.Logger

	ServiceName string

	RenewalHandler *httpH.RenewalHandler
	HealthHandler  *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "renewals-backend"
	}
	r.Use(otelgin.Middleware(serviceName))
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.CORS())

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.Check)
	}

	api := r.Group("/api")
	{
		// Renewals
		if cfg.RenewalHandler != nil {
			api.POST("/renewals/poll", cfg.RenewalHandler.Poll)
			api.POST("/renewals/upload", cfg.RenewalHandler.Upload)
			api.POST("/renewals/compare", cfg.RenewalHandler.Compare)
		}
	}

	return r
}
