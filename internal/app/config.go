package app

import (
	"github.com/tcdsagency/renewals-backend/internal/platform/logger"
	"github.com/tcdsagency/renewals-backend/internal/utils"
)

type Config struct {
	ServiceName string
	Environment string
	Version     string

	DefaultTenantID   string
	DefaultWindowDays int
	DefaultBatchSize  int
}

func LoadConfig(log *logger.Logger) Config {
	return Config{
		ServiceName:       utils.GetEnv("SERVICE_NAME", "renewals-backend", log),
		Environment:       utils.GetEnv("APP_ENV", "development", log),
		Version:           utils.GetEnv("APP_VERSION", "dev", log),
		DefaultTenantID:   utils.GetEnv("DEFAULT_TENANT_ID", "default", log),
		DefaultWindowDays: utils.GetEnvAsInt("RENEWAL_WINDOW_DAYS", 90, log),
		DefaultBatchSize:  utils.GetEnvAsInt("POLL_BATCH_SIZE", 25, log),
	}
}
