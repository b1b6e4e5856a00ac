package app

import (
	"fmt"

	"github.com/tcdsagency/renewals-backend/internal/clients/gcp"
	"github.com/tcdsagency/renewals-backend/internal/clients/hawksoft"
	redisclient "github.com/tcdsagency/renewals-backend/internal/clients/redis"
	"github.com/tcdsagency/renewals-backend/internal/platform/logger"
)

type Clients struct {
	Hawksoft hawksoft.Client
	Bucket   gcp.BucketService
	Queue    redisclient.ProcessQueue
}

func wireClients(log *logger.Logger) (Clients, error) {
	log.Info("Wiring clients...")

	hs, err := hawksoft.NewClient(log)
	if err != nil {
		return Clients{}, fmt.Errorf("init hawksoft client: %w", err)
	}
	bucket, err := gcp.NewBucketService(log)
	if err != nil {
		return Clients{}, fmt.Errorf("init gcs bucket: %w", err)
	}
	queue, err := redisclient.NewProcessQueue(log)
	if err != nil {
		return Clients{}, fmt.Errorf("init redis queue: %w", err)
	}
	return Clients{
		Hawksoft: hs,
		Bucket:   bucket,
		Queue:    queue,
	}, nil
}
