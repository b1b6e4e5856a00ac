package app

import (
	"github.com/tcdsagency/renewals-backend/internal/al3"
	"github.com/tcdsagency/renewals-backend/internal/platform/logger"
	"github.com/tcdsagency/renewals-backend/internal/services"
)

type Services struct {
	Poller     services.PollerService
	Upload     services.UploadIntakeService
	Comparison services.ComparisonService
	Processor  services.ProcessorService
	UUIDSync   services.UUIDSyncService
	TaskSync   services.TaskSyncService
}

func wireServices(log *logger.Logger, clients Clients, reposet Repos) Services {
	log.Info("Wiring services...")

	comparison := services.NewComparisonService(log)
	parser := al3.NewRecordParser()

	return Services{
		Poller: services.NewPollerService(
			log,
			clients.Hawksoft,
			reposet.Policy,
			reposet.ClientIdentity,
			reposet.AttachmentLog,
			reposet.RenewalBatch,
			clients.Queue,
		),
		Upload: services.NewUploadIntakeService(
			log,
			reposet.RenewalBatch,
			clients.Bucket,
			clients.Queue,
		),
		Comparison: comparison,
		Processor: services.NewProcessorService(
			log,
			parser,
			reposet.RenewalComparison,
			reposet.RenewalBatch,
			clients.Bucket,
			comparison,
		),
		UUIDSync: services.NewUUIDSyncService(log, clients.Hawksoft, reposet.ClientIdentity),
		TaskSync: services.NewTaskSyncService(log, clients.Hawksoft, reposet.RenewalComparison),
	}
}
