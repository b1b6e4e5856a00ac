package worker

import (
	"context"
	"fmt"
	"time"

	redisclient "github.com/tcdsagency/renewals-backend/internal/clients/redis"
	"github.com/tcdsagency/renewals-backend/internal/platform/logger"
	"github.com/tcdsagency/renewals-backend/internal/services"
	"github.com/tcdsagency/renewals-backend/internal/utils"
)

// Worker drains the renewal process queue. It runs in its own execution
// context with no wall-clock ceiling, which is the point: uploads and
// poll runs stay fast while parsing and comparison happen here.
type Worker struct {
	log       *logger.Logger
	queue     redisclient.ProcessQueue
	processor services.ProcessorService
}

func NewWorker(baseLog *logger.Logger, queue redisclient.ProcessQueue, processor services.ProcessorService) *Worker {
	return &Worker{
		log:       baseLog.With("component", "RenewalWorker"),
		queue:     queue,
		processor: processor,
	}
}

func (w *Worker) Start(ctx context.Context) {
	concurrency := utils.GetEnvAsInt("WORKER_CONCURRENCY", 2, w.log)
	if concurrency < 1 {
		concurrency = 1
	}
	w.log.Info("Starting renewal worker pool", "concurrency", concurrency)

	for i := 0; i < concurrency; i++ {
		workerID := i + 1
		go w.runLoop(ctx, workerID)
	}
}

func (w *Worker) runLoop(ctx context.Context, workerID int) {
	for {
		select {
		case <-ctx.Done():
			w.log.Info("Worker loop stopped", "worker_id", workerID)
			return
		default:
		}

		msg, err := w.queue.Dequeue(ctx, 5*time.Second)
		if err != nil {
			if ctx.Err() != nil {
				w.log.Info("Worker loop stopped", "worker_id", workerID)
				return
			}
			w.log.Warn("Dequeue failed", "worker_id", workerID, "error", err)
			time.Sleep(2 * time.Second)
			continue
		}
		if msg == nil {
			continue
		}

		w.handle(ctx, workerID, *msg)
	}
}

func (w *Worker) handle(ctx context.Context, workerID int, msg redisclient.ProcessMessage) {
	defer func() {
		if r := recover(); r != nil {
			w.log.Error("Processor panic",
				"worker_id", workerID,
				"batch_id", msg.BatchID,
				"panic", fmt.Sprintf("%v", r),
			)
		}
	}()

	if err := w.processor.ProcessMessage(ctx, msg); err != nil {
		// ProcessMessage already marked the batch failed; nothing to
		// retry here, the batch is the audit trail.
		w.log.Warn("Batch processing returned error",
			"worker_id", workerID,
			"batch_id", msg.BatchID,
			"error", err,
		)
	}
}
