package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"

	"github.com/tcdsagency/renewals-backend/internal/clients/gcp"
	redisclient "github.com/tcdsagency/renewals-backend/internal/clients/redis"
	"github.com/tcdsagency/renewals-backend/internal/platform/logger"
	"github.com/tcdsagency/renewals-backend/internal/repos"
	"github.com/tcdsagency/renewals-backend/internal/types"
)

// MaxUploadBytes is the hard ceiling for a manually uploaded archive.
const MaxUploadBytes = 100 << 20

var (
	ErrEmptyFile    = errors.New("uploaded file is empty")
	ErrFileTooLarge = fmt.Errorf("uploaded file exceeds %d bytes", int64(MaxUploadBytes))
)

type UploadIntakeService interface {
	// Upload persists the archive, creates a RenewalBatch in the
	// uploaded state, and enqueues it for asynchronous processing.
	// declaredSize is the multipart header size and is validated before
	// the body is read.
	Upload(ctx context.Context, tenantID, fileName string, declaredSize int64, content io.Reader, uploadedByID string) (*types.RenewalBatch, error)
}

type uploadIntakeService struct {
	log     *logger.Logger
	batches repos.RenewalBatchRepo
	bucket  gcp.BucketService
	queue   redisclient.ProcessQueue
}

func NewUploadIntakeService(
	log *logger.Logger,
	batches repos.RenewalBatchRepo,
	bucket gcp.BucketService,
	queue redisclient.ProcessQueue,
) UploadIntakeService {
	return &uploadIntakeService{
		log:     log.With("service", "UploadIntakeService"),
		batches: batches,
		bucket:  bucket,
		queue:   queue,
	}
}

func (s *uploadIntakeService) Upload(ctx context.Context, tenantID, fileName string, declaredSize int64, content io.Reader, uploadedByID string) (*types.RenewalBatch, error) {
	if declaredSize <= 0 {
		return nil, ErrEmptyFile
	}
	if declaredSize > MaxUploadBytes {
		return nil, ErrFileTooLarge
	}

	// Reject a body that lies about its declared size; +1 detects
	// anything past the ceiling without buffering the excess.
	data, err := io.ReadAll(io.LimitReader(content, MaxUploadBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if len(data) == 0 {
		return nil, ErrEmptyFile
	}
	if len(data) > MaxUploadBytes {
		return nil, ErrFileTooLarge
	}

	batchID := uuid.New()
	storagePath := gcp.BatchObjectKey(tenantID, batchID.String(), fileName)
	if err := s.bucket.UploadFile(ctx, storagePath, bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("persist upload to storage: %w", err)
	}

	batch := &types.RenewalBatch{
		ID:               batchID,
		TenantID:         tenantID,
		OriginalFileName: fileName,
		FileSize:         int64(len(data)),
		StoragePath:      &storagePath,
		Status:           types.BatchStatusUploaded,
	}
	if uploadedByID != "" {
		batch.UploadedByID = &uploadedByID
	}
	if _, err := s.batches.Create(ctx, nil, []*types.RenewalBatch{batch}); err != nil {
		return nil, fmt.Errorf("create renewal batch: %w", err)
	}

	msg := redisclient.ProcessMessage{
		BatchID:          batchID.String(),
		TenantID:         tenantID,
		StoragePath:      storagePath,
		OriginalFileName: fileName,
	}
	if len(data) <= redisclient.MaxInlineBufferBytes {
		msg.FileBuffer = base64.StdEncoding.EncodeToString(data)
	}
	if err := s.queue.Enqueue(ctx, msg); err != nil {
		// An unqueued upload with no alert would be invisible to the
		// user, so this failure is surfaced, not absorbed.
		s.log.Error("Enqueue failed for uploaded batch", "tenant_id", tenantID, "batch_id", batchID, "error", err)
		msg := "failed to enqueue for processing: " + err.Error()
		if setErr := s.batches.SetStatus(ctx, nil, batchID, types.BatchStatusFailed, &msg); setErr != nil {
			s.log.Error("Failed to mark batch failed after enqueue error", "batch_id", batchID, "error", setErr)
		}
		return nil, fmt.Errorf("enqueue batch for processing: %w", err)
	}

	s.log.Info("Upload accepted", "tenant_id", tenantID, "batch_id", batchID, "file_name", fileName, "file_size", len(data))
	return batch, nil
}
