package services

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/tcdsagency/renewals-backend/internal/al3"
	"github.com/tcdsagency/renewals-backend/internal/clients/gcp"
	redisclient "github.com/tcdsagency/renewals-backend/internal/clients/redis"
	"github.com/tcdsagency/renewals-backend/internal/platform/logger"
	"github.com/tcdsagency/renewals-backend/internal/repos"
	"github.com/tcdsagency/renewals-backend/internal/types"
)

// ProcessorService runs the worker half of the pipeline: AL3 bytes in,
// persisted RenewalComparison out, with the batch row tracking progress.
type ProcessorService interface {
	ProcessMessage(ctx context.Context, msg redisclient.ProcessMessage) error
}

type processorService struct {
	log         *logger.Logger
	parser      al3.Parser
	comparisons repos.RenewalComparisonRepo
	batches     repos.RenewalBatchRepo
	bucket      gcp.BucketService
	compare     ComparisonService
}

func NewProcessorService(
	log *logger.Logger,
	parser al3.Parser,
	comparisons repos.RenewalComparisonRepo,
	batches repos.RenewalBatchRepo,
	bucket gcp.BucketService,
	compare ComparisonService,
) ProcessorService {
	return &processorService{
		log:         log.With("service", "ProcessorService"),
		parser:      parser,
		comparisons: comparisons,
		batches:     batches,
		bucket:      bucket,
		compare:     compare,
	}
}

func (s *processorService) ProcessMessage(ctx context.Context, msg redisclient.ProcessMessage) error {
	batchID, err := uuid.Parse(msg.BatchID)
	if err != nil {
		return fmt.Errorf("invalid batch id %q: %w", msg.BatchID, err)
	}
	log := s.log.With("tenant_id", msg.TenantID, "batch_id", msg.BatchID)

	if err := s.batches.SetStatus(ctx, nil, batchID, types.BatchStatusProcessing, nil); err != nil {
		return fmt.Errorf("mark batch processing: %w", err)
	}

	if err := s.processSafely(ctx, batchID, msg, log); err != nil {
		log.Error("Batch processing failed", "error", err)
		msgText := err.Error()
		if setErr := s.batches.SetStatus(ctx, nil, batchID, types.BatchStatusFailed, &msgText); setErr != nil {
			log.Error("Failed to mark batch failed", "error", setErr)
		}
		return err
	}

	if err := s.batches.SetStatus(ctx, nil, batchID, types.BatchStatusCompared, nil); err != nil {
		return fmt.Errorf("mark batch compared: %w", err)
	}
	log.Info("Batch compared")
	return nil
}

// processSafely converts a panic during processing into an error so the
// batch still reaches a terminal status instead of sticking in processing.
func (s *processorService) processSafely(ctx context.Context, batchID uuid.UUID, msg redisclient.ProcessMessage, log *logger.Logger) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("processing panic: %v", r)
		}
	}()
	return s.process(ctx, batchID, msg, log)
}

func (s *processorService) process(ctx context.Context, batchID uuid.UUID, msg redisclient.ProcessMessage, log *logger.Logger) error {
	data, err := s.loadBytes(ctx, msg)
	if err != nil {
		return err
	}
	data = al3.Decompress(data)

	renewalSnap, baselineSnap, err := s.parser.ParseRenewal(ctx, data)
	if err != nil {
		return fmt.Errorf("parse AL3 document: %w", err)
	}
	if renewalSnap == nil || baselineSnap == nil {
		return fmt.Errorf("AL3 document did not yield both renewal and baseline terms")
	}
	if renewalSnap.PolicyNumber == "" {
		return fmt.Errorf("renewal snapshot has no policy number")
	}

	result, checkRes, checkSummary, err := s.compare.Run(
		renewalSnap, baselineSnap, nil, renewalSnap.EffectiveDate,
		renewalSnap.LineOfBusiness, renewalSnap.CarrierName,
	)
	if err != nil {
		return fmt.Errorf("compare snapshots: %w", err)
	}

	summary := map[string]interface{}{
		"result":            result,
		"checkEngineResult": checkRes,
		"checkSummary":      checkSummary,
		"renewalSnapshot":   renewalSnap,
		"baselineSnapshot":  baselineSnap,
	}
	blob, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("marshal comparison summary: %w", err)
	}

	if _, err := s.comparisons.Upsert(ctx, nil, &types.RenewalComparison{
		ID:                uuid.New(),
		TenantID:          msg.TenantID,
		PolicyNumber:      renewalSnap.PolicyNumber,
		CarrierName:       renewalSnap.CarrierName,
		LineOfBusiness:    result.LineOfBusiness,
		RenewalBatchID:    &batchID,
		ComparisonSummary: datatypes.JSON(blob),
	}); err != nil {
		return fmt.Errorf("persist renewal comparison: %w", err)
	}
	return nil
}

// loadBytes prefers the inline buffer; large archives fall back to the
// storage path.
func (s *processorService) loadBytes(ctx context.Context, msg redisclient.ProcessMessage) ([]byte, error) {
	if msg.FileBuffer != "" {
		data, err := base64.StdEncoding.DecodeString(msg.FileBuffer)
		if err != nil {
			return nil, fmt.Errorf("decode inline file buffer: %w", err)
		}
		return data, nil
	}
	if msg.StoragePath == "" {
		return nil, fmt.Errorf("process message carries neither file buffer nor storage path")
	}
	r, err := s.bucket.DownloadFile(ctx, msg.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("fetch batch bytes from storage: %w", err)
	}
	defer r.Close()
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read batch bytes from storage: %w", err)
	}
	return data, nil
}
