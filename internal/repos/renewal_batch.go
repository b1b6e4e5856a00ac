package repos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tcdsagency/renewals-backend/internal/platform/logger"
	"github.com/tcdsagency/renewals-backend/internal/types"
)

type RenewalBatchRepo interface {
	Create(ctx context.Context, tx *gorm.DB, batches []*types.RenewalBatch) ([]*types.RenewalBatch, error)
	GetByID(ctx context.Context, tx *gorm.DB, tenantID string, id uuid.UUID) (*types.RenewalBatch, error)
	SetStatus(ctx context.Context, tx *gorm.DB, id uuid.UUID, status string, errorMessage *string) error
	ListByTenant(ctx context.Context, tx *gorm.DB, tenantID string, status string, limit, offset int) ([]*types.RenewalBatch, error)
}

type renewalBatchRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewRenewalBatchRepo(db *gorm.DB, baseLog *logger.Logger) RenewalBatchRepo {
	return &renewalBatchRepo{db: db, log: baseLog.With("repo", "RenewalBatchRepo")}
}

func (r *renewalBatchRepo) Create(ctx context.Context, tx *gorm.DB, batches []*types.RenewalBatch) ([]*types.RenewalBatch, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(batches) == 0 {
		return []*types.RenewalBatch{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&batches).Error; err != nil {
		return nil, err
	}
	return batches, nil
}

func (r *renewalBatchRepo) GetByID(ctx context.Context, tx *gorm.DB, tenantID string, id uuid.UUID) (*types.RenewalBatch, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var batch types.RenewalBatch
	err := transaction.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		Limit(1).
		Find(&batch).Error
	if err != nil {
		return nil, err
	}
	if batch.ID == uuid.Nil {
		return nil, nil
	}
	return &batch, nil
}

func (r *renewalBatchRepo) SetStatus(ctx context.Context, tx *gorm.DB, id uuid.UUID, status string, errorMessage *string) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	updates := map[string]interface{}{
		"status":     status,
		"updated_at": time.Now().UTC(),
	}
	if errorMessage != nil {
		updates["error_message"] = *errorMessage
	}
	return transaction.WithContext(ctx).
		Model(&types.RenewalBatch{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *renewalBatchRepo) ListByTenant(ctx context.Context, tx *gorm.DB, tenantID string, status string, limit, offset int) ([]*types.RenewalBatch, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	q := transaction.WithContext(ctx).Where("tenant_id = ?", tenantID)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	if offset > 0 {
		q = q.Offset(offset)
	}
	var out []*types.RenewalBatch
	if err := q.Order("created_at DESC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
