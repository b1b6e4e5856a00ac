package repos

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tcdsagency/renewals-backend/internal/platform/logger"
	"github.com/tcdsagency/renewals-backend/internal/types"
)

type AttachmentLogRepo interface {
	// CreateIfAbsent inserts the row unless (tenant_id, attachment_id)
	// already exists. The unique index is the idempotency lock for
	// overlapping poll runs: the losing writer of a racing insert sees
	// inserted=false and must treat the attachment as already considered.
	CreateIfAbsent(ctx context.Context, tx *gorm.DB, row *types.HawksoftAttachmentLog) (inserted bool, err error)
	Exists(ctx context.Context, tx *gorm.DB, tenantID, attachmentID string) (bool, error)
	ListByTenant(ctx context.Context, tx *gorm.DB, tenantID string, status string, limit int) ([]*types.HawksoftAttachmentLog, error)
}

type attachmentLogRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAttachmentLogRepo(db *gorm.DB, baseLog *logger.Logger) AttachmentLogRepo {
	return &attachmentLogRepo{db: db, log: baseLog.With("repo", "AttachmentLogRepo")}
}

func (r *attachmentLogRepo) CreateIfAbsent(ctx context.Context, tx *gorm.DB, row *types.HawksoftAttachmentLog) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	res := transaction.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "tenant_id"}, {Name: "attachment_id"}},
			DoNothing: true,
		}).
		Create(row)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *attachmentLogRepo) Exists(ctx context.Context, tx *gorm.DB, tenantID, attachmentID string) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var count int64
	err := transaction.WithContext(ctx).
		Model(&types.HawksoftAttachmentLog{}).
		Where("tenant_id = ? AND attachment_id = ?", tenantID, attachmentID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *attachmentLogRepo) ListByTenant(ctx context.Context, tx *gorm.DB, tenantID string, status string, limit int) ([]*types.HawksoftAttachmentLog, error) {
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
	var out []*types.HawksoftAttachmentLog
	if err := q.Order("processed_at DESC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
