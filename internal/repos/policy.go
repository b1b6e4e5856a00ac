package repos

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tcdsagency/renewals-backend/internal/platform/logger"
	"github.com/tcdsagency/renewals-backend/internal/types"
)

type PolicyRepo interface {
	Create(ctx context.Context, tx *gorm.DB, policies []*types.Policy) ([]*types.Policy, error)
	ListExpiringInWindow(ctx context.Context, tx *gorm.DB, tenantID string, from, to time.Time) ([]*types.Policy, error)
	ListExpiringForCustomer(ctx context.Context, tx *gorm.DB, tenantID string, customerID int, from, to time.Time) ([]*types.Policy, error)
}

type policyRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPolicyRepo(db *gorm.DB, baseLog *logger.Logger) PolicyRepo {
	return &policyRepo{db: db, log: baseLog.With("repo", "PolicyRepo")}
}

func (r *policyRepo) Create(ctx context.Context, tx *gorm.DB, policies []*types.Policy) ([]*types.Policy, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(policies) == 0 {
		return []*types.Policy{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&policies).Error; err != nil {
		return nil, err
	}
	return policies, nil
}

func (r *policyRepo) ListExpiringInWindow(ctx context.Context, tx *gorm.DB, tenantID string, from, to time.Time) ([]*types.Policy, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.Policy
	err := transaction.WithContext(ctx).
		Where("tenant_id = ? AND status = ? AND expiration_date >= ? AND expiration_date <= ?",
			tenantID, types.PolicyStatusActive, from, to).
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *policyRepo) ListExpiringForCustomer(ctx context.Context, tx *gorm.DB, tenantID string, customerID int, from, to time.Time) ([]*types.Policy, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.Policy
	err := transaction.WithContext(ctx).
		Where("tenant_id = ? AND customer_id = ? AND status = ? AND expiration_date >= ? AND expiration_date <= ?",
			tenantID, customerID, types.PolicyStatusActive, from, to).
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}
