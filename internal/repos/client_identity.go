package repos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tcdsagency/renewals-backend/internal/platform/logger"
	"github.com/tcdsagency/renewals-backend/internal/types"
)

type ClientIdentityRepo interface {
	Create(ctx context.Context, tx *gorm.DB, identities []*types.ClientIdentity) ([]*types.ClientIdentity, error)
	GetByCustomerID(ctx context.Context, tx *gorm.DB, tenantID string, customerID int) (*types.ClientIdentity, error)
	ListByClientCodes(ctx context.Context, tx *gorm.DB, tenantID string, codes []string) ([]*types.ClientIdentity, error)
	SetCloudUUID(ctx context.Context, tx *gorm.DB, id uuid.UUID, cloudUUID uuid.UUID) error
}

type clientIdentityRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewClientIdentityRepo(db *gorm.DB, baseLog *logger.Logger) ClientIdentityRepo {
	return &clientIdentityRepo{db: db, log: baseLog.With("repo", "ClientIdentityRepo")}
}

func (r *clientIdentityRepo) Create(ctx context.Context, tx *gorm.DB, identities []*types.ClientIdentity) ([]*types.ClientIdentity, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(identities) == 0 {
		return []*types.ClientIdentity{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&identities).Error; err != nil {
		return nil, err
	}
	return identities, nil
}

func (r *clientIdentityRepo) GetByCustomerID(ctx context.Context, tx *gorm.DB, tenantID string, customerID int) (*types.ClientIdentity, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var identity types.ClientIdentity
	err := transaction.WithContext(ctx).
		Where("tenant_id = ? AND customer_id = ?", tenantID, customerID).
		Limit(1).
		Find(&identity).Error
	if err != nil {
		return nil, err
	}
	if identity.ID == uuid.Nil {
		return nil, nil
	}
	return &identity, nil
}

// ListByClientCodes expects the caller to chunk codes; Postgres caps bind
// parameters, so the UUID sync passes at most a few hundred at a time.
func (r *clientIdentityRepo) ListByClientCodes(ctx context.Context, tx *gorm.DB, tenantID string, codes []string) ([]*types.ClientIdentity, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.ClientIdentity
	if len(codes) == 0 {
		return out, nil
	}
	err := transaction.WithContext(ctx).
		Where("tenant_id = ? AND client_code IN ?", tenantID, codes).
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *clientIdentityRepo) SetCloudUUID(ctx context.Context, tx *gorm.DB, id uuid.UUID, cloudUUID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	now := time.Now().UTC()
	return transaction.WithContext(ctx).
		Model(&types.ClientIdentity{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"cloud_uuid": cloudUUID,
			"synced_at":  now,
			"updated_at": now,
		}).Error
}
