package repos

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tcdsagency/renewals-backend/internal/platform/logger"
	"github.com/tcdsagency/renewals-backend/internal/types"
)

// ErrComparisonNotFound distinguishes a merge against a policy with no
// comparison row yet from a genuine storage failure.
var ErrComparisonNotFound = errors.New("renewal comparison not found")

type RenewalComparisonRepo interface {
	Upsert(ctx context.Context, tx *gorm.DB, row *types.RenewalComparison) (*types.RenewalComparison, error)
	GetByPolicyNumber(ctx context.Context, tx *gorm.DB, tenantID, policyNumber string) (*types.RenewalComparison, error)
	// MergeSummaryKeys read-merge-writes entries into the comparison
	// summary blob. Keys already present but not named in entries are
	// always preserved; the whole blob is never replaced wholesale.
	MergeSummaryKeys(ctx context.Context, tx *gorm.DB, tenantID, policyNumber string, entries map[string]interface{}) error
}

type renewalComparisonRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewRenewalComparisonRepo(db *gorm.DB, baseLog *logger.Logger) RenewalComparisonRepo {
	return &renewalComparisonRepo{db: db, log: baseLog.With("repo", "RenewalComparisonRepo")}
}

func (r *renewalComparisonRepo) Upsert(ctx context.Context, tx *gorm.DB, row *types.RenewalComparison) (*types.RenewalComparison, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	err := transaction.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "tenant_id"}, {Name: "policy_number"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"carrier_name", "line_of_business", "renewal_batch_id", "comparison_summary", "updated_at",
			}),
		}).
		Create(row).Error
	if err != nil {
		return nil, err
	}
	return row, nil
}

func (r *renewalComparisonRepo) GetByPolicyNumber(ctx context.Context, tx *gorm.DB, tenantID, policyNumber string) (*types.RenewalComparison, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var row types.RenewalComparison
	err := transaction.WithContext(ctx).
		Where("tenant_id = ? AND policy_number = ?", tenantID, policyNumber).
		Limit(1).
		Find(&row).Error
	if err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *renewalComparisonRepo) MergeSummaryKeys(ctx context.Context, tx *gorm.DB, tenantID, policyNumber string, entries map[string]interface{}) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	existing, err := r.GetByPolicyNumber(ctx, transaction, tenantID, policyNumber)
	if err != nil {
		return err
	}
	if existing == nil {
		return fmt.Errorf("tenant %s policy %s: %w", tenantID, policyNumber, ErrComparisonNotFound)
	}

	summary := map[string]interface{}{}
	if len(existing.ComparisonSummary) > 0 {
		if err := json.Unmarshal(existing.ComparisonSummary, &summary); err != nil {
			return fmt.Errorf("unmarshal comparison summary: %w", err)
		}
	}
	for k, v := range entries {
		summary[k] = v
	}
	merged, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("marshal comparison summary: %w", err)
	}

	return transaction.WithContext(ctx).
		Model(&types.RenewalComparison{}).
		Where("id = ?", existing.ID).
		Updates(map[string]interface{}{
			"comparison_summary": datatypes.JSON(merged),
			"updated_at":         time.Now().UTC(),
		}).Error
}
