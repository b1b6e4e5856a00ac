package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// RenewalComparison is the persisted comparison record reviewers read.
// ComparisonSummary is a jsonb blob the pipeline populates and auxiliary
// jobs (carrier alert sync) later merge annotations into.
type RenewalComparison struct {
	ID                uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	TenantID          string         `gorm:"column:tenant_id;not null;uniqueIndex:idx_comparison_tenant_policy" json:"tenant_id"`
	PolicyNumber      string         `gorm:"column:policy_number;not null;uniqueIndex:idx_comparison_tenant_policy" json:"policy_number"`
	CarrierName       string         `gorm:"column:carrier_name" json:"carrier_name"`
	LineOfBusiness    string         `gorm:"column:line_of_business" json:"line_of_business"`
	RenewalBatchID    *uuid.UUID     `gorm:"column:renewal_batch_id;type:uuid" json:"renewal_batch_id,omitempty"`
	ComparisonSummary datatypes.JSON `gorm:"column:comparison_summary;type:jsonb" json:"comparison_summary"`
	CreatedAt         time.Time      `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time      `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

func (RenewalComparison) TableName() string { return "renewal_comparison" }
