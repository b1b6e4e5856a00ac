package types

import (
	"time"

	"github.com/google/uuid"
)

const PolicyStatusActive = "active"

// Policy mirrors the agency-management view of one policy term. The
// poller's expiring-window query runs against this table.
type Policy struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	TenantID       string    `gorm:"column:tenant_id;not null;index" json:"tenant_id"`
	CustomerID     int       `gorm:"column:customer_id;not null;index" json:"customer_id"`
	PolicyNumber   string    `gorm:"column:policy_number;not null;index" json:"policy_number"`
	CarrierName    string    `gorm:"column:carrier_name" json:"carrier_name"`
	LineOfBusiness string    `gorm:"column:line_of_business" json:"line_of_business"`
	Status         string    `gorm:"column:status;not null;default:'active'" json:"status"`
	EffectiveDate  time.Time `gorm:"column:effective_date" json:"effective_date"`
	ExpirationDate time.Time `gorm:"column:expiration_date;index" json:"expiration_date"`
	CreatedAt      time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

func (Policy) TableName() string { return "policy" }
