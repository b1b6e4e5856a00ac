package types

import (
	"time"

	"github.com/google/uuid"
)

// ClientIdentity caches the HawkSoft cloud UUID for a legacy client code.
// Some customers predate cloud-API coverage, so CloudUUID stays nil until
// the directory sync (or a poll run) resolves them.
type ClientIdentity struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	TenantID   string     `gorm:"column:tenant_id;not null;uniqueIndex:idx_identity_tenant_code" json:"tenant_id"`
	ClientCode string     `gorm:"column:client_code;not null;uniqueIndex:idx_identity_tenant_code" json:"client_code"`
	CustomerID int        `gorm:"column:customer_id;not null;index" json:"customer_id"`
	CloudUUID  *uuid.UUID `gorm:"column:cloud_uuid;type:uuid" json:"cloud_uuid,omitempty"`
	SyncedAt   *time.Time `gorm:"column:synced_at" json:"synced_at,omitempty"`
	CreatedAt  time.Time  `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time  `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

func (ClientIdentity) TableName() string { return "client_identity" }
