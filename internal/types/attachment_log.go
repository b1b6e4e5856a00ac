package types

import (
	"time"

	"github.com/google/uuid"
)

const (
	AttachmentStatusDownloaded = "downloaded"
	AttachmentStatusSkipped    = "skipped"
	AttachmentStatusFailed     = "failed"
)

// How the attachment's policy number was resolved. The single-policy
// fallback is a heuristic, so the method is stored for auditability.
const (
	ResolutionHexMap     = "hex_map"
	ResolutionFallback   = "single_policy_fallback"
	ResolutionUnresolved = "unresolved"
)

// HawksoftAttachmentLog records every HawkSoft attachment ever considered.
// The (tenant_id, attachment_id) unique index is the sole idempotency lock:
// presence of a row, whatever its status, means "already considered" and the
// poller must never re-download that attachment.
type HawksoftAttachmentLog struct {
	ID               uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	TenantID         string     `gorm:"column:tenant_id;not null;uniqueIndex:idx_attachment_tenant" json:"tenant_id"`
	AttachmentID     string     `gorm:"column:attachment_id;not null;uniqueIndex:idx_attachment_tenant" json:"attachment_id"`
	ClientUUID       uuid.UUID  `gorm:"column:client_uuid;type:uuid;not null;index" json:"client_uuid"`
	PolicyNumber     *string    `gorm:"column:policy_number" json:"policy_number,omitempty"`
	ResolutionMethod string     `gorm:"column:resolution_method;not null;default:'unresolved'" json:"resolution_method"`
	AL3TypeCode      string     `gorm:"column:al3_type_code" json:"al3_type_code"`
	FileExtension    string     `gorm:"column:file_extension" json:"file_extension"`
	FileSize         int64      `gorm:"column:file_size" json:"file_size"`
	Status           string     `gorm:"column:status;not null" json:"status"`
	RenewalBatchID   *uuid.UUID `gorm:"column:renewal_batch_id;type:uuid" json:"renewal_batch_id,omitempty"`
	ProcessedAt      time.Time  `gorm:"column:processed_at;not null" json:"processed_at"`
	CreatedAt        time.Time  `gorm:"not null;autoCreateTime" json:"created_at"`
}

func (HawksoftAttachmentLog) TableName() string { return "hawksoft_attachment_log" }
