package types

import (
	"time"

	"github.com/google/uuid"
)

const (
	BatchStatusUploaded   = "uploaded"
	BatchStatusProcessing = "processing"
	BatchStatusCompared   = "compared"
	BatchStatusFailed     = "failed"
)

// RenewalBatch is one unit of ingested renewal material: either a single
// AL3 attachment downloaded by the poller or one manually uploaded archive.
// Rows are append-only; the subsystem never deletes them.
type RenewalBatch struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	TenantID         string    `gorm:"column:tenant_id;not null;index" json:"tenant_id"`
	OriginalFileName string    `gorm:"column:original_file_name;not null" json:"original_file_name"`
	FileSize         int64     `gorm:"column:file_size;not null" json:"file_size"`
	StoragePath      *string   `gorm:"column:storage_path" json:"storage_path,omitempty"`
	Status           string    `gorm:"column:status;not null;default:'uploaded';index" json:"status"`
	ErrorMessage     *string   `gorm:"column:error_message" json:"error_message,omitempty"`
	UploadedByID     *string   `gorm:"column:uploaded_by_id" json:"uploaded_by_id,omitempty"`
	CreatedAt        time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

func (RenewalBatch) TableName() string { return "renewal_batch" }
