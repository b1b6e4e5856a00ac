package db

import (
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/tcdsagency/renewals-backend/internal/types"
)

// The test helpers fall back to in-memory SQLite when no Postgres DSN
// is configured, so every model tag must migrate cleanly there too.
func TestAutoMigrateAllOnSQLite(t *testing.T) {
	gdb, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   gormLogger.Default.LogMode(gormLogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := AutoMigrateAll(gdb); err != nil {
		t.Fatalf("migrate all models: %v", err)
	}

	for _, model := range []any{
		&types.Policy{},
		&types.ClientIdentity{},
		&types.RenewalBatch{},
		&types.HawksoftAttachmentLog{},
		&types.RenewalComparison{},
	} {
		if !gdb.Migrator().HasTable(model) {
			t.Fatalf("missing table for %T", model)
		}
	}
}
