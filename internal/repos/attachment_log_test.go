package repos

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/tcdsagency/renewals-backend/internal/repos/testutil"
	"github.com/tcdsagency/renewals-backend/internal/types"
)

func logRow(tenantID, attachmentID, status string) *types.HawksoftAttachmentLog {
	return &types.HawksoftAttachmentLog{
		ID:           uuid.New(),
		TenantID:     tenantID,
		AttachmentID: attachmentID,
		ClientUUID:   uuid.New(),
		Status:       status,
		ProcessedAt:  time.Now().UTC(),
	}
}

func TestAttachmentLogCreateIfAbsent(t *testing.T) {
	tx := testutil.Tx(t, testutil.DB(t))
	repo := NewAttachmentLogRepo(tx, testutil.Logger(t))
	ctx := context.Background()
	tenant := "t-" + uuid.NewString()[:8]

	inserted, err := repo.CreateIfAbsent(ctx, tx, logRow(tenant, "att-1", types.AttachmentStatusDownloaded))
	if err != nil {
		t.Fatalf("first insert: %v", err)
	}
	if !inserted {
		t.Fatalf("first insert should report inserted")
	}

	inserted, err = repo.CreateIfAbsent(ctx, tx, logRow(tenant, "att-1", types.AttachmentStatusDownloaded))
	if err != nil {
		t.Fatalf("duplicate insert: %v", err)
	}
	if inserted {
		t.Fatalf("duplicate (tenant, attachment) must not insert")
	}

	// Same attachment under a different tenant is a distinct row.
	inserted, err = repo.CreateIfAbsent(ctx, tx, logRow(tenant+"-other", "att-1", types.AttachmentStatusDownloaded))
	if err != nil {
		t.Fatalf("other-tenant insert: %v", err)
	}
	if !inserted {
		t.Fatalf("tenant scoping broken: other tenant should insert")
	}
}

func TestAttachmentLogExistsAndList(t *testing.T) {
	tx := testutil.Tx(t, testutil.DB(t))
	repo := NewAttachmentLogRepo(tx, testutil.Logger(t))
	ctx := context.Background()
	tenant := "t-" + uuid.NewString()[:8]

	if _, err := repo.CreateIfAbsent(ctx, tx, logRow(tenant, "att-1", types.AttachmentStatusDownloaded)); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if _, err := repo.CreateIfAbsent(ctx, tx, logRow(tenant, "att-2", types.AttachmentStatusSkipped)); err != nil {
		t.Fatalf("insert: %v", err)
	}

	exists, err := repo.Exists(ctx, tx, tenant, "att-1")
	if err != nil || !exists {
		t.Fatalf("Exists(att-1) = %v, %v", exists, err)
	}
	exists, err = repo.Exists(ctx, tx, tenant, "att-404")
	if err != nil || exists {
		t.Fatalf("Exists(att-404) = %v, %v", exists, err)
	}

	all, err := repo.ListByTenant(ctx, tx, tenant, "", 0)
	if err != nil || len(all) != 2 {
		t.Fatalf("ListByTenant all: %d rows, %v", len(all), err)
	}
	skipped, err := repo.ListByTenant(ctx, tx, tenant, types.AttachmentStatusSkipped, 0)
	if err != nil || len(skipped) != 1 || skipped[0].AttachmentID != "att-2" {
		t.Fatalf("ListByTenant skipped: %+v, %v", skipped, err)
	}
}
