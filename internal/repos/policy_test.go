package repos

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/tcdsagency/renewals-backend/internal/repos/testutil"
	"github.com/tcdsagency/renewals-backend/internal/types"
)

func TestPolicyListExpiringInWindow(t *testing.T) {
	tx := testutil.Tx(t, testutil.DB(t))
	repo := NewPolicyRepo(tx, testutil.Logger(t))
	ctx := context.Background()
	tenant := "t-" + uuid.NewString()[:8]
	now := time.Now().UTC()

	seed := func(customerID int, number, status string, daysOut int) {
		if _, err := repo.Create(ctx, tx, []*types.Policy{{
			ID:             uuid.New(),
			TenantID:       tenant,
			CustomerID:     customerID,
			PolicyNumber:   number,
			Status:         status,
			ExpirationDate: now.AddDate(0, 0, daysOut),
		}}); err != nil {
			t.Fatalf("seed %s: %v", number, err)
		}
	}

	seed(1, "IN-WINDOW", types.PolicyStatusActive, 30)
	seed(1, "IN-WINDOW-2", types.PolicyStatusActive, 89)
	seed(2, "TOO-FAR", types.PolicyStatusActive, 120)
	seed(3, "ALREADY-GONE", types.PolicyStatusActive, -5)
	seed(4, "CANCELLED", "cancelled", 30)

	rows, err := repo.ListExpiringInWindow(ctx, tx, tenant, now, now.AddDate(0, 0, 90))
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected the two active in-window policies, got %d", len(rows))
	}
	for _, p := range rows {
		if p.CustomerID != 1 {
			t.Fatalf("unexpected policy in window: %+v", p)
		}
	}

	forCustomer, err := repo.ListExpiringForCustomer(ctx, tx, tenant, 1, now, now.AddDate(0, 0, 90))
	if err != nil || len(forCustomer) != 2 {
		t.Fatalf("per-customer list: %d, %v", len(forCustomer), err)
	}
}
