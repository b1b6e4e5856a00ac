package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/tcdsagency/renewals-backend/internal/clients/hawksoft"
	"github.com/tcdsagency/renewals-backend/internal/repos"
	"github.com/tcdsagency/renewals-backend/internal/repos/testutil"
	"github.com/tcdsagency/renewals-backend/internal/types"
)

func TestUUIDSyncBackfillsMatchingIdentities(t *testing.T) {
	log := testutil.Logger(t)
	tx := testutil.Tx(t, testutil.DB(t))
	identities := repos.NewClientIdentityRepo(tx, log)
	hs := newFakeHawksoft()
	svc := NewUUIDSyncService(log, hs, identities)

	tenant := "t-" + uuid.NewString()[:8]
	cloudA, cloudB := uuid.New(), uuid.New()

	idA := uuid.New()
	idB := uuid.New()
	_, err := identities.Create(context.Background(), tx, []*types.ClientIdentity{
		{ID: idA, TenantID: tenant, ClientCode: "ADAMS01", CustomerID: 1},
		{ID: idB, TenantID: tenant, ClientCode: "BAKER01", CustomerID: 2, CloudUUID: &cloudB},
		{ID: uuid.New(), TenantID: tenant, ClientCode: "ZEBRA01", CustomerID: 3},
	})
	if err != nil {
		t.Fatalf("seed identities: %v", err)
	}

	hs.searchByPfx["a"] = []hawksoft.ClientSummary{{ClientUUID: cloudA, ClientCode: "ADAMS01", ClientNumber: 1}}
	hs.searchByPfx["b"] = []hawksoft.ClientSummary{{ClientUUID: cloudB, ClientCode: "BAKER01", ClientNumber: 2}}

	res, err := svc.Sync(context.Background(), tenant)
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	if res.Prefixes != 36 {
		t.Fatalf("all prefixes should be walked, got %d", res.Prefixes)
	}
	if res.Found != 2 || res.Matched != 2 {
		t.Fatalf("found/matched: %+v", res)
	}
	// BAKER01 already carried the right UUID; only ADAMS01 needs a write.
	if res.Updated != 1 {
		t.Fatalf("updated: %+v", res)
	}

	identity, err := identities.GetByCustomerID(context.Background(), tx, tenant, 1)
	if err != nil || identity == nil {
		t.Fatalf("identity lookup: %v %v", identity, err)
	}
	if identity.CloudUUID == nil || *identity.CloudUUID != cloudA {
		t.Fatalf("cloud UUID not backfilled: %+v", identity.CloudUUID)
	}
}

func TestUUIDSyncToleratesPrefixFailures(t *testing.T) {
	log := testutil.Logger(t)
	tx := testutil.Tx(t, testutil.DB(t))
	identities := repos.NewClientIdentityRepo(tx, log)
	hs := newFakeHawksoft()
	svc := NewUUIDSyncService(log, hs, identities)

	tenant := "t-" + uuid.NewString()[:8]
	cloudM := uuid.New()
	_, err := identities.Create(context.Background(), tx, []*types.ClientIdentity{
		{ID: uuid.New(), TenantID: tenant, ClientCode: "MILLER01", CustomerID: 9},
	})
	if err != nil {
		t.Fatalf("seed identities: %v", err)
	}

	hs.searchErr["a"] = errors.New("directory timeout")
	hs.searchByPfx["m"] = []hawksoft.ClientSummary{{ClientUUID: cloudM, ClientCode: "MILLER01", ClientNumber: 9}}

	res, err := svc.Sync(context.Background(), tenant)
	if err != nil {
		t.Fatalf("one bad prefix must not fail the sync: %v", err)
	}
	if res.Errors != 1 || res.Updated != 1 {
		t.Fatalf("errors/updated: %+v", res)
	}
}
