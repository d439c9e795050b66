package snapshot

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/daofeed/daofeed-backend/internal/data/repos/testutil"
	types "github.com/daofeed/daofeed-backend/internal/domain"
	"github.com/daofeed/daofeed-backend/internal/pkg/dbctx"
)

func TestSpaceMemberRepoReconcileCycle(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewSpaceMemberRepo(db, testutil.Logger(t))

	now := time.Now().UTC().Truncate(time.Second)
	testutil.SeedSpace(t, ctx, tx, "dao.eth")

	initial := []*types.SpaceMember{
		{SpaceID: "dao.eth", MemberID: "0xalice", AddedAt: now, IsActive: true},
		{SpaceID: "dao.eth", MemberID: "0xbob", AddedAt: now, IsActive: true},
	}
	if err := repo.UpsertActive(dbc, initial); err != nil {
		t.Fatalf("UpsertActive: %v", err)
	}

	// Next refresh: bob dropped, carol added.
	later := now.Add(time.Hour)
	if _, err := repo.DeactivateAll(dbc, "dao.eth", later); err != nil {
		t.Fatalf("DeactivateAll: %v", err)
	}
	next := []*types.SpaceMember{
		{SpaceID: "dao.eth", MemberID: "0xalice", AddedAt: later, IsActive: true},
		{SpaceID: "dao.eth", MemberID: "0xcarol", AddedAt: later, IsActive: true},
	}
	if err := repo.UpsertActive(dbc, next); err != nil {
		t.Fatalf("UpsertActive second: %v", err)
	}

	active, err := repo.ListActiveIDs(dbc, "dao.eth")
	if err != nil {
		t.Fatalf("ListActiveIDs: %v", err)
	}
	sort.Strings(active)
	if len(active) != 2 || active[0] != "0xalice" || active[1] != "0xcarol" {
		t.Fatalf("unexpected active set: %v", active)
	}

	// Bob's row is retained as a soft-deleted record.
	all, err := repo.ListBySpace(dbc, "dao.eth")
	if err != nil {
		t.Fatalf("ListBySpace: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 membership rows, got %d", len(all))
	}
	for _, m := range all {
		if m.MemberID != "0xbob" {
			continue
		}
		if m.IsActive || m.RemovedAt == nil {
			t.Fatalf("dropped member not soft-removed: active=%v removed=%v", m.IsActive, m.RemovedAt)
		}
	}
}
