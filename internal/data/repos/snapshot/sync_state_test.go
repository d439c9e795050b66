package snapshot

import (
	"context"
	"testing"
	"time"

	"github.com/daofeed/daofeed-backend/internal/data/repos/testutil"
	"github.com/daofeed/daofeed-backend/internal/pkg/dbctx"
)

func TestSyncStateRepoMonotonicAdvance(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewSyncStateRepo(db, testutil.Logger(t))

	now := time.Now().UTC().Truncate(time.Second)
	initial := time.Date(now.Year(), time.April, 1, 0, 0, 0, 0, time.UTC)

	state, err := repo.GetOrCreate(dbc, "proposals", initial, now)
	if err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	if !state.LastCreatedAt.Equal(initial) {
		t.Fatalf("seed watermark: got %v want %v", state.LastCreatedAt, initial)
	}

	// Second call returns the existing row, not a re-seed.
	state2, err := repo.GetOrCreate(dbc, "proposals", initial.AddDate(1, 0, 0), now)
	if err != nil {
		t.Fatalf("GetOrCreate second: %v", err)
	}
	if !state2.LastCreatedAt.Equal(initial) {
		t.Fatalf("re-seed clobbered watermark: %v", state2.LastCreatedAt)
	}

	forward := initial.Add(48 * time.Hour)
	if err := repo.Advance(dbc, "proposals", forward, now); err != nil {
		t.Fatalf("Advance: %v", err)
	}

	// A stale candidate must never rewind the watermark.
	if err := repo.Advance(dbc, "proposals", initial.Add(time.Hour), now); err != nil {
		t.Fatalf("Advance stale: %v", err)
	}

	state3, err := repo.GetOrCreate(dbc, "proposals", initial, now)
	if err != nil {
		t.Fatalf("GetOrCreate reload: %v", err)
	}
	if !state3.LastCreatedAt.Equal(forward) {
		t.Fatalf("watermark rewound: got %v want %v", state3.LastCreatedAt, forward)
	}
}
