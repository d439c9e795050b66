package snapshot

import (
	"context"
	"testing"
	"time"

	"gorm.io/datatypes"

	"github.com/daofeed/daofeed-backend/internal/data/repos/testutil"
	types "github.com/daofeed/daofeed-backend/internal/domain"
	"github.com/daofeed/daofeed-backend/internal/pkg/dbctx"
)

func TestProposalRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewProposalRepo(db, testutil.Logger(t))

	now := time.Now().UTC().Truncate(time.Second)
	testutil.SeedSpace(t, ctx, tx, "dao.eth")

	ended := &types.Proposal{
		ID:        "prop-ended",
		SpaceID:   "dao.eth",
		Title:     "ended",
		Choices:   datatypes.JSON([]byte(`["For","Against"]`)),
		Start:     now.Add(-96 * time.Hour),
		End:       now.Add(-24 * time.Hour),
		Author:    "0xaaa",
		Scores:    datatypes.JSON([]byte("[]")),
		CreatedAt: now.Add(-96 * time.Hour),
	}
	open := &types.Proposal{
		ID:        "prop-open",
		SpaceID:   "dao.eth",
		Title:     "open",
		Choices:   datatypes.JSON([]byte(`["For","Against"]`)),
		Start:     now.Add(-1 * time.Hour),
		End:       now.Add(71 * time.Hour),
		Author:    "0xbbb",
		Scores:    datatypes.JSON([]byte("[]")),
		CreatedAt: now.Add(-1 * time.Hour),
	}
	if err := repo.InsertIgnore(dbc, []*types.Proposal{ended, open}); err != nil {
		t.Fatalf("InsertIgnore: %v", err)
	}

	// A replayed batch with a mutated title must not touch the stored row.
	replay := *ended
	replay.Title = "mutated"
	if err := repo.InsertIgnore(dbc, []*types.Proposal{&replay}); err != nil {
		t.Fatalf("InsertIgnore replay: %v", err)
	}
	var stored types.Proposal
	if err := tx.WithContext(ctx).Where("id = ?", "prop-ended").First(&stored).Error; err != nil {
		t.Fatalf("load: %v", err)
	}
	if stored.Title != "ended" {
		t.Fatalf("replay overwrote title: %q", stored.Title)
	}

	unsynced, err := repo.ListEndedUnsynced(dbc, now)
	if err != nil {
		t.Fatalf("ListEndedUnsynced: %v", err)
	}
	if len(unsynced) != 1 || unsynced[0].ID != "prop-ended" {
		t.Fatalf("ListEndedUnsynced: got %d rows", len(unsynced))
	}

	if err := repo.MarkVotesSynced(dbc, "prop-ended"); err != nil {
		t.Fatalf("MarkVotesSynced: %v", err)
	}
	unsynced, err = repo.ListEndedUnsynced(dbc, now)
	if err != nil {
		t.Fatalf("ListEndedUnsynced after mark: %v", err)
	}
	if len(unsynced) != 0 {
		t.Fatalf("expected no unsynced proposals, got %d", len(unsynced))
	}
	// Marking again is a no-op, not an error.
	if err := repo.MarkVotesSynced(dbc, "prop-ended"); err != nil {
		t.Fatalf("MarkVotesSynced twice: %v", err)
	}

	counts, err := repo.CountByAuthorBetween(dbc, now.Add(-200*time.Hour), now)
	if err != nil {
		t.Fatalf("CountByAuthorBetween: %v", err)
	}
	got := map[string]int{}
	for _, c := range counts {
		got[c.UserID] = c.Count
	}
	if got["0xaaa"] != 1 || got["0xbbb"] != 1 {
		t.Fatalf("unexpected author counts: %v", got)
	}
}
