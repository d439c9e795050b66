package jobs

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/daofeed/daofeed-backend/internal/data/repos/testutil"
	types "github.com/daofeed/daofeed-backend/internal/domain"
	"github.com/daofeed/daofeed-backend/internal/pkg/dbctx"
)

func TestJobRunEventRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewJobRunEventRepo(db, testutil.Logger(t))

	now := time.Now().UTC().Truncate(time.Second)
	runID := uuid.New()
	otherRunID := uuid.New()

	timeline := []*types.JobRunEvent{
		{JobRunID: runID, JobType: "sync.index_proposals", Kind: types.JobEventProgress, Stage: "indexing", Progress: 50, CreatedAt: now},
		{JobRunID: runID, JobType: "sync.index_proposals", Kind: types.JobEventSucceeded, Stage: "done", Progress: 100, CreatedAt: now.Add(time.Minute)},
		{JobRunID: otherRunID, JobType: "sync.ended_votes", Kind: types.JobEventFailed, Stage: "sync_votes", Message: "hub down", CreatedAt: now.Add(2 * time.Minute)},
	}
	for _, ev := range timeline {
		if err := repo.Append(dbc, ev); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	got, err := repo.ListByRun(dbc, runID)
	if err != nil {
		t.Fatalf("ListByRun: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 events for run, got %d", len(got))
	}
	// Oldest first: the progress event precedes the terminal one.
	if got[0].Kind != types.JobEventProgress || got[1].Kind != types.JobEventSucceeded {
		t.Fatalf("timeline order: %s then %s", got[0].Kind, got[1].Kind)
	}

	recent, err := repo.ListRecent(dbc, 2)
	if err != nil {
		t.Fatalf("ListRecent: %v", err)
	}
	if len(recent) != 2 || recent[0].Kind != types.JobEventFailed {
		t.Fatalf("ListRecent: %+v", recent)
	}
}
