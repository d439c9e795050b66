package sync

import (
	"fmt"

	types "github.com/daofeed/daofeed-backend/internal/domain"
	"github.com/daofeed/daofeed-backend/internal/jobs/runtime"
	"github.com/daofeed/daofeed-backend/internal/pkg/dbctx"
)

const JobTypeEndedVotes = "sync.ended_votes"

// EndedVotesJob captures the final ballot set for proposals whose voting
// window has closed. Each proposal is handled independently: a fetch
// failure leaves votes_synced false so the proposal is retried on the next
// trigger, the rest of the batch still proceeds, and the run is reported
// failed after the loop.
type EndedVotesJob struct {
	deps Deps
}

func NewEndedVotesJob(deps Deps) *EndedVotesJob {
	return &EndedVotesJob{deps: deps}
}

func (j *EndedVotesJob) Type() string { return JobTypeEndedVotes }

func (j *EndedVotesJob) Run(rc *runtime.Context) error {
	dbc := dbctx.Context{Ctx: rc.Ctx}
	now := j.deps.Clock.Now().UTC()

	var pending []*types.Proposal
	if err := rc.Step("list_pending", func() error {
		var err error
		pending, err = j.deps.Repos.Proposal.ListEndedUnsynced(dbc, now)
		return err
	}); err != nil {
		rc.Fail("list_pending", err)
		return err
	}
	if len(pending) == 0 {
		rc.Succeed("done", map[string]any{"proposals": 0, "votes": 0})
		return nil
	}

	var synced, votes, failed int
	for i, p := range pending {
		select {
		case <-rc.Ctx.Done():
			rc.Fail("sync_votes", rc.Ctx.Err())
			return rc.Ctx.Err()
		default:
		}
		if i > 0 && j.deps.VotePause > 0 {
			if err := rc.Sleep(fmt.Sprintf("pause_%d", i), j.deps.VotePause); err != nil {
				rc.Fail("sync_votes", err)
				return err
			}
		}

		n, err := ingestProposalVotes(dbc, j.deps, p.ID, j.deps.Clock.Now().UTC())
		if err != nil {
			failed++
			rc.Log.Warn("final vote sync failed, will retry next run", "proposal", p.ID, "error", err)
			continue
		}
		if err := j.deps.Repos.Proposal.MarkVotesSynced(dbc, p.ID); err != nil {
			rc.Fail("mark_synced", err)
			return err
		}
		synced++
		votes += n
		rc.Progress("sync_votes", 10+80*(i+1)/len(pending), fmt.Sprintf("%d/%d proposals", i+1, len(pending)))
	}

	if failed > 0 {
		err := fmt.Errorf("%d of %d pending proposals failed to sync", failed, len(pending))
		rc.Fail("sync_votes", err)
		return err
	}

	rc.Succeed("done", map[string]any{
		"proposals": synced,
		"votes":     votes,
		"failed":    failed,
	})
	return nil
}
