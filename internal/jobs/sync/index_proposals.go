package sync

import (
	"context"
	"fmt"
	"time"

	"github.com/daofeed/daofeed-backend/internal/jobs/runtime"
	"github.com/daofeed/daofeed-backend/internal/pkg/dbctx"
	"github.com/daofeed/daofeed-backend/internal/snapshot"
	types "github.com/daofeed/daofeed-backend/internal/domain"
)

const JobTypeIndexProposals = "sync.index_proposals"

// IndexProposalsJob walks proposals created after the stream watermark,
// page by page, persisting each page and its votes before moving on. The
// watermark only advances after the rows it covers are durable, so a crash
// at any point re-fetches at most the uncommitted tail on the next run.
type IndexProposalsJob struct {
	deps      Deps
	refresher *SpaceRefresher
}

func NewIndexProposalsJob(deps Deps) *IndexProposalsJob {
	return &IndexProposalsJob{deps: deps, refresher: NewSpaceRefresher(deps)}
}

func (j *IndexProposalsJob) Type() string { return JobTypeIndexProposals }

func (j *IndexProposalsJob) Run(rc *runtime.Context) error {
	dbc := dbctx.Context{Ctx: rc.Ctx}
	now := j.deps.Clock.Now().UTC()

	var state *types.SyncState
	if err := rc.Step("load_watermark", func() error {
		var err error
		state, err = j.deps.Repos.SyncState.GetOrCreate(dbc, StreamProposals, initialWatermark(now), now)
		return err
	}); err != nil {
		rc.Fail("load_watermark", err)
		return err
	}
	watermark := state.LastCreatedAt
	maxCreated := watermark
	lastFlush := now

	var nProposals, nVotes int
	rc.Progress("indexing", 10, fmt.Sprintf("resuming after %s", watermark.Format(time.RFC3339)))

	err := rc.Step("indexing", func() error {
		return j.deps.Pager.Each(rc.Ctx, func(ctx context.Context, first, skip int) (int, error) {
			var resp snapshot.ProposalsResponse
			if err := j.deps.Hub.Query(ctx, snapshot.QueryProposalsSince, map[string]any{
				"first":     first,
				"skip":      skip,
				"createdGt": watermark.Unix(),
			}, &resp); err != nil {
				return 0, err
			}
			if len(resp.Proposals) == 0 {
				return 0, nil
			}

			if err := j.ingestPage(dbc, resp.Proposals); err != nil {
				return 0, err
			}
			nProposals += len(resp.Proposals)

			for _, p := range resp.Proposals {
				nv, err := ingestProposalVotes(dbc, j.deps, p.ID, j.deps.Clock.Now().UTC())
				if err != nil {
					return 0, err
				}
				nVotes += nv
				if created := p.CreatedAt(); created.After(maxCreated) {
					maxCreated = created
				}

				// Flush an intermediate watermark during long backfills, so
				// even a slow page resumes close to where it died.
				if wall := j.deps.Clock.Now().UTC(); wall.Sub(lastFlush) >= watermarkFlushEvery {
					if err := j.deps.Repos.SyncState.Advance(dbc, StreamProposals, maxCreated, wall); err != nil {
						return 0, err
					}
					lastFlush = wall
				}
			}

			rc.Progress("indexing", 50, fmt.Sprintf("%d proposals, %d votes so far", nProposals, nVotes))
			return len(resp.Proposals), nil
		})
	})
	if err != nil {
		rc.Fail("indexing", err)
		return err
	}

	if err := rc.Step("advance_watermark", func() error {
		return j.deps.Repos.SyncState.Advance(dbc, StreamProposals, maxCreated, j.deps.Clock.Now().UTC())
	}); err != nil {
		rc.Fail("advance_watermark", err)
		return err
	}

	rc.Succeed("done", map[string]any{
		"proposals":       nProposals,
		"votes":           nVotes,
		"last_created_at": maxCreated.Format(time.RFC3339),
	})
	return nil
}

// ingestPage persists one page of proposals. Space and author stubs go in
// first so the proposal rows never reference an absent space or user.
func (j *IndexProposalsJob) ingestPage(dbc dbctx.Context, page []snapshot.Proposal) error {
	now := j.deps.Clock.Now().UTC()

	spaceSeen := make(map[string]struct{})
	spaces := make([]*types.Space, 0)
	authors := make([]string, 0, len(page))
	proposals := make([]*types.Proposal, 0, len(page))
	for _, w := range page {
		proposals = append(proposals, toDomainProposal(w))
		authors = append(authors, w.Author)
		if w.Space.ID == "" {
			continue
		}
		if _, ok := spaceSeen[w.Space.ID]; ok {
			continue
		}
		spaceSeen[w.Space.ID] = struct{}{}
		// Stub spaces keep a zero last_indexed_at, so a space first seen
		// here counts as stale and gets refreshed below.
		spaces = append(spaces, &types.Space{
			ID:   w.Space.ID,
			Name: w.Space.Name,
		})
	}

	if err := j.deps.Repos.Space.EnsureExist(dbc, spaces); err != nil {
		return err
	}
	if err := j.deps.Repos.User.EnsureExist(dbc, authors, now); err != nil {
		return err
	}
	if err := j.deps.Repos.Proposal.InsertIgnore(dbc, proposals); err != nil {
		return err
	}
	j.refreshStaleSpaces(dbc, spaceSeen)
	return nil
}

// refreshStaleSpaces refreshes any space on this page whose metadata has
// gone stale. A refresh failure leaves the row stale, so the dedicated
// refresh run picks it up again.
func (j *IndexProposalsJob) refreshStaleSpaces(dbc dbctx.Context, seen map[string]struct{}) {
	for id := range seen {
		now := j.deps.Clock.Now().UTC()
		space, err := j.deps.Repos.Space.GetByID(dbc, id)
		if err != nil {
			j.deps.Log.Warn("space staleness check failed", "space", id, "error", err)
			continue
		}
		if space == nil || space.LastIndexedAt.After(now.Add(-spaceStaleAfter)) {
			continue
		}
		if err := j.refresher.Refresh(dbc, id, now); err != nil {
			j.deps.Log.Warn("inline space refresh failed", "space", id, "error", err)
		}
	}
}
