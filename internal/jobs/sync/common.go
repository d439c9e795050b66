package sync

import (
	"encoding/json"
	"time"

	"github.com/jonboulle/clockwork"
	"gorm.io/datatypes"

	"github.com/daofeed/daofeed-backend/internal/data/repos"
	types "github.com/daofeed/daofeed-backend/internal/domain"
	"github.com/daofeed/daofeed-backend/internal/pkg/dbctx"
	"github.com/daofeed/daofeed-backend/internal/platform/logger"
	"github.com/daofeed/daofeed-backend/internal/snapshot"
)

const (
	// StreamProposals is the sync_state row key for the proposal indexer.
	StreamProposals = "proposals"

	// A space whose metadata is older than this is due for a refresh.
	spaceStaleAfter = 6 * time.Hour

	// The indexer flushes an intermediate watermark at this cadence so a
	// crash mid-backfill loses at most this much progress.
	watermarkFlushEvery = 10 * time.Minute
)

// initialWatermark seeds a fresh proposal stream at April 1 UTC of the
// current year, bounding the first backfill.
func initialWatermark(now time.Time) time.Time {
	return time.Date(now.UTC().Year(), time.April, 1, 0, 0, 0, 0, time.UTC)
}

// Deps bundles what every sync job needs. One value is built at worker
// startup and shared across handlers.
type Deps struct {
	Hub   snapshot.Client
	Pager *snapshot.Paginator
	Repos *repos.All
	Clock clockwork.Clock
	Log   *logger.Logger

	// VotePause spaces out the per-proposal vote fetches in the ended-votes
	// sweep. Zero disables the pause.
	VotePause time.Duration
}

func rawJSON(v any) datatypes.JSON {
	if v == nil {
		return datatypes.JSON([]byte("null"))
	}
	b, err := json.Marshal(v)
	if err != nil {
		return datatypes.JSON([]byte("null"))
	}
	return datatypes.JSON(b)
}

func toDomainProposal(w snapshot.Proposal) *types.Proposal {
	return &types.Proposal{
		ID:          w.ID,
		SpaceID:     w.Space.ID,
		Title:       w.Title,
		Body:        w.Body,
		Choices:     rawJSON(w.Choices),
		Start:       w.StartAt(),
		End:         w.EndAt(),
		Snapshot:    w.Snapshot,
		State:       w.State,
		Author:      w.Author,
		Scores:      rawJSON(w.Scores),
		ScoresTotal: w.ScoresTotal.String(),
		CreatedAt:   w.CreatedAt(),
	}
}

func toDomainVote(w snapshot.Vote, proposalID string) *types.Vote {
	choice := datatypes.JSON(w.Choice)
	if len(w.Choice) == 0 {
		choice = datatypes.JSON([]byte("null"))
	}
	return &types.Vote{
		ID:         w.ID,
		Voter:      w.Voter,
		ProposalID: proposalID,
		Choice:     choice,
		Created:    w.CreatedAt(),
	}
}

func toDomainFollow(w snapshot.Follow, now time.Time) *types.Follow {
	return &types.Follow{
		ID:            w.ID,
		Follower:      w.Follower,
		SpaceID:       w.Space.ID,
		Created:       w.CreatedAt(),
		LastIndexedAt: now,
	}
}

func toDomainProfile(w snapshot.UserProfile, now time.Time) *types.User {
	return &types.User{
		ID:            w.ID,
		Name:          w.Name,
		About:         w.About,
		Avatar:        w.Avatar,
		Twitter:       w.Twitter,
		Lens:          w.Lens,
		Farcaster:     w.Farcaster,
		LastIndexedAt: now,
	}
}

// ingestProposalVotes captures the current ballot set for one proposal:
// fetch up to one page of votes newest-first, backfill stub users for any
// unknown voter, then upsert the votes. Voter stubs land first so the vote
// rows never reference an absent user.
func ingestProposalVotes(dbc dbctx.Context, deps Deps, proposalID string, now time.Time) (int, error) {
	var resp snapshot.VotesResponse
	err := deps.Hub.Query(dbc.Ctx, snapshot.QueryProposalVotes, map[string]any{
		"first":    snapshot.BatchSize,
		"proposal": proposalID,
	}, &resp)
	if err != nil {
		return 0, err
	}
	if len(resp.Votes) == 0 {
		return 0, nil
	}

	voters := make([]string, 0, len(resp.Votes))
	votes := make([]*types.Vote, 0, len(resp.Votes))
	for _, v := range resp.Votes {
		voters = append(voters, v.Voter)
		votes = append(votes, toDomainVote(v, proposalID))
	}

	if err := deps.Repos.User.EnsureExist(dbc, voters, now); err != nil {
		return 0, err
	}
	if err := deps.Repos.Vote.BulkUpsert(dbc, votes); err != nil {
		return 0, err
	}
	if err := deps.Repos.User.SetLastVote(dbc, voters, proposalID); err != nil {
		return 0, err
	}
	return len(votes), nil
}
