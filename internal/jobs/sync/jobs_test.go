package sync

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/daofeed/daofeed-backend/internal/data/repos"
	"github.com/daofeed/daofeed-backend/internal/data/repos/testutil"
	types "github.com/daofeed/daofeed-backend/internal/domain"
	"github.com/daofeed/daofeed-backend/internal/jobs/runtime"
	"github.com/daofeed/daofeed-backend/internal/pkg/dbctx"
	"github.com/daofeed/daofeed-backend/internal/snapshot"
)

// testDeps wires jobs against a rolled-back transaction so runs leave no
// residue in the test database.
func testDeps(t *testing.T, hub snapshot.Client, clock clockwork.Clock) (Deps, *gorm.DB) {
	t.Helper()
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	log := testutil.Logger(t)
	return Deps{
		Hub:   hub,
		Pager: snapshot.NewPaginator(snapshot.BatchSize, 0, clock),
		Repos: repos.NewAll(tx, log),
		Clock: clock,
		Log:   log,
	}, tx
}

func testRuntime(t *testing.T, tx *gorm.DB, clock clockwork.Clock) *runtime.Context {
	t.Helper()
	return runtime.NewContext(context.Background(), tx, nil, nil, nil, clock, testutil.Logger(t))
}

func TestIndexProposalsJob(t *testing.T) {
	now := time.Date(2026, time.April, 10, 12, 0, 0, 0, time.UTC)
	clock := clockwork.NewFakeClockAt(now)
	created := time.Date(2026, time.April, 3, 8, 0, 0, 0, time.UTC)

	hub := &hubStub{
		proposalPages: []snapshot.ProposalsResponse{{
			Proposals: []snapshot.Proposal{{
				ID:      "prop-1",
				Title:   "fund the grants round",
				Choices: []string{"For", "Against"},
				Start:   created.Unix(),
				End:     created.Add(72 * time.Hour).Unix(),
				State:   "active",
				Author:  "0xalice",
				Created: created.Unix(),
				Space:   snapshot.ProposalSpace{ID: "dao.eth", Name: "DAO"},
			}},
		}},
		votes: map[string]snapshot.VotesResponse{
			"prop-1": {Votes: []snapshot.Vote{
				{ID: "v1", Voter: "0xbob", Choice: []byte("1"), Created: created.Add(time.Hour).Unix()},
				{ID: "v2", Voter: "0xcarol", Choice: []byte("2"), Created: created.Add(2 * time.Hour).Unix()},
			}},
		},
	}

	deps, tx := testDeps(t, hub, clock)
	job := NewIndexProposalsJob(deps)
	if err := job.Run(testRuntime(t, tx, clock)); err != nil {
		t.Fatalf("Run: %v", err)
	}

	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}

	var proposal types.Proposal
	if err := tx.WithContext(ctx).Where("id = ?", "prop-1").First(&proposal).Error; err != nil {
		t.Fatalf("proposal not stored: %v", err)
	}
	if proposal.SpaceID != "dao.eth" || !proposal.CreatedAt.Equal(created) {
		t.Fatalf("proposal mismatch: %+v", proposal)
	}

	votes, err := deps.Repos.Vote.ListByProposal(dbc, "prop-1")
	if err != nil || len(votes) != 2 {
		t.Fatalf("votes: err=%v len=%d", err, len(votes))
	}

	// Space stub and stub users were backfilled ahead of the rows that
	// reference them.
	space, err := deps.Repos.Space.GetByID(dbc, "dao.eth")
	if err != nil || space == nil {
		t.Fatalf("space stub: err=%v space=%v", err, space)
	}
	ids, err := deps.Repos.User.ExistingIDs(dbc, []string{"0xalice", "0xbob", "0xcarol"})
	if err != nil || len(ids) != 3 {
		t.Fatalf("user stubs: err=%v ids=%v", err, ids)
	}

	// Watermark lands exactly on the newest persisted created timestamp.
	state, err := deps.Repos.SyncState.GetOrCreate(dbc, StreamProposals, initialWatermark(now), now)
	if err != nil {
		t.Fatalf("sync state: %v", err)
	}
	if !state.LastCreatedAt.Equal(created) {
		t.Fatalf("watermark: got %v want %v", state.LastCreatedAt, created)
	}
}

func TestIndexProposalsJobFlushesWatermarkMidPage(t *testing.T) {
	now := time.Date(2026, time.April, 10, 12, 0, 0, 0, time.UTC)
	clock := clockwork.NewFakeClockAt(now)
	created1 := time.Date(2026, time.April, 3, 8, 0, 0, 0, time.UTC)
	created2 := time.Date(2026, time.April, 4, 8, 0, 0, 0, time.UTC)

	hub := &hubStub{
		proposalPages: []snapshot.ProposalsResponse{{
			Proposals: []snapshot.Proposal{
				{ID: "prop-1", Title: "one", Author: "0xalice", Created: created1.Unix(), Space: snapshot.ProposalSpace{ID: "dao.eth", Name: "DAO"}},
				{ID: "prop-2", Title: "two", Author: "0xalice", Created: created2.Unix(), Space: snapshot.ProposalSpace{ID: "dao.eth", Name: "DAO"}},
			},
		}},
		votes: map[string]snapshot.VotesResponse{
			"prop-1": {Votes: []snapshot.Vote{{ID: "v1", Voter: "0xbob", Choice: []byte("1"), Created: created1.Add(time.Hour).Unix()}}},
		},
		failVotesFor: "prop-2",
	}
	// Each vote fetch eats enough wall clock that the flush interval
	// elapses inside a single page.
	hub.onVotes = func() { clock.Advance(11 * time.Minute) }

	deps, tx := testDeps(t, hub, clock)
	job := NewIndexProposalsJob(deps)
	if err := job.Run(testRuntime(t, tx, clock)); err == nil {
		t.Fatalf("expected failure from the second vote fetch")
	}

	// The first proposal's work survived via the mid-page flush even
	// though the run died before the final advance.
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}
	state, err := deps.Repos.SyncState.Get(dbc, StreamProposals)
	if err != nil || state == nil {
		t.Fatalf("sync state: err=%v state=%v", err, state)
	}
	if !state.LastCreatedAt.Equal(created1) {
		t.Fatalf("watermark: got %v want %v", state.LastCreatedAt, created1)
	}
}

func TestEndedVotesJob(t *testing.T) {
	now := time.Date(2026, time.May, 2, 0, 0, 0, 0, time.UTC)
	clock := clockwork.NewFakeClockAt(now)

	hub := &hubStub{
		votes: map[string]snapshot.VotesResponse{
			"prop-ended": {Votes: []snapshot.Vote{
				{ID: "v1", Voter: "0xbob", Choice: []byte("1"), Created: now.Add(-48 * time.Hour).Unix()},
			}},
		},
	}
	deps, tx := testDeps(t, hub, clock)

	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	testutil.SeedSpace(t, ctx, tx, "dao.eth")
	testutil.SeedProposal(t, ctx, tx, "dao.eth", "prop-ended", now.Add(-100*time.Hour))

	job := NewEndedVotesJob(deps)
	if err := job.Run(testRuntime(t, tx, clock)); err != nil {
		t.Fatalf("Run: %v", err)
	}

	var p types.Proposal
	if err := tx.WithContext(ctx).Where("id = ?", "prop-ended").First(&p).Error; err != nil {
		t.Fatalf("load: %v", err)
	}
	if !p.VotesSynced {
		t.Fatalf("votes_synced not set")
	}
	votes, err := deps.Repos.Vote.ListByProposal(dbc, "prop-ended")
	if err != nil || len(votes) != 1 {
		t.Fatalf("votes: err=%v len=%d", err, len(votes))
	}
}

func TestEndedVotesJobFetchFailureLeavesProposalPending(t *testing.T) {
	now := time.Date(2026, time.May, 2, 0, 0, 0, 0, time.UTC)
	clock := clockwork.NewFakeClockAt(now)

	hub := &hubStub{failVotes: true}
	deps, tx := testDeps(t, hub, clock)

	ctx := context.Background()
	testutil.SeedSpace(t, ctx, tx, "dao.eth")
	testutil.SeedProposal(t, ctx, tx, "dao.eth", "prop-ended", now.Add(-100*time.Hour))

	job := NewEndedVotesJob(deps)
	if err := job.Run(testRuntime(t, tx, clock)); err == nil {
		t.Fatalf("expected failure when every proposal fails")
	}

	var p types.Proposal
	if err := tx.WithContext(ctx).Where("id = ?", "prop-ended").First(&p).Error; err != nil {
		t.Fatalf("load: %v", err)
	}
	if p.VotesSynced {
		t.Fatalf("failed fetch must not mark votes_synced")
	}
}

func TestEndedVotesJobPausesBetweenProposals(t *testing.T) {
	clock := clockwork.NewRealClock()
	now := clock.Now().UTC()

	deps, tx := testDeps(t, &hubStub{}, clock)
	deps.VotePause = time.Millisecond

	ctx := context.Background()
	testutil.SeedSpace(t, ctx, tx, "dao.eth")
	testutil.SeedProposal(t, ctx, tx, "dao.eth", "prop-a", now.Add(-200*time.Hour))
	testutil.SeedProposal(t, ctx, tx, "dao.eth", "prop-b", now.Add(-199*time.Hour))

	job := NewEndedVotesJob(deps)
	if err := job.Run(testRuntime(t, tx, clock)); err != nil {
		t.Fatalf("Run: %v", err)
	}

	var count int64
	if err := tx.WithContext(ctx).Model(&types.Proposal{}).
		Where("votes_synced = true").Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected both proposals synced across the pause, got %d", count)
	}
}

func TestRefreshSpacesJobReconcilesMembership(t *testing.T) {
	now := time.Date(2026, time.June, 1, 0, 0, 0, 0, time.UTC)
	clock := clockwork.NewFakeClockAt(now)

	hub := &hubStub{
		space: &snapshot.Space{
			ID:      "dao.eth",
			Name:    "DAO",
			Network: "1",
			Symbol:  "GOV",
			Members: []string{"0xalice", "0xbob"},
			Admins:  []string{"0xadmin"},
		},
		follows: []snapshot.Follow{{
			ID:       "f1",
			Follower: "0xcarol",
			Created:  now.Add(-time.Hour).Unix(),
		}},
		users: []snapshot.UserProfile{{
			ID:      "0xalice",
			Name:    "alice",
			Twitter: "alice_dao",
		}},
	}
	hub.follows[0].Space.ID = "dao.eth"

	deps, tx := testDeps(t, hub, clock)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}

	// Bob predates this refresh with no profile on the hub, so only the
	// roster reconcile can bump his last_indexed_at.
	bob := &types.User{ID: "0xbob", LastIndexedAt: now.Add(-48 * time.Hour)}
	if err := tx.WithContext(ctx).Create(bob).Error; err != nil {
		t.Fatalf("seed bob: %v", err)
	}

	// A stale row: last indexed well past the staleness cutoff.
	stale := &types.Space{
		ID:            "dao.eth",
		Name:          "DAO",
		Strategies:    datatypes.JSON([]byte("[]")),
		LastIndexedAt: now.Add(-24 * time.Hour),
	}
	if err := tx.WithContext(ctx).Create(stale).Error; err != nil {
		t.Fatalf("seed stale space: %v", err)
	}

	job := NewRefreshSpacesJob(deps)
	if err := job.Run(testRuntime(t, tx, clock)); err != nil {
		t.Fatalf("Run: %v", err)
	}

	active, err := deps.Repos.SpaceMember.ListActiveIDs(dbc, "dao.eth")
	if err != nil {
		t.Fatalf("ListActiveIDs: %v", err)
	}
	sort.Strings(active)
	if len(active) != 3 {
		t.Fatalf("active roster: %v", active)
	}

	var alice types.User
	if err := tx.WithContext(ctx).Where("id = ?", "0xalice").First(&alice).Error; err != nil {
		t.Fatalf("load alice: %v", err)
	}
	if alice.Name != "alice" || alice.Twitter != "alice_dao" {
		t.Fatalf("profile not refreshed: %+v", alice)
	}

	if err := tx.WithContext(ctx).Where("id = ?", "0xbob").First(bob).Error; err != nil {
		t.Fatalf("load bob: %v", err)
	}
	if !bob.LastIndexedAt.Equal(now) {
		t.Fatalf("roster member not marked indexed: %v", bob.LastIndexedAt)
	}

	follows, err := deps.Repos.Follow.ListBySpace(dbc, "dao.eth")
	if err != nil || len(follows) != 1 || follows[0].Follower != "0xcarol" {
		t.Fatalf("follows: err=%v %+v", err, follows)
	}

	// Second refresh with bob gone from the roster.
	clock.Advance(7 * time.Hour)
	hub.space.Members = []string{"0xalice"}

	if err := job.Run(testRuntime(t, tx, clock)); err != nil {
		t.Fatalf("second Run: %v", err)
	}
	active, err = deps.Repos.SpaceMember.ListActiveIDs(dbc, "dao.eth")
	if err != nil {
		t.Fatalf("ListActiveIDs second: %v", err)
	}
	sort.Strings(active)
	if len(active) != 2 || active[0] != "0xadmin" || active[1] != "0xalice" {
		t.Fatalf("roster after drop: %v", active)
	}

	all, err := deps.Repos.SpaceMember.ListBySpace(dbc, "dao.eth")
	if err != nil {
		t.Fatalf("ListBySpace: %v", err)
	}
	for _, m := range all {
		if m.MemberID == "0xbob" && (m.IsActive || m.RemovedAt == nil) {
			t.Fatalf("bob not soft-removed: %+v", m)
		}
	}
}

func TestMonthlyActivityJob(t *testing.T) {
	now := time.Date(2026, time.August, 1, 1, 0, 0, 0, time.UTC)
	clock := clockwork.NewFakeClockAt(now)

	deps, tx := testDeps(t, &hubStub{}, clock)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}

	july := time.Date(2026, time.July, 10, 0, 0, 0, 0, time.UTC)
	testutil.SeedSpace(t, ctx, tx, "dao.eth")
	p := testutil.SeedProposal(t, ctx, tx, "dao.eth", "prop-july", july)
	testutil.SeedVote(t, ctx, tx, p.ID, "0xbob", july.Add(time.Hour))
	testutil.SeedVote(t, ctx, tx, p.ID, "0xcarol", july.Add(2*time.Hour))
	// June activity stays out of the July table.
	testutil.SeedProposal(t, ctx, tx, "dao.eth", "prop-june", july.AddDate(0, -1, 0))

	job := NewMonthlyActivityJob(deps)
	if err := job.Run(testRuntime(t, tx, clock)); err != nil {
		t.Fatalf("Run: %v", err)
	}

	board, err := deps.Repos.MonthlyActivity.Leaderboard(dbc, "2026", "07", 10)
	if err != nil {
		t.Fatalf("Leaderboard: %v", err)
	}
	if len(board) != 3 {
		t.Fatalf("expected 3 users, got %d", len(board))
	}
	row, err := deps.Repos.MonthlyActivity.Get(dbc, "0xauthor", "2026", "07")
	if err != nil || row == nil {
		t.Fatalf("author row: err=%v row=%v", err, row)
	}
	if row.ProposalsCount != 1 || row.VotesCount != 0 {
		t.Fatalf("author counts: %+v", row)
	}
}
