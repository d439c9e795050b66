package sync

import (
	"fmt"
	"time"

	types "github.com/daofeed/daofeed-backend/internal/domain"
	"github.com/daofeed/daofeed-backend/internal/jobs/runtime"
	"github.com/daofeed/daofeed-backend/internal/pkg/dbctx"
	"github.com/daofeed/daofeed-backend/internal/snapshot"
)

const JobTypeRefreshSpaces = "sync.refresh_spaces"

// SpaceRefresher pulls one space's current metadata, roster, follows, and
// member profiles from the hub and reconciles them into the store.
type SpaceRefresher struct {
	deps    Deps
	members *Reconciler
}

func NewSpaceRefresher(deps Deps) *SpaceRefresher {
	return &SpaceRefresher{
		deps:    deps,
		members: NewReconciler(deps.Repos.User, deps.Repos.SpaceMember, deps.Log),
	}
}

func (r *SpaceRefresher) Refresh(dbc dbctx.Context, spaceID string, now time.Time) error {
	var resp snapshot.SpaceResponse
	if err := r.deps.Hub.Query(dbc.Ctx, snapshot.QuerySpace, map[string]any{"id": spaceID}, &resp); err != nil {
		return err
	}
	if resp.Space == nil {
		// Deleted or renamed on the hub. Bump last_indexed_at so the
		// stale scan does not pick it up again immediately.
		r.deps.Log.Warn("space missing on hub", "space", spaceID)
		return r.deps.Repos.Space.Touch(dbc, spaceID, now)
	}

	space := &types.Space{
		ID:            resp.Space.ID,
		Name:          resp.Space.Name,
		About:         resp.Space.About,
		Network:       resp.Space.Network,
		Symbol:        resp.Space.Symbol,
		Strategies:    rawJSON(resp.Space.Strategies),
		LastIndexedAt: now,
	}
	if err := r.deps.Repos.Space.Upsert(dbc, space); err != nil {
		return err
	}

	// Admins hold membership too; the roster is the union.
	roster := append(append([]string{}, resp.Space.Members...), resp.Space.Admins...)
	if _, _, err := r.members.Reconcile(dbc, spaceID, roster, now); err != nil {
		return err
	}

	if err := r.refreshProfiles(dbc, roster, now); err != nil {
		return err
	}
	return r.refreshFollows(dbc, spaceID, now)
}

func (r *SpaceRefresher) refreshProfiles(dbc dbctx.Context, ids []string, now time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	var resp snapshot.UsersResponse
	if err := r.deps.Hub.Query(dbc.Ctx, snapshot.QueryUsers, map[string]any{"ids": ids}, &resp); err != nil {
		return err
	}
	profiles := make([]*types.User, 0, len(resp.Users))
	for _, u := range resp.Users {
		profiles = append(profiles, toDomainProfile(u, now))
	}
	return r.deps.Repos.User.UpsertProfiles(dbc, profiles)
}

func (r *SpaceRefresher) refreshFollows(dbc dbctx.Context, spaceID string, now time.Time) error {
	var resp snapshot.FollowsResponse
	if err := r.deps.Hub.Query(dbc.Ctx, snapshot.QuerySpaceFollows, map[string]any{
		"first": snapshot.BatchSize,
		"space": spaceID,
	}, &resp); err != nil {
		return err
	}
	if len(resp.Follows) == 0 {
		return nil
	}
	followers := make([]string, 0, len(resp.Follows))
	follows := make([]*types.Follow, 0, len(resp.Follows))
	for _, f := range resp.Follows {
		followers = append(followers, f.Follower)
		follows = append(follows, toDomainFollow(f, now))
	}
	if err := r.deps.Repos.User.EnsureExist(dbc, followers, now); err != nil {
		return err
	}
	return r.deps.Repos.Follow.BulkUpsert(dbc, follows)
}

// RefreshSpacesJob refreshes every space whose metadata has gone stale.
// Spaces fail independently; one bad space does not block the rest.
type RefreshSpacesJob struct {
	deps      Deps
	refresher *SpaceRefresher
}

func NewRefreshSpacesJob(deps Deps) *RefreshSpacesJob {
	return &RefreshSpacesJob{deps: deps, refresher: NewSpaceRefresher(deps)}
}

func (j *RefreshSpacesJob) Type() string { return JobTypeRefreshSpaces }

func (j *RefreshSpacesJob) Run(rc *runtime.Context) error {
	dbc := dbctx.Context{Ctx: rc.Ctx}
	now := j.deps.Clock.Now().UTC()

	var stale []*types.Space
	if err := rc.Step("list_stale", func() error {
		var err error
		stale, err = j.deps.Repos.Space.ListStale(dbc, now.Add(-spaceStaleAfter))
		return err
	}); err != nil {
		rc.Fail("list_stale", err)
		return err
	}
	if len(stale) == 0 {
		rc.Succeed("done", map[string]any{"spaces": 0})
		return nil
	}

	var refreshed, failed int
	for i, s := range stale {
		select {
		case <-rc.Ctx.Done():
			rc.Fail("refresh", rc.Ctx.Err())
			return rc.Ctx.Err()
		default:
		}

		if err := j.refresher.Refresh(dbc, s.ID, j.deps.Clock.Now().UTC()); err != nil {
			failed++
			rc.Log.Warn("space refresh failed, will retry next run", "space", s.ID, "error", err)
			continue
		}
		refreshed++
		rc.Progress("refresh", 10+80*(i+1)/len(stale), fmt.Sprintf("%d/%d spaces", i+1, len(stale)))
	}

	if failed == len(stale) {
		err := fmt.Errorf("all %d stale spaces failed to refresh", failed)
		rc.Fail("refresh", err)
		return err
	}

	rc.Succeed("done", map[string]any{
		"spaces": refreshed,
		"failed": failed,
	})
	return nil
}
