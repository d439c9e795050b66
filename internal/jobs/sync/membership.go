package sync

import (
	"time"

	"github.com/daofeed/daofeed-backend/internal/data/repos"
	types "github.com/daofeed/daofeed-backend/internal/domain"
	"github.com/daofeed/daofeed-backend/internal/pkg/dbctx"
	"github.com/daofeed/daofeed-backend/internal/platform/logger"
)

// Reconciler replaces a space's member set with the roster from the latest
// hub fetch. Deactivate-then-reactivate makes the result a pure function of
// the fetched roster: members missing from it end up soft-removed, members
// present end up active, regardless of the previous state.
type Reconciler struct {
	users   repos.UserRepo
	members repos.SpaceMemberRepo
	log     *logger.Logger
}

func NewReconciler(users repos.UserRepo, members repos.SpaceMemberRepo, baseLog *logger.Logger) *Reconciler {
	return &Reconciler{
		users:   users,
		members: members,
		log:     baseLog.With("component", "MembershipReconciler"),
	}
}

// Reconcile returns the active member count after the swap and how many
// previously active rows were deactivated before re-activation.
func (r *Reconciler) Reconcile(dbc dbctx.Context, spaceID string, memberIDs []string, now time.Time) (int, int64, error) {
	seen := make(map[string]struct{}, len(memberIDs))
	rows := make([]*types.SpaceMember, 0, len(memberIDs))
	ids := make([]string, 0, len(memberIDs))
	for _, id := range memberIDs {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
		rows = append(rows, &types.SpaceMember{
			SpaceID:  spaceID,
			MemberID: id,
			AddedAt:  now,
			IsActive: true,
		})
	}

	// A refresh touched every identity on the roster, so missing users are
	// created and existing ones get their last_indexed_at bumped.
	if err := r.users.EnsureIndexed(dbc, ids, now); err != nil {
		return 0, 0, err
	}
	deactivated, err := r.members.DeactivateAll(dbc, spaceID, now)
	if err != nil {
		return 0, 0, err
	}
	if err := r.members.UpsertActive(dbc, rows); err != nil {
		return 0, deactivated, err
	}
	r.log.Debug("membership reconciled", "space", spaceID, "active", len(rows), "deactivated", deactivated)
	return len(rows), deactivated, nil
}
