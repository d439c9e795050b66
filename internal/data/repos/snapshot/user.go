package snapshot

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/daofeed/daofeed-backend/internal/domain"
	"github.com/daofeed/daofeed-backend/internal/pkg/dbctx"
	"github.com/daofeed/daofeed-backend/internal/platform/logger"
)

type UserRepo interface {
	// EnsureExist inserts minimal stub rows (id + last_indexed_at) for ids
	// not yet known. Existing rows are untouched, so profile data already
	// gathered is never clobbered by a stub.
	EnsureExist(dbc dbctx.Context, ids []string, now time.Time) error
	// EnsureIndexed upserts ids and bumps last_indexed_at on rows that
	// already exist (used when a refresh actually touched the identity).
	EnsureIndexed(dbc dbctx.Context, ids []string, now time.Time) error
	// UpsertProfiles refreshes the profile columns fetched from the hub.
	UpsertProfiles(dbc dbctx.Context, users []*types.User) error
	// SetLastVote points the given voters at the proposal they most
	// recently voted on.
	SetLastVote(dbc dbctx.Context, voterIDs []string, proposalID string) error
	ExistingIDs(dbc dbctx.Context, ids []string) ([]string, error)
}

type userRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUserRepo(db *gorm.DB, baseLog *logger.Logger) UserRepo {
	return &userRepo{db: db, log: baseLog.With("repo", "SnapshotUserRepo")}
}

func stubUsers(ids []string, now time.Time) []*types.User {
	seen := make(map[string]struct{}, len(ids))
	out := make([]*types.User, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, &types.User{ID: id, LastIndexedAt: now})
	}
	return out
}

func (r *userRepo) EnsureExist(dbc dbctx.Context, ids []string, now time.Time) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	stubs := stubUsers(ids, now)
	if len(stubs) == 0 {
		return nil
	}
	return transaction.WithContext(dbc.Ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&stubs).Error
}

func (r *userRepo) EnsureIndexed(dbc dbctx.Context, ids []string, now time.Time) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	stubs := stubUsers(ids, now)
	if len(stubs) == 0 {
		return nil
	}
	return transaction.WithContext(dbc.Ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"last_indexed_at"}),
	}).Create(&stubs).Error
}

func (r *userRepo) UpsertProfiles(dbc dbctx.Context, users []*types.User) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if len(users) == 0 {
		return nil
	}
	return transaction.WithContext(dbc.Ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"name",
			"about",
			"avatar",
			"twitter",
			"lens",
			"farcaster",
			"last_indexed_at",
		}),
	}).Create(&users).Error
}

func (r *userRepo) SetLastVote(dbc dbctx.Context, voterIDs []string, proposalID string) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if len(voterIDs) == 0 || proposalID == "" {
		return nil
	}
	return transaction.WithContext(dbc.Ctx).
		Model(&types.User{}).
		Where("id IN ?", voterIDs).
		Update("last_vote", proposalID).Error
}

func (r *userRepo) ExistingIDs(dbc dbctx.Context, ids []string) ([]string, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []string
	if len(ids) == 0 {
		return out, nil
	}
	if err := transaction.WithContext(dbc.Ctx).
		Model(&types.User{}).
		Where("id IN ?", ids).
		Pluck("id", &out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
