package snapshot

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/daofeed/daofeed-backend/internal/domain"
	"github.com/daofeed/daofeed-backend/internal/pkg/dbctx"
	"github.com/daofeed/daofeed-backend/internal/platform/logger"
)

type SpaceMemberRepo interface {
	// DeactivateAll soft-removes every currently active membership for the
	// space. Rows are never deleted; history stays queryable.
	DeactivateAll(dbc dbctx.Context, spaceID string, now time.Time) (int64, error)
	// UpsertActive marks the given memberships active, clearing removed_at
	// and refreshing added_at.
	UpsertActive(dbc dbctx.Context, members []*types.SpaceMember) error
	ListBySpace(dbc dbctx.Context, spaceID string) ([]*types.SpaceMember, error)
	ListActiveIDs(dbc dbctx.Context, spaceID string) ([]string, error)
}

type spaceMemberRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSpaceMemberRepo(db *gorm.DB, baseLog *logger.Logger) SpaceMemberRepo {
	return &spaceMemberRepo{db: db, log: baseLog.With("repo", "SpaceMemberRepo")}
}

func (r *spaceMemberRepo) DeactivateAll(dbc dbctx.Context, spaceID string, now time.Time) (int64, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if spaceID == "" {
		return 0, nil
	}
	res := transaction.WithContext(dbc.Ctx).
		Model(&types.SpaceMember{}).
		Where("space_id = ? AND is_active = ?", spaceID, true).
		Updates(map[string]interface{}{
			"is_active":  false,
			"removed_at": now,
		})
	return res.RowsAffected, res.Error
}

func (r *spaceMemberRepo) UpsertActive(dbc dbctx.Context, members []*types.SpaceMember) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if len(members) == 0 {
		return nil
	}
	return transaction.WithContext(dbc.Ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "space_id"}, {Name: "member_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"is_active", "removed_at", "added_at"}),
	}).Create(&members).Error
}

func (r *spaceMemberRepo) ListBySpace(dbc dbctx.Context, spaceID string) ([]*types.SpaceMember, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.SpaceMember
	if spaceID == "" {
		return out, nil
	}
	if err := transaction.WithContext(dbc.Ctx).
		Where("space_id = ?", spaceID).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *spaceMemberRepo) ListActiveIDs(dbc dbctx.Context, spaceID string) ([]string, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []string
	if spaceID == "" {
		return out, nil
	}
	if err := transaction.WithContext(dbc.Ctx).
		Model(&types.SpaceMember{}).
		Where("space_id = ? AND is_active = ?", spaceID, true).
		Pluck("member_id", &out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
