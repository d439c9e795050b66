package snapshot

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/daofeed/daofeed-backend/internal/domain"
	"github.com/daofeed/daofeed-backend/internal/pkg/dbctx"
	"github.com/daofeed/daofeed-backend/internal/platform/logger"
)

type FollowRepo interface {
	// BulkUpsert inserts follows keyed by id; re-ingestion only bumps
	// last_indexed_at.
	BulkUpsert(dbc dbctx.Context, follows []*types.Follow) error
	ListBySpace(dbc dbctx.Context, spaceID string) ([]*types.Follow, error)
}

type followRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewFollowRepo(db *gorm.DB, baseLog *logger.Logger) FollowRepo {
	return &followRepo{db: db, log: baseLog.With("repo", "FollowRepo")}
}

func (r *followRepo) BulkUpsert(dbc dbctx.Context, follows []*types.Follow) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if len(follows) == 0 {
		return nil
	}
	return transaction.WithContext(dbc.Ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"last_indexed_at"}),
	}).Create(&follows).Error
}

func (r *followRepo) ListBySpace(dbc dbctx.Context, spaceID string) ([]*types.Follow, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.Follow
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
