package snapshot

import (
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/daofeed/daofeed-backend/internal/domain"
	"github.com/daofeed/daofeed-backend/internal/pkg/dbctx"
	"github.com/daofeed/daofeed-backend/internal/platform/logger"
)

type SpaceRepo interface {
	// Upsert refreshes the explicitly listed metadata columns on conflict;
	// columns not carried by a refresh are left untouched.
	Upsert(dbc dbctx.Context, space *types.Space) error
	// EnsureExist inserts stub rows for spaces first seen through their
	// proposals; an existing row keeps its fetched metadata.
	EnsureExist(dbc dbctx.Context, spaces []*types.Space) error
	GetByID(dbc dbctx.Context, id string) (*types.Space, error)
	// Touch bumps last_indexed_at without changing metadata.
	Touch(dbc dbctx.Context, id string, now time.Time) error
	// ListStale returns spaces whose last_indexed_at is older than the cutoff.
	ListStale(dbc dbctx.Context, olderThan time.Time) ([]*types.Space, error)
}

type spaceRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSpaceRepo(db *gorm.DB, baseLog *logger.Logger) SpaceRepo {
	return &spaceRepo{db: db, log: baseLog.With("repo", "SpaceRepo")}
}

func (r *spaceRepo) Upsert(dbc dbctx.Context, space *types.Space) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if space == nil || space.ID == "" {
		return nil
	}
	return transaction.WithContext(dbc.Ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"name",
			"about",
			"network",
			"symbol",
			"strategies",
			"last_indexed_at",
		}),
	}).Create(space).Error
}

func (r *spaceRepo) EnsureExist(dbc dbctx.Context, spaces []*types.Space) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if len(spaces) == 0 {
		return nil
	}
	return transaction.WithContext(dbc.Ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&spaces).Error
}

func (r *spaceRepo) GetByID(dbc dbctx.Context, id string) (*types.Space, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if id == "" {
		return nil, nil
	}
	var space types.Space
	err := transaction.WithContext(dbc.Ctx).
		Where("id = ?", id).
		First(&space).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &space, nil
}

func (r *spaceRepo) Touch(dbc dbctx.Context, id string, now time.Time) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if id == "" {
		return nil
	}
	return transaction.WithContext(dbc.Ctx).
		Model(&types.Space{}).
		Where("id = ?", id).
		Update("last_indexed_at", now).Error
}

func (r *spaceRepo) ListStale(dbc dbctx.Context, olderThan time.Time) ([]*types.Space, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.Space
	if err := transaction.WithContext(dbc.Ctx).
		Where("last_indexed_at < ?", olderThan).
		Order("last_indexed_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
