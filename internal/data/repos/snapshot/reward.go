package snapshot

import (
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/daofeed/daofeed-backend/internal/domain"
	"github.com/daofeed/daofeed-backend/internal/pkg/dbctx"
	"github.com/daofeed/daofeed-backend/internal/platform/logger"
)

type RewardRepo interface {
	UpsertPool(dbc dbctx.Context, pool *types.PrizePool) error
	GetPool(dbc dbctx.Context, year, month string) (*types.PrizePool, error)
	CreateClaim(dbc dbctx.Context, claim *types.RewardClaim) error
	GetClaim(dbc dbctx.Context, userID, year, month string) (*types.RewardClaim, error)
}

type rewardRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewRewardRepo(db *gorm.DB, baseLog *logger.Logger) RewardRepo {
	return &rewardRepo{db: db, log: baseLog.With("repo", "RewardRepo")}
}

func (r *rewardRepo) UpsertPool(dbc dbctx.Context, pool *types.PrizePool) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if pool == nil {
		return nil
	}
	return transaction.WithContext(dbc.Ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "year"}, {Name: "month"}},
		DoUpdates: clause.AssignmentColumns([]string{"amount", "currency", "updated_at"}),
	}).Create(pool).Error
}

func (r *rewardRepo) GetPool(dbc dbctx.Context, year, month string) (*types.PrizePool, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var pool types.PrizePool
	err := transaction.WithContext(dbc.Ctx).
		Where("year = ? AND month = ?", year, month).
		First(&pool).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &pool, nil
}

func (r *rewardRepo) CreateClaim(dbc dbctx.Context, claim *types.RewardClaim) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if claim == nil {
		return nil
	}
	return transaction.WithContext(dbc.Ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(claim).Error
}

func (r *rewardRepo) GetClaim(dbc dbctx.Context, userID, year, month string) (*types.RewardClaim, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var claim types.RewardClaim
	err := transaction.WithContext(dbc.Ctx).
		Where("user_id = ? AND year = ? AND month = ?", userID, year, month).
		First(&claim).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &claim, nil
}
