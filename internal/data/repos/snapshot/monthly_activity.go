package snapshot

import (
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/daofeed/daofeed-backend/internal/domain"
	"github.com/daofeed/daofeed-backend/internal/pkg/dbctx"
	"github.com/daofeed/daofeed-backend/internal/platform/logger"
)

type MonthlyActivityRepo interface {
	// UpsertAll replaces the month's rows wholesale, keyed by
	// (user_id, year, month). Re-running an aggregation converges on the
	// same final table.
	UpsertAll(dbc dbctx.Context, rows []*types.UserMonthlyActivity) error
	Get(dbc dbctx.Context, userID, year, month string) (*types.UserMonthlyActivity, error)
	Leaderboard(dbc dbctx.Context, year, month string, limit int) ([]*types.UserMonthlyActivity, error)
}

type monthlyActivityRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewMonthlyActivityRepo(db *gorm.DB, baseLog *logger.Logger) MonthlyActivityRepo {
	return &monthlyActivityRepo{db: db, log: baseLog.With("repo", "MonthlyActivityRepo")}
}

func (r *monthlyActivityRepo) UpsertAll(dbc dbctx.Context, rows []*types.UserMonthlyActivity) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if len(rows) == 0 {
		return nil
	}
	return transaction.WithContext(dbc.Ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "year"}, {Name: "month"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"proposals_count",
			"votes_count",
			"contribution_percent",
			"last_updated_at",
		}),
	}).Create(&rows).Error
}

func (r *monthlyActivityRepo) Get(dbc dbctx.Context, userID, year, month string) (*types.UserMonthlyActivity, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var row types.UserMonthlyActivity
	err := transaction.WithContext(dbc.Ctx).
		Where("user_id = ? AND year = ? AND month = ?", userID, year, month).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *monthlyActivityRepo) Leaderboard(dbc dbctx.Context, year, month string, limit int) ([]*types.UserMonthlyActivity, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if limit <= 0 {
		limit = 50
	}
	var out []*types.UserMonthlyActivity
	if err := transaction.WithContext(dbc.Ctx).
		Where("year = ? AND month = ?", year, month).
		Order("contribution_percent DESC").
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
