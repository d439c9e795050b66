package snapshot

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/daofeed/daofeed-backend/internal/domain"
	"github.com/daofeed/daofeed-backend/internal/pkg/dbctx"
	"github.com/daofeed/daofeed-backend/internal/platform/logger"
)

type VoteRepo interface {
	// BulkUpsert inserts votes keyed by id; on conflict only the choice is
	// refreshed, so replaying a page is a no-op apart from choice updates.
	BulkUpsert(dbc dbctx.Context, votes []*types.Vote) error
	ListByProposal(dbc dbctx.Context, proposalID string) ([]*types.Vote, error)
	CountByVoterBetween(dbc dbctx.Context, start, end time.Time) ([]ActivityCount, error)
}

type voteRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewVoteRepo(db *gorm.DB, baseLog *logger.Logger) VoteRepo {
	return &voteRepo{db: db, log: baseLog.With("repo", "VoteRepo")}
}

func (r *voteRepo) BulkUpsert(dbc dbctx.Context, votes []*types.Vote) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if len(votes) == 0 {
		return nil
	}
	return transaction.WithContext(dbc.Ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"choice"}),
	}).Create(&votes).Error
}

func (r *voteRepo) ListByProposal(dbc dbctx.Context, proposalID string) ([]*types.Vote, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.Vote
	if proposalID == "" {
		return out, nil
	}
	if err := transaction.WithContext(dbc.Ctx).
		Where("proposal_id = ?", proposalID).
		Order("created DESC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *voteRepo) CountByVoterBetween(dbc dbctx.Context, start, end time.Time) ([]ActivityCount, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []ActivityCount
	if err := transaction.WithContext(dbc.Ctx).
		Model(&types.Vote{}).
		Select("voter AS user_id, COUNT(*) AS count").
		Where("created >= ? AND created <= ?", start, end).
		Group("voter").
		Scan(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
