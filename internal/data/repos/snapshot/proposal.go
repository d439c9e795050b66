package snapshot

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/daofeed/daofeed-backend/internal/domain"
	"github.com/daofeed/daofeed-backend/internal/pkg/dbctx"
	"github.com/daofeed/daofeed-backend/internal/platform/logger"
)

// ActivityCount is one user's row count from a per-user aggregate.
type ActivityCount struct {
	UserID string `gorm:"column:user_id"`
	Count  int    `gorm:"column:count"`
}

type ProposalRepo interface {
	// InsertIgnore appends proposals, skipping ids already present. Proposal
	// rows are append-only facts as far as the indexer is concerned.
	InsertIgnore(dbc dbctx.Context, proposals []*types.Proposal) error
	// ListEndedUnsynced returns proposals whose voting window has closed but
	// whose final vote snapshot has not been captured yet.
	ListEndedUnsynced(dbc dbctx.Context, now time.Time) ([]*types.Proposal, error)
	// MarkVotesSynced flips votes_synced false->true. The guard makes the
	// transition one-way: a row already synced is left alone.
	MarkVotesSynced(dbc dbctx.Context, id string) error
	// CountByAuthorBetween aggregates proposal counts per author over the
	// half-open [start, end] window on created_at. Authorless rows are skipped.
	CountByAuthorBetween(dbc dbctx.Context, start, end time.Time) ([]ActivityCount, error)
}

type proposalRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewProposalRepo(db *gorm.DB, baseLog *logger.Logger) ProposalRepo {
	return &proposalRepo{db: db, log: baseLog.With("repo", "ProposalRepo")}
}

func (r *proposalRepo) InsertIgnore(dbc dbctx.Context, proposals []*types.Proposal) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if len(proposals) == 0 {
		return nil
	}
	return transaction.WithContext(dbc.Ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&proposals).Error
}

func (r *proposalRepo) ListEndedUnsynced(dbc dbctx.Context, now time.Time) ([]*types.Proposal, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.Proposal
	if err := transaction.WithContext(dbc.Ctx).
		Where(`"end" < ? AND votes_synced = ?`, now, false).
		Order("created_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *proposalRepo) MarkVotesSynced(dbc dbctx.Context, id string) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if id == "" {
		return nil
	}
	return transaction.WithContext(dbc.Ctx).
		Model(&types.Proposal{}).
		Where("id = ? AND votes_synced = ?", id, false).
		Update("votes_synced", true).Error
}

func (r *proposalRepo) CountByAuthorBetween(dbc dbctx.Context, start, end time.Time) ([]ActivityCount, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []ActivityCount
	if err := transaction.WithContext(dbc.Ctx).
		Model(&types.Proposal{}).
		Select("author AS user_id, COUNT(*) AS count").
		Where("created_at >= ? AND created_at <= ? AND author <> ''", start, end).
		Group("author").
		Scan(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
