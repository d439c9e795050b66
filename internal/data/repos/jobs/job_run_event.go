package jobs

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/daofeed/daofeed-backend/internal/domain"
	"github.com/daofeed/daofeed-backend/internal/pkg/dbctx"
	"github.com/daofeed/daofeed-backend/internal/platform/logger"
)

type JobRunEventRepo interface {
	Append(dbc dbctx.Context, event *types.JobRunEvent) error
	// ListByRun returns a run's timeline oldest first.
	ListByRun(dbc dbctx.Context, jobRunID uuid.UUID) ([]*types.JobRunEvent, error)
	// ListRecent returns the newest events across all runs, newest first.
	ListRecent(dbc dbctx.Context, limit int) ([]*types.JobRunEvent, error)
}

type jobRunEventRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewJobRunEventRepo(db *gorm.DB, baseLog *logger.Logger) JobRunEventRepo {
	return &jobRunEventRepo{db: db, log: baseLog.With("repo", "JobRunEventRepo")}
}

func (r *jobRunEventRepo) Append(dbc dbctx.Context, event *types.JobRunEvent) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if event == nil {
		return nil
	}
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	return transaction.WithContext(dbc.Ctx).Create(event).Error
}

func (r *jobRunEventRepo) ListByRun(dbc dbctx.Context, jobRunID uuid.UUID) ([]*types.JobRunEvent, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.JobRunEvent
	err := transaction.WithContext(dbc.Ctx).
		Where("job_run_id = ?", jobRunID).
		Order("created_at ASC, id ASC").
		Find(&out).Error
	return out, err
}

func (r *jobRunEventRepo) ListRecent(dbc dbctx.Context, limit int) ([]*types.JobRunEvent, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if limit <= 0 {
		limit = 50
	}
	var out []*types.JobRunEvent
	err := transaction.WithContext(dbc.Ctx).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&out).Error
	return out, err
}
