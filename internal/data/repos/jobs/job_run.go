package jobs

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/daofeed/daofeed-backend/internal/domain"
	"github.com/daofeed/daofeed-backend/internal/pkg/dbctx"
	"github.com/daofeed/daofeed-backend/internal/platform/logger"
)

type JobRunRepo interface {
	Create(dbc dbctx.Context, run *types.JobRun) error
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.JobRun, error)
	// UpdateFieldsUnlessStatus applies the updates only while the run is
	// still in one of the given statuses. A run that already reached a
	// terminal status stays as it finished.
	UpdateFieldsUnlessStatus(dbc dbctx.Context, id uuid.UUID, fields map[string]interface{}, unless []string) error
	Heartbeat(dbc dbctx.Context, id uuid.UUID, at time.Time) error
	LatestByType(dbc dbctx.Context, jobType string) (*types.JobRun, error)
}

type jobRunRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewJobRunRepo(db *gorm.DB, baseLog *logger.Logger) JobRunRepo {
	return &jobRunRepo{db: db, log: baseLog.With("repo", "JobRunRepo")}
}

func (r *jobRunRepo) Create(dbc dbctx.Context, run *types.JobRun) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if run == nil {
		return nil
	}
	if run.ID == uuid.Nil {
		run.ID = uuid.New()
	}
	return transaction.WithContext(dbc.Ctx).Create(run).Error
}

func (r *jobRunRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.JobRun, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var run types.JobRun
	err := transaction.WithContext(dbc.Ctx).
		Where("id = ?", id).
		First(&run).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &run, nil
}

func (r *jobRunRepo) UpdateFieldsUnlessStatus(dbc dbctx.Context, id uuid.UUID, fields map[string]interface{}, unless []string) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if len(fields) == 0 {
		return nil
	}
	q := transaction.WithContext(dbc.Ctx).
		Model(&types.JobRun{}).
		Where("id = ?", id)
	if len(unless) > 0 {
		q = q.Where("status NOT IN ?", unless)
	}
	return q.Updates(fields).Error
}

func (r *jobRunRepo) Heartbeat(dbc dbctx.Context, id uuid.UUID, at time.Time) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(dbc.Ctx).
		Model(&types.JobRun{}).
		Where("id = ? AND status = ?", id, types.JobStatusRunning).
		Update("heartbeat_at", at).Error
}

func (r *jobRunRepo) LatestByType(dbc dbctx.Context, jobType string) (*types.JobRun, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var run types.JobRun
	err := transaction.WithContext(dbc.Ctx).
		Where("job_type = ?", jobType).
		Order("created_at DESC").
		First(&run).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &run, nil
}
