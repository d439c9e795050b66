package snapshot

import (
	"errors"
	"time"

	"gorm.io/gorm"

	types "github.com/daofeed/daofeed-backend/internal/domain"
	"github.com/daofeed/daofeed-backend/internal/pkg/dbctx"
	"github.com/daofeed/daofeed-backend/internal/platform/logger"
)

type SyncStateRepo interface {
	// GetOrCreate returns the stream's cursor row, seeding it with the
	// initial watermark on first use.
	GetOrCreate(dbc dbctx.Context, stream string, initial, now time.Time) (*types.SyncState, error)
	// Get returns the cursor row or nil when the stream has never synced.
	Get(dbc dbctx.Context, stream string) (*types.SyncState, error)
	// Advance moves the watermark forward. GREATEST keeps it monotonic:
	// a replayed or out-of-order batch can never rewind last_created_at.
	Advance(dbc dbctx.Context, stream string, candidate, now time.Time) error
}

type syncStateRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSyncStateRepo(db *gorm.DB, baseLog *logger.Logger) SyncStateRepo {
	return &syncStateRepo{db: db, log: baseLog.With("repo", "SyncStateRepo")}
}

func (r *syncStateRepo) GetOrCreate(dbc dbctx.Context, stream string, initial, now time.Time) (*types.SyncState, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var state types.SyncState
	err := transaction.WithContext(dbc.Ctx).
		Where("id = ?", stream).
		First(&state).Error
	if err == nil {
		return &state, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	state = types.SyncState{
		ID:            stream,
		LastSyncedAt:  now,
		LastCreatedAt: initial,
	}
	if err := transaction.WithContext(dbc.Ctx).Create(&state).Error; err != nil {
		return nil, err
	}
	r.log.Info("seeded sync cursor", "stream", stream, "last_created_at", initial)
	return &state, nil
}

func (r *syncStateRepo) Get(dbc dbctx.Context, stream string) (*types.SyncState, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var state types.SyncState
	err := transaction.WithContext(dbc.Ctx).
		Where("id = ?", stream).
		First(&state).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &state, nil
}

func (r *syncStateRepo) Advance(dbc dbctx.Context, stream string, candidate, now time.Time) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(dbc.Ctx).
		Model(&types.SyncState{}).
		Where("id = ?", stream).
		Updates(map[string]interface{}{
			"last_created_at": gorm.Expr("GREATEST(last_created_at, ?)", candidate),
			"last_synced_at":  now,
		}).Error
}
