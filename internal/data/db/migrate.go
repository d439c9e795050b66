package db

import (
	types "github.com/daofeed/daofeed-backend/internal/domain"
	"gorm.io/gorm"
)

func AutoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(
		// Governance entities mirrored from the Snapshot hub.
		&types.Space{},
		&types.SpaceMember{},
		&types.User{},
		&types.Proposal{},
		&types.Vote{},
		&types.Follow{},

		// Sync bookkeeping.
		&types.SyncState{},
		&types.JobRun{},
		&types.JobRunEvent{},

		// Monthly aggregation + rewards.
		&types.UserMonthlyActivity{},
		&types.PrizePool{},
		&types.RewardClaim{},
	)
}
