package snapshot

import "time"

// SyncState is the resumable high-water mark for one sync stream, keyed by
// stream name (e.g. "proposals"). LastCreatedAt tracks the maximum source
// `created` timestamp persisted so far and only ever advances; LastSyncedAt
// records the wall-clock time of the latest successful flush.
type SyncState struct {
	ID            string    `gorm:"type:varchar(255);primaryKey;column:id" json:"id"`
	LastSyncedAt  time.Time `gorm:"not null;column:last_synced_at" json:"last_synced_at"`
	LastCreatedAt time.Time `gorm:"not null;column:last_created_at" json:"last_created_at"`
}

func (SyncState) TableName() string { return "snapshot_sync_state" }
