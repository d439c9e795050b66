package snapshot

import (
	"time"

	"gorm.io/datatypes"
)

// Vote is a single cast ballot. Choice is opaque JSON: an index, an array,
// or a weight map depending on the proposal's voting method. Re-ingesting a
// vote refreshes only the choice.
type Vote struct {
	ID         string         `gorm:"type:varchar(255);primaryKey;column:id" json:"id"`
	Voter      string         `gorm:"type:varchar(255);not null;index;column:voter" json:"voter"`
	ProposalID string         `gorm:"type:varchar(255);not null;index;column:proposal_id" json:"proposal_id"`
	Choice     datatypes.JSON `gorm:"type:jsonb;not null;column:choice" json:"choice"`
	Created    time.Time      `gorm:"not null;index;column:created" json:"created"`
}

func (Vote) TableName() string { return "snapshot_vote" }
