package snapshot

import (
	"time"

	"gorm.io/datatypes"
)

// Proposal belongs to exactly one Space. The id comes from the hub and is
// immutable. VotesSynced flips false->true once the final vote snapshot for
// an ended proposal has been persisted; it never reverts.
type Proposal struct {
	ID          string         `gorm:"type:varchar(255);primaryKey;column:id" json:"id"`
	SpaceID     string         `gorm:"type:varchar(255);not null;index;column:space_id" json:"space_id"`
	Title       string         `gorm:"not null;column:title" json:"title"`
	Body        string         `gorm:"column:body" json:"body,omitempty"`
	Choices     datatypes.JSON `gorm:"type:jsonb;column:choices" json:"choices"`
	Start       time.Time      `gorm:"not null;column:start" json:"start"`
	End         time.Time      `gorm:"not null;index;column:end" json:"end"`
	Snapshot    string         `gorm:"type:varchar(255);column:snapshot" json:"snapshot,omitempty"`
	State       string         `gorm:"type:varchar(50);column:state" json:"state,omitempty"`
	Author      string         `gorm:"type:varchar(255);index;column:author" json:"author,omitempty"`
	Scores      datatypes.JSON `gorm:"type:jsonb;column:scores" json:"scores"`
	ScoresTotal string         `gorm:"column:scores_total" json:"scores_total,omitempty"`
	CreatedAt   time.Time      `gorm:"not null;index;column:created_at" json:"created_at"`
	VotesSynced bool           `gorm:"not null;default:false;index;column:votes_synced" json:"votes_synced"`
}

func (Proposal) TableName() string { return "snapshot_proposal" }
