package snapshot

import (
	"time"

	"gorm.io/datatypes"
)

// Space is a governance organization indexed from the Snapshot hub.
// A metadata refresh updates only the columns it fetched; columns the
// refresh does not carry are never overwritten with zero values.
type Space struct {
	ID            string         `gorm:"type:varchar(255);primaryKey;column:id" json:"id"`
	Name          string         `gorm:"not null;column:name" json:"name"`
	About         string         `gorm:"column:about" json:"about,omitempty"`
	Network       string         `gorm:"type:varchar(50);column:network" json:"network,omitempty"`
	Symbol        string         `gorm:"type:varchar(50);column:symbol" json:"symbol,omitempty"`
	Strategies    datatypes.JSON `gorm:"type:jsonb;column:strategies" json:"strategies"`
	LastIndexedAt time.Time      `gorm:"not null;column:last_indexed_at" json:"last_indexed_at"`
}

func (Space) TableName() string { return "snapshot_space" }

// SpaceMember is one (space, member) edge. Rows are soft-deactivated on
// reconciliation, never deleted, so the membership history stays auditable.
type SpaceMember struct {
	SpaceID   string     `gorm:"type:varchar(255);primaryKey;column:space_id" json:"space_id"`
	MemberID  string     `gorm:"type:varchar(255);primaryKey;column:member_id" json:"member_id"`
	AddedAt   time.Time  `gorm:"not null;column:added_at" json:"added_at"`
	RemovedAt *time.Time `gorm:"column:removed_at" json:"removed_at,omitempty"`
	IsActive  bool       `gorm:"not null;default:true;column:is_active" json:"is_active"`
}

func (SpaceMember) TableName() string { return "snapshot_space_member" }
