package snapshot

import "time"

// User is a Snapshot identity (wallet address), distinct from a product
// account. Rows are created lazily as stubs (id + last_indexed_at) the first
// time a vote, follow, or membership references the address; profile columns
// are filled in by later space refreshes.
type User struct {
	ID            string    `gorm:"type:varchar(255);primaryKey;column:id" json:"id"`
	Name          string    `gorm:"column:name" json:"name,omitempty"`
	About         string    `gorm:"column:about" json:"about,omitempty"`
	Avatar        string    `gorm:"column:avatar" json:"avatar,omitempty"`
	Twitter       string    `gorm:"column:twitter" json:"twitter,omitempty"`
	Lens          string    `gorm:"column:lens" json:"lens,omitempty"`
	Farcaster     string    `gorm:"column:farcaster" json:"farcaster,omitempty"`
	LastVote      string    `gorm:"type:varchar(255);column:last_vote" json:"last_vote,omitempty"`
	LastIndexedAt time.Time `gorm:"not null;column:last_indexed_at" json:"last_indexed_at"`
}

func (User) TableName() string { return "snapshot_user" }

// Follow is a user following a space. Followers unknown to the user table
// are backfilled as stubs before insert, same as the vote path.
type Follow struct {
	ID            string    `gorm:"type:varchar(255);primaryKey;column:id" json:"id"`
	Follower      string    `gorm:"type:varchar(255);not null;index;column:follower" json:"follower"`
	SpaceID       string    `gorm:"type:varchar(255);not null;index;column:space_id" json:"space_id"`
	Created       time.Time `gorm:"not null;column:created" json:"created"`
	LastIndexedAt time.Time `gorm:"not null;column:last_indexed_at" json:"last_indexed_at"`
}

func (Follow) TableName() string { return "snapshot_follow" }
