package snapshot

import (
	"time"

	"github.com/google/uuid"
)

// UserMonthlyActivity is one user's governance activity for one UTC calendar
// month. Each aggregation run is an authoritative full recompute for the
// month: counts and percent are overwritten, never accumulated.
type UserMonthlyActivity struct {
	UserID              string    `gorm:"type:varchar(255);primaryKey;column:user_id" json:"user_id"`
	Year                string    `gorm:"type:varchar(4);primaryKey;column:year" json:"year"`
	Month               string    `gorm:"type:varchar(2);primaryKey;column:month" json:"month"`
	ProposalsCount      int       `gorm:"not null;default:0;column:proposals_count" json:"proposals_count"`
	VotesCount          int       `gorm:"not null;default:0;column:votes_count" json:"votes_count"`
	ContributionPercent string    `gorm:"type:numeric(8,6);column:contribution_percent" json:"contribution_percent"`
	LastUpdatedAt       time.Time `gorm:"not null;column:last_updated_at" json:"last_updated_at"`
}

func (UserMonthlyActivity) TableName() string { return "snapshot_user_monthly_activity" }

// PrizePool is the reward budget for one month, funded out of band.
type PrizePool struct {
	ID        uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();column:id" json:"id"`
	Year      string    `gorm:"type:varchar(4);primaryKey;column:year" json:"year"`
	Month     string    `gorm:"type:varchar(2);primaryKey;column:month" json:"month"`
	Amount    string    `gorm:"type:numeric(16,6);not null;column:amount" json:"amount"`
	Currency  string    `gorm:"type:varchar(10);not null;default:'ETH';column:currency" json:"currency"`
	CreatedAt time.Time `gorm:"not null;default:now();column:created_at" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now();column:updated_at" json:"updated_at"`
}

func (PrizePool) TableName() string { return "snapshot_prize_pool" }

// RewardClaim records a paid-out monthly reward. The on-chain transfer that
// writes these rows lives outside this service; they are read here to report
// claim status alongside contribution data.
type RewardClaim struct {
	ID        uuid.UUID  `gorm:"type:uuid;default:uuid_generate_v4();column:id" json:"id"`
	UserID    string     `gorm:"type:varchar(255);primaryKey;column:user_id" json:"user_id"`
	Year      string     `gorm:"type:varchar(4);primaryKey;column:year" json:"year"`
	Month     string     `gorm:"type:varchar(2);primaryKey;column:month" json:"month"`
	Amount    string     `gorm:"type:numeric(16,6);not null;column:amount" json:"amount"`
	Currency  string     `gorm:"type:varchar(10);not null;column:currency" json:"currency"`
	TxHash    string     `gorm:"type:varchar(66);column:tx_hash" json:"tx_hash,omitempty"`
	ClaimedAt *time.Time `gorm:"column:claimed_at" json:"claimed_at,omitempty"`
}

func (RewardClaim) TableName() string { return "user_reward_claim" }
