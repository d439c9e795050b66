package jobs

import (
	"time"

	"github.com/google/uuid"
)

// JobRunEvent is an append-only timeline of a run's status transitions and
// progress updates. The run row holds only the latest state; the event rows
// tell what a long backfill was doing when it died.
type JobRunEvent struct {
	ID       uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	JobRunID uuid.UUID `gorm:"type:uuid;not null;index" json:"job_run_id"`
	JobType  string    `gorm:"column:job_type;not null;index" json:"job_type"`

	// progress|failed|succeeded
	Kind     string `gorm:"column:kind;not null;index" json:"kind"`
	Stage    string `gorm:"column:stage;not null" json:"stage"`
	Progress int    `gorm:"column:progress;not null;default:0" json:"progress"`
	Message  string `gorm:"column:message;type:text" json:"message,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:now();index" json:"created_at"`
}

func (JobRunEvent) TableName() string { return "job_run_event" }

const (
	JobEventProgress  = "progress"
	JobEventFailed    = "failed"
	JobEventSucceeded = "succeeded"
)
