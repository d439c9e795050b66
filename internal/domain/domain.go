package domain

import (
	"github.com/daofeed/daofeed-backend/internal/domain/jobs"
	"github.com/daofeed/daofeed-backend/internal/domain/snapshot"
)

type Space = snapshot.Space
type SpaceMember = snapshot.SpaceMember
type Proposal = snapshot.Proposal
type Vote = snapshot.Vote
type User = snapshot.User
type Follow = snapshot.Follow
type SyncState = snapshot.SyncState
type UserMonthlyActivity = snapshot.UserMonthlyActivity
type PrizePool = snapshot.PrizePool
type RewardClaim = snapshot.RewardClaim

type JobRun = jobs.JobRun
type JobRunEvent = jobs.JobRunEvent

const (
	JobStatusRunning   = jobs.JobStatusRunning
	JobStatusSucceeded = jobs.JobStatusSucceeded
	JobStatusFailed    = jobs.JobStatusFailed

	JobEventProgress  = jobs.JobEventProgress
	JobEventFailed    = jobs.JobEventFailed
	JobEventSucceeded = jobs.JobEventSucceeded
)
