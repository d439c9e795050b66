package repos

import (
	"gorm.io/gorm"

	"github.com/daofeed/daofeed-backend/internal/data/repos/jobs"
	"github.com/daofeed/daofeed-backend/internal/data/repos/snapshot"
	"github.com/daofeed/daofeed-backend/internal/platform/logger"
)

type SpaceRepo = snapshot.SpaceRepo
type SpaceMemberRepo = snapshot.SpaceMemberRepo
type ProposalRepo = snapshot.ProposalRepo
type VoteRepo = snapshot.VoteRepo
type UserRepo = snapshot.UserRepo
type FollowRepo = snapshot.FollowRepo
type SyncStateRepo = snapshot.SyncStateRepo
type MonthlyActivityRepo = snapshot.MonthlyActivityRepo
type RewardRepo = snapshot.RewardRepo

type ActivityCount = snapshot.ActivityCount

type JobRunRepo = jobs.JobRunRepo
type JobRunEventRepo = jobs.JobRunEventRepo

func NewSpaceRepo(db *gorm.DB, baseLog *logger.Logger) SpaceRepo {
	return snapshot.NewSpaceRepo(db, baseLog)
}
func NewSpaceMemberRepo(db *gorm.DB, baseLog *logger.Logger) SpaceMemberRepo {
	return snapshot.NewSpaceMemberRepo(db, baseLog)
}
func NewProposalRepo(db *gorm.DB, baseLog *logger.Logger) ProposalRepo {
	return snapshot.NewProposalRepo(db, baseLog)
}
func NewVoteRepo(db *gorm.DB, baseLog *logger.Logger) VoteRepo {
	return snapshot.NewVoteRepo(db, baseLog)
}
func NewUserRepo(db *gorm.DB, baseLog *logger.Logger) UserRepo {
	return snapshot.NewUserRepo(db, baseLog)
}
func NewFollowRepo(db *gorm.DB, baseLog *logger.Logger) FollowRepo {
	return snapshot.NewFollowRepo(db, baseLog)
}
func NewSyncStateRepo(db *gorm.DB, baseLog *logger.Logger) SyncStateRepo {
	return snapshot.NewSyncStateRepo(db, baseLog)
}
func NewMonthlyActivityRepo(db *gorm.DB, baseLog *logger.Logger) MonthlyActivityRepo {
	return snapshot.NewMonthlyActivityRepo(db, baseLog)
}
func NewRewardRepo(db *gorm.DB, baseLog *logger.Logger) RewardRepo {
	return snapshot.NewRewardRepo(db, baseLog)
}
func NewJobRunRepo(db *gorm.DB, baseLog *logger.Logger) JobRunRepo {
	return jobs.NewJobRunRepo(db, baseLog)
}
func NewJobRunEventRepo(db *gorm.DB, baseLog *logger.Logger) JobRunEventRepo {
	return jobs.NewJobRunEventRepo(db, baseLog)
}

// All bundles the repositories handed to job handlers and HTTP handlers.
type All struct {
	Space           SpaceRepo
	SpaceMember     SpaceMemberRepo
	Proposal        ProposalRepo
	Vote            VoteRepo
	User            UserRepo
	Follow          FollowRepo
	SyncState       SyncStateRepo
	MonthlyActivity MonthlyActivityRepo
	Reward          RewardRepo
	JobRun          JobRunRepo
	JobRunEvent     JobRunEventRepo
}

func NewAll(db *gorm.DB, baseLog *logger.Logger) *All {
	return &All{
		Space:           NewSpaceRepo(db, baseLog),
		SpaceMember:     NewSpaceMemberRepo(db, baseLog),
		Proposal:        NewProposalRepo(db, baseLog),
		Vote:            NewVoteRepo(db, baseLog),
		User:            NewUserRepo(db, baseLog),
		Follow:          NewFollowRepo(db, baseLog),
		SyncState:       NewSyncStateRepo(db, baseLog),
		MonthlyActivity: NewMonthlyActivityRepo(db, baseLog),
		Reward:          NewRewardRepo(db, baseLog),
		JobRun:          NewJobRunRepo(db, baseLog),
		JobRunEvent:     NewJobRunEventRepo(db, baseLog),
	}
}
