package temporalx

import (
	"context"
	"errors"
	"fmt"

	"go.temporal.io/api/serviceerror"
	temporalsdkclient "go.temporal.io/sdk/client"

	syncjobs "github.com/daofeed/daofeed-backend/internal/jobs/sync"
	"github.com/daofeed/daofeed-backend/internal/platform/logger"
	"github.com/daofeed/daofeed-backend/internal/temporalx/syncjob"
)

// Schedule binds a job type to its cron spec. Workflow IDs are derived
// from the job type, so re-running EnsureSchedules against a cluster that
// already has the cron workflows is a no-op.
type Schedule struct {
	JobType string
	Cron    string
}

func DefaultSchedules() []Schedule {
	return []Schedule{
		{JobType: syncjobs.JobTypeIndexProposals, Cron: "0 */2 * * *"},
		{JobType: syncjobs.JobTypeEndedVotes, Cron: "0 */2 * * *"},
		{JobType: syncjobs.JobTypeRefreshSpaces, Cron: "0 */4 * * *"},
		{JobType: syncjobs.JobTypeMonthlyActivity, Cron: "0 1 1 * *"},
	}
}

// EnsureSchedules starts one cron workflow per schedule. An already
// running cron workflow with the same ID is left untouched.
func EnsureSchedules(ctx context.Context, c temporalsdkclient.Client, schedules []Schedule, log *logger.Logger) error {
	if c == nil {
		return fmt.Errorf("temporal client is not configured")
	}
	cfg := LoadConfig()

	for _, s := range schedules {
		opts := temporalsdkclient.StartWorkflowOptions{
			ID:           "cron-" + s.JobType,
			TaskQueue:    cfg.TaskQueue,
			CronSchedule: s.Cron,
		}
		_, err := c.ExecuteWorkflow(ctx, opts, syncjob.WorkflowName, s.JobType)
		if err != nil {
			var started *serviceerror.WorkflowExecutionAlreadyStarted
			if errors.As(err, &started) {
				log.Debug("cron workflow already scheduled", "job_type", s.JobType, "cron", s.Cron)
				continue
			}
			return fmt.Errorf("schedule %s: %w", s.JobType, err)
		}
		log.Info("cron workflow scheduled", "job_type", s.JobType, "cron", s.Cron)
	}
	return nil
}
