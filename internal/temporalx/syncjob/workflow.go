package syncjob

import (
	"fmt"
	"strings"
	"time"

	"go.temporal.io/sdk/workflow"
)

// Workflow is one cron-triggered job invocation. The whole job runs inside
// a single activity: durability comes from the sync watermarks and
// idempotent writes, not from replaying workflow history, so there is
// nothing to gain from splitting the job into per-step activities. The
// activity does not retry; a failed run waits for the next cron trigger,
// which resumes from the persisted watermarks.
func Workflow(ctx workflow.Context, jobType string) error {
	jobType = strings.TrimSpace(jobType)
	if jobType == "" {
		return fmt.Errorf("syncjob: missing job_type")
	}

	ctx = workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 2 * time.Hour,
		HeartbeatTimeout:    2 * time.Minute,
		RetryPolicy:         nil,
	})

	var out RunResult
	if err := workflow.ExecuteActivity(ctx, ActivityRunJob, jobType).Get(ctx, &out); err != nil {
		return err
	}
	if strings.EqualFold(out.Status, "failed") {
		return fmt.Errorf("job %s failed (stage=%s): %s", jobType, out.Stage, out.Error)
	}
	return nil
}
