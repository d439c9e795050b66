package syncjob

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"go.temporal.io/sdk/activity"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/daofeed/daofeed-backend/internal/data/repos"
	types "github.com/daofeed/daofeed-backend/internal/domain"
	jobrt "github.com/daofeed/daofeed-backend/internal/jobs/runtime"
	"github.com/daofeed/daofeed-backend/internal/pkg/dbctx"
	"github.com/daofeed/daofeed-backend/internal/platform/logger"
)

type Activities struct {
	Log      *logger.Logger
	DB       *gorm.DB
	Jobs     repos.JobRunRepo
	Events   repos.JobRunEventRepo
	Registry *jobrt.Registry
	Clock    clockwork.Clock
}

// RunJob creates a job_run row for this invocation and dispatches to the
// registered handler. The handler decides the terminal status through the
// runtime context; a handler that returns nil without reaching a terminal
// status is treated as succeeded.
func (a *Activities) RunJob(ctx context.Context, jobType string) (RunResult, error) {
	res := RunResult{JobType: strings.TrimSpace(jobType)}
	if a == nil || a.DB == nil || a.Jobs == nil || a.Registry == nil {
		return res, fmt.Errorf("syncjob: activity not configured")
	}
	clock := a.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	now := clock.Now().UTC()
	job := &types.JobRun{
		ID:          uuid.New(),
		JobType:     res.JobType,
		Status:      types.JobStatusRunning,
		Stage:       "starting",
		Attempts:    1,
		HeartbeatAt: &now,
		Result:      datatypes.JSON([]byte("{}")),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := a.Jobs.Create(dbctx.Context{Ctx: ctx}, job); err != nil {
		return res, fmt.Errorf("syncjob: create job_run: %w", err)
	}
	res.JobRunID = job.ID.String()

	stopHB := a.startHeartbeat(ctx, job.ID)
	defer stopHB()

	jc := jobrt.NewContext(ctx, a.DB, job, a.Jobs, a.Events, clock, a.Log)

	h, ok := a.Registry.Get(job.JobType)
	if !ok {
		jc.Fail("dispatch", fmt.Errorf("no handler registered for job_type=%s", job.JobType))
	} else {
		func() {
			defer func() {
				if r := recover(); r != nil {
					a.Log.Error("job handler panic", "job_type", job.JobType, "job_run_id", job.ID, "panic", r)
					jc.Fail("panic", fmt.Errorf("panic: %v", r))
				}
			}()
			if runErr := h.Run(jc); runErr != nil && job.Status == types.JobStatusRunning {
				jc.Fail("run", runErr)
			}
		}()
	}

	// A handler that returned nil without marking the run terminal would
	// otherwise leave the row stuck in running.
	if job.Status == types.JobStatusRunning {
		jc.Succeed("done", nil)
	}

	res.Status = job.Status
	res.Stage = job.Stage
	res.Error = job.Error
	return res, nil
}

// startHeartbeat keeps both Temporal and the job_run row aware that the
// invocation is alive during long backfills.
func (a *Activities) startHeartbeat(ctx context.Context, jobID uuid.UUID) func() {
	done := make(chan struct{})
	go func() {
		temporalHB := time.NewTicker(10 * time.Second)
		defer temporalHB.Stop()
		dbHB := time.NewTicker(30 * time.Second)
		defer dbHB.Stop()
		for {
			select {
			case <-done:
				return
			case <-ctx.Done():
				return
			case <-temporalHB.C:
				activity.RecordHeartbeat(ctx)
			case <-dbHB.C:
				_ = a.Jobs.Heartbeat(dbctx.Context{Ctx: ctx}, jobID, time.Now().UTC())
			}
		}
	}()
	return func() { close(done) }
}
