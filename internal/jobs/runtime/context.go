package runtime

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/daofeed/daofeed-backend/internal/data/repos"
	types "github.com/daofeed/daofeed-backend/internal/domain"
	"github.com/daofeed/daofeed-backend/internal/pkg/dbctx"
	"github.com/daofeed/daofeed-backend/internal/platform/logger"
)

var terminalStatuses = []string{types.JobStatusSucceeded, types.JobStatusFailed}

// Context is the execution handle for a single job run. It wraps the job_run
// row, the DB handle, and the only sanctioned ways to report progress or
// terminate execution. Handlers never touch job_run directly.
//
// Step and Sleep give handlers named sub-steps: a step that already ran in
// this invocation is not re-executed, so a handler can be written as a
// linear script and still tolerate internal retries. Durability across
// invocations comes from the sync watermarks and idempotent writes, not
// from this memo.
type Context struct {
	Ctx    context.Context
	DB     *gorm.DB
	Job    *types.JobRun
	Repo   repos.JobRunRepo
	Events repos.JobRunEventRepo
	Clock  clockwork.Clock
	Log    *logger.Logger

	done map[string]error
}

func NewContext(ctx context.Context, db *gorm.DB, job *types.JobRun, repo repos.JobRunRepo, events repos.JobRunEventRepo, clock clockwork.Clock, baseLog *logger.Logger) *Context {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	log := baseLog
	if job != nil {
		log = baseLog.With("job_type", job.JobType, "job_run_id", job.ID.String())
	}
	return &Context{
		Ctx:    ctx,
		DB:     db,
		Job:    job,
		Repo:   repo,
		Events: events,
		Clock:  clock,
		Log:    log,
		done:   make(map[string]error),
	}
}

// record appends one timeline event for the run. The run row keeps only the
// latest state; the events keep the history behind /api/sync/status.
func (c *Context) record(kind, stage string, progress int, msg string, at time.Time) {
	if c.Events == nil || c.Job == nil || c.Job.ID == uuid.Nil {
		return
	}
	if err := c.Events.Append(dbctx.Context{Ctx: c.Ctx}, &types.JobRunEvent{
		JobRunID:  c.Job.ID,
		JobType:   c.Job.JobType,
		Kind:      kind,
		Stage:     stage,
		Progress:  progress,
		Message:   msg,
		CreatedAt: at,
	}); err != nil {
		c.Log.Warn("job event append failed", "kind", kind, "stage", stage, "error", err)
	}
}

// Step runs fn once per invocation under the given name. A re-entered step
// returns the recorded outcome without re-running fn.
func (c *Context) Step(name string, fn func() error) error {
	if err, ok := c.done[name]; ok {
		return err
	}
	err := fn()
	c.done[name] = err
	if err != nil {
		c.Log.Warn("job step failed", "step", name, "error", err)
	}
	return err
}

// Sleep pauses between steps, waking early on context cancellation.
func (c *Context) Sleep(name string, d time.Duration) error {
	if _, ok := c.done[name]; ok {
		return nil
	}
	select {
	case <-c.Clock.After(d):
		c.done[name] = nil
		return nil
	case <-c.Ctx.Done():
		return c.Ctx.Err()
	}
}

// Progress publishes a non-terminal status update, guarded so a run that
// already reached a terminal status is left as it finished.
func (c *Context) Progress(stage string, pct int, msg string) {
	if c == nil {
		return
	}
	now := c.Clock.Now().UTC()
	if c.Repo != nil && c.Job != nil && c.Job.ID != uuid.Nil {
		_ = c.Repo.UpdateFieldsUnlessStatus(dbctx.Context{Ctx: c.Ctx}, c.Job.ID, map[string]interface{}{
			"stage":        stage,
			"progress":     pct,
			"message":      msg,
			"heartbeat_at": now,
			"updated_at":   now,
		}, terminalStatuses)
	}
	if c.Job != nil {
		c.Job.Stage = stage
		c.Job.Progress = pct
		c.Job.Message = msg
		c.Job.HeartbeatAt = &now
		c.Job.UpdatedAt = now
	}
	c.record(types.JobEventProgress, stage, pct, msg, now)
}

// Fail marks the run terminally failed. The next cron trigger starts a
// fresh run that resumes from the persisted watermarks.
func (c *Context) Fail(stage string, err error) {
	if c == nil {
		return
	}
	now := c.Clock.Now().UTC()
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	if c.Repo != nil && c.Job != nil && c.Job.ID != uuid.Nil {
		_ = c.Repo.UpdateFieldsUnlessStatus(dbctx.Context{Ctx: c.Ctx}, c.Job.ID, map[string]interface{}{
			"status":        types.JobStatusFailed,
			"stage":         stage,
			"message":       "",
			"error":         msg,
			"last_error_at": now,
			"updated_at":    now,
		}, terminalStatuses)
	}
	if c.Job != nil {
		c.Job.Status = types.JobStatusFailed
		c.Job.Stage = stage
		c.Job.Message = ""
		c.Job.Error = msg
		c.Job.LastErrorAt = &now
		c.Job.UpdatedAt = now
	}
	c.record(types.JobEventFailed, stage, 0, msg, now)
}

// Succeed marks the run terminally succeeded and stores the result summary.
func (c *Context) Succeed(finalStage string, result any) {
	if c == nil {
		return
	}
	now := c.Clock.Now().UTC()
	var res datatypes.JSON
	if result != nil {
		b, _ := json.Marshal(result)
		res = datatypes.JSON(b)
	}
	if c.Repo != nil && c.Job != nil && c.Job.ID != uuid.Nil {
		_ = c.Repo.UpdateFieldsUnlessStatus(dbctx.Context{Ctx: c.Ctx}, c.Job.ID, map[string]interface{}{
			"status":       types.JobStatusSucceeded,
			"stage":        finalStage,
			"progress":     100,
			"message":      "",
			"error":        "",
			"result":       res,
			"heartbeat_at": now,
			"updated_at":   now,
		}, terminalStatuses)
	}
	if c.Job != nil {
		c.Job.Status = types.JobStatusSucceeded
		c.Job.Stage = finalStage
		c.Job.Progress = 100
		c.Job.Message = ""
		c.Job.Error = ""
		c.Job.Result = res
		c.Job.HeartbeatAt = &now
		c.Job.UpdatedAt = now
	}
	c.record(types.JobEventSucceeded, finalStage, 100, "", now)
}
