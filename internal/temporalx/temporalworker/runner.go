package temporalworker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"go.temporal.io/api/serviceerror"
	"go.temporal.io/sdk/activity"
	temporalsdkclient "go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"
	"go.temporal.io/sdk/workflow"
	"gorm.io/gorm"

	"github.com/daofeed/daofeed-backend/internal/data/repos"
	jobrt "github.com/daofeed/daofeed-backend/internal/jobs/runtime"
	"github.com/daofeed/daofeed-backend/internal/platform/envutil"
	"github.com/daofeed/daofeed-backend/internal/platform/logger"
	"github.com/daofeed/daofeed-backend/internal/temporalx"
	"github.com/daofeed/daofeed-backend/internal/temporalx/syncjob"
)

type Runner struct {
	log *logger.Logger

	tc        temporalsdkclient.Client
	db        *gorm.DB
	jobRepo   repos.JobRunRepo
	eventRepo repos.JobRunEventRepo
	registry  *jobrt.Registry
	clock     clockwork.Clock
}

func NewRunner(
	log *logger.Logger,
	tc temporalsdkclient.Client,
	db *gorm.DB,
	jobRepo repos.JobRunRepo,
	eventRepo repos.JobRunEventRepo,
	registry *jobrt.Registry,
	clock clockwork.Clock,
) (*Runner, error) {
	if tc == nil {
		return nil, fmt.Errorf("temporal client is not configured")
	}
	if db == nil || jobRepo == nil || eventRepo == nil || registry == nil {
		return nil, fmt.Errorf("temporal worker missing deps")
	}
	return &Runner{
		log:       log,
		tc:        tc,
		db:        db,
		jobRepo:   jobRepo,
		eventRepo: eventRepo,
		registry:  registry,
		clock:     clock,
	}, nil
}

// Start begins polling the task queue, retrying startup while the cluster
// comes up. The worker stops when ctx is canceled.
func (r *Runner) Start(ctx context.Context) error {
	cfg := temporalx.LoadConfig()
	r.log.Info("starting Temporal worker", "namespace", cfg.Namespace, "task_queue", cfg.TaskQueue)

	if envutil.Bool("TEMPORAL_AUTO_REGISTER_NAMESPACE", false) {
		if err := temporalx.EnsureNamespace(ctx, cfg, r.log); err != nil {
			r.log.Warn("Temporal namespace ensure failed; worker will retry on start", "namespace", cfg.Namespace, "error", err)
		}
	}

	maxWait := envutil.DurationSeconds("TEMPORAL_WORKER_START_MAX_WAIT_SECONDS", 60)
	deadline := time.Now().Add(maxWait)

	for attempt := 1; ; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		w := r.newWorker(cfg)
		startErr := w.Start()
		if startErr == nil {
			go func() {
				<-ctx.Done()
				w.Stop()
			}()
			r.log.Info("Temporal worker started", "task_queue", cfg.TaskQueue, "attempts", attempt)
			return nil
		}
		w.Stop()

		if maxWait <= 0 || time.Now().After(deadline) {
			var nfe *serviceerror.NamespaceNotFound
			if errors.As(startErr, &nfe) {
				return fmt.Errorf("temporal namespace not found (namespace=%s): %w", cfg.Namespace, startErr)
			}
			return startErr
		}
		r.log.Warn("Temporal worker failed to start; retrying", "attempt", attempt, "error", startErr)
		time.Sleep(time.Duration(attempt) * 250 * time.Millisecond)
	}
}

func (r *Runner) newWorker(cfg temporalx.Config) worker.Worker {
	concurrency := envutil.Int("WORKER_CONCURRENCY", 4)
	if concurrency < 1 {
		concurrency = 1
	}

	w := worker.New(r.tc, cfg.TaskQueue, worker.Options{
		MaxConcurrentActivityExecutionSize:     concurrency,
		MaxConcurrentWorkflowTaskExecutionSize: concurrency,
	})

	acts := &syncjob.Activities{
		Log:      r.log,
		DB:       r.db,
		Jobs:     r.jobRepo,
		Events:   r.eventRepo,
		Registry: r.registry,
		Clock:    r.clock,
	}

	w.RegisterWorkflowWithOptions(syncjob.Workflow, workflow.RegisterOptions{Name: syncjob.WorkflowName})
	w.RegisterActivityWithOptions(acts.RunJob, activity.RegisterOptions{Name: syncjob.ActivityRunJob})
	return w
}
