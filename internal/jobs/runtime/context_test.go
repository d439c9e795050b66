package runtime

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"gorm.io/datatypes"

	"github.com/daofeed/daofeed-backend/internal/data/repos"
	"github.com/daofeed/daofeed-backend/internal/data/repos/testutil"
	types "github.com/daofeed/daofeed-backend/internal/domain"
	"github.com/daofeed/daofeed-backend/internal/pkg/dbctx"
	"github.com/daofeed/daofeed-backend/internal/platform/logger"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return log
}

func TestStepRunsOncePerInvocation(t *testing.T) {
	c := NewContext(context.Background(), nil, nil, nil, nil, clockwork.NewFakeClock(), testLogger(t))

	runs := 0
	boom := errors.New("boom")
	fn := func() error {
		runs++
		return boom
	}

	if err := c.Step("fetch", fn); !errors.Is(err, boom) {
		t.Fatalf("first run: %v", err)
	}
	// Re-entering the step replays the recorded outcome.
	if err := c.Step("fetch", fn); !errors.Is(err, boom) {
		t.Fatalf("second run: %v", err)
	}
	if runs != 1 {
		t.Fatalf("step ran %d times", runs)
	}

	if err := c.Step("persist", func() error { return nil }); err != nil {
		t.Fatalf("independent step: %v", err)
	}
	if runs != 1 {
		t.Fatalf("independent step re-ran fetch")
	}
}

func TestSleepWakesOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c := NewContext(ctx, nil, nil, nil, nil, clockwork.NewFakeClock(), testLogger(t))

	if err := c.Sleep("pause", 1); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestContextRecordsEvents(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	log := testutil.Logger(t)
	clock := clockwork.NewFakeClockAt(time.Date(2026, time.April, 10, 12, 0, 0, 0, time.UTC))

	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	jobRepo := repos.NewJobRunRepo(tx, log)
	eventRepo := repos.NewJobRunEventRepo(tx, log)

	now := clock.Now().UTC()
	job := &types.JobRun{
		JobType:   "sync.index_proposals",
		Status:    types.JobStatusRunning,
		Stage:     "starting",
		Result:    datatypes.JSON([]byte("{}")),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := jobRepo.Create(dbc, job); err != nil {
		t.Fatalf("create run: %v", err)
	}

	c := NewContext(ctx, tx, job, jobRepo, eventRepo, clock, log)
	c.Progress("indexing", 50, "halfway")
	clock.Advance(time.Minute)
	c.Fail("indexing", errors.New("hub down"))

	events, err := eventRepo.ListByRun(dbc, job.ID)
	if err != nil {
		t.Fatalf("ListByRun: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].Kind != types.JobEventProgress || events[0].Progress != 50 {
		t.Fatalf("progress event: %+v", events[0])
	}
	if events[1].Kind != types.JobEventFailed || events[1].Message != "hub down" {
		t.Fatalf("failure event: %+v", events[1])
	}
}

type noopHandler struct{ name string }

func (h noopHandler) Type() string       { return h.name }
func (h noopHandler) Run(*Context) error { return nil }

func TestRegistryRejectsDuplicates(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(noopHandler{name: "sync.index_proposals"}); err != nil {
		t.Fatalf("first register: %v", err)
	}
	if err := r.Register(noopHandler{name: "sync.index_proposals"}); err == nil {
		t.Fatalf("duplicate registration must fail")
	}
	if err := r.Register(noopHandler{}); err == nil {
		t.Fatalf("empty type must fail")
	}
	if _, ok := r.Get("sync.index_proposals"); !ok {
		t.Fatalf("registered handler not found")
	}
}
