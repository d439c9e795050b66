package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/daofeed/daofeed-backend/internal/data/db"
	"github.com/daofeed/daofeed-backend/internal/data/repos"
	httpx "github.com/daofeed/daofeed-backend/internal/http"
	httpH "github.com/daofeed/daofeed-backend/internal/http/handlers"
	jobrt "github.com/daofeed/daofeed-backend/internal/jobs/runtime"
	syncjobs "github.com/daofeed/daofeed-backend/internal/jobs/sync"
	"github.com/daofeed/daofeed-backend/internal/platform/envutil"
	"github.com/daofeed/daofeed-backend/internal/platform/logger"
	"github.com/daofeed/daofeed-backend/internal/snapshot"
	"github.com/daofeed/daofeed-backend/internal/temporalx"
	"github.com/daofeed/daofeed-backend/internal/temporalx/temporalworker"
)

func main() {
	log, err := logger.New(envutil.String("LOG_MODE", "development"))
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Postgres
	postgresService, err := db.NewPostgresService(log)
	if err != nil {
		log.Fatal("Postgres init failed", "error", err)
	}
	if err := postgresService.AutoMigrateAll(); err != nil {
		log.Fatal("Postgres auto migration failed", "error", err)
	}
	thePG := postgresService.DB()

	// Repos
	log.Info("Setting up repos...")
	all := repos.NewAll(thePG, log)

	// Snapshot hub client + job handlers
	log.Info("Setting up sync jobs...")
	clock := clockwork.NewRealClock()
	hub := snapshot.NewClient(log, snapshot.LoadConfig())
	pagePause := envutil.DurationMillis("SNAPSHOT_PAGE_PAUSE_MS", 1000)
	deps := syncjobs.Deps{
		Hub:       hub,
		Pager:     snapshot.NewPaginator(snapshot.BatchSize, pagePause, clock),
		Repos:     all,
		Clock:     clock,
		Log:       log,
		VotePause: envutil.DurationMillis("SNAPSHOT_VOTE_PAUSE_MS", 200),
	}

	registry := jobrt.NewRegistry()
	for _, h := range []jobrt.Handler{
		syncjobs.NewIndexProposalsJob(deps),
		syncjobs.NewEndedVotesJob(deps),
		syncjobs.NewRefreshSpacesJob(deps),
		syncjobs.NewMonthlyActivityJob(deps),
	} {
		if err := registry.Register(h); err != nil {
			log.Fatal("handler registration failed", "error", err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Temporal worker + cron schedules
	tc, err := temporalx.NewClient(log)
	if err != nil {
		log.Fatal("Temporal client init failed", "error", err)
	}
	if tc != nil {
		defer tc.Close()
		runner, err := temporalworker.NewRunner(log, tc, thePG, all.JobRun, all.JobRunEvent, registry, clock)
		if err != nil {
			log.Fatal("Temporal worker init failed", "error", err)
		}
		if err := runner.Start(ctx); err != nil {
			log.Fatal("Temporal worker start failed", "error", err)
		}
		if err := temporalx.EnsureSchedules(ctx, tc, temporalx.DefaultSchedules(), log); err != nil {
			log.Fatal("cron schedule setup failed", "error", err)
		}
	} else {
		log.Warn("Running without a scheduler; sync jobs will not fire")
	}

	// HTTP read API
	log.Info("Setting up router...")
	router := httpx.NewRouter(httpx.RouterConfig{
		HealthHandler:       httpH.NewHealthHandler(),
		ContributionHandler: httpH.NewContributionHandler(all.MonthlyActivity, all.Reward),
		SyncStatusHandler:   httpH.NewSyncStatusHandler(all.SyncState, all.JobRun, all.JobRunEvent),
	})

	srv := &http.Server{
		Addr:    ":" + envutil.String("PORT", "8080"),
		Handler: router,
	}
	go func() {
		log.Info("HTTP server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("HTTP server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("HTTP shutdown failed", "error", err)
	}
}
