package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/daofeed/daofeed-backend/internal/data/repos"
	"github.com/daofeed/daofeed-backend/internal/http/response"
	syncjobs "github.com/daofeed/daofeed-backend/internal/jobs/sync"
	"github.com/daofeed/daofeed-backend/internal/pkg/dbctx"
)

type SyncStatusHandler struct {
	states repos.SyncStateRepo
	jobs   repos.JobRunRepo
	events repos.JobRunEventRepo
}

func NewSyncStatusHandler(states repos.SyncStateRepo, jobs repos.JobRunRepo, events repos.JobRunEventRepo) *SyncStatusHandler {
	return &SyncStatusHandler{states: states, jobs: jobs, events: events}
}

// GET /api/sync/status
func (h *SyncStatusHandler) GetStatus(c *gin.Context) {
	dbc := dbctx.Context{Ctx: c.Request.Context()}

	state, err := h.states.Get(dbc, syncjobs.StreamProposals)
	if err != nil {
		response.RespondError(c, http.StatusInternalServerError, "sync_status_failed", err)
		return
	}

	jobTypes := []string{
		syncjobs.JobTypeIndexProposals,
		syncjobs.JobTypeEndedVotes,
		syncjobs.JobTypeRefreshSpaces,
		syncjobs.JobTypeMonthlyActivity,
	}
	runs := gin.H{}
	for _, jt := range jobTypes {
		run, err := h.jobs.LatestByType(dbc, jt)
		if err != nil {
			response.RespondError(c, http.StatusInternalServerError, "sync_status_failed", err)
			return
		}
		if run != nil {
			runs[jt] = run
		}
	}

	recent, err := h.events.ListRecent(dbc, 20)
	if err != nil {
		response.RespondError(c, http.StatusInternalServerError, "sync_status_failed", err)
		return
	}

	payload := gin.H{"jobs": runs, "events": recent}
	if state != nil {
		payload["proposals"] = state
	}
	response.RespondOK(c, payload)
}
