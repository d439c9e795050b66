package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/daofeed/daofeed-backend/internal/data/repos"
	"github.com/daofeed/daofeed-backend/internal/http/response"
	"github.com/daofeed/daofeed-backend/internal/pkg/dbctx"
)

type ContributionHandler struct {
	activity repos.MonthlyActivityRepo
	rewards  repos.RewardRepo
}

func NewContributionHandler(activity repos.MonthlyActivityRepo, rewards repos.RewardRepo) *ContributionHandler {
	return &ContributionHandler{activity: activity, rewards: rewards}
}

// monthParams resolves the year/month query params, defaulting to the most
// recent fully aggregated month (the previous UTC month).
func monthParams(c *gin.Context) (string, string, error) {
	now := time.Now().UTC()
	prev := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -1, 0)
	year := strings.TrimSpace(c.Query("year"))
	month := strings.TrimSpace(c.Query("month"))
	if year == "" && month == "" {
		return prev.Format("2006"), prev.Format("01"), nil
	}
	if year == "" || month == "" {
		return "", "", fmt.Errorf("year and month must be provided together")
	}
	if _, err := time.Parse("2006-01", year+"-"+month); err != nil {
		return "", "", fmt.Errorf("invalid year/month: %s-%s", year, month)
	}
	return year, month, nil
}

// GET /api/contribution/:address
func (h *ContributionHandler) GetContribution(c *gin.Context) {
	address := strings.TrimSpace(c.Param("address"))
	if address == "" {
		response.RespondError(c, http.StatusBadRequest, "invalid_address", fmt.Errorf("address is required"))
		return
	}
	year, month, err := monthParams(c)
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_period", err)
		return
	}

	dbc := dbctx.Context{Ctx: c.Request.Context()}
	row, err := h.activity.Get(dbc, address, year, month)
	if err != nil {
		response.RespondError(c, http.StatusInternalServerError, "contribution_lookup_failed", err)
		return
	}

	payload := gin.H{
		"address": address,
		"year":    year,
		"month":   month,
	}
	if row != nil {
		payload["activity"] = row
	}

	pool, err := h.rewards.GetPool(dbc, year, month)
	if err != nil {
		response.RespondError(c, http.StatusInternalServerError, "contribution_lookup_failed", err)
		return
	}
	if pool != nil {
		payload["prize_pool"] = pool
		claim, err := h.rewards.GetClaim(dbc, address, year, month)
		if err != nil {
			response.RespondError(c, http.StatusInternalServerError, "contribution_lookup_failed", err)
			return
		}
		if claim != nil {
			payload["claim"] = claim
		}
	}

	response.RespondOK(c, payload)
}

// GET /api/leaderboard
func (h *ContributionHandler) GetLeaderboard(c *gin.Context) {
	year, month, err := monthParams(c)
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_period", err)
		return
	}
	limit := 50
	if v := strings.TrimSpace(c.Query("limit")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 500 {
			response.RespondError(c, http.StatusBadRequest, "invalid_limit", fmt.Errorf("limit must be 1-500"))
			return
		}
		limit = n
	}

	rows, err := h.activity.Leaderboard(dbctx.Context{Ctx: c.Request.Context()}, year, month, limit)
	if err != nil {
		response.RespondError(c, http.StatusInternalServerError, "leaderboard_failed", err)
		return
	}
	response.RespondOK(c, gin.H{
		"year":        year,
		"month":       month,
		"leaderboard": rows,
	})
}
