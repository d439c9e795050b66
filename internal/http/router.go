package http

import (
	"github.com/gin-gonic/gin"

	httpH "github.com/daofeed/daofeed-backend/internal/http/handlers"
)

type RouterConfig struct {
	HealthHandler       *httpH.HealthHandler
	ContributionHandler *httpH.ContributionHandler
	SyncStatusHandler   *httpH.SyncStatusHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.Default()

	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}

	api := r.Group("/api")
	{
		if cfg.ContributionHandler != nil {
			api.GET("/contribution/:address", cfg.ContributionHandler.GetContribution)
			api.GET("/leaderboard", cfg.ContributionHandler.GetLeaderboard)
		}
		if cfg.SyncStatusHandler != nil {
			api.GET("/sync/status", cfg.SyncStatusHandler.GetStatus)
		}
	}

	return r
}
