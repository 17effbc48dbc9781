package handlers

import (
	"log"
	"net/http"
	"regintel/internal/services"

	"github.com/gin-gonic/gin"
)

type CronHandler struct {
	sync *services.FDASyncService
}

func NewCronHandler(sync *services.FDASyncService) *CronHandler {
	return &CronHandler{sync: sync}
}

// Sync GET /api/cron/sync, called by the external daily scheduler
func (h *CronHandler) Sync(c *gin.Context) {
	run, err := h.sync.Run(c.Request.Context())
	if err != nil {
		if run != nil {
			// failure details stay in the log and the sync_runs row
			log.Printf("[Sync] run=%d failed: %s", run.ID, run.Error)
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Sync failed",
				"run":   gin.H{"id": run.ID, "status": run.Status},
			})
			return
		}
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"run": run})
}
