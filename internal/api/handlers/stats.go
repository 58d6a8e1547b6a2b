package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// StatsResponse wraps the combined scheduler and cache counters with a
// timestamp so operators can diff successive snapshots.
type StatsResponse struct {
	Timestamp time.Time `json:"timestamp"`
	Batch     any       `json:"batch"`
	Cache     any       `json:"cache"`
}

// HandleStats returns the write-behind core's throughput counters: per-kind
// queue depths, processed/failed/retried/rejected totals, flush latency, and
// cache hit rates.
func HandleStats(core Core) gin.HandlerFunc {
	return func(c *gin.Context) {
		stats := core.GetStats()
		c.JSON(http.StatusOK, StatsResponse{
			Timestamp: time.Now(),
			Batch:     stats.Batch,
			Cache:     stats.Cache,
		})
	}
}

// HandleFlush synchronously drains every scheduler queue to the durable
// store. Operator affordance for plazactl; normal traffic never needs it.
func HandleFlush(core Core) gin.HandlerFunc {
	return func(c *gin.Context) {
		core.FlushAll(c.Request.Context())
		c.JSON(http.StatusOK, gin.H{"status": "flushed"})
	}
}
