package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/acadsync/timetable-api/internal/service"
)

// Metrics records per-route request counts and latencies. The scrape
// endpoint itself is excluded so it does not dominate the series.
func Metrics(metricsSvc *service.MetricsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if metricsSvc == nil || c.Request.URL.Path == "/metrics" {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()

		// Use the route template, not the raw URL, to keep label
		// cardinality bounded (variant ids and tokens vary per request).
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		metricsSvc.ObserveHTTPRequest(c.Request.Method, path, c.Writer.Status(), time.Since(start))
	}
}
