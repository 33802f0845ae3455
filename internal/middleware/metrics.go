package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/siga-dev/siga-api/internal/service"
)

// Metrics records per-request duration and status counts. The route
// template is used as the path label so IDs do not explode cardinality.
func Metrics(m *service.MetricsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if m == nil {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			// Unmatched routes collapse into one label.
			path = "unmatched"
		}
		m.ObserveHTTPRequest(c.Request.Method, path, c.Writer.Status(), time.Since(start))
	}
}
