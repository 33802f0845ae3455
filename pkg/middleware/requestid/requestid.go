// Package requestid tags every request with a correlation ID so log
// lines and audit entries can be tied back to one HTTP call.
package requestid

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// Header is echoed back to the client and accepted on the way in.
	Header = "X-Request-ID"

	contextKey = "request_id"
)

// Middleware reuses the caller-supplied ID when present, otherwise
// mints a UUID.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(Header)
		if id == "" || len(id) > 64 {
			id = uuid.NewString()
		}
		c.Set(contextKey, id)
		c.Writer.Header().Set(Header, id)
		c.Next()
	}
}

// FromContext returns the request ID, or "" outside the middleware.
func FromContext(c *gin.Context) string {
	if v, ok := c.Get(contextKey); ok {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}
