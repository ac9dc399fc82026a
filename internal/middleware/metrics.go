package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"prism/internal/metrics"
)

const unmatchedRoute = "unmatched"

// Metrics records request counts and latency by matched route. Requests
// rejected with 400 also count toward the validation failure counter under
// their error code.
func Metrics(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = unmatchedRoute
		}
		status := c.Writer.Status()
		m.ObserveRequest(c.Request.Method, route, status, time.Since(start))

		if code := c.GetString(ErrorCodeKey); code != "" && status == http.StatusBadRequest {
			m.IncrValidationFailure(code)
		}
	}
}
