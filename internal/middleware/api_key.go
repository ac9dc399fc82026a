package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
)

// APIKeyAuth guards operational endpoints with the X-API-Key header. An
// empty configured key disables the endpoint.
func APIKeyAuth(apiKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if apiKey == "" {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable,
				ErrorResponse{Error: ErrorBody{Code: "NOT_CONFIGURED", Message: "This endpoint is not configured"}})
			return
		}
		key := c.GetHeader("X-API-Key")
		if subtle.ConstantTimeCompare([]byte(key), []byte(apiKey)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				ErrorResponse{Error: ErrorBody{Code: "INVALID_API_KEY", Message: "Invalid or missing API key"}})
			return
		}
		c.Next()
	}
}
