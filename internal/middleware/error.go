package middleware

import (
	"errors"

	"github.com/gin-gonic/gin"

	apperrors "prism/internal/errors"
	"prism/internal/logger"
)

// ErrorCodeKey holds the code of the AppError a request failed with, for
// the metrics middleware.
const ErrorCodeKey = "errorCode"

// ErrorResponse is the JSON envelope of every error response.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// ErrorBody carries the machine-readable code and a human-readable message.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// WriteError writes err as an ErrorResponse. AppErrors keep their status,
// code and message; anything else is logged and reported as an internal
// error so details never reach the client.
func WriteError(c *gin.Context, err error) {
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		logger.Get().Errorw("unexpected error",
			"error", err.Error(),
			"path", c.Request.URL.Path,
			"method", c.Request.Method,
			"request_id", c.GetString(RequestIDKey),
		)
		appErr = apperrors.ErrInternalServer
	} else if appErr.Internal != nil {
		logger.Get().Errorw("app error",
			"code", appErr.Code,
			"message", appErr.Message,
			"internal", appErr.Internal.Error(),
			"path", c.Request.URL.Path,
			"request_id", c.GetString(RequestIDKey),
		)
	}

	c.Set(ErrorCodeKey, appErr.Code)
	c.JSON(appErr.StatusCode, ErrorResponse{Error: ErrorBody{Code: appErr.Code, Message: appErr.Message}})
}

func abortWithError(c *gin.Context, err error) {
	WriteError(c, err)
	c.Abort()
}

// ErrorHandler returns a Gin middleware that converts errors set on the Gin
// context into consistent JSON error responses when nothing was written yet.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		WriteError(c, c.Errors.Last().Err)
	}
}
