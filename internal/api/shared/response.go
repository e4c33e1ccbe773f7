// Package shared holds the JSON envelope written by handlers and middleware.
package shared

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/comit-io/galaxyapi/internal/apperrors"
	"github.com/comit-io/galaxyapi/internal/logger"
)

// Context keys set by middleware.
const (
	RequestIDKey = "request_id"
	ClaimsKey    = "claims"
	UsernameKey  = "username"
)

// APIResponse is the envelope of every JSON response.
type APIResponse struct {
	Success   bool        `json:"success"`
	Data      interface{} `json:"data,omitempty"`
	Error     string      `json:"error,omitempty"`
	Code      string      `json:"code,omitempty"`
	Message   string      `json:"message,omitempty"`
	RequestID string      `json:"request_id,omitempty"`
}

// RequestID returns the id assigned by the request id middleware.
func RequestID(c *gin.Context) string {
	return c.GetString(RequestIDKey)
}

// Entry returns a log entry tagged with the request id.
func Entry(c *gin.Context) *logrus.Entry {
	return logger.WithField(RequestIDKey, RequestID(c))
}

func OK(c *gin.Context, status int, data interface{}) {
	c.JSON(status, APIResponse{Success: true, Data: data, RequestID: RequestID(c)})
}

// Fail logs err with full detail and aborts with the friendly message of its kind.
func Fail(c *gin.Context, op string, err error) {
	logger.LogError(Entry(c), op, err)

	kind := apperrors.KindOf(err)
	c.AbortWithStatusJSON(apperrors.HTTPStatus(err), APIResponse{
		Success:   false,
		Error:     apperrors.FriendlyMessage(err),
		Code:      string(kind),
		RequestID: RequestID(c),
	})
}
