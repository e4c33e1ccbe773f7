package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/comit-io/galaxyapi/internal/api/shared"
)

const requestIDHeader = "X-Request-ID"

// RequestID adds a unique request ID to each request, keeping one supplied by the client.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(requestIDHeader)
		if requestID == "" || len(requestID) > 128 {
			requestID = uuid.New().String()
		}

		c.Set(shared.RequestIDKey, requestID)
		c.Header(requestIDHeader, requestID)

		c.Next()
	}
}
