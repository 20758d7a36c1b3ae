package middlewares

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/vzahanych/jbot-advisor/internal/server/utils"
	"github.com/vzahanych/jbot-advisor/pkg/logger"
)

const RequestIDHeader = "X-Request-ID"

// RequestIDMiddleware echoes the caller's X-Request-ID or mints one, and
// stores it both on the gin context and on the request context so the
// aggregator and session logs carry it.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.New().String()
		}

		c.Header(RequestIDHeader, requestID)
		c.Set(utils.RequestIDKey, requestID)
		c.Request = c.Request.WithContext(logger.WithRequestID(c.Request.Context(), requestID))

		c.Next()
	}
}
