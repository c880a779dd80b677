package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"boardhub/internal/middleware"
	"boardhub/internal/telemetry"
)

const requestIDContextKey = "request_id"

func requestIDFromContext(c *gin.Context) string {
	if val, ok := c.Get(requestIDContextKey); ok {
		if id, ok := val.(string); ok && id != "" {
			return id
		}
	}

	requestID := c.GetHeader(middleware.RequestIDHeader)
	if requestID == "" {
		requestID = uuid.NewString()
	}
	c.Set(requestIDContextKey, requestID)
	return requestID
}

// userIDFromContext returns the authenticated caller, or nil for anonymous routes.
func userIDFromContext(c *gin.Context) *string {
	if userID := c.GetString("userID"); userID != "" {
		return &userID
	}
	return nil
}

func auditEntry(c *gin.Context, text, resource string) telemetry.AuditEntry {
	return telemetry.AuditEntry{
		Level:     telemetry.LevelInfo,
		Text:      text,
		Resource:  resource,
		RequestID: requestIDFromContext(c),
		UserID:    userIDFromContext(c),
	}
}
