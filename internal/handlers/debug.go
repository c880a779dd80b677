package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"boardhub/internal/telemetry"
	"boardhub/internal/ws"
)

// RegisterDebugRoutes wires debug-only endpoints onto group. It does nothing
// unless enabled.
func RegisterDebugRoutes(group gin.IRoutes, hub *ws.Hub, emitter *telemetry.AuditEmitter, enabled bool) {
	if !enabled {
		return
	}

	group.GET("/debug/audit-test", func(c *gin.Context) {
		if emitter == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "audit emitter not configured"})
			return
		}
		emitter.Emit(c.Request.Context(), auditEntry(c, "audit test", ""))
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	group.GET("/debug/connections", func(c *gin.Context) {
		online := hub.OnlineUsers()
		c.JSON(http.StatusOK, gin.H{
			"connections":  hub.Registry().Len(),
			"online_users": online,
		})
	})
}
