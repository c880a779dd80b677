package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"boardhub/internal/repositories"
	"boardhub/internal/telemetry"
)

// UpdateHandler manages board announcements.
type UpdateHandler struct {
	updateRepo repositories.UpdateRepository
	audit      *telemetry.AuditEmitter
	logger     *zap.Logger
}

// NewUpdateHandler builds an UpdateHandler.
func NewUpdateHandler(updateRepo repositories.UpdateRepository, audit *telemetry.AuditEmitter, logger *zap.Logger) *UpdateHandler {
	return &UpdateHandler{updateRepo: updateRepo, audit: audit, logger: logger}
}

// ListUpdates returns every update, newest first.
func (h *UpdateHandler) ListUpdates(c *gin.Context) {
	updates, err := h.updateRepo.ListUpdates(c.Request.Context())
	if err != nil {
		h.logger.Error("list updates", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load updates"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"updates": updates, "total": len(updates)})
}

// CreateUpdate stores an update authored by the caller.
func (h *UpdateHandler) CreateUpdate(c *gin.Context) {
	var req struct {
		Title     string `json:"title" binding:"required"`
		ContentMD string `json:"content_md" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	update, err := h.updateRepo.CreateUpdate(c.Request.Context(), req.Title, req.ContentMD, c.GetString("userID"))
	if err != nil {
		h.logger.Error("create update", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create update"})
		return
	}

	h.audit.Emit(c.Request.Context(), auditEntry(c, "update created", "update:"+update.ID))
	c.JSON(http.StatusOK, update)
}

// DeleteUpdate removes an update by id.
func (h *UpdateHandler) DeleteUpdate(c *gin.Context) {
	updateID, err := strconv.ParseInt(c.Param("update_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid update id"})
		return
	}

	if err := h.updateRepo.DeleteUpdate(c.Request.Context(), updateID); err != nil {
		if errors.Is(err, repositories.ErrUpdateNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "update not found"})
			return
		}
		h.logger.Error("delete update", zap.Int64("update_id", updateID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete update"})
		return
	}

	h.audit.Emit(c.Request.Context(), auditEntry(c, "update deleted", "update:"+strconv.FormatInt(updateID, 10)))
	c.JSON(http.StatusOK, gin.H{"message": "Update deleted successfully"})
}
