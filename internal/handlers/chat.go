package handlers

import (
	"net/http"
	"slices"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"boardhub/internal/models"
	"boardhub/internal/observability"
	"boardhub/internal/presence"
	"boardhub/internal/repositories"
	"boardhub/internal/telemetry"
	"boardhub/internal/ws"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 200
	maxMessageLength    = 4000
)

// ChatHandler serves chat history, message sends and presence queries.
type ChatHandler struct {
	messageRepo repositories.MessageRepository
	hub         *ws.Hub
	presence    presence.Tracker
	audit       *telemetry.AuditEmitter
	logger      *zap.Logger
}

// NewChatHandler builds a ChatHandler. tracker and audit may be nil.
func NewChatHandler(messageRepo repositories.MessageRepository, hub *ws.Hub, tracker presence.Tracker, audit *telemetry.AuditEmitter, logger *zap.Logger) *ChatHandler {
	if tracker == nil {
		tracker = presence.NoopStore{}
	}
	return &ChatHandler{
		messageRepo: messageRepo,
		hub:         hub,
		presence:    tracker,
		audit:       audit,
		logger:      logger,
	}
}

// GetMessages returns one page of the most recent messages, oldest first.
func (h *ChatHandler) GetMessages(c *gin.Context) {
	limit, ok := queryInt(c, "limit", defaultHistoryLimit)
	if !ok {
		return
	}
	offset, ok := queryInt(c, "offset", 0)
	if !ok {
		return
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}

	msgs, err := h.messageRepo.ListRecent(c.Request.Context(), limit, offset)
	if err != nil {
		h.logger.Error("list chat messages", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load messages"})
		return
	}
	total, err := h.messageRepo.CountMessages(c.Request.Context())
	if err != nil {
		h.logger.Error("count chat messages", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load messages"})
		return
	}

	if msgs == nil {
		msgs = []models.ChatMessage{}
	}
	slices.Reverse(msgs)
	c.JSON(http.StatusOK, models.ChatMessagePage{Messages: msgs, Total: total})
}

// PostMessage persists a message and then announces it to every live connection.
func (h *ChatHandler) PostMessage(c *gin.Context) {
	var req struct {
		Content string `json:"content" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "content must not be empty"})
		return
	}
	if utf8.RuneCountInString(req.Content) > maxMessageLength {
		c.JSON(http.StatusBadRequest, gin.H{"error": "content too long"})
		return
	}

	userID := c.GetString("userID")
	username := c.GetString("username")
	if username == "" {
		username = userID
	}

	msg, err := h.messageRepo.CreateMessage(c.Request.Context(), req.Content, userID, username)
	if err != nil {
		h.logger.Error("store chat message", zap.String("user_id", userID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store message"})
		return
	}

	h.hub.BroadcastMessage(msg)
	observability.IncChatMessage()
	h.audit.Emit(c.Request.Context(), auditEntry(c, "chat message sent", "chat_message:"+msg.ID))

	c.JSON(http.StatusOK, msg)
}

// OnlineUsers returns the users with a live chat connection.
func (h *ChatHandler) OnlineUsers(c *gin.Context) {
	online := h.hub.OnlineUsers()
	c.JSON(http.StatusOK, gin.H{"online_users": online, "count": len(online)})
}

// Presence reports whether a user is online and when they were last seen.
func (h *ChatHandler) Presence(c *gin.Context) {
	userID := c.Param("user_id")

	resp := gin.H{
		"user_id":   userID,
		"online":    h.hub.IsOnline(userID),
		"last_seen": nil,
	}

	lastSeen, ok, err := h.presence.LastSeen(c.Request.Context(), userID)
	if err != nil {
		h.logger.Warn("presence lookup failed", zap.String("user_id", userID), zap.Error(err))
	} else if ok {
		resp["last_seen"] = lastSeen.UTC()
	}

	c.JSON(http.StatusOK, resp)
}

// queryInt parses a non-negative integer query parameter and writes a 400 on failure.
func queryInt(c *gin.Context, key string, def int) (int, bool) {
	raw := c.Query(key)
	if raw == "" {
		return def, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + key})
		return 0, false
	}
	return v, true
}
