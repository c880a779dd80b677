package ws

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"boardhub/internal/models"
	"boardhub/internal/observability"
)

// Hub fans events out to every registered connection. Writes are sequential,
// so a stalled peer delays the rest of a fan-out by at most sendTimeout.
type Hub struct {
	registry    *Registry
	logger      *zap.Logger
	sendTimeout time.Duration
}

// HubOption configures a Hub.
type HubOption func(*Hub)

// WithSendTimeout caps the write deadline used for each broadcast delivery.
// Zero keeps each connection's own write timeout.
func WithSendTimeout(d time.Duration) HubOption {
	return func(h *Hub) {
		h.sendTimeout = d
	}
}

// NewHub creates a hub over registry.
func NewHub(registry *Registry, logger *zap.Logger, opts ...HubOption) *Hub {
	h := &Hub{registry: registry, logger: logger}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Registry exposes the connection registry backing the hub.
func (h *Hub) Registry() *Registry {
	return h.registry
}

// Broadcast encodes event once and writes it to a snapshot of the registry.
// A connection whose write fails is deregistered and closed; delivery to the
// rest continues. It returns the number of successful deliveries.
func (h *Hub) Broadcast(event any) int {
	payload, err := json.Marshal(event)
	if err != nil {
		h.logger.Error("encode broadcast event", zap.Error(err))
		return 0
	}

	delivered := 0
	for _, conn := range h.registry.Snapshot() {
		if err := conn.writeFrameWithin(payload, h.sendTimeout); err != nil {
			h.drop(conn, err)
			continue
		}
		delivered++
	}
	return delivered
}

// BroadcastMessage announces a persisted chat message.
func (h *Hub) BroadcastMessage(msg models.ChatMessage) int {
	return h.Broadcast(models.NewMessage(msg))
}

// OnlineUsers returns the current presence snapshot.
func (h *Hub) OnlineUsers() []string {
	return h.registry.OnlineUserIDs()
}

// IsOnline reports whether userID has a live connection.
func (h *Hub) IsOnline(userID string) bool {
	return h.registry.IsOnline(userID)
}

// CloseAll closes every registered transport so each session unwinds through
// its own deregistration path. Used on shutdown.
func (h *Hub) CloseAll() {
	conns := h.registry.Snapshot()
	for _, conn := range conns {
		_ = conn.Close()
	}
	h.logger.Info("closed chat connections", zap.Int("count", len(conns)))
}

func (h *Hub) drop(conn *Conn, err error) {
	h.logger.Warn("websocket write error, dropping connection",
		zap.String("conn_id", conn.ID()),
		zap.String("user_id", conn.UserID()),
		zap.Error(err),
	)
	if h.registry.Deregister(conn) {
		observability.DecWSActive()
	}
	_ = conn.Close()
	observability.IncWSBroadcastFailure()
	publishWSEvent(context.Background(), conn.Info(), "ws_error", err.Error())
}
