package ws

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"boardhub/internal/auth"
	"boardhub/internal/observability"
	"boardhub/internal/presence"
)

// Options tunes the chat endpoint.
type Options struct {
	// Subprotocol is echoed when the client offers it alongside its token.
	Subprotocol     string
	WriteTimeout    time.Duration
	MaxMessageBytes int64
	// RateLimit is inbound frames per second; zero disables throttling.
	RateLimit      float64
	RateBurst      int
	AllowedOrigins []string
}

// Handler authenticates and upgrades chat websocket requests.
type Handler struct {
	hub      *Hub
	verifier auth.TokenVerifier
	presence *presence.Mirror
	opts     Options
	upgrader websocket.Upgrader
	logger   *zap.Logger
}

// NewHandler constructs a Handler. A nil tracker disables the presence mirror.
func NewHandler(hub *Hub, verifier auth.TokenVerifier, tracker presence.Tracker, opts Options, logger *zap.Logger) *Handler {
	h := &Handler{
		hub:      hub,
		verifier: verifier,
		presence: presence.NewMirror(tracker, hub.IsOnline),
		opts:     opts,
		logger:   logger,
	}
	h.upgrader = websocket.Upgrader{CheckOrigin: h.checkOrigin}
	if opts.Subprotocol != "" {
		h.upgrader.Subprotocols = []string{opts.Subprotocol}
	}
	return h
}

// Handle rejects unauthenticated requests with 401 before upgrading, then runs
// the chat session on its own goroutine.
func (h *Handler) Handle(c *gin.Context) {
	ctx, span := otel.Tracer("boardhub/ws").Start(c.Request.Context(), "ws.handshake",
		trace.WithSpanKind(trace.SpanKindServer))
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	identity, err := h.authenticate(c.Request)
	if err != nil {
		msg := "invalid token"
		if errors.Is(err, auth.ErrMissingToken) {
			msg = "missing token"
		}
		c.JSON(http.StatusUnauthorized, gin.H{"error": msg})
		return
	}
	span.SetAttributes(attribute.String("user_id", identity.UserID))

	wsConn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// the upgrader has already written the error response
		h.logger.Warn("websocket upgrade failed", zap.String("user_id", identity.UserID), zap.Error(err))
		return
	}
	if h.opts.MaxMessageBytes > 0 {
		wsConn.SetReadLimit(h.opts.MaxMessageBytes)
	}

	info := ConnInfo{
		ConnID:      newConnID(),
		UserID:      identity.UserID,
		Username:    identity.Username,
		RequestMeta: observability.MetaFromRequest(c.Request),
		TraceID:     span.SpanContext().TraceID().String(),
		ConnectedAt: time.Now(),
	}
	conn := NewConn(wsConn, info, h.opts.WriteTimeout)
	sess := newSession(h.hub, conn, h.presence, h.newLimiter(), h.logger)

	go sess.run(context.WithoutCancel(ctx))
}

func (h *Handler) authenticate(r *http.Request) (auth.Identity, error) {
	token, err := auth.TokenFromWebSocketRequest(r)
	if err != nil {
		return auth.Identity{}, err
	}
	return h.verifier.Verify(token)
}

func (h *Handler) newLimiter() *rate.Limiter {
	if h.opts.RateLimit <= 0 {
		return nil
	}
	burst := h.opts.RateBurst
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(h.opts.RateLimit), burst)
}

// checkOrigin allows everything when no origins are configured. Requests
// without an Origin header come from non-browser clients and are allowed.
func (h *Handler) checkOrigin(r *http.Request) bool {
	if len(h.opts.AllowedOrigins) == 0 {
		return true
	}
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, allowed := range h.opts.AllowedOrigins {
		if strings.EqualFold(origin, allowed) {
			return true
		}
	}
	return false
}
