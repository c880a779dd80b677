package ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"boardhub/internal/models"
	"boardhub/internal/observability"
	"boardhub/internal/presence"
)

type sessionState int

const (
	stateConnecting sessionState = iota
	stateOpen
	stateClosed
)

func (s sessionState) String() string {
	switch s {
	case stateConnecting:
		return "connecting"
	case stateOpen:
		return "open"
	default:
		return "closed"
	}
}

// Inbound frame kinds. Anything else is ignored.
const (
	framePing   = "ping"
	frameTyping = "typing"
)

var errMalformedFrame = errors.New("malformed frame")

// session runs the protocol for one connection: Connecting -> Open -> Closed.
type session struct {
	hub      *Hub
	conn     *Conn
	presence *presence.Mirror
	limiter  *rate.Limiter
	logger   *zap.Logger
	state    sessionState
}

func newSession(hub *Hub, conn *Conn, mirror *presence.Mirror, limiter *rate.Limiter, logger *zap.Logger) *session {
	return &session{
		hub:      hub,
		conn:     conn,
		presence: mirror,
		limiter:  limiter,
		logger:   logger.With(conn.Info().logFields()...),
		state:    stateConnecting,
	}
}

// run blocks until the transport closes or the session faults. Every exit path,
// including a panic in dispatch, leaves the connection deregistered and closed.
func (s *session) run(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			s.fault(ctx, fmt.Errorf("panic: %v", r))
		}
		s.release(ctx)
		_ = s.conn.Close()
	}()

	if err := s.open(ctx); err != nil {
		s.fault(ctx, err)
		return
	}

	for {
		data, err := s.conn.read()
		if err != nil {
			s.closeClean(ctx, err)
			return
		}
		if err := s.dispatch(data); err != nil {
			s.fault(ctx, err)
			return
		}
	}
}

func (s *session) open(ctx context.Context) error {
	userID := s.conn.UserID()

	// The joiner and everyone else see the same list, and online_users is the
	// first frame the joiner receives.
	var online []string
	err := s.conn.greet(func() any {
		s.hub.registry.Register(s.conn)
		observability.IncWSActive()
		s.state = stateOpen
		online = s.hub.registry.OnlineUserIDs()
		return models.OnlineUsers(online)
	})
	if err != nil {
		return fmt.Errorf("send online users: %w", err)
	}
	s.hub.Broadcast(models.UserJoined(userID, online))

	publishWSEvent(ctx, s.conn.Info(), "ws_connect", "")
	if err := s.presence.Joined(ctx, userID); err != nil {
		s.logger.Warn("presence mark online failed", zap.Error(err))
	}
	s.logger.Info("chat connection open")
	return nil
}

func (s *session) dispatch(data []byte) error {
	if s.limiter != nil && !s.limiter.Allow() {
		observability.IncWSEvent("ws_throttled")
		s.logger.Debug("inbound frame dropped by rate limit")
		return nil
	}

	var frame map[string]any
	if err := json.Unmarshal(data, &frame); err != nil {
		return fmt.Errorf("%w: %v", errMalformedFrame, err)
	}
	if frame == nil {
		return fmt.Errorf("%w: null frame", errMalformedFrame)
	}

	kind, _ := frame["type"].(string)
	switch kind {
	case framePing:
		if err := s.conn.writeJSON(models.Pong()); err != nil {
			return fmt.Errorf("send pong: %w", err)
		}
	case frameTyping:
		isTyping, _ := frame["is_typing"].(bool)
		s.hub.Broadcast(models.Typing(s.conn.UserID(), isTyping))
	}
	return nil
}

// closeClean handles a transport-level disconnect: the departure is announced.
func (s *session) closeClean(ctx context.Context, cause error) {
	s.release(ctx)
	s.logger.Info("chat connection closed", zap.NamedError("cause", cause))
	publishWSEvent(ctx, s.conn.Info(), "ws_disconnect", cause.Error())

	userID := s.conn.UserID()
	s.hub.Broadcast(models.UserLeft(userID, s.hub.registry.OnlineUserIDs()))
}

// fault handles decode and dispatch failures. The connection is released but
// no user_left is broadcast; other clients learn of it on the next presence change.
func (s *session) fault(ctx context.Context, cause error) {
	s.release(ctx)
	s.logger.Error("chat session faulted", zap.Error(cause))
	publishWSEvent(ctx, s.conn.Info(), "ws_error", cause.Error())
	publishWSEvent(ctx, s.conn.Info(), "ws_disconnect", cause.Error())
}

func (s *session) release(ctx context.Context) {
	if s.state == stateClosed {
		return
	}
	s.state = stateClosed

	if s.hub.registry.Deregister(s.conn) {
		observability.DecWSActive()
	}
	if err := s.presence.Left(ctx, s.conn.UserID()); err != nil {
		s.logger.Warn("presence mark offline failed", zap.Error(err))
	}
}
