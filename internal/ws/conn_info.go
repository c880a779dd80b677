package ws

import (
	"time"

	"go.uber.org/zap"

	"boardhub/internal/observability"
)

// ConnInfo is the identity and request context captured at handshake.
type ConnInfo struct {
	ConnID      string
	UserID      string
	Username    string
	RequestMeta observability.RequestMeta
	TraceID     string
	ConnectedAt time.Time
}

func (i ConnInfo) logFields() []zap.Field {
	fields := []zap.Field{
		zap.String("conn_id", i.ConnID),
		zap.String("user_id", i.UserID),
	}
	if i.RequestMeta.RequestID != "" {
		fields = append(fields, zap.String("request_id", i.RequestMeta.RequestID))
	}
	if i.TraceID != "" {
		fields = append(fields, zap.String("trace_id", i.TraceID))
	}
	return fields
}
