package telemetry

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// AuditRoutingKey is where chat audit envelopes are published.
const AuditRoutingKey = "audit.chat"

const (
	LevelInfo = "INFO"
	LevelWarn = "WARN"
)

type Publisher interface {
	Publish(ctx context.Context, routingKey string, event any) error
}

// AuditEntry is one auditable action taken by a caller.
type AuditEntry struct {
	Level     string
	Text      string
	Resource  string
	RequestID string
	UserID    *string
}

type AuditEnvelope struct {
	SchemaVersion int          `json:"schema_version"`
	EventType     string       `json:"event_type"`
	OccurredAt    string       `json:"occurred_at"`
	Service       string       `json:"service"`
	Environment   string       `json:"environment"`
	RequestID     string       `json:"request_id"`
	UserID        *string      `json:"user_id,omitempty"`
	Payload       AuditPayload `json:"payload"`
}

type AuditPayload struct {
	Level    string `json:"level"`
	Text     string `json:"text"`
	Resource string `json:"resource,omitempty"`
}

// AuditEmitter publishes AuditEntry values as versioned envelopes.
type AuditEmitter struct {
	publisher   Publisher
	routingKey  string
	service     string
	environment string
	logger      *zap.Logger
	now         func() time.Time
}

func NewAuditEmitter(publisher Publisher, routingKey, service, environment string, logger *zap.Logger) *AuditEmitter {
	return &AuditEmitter{
		publisher:   publisher,
		routingKey:  routingKey,
		service:     service,
		environment: environment,
		logger:      logger,
		now:         time.Now,
	}
}

// Emit is safe on a nil emitter; handlers built without auditing skip it.
// Publish failures are logged and otherwise ignored.
func (e *AuditEmitter) Emit(ctx context.Context, entry AuditEntry) {
	if e == nil || e.publisher == nil {
		return
	}
	if entry.Level == "" {
		entry.Level = LevelInfo
	}

	if err := e.publisher.Publish(ctx, e.routingKey, e.envelope(entry)); err != nil {
		e.logger.Warn("audit publish failed",
			zap.String("request_id", entry.RequestID),
			zap.String("text", entry.Text),
			zap.Error(err),
		)
	}
}

func (e *AuditEmitter) envelope(entry AuditEntry) AuditEnvelope {
	return AuditEnvelope{
		SchemaVersion: 1,
		EventType:     "audit_log",
		OccurredAt:    e.now().UTC().Format(time.RFC3339Nano),
		Service:       e.service,
		Environment:   e.environment,
		RequestID:     entry.RequestID,
		UserID:        entry.UserID,
		Payload: AuditPayload{
			Level:    entry.Level,
			Text:     entry.Text,
			Resource: entry.Resource,
		},
	}
}
