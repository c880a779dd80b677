package ws

import (
	"context"
	"time"

	"github.com/google/uuid"

	"boardhub/internal/observability"
)

func newConnID() string {
	return uuid.NewString()
}

// publishWSEvent reports a lifecycle event for info on the ws_events exchange.
func publishWSEvent(ctx context.Context, info ConnInfo, event, reason string) {
	var durationMS int64
	if !info.ConnectedAt.IsZero() && event != "ws_connect" {
		durationMS = time.Since(info.ConnectedAt).Milliseconds()
	}

	envelope := observability.WSEvent{
		Event:      event,
		ConnID:     info.ConnID,
		DurationMS: durationMS,
		Reason:     reason,
		UserID:     info.UserID,
		DeviceID:   info.RequestMeta.DeviceID,
		IP:         info.RequestMeta.IP,
	}.Envelope()

	_ = observability.PublishEvent(ctx, observability.WSEventsRoutingKey, envelope,
		observability.BuildHeaders(info.RequestMeta.RequestID, info.TraceID))
	observability.IncWSEvent(event)
}
