package observability

// WSEventsRoutingKey is the AMQP routing key for chat websocket lifecycle events.
const WSEventsRoutingKey = "ws_events.chat"

type EventEnvelope struct {
	EventType string      `json:"event_type"`
	EventName string      `json:"event_name"`
	Payload   interface{} `json:"payload"`
}

// WSEvent describes one connection lifecycle transition.
type WSEvent struct {
	Event      string
	ConnID     string
	DurationMS int64
	Reason     string
	UserID     string
	DeviceID   string
	IP         string
}

type wsEventPayload struct {
	WS       wsDetails       `json:"ws"`
	Identity wsEventIdentity `json:"identity"`
}

type wsDetails struct {
	Kind       string `json:"kind"`
	Event      string `json:"event"`
	ConnID     string `json:"conn_id"`
	DurationMS int64  `json:"duration_ms"`
	Reason     string `json:"reason"`
}

type wsEventIdentity struct {
	UserID   string `json:"user_id"`
	DeviceID string `json:"device_id"`
	IP       string `json:"ip"`
}

// Envelope wraps e in the shape consumers of ws_events expect.
func (e WSEvent) Envelope() EventEnvelope {
	return EventEnvelope{
		EventType: "ws_events",
		EventName: e.Event,
		Payload: wsEventPayload{
			WS: wsDetails{
				Kind:       "chat",
				Event:      e.Event,
				ConnID:     e.ConnID,
				DurationMS: e.DurationMS,
				Reason:     e.Reason,
			},
			Identity: wsEventIdentity{UserID: e.UserID, DeviceID: e.DeviceID, IP: e.IP},
		},
	}
}

func BuildHeaders(requestID, traceID string) map[string]string {
	headers := map[string]string{}
	if requestID != "" {
		headers["x-request-id"] = requestID
	}
	if traceID != "" {
		headers["trace_id"] = traceID
	}
	return headers
}
