package models

// Outbound websocket event kinds.
const (
	EventNewMessage  = "new_message"
	EventUserJoined  = "user_joined"
	EventUserLeft    = "user_left"
	EventTyping      = "typing"
	EventOnlineUsers = "online_users"
	EventPong        = "pong"
)

// NewMessageEvent carries a freshly persisted message to every live connection.
type NewMessageEvent struct {
	Type    string      `json:"type"`
	Message ChatMessage `json:"message"`
}

// PresenceEvent announces a join or a clean leave together with the online list.
type PresenceEvent struct {
	Type        string   `json:"type"`
	UserID      string   `json:"user_id"`
	OnlineUsers []string `json:"online_users"`
}

// TypingEvent relays a typing indicator.
type TypingEvent struct {
	Type     string `json:"type"`
	UserID   string `json:"user_id"`
	IsTyping bool   `json:"is_typing"`
}

// OnlineUsersEvent is sent once to a new connection right after the handshake.
type OnlineUsersEvent struct {
	Type  string   `json:"type"`
	Users []string `json:"users"`
}

// PongEvent answers a client ping.
type PongEvent struct {
	Type string `json:"type"`
}

func NewMessage(msg ChatMessage) NewMessageEvent {
	return NewMessageEvent{Type: EventNewMessage, Message: msg}
}

func UserJoined(userID string, online []string) PresenceEvent {
	return PresenceEvent{Type: EventUserJoined, UserID: userID, OnlineUsers: nonNil(online)}
}

func UserLeft(userID string, online []string) PresenceEvent {
	return PresenceEvent{Type: EventUserLeft, UserID: userID, OnlineUsers: nonNil(online)}
}

func Typing(userID string, isTyping bool) TypingEvent {
	return TypingEvent{Type: EventTyping, UserID: userID, IsTyping: isTyping}
}

func OnlineUsers(users []string) OnlineUsersEvent {
	return OnlineUsersEvent{Type: EventOnlineUsers, Users: nonNil(users)}
}

func Pong() PongEvent {
	return PongEvent{Type: EventPong}
}

// nonNil keeps empty lists encoded as [] instead of null.
func nonNil(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}
