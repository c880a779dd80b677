package ws

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"boardhub/internal/auth"
)

type stubVerifier map[string]auth.Identity

func (s stubVerifier) Verify(token string) (auth.Identity, error) {
	if token == "" {
		return auth.Identity{}, auth.ErrMissingToken
	}
	identity, ok := s[token]
	if !ok {
		return auth.Identity{}, auth.ErrInvalidToken
	}
	return identity, nil
}

var testIdentities = stubVerifier{
	"tok-alice": {UserID: "alice", Username: "Alice"},
	"tok-bob":   {UserID: "bob", Username: "Bob"},
}

func newTestServer(t *testing.T, opts Options) (*httptest.Server, *Hub) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	hub := newTestHub()
	handler := NewHandler(hub, testIdentities, nil, opts, zap.NewNop())
	router := gin.New()
	router.GET("/chat/ws", handler.Handle)

	srv := httptest.NewServer(router)
	t.Cleanup(func() {
		hub.CloseAll()
		srv.Close()
	})
	return srv, hub
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/chat/ws"
}

func dial(t *testing.T, srv *httptest.Server, token string) *websocket.Conn {
	t.Helper()
	header := http.Header{"Authorization": {"Bearer " + token}}
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL(srv), header)
	require.NoError(t, err)
	resp.Body.Close()
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var ev map[string]any
	require.NoError(t, conn.ReadJSON(&ev))
	return ev
}

// join dials as token and consumes the online_users and user_joined frames.
func join(t *testing.T, srv *httptest.Server, token string) *websocket.Conn {
	t.Helper()
	conn := dial(t, srv, token)
	require.Equal(t, "online_users", readEvent(t, conn)["type"])
	require.Equal(t, "user_joined", readEvent(t, conn)["type"])
	return conn
}

func TestHandleRejectsUnauthenticated(t *testing.T) {
	srv, hub := newTestServer(t, Options{})

	cases := map[string]http.Header{
		"no token":       nil,
		"unknown token":  {"Authorization": {"Bearer nope"}},
		"malformed auth": {"Authorization": {"Token tok-alice"}},
	}
	for name, header := range cases {
		t.Run(name, func(t *testing.T) {
			_, resp, err := websocket.DefaultDialer.Dial(wsURL(srv), header)
			require.ErrorIs(t, err, websocket.ErrBadHandshake)
			require.NotNil(t, resp)
			defer resp.Body.Close()
			assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		})
	}
	assert.Zero(t, hub.Registry().Len())
}

func TestHandleJoinSequence(t *testing.T) {
	srv, _ := newTestServer(t, Options{})

	alice := dial(t, srv, "tok-alice")
	first := readEvent(t, alice)
	assert.Equal(t, "online_users", first["type"])
	assert.Equal(t, []any{"alice"}, first["users"])
	joined := readEvent(t, alice)
	assert.Equal(t, "user_joined", joined["type"])
	assert.Equal(t, "alice", joined["user_id"])

	bob := dial(t, srv, "tok-bob")
	assert.Equal(t, []any{"alice", "bob"}, readEvent(t, bob)["users"])
	bobJoined := readEvent(t, bob)
	assert.Equal(t, []any{"alice", "bob"}, bobJoined["online_users"])

	seen := readEvent(t, alice)
	assert.Equal(t, "user_joined", seen["type"])
	assert.Equal(t, "bob", seen["user_id"])
	assert.Equal(t, []any{"alice", "bob"}, seen["online_users"])
}

func TestHandleTokenFromSubprotocol(t *testing.T) {
	srv, _ := newTestServer(t, Options{Subprotocol: "boardhub.chat"})

	dialer := websocket.Dialer{Subprotocols: []string{"boardhub.chat", auth.SubprotocolPrefix + "tok-alice"}}
	conn, resp, err := dialer.Dial(wsURL(srv), nil)
	require.NoError(t, err)
	resp.Body.Close()
	defer conn.Close()

	assert.Equal(t, "boardhub.chat", conn.Subprotocol())
	assert.Equal(t, "online_users", readEvent(t, conn)["type"])
}

func TestHandleTokenFromQuery(t *testing.T) {
	srv, _ := newTestServer(t, Options{})

	conn, resp, err := websocket.DefaultDialer.Dial(wsURL(srv)+"?token=tok-bob", nil)
	require.NoError(t, err)
	resp.Body.Close()
	defer conn.Close()

	assert.Equal(t, []any{"bob"}, readEvent(t, conn)["users"])
}

func TestHandlePingTypingAndUnknown(t *testing.T) {
	srv, _ := newTestServer(t, Options{})
	alice := join(t, srv, "tok-alice")
	bob := join(t, srv, "tok-bob")
	readEvent(t, alice) // bob joined

	require.NoError(t, alice.WriteJSON(map[string]any{"type": "bogus"}))
	require.NoError(t, alice.WriteJSON(map[string]any{"type": "ping"}))
	assert.Equal(t, "pong", readEvent(t, alice)["type"])

	require.NoError(t, alice.WriteJSON(map[string]any{"type": "typing"}))
	typing := readEvent(t, bob)
	assert.Equal(t, "typing", typing["type"], "bob must not see alice's pong")
	assert.Equal(t, "alice", typing["user_id"])
	assert.Equal(t, false, typing["is_typing"])
	assert.Equal(t, "typing", readEvent(t, alice)["type"])
}

func TestHandleCleanCloseAnnouncesLeave(t *testing.T) {
	srv, hub := newTestServer(t, Options{})
	alice := join(t, srv, "tok-alice")
	bob := join(t, srv, "tok-bob")
	readEvent(t, alice)

	require.NoError(t, alice.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye")))

	left := readEvent(t, bob)
	assert.Equal(t, "user_left", left["type"])
	assert.Equal(t, "alice", left["user_id"])
	assert.Equal(t, []any{"bob"}, left["online_users"])
	assert.False(t, hub.IsOnline("alice"))
}

func TestHandleAbruptDisconnectAnnouncesLeave(t *testing.T) {
	srv, _ := newTestServer(t, Options{})
	alice := join(t, srv, "tok-alice")
	bob := join(t, srv, "tok-bob")
	readEvent(t, alice)

	require.NoError(t, alice.UnderlyingConn().Close())

	left := readEvent(t, bob)
	assert.Equal(t, "user_left", left["type"])
	assert.Equal(t, "alice", left["user_id"])
}

func TestHandleMalformedFrameIsSilent(t *testing.T) {
	srv, hub := newTestServer(t, Options{})
	alice := join(t, srv, "tok-alice")
	bob := join(t, srv, "tok-bob")
	readEvent(t, alice)

	require.NoError(t, alice.WriteMessage(websocket.TextMessage, []byte("{oops")))
	require.Eventually(t, func() bool { return !hub.IsOnline("alice") }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, bob.WriteJSON(map[string]any{"type": "ping"}))
	assert.Equal(t, "pong", readEvent(t, bob)["type"], "no user_left precedes the pong")
	assert.Equal(t, []string{"bob"}, hub.OnlineUsers())
}

func TestHandleReadLimit(t *testing.T) {
	srv, hub := newTestServer(t, Options{MaxMessageBytes: 64})
	alice := join(t, srv, "tok-alice")

	require.NoError(t, alice.WriteMessage(websocket.TextMessage, []byte(strings.Repeat("x", 256))))
	require.Eventually(t, func() bool { return !hub.IsOnline("alice") }, 2*time.Second, 10*time.Millisecond)
}

func TestCheckOrigin(t *testing.T) {
	h := NewHandler(newTestHub(), testIdentities, nil, Options{AllowedOrigins: []string{"https://board.example"}}, zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/chat/ws", nil)
	assert.True(t, h.checkOrigin(req), "non-browser clients send no origin")

	req.Header.Set("Origin", "https://board.example")
	assert.True(t, h.checkOrigin(req))

	req.Header.Set("Origin", "https://evil.example")
	assert.False(t, h.checkOrigin(req))

	open := NewHandler(newTestHub(), testIdentities, nil, Options{}, zap.NewNop())
	assert.True(t, open.checkOrigin(req))
}

func TestNewLimiter(t *testing.T) {
	assert.Nil(t, NewHandler(newTestHub(), testIdentities, nil, Options{}, zap.NewNop()).newLimiter())

	limiter := NewHandler(newTestHub(), testIdentities, nil, Options{RateLimit: 5}, zap.NewNop()).newLimiter()
	require.NotNil(t, limiter)
	assert.Equal(t, 1, limiter.Burst())
}
