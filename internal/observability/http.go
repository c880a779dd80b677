package observability

import (
	"net"
	"net/http"
	"strings"
)

// RequestMeta is the caller context recorded on websocket lifecycle events.
type RequestMeta struct {
	DeviceID  string
	RequestID string
	IP        string
	UserAgent string
}

// MetaFromRequest collects RequestMeta from r. The request id is the one the
// RequestID middleware stored on the inbound headers.
func MetaFromRequest(r *http.Request) RequestMeta {
	return RequestMeta{
		DeviceID:  r.Header.Get("X-Device-Id"),
		RequestID: r.Header.Get("X-Request-Id"),
		IP:        IPFromRequest(r),
		UserAgent: r.UserAgent(),
	}
}

// IPFromRequest prefers the first X-Forwarded-For hop over RemoteAddr.
func IPFromRequest(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		return strings.TrimSpace(first)
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil {
		return host
	}
	return r.RemoteAddr
}
