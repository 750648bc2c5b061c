package sessions

import (
	"net"
	"net/http"
	"strings"
)

// RequestContext carries the client-facing request attributes a new session
// records.
type RequestContext struct {
	IP        string
	UserAgent string
}

// ContextFromRequest extracts the client IP and user agent from an inbound
// request.
func ContextFromRequest(r *http.Request) RequestContext {
	return RequestContext{
		IP:        ClientIP(r),
		UserAgent: r.UserAgent(),
	}
}

// ClientIP prefers the first X-Forwarded-For entry over the raw connection
// address. Trusting the header is a deliberate choice for deployments behind
// a reverse proxy; without one the value is spoofable.
func ClientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first := strings.TrimSpace(strings.Split(forwarded, ",")[0])
		if first != "" {
			return first
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return strings.TrimSpace(r.RemoteAddr)
	}
	return host
}
