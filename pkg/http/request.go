package http

import (
	"net"
	"net/http"
)

// ClientIP extracts the client IP from RemoteAddr, dropping the port when
// present. The router's RealIP middleware has already resolved forwarded
// headers by the time handlers see the request.
func ClientIP(r *http.Request) string {
	if r.RemoteAddr == "" {
		return "unknown"
	}
	if ip, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return ip
	}
	return r.RemoteAddr
}
