package websocket

import (
	"net/http"
	"strings"

	"github.com/gorilla/websocket"

	"github.com/welldanyogia/webrana-support-assistant/internal/logger"
)

// DefaultAllowedOrigin is used when no origins are configured
const DefaultAllowedOrigin = "http://localhost:3000"

// ParseOrigins splits a comma separated origin list, dropping blanks
func ParseOrigins(list string) []string {
	origins := make([]string, 0)
	for _, origin := range strings.Split(list, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}
	if len(origins) == 0 {
		origins = []string{DefaultAllowedOrigin}
	}
	return origins
}

// NewSecureUpgrader creates a WebSocket upgrader that only accepts the
// given origins. Requests without an Origin header are same-origin and
// always accepted.
func NewSecureUpgrader(allowedOrigins []string, security *logger.SecurityLogger) websocket.Upgrader {
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{DefaultAllowedOrigin}
	}
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		allowed[origin] = true
	}

	return websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" || allowed[origin] {
				return true
			}

			if security != nil {
				security.InvalidOrigin(r.RemoteAddr, origin)
			}
			return false
		},
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
	}
}
