package models

import "time"

// Session is the server-side record for a live, validated token.
// Sessions are memory-only: a process restart clears them and the
// dashboard re-authenticates.
type Session struct {
	Username     string    `json:"username"`
	Role         string    `json:"role"`
	LoginTime    time.Time `json:"login_time"`
	LastActivity time.Time `json:"last_activity"`
}
