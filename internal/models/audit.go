package models

import (
	"encoding/json"
	"time"
)

// Event types for audit logging
const (
	AuditEventLoginSuccess      = "login_success"
	AuditEventLoginFailed       = "login_failed"
	AuditEventAccountLocked     = "account_locked"
	AuditEventRateLimitExceeded = "rate_limit_exceeded"
	AuditEventLogout            = "logout"
	AuditEventSessionExpired    = "session_expired"
	AuditEventLogsCleared       = "logs_cleared"
)

// AuditDetails holds additional context for audit events
type AuditDetails map[string]interface{}

// AuditEntry is an immutable record of a security-relevant occurrence.
// Entries are never mutated after append; buffer order is chronological.
type AuditEntry struct {
	ID        string       `json:"id"`
	Timestamp time.Time    `json:"timestamp"`
	Event     string       `json:"event"`
	Username  string       `json:"username,omitempty"`
	Details   AuditDetails `json:"details,omitempty"`
	UserAgent string       `json:"user_agent,omitempty"`
	SessionID string       `json:"session_id,omitempty"`
}

// AuditStats aggregates per-event counts over rolling windows
type AuditStats struct {
	Total  int            `json:"total"`
	Last24 map[string]int `json:"last_24h"`
	Last7d map[string]int `json:"last_7d"`
}

// MarshalJSON implements json.Marshaler
func (ad AuditDetails) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]interface{}(ad))
}

// UnmarshalJSON implements json.Unmarshaler
func (ad *AuditDetails) UnmarshalJSON(data []byte) error {
	var m map[string]interface{}
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	*ad = AuditDetails(m)
	return nil
}
