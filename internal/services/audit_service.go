package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/culthread/backoffice/internal/models"
	"github.com/culthread/backoffice/internal/repositories"
	"github.com/google/uuid"
)

// AuditRecord is the write-side shape of an audit event before the service
// assigns its correlation ID and timestamp
type AuditRecord struct {
	Event     string
	Username  string
	Details   models.AuditDetails
	Client    models.ClientContext
	SessionID string
}

// AuditService keeps a bounded, append-only event buffer with dual-write
// semantics: every append emits a structured log line and persists the full
// buffer. Persistence is best-effort; a failing store never breaks the
// caller's primary operation.
type AuditService struct {
	mu         sync.Mutex
	store      repositories.AuditStore
	entries    []models.AuditEntry
	maxEntries int
	logger     *slog.Logger
	now        func() time.Time
}

// NewAuditService creates a new AuditService, reconstructing the buffer
// from the store. A missing or unreadable store starts the log empty.
func NewAuditService(store repositories.AuditStore, maxEntries int, logger *slog.Logger) *AuditService {
	s := &AuditService{
		store:      store,
		maxEntries: maxEntries,
		logger:     logger,
		now:        time.Now,
	}

	entries, err := store.Load()
	if err != nil {
		logger.Warn("failed to load audit log, starting empty", slog.Any("error", err))
		entries = nil
	}
	if len(entries) > maxEntries {
		entries = entries[len(entries)-maxEntries:]
	}
	s.entries = entries

	return s
}

// SetTimeFunc overrides the clock used for entry timestamps and stats windows
func (s *AuditService) SetTimeFunc(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// Append records an event. The oldest entries are dropped once the buffer
// exceeds its cap; entries are never mutated after append.
func (s *AuditService) Append(rec AuditRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry := models.AuditEntry{
		ID:        uuid.New().String(),
		Timestamp: s.now(),
		Event:     rec.Event,
		Username:  rec.Username,
		Details:   rec.Details,
		UserAgent: rec.Client.UserAgent,
		SessionID: rec.SessionID,
	}

	s.entries = append(s.entries, entry)
	if len(s.entries) > s.maxEntries {
		s.entries = s.entries[len(s.entries)-s.maxEntries:]
	}

	s.logEntry(entry, rec.Client.IPAddress)
	s.persistLocked()
}

// logEntry is the slog half of the dual write
func (s *AuditService) logEntry(entry models.AuditEntry, ipAddress string) {
	attrs := []slog.Attr{
		slog.String("audit_id", entry.ID),
		slog.String("event", entry.Event),
	}
	if entry.Username != "" {
		attrs = append(attrs, slog.String("username", entry.Username))
	}
	if ipAddress != "" {
		attrs = append(attrs, slog.String("ip_address", ipAddress))
	}
	if entry.SessionID != "" {
		attrs = append(attrs, slog.String("session_id", entry.SessionID))
	}

	level := slog.LevelInfo
	switch entry.Event {
	case models.AuditEventLoginFailed,
		models.AuditEventAccountLocked,
		models.AuditEventRateLimitExceeded,
		models.AuditEventSessionExpired:
		level = slog.LevelWarn
	}

	s.logger.LogAttrs(context.Background(), level, "audit", attrs...)
}

// persistLocked writes the buffer to the store, swallowing failures
func (s *AuditService) persistLocked() {
	snapshot := make([]models.AuditEntry, len(s.entries))
	copy(snapshot, s.entries)

	if err := s.store.Save(snapshot); err != nil {
		s.logger.Error("failed to persist audit log", slog.Any("error", err))
	}
}

// Recent returns the last n entries in chronological order, oldest first
func (s *AuditService) Recent(n int) []models.AuditEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	if n <= 0 || n > len(s.entries) {
		n = len(s.entries)
	}

	out := make([]models.AuditEntry, n)
	copy(out, s.entries[len(s.entries)-n:])
	return out
}

// ByEvent returns all buffered entries of the given event kind
func (s *AuditService) ByEvent(event string) []models.AuditEntry {
	return s.filter(func(e models.AuditEntry) bool { return e.Event == event })
}

// ByUser returns all buffered entries for the given username
func (s *AuditService) ByUser(username string) []models.AuditEntry {
	return s.filter(func(e models.AuditEntry) bool { return e.Username == username })
}

// InRange returns all buffered entries with start <= timestamp < end
func (s *AuditService) InRange(start, end time.Time) []models.AuditEntry {
	return s.filter(func(e models.AuditEntry) bool {
		return !e.Timestamp.Before(start) && e.Timestamp.Before(end)
	})
}

func (s *AuditService) filter(keep func(models.AuditEntry) bool) []models.AuditEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.AuditEntry, 0)
	for _, e := range s.entries {
		if keep(e) {
			out = append(out, e)
		}
	}
	return out
}

// Stats recomputes per-event counts over rolling 24h and 7d windows from
// the full buffer at call time
func (s *AuditService) Stats() models.AuditStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	dayAgo := now.Add(-24 * time.Hour)
	weekAgo := now.Add(-7 * 24 * time.Hour)

	stats := models.AuditStats{
		Total:  len(s.entries),
		Last24: make(map[string]int),
		Last7d: make(map[string]int),
	}

	for _, e := range s.entries {
		if e.Timestamp.After(weekAgo) {
			stats.Last7d[e.Event]++
			if e.Timestamp.After(dayAgo) {
				stats.Last24[e.Event]++
			}
		}
	}

	return stats
}

// Export serializes the full buffer for download or backup
func (s *AuditService) Export() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.entries
	if snapshot == nil {
		snapshot = []models.AuditEntry{}
	}

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to export audit log: %w", err)
	}
	return string(data), nil
}

// Clear empties the buffer and persists the empty state
func (s *AuditService) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = nil
	s.persistLocked()
}

// Len returns the current buffer length
func (s *AuditService) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
