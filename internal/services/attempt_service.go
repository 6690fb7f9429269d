package services

import (
	"log/slog"
	"sync"
	"time"

	"github.com/culthread/backoffice/internal/models"
)

// AttemptConfig holds configuration for failed-attempt tracking
type AttemptConfig struct {
	MaxAttempts     int
	LockoutDuration time.Duration
}

// DefaultAttemptConfig returns the default lockout policy: 5 attempts,
// 15 minute window
func DefaultAttemptConfig() AttemptConfig {
	return AttemptConfig{
		MaxAttempts:     5,
		LockoutDuration: 15 * time.Minute,
	}
}

type attemptRecord struct {
	failureCount  int
	lastFailureAt time.Time
}

// AttemptService tracks failed login attempts per username and computes
// lockout state. Records live in memory only; a restart clears them.
type AttemptService struct {
	mu      sync.Mutex
	records map[string]*attemptRecord
	config  AttemptConfig
	audit   *AuditService
	logger  *slog.Logger
	now     func() time.Time
}

// NewAttemptService creates a new AttemptService
func NewAttemptService(config AttemptConfig, audit *AuditService, logger *slog.Logger) *AttemptService {
	return &AttemptService{
		records: make(map[string]*attemptRecord),
		config:  config,
		audit:   audit,
		logger:  logger,
		now:     time.Now,
	}
}

// SetTimeFunc overrides the clock used for lockout-window arithmetic
func (s *AttemptService) SetTimeFunc(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// IsLockedOut reports whether the username is inside an active lockout
// window. A record older than the lockout window is stale and is purged as
// a side effect, so the next failure starts a fresh window.
func (s *AttemptService) IsLockedOut(username string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isLockedOutLocked(username)
}

func (s *AttemptService) isLockedOutLocked(username string) bool {
	rec, ok := s.records[username]
	if !ok {
		return false
	}

	if s.now().Sub(rec.lastFailureAt) >= s.config.LockoutDuration {
		delete(s.records, username)
		return false
	}

	return rec.failureCount >= s.config.MaxAttempts
}

// RecordFailure increments the failure counter and stamps the failure
// time. Crossing the threshold additionally emits rate-limit and
// account-locked audit events.
func (s *AttemptService) RecordFailure(username string, client models.ClientContext) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[username]
	if !ok {
		rec = &attemptRecord{}
		s.records[username] = rec
	}

	rec.failureCount++
	rec.lastFailureAt = s.now()

	remaining := s.config.MaxAttempts - rec.failureCount
	if remaining < 0 {
		remaining = 0
	}

	s.audit.Append(AuditRecord{
		Event:    models.AuditEventLoginFailed,
		Username: username,
		Details: models.AuditDetails{
			"failure_count":      rec.failureCount,
			"remaining_attempts": remaining,
		},
		Client: client,
	})

	if rec.failureCount == s.config.MaxAttempts {
		s.logger.Warn("account locked after repeated failures",
			slog.String("username", username),
			slog.Int("failure_count", rec.failureCount),
			slog.Duration("lockout_duration", s.config.LockoutDuration))

		s.audit.Append(AuditRecord{
			Event:    models.AuditEventRateLimitExceeded,
			Username: username,
			Details: models.AuditDetails{
				"max_attempts": s.config.MaxAttempts,
			},
			Client: client,
		})
		s.audit.Append(AuditRecord{
			Event:    models.AuditEventAccountLocked,
			Username: username,
			Details: models.AuditDetails{
				"lockout_minutes": int(s.config.LockoutDuration.Minutes()),
			},
			Client: client,
		})
	}
}

// RecordSuccess deletes the attempt record entirely
func (s *AttemptService) RecordSuccess(username string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, username)
}

// Remaining returns how many attempts are left before lockout. A stale or
// absent record yields the full allowance.
func (s *AttemptService) Remaining(username string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[username]
	if !ok || s.now().Sub(rec.lastFailureAt) >= s.config.LockoutDuration {
		return s.config.MaxAttempts
	}

	remaining := s.config.MaxAttempts - rec.failureCount
	if remaining < 0 {
		return 0
	}
	return remaining
}

// LockoutRemaining returns the time left in an active lockout window, or
// zero when the username is not locked out
func (s *AttemptService) LockoutRemaining(username string) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[username]
	if !ok || rec.failureCount < s.config.MaxAttempts {
		return 0
	}

	remaining := s.config.LockoutDuration - s.now().Sub(rec.lastFailureAt)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// PruneStale drops records older than the lockout window and returns the
// number removed. Staleness is otherwise handled lazily on access; the
// background janitor just keeps the map from accumulating dead entries.
func (s *AttemptService) PruneStale() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for username, rec := range s.records {
		if s.now().Sub(rec.lastFailureAt) >= s.config.LockoutDuration {
			delete(s.records, username)
			removed++
		}
	}
	return removed
}
