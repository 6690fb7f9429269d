package background

import (
	"context"
	"log/slog"
	"time"

	"github.com/culthread/backoffice/internal/services"
)

// Janitor periodically evicts idle-expired sessions and stale attempt
// records. Both are already evicted lazily on access; the janitor keeps
// the maps from accumulating dead entries between accesses and replaces
// the dashboard's old polling loop as the liveness mechanism.
type Janitor struct {
	sessions *services.SessionService
	attempts *services.AttemptService
	logger   *slog.Logger
	interval time.Duration
	stopCh   chan struct{}
}

// NewJanitor creates a new Janitor
func NewJanitor(
	sessions *services.SessionService,
	attempts *services.AttemptService,
	logger *slog.Logger,
	interval time.Duration,
) *Janitor {
	return &Janitor{
		sessions: sessions,
		attempts: attempts,
		logger:   logger,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the periodic sweep
func (j *Janitor) Start(ctx context.Context) {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			j.sweep()
		case <-j.stopCh:
			j.logger.Info("janitor stopped")
			return
		case <-ctx.Done():
			j.logger.Info("janitor context cancelled")
			return
		}
	}
}

func (j *Janitor) sweep() {
	expiredSessions := j.sessions.PruneIdle()
	staleAttempts := j.attempts.PruneStale()

	if expiredSessions > 0 || staleAttempts > 0 {
		j.logger.Info("janitor sweep completed",
			slog.Int("expired_sessions", expiredSessions),
			slog.Int("stale_attempt_records", staleAttempts))
	}
}

// Stop signals the janitor to stop
func (j *Janitor) Stop() {
	close(j.stopCh)
}
