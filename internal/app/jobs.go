package app

import (
	"context"
	"time"

	"github.com/genocem/Edumond-AI-portal/internal/config"
)

// sessionCleanup purges expired sessions on a fixed interval until ctx is done.
func (a *Application) sessionCleanup(ctx context.Context) {
	a.logger.Debug("Session cleanup job started")
	defer a.logger.Debug("Session cleanup job stopped")

	select {
	case <-ctx.Done():
		return
	case <-time.After(config.SessionCleanupInitialDelay):
	}
	a.runSessionCleanup(ctx)

	ticker := time.NewTicker(a.cfg.SessionCleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.runSessionCleanup(ctx)
		}
	}
}

// runSessionCleanup performs one purge and records it.
func (a *Application) runSessionCleanup(ctx context.Context) {
	start := time.Now()
	deleted, err := a.db.PurgeExpiredSessions(ctx)
	if err != nil {
		a.logger.WithError(err).Error("Failed to purge expired sessions")
		return
	}

	duration := time.Since(start)
	a.metrics.RecordJob("session_cleanup", duration.Seconds(), deleted)
	a.logger.WithField("deleted", deleted).
		WithField("duration_ms", duration.Milliseconds()).
		Info("Session cleanup completed")
}

// updateSessionMetrics periodically records the active session count and
// the number of meetings scheduled in the coming week.
func (a *Application) updateSessionMetrics(ctx context.Context) {
	a.recordSessionMetrics(ctx)

	ticker := time.NewTicker(config.MetricsUpdateInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.recordSessionMetrics(ctx)
		}
	}
}

func (a *Application) recordSessionMetrics(ctx context.Context) {
	n, err := a.db.CountSessions(ctx)
	if err != nil {
		if ctx.Err() == nil {
			a.logger.WithError(err).Warn("Failed to count active sessions")
		}
		return
	}
	a.metrics.SetActiveSessions(n)

	now := time.Now()
	upcoming, err := a.db.ListUpcomingMeetings(ctx, now, now.Add(config.UpcomingMeetingsWindow))
	if err != nil {
		if ctx.Err() == nil {
			a.logger.WithError(err).Warn("Failed to list upcoming meetings")
		}
		return
	}
	a.metrics.SetUpcomingMeetings(len(upcoming))
}
