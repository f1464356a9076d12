// Package maintenance runs the daily retention job. The deployment is
// an ephemeral demo: accounts and their sessions older than a day are
// removed wholesale every night.
package maintenance

import (
	"context"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/inkfill/inkfill/pkg/logger"
)

// CleanupJob deletes stale rows. Sessions go first so the user delete
// never trips the foreign key.
type CleanupJob struct {
	pool *pgxpool.Pool
	log  *slog.Logger
	now  func() time.Time
}

// CleanupOption configures a CleanupJob.
type CleanupOption func(*CleanupJob)

// WithCleanupClock replaces the job time source. Useful in tests.
func WithCleanupClock(now func() time.Time) CleanupOption {
	return func(j *CleanupJob) {
		j.now = now
	}
}

// NewCleanupJob creates the retention job.
func NewCleanupJob(pool *pgxpool.Pool, log *slog.Logger, opts ...CleanupOption) *CleanupJob {
	if log == nil {
		log = slog.Default()
	}
	j := &CleanupJob{pool: pool, log: log, now: time.Now}
	for _, opt := range opts {
		opt(j)
	}
	return j
}

// Cutoff returns the retention boundary: the start of yesterday in UTC,
// computed from now minus a full day. Rows created at or before it are
// removed, so nothing younger than 24 hours is ever deleted.
func (j *CleanupJob) Cutoff() time.Time {
	year, month, day := j.now().UTC().Add(-24 * time.Hour).Date()
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// Run executes both deletes. A failure in one statement is logged and
// does not stop the other, so a bad night still reclaims what it can.
func (j *CleanupJob) Run(ctx context.Context) {
	cutoff := j.Cutoff()

	sessions, err := j.pool.Exec(ctx,
		`DELETE FROM user_sessions WHERE created_at <= $1`, cutoff)
	if err != nil {
		j.log.ErrorContext(ctx, "failed to delete stale sessions", logger.Error(err))
	} else {
		j.log.InfoContext(ctx, "deleted stale sessions",
			slog.Int64("count", sessions.RowsAffected()))
	}

	users, err := j.pool.Exec(ctx,
		`DELETE FROM users WHERE created_at <= $1`, cutoff)
	if err != nil {
		j.log.ErrorContext(ctx, "failed to delete stale users", logger.Error(err))
	} else {
		j.log.InfoContext(ctx, "deleted stale users",
			slog.Int64("count", users.RowsAffected()))
	}
}
