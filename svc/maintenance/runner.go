package maintenance

import (
	"context"
	"log/slog"
	"time"

	"github.com/inkfill/inkfill/pkg/lock"
	"github.com/inkfill/inkfill/pkg/logger"
)

const (
	cleanupLockName = "crons-cleanup"
	cleanupLockTTL  = 300 * time.Second
)

// Job is a unit of scheduled work.
type Job interface {
	Run(ctx context.Context)
}

// Runner guards a job with an advisory lock so overlapping schedules
// (multiple instances, a ticker firing while cron also runs) skip
// instead of doubling up.
type Runner struct {
	job    Job
	locker lock.Locker
	log    *slog.Logger
}

// NewRunner creates a lock-guarded runner for the cleanup job.
func NewRunner(job Job, locker lock.Locker, log *slog.Logger) *Runner {
	if log == nil {
		log = slog.Default()
	}
	return &Runner{job: job, locker: locker, log: log}
}

// RunOnce executes the job unless the lock is held. It reports whether
// the job ran. Lock backend failures skip the run; a missed night is
// cheaper than a double delete against a struggling store.
func (r *Runner) RunOnce(ctx context.Context) bool {
	held, err := r.locker.Has(ctx, cleanupLockName)
	if err != nil {
		r.log.ErrorContext(ctx, "cleanup lock check failed", logger.Error(err))
		return false
	}
	if held {
		r.log.InfoContext(ctx, "cleanup already running, skipping")
		return false
	}

	if err := r.locker.Set(ctx, cleanupLockName, cleanupLockTTL); err != nil {
		r.log.ErrorContext(ctx, "cleanup lock acquire failed", logger.Error(err))
		return false
	}
	defer func() {
		if err := r.locker.Clear(ctx, cleanupLockName); err != nil {
			r.log.WarnContext(ctx, "cleanup lock release failed", logger.Error(err))
		}
	}()

	r.log.InfoContext(ctx, "cleanup started")
	r.job.Run(ctx)
	r.log.InfoContext(ctx, "cleanup finished")
	return true
}

// Schedule runs the job once a day until ctx is canceled. The first
// run happens at the next UTC midnight.
func (r *Runner) Schedule(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-time.After(untilNextMidnight(time.Now())):
			r.RunOnce(ctx)
		}
	}
}

func untilNextMidnight(now time.Time) time.Duration {
	now = now.UTC()
	next := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, 1)
	return next.Sub(now)
}
