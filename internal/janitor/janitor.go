package janitor

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/mholloway/daybreak/internal/middleware"
	"github.com/mholloway/daybreak/internal/store"
)

// Janitor runs nightly maintenance: deleting schedules past the retention
// window and expiring stale rate-limit entries.
type Janitor struct {
	schedules     *store.ScheduleStore
	rateLimiter   *middleware.RateLimiter
	retentionDays int
	cron          *cron.Cron
	logger        *slog.Logger
}

func New(ss *store.ScheduleStore, rl *middleware.RateLimiter, retentionDays int, logger *slog.Logger) *Janitor {
	return &Janitor{
		schedules:     ss,
		rateLimiter:   rl,
		retentionDays: retentionDays,
		cron:          cron.New(),
		logger:        logger,
	}
}

// Start registers the nightly job and begins the cron loop. It runs one
// sweep immediately so a long-stopped instance catches up on startup.
func (j *Janitor) Start() error {
	if _, err := j.cron.AddFunc("0 3 * * *", j.sweep); err != nil {
		return err
	}
	j.cron.Start()
	go j.sweep()
	return nil
}

// Stop halts the cron loop and waits for a running sweep to finish.
func (j *Janitor) Stop() {
	ctx := j.cron.Stop()
	<-ctx.Done()
}

func (j *Janitor) sweep() {
	j.rateLimiter.Cleanup()

	if j.retentionDays <= 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	cutoff := time.Now().UTC().AddDate(0, 0, -j.retentionDays).Format("2006-01-02")
	n, err := j.schedules.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		j.logger.Error("delete old schedules", "cutoff", cutoff, "error", err)
		return
	}
	if n > 0 {
		j.logger.Info("deleted old schedules", "cutoff", cutoff, "count", n)
	}
}
