package history

import (
	"context"
	"log/slog"
	"time"

	"github.com/ZanzyTHEbar/coopcredit-guard/internal/resilience"
)

const retentionTimeout = time.Minute

// RetentionJob deletes history entries older than a fixed number of days.
// Zero days keeps everything.
type RetentionJob struct {
	recorder *Recorder
	days     int
	policy   resilience.RetryPolicy
	now      func() time.Time
}

// NewRetentionJob prunes through recorder under resilience.MaintenancePolicy.
func NewRetentionJob(recorder *Recorder, days int) *RetentionJob {
	return &RetentionJob{
		recorder: recorder,
		days:     days,
		policy:   resilience.MaintenancePolicy,
		now:      time.Now,
	}
}

func (j *RetentionJob) Name() string {
	return "history-retention"
}

// Cutoff is the oldest timestamp kept by the job.
func (j *RetentionJob) Cutoff() time.Time {
	return j.now().Add(-time.Duration(j.days) * 24 * time.Hour)
}

func (j *RetentionJob) Run() error {
	if j.days <= 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), retentionTimeout)
	defer cancel()

	cutoff := j.Cutoff()
	deleted, err := j.recorder.Prune(ctx, cutoff, j.policy)
	if err != nil {
		return err
	}

	slog.Info("History retention applied",
		"retention_days", j.days,
		"cutoff", cutoff.UTC().Format(time.RFC3339),
		"deleted", deleted,
		"retry_policy", j.policy.Name)
	return nil
}
