package scheduler

import (
	"log/slog"

	"github.com/robfig/cron/v3"
)

// Job represents a scheduled job
type Job interface {
	Run() error
	Name() string
}

// Scheduler runs background maintenance jobs on cron schedules
type Scheduler struct {
	cron *cron.Cron
	log  *slog.Logger
}

// New creates a scheduler using standard five-field cron specs and
// descriptors such as "@daily". Overlapping runs of one job are skipped.
func New(log *slog.Logger) *Scheduler {
	if log == nil {
		log = slog.Default()
	}
	return &Scheduler{
		cron: cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		log:  log.With("component", "scheduler"),
	}
}

// Start starts the scheduler
func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info("Scheduler started", "jobs", len(s.cron.Entries()))
}

// Stop stops the scheduler and waits for running jobs to finish
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.log.Info("Scheduler stopped")
}

// AddJob registers job with a cron schedule
// Schedule examples:
//   - "@daily"          - Midnight every day
//   - "30 2 * * *"      - 02:30 every day
//   - "@every 6h"       - Every six hours
func (s *Scheduler) AddJob(schedule string, job Job) error {
	_, err := s.cron.AddFunc(schedule, func() {
		s.log.Debug("Running job", "job", job.Name())

		if err := job.Run(); err != nil {
			s.log.Error("Job failed", "job", job.Name(), "error", err)
		} else {
			s.log.Debug("Job completed", "job", job.Name())
		}
	})
	if err != nil {
		return err
	}

	s.log.Info("Job registered", "schedule", schedule, "job", job.Name())
	return nil
}

// Jobs returns the number of registered jobs
func (s *Scheduler) Jobs() int {
	return len(s.cron.Entries())
}

// RunNow executes a job immediately (outside schedule)
func (s *Scheduler) RunNow(job Job) error {
	s.log.Info("Running job immediately", "job", job.Name())
	return job.Run()
}
