// Package scheduler runs background maintenance jobs on cron schedules.
package scheduler

import (
	"time"

	"github.com/aristath/freightquote/internal/utils"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// slowJob is the duration above which a job run is logged as slow
const slowJob = 30 * time.Second

// Job represents a scheduled job
type Job interface {
	Run() error
	Name() string
}

// Scheduler manages background jobs
type Scheduler struct {
	cron *cron.Cron
	log  zerolog.Logger
	jobs map[string]Job
}

// New creates a new scheduler
func New(log zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron: cron.New(cron.WithSeconds()),
		log:  log.With().Str("component", "scheduler").Logger(),
		jobs: make(map[string]Job),
	}
}

// Start starts the scheduler
func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info().Int("jobs", len(s.jobs)).Msg("Scheduler started")
}

// Stop stops the scheduler and waits for running jobs to finish
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.log.Info().Msg("Scheduler stopped")
}

// AddJob registers a new job with cron schedule
// Schedule examples:
//   - "0 */5 * * * *"      - Every 5 minutes
//   - "@hourly"            - Every hour
//   - "@every 6h"          - Every 6 hours
func (s *Scheduler) AddJob(schedule string, job Job) error {
	_, err := s.cron.AddFunc(schedule, func() {
		s.runJob(job)
	})
	if err != nil {
		return err
	}

	s.jobs[job.Name()] = job

	s.log.Info().
		Str("schedule", schedule).
		Str("job", job.Name()).
		Msg("Job registered")

	return nil
}

func (s *Scheduler) runJob(job Job) {
	s.log.Debug().Str("job", job.Name()).Msg("Running job")

	timer := utils.NewTimer(job.Name(), slowJob, s.log)
	err := job.Run()
	timer.Stop()

	if err != nil {
		s.log.Error().
			Err(err).
			Str("job", job.Name()).
			Msg("Job failed")
	} else {
		s.log.Debug().Str("job", job.Name()).Msg("Job completed")
	}
}

// RunNow executes a job immediately (outside schedule)
func (s *Scheduler) RunNow(job Job) error {
	s.log.Info().Str("job", job.Name()).Msg("Running job immediately")
	return job.Run()
}

// Job returns a registered job by name
func (s *Scheduler) Job(name string) (Job, bool) {
	job, ok := s.jobs[name]
	return job, ok
}

// Entries returns the number of scheduled entries
func (s *Scheduler) Entries() int {
	return len(s.cron.Entries())
}
