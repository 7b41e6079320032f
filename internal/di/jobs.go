package di

import (
	"fmt"

	"github.com/aristath/freightquote/internal/clientdata"
	"github.com/aristath/freightquote/internal/config"
	"github.com/aristath/freightquote/internal/modules/quotation"
	"github.com/aristath/freightquote/internal/scheduler"
	"github.com/rs/zerolog"
)

// Job schedules
const (
	ScheduleClientDataCleanup = "@hourly"
	ScheduleHistoryRetention  = "@daily"
	ScheduleWALCheckpoint     = "@every 6h"
)

// JobInstances holds references to the registered jobs
type JobInstances struct {
	ClientDataCleanup *clientdata.CleanupJob
	HistoryRetention  *quotation.HistoryRetentionJob
	WALCheckpoint     *scheduler.WALCheckpointJob
}

// RegisterJobs creates the maintenance jobs and registers them with a new scheduler.
// The scheduler is stored on the container but not started.
func RegisterJobs(container *Container, cfg *config.Config, log zerolog.Logger) (*JobInstances, error) {
	jobs := &JobInstances{
		ClientDataCleanup: clientdata.NewCleanupJob(container.ClientDataRepo, log),
		HistoryRetention:  quotation.NewHistoryRetentionJob(container.HistoryRepo, cfg.HistoryRetention, log),
		WALCheckpoint:     scheduler.NewWALCheckpointJob(log, container.Databases()...),
	}

	sched := scheduler.New(log)
	registrations := []struct {
		schedule string
		job      scheduler.Job
	}{
		{ScheduleClientDataCleanup, jobs.ClientDataCleanup},
		{ScheduleHistoryRetention, jobs.HistoryRetention},
		{ScheduleWALCheckpoint, jobs.WALCheckpoint},
	}
	for _, reg := range registrations {
		if err := sched.AddJob(reg.schedule, reg.job); err != nil {
			return nil, fmt.Errorf("failed to register job %s: %w", reg.job.Name(), err)
		}
	}

	container.Scheduler = sched
	return jobs, nil
}
