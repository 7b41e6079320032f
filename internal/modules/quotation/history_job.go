package quotation

import (
	"time"

	"github.com/rs/zerolog"
)

// HistoryRetentionJob deletes history entries older than the retention window
type HistoryRetentionJob struct {
	repo      *HistoryRepository
	retention time.Duration
	log       zerolog.Logger
	now       func() time.Time
}

// NewHistoryRetentionJob creates a new history retention job
func NewHistoryRetentionJob(repo *HistoryRepository, retention time.Duration, log zerolog.Logger) *HistoryRetentionJob {
	return &HistoryRetentionJob{
		repo:      repo,
		retention: retention,
		log:       log.With().Str("job", "history_retention").Logger(),
		now:       time.Now,
	}
}

// Run removes expired history entries
func (j *HistoryRetentionJob) Run() error {
	cutoff := j.now().Add(-j.retention)

	deleted, err := j.repo.DeleteOlderThan(cutoff)
	if err != nil {
		j.log.Error().Err(err).Msg("Failed to apply history retention")
		return err
	}

	if deleted > 0 {
		j.log.Info().
			Int64("deleted", deleted).
			Time("cutoff", cutoff).
			Msg("Old quotations removed")
	}
	return nil
}

// Name returns the job name for scheduling and logging.
func (j *HistoryRetentionJob) Name() string {
	return "history_retention"
}
