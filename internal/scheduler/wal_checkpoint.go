package scheduler

import (
	"github.com/aristath/freightquote/internal/database"
	"github.com/rs/zerolog"
)

// walWarnFrames is the WAL size in frames above which a checkpoint is logged as lagging
const walWarnFrames = 1000

// WALCheckpointJob truncates the WAL of every database
type WALCheckpointJob struct {
	databases []*database.DB
	log       zerolog.Logger
}

// NewWALCheckpointJob creates a new WAL checkpoint job. Nil databases are skipped.
func NewWALCheckpointJob(log zerolog.Logger, databases ...*database.DB) *WALCheckpointJob {
	return &WALCheckpointJob{
		databases: databases,
		log:       log.With().Str("job", "wal_checkpoint").Logger(),
	}
}

// Name returns the job name
func (j *WALCheckpointJob) Name() string {
	return "wal_checkpoint"
}

// Run checks the WAL of each database and truncates it.
// A failing database doesn't stop the others; the last error is returned.
func (j *WALCheckpointJob) Run() error {
	var lastErr error
	checked := 0

	for _, db := range j.databases {
		if db == nil {
			continue
		}

		// PRAGMA wal_checkpoint returns: busy, log, checkpointed
		var busy, frames, checkpointed int
		if err := db.Conn().QueryRow("PRAGMA wal_checkpoint(PASSIVE)").Scan(&busy, &frames, &checkpointed); err != nil {
			j.log.Warn().Err(err).Str("database", db.Name()).Msg("Failed to check WAL checkpoint")
			lastErr = err
			continue
		}

		if frames > walWarnFrames {
			j.log.Warn().
				Str("database", db.Name()).
				Int("wal_frames", frames).
				Int("checkpointed", checkpointed).
				Msg("WAL file is large")
		}

		if err := db.WALCheckpoint("TRUNCATE"); err != nil {
			j.log.Warn().Err(err).Str("database", db.Name()).Msg("WAL checkpoint failed")
			lastErr = err
			continue
		}

		checked++
	}

	j.log.Debug().Int("checked", checked).Msg("WAL checkpoint completed")
	return lastErr
}
