package clientdata

import (
	"fmt"
	"sort"

	"github.com/rs/zerolog"
)

// CleanupJob purges expired provider responses from client_data.db
type CleanupJob struct {
	repo *Repository
	log  zerolog.Logger
}

// NewCleanupJob creates a new client data cleanup job.
func NewCleanupJob(repo *Repository, log zerolog.Logger) *CleanupJob {
	return &CleanupJob{
		repo: repo,
		log:  log.With().Str("job", "client_data_cleanup").Logger(),
	}
}

// Run deletes expired rows in every cache table and logs one summary line
func (j *CleanupJob) Run() error {
	purged, err := j.repo.DeleteAllExpired()
	if err != nil {
		return fmt.Errorf("client data cleanup: %w", err)
	}

	tables := make([]string, 0, len(purged))
	for table := range purged {
		tables = append(tables, table)
	}
	sort.Strings(tables)

	var total int64
	counts := zerolog.Dict()
	for _, table := range tables {
		total += purged[table]
		counts.Int64(table, purged[table])
	}

	if total == 0 {
		j.log.Debug().Msg("No expired cache entries")
		return nil
	}

	j.log.Info().
		Int64("deleted", total).
		Dict("tables", counts).
		Msg("Expired cache entries purged")
	return nil
}

// Name returns the job name
func (j *CleanupJob) Name() string {
	return "client_data_cleanup"
}
