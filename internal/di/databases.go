package di

import (
	"fmt"
	"path/filepath"

	"github.com/aristath/freightquote/internal/config"
	"github.com/aristath/freightquote/internal/database"
	"github.com/rs/zerolog"
)

// InitializeDatabases opens the three databases and applies their schemas
func InitializeDatabases(cfg *config.Config, log zerolog.Logger) (*Container, error) {
	container := &Container{}

	entries := []struct {
		name    string
		profile database.DatabaseProfile
		target  **database.DB
	}{
		// config.db - settings overrides for provider credentials
		{"config", database.ProfileStandard, &container.ConfigDB},
		// history.db - recorded quotation attempts
		{"history", database.ProfileStandard, &container.HistoryDB},
		// client_data.db - provider response cache, safe to lose
		{"client_data", database.ProfileCache, &container.ClientDataDB},
	}

	for _, entry := range entries {
		db, err := database.New(database.Config{
			Path:    filepath.Join(cfg.DataDir, entry.name+".db"),
			Profile: entry.profile,
			Name:    entry.name,
		})
		if err != nil {
			container.Close()
			return nil, fmt.Errorf("failed to initialize %s database: %w", entry.name, err)
		}
		*entry.target = db

		if err := db.Migrate(); err != nil {
			container.Close()
			return nil, fmt.Errorf("failed to migrate %s database: %w", entry.name, err)
		}

		log.Debug().
			Str("database", entry.name).
			Str("profile", string(entry.profile)).
			Msg("Database initialized")
	}

	log.Info().Int("count", len(entries)).Msg("Databases initialized")
	return container, nil
}
