// Package settings provides the runtime settings stored in config.db.
// Settings take precedence over environment variables so provider credentials
// can be changed without restarting the service.
package settings

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// Setting keys
const (
	KeyShipSmartAPIKey = "shipsmart_api_key"
	KeyShipSmartAPIURL = "shipsmart_api_url"
)

// AllowedKeys maps every writable key to its description
var AllowedKeys = map[string]string{
	KeyShipSmartAPIKey: "ShipSmart API bearer token",
	KeyShipSmartAPIURL: "ShipSmart API base URL",
}

// SecretKeys are masked when settings are listed
var SecretKeys = map[string]bool{
	KeyShipSmartAPIKey: true,
}

// ErrUnknownKey is returned when writing a key outside AllowedKeys
var ErrUnknownKey = errors.New("unknown setting key")

// Repository handles settings database operations.
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
	now func() time.Time
}

// NewRepository creates a new settings repository.
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repository", "settings").Logger(),
		now: time.Now,
	}
}

// Get retrieves a setting value by key.
// Returns nil if the setting doesn't exist (not an error).
func (r *Repository) Get(key string) (*string, error) {
	var value string
	err := r.db.QueryRow("SELECT value FROM settings WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get setting %s: %w", key, err)
	}
	return &value, nil
}

// Set stores a setting value. Only keys listed in AllowedKeys are accepted.
func (r *Repository) Set(key string, value string) error {
	description, ok := AllowedKeys[key]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}

	_, err := r.db.Exec(`
		INSERT INTO settings (key, value, description, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			description = excluded.description,
			updated_at = excluded.updated_at
	`, key, value, description, r.now().Unix())
	if err != nil {
		return fmt.Errorf("failed to set setting %s: %w", key, err)
	}

	r.log.Info().Str("key", key).Msg("Setting updated")
	return nil
}

// GetAll retrieves all settings as a map.
func (r *Repository) GetAll() (map[string]string, error) {
	rows, err := r.db.Query("SELECT key, value FROM settings")
	if err != nil {
		return nil, fmt.Errorf("failed to get all settings: %w", err)
	}
	defer rows.Close()

	result := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			r.log.Warn().Err(err).Msg("Failed to scan setting row")
			continue
		}
		result[key] = value
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating settings: %w", err)
	}

	return result, nil
}

// Mask hides all but the last four characters of a secret
func Mask(value string) string {
	if value == "" {
		return ""
	}
	if len(value) <= 4 {
		return "****"
	}
	return "****" + value[len(value)-4:]
}
