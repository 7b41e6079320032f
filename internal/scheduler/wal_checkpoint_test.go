package scheduler

import (
	"testing"

	testingpkg "github.com/aristath/freightquote/internal/testing"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWALCheckpointJob_Name(t *testing.T) {
	assert.Equal(t, "wal_checkpoint", NewWALCheckpointJob(zerolog.Nop()).Name())
}

func TestWALCheckpointJob_NoDatabases(t *testing.T) {
	job := NewWALCheckpointJob(zerolog.Nop(), nil, nil)
	assert.NoError(t, job.Run())
}

func TestWALCheckpointJob_Run(t *testing.T) {
	configDB, cleanupConfig := testingpkg.NewTestDB(t, "config")
	defer cleanupConfig()
	historyDB, cleanupHistory := testingpkg.NewTestDB(t, "history")
	defer cleanupHistory()

	_, err := configDB.Conn().Exec(
		"INSERT INTO settings (key, value, updated_at) VALUES ('shipsmart_api_url', 'https://api.test', 0)",
	)
	require.NoError(t, err)

	job := NewWALCheckpointJob(zerolog.Nop(), configDB, historyDB)
	assert.NoError(t, job.Run())
}
