package di

import (
	"github.com/aristath/freightquote/internal/clientdata"
	"github.com/aristath/freightquote/internal/modules/quotation"
	"github.com/aristath/freightquote/internal/modules/settings"
	"github.com/rs/zerolog"
)

// InitializeRepositories creates the repositories on top of the open databases
func InitializeRepositories(container *Container, log zerolog.Logger) error {
	container.SettingsRepo = settings.NewRepository(container.ConfigDB.Conn(), log)
	container.HistoryRepo = quotation.NewHistoryRepository(container.HistoryDB.Conn(), log)
	container.ClientDataRepo = clientdata.NewRepository(container.ClientDataDB.Conn())

	log.Info().Msg("Repositories initialized")
	return nil
}
