package di

import (
	"fmt"

	"github.com/aristath/freightquote/internal/clients/shipsmart"
	"github.com/aristath/freightquote/internal/config"
	"github.com/aristath/freightquote/internal/modules/quotation"
	"github.com/rs/zerolog"
)

// InitializeServices creates the provider client and the quotation service.
// Settings overrides are applied first so the client starts with the effective credentials.
func InitializeServices(container *Container, cfg *config.Config, log zerolog.Logger) error {
	if err := cfg.UpdateFromSettings(container.SettingsRepo); err != nil {
		return fmt.Errorf("failed to load settings overrides: %w", err)
	}

	container.ShipSmartClient = shipsmart.NewClient(shipsmart.Config{
		APIKey:   cfg.ShipSmartAPIKey,
		BaseURL:  cfg.ShipSmartAPIURL,
		Timeout:  cfg.ProviderTimeout,
		CacheTTL: cfg.QuoteCacheTTL,
	}, container.ClientDataRepo, log)

	if !container.ShipSmartClient.Configured() {
		log.Warn().Msg("ShipSmart credentials not configured - quotations will fail until they are set")
	}

	container.QuotationService = quotation.NewService(container.ShipSmartClient, container.HistoryRepo, log)

	log.Info().Msg("Services initialized")
	return nil
}
