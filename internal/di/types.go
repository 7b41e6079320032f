// Package di provides dependency injection type definitions.
package di

import (
	"github.com/aristath/freightquote/internal/clientdata"
	"github.com/aristath/freightquote/internal/clients/shipsmart"
	"github.com/aristath/freightquote/internal/database"
	"github.com/aristath/freightquote/internal/modules/quotation"
	"github.com/aristath/freightquote/internal/modules/settings"
	"github.com/aristath/freightquote/internal/scheduler"
)

// Container holds all dependencies for the application.
// It is created by Wire() and passed to the server for access to services.
type Container struct {
	// Databases
	ConfigDB     *database.DB // Settings overrides
	HistoryDB    *database.DB // Recorded quotations
	ClientDataDB *database.DB // Provider response cache

	// Repositories
	SettingsRepo   *settings.Repository
	HistoryRepo    *quotation.HistoryRepository
	ClientDataRepo *clientdata.Repository

	// Clients
	ShipSmartClient *shipsmart.Client

	// Services
	QuotationService *quotation.Service

	// Background jobs
	Scheduler *scheduler.Scheduler
}

// Databases returns the open databases in initialization order
func (c *Container) Databases() []*database.DB {
	var dbs []*database.DB
	for _, db := range []*database.DB{c.ConfigDB, c.HistoryDB, c.ClientDataDB} {
		if db != nil {
			dbs = append(dbs, db)
		}
	}
	return dbs
}

// Close closes every open database
func (c *Container) Close() {
	for _, db := range c.Databases() {
		_ = db.Close()
	}
}
