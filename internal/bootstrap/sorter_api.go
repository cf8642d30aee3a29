package bootstrap

import (
	"github.com/gofiber/fiber/v2"

	httpadapter "sorter/adapter/in/http"
	"sorter/core/port/out"
)

// NewAPI builds the status server over the dependencies.
func NewAPI(deps *Dependencies) *fiber.App {
	var (
		db       httpadapter.Database
		settings out.SettingsRepository
		contacts out.ContactRepository
	)
	if deps.DB != nil {
		db = deps.DB
	}
	if deps.Settings != nil {
		settings = deps.Settings
	}
	if deps.Contacts != nil {
		contacts = deps.Contacts
	}

	return httpadapter.NewApp(deps.Log, deps.Config.IsProduction(),
		httpadapter.NewHealthHandler(db, deps.Redis),
		httpadapter.NewStatusHandler(settings, contacts, deps.Runs, deps.Metrics.Registry()),
	)
}
