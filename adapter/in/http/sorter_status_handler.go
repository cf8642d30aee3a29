package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"sorter/core/domain"
	"sorter/core/port/out"
	"sorter/pkg/apperr"
)

// StatusHandler serves the category vocabulary, stored contacts, the last
// run report and the metrics registry.
type StatusHandler struct {
	settings out.SettingsRepository
	contacts out.ContactRepository
	runs     out.RunStore
	registry *prometheus.Registry
}

// NewStatusHandler creates a StatusHandler. Nil dependencies disable the
// routes that need them.
func NewStatusHandler(
	settings out.SettingsRepository,
	contacts out.ContactRepository,
	runs out.RunStore,
	registry *prometheus.Registry,
) *StatusHandler {
	return &StatusHandler{
		settings: settings,
		contacts: contacts,
		runs:     runs,
		registry: registry,
	}
}

func (h *StatusHandler) Register(app *fiber.App) {
	app.Get("/categories", h.Categories)
	app.Get("/contacts/:id", h.Contact)
	app.Get("/runs/last", h.LastRun)
	if h.registry != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(h.registry, promhttp.HandlerOpts{})))
	}
}

// CategoryView is one category with its current contact count.
type CategoryView struct {
	domain.Category
	Count int `json:"count"`
}

// Categories returns the vocabulary in the saved display order.
func (h *StatusHandler) Categories(c *fiber.Ctx) error {
	if h.settings == nil {
		return apperr.New("STORE_NOT_CONFIGURED", "contact store not configured", fiber.StatusServiceUnavailable)
	}
	ctx := c.UserContext()

	categories, err := h.settings.Categories(ctx)
	if err != nil {
		return err
	}
	settings, err := h.settings.GetSettings(ctx)
	if err != nil {
		return err
	}

	var counts map[domain.CategoryID]int
	if h.contacts != nil {
		if counts, err = h.contacts.CountByCategory(ctx); err != nil {
			return err
		}
	}

	ordered := domain.OrderCategories(categories, settings.CategoryOrder)
	views := make([]CategoryView, len(ordered))
	for i, cat := range ordered {
		views[i] = CategoryView{Category: cat, Count: counts[cat.ID]}
	}
	return SuccessResponse(c, views)
}

// Contact returns one stored contact with its current assignment.
func (h *StatusHandler) Contact(c *fiber.Ctx) error {
	if h.contacts == nil {
		return apperr.New("STORE_NOT_CONFIGURED", "contact store not configured", fiber.StatusServiceUnavailable)
	}
	contact, err := h.contacts.GetByID(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return SuccessResponse(c, contact)
}

// LastRun returns the most recent run report.
func (h *StatusHandler) LastRun(c *fiber.Ctx) error {
	if h.runs == nil {
		return apperr.NotFound("run")
	}
	report, err := h.runs.LastRun(c.UserContext())
	if err != nil {
		return apperr.InternalWithError(err)
	}
	if report == nil {
		return apperr.NotFound("run")
	}
	return SuccessResponse(c, report)
}
