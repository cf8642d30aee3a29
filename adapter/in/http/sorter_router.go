package http

import (
	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"sorter/infra/middleware"
)

// Registrar mounts routes on the app.
type Registrar interface {
	Register(app *fiber.App)
}

// NewApp builds the fiber app with the standard middleware stack.
func NewApp(log zerolog.Logger, quiet bool, handlers ...Registrar) *fiber.App {
	log = log.With().Str("component", "http").Logger()

	app := fiber.New(fiber.Config{
		ErrorHandler:          middleware.ErrorHandler(log),
		DisableStartupMessage: quiet,
		JSONEncoder:           json.Marshal,
		JSONDecoder:           json.Unmarshal,
		ReadBufferSize:        16384,
		BodyLimit:             1024 * 1024,
	})

	app.Use(middleware.Recover(log))
	app.Use(middleware.RequestID())
	app.Use(middleware.SecurityHeaders())
	app.Use(middleware.RequestLogger(log))

	for _, h := range handlers {
		h.Register(app)
	}
	return app
}
