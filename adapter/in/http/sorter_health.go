// Package http implements the read-only status surface of the sorter.
package http

import (
	"context"
	"database/sql"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"

	"sorter/pkg/metrics"
)

const readyTimeout = 5 * time.Second

// Database is the part of *sqlx.DB the readiness check needs.
type Database interface {
	PingContext(ctx context.Context) error
	Stats() sql.DBStats
}

// StoreState is the readiness of one backing store.
type StoreState string

const (
	StoreUp            StoreState = "up"
	StoreDown          StoreState = "down"
	StoreDegraded      StoreState = "degraded"
	StoreNotConfigured StoreState = "not_configured"
)

// StoreCheck reports one store. Optional stores that are not configured
// never block readiness.
type StoreCheck struct {
	State StoreState          `json:"state"`
	Error string              `json:"error,omitempty"`
	Pool  *metrics.PoolHealth `json:"pool,omitempty"`
}

// Readiness is the /ready body.
type Readiness struct {
	Ready       bool       `json:"ready"`
	ContactDB   StoreCheck `json:"contact_store"`
	EventStream StoreCheck `json:"event_stream"`
	CheckedAt   time.Time  `json:"checked_at"`
}

type HealthHandler struct {
	db    Database
	redis *redis.Client
	now   func() time.Time
}

func NewHealthHandler(db Database, redis *redis.Client) *HealthHandler {
	return &HealthHandler{db: db, redis: redis, now: time.Now}
}

func (h *HealthHandler) Register(app *fiber.App) {
	app.Get("/health", h.Health)
	app.Get("/ready", h.Ready)
}

// Health is liveness only.
func (h *HealthHandler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

// Ready checks the contact store and the event stream. A saturated
// connection pool marks the contact store degraded and not ready.
func (h *HealthHandler) Ready(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), readyTimeout)
	defer cancel()

	r := Readiness{
		ContactDB:   h.checkContactDB(ctx),
		EventStream: h.checkStream(ctx),
		CheckedAt:   h.now().UTC(),
	}
	r.Ready = r.ContactDB.State != StoreDown && r.ContactDB.State != StoreDegraded &&
		r.EventStream.State != StoreDown

	if !r.Ready {
		return c.Status(fiber.StatusServiceUnavailable).JSON(r)
	}
	return c.JSON(r)
}

func (h *HealthHandler) checkContactDB(ctx context.Context) StoreCheck {
	if h.db == nil {
		return StoreCheck{State: StoreNotConfigured}
	}
	if err := h.db.PingContext(ctx); err != nil {
		return StoreCheck{State: StoreDown, Error: err.Error()}
	}
	pool := metrics.AssessPool(h.db.Stats())
	check := StoreCheck{State: StoreUp, Pool: &pool}
	if pool.Status == metrics.PoolUnhealthy {
		check.State = StoreDegraded
	}
	return check
}

func (h *HealthHandler) checkStream(ctx context.Context) StoreCheck {
	if h.redis == nil {
		return StoreCheck{State: StoreNotConfigured}
	}
	if err := h.redis.Ping(ctx).Err(); err != nil {
		return StoreCheck{State: StoreDown, Error: err.Error()}
	}
	return StoreCheck{State: StoreUp}
}
