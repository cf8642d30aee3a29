package metrics

import (
	"database/sql"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// =============================================================================
// Database Pool Health
// =============================================================================

// PoolStatus indicates the health of a connection pool.
type PoolStatus string

const (
	PoolHealthy   PoolStatus = "healthy"
	PoolDegraded  PoolStatus = "degraded"
	PoolUnhealthy PoolStatus = "unhealthy"
)

// PoolHealth is the readiness view of one sql.DB pool.
type PoolHealth struct {
	Status      PoolStatus `json:"status"`
	Open        int        `json:"open"`
	InUse       int        `json:"in_use"`
	MaxOpen     int        `json:"max_open"`
	Utilization float64    `json:"utilization"`
	Message     string     `json:"message,omitempty"`
}

// AssessPool evaluates pool utilization and wait time.
func AssessPool(stats sql.DBStats) PoolHealth {
	h := PoolHealth{
		Status:  PoolHealthy,
		Open:    stats.OpenConnections,
		InUse:   stats.InUse,
		MaxOpen: stats.MaxOpenConnections,
		Message: "pool operating normally",
	}
	if stats.MaxOpenConnections == 0 {
		h.Message = "unlimited connections"
		return h
	}

	h.Utilization = float64(stats.InUse) / float64(stats.MaxOpenConnections)
	switch {
	case h.Utilization >= 0.95:
		h.Status, h.Message = PoolUnhealthy, "pool nearly exhausted"
	case h.Utilization >= 0.80:
		h.Status, h.Message = PoolDegraded, "high pool utilization"
	}
	if stats.WaitCount > 0 && stats.WaitDuration > 5*time.Second && h.Status == PoolHealthy {
		h.Status, h.Message = PoolDegraded, "elevated connection wait times"
	}
	return h
}

// PoolCollectors exposes open and in-use connection gauges for db.
func PoolCollectors(name string, db *sql.DB) []prometheus.Collector {
	labels := prometheus.Labels{"pool": name}
	return []prometheus.Collector{
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace:   namespace,
			Subsystem:   "db",
			Name:        "open_connections",
			Help:        "Open connections in the pool.",
			ConstLabels: labels,
		}, func() float64 { return float64(db.Stats().OpenConnections) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace:   namespace,
			Subsystem:   "db",
			Name:        "in_use_connections",
			Help:        "Connections currently in use.",
			ConstLabels: labels,
		}, func() float64 { return float64(db.Stats().InUse) }),
	}
}
