package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"

	"sorter/core/domain"
	"sorter/core/port/out"
	"sorter/pkg/apperr"
)

// WriterConfig tunes retries and the circuit breaker around assignment writes.
type WriterConfig struct {
	MaxRetries      uint64
	InitialInterval time.Duration
	MaxInterval     time.Duration

	// Breaker trips after this many consecutive failed attempts.
	TripAfter      uint32
	BreakerTimeout time.Duration
}

// DefaultWriterConfig returns the defaults used by the batch runner.
func DefaultWriterConfig() WriterConfig {
	return WriterConfig{
		MaxRetries:      3,
		InitialInterval: 100 * time.Millisecond,
		MaxInterval:     2 * time.Second,
		TripAfter:       5,
		BreakerTimeout:  30 * time.Second,
	}
}

// ResilientWriter retries assignment writes with exponential backoff behind
// a circuit breaker. Missing rows are not retried.
type ResilientWriter struct {
	next out.AssignmentWriter
	cfg  WriterConfig
	cb   *gobreaker.CircuitBreaker
	log  zerolog.Logger
}

// NewResilientWriter wraps next.
func NewResilientWriter(next out.AssignmentWriter, cfg WriterConfig, log zerolog.Logger) *ResilientWriter {
	log = log.With().Str("component", "resilient_writer").Logger()

	settings := gobreaker.Settings{
		Name:        "contact-store",
		MaxRequests: 1,
		Timeout:     cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.TripAfter
		},
		IsSuccessful: func(err error) bool {
			return err == nil || apperr.HasCode(err, apperr.CodeNotFound)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state changed")
		},
	}

	return &ResilientWriter{
		next: next,
		cfg:  cfg,
		cb:   gobreaker.NewCircuitBreaker(settings),
		log:  log,
	}
}

// State returns the breaker state name.
func (w *ResilientWriter) State() string {
	return w.cb.State().String()
}

// UpdateCategory implements out.AssignmentWriter.
func (w *ResilientWriter) UpdateCategory(ctx context.Context, assignment domain.CategoryAssignment) error {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = w.cfg.InitialInterval
	exp.MaxInterval = w.cfg.MaxInterval
	exp.Multiplier = 2
	exp.MaxElapsedTime = 0

	attempts := 0
	op := func() error {
		attempts++
		_, err := w.cb.Execute(func() (interface{}, error) {
			return nil, w.next.UpdateCategory(ctx, assignment)
		})
		if err == nil {
			return nil
		}
		if apperr.HasCode(err, apperr.CodeNotFound) ||
			errors.Is(err, gobreaker.ErrOpenState) ||
			errors.Is(err, gobreaker.ErrTooManyRequests) {
			return backoff.Permanent(err)
		}
		return err
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(exp, w.cfg.MaxRetries), ctx)
	if err := backoff.Retry(op, policy); err != nil {
		w.log.Warn().Err(err).
			Str("contact_id", assignment.ContactID).
			Int("attempts", attempts).
			Msg("assignment write failed")
		if apperr.HasCode(err, apperr.CodeNotFound) {
			return err
		}
		return apperr.WriteFailed(assignment.ContactID, err)
	}
	return nil
}
