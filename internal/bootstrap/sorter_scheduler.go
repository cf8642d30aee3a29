package bootstrap

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"sorter/core/domain"
)

// =============================================================================
// Scheduler - periodic batch runs for serve mode
// =============================================================================

// RunFunc executes one batch run.
type RunFunc func(ctx context.Context) (*domain.RunReport, error)

// Scheduler runs the batch once at start and then on every interval tick.
// A tick that arrives while a run is in flight is dropped.
type Scheduler struct {
	run      RunFunc
	interval time.Duration
	timeout  time.Duration
	log      zerolog.Logger

	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewScheduler creates a new scheduler.
func NewScheduler(run RunFunc, interval time.Duration, log zerolog.Logger) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		run:      run,
		interval: interval,
		timeout:  time.Hour,
		log:      log.With().Str("component", "scheduler").Logger(),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start starts the scheduler loop.
func (s *Scheduler) Start() {
	s.log.Info().Dur("interval", s.interval).Msg("scheduler starting")
	s.wg.Add(1)
	go s.loop()
}

// Stop cancels an in-flight run and waits for the loop to exit.
func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
	s.log.Info().Msg("scheduler stopped")
}

func (s *Scheduler) loop() {
	defer s.wg.Done()

	s.tick()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.tick()
		}
	}
}

// tick runs the batch unless one is already in flight.
func (s *Scheduler) tick() bool {
	if !s.running.CompareAndSwap(false, true) {
		s.log.Warn().Msg("previous run still in progress, skipping")
		return false
	}
	defer s.running.Store(false)

	ctx, cancel := context.WithTimeout(s.ctx, s.timeout)
	defer cancel()

	if _, err := s.run(ctx); err != nil {
		s.log.Error().Err(err).Msg("scheduled run failed")
	}
	return true
}
