package bootstrap

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sorter/core/domain"
)

func TestScheduler_RunsAtStartAndOnTick(t *testing.T) {
	var runs atomic.Int32
	s := NewScheduler(func(context.Context) (*domain.RunReport, error) {
		runs.Add(1)
		return &domain.RunReport{}, nil
	}, 10*time.Millisecond, zerolog.Nop())

	s.Start()
	require.Eventually(t, func() bool { return runs.Load() >= 3 }, 2*time.Second, 5*time.Millisecond)
	s.Stop()

	after := runs.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, after, runs.Load())
}

func TestScheduler_SkipsOverlappingTick(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	s := NewScheduler(func(ctx context.Context) (*domain.RunReport, error) {
		close(started)
		<-release
		return nil, nil
	}, time.Hour, zerolog.Nop())

	done := make(chan bool)
	go func() { done <- s.tick() }()
	<-started

	assert.False(t, s.tick())
	close(release)
	assert.True(t, <-done)
}

func TestMemoryRunStore(t *testing.T) {
	store := NewMemoryRunStore()
	ctx := context.Background()

	last, err := store.LastRun(ctx)
	require.NoError(t, err)
	assert.Nil(t, last)

	report := &domain.RunReport{RunID: "run-1", Status: domain.RunRunning}
	require.NoError(t, store.SaveRun(ctx, report))
	report.Status = domain.RunFailed

	last, err = store.LastRun(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.RunRunning, last.Status)
}
