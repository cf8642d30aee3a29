package bootstrap

import (
	"context"
	"sync"

	"sorter/core/domain"
)

// MemoryRunStore keeps the last run in process when no broker is configured.
type MemoryRunStore struct {
	mu   sync.RWMutex
	last *domain.RunReport
}

func NewMemoryRunStore() *MemoryRunStore {
	return &MemoryRunStore{}
}

func (s *MemoryRunStore) SaveRun(_ context.Context, report *domain.RunReport) error {
	cp := *report
	s.mu.Lock()
	s.last = &cp
	s.mu.Unlock()
	return nil
}

func (s *MemoryRunStore) LastRun(context.Context) (*domain.RunReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.last == nil {
		return nil, nil
	}
	cp := *s.last
	return &cp, nil
}
