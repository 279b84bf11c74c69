package factcheck

import (
	"context"
	"fmt"
	"sync"
)

// CheckRunner abstracts the checker for the session service, so tests
// can substitute a fake backend.
type CheckRunner interface {
	Check(ctx context.Context, req Request) (*FactCheck, error)
	Clear(ctx context.Context, req Request) error
}

// Service holds the per-session fact-check state: at most one check in
// flight, plus the last result or error. Each editing session owns one.
type Service struct {
	runner CheckRunner

	mu      sync.Mutex
	loading bool
	current *FactCheck
	lastErr error
}

// NewService creates a session service over a check runner.
func NewService(runner CheckRunner) *Service {
	return &Service{runner: runner}
}

// PerformFactCheck runs a check and replaces the session state
// wholesale with the outcome. A second call while one is in flight is
// rejected. The loading flag clears on every path, including failure.
func (s *Service) PerformFactCheck(ctx context.Context, req Request) (*FactCheck, error) {
	s.mu.Lock()
	if s.loading {
		s.mu.Unlock()
		return nil, fmt.Errorf("fact check already in progress")
	}
	s.loading = true
	s.mu.Unlock()

	result, err := s.runner.Check(ctx, req)

	s.mu.Lock()
	s.loading = false
	if err != nil {
		s.current = nil
		s.lastErr = err
	} else {
		s.current = result
		s.lastErr = nil
	}
	s.mu.Unlock()
	return result, err
}

// ClearFactCheck drops the session state and the cached verdict. It is
// synchronous: after it returns the state is empty.
func (s *Service) ClearFactCheck(ctx context.Context, req Request) error {
	err := s.runner.Clear(ctx, req)

	s.mu.Lock()
	s.current = nil
	s.lastErr = nil
	s.mu.Unlock()
	return err
}

// State returns a snapshot of the session state.
func (s *Service) State() (loading bool, current *FactCheck, lastErr error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading, s.current, s.lastErr
}
