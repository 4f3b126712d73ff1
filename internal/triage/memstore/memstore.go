// Package memstore provides an in-memory implementation of
// triage.Store. Suitable for dev/testing.
package memstore

import (
	"context"
	"sync"

	"github.com/linnemanlabs/acuity/internal/triage"
)

// Store holds decisions and feedback in memory.
type Store struct {
	mu        sync.RWMutex
	decisions map[string]*triage.Decision
	order     []string // insertion order of decision IDs
	feedback  []*triage.Feedback
}

// New initializes a new in-memory Store.
func New() *Store {
	return &Store{
		decisions: make(map[string]*triage.Decision),
	}
}

// Put stores a copy of the decision.
func (s *Store) Put(_ context.Context, d *triage.Decision) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.decisions[d.ID]; !exists {
		s.order = append(s.order, d.ID)
	}
	cp := *d
	s.decisions[d.ID] = &cp
	return nil
}

// Get retrieves a decision by ID. Returns a copy.
func (s *Store) Get(_ context.Context, id string) (*triage.Decision, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.decisions[id]
	if !ok {
		return nil, false, nil
	}
	cp := *d
	return &cp, true, nil
}

// Recent returns up to limit decisions, newest first.
func (s *Store) Recent(_ context.Context, limit int) ([]*triage.Decision, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*triage.Decision, 0, limit)
	for i := len(s.order) - 1; i >= 0 && len(out) < limit; i-- {
		cp := *s.decisions[s.order[i]]
		out = append(out, &cp)
	}
	return out, nil
}

// PutFeedback appends a copy of the feedback record.
func (s *Store) PutFeedback(_ context.Context, fb *triage.Feedback) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *fb
	s.feedback = append(s.feedback, &cp)
	return nil
}

// FeedbackCount reports the number of stored feedback records.
func (s *Store) FeedbackCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.feedback)
}
