package repository

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	model "github.com/okian/speechrate/internal/domain/model"
	"github.com/okian/speechrate/pkg/metrics"
)

// MemStore is an in-memory Store. Results are immutable values, so readers
// receive copies and never observe a partial update.
type MemStore struct {
	mu      sync.RWMutex
	results map[string]model.SubjectRateResult
	// snapshot caches the ordered view until the next Put.
	snapshot []model.SubjectRateResult
	observe  bool
}

// NewMemStore creates an empty store.
func NewMemStore(opts ...Option) *MemStore {
	s := &MemStore{results: make(map[string]model.SubjectRateResult)}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *MemStore) Put(_ context.Context, res model.SubjectRateResult) error {
	if res.SubjectID == "" {
		return ErrEmptySubjectID
	}
	s.mu.Lock()
	s.results[res.SubjectID] = res
	s.snapshot = nil
	s.mu.Unlock()

	if s.observe {
		if mean, ok := res.Rate(); ok {
			metrics.RecordSubjectAggregated(mean)
		} else {
			metrics.RecordSubjectWithoutRate()
		}
	}
	return nil
}

func (s *MemStore) Get(_ context.Context, subjectID string) (model.SubjectRateResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	res, ok := s.results[subjectID]
	if !ok {
		return model.SubjectRateResult{}, fmt.Errorf("%w: %s", ErrNotFound, subjectID)
	}
	return res, nil
}

func (s *MemStore) All(_ context.Context) []model.SubjectRateResult {
	s.mu.RLock()
	if s.snapshot != nil {
		out := slices.Clone(s.snapshot)
		s.mu.RUnlock()
		return out
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.snapshot == nil {
		snap := make([]model.SubjectRateResult, 0, len(s.results))
		for _, r := range s.results {
			snap = append(snap, r)
		}
		slices.SortFunc(snap, func(a, b model.SubjectRateResult) int {
			return strings.Compare(a.SubjectID, b.SubjectID)
		})
		s.snapshot = snap
	}
	return slices.Clone(s.snapshot)
}

func (s *MemStore) Count(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.results)
}
