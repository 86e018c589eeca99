package test

import (
	"context"
	"sync"
	"time"

	"github.com/mohae/deepcopy"

	"github.com/tidepool-org/caretrack/activity"
	"github.com/tidepool-org/caretrack/summary"
)

type Repository struct {
	mu        sync.Mutex
	summaries map[summary.Key]summary.DailySummary
}

var _ summary.Repository = &Repository{}

func NewRepository() *Repository {
	return &Repository{summaries: make(map[summary.Key]summary.DailySummary)}
}

func (r *Repository) Put(s summary.DailySummary) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.summaries[s.Key()] = clone(s)
}

// clone detaches stored summaries from the values handed to callers
func clone(s summary.DailySummary) summary.DailySummary {
	return deepcopy.Copy(s).(summary.DailySummary)
}

func (r *Repository) Get(_ context.Context, key summary.Key) (*summary.DailySummary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.summaries[key]
	if !ok {
		return nil, summary.ErrNotFound
	}
	s = clone(s)
	return &s, nil
}

func (r *Repository) Update(_ context.Context, key summary.Key, fn func(s *summary.DailySummary) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current := summary.New(key)
	if s, ok := r.summaries[key]; ok {
		s = clone(s)
		current = &s
	}
	if err := fn(current); err != nil {
		return err
	}
	r.summaries[key] = clone(*current)
	return nil
}

func (r *Repository) Reconcile(_ context.Context, key summary.Key, totalEvents int, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.summaries[key]
	if !ok {
		s = *summary.New(key)
	}
	s.TotalEvents = totalEvents
	s.ReconciledTime = &at
	s.UpdatedTime = at
	r.summaries[key] = s
	return nil
}

func (r *Repository) Rebuild(_ context.Context, key summary.Key, tally activity.Tally, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.summaries[key]
	if !ok {
		s = *summary.New(key)
	}
	s.TotalEvents = tally.TotalEvents
	s.SafeZoneExits = tally.SafeZoneExits
	s.RemindersTriggered = tally.RemindersTriggered
	s.RebuiltTime = &at
	s.UpdatedTime = at
	r.summaries[key] = s
	return nil
}
