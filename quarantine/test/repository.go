package test

import (
	"context"
	"sync"

	"github.com/tidepool-org/caretrack/quarantine"
)

type Repository struct {
	mu     sync.Mutex
	events map[string]quarantine.Event
}

var _ quarantine.Repository = &Repository{}

func NewRepository() *Repository {
	return &Repository{events: make(map[string]quarantine.Event)}
}

func (r *Repository) Initialize(context.Context) error {
	return nil
}

func (r *Repository) Create(_ context.Context, event quarantine.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.events[event.Id]; !ok {
		r.events[event.Id] = event
	}
	return nil
}

func (r *Repository) Events() []quarantine.Event {
	r.mu.Lock()
	defer r.mu.Unlock()

	result := make([]quarantine.Event, 0, len(r.events))
	for _, e := range r.events {
		result = append(result, e)
	}
	return result
}
