package test

import (
	"context"
	"sync"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/tidepool-org/caretrack/triggers"
)

type CursorRepository struct {
	mu     sync.Mutex
	tokens map[string]bson.Raw
}

var _ triggers.CursorRepository = &CursorRepository{}

func NewCursorRepository() *CursorRepository {
	return &CursorRepository{tokens: map[string]bson.Raw{}}
}

func (r *CursorRepository) Get(_ context.Context, name string) (bson.Raw, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.tokens[name], nil
}

func (r *CursorRepository) Save(_ context.Context, name string, token bson.Raw) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tokens[name] = token
	return nil
}
