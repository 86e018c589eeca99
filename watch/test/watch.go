package test

import (
	"context"
	"sync"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/tidepool-org/caretrack/watch"
)

type StateRepository struct {
	mu     sync.Mutex
	states map[string]watch.State
}

var _ watch.StateRepository = &StateRepository{}

func NewStateRepository() *StateRepository {
	return &StateRepository{states: make(map[string]watch.State)}
}

func (r *StateRepository) Update(_ context.Context, userId string, patientId string, fn func(state *watch.State) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := watch.StateId(userId, patientId)
	state := watch.NewState(userId, patientId)
	if existing, ok := r.states[id]; ok {
		existing.DisarmedThresholds = append([]int(nil), existing.DisarmedThresholds...)
		state = &existing
	}
	if err := fn(state); err != nil {
		return err
	}
	r.states[id] = *state
	return nil
}

func (r *StateRepository) Get(userId string, patientId string) (watch.State, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	state, ok := r.states[watch.StateId(userId, patientId)]
	return state, ok
}

func Raw(status *watch.Status) bson.Raw {
	if status == nil {
		return nil
	}
	raw, err := bson.Marshal(status)
	if err != nil {
		panic(err)
	}
	return raw
}
