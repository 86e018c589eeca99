package test

import (
	"context"
	"sync"
	"time"

	"github.com/tidepool-org/caretrack/ledger"
	"github.com/tidepool-org/caretrack/test"
)

// Repository is an in-memory ledger.Repository with the same claim semantics as the mongo one
type Repository struct {
	mu      sync.Mutex
	markers map[string]ledger.Marker

	markErr      error
	markFailures int
}

var _ ledger.Repository = &Repository{}

func NewRepository() *Repository {
	return &Repository{
		markers: make(map[string]ledger.Marker),
	}
}

func (r *Repository) Get(_ context.Context, scope ledger.Scope, lockId string) (*ledger.Marker, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	marker, ok := r.markers[scope.MarkerId(lockId)]
	if !ok {
		return nil, ledger.ErrNotFound
	}
	return &marker, nil
}

// FailMarkProcessed makes the next n MarkProcessed calls return err
func (r *Repository) FailMarkProcessed(n int, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.markFailures = n
	r.markErr = err
}

func (r *Repository) MarkProcessed(_ context.Context, scope ledger.Scope, lockId string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.markFailures > 0 {
		r.markFailures--
		return r.markErr
	}

	r.markers[scope.MarkerId(lockId)] = ledger.Marker{
		Id:            scope.MarkerId(lockId),
		UserId:        scope.UserId,
		PatientId:     scope.PatientId,
		LockId:        lockId,
		State:         ledger.StateProcessed,
		ProcessedTime: &at,
	}
	return nil
}

func (r *Repository) Claim(_ context.Context, scope ledger.Scope, lockId string, at time.Time, staleBefore time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := scope.MarkerId(lockId)
	if existing, ok := r.markers[id]; ok {
		if existing.IsProcessed() || !existing.ClaimedTime.Before(staleBefore) {
			return false, nil
		}
	}

	r.markers[id] = ledger.Marker{
		Id:          id,
		UserId:      scope.UserId,
		PatientId:   scope.PatientId,
		LockId:      lockId,
		State:       ledger.StateClaimed,
		ClaimedTime: &at,
	}
	return true, nil
}

func (r *Repository) Release(_ context.Context, scope ledger.Scope, lockId string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := scope.MarkerId(lockId)
	if existing, ok := r.markers[id]; ok && !existing.IsProcessed() {
		delete(r.markers, id)
	}
	return nil
}

func (r *Repository) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.markers)
}

func RandomScope() ledger.Scope {
	return ledger.Scope{
		UserId:    test.RandomId(),
		PatientId: test.RandomId(),
	}
}
