// Package ledger records which events have been handled so that side effects are applied
// at most once per event id, despite the at-least-once delivery of the trigger source.
package ledger

import (
	"context"
	"errors"
	"time"
)

const CollectionName = "functionLocks"

var ErrNotFound = errors.New("marker not found")

type State string

const (
	StateClaimed   State = "claimed"
	StateProcessed State = "processed"
)

// Scope namespaces markers of a single patient
type Scope struct {
	UserId    string
	PatientId string
}

func (s Scope) MarkerId(lockId string) string {
	return s.UserId + "/" + s.PatientId + "/" + lockId
}

type Marker struct {
	Id            string     `bson:"_id"`
	UserId        string     `bson:"userId"`
	PatientId     string     `bson:"patientId"`
	LockId        string     `bson:"lockId"`
	State         State      `bson:"state,omitempty"`
	ClaimedTime   *time.Time `bson:"claimedTime,omitempty"`
	ProcessedTime *time.Time `bson:"processedTime,omitempty"`
}

// IsProcessed is true for completed markers. Markers without a state predate claims.
func (m Marker) IsProcessed() bool {
	return m.State != StateClaimed
}

type Repository interface {
	Get(ctx context.Context, scope Scope, lockId string) (*Marker, error)
	// MarkProcessed creates or overwrites the marker as processed at the given time
	MarkProcessed(ctx context.Context, scope Scope, lockId string, at time.Time) error
	// Claim atomically creates a claimed marker if none exists. An existing claim made
	// before staleBefore is taken over. Processed markers are never claimed.
	Claim(ctx context.Context, scope Scope, lockId string, at time.Time, staleBefore time.Time) (bool, error)
	// Release removes a claim that did not complete
	Release(ctx context.Context, scope Scope, lockId string) error
}

type Ledger interface {
	IsProcessed(ctx context.Context, scope Scope, lockId string) (bool, error)
	MarkProcessed(ctx context.Context, scope Scope, lockId string) error
	// LastProcessed returns when the marker was last written, or nil if it does not exist
	LastProcessed(ctx context.Context, scope Scope, lockId string) (*time.Time, error)
	// Once runs fn unless the lock id was already processed or is claimed by a concurrent
	// delivery. The marker is written after fn succeeds and released if it fails.
	Once(ctx context.Context, scope Scope, lockId string, fn func(ctx context.Context) error) (bool, error)
}
