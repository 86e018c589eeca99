// Package quarantine keeps a verbatim copy of documents that failed validation so they can be
// inspected without blocking the handlers that rejected them.
package quarantine

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
)

const CollectionName = "invalidEvents"

type Event struct {
	Id              string    `bson:"_id"`
	UserId          string    `bson:"userId,omitempty"`
	PatientId       string    `bson:"patientId,omitempty"`
	Source          string    `bson:"source"`
	SourceId        string    `bson:"sourceId,omitempty"`
	Reason          string    `bson:"reason"`
	QuarantinedTime time.Time `bson:"quarantinedTime"`
	Payload         bson.Raw  `bson:"payload"`
}

type Repository interface {
	Create(ctx context.Context, event Event) error
	Initialize(ctx context.Context) error
}

// NewEvent wraps the raw document rejected from the source collection. The event id is
// derived from the source document id so that redelivered documents are stored once.
func NewEvent(source string, raw bson.Raw, reason string, now time.Time) Event {
	event := Event{
		Source:          source,
		Reason:          reason,
		QuarantinedTime: now,
		Payload:         raw,
	}
	if id := sourceId(raw.Lookup("_id")); id != "" {
		event.SourceId = id
		event.Id = source + "/" + id
	}
	if userId, ok := raw.Lookup("userId").StringValueOK(); ok {
		event.UserId = userId
	}
	if patientId, ok := raw.Lookup("patientId").StringValueOK(); ok {
		event.PatientId = patientId
	}
	return event
}

func sourceId(value bson.RawValue) string {
	if len(value.Value) == 0 {
		return ""
	}
	if id, ok := value.StringValueOK(); ok {
		return id
	}
	if id, ok := value.ObjectIDOK(); ok {
		return id.Hex()
	}
	return value.String()
}
