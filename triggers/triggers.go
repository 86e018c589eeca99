// Package triggers delivers document changes from MongoDB change streams to the event handlers.
// Delivery is at least once: the stream position is persisted after the handlers ran, so a
// restart may replay the last events.
package triggers

import (
	"context"
	"slices"

	"go.mongodb.org/mongo-driver/bson"
)

const CursorsCollectionName = "triggerCursors"

const (
	OperationInsert  = "insert"
	OperationUpdate  = "update"
	OperationReplace = "replace"
	OperationDelete  = "delete"
)

// Event is a change stream event
type Event struct {
	OperationType            string   `bson:"operationType"`
	DocumentKey              bson.Raw `bson:"documentKey,omitempty"`
	FullDocument             bson.Raw `bson:"fullDocument,omitempty"`
	FullDocumentBeforeChange bson.Raw `bson:"fullDocumentBeforeChange,omitempty"`
}

type HandlerFunc func(ctx context.Context, event Event) error

// Route subscribes handlers to changes of a collection. Every handler reacts independently:
// a failing handler does not prevent the others from running.
type Route struct {
	// Name identifies the persisted stream position
	Name       string
	Collection string
	Operations []string
	// PreImages enables the delivery of the documents before and after each change
	PreImages bool
	Handlers  map[string]HandlerFunc
}

func (r Route) Matches(event Event) bool {
	return slices.Contains(r.Operations, event.OperationType)
}

type CursorRepository interface {
	// Get returns the last saved resume token of the stream, or nil
	Get(ctx context.Context, name string) (bson.Raw, error)
	Save(ctx context.Context, name string, token bson.Raw) error
}

// OnDocument adapts handlers interested only in the document after the change
func OnDocument(fn func(ctx context.Context, document bson.Raw) error) HandlerFunc {
	return func(ctx context.Context, event Event) error {
		if len(event.FullDocument) == 0 {
			return nil
		}
		return fn(ctx, event.FullDocument)
	}
}

// OnChange adapts handlers comparing the documents before and after the change
func OnChange(fn func(ctx context.Context, before bson.Raw, after bson.Raw) error) HandlerFunc {
	return func(ctx context.Context, event Event) error {
		return fn(ctx, event.FullDocumentBeforeChange, event.FullDocument)
	}
}
