package store

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readconcern"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"
)

type Transaction[T any] func(sessCtx mongo.SessionContext) (T, error)

// WithTransaction runs txn in a snapshot transaction. The driver retries the callback
// on transient transaction errors, so txn must not have side effects outside of the session.
func WithTransaction[T any](ctx context.Context, dbClient *mongo.Client, txn Transaction[T]) (T, error) {
	var zero T

	session, err := dbClient.StartSession()
	if err != nil {
		return zero, fmt.Errorf("unable to start sessions %w", err)
	}
	defer session.EndSession(ctx)

	wc := writeconcern.Majority()
	rc := readconcern.Snapshot()
	txnOpts := options.Transaction().SetWriteConcern(wc).SetReadConcern(rc)
	result, err := session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
		return txn(sessCtx)
	}, txnOpts)
	if err != nil {
		return zero, err
	}

	typed, _ := result.(T)
	return typed, nil
}
