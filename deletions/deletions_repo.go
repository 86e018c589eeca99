// Package deletions archives documents removed by the service so that deletions can be audited.
package deletions

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

type Metadata struct {
	// Reason is a machine readable cause, e.g. "registration-token-not-registered"
	Reason *string `bson:"reason,omitempty"`
}

type Repository[T any] interface {
	Create(context.Context, T, Metadata) error
	Initialize(ctx context.Context) error
}

// NewRepositoryFactory returns an fx constructor for an archive of documents of type typ stored
// in the "<typ>_deletions" collection and indexed by the archived document's key attributes
func NewRepositoryFactory[T any](typ string, keyAttributes []string) func(db *mongo.Database, logger *zap.SugaredLogger, lifecycle fx.Lifecycle) (Repository[T], error) {
	return func(db *mongo.Database, logger *zap.SugaredLogger, lifecycle fx.Lifecycle) (Repository[T], error) {
		repo := NewRepository[T](typ, keyAttributes, db, logger)
		lifecycle.Append(fx.Hook{
			OnStart: func(ctx context.Context) error {
				return repo.Initialize(ctx)
			},
		})
		return repo, nil
	}
}

func NewRepository[T any](typ string, keyAttributes []string, db *mongo.Database, logger *zap.SugaredLogger) Repository[T] {
	return &deletionsRepository[T]{
		collection:    db.Collection(fmt.Sprintf("%s_deletions", typ)),
		logger:        logger,
		documentType:  typ,
		keyAttributes: keyAttributes,
		now:           time.Now,
	}
}

type deletionsRepository[T any] struct {
	collection    *mongo.Collection
	logger        *zap.SugaredLogger
	documentType  string
	keyAttributes []string
	now           func() time.Time
}

func (d *deletionsRepository[T]) Initialize(ctx context.Context) error {
	_, err := d.collection.Indexes().CreateMany(ctx, d.getIndexes())
	return err
}

func (d *deletionsRepository[T]) getIndexes() []mongo.IndexModel {
	var keys bson.D
	for _, attr := range d.keyAttributes {
		keys = append(keys, primitive.E{
			Key:   fmt.Sprintf("%s.%s", d.documentType, attr),
			Value: 1,
		})
	}

	return []mongo.IndexModel{
		{
			Keys:    keys,
			Options: options.Index().SetName(fmt.Sprintf("%sDeletion", cases.Title(language.English).String(d.documentType))),
		},
		{
			Keys:    append(bson.D{primitive.E{Key: "deletedTime", Value: 1}}, keys...),
			Options: options.Index().SetName("DeletedTime"),
		},
	}
}

// Create archives a single document. When ctx is a mongo session context the insert joins
// the caller's transaction.
func (d *deletionsRepository[T]) Create(ctx context.Context, deleted T, meta Metadata) error {
	document := bson.M{
		"deletedTime":  d.now(),
		d.documentType: deleted,
	}
	if meta.Reason != nil {
		document["reason"] = *meta.Reason
	}

	if _, err := d.collection.InsertOne(ctx, document); err != nil {
		return fmt.Errorf("error persisting deleted %s in collection %s: %w", d.documentType, d.collection.Name(), err)
	}
	d.logger.Debugw("archived deleted document", "type", d.documentType, "collection", d.collection.Name())
	return nil
}
