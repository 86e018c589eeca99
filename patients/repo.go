package patients

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/fx"

	"github.com/tidepool-org/caretrack/store"
)

// Stable order for paging while patients are added
var patientsSort = store.Sort{Attribute: "_id", Ascending: true}

type repository struct {
	collection *mongo.Collection
}

var _ Repository = &repository{}

func NewRepository(db *mongo.Database, lifecycle fx.Lifecycle) (Repository, error) {
	repo := &repository{
		collection: db.Collection(CollectionName),
	}

	lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return repo.Initialize(ctx)
		},
	})

	return repo, nil
}

func (r *repository) Initialize(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "userId", Value: 1},
				{Key: "patientId", Value: 1},
			},
			Options: options.Index().
				SetUnique(true).
				SetName("UniqueUserPatient"),
		},
	})
	return err
}

func (r *repository) List(ctx context.Context, pagination store.Pagination) ([]Patient, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: patientsSort.Attribute, Value: patientsSort.Order()}}).
		SetSkip(int64(pagination.Offset)).
		SetLimit(int64(pagination.Limit))

	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("error listing patients: %w", err)
	}

	result := make([]Patient, 0, pagination.Limit)
	if err := cursor.All(ctx, &result); err != nil {
		return nil, fmt.Errorf("error decoding patients list: %w", err)
	}
	return result, nil
}
