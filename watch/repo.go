package watch

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/fx"

	"github.com/tidepool-org/caretrack/store"
)

type stateRepository struct {
	client     *mongo.Client
	collection *mongo.Collection
}

var _ StateRepository = &stateRepository{}

func NewStateRepository(client *mongo.Client, db *mongo.Database, lifecycle fx.Lifecycle) (StateRepository, error) {
	repo := &stateRepository{
		client:     client,
		collection: db.Collection(StateCollectionName),
	}

	lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return repo.Initialize(ctx)
		},
	})

	return repo, nil
}

func (r *stateRepository) Initialize(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "connection", Value: 1},
				{Key: "disconnectedTime", Value: 1},
			},
			Options: options.Index().
				SetName("ConnectionState"),
		},
	})
	return err
}

func (r *stateRepository) Update(ctx context.Context, userId string, patientId string, fn func(state *State) error) error {
	id := StateId(userId, patientId)
	_, err := store.WithTransaction(ctx, r.client, func(sessCtx mongo.SessionContext) (any, error) {
		state := &State{}
		err := r.collection.FindOne(sessCtx, bson.M{"_id": id}).Decode(state)
		if store.IsNotFound(err) {
			state = NewState(userId, patientId)
		} else if err != nil {
			return nil, fmt.Errorf("error fetching watch state: %w", err)
		}

		if err := fn(state); err != nil {
			return nil, err
		}

		opts := options.Replace().SetUpsert(true)
		if _, err := r.collection.ReplaceOne(sessCtx, bson.M{"_id": id}, state, opts); err != nil {
			return nil, fmt.Errorf("error writing watch state: %w", err)
		}
		return nil, nil
	})
	return err
}
