package devices

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/tidepool-org/caretrack/deletions"
	"github.com/tidepool-org/caretrack/store"
)

type repository struct {
	client     *mongo.Client
	collection *mongo.Collection
	deletions  deletions.Repository[Device]
	logger     *zap.SugaredLogger
}

var _ Repository = &repository{}

var NewDeletionsRepository = deletions.NewRepositoryFactory[Device]("device", []string{"_id", "userId"})

type RepositoryParams struct {
	fx.In

	Client    *mongo.Client
	Database  *mongo.Database
	Deletions deletions.Repository[Device]
	Logger    *zap.SugaredLogger
	Lifecycle fx.Lifecycle
}

func NewRepository(p RepositoryParams) (Repository, error) {
	repo := &repository{
		client:     p.Client,
		collection: p.Database.Collection(CollectionName),
		deletions:  p.Deletions,
		logger:     p.Logger,
	}

	p.Lifecycle.Append(fx.Hook{
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
			},
			Options: options.Index().
				SetName("UserDevices"),
		},
	})
	return err
}

func (r *repository) ListByUser(ctx context.Context, userId string) ([]Device, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"userId": userId})
	if err != nil {
		return nil, fmt.Errorf("error listing devices of user %s: %w", userId, err)
	}

	var result []Device
	if err := cursor.All(ctx, &result); err != nil {
		return nil, fmt.Errorf("error decoding devices of user %s: %w", userId, err)
	}
	return result, nil
}

func (r *repository) Delete(ctx context.Context, device Device, reason string) error {
	_, err := store.WithTransaction(ctx, r.client, func(sessCtx mongo.SessionContext) (any, error) {
		res, err := r.collection.DeleteOne(sessCtx, bson.M{"_id": device.Id, "userId": device.UserId})
		if err != nil {
			return nil, fmt.Errorf("error deleting device %s: %w", device.Id, err)
		}
		if res.DeletedCount == 0 {
			return nil, ErrNotFound
		}

		return nil, r.deletions.Create(sessCtx, device, deletions.Metadata{Reason: &reason})
	})
	return err
}
