package quarantine

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/tidepool-org/caretrack/store"
)

type repository struct {
	collection *mongo.Collection
	logger     *zap.SugaredLogger
}

func NewRepository(db *mongo.Database, logger *zap.SugaredLogger, lifecycle fx.Lifecycle) (Repository, error) {
	repo := &repository{
		collection: db.Collection(CollectionName),
		logger:     logger,
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
			Keys:    bson.D{{Key: "quarantinedTime", Value: 1}},
			Options: options.Index().SetName("QuarantinedTime"),
		},
		{
			Keys: bson.D{
				{Key: "userId", Value: 1},
				{Key: "patientId", Value: 1},
			},
			Options: options.Index().SetName("PatientEvents"),
		},
	})
	return err
}

func (r *repository) Create(ctx context.Context, event Event) error {
	if event.Id == "" {
		event.Id = uuid.NewString()
	}
	_, err := r.collection.InsertOne(ctx, event)
	if store.IsDuplicateKeyError(err) {
		r.logger.Infow("event already quarantined", "id", event.Id)
		return nil
	} else if err != nil {
		return fmt.Errorf("error inserting quarantined event: %w", err)
	}
	return nil
}
