package repository

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/tidepool-org/caretrack/ledger"
	"github.com/tidepool-org/caretrack/store"
)

type repository struct {
	collection *mongo.Collection
	logger     *zap.SugaredLogger
}

var _ ledger.Repository = &repository{}

func NewRepository(db *mongo.Database, logger *zap.SugaredLogger, lifecycle fx.Lifecycle) (ledger.Repository, error) {
	repo := &repository{
		collection: db.Collection(ledger.CollectionName),
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
			Keys: bson.D{
				{Key: "userId", Value: 1},
				{Key: "patientId", Value: 1},
				{Key: "lockId", Value: 1},
			},
			Options: options.Index().
				SetName("PatientLocks"),
		},
	})
	return err
}

func (r *repository) Get(ctx context.Context, scope ledger.Scope, lockId string) (*ledger.Marker, error) {
	marker := &ledger.Marker{}
	err := r.collection.FindOne(ctx, bson.M{"_id": scope.MarkerId(lockId)}).Decode(marker)
	if store.IsNotFound(err) {
		return nil, ledger.ErrNotFound
	} else if err != nil {
		return nil, fmt.Errorf("error fetching marker %s: %w", lockId, err)
	}

	return marker, nil
}

func (r *repository) MarkProcessed(ctx context.Context, scope ledger.Scope, lockId string, at time.Time) error {
	update := bson.M{
		"$set": bson.M{
			"userId":        scope.UserId,
			"patientId":     scope.PatientId,
			"lockId":        lockId,
			"state":         ledger.StateProcessed,
			"processedTime": at,
		},
		"$unset": bson.M{
			"claimedTime": "",
		},
	}
	opts := options.Update().SetUpsert(true)
	if _, err := r.collection.UpdateOne(ctx, bson.M{"_id": scope.MarkerId(lockId)}, update, opts); err != nil {
		return fmt.Errorf("error marking %s as processed: %w", lockId, err)
	}
	return nil
}

func (r *repository) Claim(ctx context.Context, scope ledger.Scope, lockId string, at time.Time, staleBefore time.Time) (bool, error) {
	marker := ledger.Marker{
		Id:          scope.MarkerId(lockId),
		UserId:      scope.UserId,
		PatientId:   scope.PatientId,
		LockId:      lockId,
		State:       ledger.StateClaimed,
		ClaimedTime: &at,
	}
	_, err := r.collection.InsertOne(ctx, marker)
	if err == nil {
		return true, nil
	}
	if !store.IsDuplicateKeyError(err) {
		return false, fmt.Errorf("error claiming %s: %w", lockId, err)
	}

	// Take over claims abandoned by a crashed or timed out delivery
	selector := bson.M{
		"_id":         marker.Id,
		"state":       ledger.StateClaimed,
		"claimedTime": bson.M{"$lt": staleBefore},
	}
	res, err := r.collection.UpdateOne(ctx, selector, bson.M{"$set": bson.M{"claimedTime": at}})
	if err != nil {
		return false, fmt.Errorf("error taking over claim %s: %w", lockId, err)
	}

	return res.ModifiedCount == 1, nil
}

func (r *repository) Release(ctx context.Context, scope ledger.Scope, lockId string) error {
	selector := bson.M{
		"_id":   scope.MarkerId(lockId),
		"state": ledger.StateClaimed,
	}
	if _, err := r.collection.DeleteOne(ctx, selector); err != nil {
		return fmt.Errorf("error releasing claim %s: %w", lockId, err)
	}
	return nil
}
