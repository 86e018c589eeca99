package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/tidepool-org/caretrack/activity"
	"github.com/tidepool-org/caretrack/store"
	"github.com/tidepool-org/caretrack/summary"
)

type repository struct {
	client     *mongo.Client
	collection *mongo.Collection
	logger     *zap.SugaredLogger
}

var _ summary.Repository = &repository{}

func NewRepository(client *mongo.Client, db *mongo.Database, logger *zap.SugaredLogger, lifecycle fx.Lifecycle) (summary.Repository, error) {
	repo := &repository{
		client:     client,
		collection: db.Collection(summary.CollectionName),
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
				{Key: "date", Value: 1},
			},
			Options: options.Index().
				SetUnique(true).
				SetName("UniquePatientDate"),
		},
	})
	return err
}

func selector(key summary.Key) bson.M {
	return bson.M{
		"userId":    key.UserId,
		"patientId": key.PatientId,
		"date":      key.Date,
	}
}

func (r *repository) Get(ctx context.Context, key summary.Key) (*summary.DailySummary, error) {
	result := &summary.DailySummary{}
	err := r.collection.FindOne(ctx, selector(key)).Decode(result)
	if store.IsNotFound(err) {
		return nil, summary.ErrNotFound
	} else if err != nil {
		return nil, fmt.Errorf("error fetching summary: %w", err)
	}
	return result, nil
}

func (r *repository) Update(ctx context.Context, key summary.Key, fn func(s *summary.DailySummary) error) error {
	_, err := store.WithTransaction(ctx, r.client, func(sessCtx mongo.SessionContext) (any, error) {
		current, err := r.Get(sessCtx, key)
		if errors.Is(err, summary.ErrNotFound) {
			current = summary.New(key)
		} else if err != nil {
			return nil, err
		}

		if err := fn(current); err != nil {
			return nil, err
		}

		// The key fields are immutable
		current.UserId, current.PatientId, current.Date = key.UserId, key.PatientId, key.Date
		set, err := fields(current)
		if err != nil {
			return nil, err
		}
		opts := options.Update().SetUpsert(true)
		if _, err := r.collection.UpdateOne(sessCtx, selector(key), bson.M{"$set": set}, opts); err != nil {
			return nil, fmt.Errorf("error writing summary: %w", err)
		}
		return nil, nil
	})
	return err
}

// fields returns the stored fields of the summary for a merge write
func fields(s *summary.DailySummary) (bson.M, error) {
	raw, err := bson.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("error encoding summary: %w", err)
	}
	set := bson.M{}
	if err := bson.Unmarshal(raw, &set); err != nil {
		return nil, fmt.Errorf("error encoding summary: %w", err)
	}
	delete(set, "_id")
	return set, nil
}

func (r *repository) Reconcile(ctx context.Context, key summary.Key, totalEvents int, at time.Time) error {
	update := bson.M{
		"$set": bson.M{
			"totalEvents":    totalEvents,
			"reconciledTime": at,
			"updatedTime":    at,
		},
	}
	opts := options.Update().SetUpsert(true)
	if _, err := r.collection.UpdateOne(ctx, selector(key), update, opts); err != nil {
		return fmt.Errorf("error reconciling summary: %w", err)
	}
	return nil
}

func (r *repository) Rebuild(ctx context.Context, key summary.Key, tally activity.Tally, at time.Time) error {
	update := bson.M{
		"$set": bson.M{
			"totalEvents":        tally.TotalEvents,
			"safeZoneExits":      tally.SafeZoneExits,
			"remindersTriggered": tally.RemindersTriggered,
			"rebuiltTime":        at,
			"updatedTime":        at,
		},
	}
	opts := options.Update().SetUpsert(true)
	if _, err := r.collection.UpdateOne(ctx, selector(key), update, opts); err != nil {
		return fmt.Errorf("error rebuilding summary: %w", err)
	}
	return nil
}
