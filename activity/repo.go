package activity

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/fx"
)

type repository struct {
	collection *mongo.Collection
}

var _ Repository = &repository{}

func NewRepository(db *mongo.Database, lifecycle fx.Lifecycle) (Repository, error) {
	repo := &repository{
		collection: db.Collection(RecordsCollectionName),
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
				{Key: "timestamp", Value: 1},
			},
			Options: options.Index().
				SetName("PatientTimestamp"),
		},
	})
	return err
}

func (r *repository) Tally(ctx context.Context, userId string, patientId string, start time.Time, end time.Time) (Tally, error) {
	countOf := func(eventType string) bson.M {
		return bson.M{"$sum": bson.M{"$cond": bson.A{bson.M{"$eq": bson.A{"$eventType", eventType}}, 1, 0}}}
	}
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{
			"userId":    userId,
			"patientId": patientId,
			"timestamp": bson.M{"$gte": start, "$lt": end},
		}}},
		{{Key: "$group", Value: bson.M{
			"_id":                nil,
			"totalEvents":        bson.M{"$sum": 1},
			"safeZoneExits":      countOf(EventTypeSafeZoneExit),
			"remindersTriggered": countOf(EventTypeReminderTriggered),
		}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return Tally{}, fmt.Errorf("error counting activity records: %w", err)
	}
	defer cursor.Close(ctx)

	var tally Tally
	if cursor.Next(ctx) {
		if err := cursor.Decode(&tally); err != nil {
			return Tally{}, fmt.Errorf("error decoding activity records count: %w", err)
		}
	}
	return tally, cursor.Err()
}

type latestLocationRepository struct {
	collection *mongo.Collection
}

var _ LatestLocationRepository = &latestLocationRepository{}

func NewLatestLocationRepository(db *mongo.Database, lifecycle fx.Lifecycle) (LatestLocationRepository, error) {
	repo := &latestLocationRepository{
		collection: db.Collection(LatestLocationsCollectionName),
	}

	lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return repo.Initialize(ctx)
		},
	})

	return repo, nil
}

func (r *latestLocationRepository) Initialize(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "userId", Value: 1},
				{Key: "patientId", Value: 1},
			},
			Options: options.Index().
				SetUnique(true).
				SetName("UniquePatient"),
		},
	})
	return err
}

func (r *latestLocationRepository) Upsert(ctx context.Context, location LatestLocation) error {
	selector := bson.M{
		"userId":    location.UserId,
		"patientId": location.PatientId,
	}
	update := bson.M{
		"$set": bson.M{
			"latitude":    location.Latitude,
			"longitude":   location.Longitude,
			"timestamp":   location.Timestamp,
			"updatedTime": location.UpdatedTime,
		},
	}
	opts := options.Update().SetUpsert(true)
	if _, err := r.collection.UpdateOne(ctx, selector, update, opts); err != nil {
		return fmt.Errorf("error updating latest location: %w", err)
	}
	return nil
}
