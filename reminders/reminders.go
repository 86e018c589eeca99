// Package reminders notifies caregivers when a memory reminder fires on the patient's device.
package reminders

import (
	"context"
	"errors"
	"fmt"

	"github.com/mitchellh/mapstructure"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/tidepool-org/caretrack/store"
)

const (
	CollectionName = "memoryReminders"

	DefaultTitle = "Memory Reminder"
)

var ErrNotFound = errors.New("reminder not found")

type Reminder struct {
	Id        string `bson:"_id"`
	UserId    string `bson:"userId"`
	PatientId string `bson:"patientId"`
	Title     string `bson:"title"`
}

// Metadata is the free form metadata attached to reminder_triggered activity records
type Metadata struct {
	ReminderId string `mapstructure:"reminderId"`
}

func DecodeMetadata(metadata map[string]interface{}) (Metadata, error) {
	var result Metadata
	if len(metadata) == 0 {
		return result, nil
	}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &result,
		WeaklyTypedInput: false,
	})
	if err != nil {
		return result, err
	}
	if err := decoder.Decode(metadata); err != nil {
		return Metadata{}, fmt.Errorf("invalid reminder metadata: %w", err)
	}
	return result, nil
}

type Repository interface {
	Get(ctx context.Context, userId string, patientId string, reminderId string) (*Reminder, error)
}

type repository struct {
	collection *mongo.Collection
}

var _ Repository = &repository{}

func NewRepository(db *mongo.Database) Repository {
	return &repository{
		collection: db.Collection(CollectionName),
	}
}

func (r *repository) Get(ctx context.Context, userId string, patientId string, reminderId string) (*Reminder, error) {
	selector := bson.M{
		"_id":       reminderId,
		"userId":    userId,
		"patientId": patientId,
	}

	reminder := &Reminder{}
	err := r.collection.FindOne(ctx, selector).Decode(reminder)
	if store.IsNotFound(err) {
		return nil, ErrNotFound
	} else if err != nil {
		return nil, fmt.Errorf("error fetching reminder %s: %w", reminderId, err)
	}
	return reminder, nil
}
