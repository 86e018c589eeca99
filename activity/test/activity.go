package test

import (
	"context"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/tidepool-org/caretrack/activity"
	"github.com/tidepool-org/caretrack/test"
)

type Repository struct {
	mu      sync.Mutex
	records []activity.Record
	err     error
}

var _ activity.Repository = &Repository{}

func NewRepository(records ...activity.Record) *Repository {
	return &Repository{records: records}
}

func (r *Repository) Add(records ...activity.Record) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, records...)
}

// FailWith makes every subsequent call return err
func (r *Repository) FailWith(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.err = err
}

func (r *Repository) Tally(_ context.Context, userId string, patientId string, start time.Time, end time.Time) (activity.Tally, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var tally activity.Tally
	if r.err != nil {
		return tally, r.err
	}
	for _, record := range r.records {
		if record.UserId != userId || record.GetPatientId() != patientId || record.Timestamp == nil {
			continue
		}
		if record.Timestamp.Before(start) || !record.Timestamp.Before(end) {
			continue
		}
		tally.TotalEvents++
		switch record.GetEventType() {
		case activity.EventTypeSafeZoneExit:
			tally.SafeZoneExits++
		case activity.EventTypeReminderTriggered:
			tally.RemindersTriggered++
		}
	}
	return tally, nil
}

type LatestLocationRepository struct {
	mu        sync.Mutex
	locations map[string]activity.LatestLocation
}

var _ activity.LatestLocationRepository = &LatestLocationRepository{}

func NewLatestLocationRepository() *LatestLocationRepository {
	return &LatestLocationRepository{locations: make(map[string]activity.LatestLocation)}
}

func (r *LatestLocationRepository) Upsert(_ context.Context, location activity.LatestLocation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.locations[location.UserId+"/"+location.PatientId] = location
	return nil
}

func (r *LatestLocationRepository) Get(userId string, patientId string) (activity.LatestLocation, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	location, ok := r.locations[userId+"/"+patientId]
	return location, ok
}

func RandomRecord(userId string, patientId string, eventType string, timestamp time.Time) activity.Record {
	return activity.Record{
		Id:        test.RandomId(),
		UserId:    userId,
		PatientId: &patientId,
		EventType: &eventType,
		Timestamp: &timestamp,
	}
}

func LocationRecord(userId string, patientId string, timestamp time.Time, lat float64, lng float64) activity.Record {
	record := RandomRecord(userId, patientId, activity.EventTypeLocationUpdate, timestamp)
	record.Latitude = &lat
	record.Longitude = &lng
	return record
}

// Raw encodes the record the way it is delivered by the change stream
func Raw(record activity.Record) bson.Raw {
	raw, err := bson.Marshal(record)
	if err != nil {
		panic(err)
	}
	return raw
}
