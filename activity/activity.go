// Package activity ingests the activity records reported by the patient's devices.
package activity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/tidepool-org/caretrack/pointer"
)

const (
	RecordsCollectionName         = "activityRecords"
	LatestLocationsCollectionName = "latestLocations"

	EventTypeSafeZoneExit      = "safe_zone_exit"
	EventTypeReminderTriggered = "reminder_triggered"
	EventTypeLocationUpdate    = "location_update"
)

var ErrInvalidRecord = errors.New("invalid activity record")

type Record struct {
	Id        string                 `bson:"_id"`
	UserId    string                 `bson:"userId"`
	PatientId *string                `bson:"patientId,omitempty"`
	EventType *string                `bson:"eventType,omitempty"`
	Timestamp *time.Time             `bson:"timestamp,omitempty"`
	Latitude  *float64               `bson:"latitude,omitempty"`
	Longitude *float64               `bson:"longitude,omitempty"`
	Metadata  map[string]interface{} `bson:"metadata,omitempty"`
}

// Decode parses a raw activity record. Documents with fields of the wrong type are reported
// as invalid records.
func Decode(raw bson.Raw) (Record, error) {
	var record Record
	if err := bson.Unmarshal(raw, &record); err != nil {
		return Record{}, fmt.Errorf("%w: %s", ErrInvalidRecord, err.Error())
	}
	return record, nil
}

// Validate checks the fields every downstream handler relies on
func (r Record) Validate() error {
	var missing []string
	if r.Timestamp == nil || r.Timestamp.IsZero() {
		missing = append(missing, "timestamp")
	}
	if r.GetEventType() == "" {
		missing = append(missing, "eventType")
	}
	if r.GetPatientId() == "" {
		missing = append(missing, "patientId")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrInvalidRecord, strings.Join(missing, ", "))
	}
	return nil
}

func (r Record) GetPatientId() string {
	return pointer.ToString(r.PatientId)
}

func (r Record) GetEventType() string {
	return pointer.ToString(r.EventType)
}

func (r Record) HasLocation() bool {
	return r.Latitude != nil && r.Longitude != nil
}

type LatestLocation struct {
	UserId      string    `bson:"userId"`
	PatientId   string    `bson:"patientId"`
	Latitude    float64   `bson:"latitude"`
	Longitude   float64   `bson:"longitude"`
	Timestamp   time.Time `bson:"timestamp"`
	UpdatedTime time.Time `bson:"updatedTime"`
}

// Tally is the number of records of a patient in a time range
type Tally struct {
	TotalEvents        int `bson:"totalEvents"`
	SafeZoneExits      int `bson:"safeZoneExits"`
	RemindersTriggered int `bson:"remindersTriggered"`
}

type Repository interface {
	// Tally counts the records with start <= timestamp < end
	Tally(ctx context.Context, userId string, patientId string, start time.Time, end time.Time) (Tally, error)
}

type LatestLocationRepository interface {
	// Upsert merges the location into the patient's latest location document
	Upsert(ctx context.Context, location LatestLocation) error
}
