// Package summary maintains the per patient daily rollups displayed on the activity screen.
package summary

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/tidepool-org/caretrack/activity"
)

const CollectionName = "dailySummaries"

var ErrNotFound = errors.New("summary not found")

// Key identifies the summary of a patient for a single day
type Key struct {
	UserId    string
	PatientId string
	Date      string
}

type DailySummary struct {
	Id                 *primitive.ObjectID `bson:"_id,omitempty"`
	UserId             string              `bson:"userId"`
	PatientId          string              `bson:"patientId"`
	Date               string              `bson:"date"`
	TotalEvents        int                 `bson:"totalEvents"`
	SafeZoneExits      int                 `bson:"safeZoneExits"`
	RemindersTriggered int                 `bson:"remindersTriggered"`
	DistanceMeters     float64             `bson:"distanceMeters"`
	ActiveMinutes      int                 `bson:"activeMinutes"`
	PlacesVisited      int                 `bson:"placesVisited"`
	VisitedCells       []string            `bson:"visitedCells,omitempty"`
	LastLat            *float64            `bson:"lastLat,omitempty"`
	LastLng            *float64            `bson:"lastLng,omitempty"`
	UpdatedTime        time.Time           `bson:"updatedTime"`
	ReconciledTime     *time.Time          `bson:"reconciledTime,omitempty"`
	RebuiltTime        *time.Time          `bson:"rebuiltTime,omitempty"`
}

func New(key Key) *DailySummary {
	return &DailySummary{
		UserId:    key.UserId,
		PatientId: key.PatientId,
		Date:      key.Date,
	}
}

func (s *DailySummary) Key() Key {
	return Key{UserId: s.UserId, PatientId: s.PatientId, Date: s.Date}
}

type Repository interface {
	Get(ctx context.Context, key Key) (*DailySummary, error)
	// Update atomically applies fn to the stored summary, or to an empty summary when none
	// exists yet, and writes the result back
	Update(ctx context.Context, key Key, fn func(summary *DailySummary) error) error
	// Reconcile overwrites the total event count
	Reconcile(ctx context.Context, key Key, totalEvents int, at time.Time) error
	// Rebuild overwrites the event counters, leaving the location derived fields untouched
	Rebuild(ctx context.Context, key Key, tally activity.Tally, at time.Time) error
}
