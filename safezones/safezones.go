// Package safezones alerts caregivers when a patient enters or leaves a safe zone.
package safezones

import (
	"context"
	"errors"
	"time"
)

const (
	EventsCollectionName = "safeZoneEvents"
	ZonesCollectionName  = "safeZones"

	EventTypeEnter = "enter"
	EventTypeExit  = "exit"

	UnknownZoneName = "Unknown Zone"
)

var ErrNotFound = errors.New("safe zone not found")

type Event struct {
	Id         string     `bson:"_id"`
	UserId     string     `bson:"userId"`
	PatientId  string     `bson:"patientId"`
	SafeZoneId string     `bson:"safeZoneId"`
	EventType  string     `bson:"eventType"`
	Timestamp  *time.Time `bson:"timestamp,omitempty"`
	Latitude   *float64   `bson:"latitude,omitempty"`
	Longitude  *float64   `bson:"longitude,omitempty"`
}

func (e Event) IsExit() bool {
	return e.EventType == EventTypeExit
}

type Zone struct {
	Id        string `bson:"_id"`
	UserId    string `bson:"userId"`
	PatientId string `bson:"patientId"`
	Name      string `bson:"name"`
}

type ZoneRepository interface {
	Get(ctx context.Context, userId string, patientId string, zoneId string) (*Zone, error)
}
