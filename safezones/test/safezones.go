package test

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/tidepool-org/caretrack/safezones"
	"github.com/tidepool-org/caretrack/test"
)

type ZoneRepository struct {
	Zones map[string]safezones.Zone
	Err   error
}

var _ safezones.ZoneRepository = &ZoneRepository{}

func NewZoneRepository(zones ...safezones.Zone) *ZoneRepository {
	r := &ZoneRepository{Zones: make(map[string]safezones.Zone)}
	for _, z := range zones {
		r.Zones[z.Id] = z
	}
	return r
}

func (r *ZoneRepository) Get(_ context.Context, userId string, patientId string, zoneId string) (*safezones.Zone, error) {
	if r.Err != nil {
		return nil, r.Err
	}
	zone, ok := r.Zones[zoneId]
	if !ok || zone.UserId != userId || zone.PatientId != patientId {
		return nil, safezones.ErrNotFound
	}
	return &zone, nil
}

func RandomEvent(userId string, patientId string, safeZoneId string, eventType string) safezones.Event {
	now := time.Now()
	return safezones.Event{
		Id:         test.RandomId(),
		UserId:     userId,
		PatientId:  patientId,
		SafeZoneId: safeZoneId,
		EventType:  eventType,
		Timestamp:  &now,
	}
}

func Raw(event safezones.Event) bson.Raw {
	raw, err := bson.Marshal(event)
	if err != nil {
		panic(err)
	}
	return raw
}
