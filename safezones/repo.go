package safezones

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/tidepool-org/caretrack/store"
)

type zoneRepository struct {
	collection *mongo.Collection
}

var _ ZoneRepository = &zoneRepository{}

func NewZoneRepository(db *mongo.Database) ZoneRepository {
	return &zoneRepository{
		collection: db.Collection(ZonesCollectionName),
	}
}

func (r *zoneRepository) Get(ctx context.Context, userId string, patientId string, zoneId string) (*Zone, error) {
	selector := bson.M{
		"_id":       zoneId,
		"userId":    userId,
		"patientId": patientId,
	}

	zone := &Zone{}
	err := r.collection.FindOne(ctx, selector).Decode(zone)
	if store.IsNotFound(err) {
		return nil, ErrNotFound
	} else if err != nil {
		return nil, fmt.Errorf("error fetching safe zone %s: %w", zoneId, err)
	}
	return zone, nil
}
