package triggers

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/tidepool-org/caretrack/store"
)

type cursor struct {
	Id          string    `bson:"_id"`
	ResumeToken bson.Raw  `bson:"resumeToken"`
	UpdatedTime time.Time `bson:"updatedTime"`
}

type cursorRepository struct {
	collection *mongo.Collection
}

var _ CursorRepository = &cursorRepository{}

func NewCursorRepository(db *mongo.Database) CursorRepository {
	return &cursorRepository{
		collection: db.Collection(CursorsCollectionName),
	}
}

func (r *cursorRepository) Get(ctx context.Context, name string) (bson.Raw, error) {
	var c cursor
	err := r.collection.FindOne(ctx, bson.M{"_id": name}).Decode(&c)
	if store.IsNotFound(err) {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("error fetching cursor of stream %s: %w", name, err)
	}
	return c.ResumeToken, nil
}

func (r *cursorRepository) Save(ctx context.Context, name string, token bson.Raw) error {
	update := bson.M{
		"$set": bson.M{
			"resumeToken": token,
			"updatedTime": time.Now(),
		},
	}
	opts := options.Update().SetUpsert(true)
	if _, err := r.collection.UpdateOne(ctx, bson.M{"_id": name}, update, opts); err != nil {
		return fmt.Errorf("error saving cursor of stream %s: %w", name, err)
	}
	return nil
}
