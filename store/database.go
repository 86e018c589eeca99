package store

import (
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"
)

func NewDatabase(client *mongo.Client, cfg *Config) (*mongo.Database, error) {
	if cfg.DatabaseName == "" {
		return nil, fmt.Errorf("database name is missing")
	}
	return client.Database(cfg.DatabaseName), nil
}
