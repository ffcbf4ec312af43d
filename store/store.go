// Package store wraps the MongoDB collections backing the workbench:
// employee records, production schemas, unit records and their production
// stage history.
package store

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	collEmployees = "employeeData"
	collSchemas   = "productionSchemas"
	collUnits     = "unitData"
	collStages    = "productionStagesData"
)

// DB wraps the MongoDB database handle.
type DB struct {
	client *mongo.Client
	db     *mongo.Database
}

// Open connects to MongoDB, verifies the connection and ensures indexes.
func Open(ctx context.Context, uri, dbName string) (*DB, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongodb: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}

	db := &DB{client: client, db: client.Database(dbName)}
	if err := db.ensureIndexes(ctx); err != nil {
		return nil, fmt.Errorf("ensure indexes: %w", err)
	}
	return db, nil
}

// Close disconnects from MongoDB.
func (db *DB) Close(ctx context.Context) error {
	return db.client.Disconnect(ctx)
}

func (db *DB) ensureIndexes(ctx context.Context) error {
	idxCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	for coll, indexes := range map[string][]mongo.IndexModel{
		collEmployees: {
			{Keys: bson.D{{Key: "rfid_card_id", Value: 1}}},
		},
		collSchemas: {
			{Keys: bson.D{{Key: "schema_id", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "parent_schema_id", Value: 1}}},
		},
		collUnits: {
			{Keys: bson.D{{Key: "uuid", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "internal_id", Value: 1}}},
			{Keys: bson.D{{Key: "status", Value: 1}}},
		},
		collStages: {
			{Keys: bson.D{{Key: "id", Value: 1}}},
			{Keys: bson.D{{Key: "parent_unit_uuid", Value: 1}}},
		},
	} {
		if _, err := db.db.Collection(coll).Indexes().CreateMany(idxCtx, indexes); err != nil {
			return fmt.Errorf("indexes for %s: %w", coll, err)
		}
	}
	return nil
}
