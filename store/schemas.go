package store

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"workbenchd/unit"
)

// GetSchemaByID fetches a production schema by its id.
func (db *DB) GetSchemaByID(ctx context.Context, schemaID string) (*unit.Schema, error) {
	var s unit.Schema
	err := db.db.Collection(collSchemas).FindOne(ctx, bson.M{"schema_id": schemaID}).Decode(&s)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, &NotFoundError{Kind: "schema", Key: schemaID}
	}
	if err != nil {
		return nil, fmt.Errorf("get schema %s: %w", schemaID, err)
	}
	return &s, nil
}

// ListSchemas returns all known production schemas.
func (db *DB) ListSchemas(ctx context.Context) ([]unit.Schema, error) {
	cursor, err := db.db.Collection(collSchemas).Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("list schemas: %w", err)
	}
	var schemas []unit.Schema
	if err := cursor.All(ctx, &schemas); err != nil {
		return nil, fmt.Errorf("decode schemas: %w", err)
	}
	return schemas, nil
}
