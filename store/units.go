package store

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"workbenchd/unit"
)

// PushUnit upserts the unit record and its production stage history. With
// includeComponents the whole component subtree is pushed too.
func (db *DB) PushUnit(ctx context.Context, u *unit.Unit, includeComponents bool) error {
	opts := options.Replace().SetUpsert(true)
	if _, err := db.db.Collection(collUnits).ReplaceOne(ctx, bson.M{"uuid": u.UUID}, u, opts); err != nil {
		return fmt.Errorf("push unit %s: %w", u.InternalID, err)
	}

	for i := range u.Biography {
		st := &u.Biography[i]
		if _, err := db.db.Collection(collStages).ReplaceOne(ctx, bson.M{"id": st.ID}, st, opts); err != nil {
			return fmt.Errorf("push stage %s of unit %s: %w", st.ID, u.InternalID, err)
		}
	}

	if includeComponents {
		for _, c := range u.Components {
			if err := db.PushUnit(ctx, c, true); err != nil {
				return err
			}
		}
	}
	return nil
}

// GetUnitByInternalID fetches a unit by its barcode id and hydrates its
// schema, biography and component subtree.
func (db *DB) GetUnitByInternalID(ctx context.Context, internalID string) (*unit.Unit, error) {
	var u unit.Unit
	err := db.db.Collection(collUnits).FindOne(ctx, bson.M{"internal_id": internalID}).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, &NotFoundError{Kind: "unit", Key: internalID}
	}
	if err != nil {
		return nil, fmt.Errorf("get unit %s: %w", internalID, err)
	}
	if err := db.hydrateUnit(ctx, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (db *DB) hydrateUnit(ctx context.Context, u *unit.Unit) error {
	schema, err := db.GetSchemaByID(ctx, u.SchemaID)
	if err != nil {
		return err
	}
	u.Schema = schema

	cursor, err := db.db.Collection(collStages).Find(ctx,
		bson.M{"parent_unit_uuid": u.UUID},
		options.Find().SetSort(bson.D{{Key: "creation_time", Value: 1}}))
	if err != nil {
		return fmt.Errorf("get stages of unit %s: %w", u.InternalID, err)
	}
	if err := cursor.All(ctx, &u.Biography); err != nil {
		return fmt.Errorf("decode stages of unit %s: %w", u.InternalID, err)
	}

	for _, cid := range u.ComponentIDs {
		component, err := db.GetUnitByInternalID(ctx, cid)
		if err != nil {
			return err
		}
		u.Components = append(u.Components, component)
	}
	return nil
}

// UnitListEntry is a unit reference for listings.
type UnitListEntry struct {
	InternalID string `bson:"internal_id" json:"internal_id"`
	Name       string `bson:"name" json:"name"`
}

// GetUnitIDsAndNamesByStatus lists units holding the given status.
func (db *DB) GetUnitIDsAndNamesByStatus(ctx context.Context, status unit.Status) ([]UnitListEntry, error) {
	cursor, err := db.db.Collection(collUnits).Find(ctx, bson.M{"status": status})
	if err != nil {
		return nil, fmt.Errorf("list units by status %s: %w", status, err)
	}
	var entries []UnitListEntry
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, fmt.Errorf("decode unit list: %w", err)
	}
	return entries, nil
}
