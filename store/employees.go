package store

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"workbenchd/employee"
)

// GetEmployeeByCardID fetches an employee record by RFID card id.
func (db *DB) GetEmployeeByCardID(ctx context.Context, cardID string) (*employee.Employee, error) {
	var e employee.Employee
	err := db.db.Collection(collEmployees).FindOne(ctx, bson.M{"rfid_card_id": cardID}).Decode(&e)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, &NotFoundError{Kind: "employee", Key: cardID}
	}
	if err != nil {
		return nil, fmt.Errorf("get employee by card %s: %w", cardID, err)
	}
	return &e, nil
}
