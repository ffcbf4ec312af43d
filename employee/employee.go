// Package employee models the operators authorized to work at the station.
package employee

import (
	"crypto/sha256"
	"encoding/hex"
)

// Employee is an operator record, owned by external storage and attached to
// the station only for the duration of a shift.
type Employee struct {
	Name         string `bson:"name" json:"name"`
	Position     string `bson:"position" json:"position"`
	CardID       string `bson:"rfid_card_id" json:"rfid_card_id"`
	PassportCode string `bson:"passport_code" json:"passport_code"`
}

// PassportCode derives the anonymized operator identifier embedded in unit
// passports in place of personal data.
func PassportCode(name, position string) string {
	sum := sha256.Sum256([]byte(position + " " + name))
	return hex.EncodeToString(sum[:])
}
