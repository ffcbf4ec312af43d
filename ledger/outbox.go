// Package ledger anchors published unit passports in an external datalog.
// Anchor requests are queued in a local SQLite outbox and delivered by a
// background drainer, so a gateway outage never blocks station operations.
package ledger

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS anchor_outbox (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    cid TEXT NOT NULL,
    unit_internal_id TEXT NOT NULL,
    retries INTEGER NOT NULL DEFAULT 0,
    failed INTEGER NOT NULL DEFAULT 0,
    created_at TEXT NOT NULL DEFAULT (datetime('now','localtime')),
    sent_at TEXT
);
`

// DB wraps the SQLite outbox database.
type DB struct {
	*sql.DB
}

// Open opens (or creates) the outbox database and runs migrations.
func Open(path string) (*DB, error) {
	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_busy_timeout=5000", path)
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open outbox db: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	db := &DB{sqlDB}
	if _, err := db.Exec(schema); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("migrate outbox db: %w", err)
	}
	return db, nil
}

// AnchorRecord is one queued anchor request.
type AnchorRecord struct {
	ID             int64  `json:"id"`
	CID            string `json:"cid"`
	UnitInternalID string `json:"unit_internal_id"`
	Retries        int    `json:"retries"`
	CreatedAt      string `json:"created_at"`
}

// Anchor queues a passport CID for anchoring. Implements the station's
// Anchorer interface: enqueue only, delivery happens out of band.
func (db *DB) Anchor(cid, unitInternalID string) error {
	_, err := db.Enqueue(cid, unitInternalID)
	return err
}

func (db *DB) Enqueue(cid, unitInternalID string) (int64, error) {
	res, err := db.Exec(`INSERT INTO anchor_outbox (cid, unit_internal_id) VALUES (?, ?)`, cid, unitInternalID)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (db *DB) ListPending(limit int) ([]AnchorRecord, error) {
	rows, err := db.Query(`SELECT id, cid, unit_internal_id, retries, created_at FROM anchor_outbox WHERE sent_at IS NULL AND failed = 0 ORDER BY id LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var recs []AnchorRecord
	for rows.Next() {
		var r AnchorRecord
		if err := rows.Scan(&r.ID, &r.CID, &r.UnitInternalID, &r.Retries, &r.CreatedAt); err != nil {
			return nil, err
		}
		recs = append(recs, r)
	}
	return recs, rows.Err()
}

func (db *DB) Ack(id int64) error {
	_, err := db.Exec(`UPDATE anchor_outbox SET sent_at = datetime('now','localtime') WHERE id = ?`, id)
	return err
}

func (db *DB) IncrementRetries(id int64) error {
	_, err := db.Exec(`UPDATE anchor_outbox SET retries = retries + 1 WHERE id = ?`, id)
	return err
}

// MarkFailed retires a record that exhausted its retry budget. It stays in
// the table for manual inspection but is no longer drained.
func (db *DB) MarkFailed(id int64) error {
	_, err := db.Exec(`UPDATE anchor_outbox SET failed = 1 WHERE id = ?`, id)
	return err
}
