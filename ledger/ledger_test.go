package ledger

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"workbenchd/messenger"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "outbox.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestEnqueueAndListPending(t *testing.T) {
	db := openTestDB(t)

	id, err := db.Enqueue("Qm111", "1234567890128")
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if id == 0 {
		t.Error("enqueue returned id 0")
	}
	if _, err := db.Enqueue("Qm222", "9876543210982"); err != nil {
		t.Fatalf("enqueue 2: %v", err)
	}

	recs, err := db.ListPending(10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("pending = %d, want 2", len(recs))
	}
	if recs[0].CID != "Qm111" || recs[1].CID != "Qm222" {
		t.Errorf("order wrong: %v", recs)
	}
}

func TestAckRemovesFromPending(t *testing.T) {
	db := openTestDB(t)
	id, _ := db.Enqueue("Qm111", "1234567890128")
	if err := db.Ack(id); err != nil {
		t.Fatalf("ack: %v", err)
	}
	recs, err := db.ListPending(10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(recs) != 0 {
		t.Errorf("pending = %d after ack", len(recs))
	}
}

func TestIncrementRetries(t *testing.T) {
	db := openTestDB(t)
	id, _ := db.Enqueue("Qm111", "1234567890128")
	db.IncrementRetries(id)
	db.IncrementRetries(id)

	recs, _ := db.ListPending(10)
	if len(recs) != 1 || recs[0].Retries != 2 {
		t.Errorf("records = %+v", recs)
	}
}

func TestMarkFailedRetires(t *testing.T) {
	db := openTestDB(t)
	id, _ := db.Enqueue("Qm111", "1234567890128")
	if err := db.MarkFailed(id); err != nil {
		t.Fatalf("mark failed: %v", err)
	}
	recs, _ := db.ListPending(10)
	if len(recs) != 0 {
		t.Errorf("failed record still pending: %v", recs)
	}
}

func TestAnchorEnqueues(t *testing.T) {
	db := openTestDB(t)
	if err := db.Anchor("Qm111", "1234567890128"); err != nil {
		t.Fatalf("anchor: %v", err)
	}
	recs, _ := db.ListPending(10)
	if len(recs) != 1 {
		t.Fatalf("pending = %d", len(recs))
	}
	if recs[0].UnitInternalID != "1234567890128" {
		t.Errorf("unit id = %q", recs[0].UnitInternalID)
	}
}

type fakePoster struct {
	mu    sync.Mutex
	err   error
	calls []string
}

func (f *fakePoster) Post(cid, unitInternalID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.calls = append(f.calls, cid)
	return nil
}

func TestDrainDelivers(t *testing.T) {
	db := openTestDB(t)
	db.Enqueue("Qm111", "1234567890128")
	db.Enqueue("Qm222", "9876543210982")

	poster := &fakePoster{}
	d := NewDrainer(db, poster, nil, 0, 3)
	d.Drain()

	if len(poster.calls) != 2 {
		t.Errorf("posts = %d, want 2", len(poster.calls))
	}
	recs, _ := db.ListPending(10)
	if len(recs) != 0 {
		t.Errorf("pending = %d after drain", len(recs))
	}
}

func TestDrainRetriesOnFailure(t *testing.T) {
	db := openTestDB(t)
	db.Enqueue("Qm111", "1234567890128")

	poster := &fakePoster{err: errors.New("gateway down")}
	d := NewDrainer(db, poster, nil, 0, 3)
	d.Drain()
	d.Drain()

	recs, _ := db.ListPending(10)
	if len(recs) != 1 {
		t.Fatalf("pending = %d, want the record kept", len(recs))
	}
	if recs[0].Retries != 2 {
		t.Errorf("retries = %d, want 2", recs[0].Retries)
	}
}

func TestDrainRetiresAfterMaxRetries(t *testing.T) {
	db := openTestDB(t)
	db.Enqueue("Qm111", "1234567890128")

	hub := messenger.NewHub()
	feed := hub.Register()

	poster := &fakePoster{err: errors.New("gateway down")}
	d := NewDrainer(db, poster, hub, 0, 2)
	d.Drain() // retries -> 1
	d.Drain() // retries -> 2
	d.Drain() // exhausted, retired with a warning

	recs, _ := db.ListPending(10)
	if len(recs) != 0 {
		t.Errorf("pending = %d, want 0 after retiring", len(recs))
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	n, err := feed.Next(ctx)
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	if n.Level != messenger.LevelWarning {
		t.Errorf("notification level = %v, want warning", n.Level)
	}
}
