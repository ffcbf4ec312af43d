package ledger

import (
	"fmt"
	"log"
	"sync"
	"time"

	"workbenchd/messenger"
)

// Poster delivers a single datalog record. Satisfied by *Client.
type Poster interface {
	Post(cid, unitInternalID string) error
}

// Drainer periodically delivers pending anchor requests.
type Drainer struct {
	db         *DB
	poster     Poster
	msg        *messenger.Hub
	interval   time.Duration
	maxRetries int
	stopChan   chan struct{}
	wg         sync.WaitGroup
}

// NewDrainer creates a drainer for the given outbox.
func NewDrainer(db *DB, poster Poster, msg *messenger.Hub, interval time.Duration, maxRetries int) *Drainer {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	if maxRetries <= 0 {
		maxRetries = 10
	}
	return &Drainer{
		db:         db,
		poster:     poster,
		msg:        msg,
		interval:   interval,
		maxRetries: maxRetries,
		stopChan:   make(chan struct{}),
	}
}

// Start begins the drain loop.
func (d *Drainer) Start() {
	d.wg.Add(1)
	go d.drainLoop()
}

// Stop stops the drain loop.
func (d *Drainer) Stop() {
	select {
	case <-d.stopChan:
	default:
		close(d.stopChan)
	}
	d.wg.Wait()
}

func (d *Drainer) drainLoop() {
	defer d.wg.Done()

	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-d.stopChan:
			return
		case <-ticker.C:
			d.Drain()
		}
	}
}

// Drain delivers one batch of pending records.
func (d *Drainer) Drain() {
	recs, err := d.db.ListPending(50)
	if err != nil {
		log.Printf("list pending anchors: %v", err)
		return
	}

	for _, r := range recs {
		if r.Retries >= d.maxRetries {
			log.Printf("anchor %d for unit %s exhausted %d retries, retiring", r.ID, r.UnitInternalID, r.Retries)
			if d.msg != nil {
				d.msg.Warning(fmt.Sprintf("Unit %s passport could not be anchored in the ledger.", r.UnitInternalID))
			}
			if err := d.db.MarkFailed(r.ID); err != nil {
				log.Printf("retire anchor %d: %v", r.ID, err)
			}
			continue
		}
		if err := d.poster.Post(r.CID, r.UnitInternalID); err != nil {
			log.Printf("post anchor %d: %v", r.ID, err)
			d.db.IncrementRetries(r.ID)
			continue
		}
		log.Printf("anchored passport %s for unit %s", r.CID, r.UnitInternalID)
		if err := d.db.Ack(r.ID); err != nil {
			log.Printf("ack anchor %d: %v", r.ID, err)
		}
	}
}
