package telemetry

import (
	"encoding/json"
	"log"
	"os"
	"sync"
	"time"
)

// StatusFunc samples the station's current state for a heartbeat.
type StatusFunc func() (state string, employee string)

// Heartbeater publishes a station heartbeat periodically so the site broker
// can tell a live station from a dead one.
type Heartbeater struct {
	client        Publisher
	topic         string
	stationNumber int
	version       string
	status        StatusFunc
	interval      time.Duration
	startTime     time.Time

	stopOnce sync.Once
	stopCh   chan struct{}
}

type heartbeat struct {
	StationNumber int    `json:"station_number"`
	Hostname      string `json:"hostname"`
	Version       string `json:"version"`
	State         string `json:"state"`
	Employee      string `json:"employee,omitempty"`
	UptimeSeconds int64  `json:"uptime_seconds"`
}

// NewHeartbeater creates a heartbeater for the given station identity.
func NewHeartbeater(client Publisher, topic string, stationNumber int, version string, status StatusFunc) *Heartbeater {
	return &Heartbeater{
		client:        client,
		topic:         topic,
		stationNumber: stationNumber,
		version:       version,
		status:        status,
		interval:      60 * time.Second,
		stopCh:        make(chan struct{}),
	}
}

// Start sends an initial heartbeat and begins the loop.
func (h *Heartbeater) Start() {
	h.startTime = time.Now()
	h.send()
	go h.loop()
}

// Stop halts the heartbeat loop.
func (h *Heartbeater) Stop() {
	h.stopOnce.Do(func() { close(h.stopCh) })
}

func (h *Heartbeater) send() {
	if !h.client.IsConnected() {
		return
	}
	hostname, _ := os.Hostname()
	state, employee := h.status()
	payload, err := json.Marshal(heartbeat{
		StationNumber: h.stationNumber,
		Hostname:      hostname,
		Version:       h.version,
		State:         state,
		Employee:      employee,
		UptimeSeconds: int64(time.Since(h.startTime).Seconds()),
	})
	if err != nil {
		log.Printf("heartbeater: encode heartbeat: %v", err)
		return
	}
	if err := h.client.Publish(h.topic, payload); err != nil {
		log.Printf("heartbeater: send heartbeat: %v", err)
	}
}

func (h *Heartbeater) loop() {
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()
	for {
		select {
		case <-h.stopCh:
			return
		case <-ticker.C:
			h.send()
		}
	}
}
