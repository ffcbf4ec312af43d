package telemetry

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"workbenchd/messenger"
)

type capturePublisher struct {
	mu        sync.Mutex
	connected bool
	payloads  map[string][][]byte
}

func newCapturePublisher(connected bool) *capturePublisher {
	return &capturePublisher{connected: connected, payloads: make(map[string][][]byte)}
}

func (c *capturePublisher) Publish(topic string, payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.payloads[topic] = append(c.payloads[topic], payload)
	return nil
}

func (c *capturePublisher) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

func (c *capturePublisher) topicCount(topic string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.payloads[topic])
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestExporterRelaysNotifications(t *testing.T) {
	hub := messenger.NewHub()
	pub := newCapturePublisher(true)

	e := NewExporter(pub, hub, "workbench/events", 3)
	e.Start()
	defer e.Stop()

	hub.Warning("Recorder offline.")

	waitFor(t, time.Second, func() bool { return pub.topicCount("workbench/events") == 1 })

	pub.mu.Lock()
	raw := pub.payloads["workbench/events"][0]
	pub.mu.Unlock()

	var got event
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.StationNumber != 3 {
		t.Errorf("station number = %d", got.StationNumber)
	}
	if got.Variant != "warning" {
		t.Errorf("variant = %q", got.Variant)
	}
	if got.Text != "Recorder offline." {
		t.Errorf("text = %q", got.Text)
	}
}

func TestExporterSkipsWhileDisconnected(t *testing.T) {
	hub := messenger.NewHub()
	pub := newCapturePublisher(false)

	e := NewExporter(pub, hub, "workbench/events", 1)
	e.Start()
	defer e.Stop()

	hub.Info("nobody hears this")
	time.Sleep(50 * time.Millisecond)

	if n := pub.topicCount("workbench/events"); n != 0 {
		t.Errorf("published %d events while disconnected", n)
	}
}

func TestHeartbeaterSendsStatus(t *testing.T) {
	pub := newCapturePublisher(true)
	h := NewHeartbeater(pub, "workbench/heartbeat", 3, "dev", func() (string, string) {
		return "AuthorizedIdling", "Alex Ferro"
	})
	h.Start()
	defer h.Stop()

	waitFor(t, time.Second, func() bool { return pub.topicCount("workbench/heartbeat") >= 1 })

	pub.mu.Lock()
	raw := pub.payloads["workbench/heartbeat"][0]
	pub.mu.Unlock()

	var got heartbeat
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.State != "AuthorizedIdling" || got.Employee != "Alex Ferro" {
		t.Errorf("heartbeat = %+v", got)
	}
	if got.StationNumber != 3 {
		t.Errorf("station number = %d", got.StationNumber)
	}
}
