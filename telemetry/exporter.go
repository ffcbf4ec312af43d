package telemetry

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"workbenchd/messenger"
)

// Publisher sends payloads to a broker topic. Satisfied by *Client.
type Publisher interface {
	Publish(topic string, payload []byte) error
	IsConnected() bool
}

// event is the wire form of one exported station notification.
type event struct {
	StationNumber int    `json:"station_number"`
	Variant       string `json:"variant"`
	Text          string `json:"text"`
	Time          string `json:"time"`
}

// Exporter relays every station notification to the events topic. It joins
// the notification hub as a regular recipient, so export sees exactly what
// connected operators see.
type Exporter struct {
	client        Publisher
	broker        *messenger.Broker
	topic         string
	stationNumber int

	cancel context.CancelFunc
	done   chan struct{}
}

// NewExporter registers a hub recipient and wraps it in an exporter.
func NewExporter(client Publisher, hub *messenger.Hub, topic string, stationNumber int) *Exporter {
	return &Exporter{
		client:        client,
		broker:        hub.Register(),
		topic:         topic,
		stationNumber: stationNumber,
		done:          make(chan struct{}),
	}
}

// Start begins the relay loop.
func (e *Exporter) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	e.cancel = cancel
	go e.loop(ctx)
}

// Stop halts the relay loop and leaves the hub.
func (e *Exporter) Stop() {
	if e.cancel != nil {
		e.cancel()
	}
	e.broker.Retire()
	<-e.done
}

func (e *Exporter) loop(ctx context.Context) {
	defer close(e.done)
	for {
		n, err := e.broker.Next(ctx)
		if err != nil {
			return
		}
		if !e.client.IsConnected() {
			continue
		}
		payload, err := json.Marshal(event{
			StationNumber: e.stationNumber,
			Variant:       n.Level.Variant(),
			Text:          n.Text,
			Time:          time.Now().Format(time.RFC3339),
		})
		if err != nil {
			log.Printf("telemetry: encode event: %v", err)
			continue
		}
		if err := e.client.Publish(e.topic, payload); err != nil {
			log.Printf("telemetry: publish event: %v", err)
		}
	}
}
