package messenger

import (
	"log"
	"sync"
)

// Hub fans every emitted notification out to all live brokers. There is one
// hub per process; all UI-facing messages flow through it. The level helpers
// mimic a logger's interface.
type Hub struct {
	mu      sync.Mutex
	brokers []*Broker
}

// NewHub creates an empty notification hub.
func NewHub() *Hub {
	return &Hub{}
}

// Register creates a new live broker and adds it to the fan-out set.
func (h *Hub) Register() *Broker {
	b := newBroker()
	h.mu.Lock()
	h.brokers = append(h.brokers, b)
	h.mu.Unlock()
	return b
}

// Emit delivers a notification to every live broker in registration order.
// Dead brokers are pruned first. Zero recipients is not an error.
func (h *Hub) Emit(level Level, text string) {
	n := Notification{Text: text, Level: level}

	h.mu.Lock()
	live := h.brokers[:0]
	for _, b := range h.brokers {
		if b.Alive() {
			live = append(live, b)
		}
	}
	h.brokers = live
	targets := make([]*Broker, len(live))
	copy(targets, live)
	h.mu.Unlock()

	for _, b := range targets {
		b.push(n)
	}

	if len(targets) > 0 {
		log.Printf("message %q emitted to %d brokers", text, len(targets))
	} else {
		log.Printf("message %q not emitted: no recipients", text)
	}
}

// Default emits a debug-level message rendered with the default variant.
func (h *Hub) Default(text string) { h.Emit(LevelDebug, text) }

// Info emits an info-level message.
func (h *Hub) Info(text string) { h.Emit(LevelInfo, text) }

// Success emits a success-level message.
func (h *Hub) Success(text string) { h.Emit(LevelSuccess, text) }

// Warning emits a warning-level message.
func (h *Hub) Warning(text string) { h.Emit(LevelWarning, text) }

// Error emits an error-level message.
func (h *Hub) Error(text string) { h.Emit(LevelError, text) }
