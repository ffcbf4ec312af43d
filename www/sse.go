package www

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// handleNotificationFeed streams the station's notifications over SSE. Each
// connection registers its own broker with the hub and retires it when the
// client goes away, so a slow or dead subscriber never affects the others.
func (h *Handlers) handleNotificationFeed(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "SSE not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	broker := h.msg.Register()
	defer broker.Retire()

	fmt.Fprintf(w, "event: connected\ndata: {}\n\n")
	flusher.Flush()

	keepalive := time.NewTicker(30 * time.Second)
	defer keepalive.Stop()

	ctx := r.Context()
	next := make(chan []byte)
	errc := make(chan error, 1)
	go func() {
		for {
			n, err := broker.Next(ctx)
			if err != nil {
				errc <- err
				return
			}
			data, err := json.Marshal(n.Wire())
			if err != nil {
				continue
			}
			select {
			case next <- data:
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-errc:
			return
		case data := <-next:
			fmt.Fprintf(w, "event: notification\ndata: %s\n\n", data)
			flusher.Flush()
		case <-keepalive.C:
			fmt.Fprintf(w, ": keepalive\n\n")
			flusher.Flush()
		}
	}
}
