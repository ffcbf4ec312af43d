package recorder

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"workbenchd/config"
)

func testClient(url string) *Client {
	return New(&config.RecorderConfig{
		Enabled: true,
		BaseURL: url,
		Timeout: time.Second,
	})
}

func TestStartAndEndRecord(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/record/start":
			json.NewEncoder(w).Encode(map[string]bool{"recording": true})
		case "/record/stop":
			json.NewEncoder(w).Encode(map[string]string{"filename": "rec-001.mp4"})
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	ctx := context.Background()

	if err := c.StartRecord(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	if !c.Recording() {
		t.Error("not recording after start")
	}
	if err := c.EndRecord(ctx); err != nil {
		t.Fatalf("end: %v", err)
	}
	if c.Recording() {
		t.Error("still recording after end")
	}
	if got := c.Filename(); got != "rec-001.mp4" {
		t.Errorf("filename = %q", got)
	}
}

func TestStartRecordNoAck(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]bool{"recording": false})
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	if err := c.StartRecord(context.Background()); err == nil {
		t.Fatal("expected error when the device does not acknowledge")
	}
}

func TestStartRecordHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "camera busy", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	if err := c.StartRecord(context.Background()); err == nil {
		t.Fatal("expected error on HTTP 503")
	}
}

func TestDisabledRecorderIsNoOp(t *testing.T) {
	c := New(&config.RecorderConfig{Enabled: false})
	ctx := context.Background()
	if err := c.StartRecord(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := c.EndRecord(ctx); err != nil {
		t.Fatalf("end: %v", err)
	}
	if c.Filename() != "" {
		t.Errorf("filename = %q, want empty", c.Filename())
	}
}
