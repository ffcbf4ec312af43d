package ipfs

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"workbenchd/config"
)

func tempFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "artifact.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func testPublisher(url string) *Publisher {
	return New(&config.PublisherConfig{
		GatewayURL: url,
		LinkPrefix: "https://gateway.ipfs.io/ipfs/",
		Timeout:    time.Second,
	})
}

func TestPublishFile(t *testing.T) {
	var gotName string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v0/add" {
			http.NotFound(w, r)
			return
		}
		file, hdr, err := r.FormFile("file")
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		file.Close()
		gotName = hdr.Filename
		json.NewEncoder(w).Encode(map[string]string{"Hash": "QmTest123"})
	}))
	defer srv.Close()

	p := testPublisher(srv.URL)
	cid, link, err := p.PublishFile(context.Background(), tempFile(t, "passport: data"))
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	if cid != "QmTest123" {
		t.Errorf("cid = %q", cid)
	}
	if link != "https://gateway.ipfs.io/ipfs/QmTest123" {
		t.Errorf("link = %q", link)
	}
	if gotName != "artifact.yaml" {
		t.Errorf("uploaded filename = %q", gotName)
	}
}

func TestPublishFileMissing(t *testing.T) {
	p := testPublisher("http://localhost:1")
	_, _, err := p.PublishFile(context.Background(), "/does/not/exist")
	var pubErr *PublishError
	if !errors.As(err, &pubErr) {
		t.Fatalf("error = %v, want PublishError", err)
	}
}

func TestPublishFileEmptyCID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"Hash": ""})
	}))
	defer srv.Close()

	p := testPublisher(srv.URL)
	_, _, err := p.PublishFile(context.Background(), tempFile(t, "x"))
	if err == nil {
		t.Fatal("expected error on empty CID")
	}
}

func TestPublishFileGatewayError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no space", http.StatusInternalServerError)
	}))
	defer srv.Close()

	p := testPublisher(srv.URL)
	_, _, err := p.PublishFile(context.Background(), tempFile(t, "x"))
	var pubErr *PublishError
	if !errors.As(err, &pubErr) {
		t.Fatalf("error = %v, want PublishError", err)
	}
}
