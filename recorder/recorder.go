// Package recorder drives the camera service attached to the station.
package recorder

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"sync"

	"workbenchd/config"
)

// Client talks to the video recorder service over HTTP. A disabled recorder
// degrades every call to a no-op that yields no recording, which covers
// benches without a camera.
type Client struct {
	cfg  *config.RecorderConfig
	http *http.Client

	mu        sync.Mutex
	recording bool
	filename  string
}

// New creates a recorder client.
func New(cfg *config.RecorderConfig) *Client {
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
	}
}

// StartRecord asks the device to start recording and blocks until it
// acknowledges.
func (c *Client) StartRecord(ctx context.Context) error {
	if !c.cfg.Enabled {
		log.Printf("recorder disabled, skipping record start")
		return nil
	}

	var resp struct {
		Recording bool `json:"recording"`
	}
	if err := c.post(ctx, "/record/start", &resp); err != nil {
		return fmt.Errorf("start record: %w", err)
	}
	if !resp.Recording {
		return fmt.Errorf("start record: device did not acknowledge")
	}

	c.mu.Lock()
	c.recording = true
	c.filename = ""
	c.mu.Unlock()
	return nil
}

// EndRecord stops the ongoing recording and remembers the produced file.
func (c *Client) EndRecord(ctx context.Context) error {
	if !c.cfg.Enabled {
		return nil
	}

	var resp struct {
		Filename string `json:"filename"`
	}
	if err := c.post(ctx, "/record/stop", &resp); err != nil {
		return fmt.Errorf("end record: %w", err)
	}

	c.mu.Lock()
	c.recording = false
	c.filename = resp.Filename
	c.mu.Unlock()
	return nil
}

// Filename returns the local path of the last finished recording, or "".
func (c *Client) Filename() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.filename
}

// Recording reports whether a recording is in progress.
func (c *Client) Recording() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.recording
}

func (c *Client) post(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+path, bytes.NewReader(nil))
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("recorder returned %d: %s", resp.StatusCode, bytes.TrimSpace(body))
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode recorder response: %w", err)
		}
	}
	return nil
}
