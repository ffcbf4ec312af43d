package ledger

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client talks to the datalog gateway over HTTP.
type Client struct {
	gatewayURL string
	http       *http.Client
}

// NewClient creates a gateway client.
func NewClient(gatewayURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		gatewayURL: gatewayURL,
		http:       &http.Client{Timeout: timeout},
	}
}

type datalogRequest struct {
	CID            string `json:"cid"`
	UnitInternalID string `json:"unit_internal_id"`
}

// Post writes one datalog record through the gateway.
func (c *Client) Post(cid, unitInternalID string) error {
	body, err := json.Marshal(datalogRequest{CID: cid, UnitInternalID: unitInternalID})
	if err != nil {
		return fmt.Errorf("encode datalog request: %w", err)
	}

	resp, err := c.http.Post(c.gatewayURL+"/datalog", "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("post datalog: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("datalog gateway returned %s: %s", resp.Status, bytes.TrimSpace(msg))
	}
	return nil
}
