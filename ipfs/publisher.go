// Package ipfs publishes files to content-addressed storage through an IPFS
// HTTP gateway.
package ipfs

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"

	"workbenchd/config"
)

// PublishError reports a failed artifact publication: the gateway was
// unreachable or returned no identifier.
type PublishError struct {
	Path string
	Err  error
}

func (e *PublishError) Error() string {
	return fmt.Sprintf("publish %s: %v", e.Path, e.Err)
}

func (e *PublishError) Unwrap() error { return e.Err }

// Publisher uploads files via the gateway's add endpoint.
type Publisher struct {
	cfg  *config.PublisherConfig
	http *http.Client
}

// New creates a publisher for the configured gateway.
func New(cfg *config.PublisherConfig) *Publisher {
	return &Publisher{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
	}
}

// PublishFile uploads the file and returns its content identifier together
// with a retrieval link.
func (p *Publisher) PublishFile(ctx context.Context, path string) (string, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", "", &PublishError{Path: path, Err: err}
	}
	defer f.Close()

	pr, pw := io.Pipe()
	form := multipart.NewWriter(pw)
	go func() {
		part, err := form.CreateFormFile("file", filepath.Base(path))
		if err == nil {
			_, err = io.Copy(part, f)
		}
		if err == nil {
			err = form.Close()
		}
		pw.CloseWithError(err)
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.GatewayURL+"/api/v0/add", pr)
	if err != nil {
		return "", "", &PublishError{Path: path, Err: err}
	}
	req.Header.Set("Content-Type", form.FormDataContentType())

	resp, err := p.http.Do(req)
	if err != nil {
		return "", "", &PublishError{Path: path, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", "", &PublishError{Path: path, Err: fmt.Errorf("gateway returned %d", resp.StatusCode)}
	}

	var added struct {
		Hash string `json:"Hash"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&added); err != nil {
		return "", "", &PublishError{Path: path, Err: fmt.Errorf("decode gateway response: %w", err)}
	}
	if added.Hash == "" {
		return "", "", &PublishError{Path: path, Err: fmt.Errorf("gateway returned no CID")}
	}

	link := p.cfg.LinkPrefix + added.Hash
	log.Printf("file %s published under CID %s", path, added.Hash)
	return added.Hash, link, nil
}
