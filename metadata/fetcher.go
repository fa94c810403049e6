package metadata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"sticket-backend/models"
)

const (
	DefaultGateway = "https://gateway.pinata.cloud/ipfs"
	ipfsScheme     = "ipfs://"

	// MaxDocumentSize caps how much of a metadata response is read.
	MaxDocumentSize = 1 << 20
)

// Placeholders are served by the front end when an event has no image.
var Placeholders = []string{
	"/lock.png",
	"/hands.png",
	"/computer.png",
	"/watchtower.png",
}

// Fetcher loads event metadata documents. A failed fetch is never fatal:
// callers get nil and fall back to placeholders.
type Fetcher struct {
	client  *http.Client
	gateway string
}

func NewFetcher(gateway string, timeout time.Duration) *Fetcher {
	if gateway == "" {
		gateway = DefaultGateway
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Fetcher{
		client:  &http.Client{Timeout: timeout},
		gateway: strings.TrimRight(gateway, "/"),
	}
}

// ResolveURL rewrites ipfs:// URLs to the configured gateway.
func (f *Fetcher) ResolveURL(url string) string {
	if strings.HasPrefix(url, ipfsScheme) {
		return f.gateway + "/" + strings.TrimPrefix(url, ipfsScheme)
	}
	return url
}

func (f *Fetcher) Fetch(ctx context.Context, url string) *models.EventMetadata {
	if url == "" {
		return nil
	}

	meta, err := f.fetch(ctx, f.ResolveURL(url))
	if err != nil {
		log.Printf("Failed to fetch metadata from %s: %v", url, err)
		return nil
	}
	return meta
}

func (f *Fetcher) fetch(ctx context.Context, url string) (*models.EventMetadata, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var meta models.EventMetadata
	if err := json.NewDecoder(io.LimitReader(resp.Body, MaxDocumentSize)).Decode(&meta); err != nil {
		return nil, fmt.Errorf("failed to decode metadata: %w", err)
	}
	return &meta, nil
}

// EventImage picks the metadata image when there is one, else the placeholder for the contract.
func (f *Fetcher) EventImage(meta *models.EventMetadata, contractAddress string) string {
	if meta != nil && meta.Image != nil && *meta.Image != "" {
		return f.ResolveURL(*meta.Image)
	}
	return PlaceholderImage(contractAddress)
}

// PlaceholderImage deterministically maps a contract address to one of the placeholders.
func PlaceholderImage(contractAddress string) string {
	sum := 0
	for _, r := range contractAddress {
		sum += int(r)
	}
	return Placeholders[sum%len(Placeholders)]
}
