package opendata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Nicola-Bdewi/smartrajet/internal/lib/construction"
)

// ErrMalformedEnvelope is returned when a dataset response does not carry
// the expected {"result":{"records":[...]}} shape. The whole batch is
// treated as a failed fetch; per-record problems are handled downstream by
// the enricher's coordinate guard.
var ErrMalformedEnvelope = errors.New("dataset response missing result.records")

// Client fetches the two road-work datasets. Both endpoints return bulk
// snapshots in a CKAN-style JSON envelope; no pagination is handled.
type Client struct {
	obstructionsURL string
	impactsURL      string
	httpClient      *http.Client
}

// NewClient creates a dataset client for the configured endpoint URLs.
func NewClient(obstructionsURL, impactsURL string) *Client {
	return &Client{
		obstructionsURL: obstructionsURL,
		impactsURL:      impactsURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// envelope is the CKAN datastore response wrapper
type envelope struct {
	Result *struct {
		Records json.RawMessage `json:"records"`
	} `json:"result"`
}

// FetchObstructions retrieves the raw obstruction records ("entraves").
func (c *Client) FetchObstructions(ctx context.Context) ([]construction.ObstructionRecord, error) {
	var records []construction.ObstructionRecord
	if err := c.fetchRecords(ctx, c.obstructionsURL, &records); err != nil {
		return nil, fmt.Errorf("fetch obstructions: %w", err)
	}
	return records, nil
}

// FetchImpacts retrieves the raw traffic/sidewalk impact records.
func (c *Client) FetchImpacts(ctx context.Context) ([]construction.ImpactRecord, error) {
	var records []construction.ImpactRecord
	if err := c.fetchRecords(ctx, c.impactsURL, &records); err != nil {
		return nil, fmt.Errorf("fetch impacts: %w", err)
	}
	return records, nil
}

// fetchRecords performs a GET and unwraps the result.records envelope into
// the provided slice.
func (c *Client) fetchRecords(ctx context.Context, url string, records interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("dataset API error %d: %s", resp.StatusCode, string(body))
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	if env.Result == nil || env.Result.Records == nil {
		return ErrMalformedEnvelope
	}

	if err := json.Unmarshal(env.Result.Records, records); err != nil {
		return fmt.Errorf("failed to decode records: %w", err)
	}

	return nil
}
