package tle

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// DefaultBaseURL is the CelesTrak general-perturbations query endpoint.
const DefaultBaseURL = "https://celestrak.org/NORAD/elements/gp.php"

// maxResponseBytes bounds the fetch response size. A single-satellite CATNR
// query is a few hundred bytes; 1 MB leaves generous headroom.
const maxResponseBytes = 1 << 20

// notFoundBody is the literal body CelesTrak returns for an unknown catalog id.
const notFoundBody = "No GP data found"

// Client fetches element sets from a CelesTrak-compatible endpoint by
// catalog number.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a Client for the given endpoint. An empty baseURL selects
// the CelesTrak default.
func NewClient(baseURL string, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logger,
	}
}

// FetchRaw retrieves the raw TLE text for one catalog number.
// Returns ErrNotFound for an unknown id and *RetrievalError for transport or
// HTTP failures.
func (c *Client) FetchRaw(ctx context.Context, catalogNumber int) ([]byte, error) {
	q := url.Values{}
	q.Set("CATNR", strconv.Itoa(catalogNumber))
	q.Set("FORMAT", "tle")
	reqURL := c.baseURL + "?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &RetrievalError{URL: reqURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("catalog number %d: %w", catalogNumber, ErrNotFound)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &RetrievalError{URL: reqURL, Err: fmt.Errorf("unexpected status code %d", resp.StatusCode)}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes+1))
	if err != nil {
		return nil, &RetrievalError{URL: reqURL, Err: fmt.Errorf("reading response body: %w", err)}
	}
	if len(body) > maxResponseBytes {
		return nil, &RetrievalError{URL: reqURL, Err: fmt.Errorf("response exceeds %d byte limit", maxResponseBytes)}
	}

	if bytes.Equal(bytes.TrimSpace(body), []byte(notFoundBody)) {
		return nil, fmt.Errorf("catalog number %d: %w", catalogNumber, ErrNotFound)
	}

	return body, nil
}

// FetchElementSet retrieves and parses the element set for one catalog number.
func (c *Client) FetchElementSet(ctx context.Context, catalogNumber int) (*ElementSet, error) {
	body, err := c.FetchRaw(ctx, catalogNumber)
	if err != nil {
		return nil, err
	}
	return selectElementSet(body, catalogNumber, c.logger)
}

// selectElementSet parses raw TLE text and picks the entry matching the
// requested catalog number.
func selectElementSet(data []byte, catalogNumber int, logger *slog.Logger) (*ElementSet, error) {
	sets, err := Parse(bytes.NewReader(data), logger)
	if err != nil {
		return nil, fmt.Errorf("parsing TLE response: %w", err)
	}
	for i := range sets {
		if sets[i].CatalogNumber == catalogNumber {
			return &sets[i], nil
		}
	}
	return nil, fmt.Errorf("catalog number %d: %w", catalogNumber, ErrNotFound)
}
