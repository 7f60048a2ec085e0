// Package geocode talks to a Nominatim-compatible geocoding service:
// forward search for the location-entry flow and reverse lookup for
// shared map points. The service is public and rate-limited by the
// provider, so callers are expected to go through the debounced Searcher
// for type-ahead traffic.
package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	defaultBaseURL = "https://nominatim.openstreetmap.org"
	defaultTimeout = 10 * time.Second
	searchLimit    = 5

	// Identifying User-Agent required by the usage policy of public
	// Nominatim instances.
	userAgent = "placedesk/1.0"
)

// Result is one geocoding candidate.
type Result struct {
	Label string
	Lat   float64
	Lon   float64
}

type Client struct {
	baseURL    string
	httpClient *http.Client
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func New(baseURL string, opts ...Option) *Client {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	c := &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}

	return c
}

// wireResult matches Nominatim's response shape; coordinates arrive as
// strings.
type wireResult struct {
	DisplayName string `json:"display_name"`
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
}

// Search performs a forward text-to-coordinates lookup.
func (c *Client) Search(ctx context.Context, query string) ([]Result, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}

	params := url.Values{
		"q":      {query},
		"format": {"json"},
		"limit":  {strconv.Itoa(searchLimit)},
	}

	raw, err := c.get(ctx, "/search", params)
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", query, err)
	}

	var wire []wireResult
	if err = json.Unmarshal(raw, &wire); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	results := make([]Result, 0, len(wire))
	for _, w := range wire {
		result, convertErr := w.toResult()
		if convertErr != nil {
			continue
		}
		results = append(results, result)
	}

	return results, nil
}

// Reverse resolves coordinates to the nearest address.
func (c *Client) Reverse(ctx context.Context, lat, lon float64) (*Result, error) {
	params := url.Values{
		"lat":    {strconv.FormatFloat(lat, 'f', -1, 64)},
		"lon":    {strconv.FormatFloat(lon, 'f', -1, 64)},
		"format": {"json"},
	}

	raw, err := c.get(ctx, "/reverse", params)
	if err != nil {
		return nil, fmt.Errorf("reverse (%f, %f): %w", lat, lon, err)
	}

	var w wireResult
	if err = json.Unmarshal(raw, &w); err != nil {
		return nil, fmt.Errorf("decode reverse response: %w", err)
	}

	result, err := w.toResult()
	if err != nil {
		return nil, fmt.Errorf("convert reverse result: %w", err)
	}

	return &result, nil
}

func (w wireResult) toResult() (Result, error) {
	lat, err := strconv.ParseFloat(w.Lat, 64)
	if err != nil {
		return Result{}, fmt.Errorf("parse lat %q: %w", w.Lat, err)
	}

	lon, err := strconv.ParseFloat(w.Lon, 64)
	if err != nil {
		return Result{}, fmt.Errorf("parse lon %q: %w", w.Lon, err)
	}

	return Result{Label: w.DisplayName, Lat: lat, Lon: lon}, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	endpoint := c.baseURL + path + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("perform request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("geocoder responded %d", resp.StatusCode)
	}

	return raw, nil
}
