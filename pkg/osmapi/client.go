// Package osmapi is the HTTP client for the bounding-box query endpoints:
// elements-in-bbox and notes-in-bbox, both returning binary CBOR payloads.
package osmapi

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/fxamacker/cbor/v2"

	"github.com/osmview/osmview/pkg/geobox"
	"github.com/osmview/osmview/pkg/osm"
)

const userAgent = "osmview (github.com/osmview/osmview)"

// QueryError is a non-200 response from a query endpoint.
type QueryError struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("query error: %d %s: %s", e.StatusCode, e.Status, e.Body)
}

// Client queries the map data and notes endpoints.
type Client struct {
	base *url.URL
	http *http.Client
}

// New creates a client for the given base URL.
func New(baseURL string) (*Client, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	return &Client{
		base: base,
		http: &http.Client{Timeout: 30 * time.Second},
	}, nil
}

// MapData fetches the elements inside bounds. A positive limit asks the
// server to cap the element count, signaling truncation through the
// payload's TooMuchData flag; limit <= 0 omits the cap (the "load anyway"
// override).
func (c *Client) MapData(ctx context.Context, bounds geobox.Bounds, limit int) (*osm.MapPayload, error) {
	var payload osm.MapPayload
	if err := c.get(ctx, "/api/web/map", bounds, limit, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// Notes fetches the notes inside bounds, capped at limit when positive.
func (c *Client) Notes(ctx context.Context, bounds geobox.Bounds, limit int) (*osm.NotesPayload, error) {
	var payload osm.NotesPayload
	if err := c.get(ctx, "/api/web/note/map", bounds, limit, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

func (c *Client) get(ctx context.Context, path string, bounds geobox.Bounds, limit int, out any) error {
	u := *c.base
	u.Path = u.Path + path
	q := url.Values{}
	q.Set("bbox", bounds.String())
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", osm.ContentType)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if err != nil {
			body = nil
		}
		return &QueryError{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       string(body),
		}
	}

	if err := cbor.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s payload: %w", path, err)
	}
	return nil
}
