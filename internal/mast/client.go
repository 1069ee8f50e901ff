// Package mast implements the catalog collaborator interfaces against the
// MAST archive's Mashup API. The pipeline only depends on the extracted
// fields; everything else about the wire format stays here.
package mast

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/astroview/hubble-pipeline/internal/catalog"
)

// DefaultBaseURL is the production MAST endpoint
const DefaultBaseURL = "https://mast.stsci.edu"

const invokePath = "/api/v0/invoke"

// Client talks to the MAST Mashup API. It implements catalog.ObjectQuerier,
// catalog.RegionQuerier, catalog.NameResolver and catalog.ProductLister.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a MAST client. An empty baseURL selects the production
// endpoint.
func NewClient(baseURL string, logger *zap.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		logger: logger,
	}
}

// NewClientWithHTTPClient creates a MAST client with a custom HTTP client
func NewClientWithHTTPClient(baseURL string, httpClient *http.Client, logger *zap.Logger) *Client {
	c := NewClient(baseURL, logger)
	c.httpClient = httpClient
	return c
}

// mashupRequest is the envelope the invoke endpoint expects
type mashupRequest struct {
	Service  string                 `json:"service"`
	Params   map[string]interface{} `json:"params"`
	Format   string                 `json:"format"`
	Pagesize int                    `json:"pagesize,omitempty"`
	Page     int                    `json:"page,omitempty"`
}

// mashupEnvelope is the common response wrapper
type mashupEnvelope struct {
	Status string          `json:"status"`
	Msg    string          `json:"msg"`
	Data   json.RawMessage `json:"data"`
}

// invoke posts a Mashup request and decodes the data payload into out
func (c *Client) invoke(ctx context.Context, service string, params map[string]interface{}, out interface{}) error {
	payload, err := json.Marshal(mashupRequest{
		Service:  service,
		Params:   params,
		Format:   "json",
		Pagesize: 2000,
		Page:     1,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	form := url.Values{}
	form.Set("request", string(payload))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+invokePath,
		strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s request failed: %w", service, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s failed with status %d", service, resp.StatusCode)
	}

	var envelope mashupEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", service, err)
	}

	if envelope.Status != "" && envelope.Status != "COMPLETE" {
		return fmt.Errorf("%s returned status %q: %s", service, envelope.Status, envelope.Msg)
	}

	if out != nil && len(envelope.Data) > 0 {
		if err := json.Unmarshal(envelope.Data, out); err != nil {
			return fmt.Errorf("failed to decode %s rows: %w", service, err)
		}
	}
	return nil
}

// QueryObject resolves the object name service-side and cone-searches around
// it
func (c *Client) QueryObject(ctx context.Context, name string, radiusDeg float64) ([]catalog.Observation, error) {
	coord, err := c.ResolveName(ctx, name)
	if err != nil {
		return nil, err
	}
	return c.QueryRegion(ctx, coord, radiusDeg)
}

// QueryRegion cone-searches the CAOM catalog around a coordinate
func (c *Client) QueryRegion(ctx context.Context, coord catalog.Coord, radiusDeg float64) ([]catalog.Observation, error) {
	var rows []catalog.Observation
	err := c.invoke(ctx, "Mast.Caom.Cone", map[string]interface{}{
		"ra":     coord.RA,
		"dec":    coord.Dec,
		"radius": radiusDeg,
	}, &rows)
	if err != nil {
		return nil, err
	}
	c.logger.Debug("cone search",
		zap.Float64("ra", coord.RA),
		zap.Float64("dec", coord.Dec),
		zap.Float64("radius_deg", radiusDeg),
		zap.Int("rows", len(rows)))
	return rows, nil
}

// nameLookupResponse holds the resolved coordinates for a lookup
type nameLookupResponse struct {
	ResolvedCoordinate []struct {
		RA  float64 `json:"ra"`
		Dec float64 `json:"decl"`
	} `json:"resolvedCoordinate"`
}

// ResolveName resolves an object name to celestial coordinates
func (c *Client) ResolveName(ctx context.Context, name string) (catalog.Coord, error) {
	var resp nameLookupResponse
	err := c.invoke(ctx, "Mast.Name.Lookup", map[string]interface{}{
		"input":  name,
		"format": "json",
	}, &resp)
	if err != nil {
		return catalog.Coord{}, err
	}
	if len(resp.ResolvedCoordinate) == 0 {
		return catalog.Coord{}, fmt.Errorf("no coordinates resolved for %q", name)
	}
	rc := resp.ResolvedCoordinate[0]
	return catalog.Coord{RA: rc.RA, Dec: rc.Dec}, nil
}

// ProductList lists the downloadable products for the given dataset IDs
func (c *Client) ProductList(ctx context.Context, ids []catalog.DatasetID) ([]catalog.Product, error) {
	strs := make([]string, len(ids))
	for i, id := range ids {
		strs[i] = string(id)
	}

	var rows []catalog.Product
	err := c.invoke(ctx, "Mast.Caom.Products", map[string]interface{}{
		"obsid": strings.Join(strs, ","),
	}, &rows)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// drainClose discards and closes a response body so the connection can be
// reused
func drainClose(body io.ReadCloser) {
	_, _ = io.Copy(io.Discard, body)
	_ = body.Close()
}
