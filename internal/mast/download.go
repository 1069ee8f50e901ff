package mast

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

const downloadPath = "/api/v0.1/Download/file"

// Fetch streams the product bytes for a dataURI. The caller owns the body.
func (c *Client) Fetch(ctx context.Context, uri string) (io.ReadCloser, error) {
	u := fmt.Sprintf("%s%s?uri=%s", c.baseURL, downloadPath, url.QueryEscape(uri))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download %s: %w", uri, err)
	}

	if resp.StatusCode != http.StatusOK {
		drainClose(resp.Body)
		return nil, fmt.Errorf("download of %s failed with status %d", uri, resp.StatusCode)
	}

	return resp.Body, nil
}
