// Package remote fetches pricing catalogs from a remote catalog endpoint.
// Payload shapes are provider-specific and normalized at this boundary;
// nothing downstream ever sees a raw response.
package remote

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"studycost/core/catalog"
	"studycost/core/types"
	"studycost/internal/errors"
)

// Config configures the remote catalog client
type Config struct {
	// EndpointURL is the base pricing endpoint
	EndpointURL string

	// PageSize is the page size requested per category
	PageSize int

	// HTTPTimeout bounds each catalog fetch
	HTTPTimeout time.Duration
}

// DefaultConfig returns production defaults
func DefaultConfig(endpointURL string) *Config {
	return &Config{
		EndpointURL: endpointURL,
		PageSize:    100,
		HTTPTimeout: 30 * time.Second,
	}
}

// Client fetches catalogs over HTTP. It implements catalog.Fetcher.
type Client struct {
	httpClient *http.Client
	config     *Config
}

// NewClient creates a remote catalog client
func NewClient(config *Config) *Client {
	if config == nil {
		config = DefaultConfig("")
	}
	timeout := config.HTTPTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		config:     config,
	}
}

// Source implements catalog.Fetcher
func (c *Client) Source() string {
	return "remote"
}

// Fetch retrieves and normalizes the catalog for one category. Network and
// HTTP failures are returned as errors; the caller degrades the category to
// an empty catalog. A malformed body is not an error: it normalizes to an
// empty option list per the normalization contract.
func (c *Client) Fetch(ctx context.Context, category types.Category) (*types.Catalog, error) {
	if c.config.EndpointURL == "" {
		return nil, errors.New(errors.TypeConfig, "no catalog endpoint configured")
	}

	endpoint, err := c.buildURL(category)
	if err != nil {
		return nil, errors.Wrap(errors.TypeConfig, "invalid catalog endpoint", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, errors.Internal("building catalog request", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(errors.TypeNetwork, "catalog fetch failed", err).
			WithContext("category", category.String())
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, errors.Newf(errors.TypeProvider, "catalog endpoint returned %d for %s", resp.StatusCode, category)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, errors.Wrap(errors.TypeNetwork, "reading catalog response", err)
	}

	return catalog.NormalizePayload(category, body), nil
}

// buildURL parameterizes the endpoint by category type and page size
func (c *Client) buildURL(category types.Category) (string, error) {
	u, err := url.Parse(c.config.EndpointURL)
	if err != nil {
		return "", err
	}

	q := u.Query()
	q.Set("type", category.String())
	if c.config.PageSize > 0 {
		q.Set("pageSize", strconv.Itoa(c.config.PageSize))
	}
	u.RawQuery = q.Encode()

	return u.String(), nil
}

// Healthcheck verifies the endpoint answers at all
func (c *Client) Healthcheck(ctx context.Context) error {
	if c.config.EndpointURL == "" {
		return errors.New(errors.TypeConfig, "no catalog endpoint configured")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.EndpointURL, nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("catalog endpoint unreachable: %w", err)
	}
	resp.Body.Close()
	return nil
}
