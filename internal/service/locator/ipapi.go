package locator

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	applog "github.com/janisto/subscriber-pipeline/internal/platform/logging"
)

const (
	defaultIPAPIURL = "http://ip-api.com/json/"
	defaultTimeout  = 3 * time.Second
	ipapiFields     = "status,message,country,regionName,city,lat,lon"
)

// IPAPIClient implements Locator using the ip-api.com JSON endpoint.
type IPAPIClient struct {
	httpClient *http.Client
	baseURL    string
	timeout    time.Duration
}

// Option configures an IPAPIClient.
type Option func(*IPAPIClient)

// WithBaseURL sets a custom endpoint (useful for testing). The IP is appended
// to it as the last path segment.
func WithBaseURL(u string) Option {
	return func(c *IPAPIClient) {
		if !strings.HasSuffix(u, "/") {
			u += "/"
		}
		c.baseURL = u
	}
}

// WithTimeout bounds every lookup.
func WithTimeout(d time.Duration) Option {
	return func(c *IPAPIClient) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// NewIPAPIClient creates a new ip-api client.
func NewIPAPIClient(httpClient *http.Client, opts ...Option) *IPAPIClient {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	c := &IPAPIClient{
		httpClient: httpClient,
		baseURL:    defaultIPAPIURL,
		timeout:    defaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type ipapiResponse struct {
	Status     string  `json:"status"`
	Message    string  `json:"message"`
	Country    string  `json:"country"`
	RegionName string  `json:"regionName"`
	City       string  `json:"city"`
	Lat        float64 `json:"lat"`
	Lon        float64 `json:"lon"`
}

func (c *IPAPIClient) Locate(ctx context.Context, ip string) (Location, error) {
	ip = strings.TrimSpace(ip)
	if ip == "" {
		return Unknown(), fmt.Errorf("%w: empty ip", ErrLookupFailed)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	reqURL := c.baseURL + url.PathEscape(ip) + "?fields=" + ipapiFields
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return Unknown(), fmt.Errorf("%w: creating request: %v", ErrLookupFailed, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		applog.LogWarn(ctx, "ip-api request failed", zap.Error(err))
		return Unknown(), fmt.Errorf("%w: %v", ErrLookupFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		applog.LogWarn(ctx, "ip-api unexpected status", zap.Int("status", resp.StatusCode))
		return Unknown(), fmt.Errorf("%w: status %d", ErrLookupFailed, resp.StatusCode)
	}

	var body ipapiResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Unknown(), fmt.Errorf("%w: decoding response: %v", ErrLookupFailed, err)
	}
	if body.Status != "success" {
		return Unknown(), fmt.Errorf("%w: %s", ErrLookupFailed, body.Message)
	}

	return Location{
		Country:   body.Country,
		Region:    body.RegionName,
		City:      body.City,
		Latitude:  body.Lat,
		Longitude: body.Lon,
	}.orUnknown(), nil
}

// Compile-time interface check
var _ Locator = (*IPAPIClient)(nil)
