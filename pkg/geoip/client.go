package geoip

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/atriumhq/atrium-backend/pkg/config"
)

const (
	defaultBaseURL             = "https://ipapi.co"
	defaultTimeout             = 3 * time.Second
	responseBodyLimit    int64 = 16 * 1024
)

// Location holds the best-effort fields resolved for a client IP. Any or all
// fields may be empty.
type Location struct {
	City    string
	Region  string
	Country string
}

// Empty reports whether no geolocation data was resolved.
func (l Location) Empty() bool {
	return l.City == "" && l.Region == "" && l.Country == ""
}

// Resolver looks up a coarse location for an IP address.
type Resolver interface {
	Lookup(ctx context.Context, ip string) Location
}

// Client resolves IPs against an ipapi.co-compatible endpoint. Lookups are
// strictly best-effort: every failure mode degrades to an empty Location.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithBaseURL overrides the lookup base URL.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		trimmed := strings.TrimSpace(baseURL)
		if trimmed != "" {
			c.baseURL = trimmed
		}
	}
}

// NewClient builds a geolocation client from configuration.
func NewClient(cfg config.GeoIPConfig, opts ...Option) *Client {
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	client := &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client
}

// Lookup resolves the IP to a coarse location. Private, loopback and
// unparseable addresses are never sent upstream.
func (c *Client) Lookup(ctx context.Context, ip string) Location {
	if !LookupEligible(ip) {
		return Location{}
	}

	endpoint := fmt.Sprintf("%s/%s/json/", c.baseURL, url.PathEscape(ip))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Location{}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Location{}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return Location{}
	}

	var payload struct {
		Error       bool   `json:"error"`
		Reserved    bool   `json:"reserved"`
		City        string `json:"city"`
		Region      string `json:"region"`
		CountryCode string `json:"country_code"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, responseBodyLimit)).Decode(&payload); err != nil {
		return Location{}
	}
	if payload.Error || payload.Reserved {
		return Location{}
	}

	return Location{
		City:    payload.City,
		Region:  payload.Region,
		Country: payload.CountryCode,
	}
}

// LookupEligible reports whether the IP is a public address worth resolving.
func LookupEligible(ip string) bool {
	parsed := net.ParseIP(strings.TrimSpace(ip))
	if parsed == nil {
		return false
	}
	if parsed.IsLoopback() || parsed.IsPrivate() || parsed.IsUnspecified() || parsed.IsLinkLocalUnicast() || parsed.IsLinkLocalMulticast() {
		return false
	}
	return true
}
