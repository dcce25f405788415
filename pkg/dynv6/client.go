// Package dynv6 implements the provider.Client interface against the
// dynv6.com REST API (v2).
package dynv6

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"gitlab.bluewillows.net/root/dynv6sync/pkg/httputil"
	"gitlab.bluewillows.net/root/dynv6sync/pkg/provider"
)

const (
	// DefaultAPIEndpoint is the base URL for the dynv6 REST API.
	DefaultAPIEndpoint = "https://dynv6.com/api/v2"

	// ProviderName identifies dynv6 in logs, metrics and errors.
	ProviderName = "dynv6"

	// maxErrorBody caps how much of an error response is quoted in errors.
	maxErrorBody = 512
)

// zoneResult represents a zone from the dynv6 API.
type zoneResult struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	IPv4Address string `json:"ipv4_address,omitempty"`
	IPv6Prefix  string `json:"ipv6_prefix,omitempty"`
}

func (z zoneResult) toZone() *provider.Zone {
	return &provider.Zone{
		ID:          z.ID,
		Name:        z.Name,
		IPv4Address: z.IPv4Address,
		IPv6Prefix:  z.IPv6Prefix,
	}
}

// zoneRequest is the request body for creating or patching a zone.
type zoneRequest struct {
	Name        string `json:"name,omitempty"`
	IPv4Address string `json:"ipv4_address,omitempty"`
	IPv6Prefix  string `json:"ipv6_prefix,omitempty"`
}

// recordResult represents a DNS record from the dynv6 API.
type recordResult struct {
	ID     int64  `json:"id"`
	ZoneID int64  `json:"zoneID,omitempty"`
	Type   string `json:"type"`
	Name   string `json:"name"`
	Data   string `json:"data"`
}

func (r recordResult) toRecord() provider.Record {
	return provider.Record{
		ID:   r.ID,
		Type: provider.RecordType(r.Type),
		Name: r.Name,
		Data: r.Data,
	}
}

// recordRequest is the request body for creating or patching a record.
type recordRequest struct {
	Type string `json:"type"`
	Name string `json:"name"`
	Data string `json:"data"`
}

// Client is a dynv6 API client.
type Client struct {
	apiEndpoint string
	token       string
	httpClient  *http.Client
	logger      *slog.Logger
}

// ClientOption is a functional option for configuring the Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithAPIEndpoint sets a custom API endpoint (useful for testing).
func WithAPIEndpoint(endpoint string) ClientOption {
	return func(c *Client) {
		c.apiEndpoint = strings.TrimRight(endpoint, "/")
	}
}

// NewClient creates a new dynv6 API client authenticated with token.
func NewClient(token string, opts ...ClientOption) *Client {
	c := &Client{
		apiEndpoint: DefaultAPIEndpoint,
		token:       token,
		httpClient:  httputil.DefaultClient(),
		logger:      slog.Default(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Name implements provider.Client.
func (c *Client) Name() string {
	return ProviderName
}

// doRequest performs an HTTP request against the API. body, when non-nil,
// is sent as JSON; out, when non-nil, receives the decoded response.
func (c *Client) doRequest(ctx context.Context, method, path string, body, out any) error {
	reqURL := c.apiEndpoint + path

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	c.logger.Debug("making API request",
		slog.String("method", method),
		slog.String("path", path),
	)

	req, err := http.NewRequestWithContext(ctx, method, reqURL, reader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", provider.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return statusError(resp.StatusCode, respBody)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("parsing response JSON: %w", err)
	}
	return nil
}

// statusError maps a non-2xx response to an error.
func statusError(status int, body []byte) error {
	msg := strings.TrimSpace(string(body))
	if len(msg) > maxErrorBody {
		msg = msg[:maxErrorBody]
	}

	var sentinel error
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		sentinel = provider.ErrUnauthorized
	case status == http.StatusNotFound:
		sentinel = provider.ErrNotFound
	case status >= 500:
		sentinel = provider.ErrProviderUnavailable
	}

	if sentinel != nil {
		return fmt.Errorf("%w: status %d: %s", sentinel, status, msg)
	}
	return fmt.Errorf("unexpected status code %d: %s", status, msg)
}

// FindZoneByName lists all zones and returns the first whose name equals
// name exactly.
func (c *Client) FindZoneByName(ctx context.Context, name string) (*provider.Zone, error) {
	var zones []zoneResult
	if err := c.doRequest(ctx, http.MethodGet, "/zones", nil, &zones); err != nil {
		return nil, provider.WrapError(ProviderName, "find zone", err)
	}

	for _, z := range zones {
		if z.Name == name {
			c.logger.Debug("found zone",
				slog.String("zone", name),
				slog.Int64("zone_id", z.ID),
			)
			return z.toZone(), nil
		}
	}

	return nil, provider.WrapError(ProviderName, "find zone",
		fmt.Errorf("%w: zone %q", provider.ErrNotFound, name))
}

// GetZone fetches a single zone by id.
func (c *Client) GetZone(ctx context.Context, zoneID int64) (*provider.Zone, error) {
	var zone zoneResult
	path := fmt.Sprintf("/zones/%d", zoneID)
	if err := c.doRequest(ctx, http.MethodGet, path, nil, &zone); err != nil {
		return nil, provider.WrapError(ProviderName, "get zone", err)
	}
	return zone.toZone(), nil
}

// CreateZone registers a new zone, optionally seeding its apex addresses.
func (c *Client) CreateZone(ctx context.Context, name string, addrs provider.ZoneAddresses) (*provider.Zone, error) {
	reqBody := zoneRequest{
		Name:        name,
		IPv4Address: addrs.IPv4Address,
		IPv6Prefix:  addrs.IPv6Prefix,
	}

	var zone zoneResult
	if err := c.doRequest(ctx, http.MethodPost, "/zones", reqBody, &zone); err != nil {
		return nil, provider.WrapError(ProviderName, "create zone", err)
	}
	if zone.ID == 0 {
		return nil, provider.WrapError(ProviderName, "create zone", provider.ErrMissingID)
	}

	c.logger.Info("created zone",
		slog.String("zone", name),
		slog.Int64("zone_id", zone.ID),
	)

	return zone.toZone(), nil
}

// UpdateZone patches the apex addresses of a zone. Fields left empty in
// addrs are not sent.
func (c *Client) UpdateZone(ctx context.Context, zoneID int64, addrs provider.ZoneAddresses) (*provider.Zone, error) {
	if addrs.IsEmpty() {
		return nil, provider.WrapError(ProviderName, "update zone", errors.New("no addresses to update"))
	}

	reqBody := zoneRequest{
		IPv4Address: addrs.IPv4Address,
		IPv6Prefix:  addrs.IPv6Prefix,
	}

	var zone zoneResult
	path := fmt.Sprintf("/zones/%d", zoneID)
	if err := c.doRequest(ctx, http.MethodPatch, path, reqBody, &zone); err != nil {
		return nil, provider.WrapError(ProviderName, "update zone", err)
	}
	if zone.ID == 0 {
		return nil, provider.WrapError(ProviderName, "update zone", provider.ErrMissingID)
	}

	c.logger.Info("updated zone",
		slog.Int64("zone_id", zoneID),
		slog.String("ipv4_address", addrs.IPv4Address),
		slog.String("ipv6_prefix", addrs.IPv6Prefix),
	)

	return zone.toZone(), nil
}

// ListRecords returns every record of a zone in provider order.
func (c *Client) ListRecords(ctx context.Context, zoneID int64) ([]provider.Record, error) {
	var results []recordResult
	path := fmt.Sprintf("/zones/%d/records", zoneID)
	if err := c.doRequest(ctx, http.MethodGet, path, nil, &results); err != nil {
		return nil, provider.WrapError(ProviderName, "list records", err)
	}

	records := make([]provider.Record, 0, len(results))
	for _, r := range results {
		records = append(records, r.toRecord())
	}

	c.logger.Debug("listed records",
		slog.Int64("zone_id", zoneID),
		slog.Int("count", len(records)),
	)

	return records, nil
}

// CreateRecord creates a record and returns it with the provider-assigned id.
func (c *Client) CreateRecord(ctx context.Context, zoneID int64, record provider.Record) (*provider.Record, error) {
	reqBody := recordRequest{
		Type: string(record.Type),
		Name: record.Name,
		Data: record.Data,
	}

	var result recordResult
	path := fmt.Sprintf("/zones/%d/records", zoneID)
	if err := c.doRequest(ctx, http.MethodPost, path, reqBody, &result); err != nil {
		return nil, provider.WrapError(ProviderName, "create record", err)
	}
	if result.ID == 0 {
		return nil, provider.WrapError(ProviderName, "create record", provider.ErrMissingID)
	}

	c.logger.Info("created DNS record",
		slog.Int64("zone_id", zoneID),
		slog.Int64("record_id", result.ID),
		slog.String("type", string(record.Type)),
		slog.String("name", record.Name),
		slog.String("data", record.Data),
	)

	created := result.toRecord()
	return &created, nil
}

// UpdateRecord patches an existing record. The returned record carries the
// id echoed by the provider, which callers should compare against recordID.
func (c *Client) UpdateRecord(ctx context.Context, zoneID, recordID int64, record provider.Record) (*provider.Record, error) {
	reqBody := recordRequest{
		Type: string(record.Type),
		Name: record.Name,
		Data: record.Data,
	}

	var result recordResult
	path := fmt.Sprintf("/zones/%d/records/%d", zoneID, recordID)
	if err := c.doRequest(ctx, http.MethodPatch, path, reqBody, &result); err != nil {
		return nil, provider.WrapError(ProviderName, "update record", err)
	}
	if result.ID == 0 {
		return nil, provider.WrapError(ProviderName, "update record", provider.ErrMissingID)
	}

	c.logger.Info("updated DNS record",
		slog.Int64("zone_id", zoneID),
		slog.Int64("record_id", recordID),
		slog.String("type", string(record.Type)),
		slog.String("name", record.Name),
		slog.String("data", record.Data),
	)

	updated := result.toRecord()
	return &updated, nil
}

// Compile-time interface check.
var _ provider.Client = (*Client)(nil)
