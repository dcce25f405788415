package address

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/netip"
	"strings"

	"gitlab.bluewillows.net/root/dynv6sync/pkg/httputil"
	"gitlab.bluewillows.net/root/dynv6sync/pkg/provider"
)

// Default "what is my IP" endpoints. Both answer with a bare address.
const (
	DefaultHTTPIPv4 = "https://api.ipify.org"
	DefaultHTTPIPv6 = "https://api64.ipify.org"
)

// HTTP asks a remote service which address our request came from.
type HTTP struct {
	family provider.Family
	url    string
	client *http.Client
}

// NewHTTP creates an HTTP source. A nil client gets one pinned to the
// family's network so the service sees the right source address.
func NewHTTP(family provider.Family, url string, client *http.Client) *HTTP {
	if url == "" {
		url = DefaultHTTPIPv6
		if family == provider.FamilyIPv4 {
			url = DefaultHTTPIPv4
		}
	}
	if client == nil {
		network := "tcp6"
		if family == provider.FamilyIPv4 {
			network = "tcp4"
		}
		client = httputil.NewClient(&httputil.ClientConfig{Network: network})
	}
	return &HTTP{family: family, url: url, client: client}
}

// Family implements Source.
func (h *HTTP) Family() provider.Family {
	return h.family
}

// Lookup implements Source.
func (h *HTTP) Lookup(ctx context.Context) (netip.Addr, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.url, nil)
	if err != nil {
		return netip.Addr{}, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "text/plain")

	resp, err := h.client.Do(req)
	if err != nil {
		return netip.Addr{}, fmt.Errorf("%w: querying %s: %w", ErrUnavailable, h.url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return netip.Addr{}, fmt.Errorf("%w: %s returned status %d", ErrUnavailable, h.url, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 256))
	if err != nil {
		return netip.Addr{}, fmt.Errorf("%w: reading response: %w", ErrUnavailable, err)
	}

	addr, err := netip.ParseAddr(strings.TrimSpace(string(body)))
	if err != nil {
		return netip.Addr{}, fmt.Errorf("%w: %s returned %q", ErrUnavailable, h.url, strings.TrimSpace(string(body)))
	}

	return accept(h.family, addr)
}
