package address

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/netip"
	"testing"

	"gitlab.bluewillows.net/root/dynv6sync/pkg/provider"
)

func TestNewHTTP_Defaults(t *testing.T) {
	if h := NewHTTP(provider.FamilyIPv4, "", nil); h.url != DefaultHTTPIPv4 {
		t.Errorf("ipv4 default url = %s", h.url)
	}
	if h := NewHTTP(provider.FamilyIPv6, "", nil); h.url != DefaultHTTPIPv6 {
		t.Errorf("ipv6 default url = %s", h.url)
	}
}

func TestHTTP_Lookup(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		want    string
		wantErr bool
	}{
		{name: "plain address", status: http.StatusOK, body: "192.0.2.44", want: "192.0.2.44"},
		{name: "trailing newline", status: http.StatusOK, body: "192.0.2.44\n", want: "192.0.2.44"},
		{name: "wrong family", status: http.StatusOK, body: "2001:db8::1", wantErr: true},
		{name: "not an address", status: http.StatusOK, body: "<html>", wantErr: true},
		{name: "server error", status: http.StatusServiceUnavailable, body: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			src := NewHTTP(provider.FamilyIPv4, server.URL, nil)
			addr, err := src.Lookup(context.Background())
			if tt.wantErr {
				if !errors.Is(err, ErrUnavailable) {
					t.Errorf("expected ErrUnavailable, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if addr != netip.MustParseAddr(tt.want) {
				t.Errorf("Lookup() = %s, want %s", addr, tt.want)
			}
		})
	}
}
