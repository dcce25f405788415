package address

import (
	"context"
	"net/netip"
	"testing"

	"gitlab.bluewillows.net/root/dynv6sync/pkg/provider"
)

func TestNewProbe_Defaults(t *testing.T) {
	p6, err := NewProbe(provider.FamilyIPv6, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p6.Target() != netip.MustParseAddrPort("[2001:4860:4860::8888]:1") {
		t.Errorf("unexpected ipv6 default target %s", p6.Target())
	}

	p4, err := NewProbe(provider.FamilyIPv4, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p4.Target() != netip.MustParseAddrPort("8.8.8.8:1") {
		t.Errorf("unexpected ipv4 default target %s", p4.Target())
	}
}

func TestNewProbe_Target(t *testing.T) {
	tests := []struct {
		name    string
		family  provider.Family
		target  string
		want    string
		wantErr bool
	}{
		{"expanded v6 form", provider.FamilyIPv6, "2001:4860:4860:0:0:0:0:8888", "[2001:4860:4860::8888]:1", false},
		{"with port", provider.FamilyIPv6, "[2001:db8::53]:53", "[2001:db8::53]:53", false},
		{"v4 with port", provider.FamilyIPv4, "192.0.2.53:53", "192.0.2.53:53", false},
		{"family mismatch", provider.FamilyIPv6, "8.8.8.8", "", true},
		{"garbage", provider.FamilyIPv6, "example.com", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewProbe(tt.family, tt.target)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if p.Target().String() != tt.want {
				t.Errorf("Target() = %s, want %s", p.Target(), tt.want)
			}
		})
	}
}

func TestProbe_LookupLoopback(t *testing.T) {
	p, err := NewProbe(provider.FamilyIPv4, "127.0.0.1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	addr, err := p.Lookup(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if addr != netip.MustParseAddr("127.0.0.1") {
		t.Errorf("Lookup() = %s, want 127.0.0.1", addr)
	}
}
