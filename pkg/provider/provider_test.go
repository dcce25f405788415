package provider

import (
	"errors"
	"net/netip"
	"testing"
)

func TestFamily_RecordType(t *testing.T) {
	if got := FamilyIPv4.RecordType(); got != RecordTypeA {
		t.Errorf("FamilyIPv4.RecordType() = %s, want A", got)
	}
	if got := FamilyIPv6.RecordType(); got != RecordTypeAAAA {
		t.Errorf("FamilyIPv6.RecordType() = %s, want AAAA", got)
	}
}

func TestFamily_Matches(t *testing.T) {
	tests := []struct {
		name   string
		family Family
		addr   string
		want   bool
	}{
		{"v4 address for ipv4", FamilyIPv4, "192.0.2.1", true},
		{"v6 address for ipv4", FamilyIPv4, "2001:db8::1", false},
		{"mapped v4 for ipv4", FamilyIPv4, "::ffff:192.0.2.1", true},
		{"v6 address for ipv6", FamilyIPv6, "2001:db8::1", true},
		{"v4 address for ipv6", FamilyIPv6, "192.0.2.1", false},
		{"mapped v4 for ipv6", FamilyIPv6, "::ffff:192.0.2.1", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			addr := netip.MustParseAddr(tt.addr)
			if got := tt.family.Matches(addr); got != tt.want {
				t.Errorf("Matches(%s) = %v, want %v", tt.addr, got, tt.want)
			}
		})
	}

	if FamilyIPv6.Matches(netip.Addr{}) {
		t.Error("zero address should not match any family")
	}
}

func TestFamilyOf(t *testing.T) {
	if f, ok := FamilyOf(RecordTypeA); !ok || f != FamilyIPv4 {
		t.Errorf("FamilyOf(A) = %v, %v", f, ok)
	}
	if f, ok := FamilyOf(RecordTypeAAAA); !ok || f != FamilyIPv6 {
		t.Errorf("FamilyOf(AAAA) = %v, %v", f, ok)
	}
	if _, ok := FamilyOf("CNAME"); ok {
		t.Error("FamilyOf(CNAME) should not be ok")
	}
}

func TestZoneAddresses(t *testing.T) {
	var addrs ZoneAddresses
	if !addrs.IsEmpty() {
		t.Error("zero value should be empty")
	}

	addrs.Set(FamilyIPv6, "2001:db8::1")
	if addrs.IPv6Prefix != "2001:db8::1" || addrs.IPv4Address != "" {
		t.Errorf("unexpected addresses after Set(ipv6): %+v", addrs)
	}

	addrs.Set(FamilyIPv4, "192.0.2.1")
	if addrs.IPv4Address != "192.0.2.1" {
		t.Errorf("IPv4Address = %q, want 192.0.2.1", addrs.IPv4Address)
	}

	zone := Zone{IPv4Address: "192.0.2.1", IPv6Prefix: "2001:db8::"}
	if zone.Address(FamilyIPv4) != "192.0.2.1" || zone.Address(FamilyIPv6) != "2001:db8::" {
		t.Errorf("unexpected zone addresses: %+v", zone)
	}
}

func TestFindRecord(t *testing.T) {
	records := []Record{
		{ID: 1, Type: RecordTypeAAAA, Name: "other", Data: "2001:db8::9"},
		{ID: 2, Type: RecordTypeA, Name: "home", Data: "192.0.2.1"},
		{ID: 3, Type: RecordTypeAAAA, Name: "home", Data: "2001:db8::1"},
		{ID: 4, Type: RecordTypeAAAA, Name: "home", Data: "2001:db8::2"},
	}

	rec, ok := FindRecord(records, "home", RecordTypeAAAA)
	if !ok {
		t.Fatal("expected a match")
	}
	if rec.ID != 3 {
		t.Errorf("first match should win, got id %d", rec.ID)
	}

	if _, ok := FindRecord(records, "missing", RecordTypeAAAA); ok {
		t.Error("expected no match for unknown name")
	}
}

func TestWrapError(t *testing.T) {
	if WrapError("dynv6", "list", nil) != nil {
		t.Error("WrapError(nil) should return nil")
	}

	err := WrapError("dynv6", "list records", ErrUnauthorized)
	var pe *ProviderError
	if !errors.As(err, &pe) {
		t.Fatalf("expected *ProviderError, got %T", err)
	}
	if pe.Operation != "list records" {
		t.Errorf("Operation = %q", pe.Operation)
	}
	if !IsUnauthorized(err) {
		t.Error("IsUnauthorized should see through the wrapper")
	}
	if IsNotFound(err) {
		t.Error("IsNotFound should be false")
	}
	if want := "provider dynv6: list records: unauthorized"; err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}
