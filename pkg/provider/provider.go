// Package provider defines the DNS provider capability the reconciler
// drives, and the zone and record types exchanged with it.
package provider

import (
	"context"
	"net/netip"
)

// RecordType represents the type of DNS record.
type RecordType string

const (
	RecordTypeA    RecordType = "A"
	RecordTypeAAAA RecordType = "AAAA"
)

// Family is an address family handled by the updater.
type Family int

const (
	// FamilyIPv4 maps to A records and the zone's ipv4_address field.
	FamilyIPv4 Family = iota
	// FamilyIPv6 maps to AAAA records and the zone's ipv6_prefix field.
	FamilyIPv6
)

// Families lists every family in the order they are reconciled.
var Families = []Family{FamilyIPv4, FamilyIPv6}

// String returns "ipv4" or "ipv6".
func (f Family) String() string {
	if f == FamilyIPv4 {
		return "ipv4"
	}
	return "ipv6"
}

// RecordType returns the DNS record type carrying addresses of this family.
func (f Family) RecordType() RecordType {
	if f == FamilyIPv4 {
		return RecordTypeA
	}
	return RecordTypeAAAA
}

// Matches reports whether addr belongs to the family.
func (f Family) Matches(addr netip.Addr) bool {
	if !addr.IsValid() {
		return false
	}
	if f == FamilyIPv4 {
		return addr.Unmap().Is4()
	}
	return addr.Is6() && !addr.Is4In6()
}

// FamilyOf returns the family carried by a record type.
func FamilyOf(t RecordType) (Family, bool) {
	switch t {
	case RecordTypeA:
		return FamilyIPv4, true
	case RecordTypeAAAA:
		return FamilyIPv6, true
	default:
		return 0, false
	}
}

// Zone is a zone as reported by the provider.
type Zone struct {
	ID          int64
	Name        string
	IPv4Address string
	IPv6Prefix  string
}

// Address returns the apex address stored for the family.
func (z Zone) Address(f Family) string {
	if f == FamilyIPv4 {
		return z.IPv4Address
	}
	return z.IPv6Prefix
}

// ZoneAddresses is the set of apex fields sent when creating or updating a
// zone. Empty fields are left untouched by the provider.
type ZoneAddresses struct {
	IPv4Address string
	IPv6Prefix  string
}

// Set stores addr in the field for family f.
func (a *ZoneAddresses) Set(f Family, addr string) {
	if f == FamilyIPv4 {
		a.IPv4Address = addr
		return
	}
	a.IPv6Prefix = addr
}

// IsEmpty reports whether no field is set.
func (a ZoneAddresses) IsEmpty() bool {
	return a.IPv4Address == "" && a.IPv6Prefix == ""
}

// Record is a single A or AAAA record inside a zone.
type Record struct {
	ID   int64
	Type RecordType
	Name string // prefix relative to the zone, empty for the apex
	Data string
}

// Client is the DNS provider API consumed by the reconciler.
// Lookups that find nothing return ErrNotFound.
type Client interface {
	// Name returns the provider name used in logs, metrics and errors.
	Name() string

	FindZoneByName(ctx context.Context, name string) (*Zone, error)
	GetZone(ctx context.Context, zoneID int64) (*Zone, error)
	CreateZone(ctx context.Context, name string, addrs ZoneAddresses) (*Zone, error)
	UpdateZone(ctx context.Context, zoneID int64, addrs ZoneAddresses) (*Zone, error)

	ListRecords(ctx context.Context, zoneID int64) ([]Record, error)
	CreateRecord(ctx context.Context, zoneID int64, record Record) (*Record, error)
	UpdateRecord(ctx context.Context, zoneID, recordID int64, record Record) (*Record, error)
}

// FindRecord returns the first record in records with the given name and
// type, in provider order.
func FindRecord(records []Record, name string, t RecordType) (Record, bool) {
	for _, r := range records {
		if r.Name == name && r.Type == t {
			return r, true
		}
	}
	return Record{}, false
}
