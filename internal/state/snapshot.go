// Package state persists the last known zone and record identities between
// runs so that an unchanged address costs no provider calls.
package state

import (
	"gitlab.bluewillows.net/root/dynv6sync/pkg/provider"
)

// Zone is the cached zone reference. ID 0 means unresolved.
type Zone struct {
	ID   int64
	Name string

	// IPv4 and IPv6 are the apex addresses last confirmed at the provider.
	IPv4 string
	IPv6 string
}

// Address returns the cached apex address for the given family.
func (z Zone) Address(f provider.Family) string {
	if f == provider.FamilyIPv4 {
		return z.IPv4
	}
	return z.IPv6
}

// SetAddress sets the cached apex address for the given family.
func (z *Zone) SetAddress(f provider.Family, addr string) {
	if f == provider.FamilyIPv4 {
		z.IPv4 = addr
		return
	}
	z.IPv6 = addr
}

// Record is a cached A or AAAA record. ID 0 means not yet created.
type Record struct {
	ID   int64
	Type provider.RecordType
	Name string
	Data string
}

// Snapshot is everything remembered from the previous run.
type Snapshot struct {
	Zone    Zone
	Records []Record
}

// IsEmpty reports whether the snapshot carries no information.
func (s Snapshot) IsEmpty() bool {
	return s.Zone == (Zone{}) && len(s.Records) == 0
}

// Record returns the first cached record of the family's type whose name
// equals name. Records cached under other names are invisible.
func (s Snapshot) Record(f provider.Family, name string) (Record, bool) {
	t := f.RecordType()
	for _, r := range s.Records {
		if r.Type == t && r.Name == name {
			return r, true
		}
	}
	return Record{}, false
}
