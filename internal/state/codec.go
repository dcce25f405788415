package state

import (
	"encoding/json"
	"errors"
	"fmt"

	"gitlab.bluewillows.net/root/dynv6sync/pkg/provider"
)

// ErrUnreadable is returned when snapshot content cannot be decoded.
var ErrUnreadable = errors.New("snapshot unreadable")

// entry is one element of the on-disk JSON array. The zone element is
// recognised by its zone_id key; all others are records.
type entry struct {
	ZoneID   *int64 `json:"zone_id,omitempty"`
	ZoneName string `json:"zone_name,omitempty"`
	IPv4     string `json:"ipv4,omitempty"`
	IPv6     string `json:"ipv6,omitempty"`

	ID   int64  `json:"id,omitempty"`
	Type string `json:"type,omitempty"`
	Name string `json:"name,omitempty"`
	Data string `json:"data,omitempty"`
}

// Encode renders a snapshot as an indented JSON array.
func Encode(s Snapshot) ([]byte, error) {
	entries := make([]entry, 0, len(s.Records)+1)

	if s.Zone != (Zone{}) {
		id := s.Zone.ID
		entries = append(entries, entry{
			ZoneID:   &id,
			ZoneName: s.Zone.Name,
			IPv4:     s.Zone.IPv4,
			IPv6:     s.Zone.IPv6,
		})
	}

	for _, r := range s.Records {
		entries = append(entries, entry{
			ID:   r.ID,
			Type: string(r.Type),
			Name: r.Name,
			Data: r.Data,
		})
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding snapshot: %w", err)
	}
	return append(data, '\n'), nil
}

// Decode parses snapshot content. Elements that are neither the zone nor
// an A/AAAA record are ignored. Empty input decodes to an empty snapshot.
func Decode(data []byte) (Snapshot, error) {
	var s Snapshot
	if len(data) == 0 {
		return s, nil
	}

	var entries []entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return Snapshot{}, fmt.Errorf("%w: %w", ErrUnreadable, err)
	}

	for _, e := range entries {
		if e.ZoneID != nil {
			s.Zone = Zone{ID: *e.ZoneID, Name: e.ZoneName, IPv4: e.IPv4, IPv6: e.IPv6}
			continue
		}

		t := provider.RecordType(e.Type)
		if _, ok := provider.FamilyOf(t); !ok {
			continue
		}
		s.Records = append(s.Records, Record{ID: e.ID, Type: t, Name: e.Name, Data: e.Data})
	}

	return s, nil
}
