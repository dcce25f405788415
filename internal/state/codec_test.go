package state

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"gitlab.bluewillows.net/root/dynv6sync/pkg/provider"
)

func TestEncodeDecode_RoundTrip(t *testing.T) {
	tests := []struct {
		name string
		snap Snapshot
	}{
		{name: "empty", snap: Snapshot{}},
		{
			name: "zone only",
			snap: Snapshot{Zone: Zone{ID: 42, Name: "example.dynv6.net"}},
		},
		{
			name: "zone and records",
			snap: Snapshot{
				Zone: Zone{ID: 42, Name: "example.dynv6.net"},
				Records: []Record{
					{ID: 7, Type: provider.RecordTypeA, Name: "home", Data: "203.0.113.5"},
					{ID: 9, Type: provider.RecordTypeAAAA, Name: "home", Data: "2001:db8::1"},
				},
			},
		},
		{
			name: "apex addresses",
			snap: Snapshot{Zone: Zone{ID: 42, IPv4: "203.0.113.5", IPv6: "2001:db8::1"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := Encode(tt.snap)
			if err != nil {
				t.Fatalf("Encode() error = %v", err)
			}
			got, err := Decode(data)
			if err != nil {
				t.Fatalf("Decode() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.snap) {
				t.Errorf("round trip = %+v, want %+v", got, tt.snap)
			}
		})
	}
}

func TestEncode_OmitsEmptyFields(t *testing.T) {
	data, err := Encode(Snapshot{Zone: Zone{ID: 42}})
	if err != nil {
		t.Fatal(err)
	}
	s := string(data)
	for _, key := range []string{"zone_name", "ipv4", "ipv6", `"type"`} {
		if strings.Contains(s, key) {
			t.Errorf("Encode() output contains %s: %s", key, s)
		}
	}
	if !strings.Contains(s, `"zone_id": 42`) {
		t.Errorf("Encode() output missing zone_id: %s", s)
	}
}

func TestDecode_LegacyFormat(t *testing.T) {
	data := []byte(`[
		{"zone_id": 12345, "ipv6": "2001:db8::5"},
		{"type": "AAAA", "name": "host", "data": "2001:db8::5", "id": 3, "zoneID": 12345},
		{"type": "MX", "name": "mail", "data": "10 mx", "id": 4},
		{"something": "else"}
	]`)

	got, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}

	want := Snapshot{
		Zone: Zone{ID: 12345, IPv6: "2001:db8::5"},
		Records: []Record{
			{ID: 3, Type: provider.RecordTypeAAAA, Name: "host", Data: "2001:db8::5"},
		},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Decode() = %+v, want %+v", got, want)
	}
}

func TestDecode_Unreadable(t *testing.T) {
	inputs := []string{
		`{not json`,
		`{"zone_id": 1}`,
		`[{"zone_id": "abc"}]`,
	}
	for _, in := range inputs {
		if _, err := Decode([]byte(in)); !errors.Is(err, ErrUnreadable) {
			t.Errorf("Decode(%q) error = %v, want ErrUnreadable", in, err)
		}
	}
}

func TestSnapshot_Record(t *testing.T) {
	snap := Snapshot{Records: []Record{
		{ID: 1, Type: provider.RecordTypeAAAA, Name: "other", Data: "2001:db8::9"},
		{ID: 2, Type: provider.RecordTypeAAAA, Name: "home", Data: "2001:db8::1"},
		{ID: 3, Type: provider.RecordTypeA, Name: "home", Data: "203.0.113.5"},
	}}

	r, ok := snap.Record(provider.FamilyIPv6, "home")
	if !ok || r.ID != 2 {
		t.Errorf("Record(IPv6, home) = %+v, %v", r, ok)
	}
	r, ok = snap.Record(provider.FamilyIPv4, "home")
	if !ok || r.ID != 3 {
		t.Errorf("Record(IPv4, home) = %+v, %v", r, ok)
	}
	if _, ok := snap.Record(provider.FamilyIPv4, "other"); ok {
		t.Error("Record(IPv4, other) found a record of the wrong type")
	}
}

func TestZone_Address(t *testing.T) {
	var z Zone
	z.SetAddress(provider.FamilyIPv4, "203.0.113.5")
	z.SetAddress(provider.FamilyIPv6, "2001:db8::1")
	if z.Address(provider.FamilyIPv4) != "203.0.113.5" || z.Address(provider.FamilyIPv6) != "2001:db8::1" {
		t.Errorf("zone addresses = %+v", z)
	}
}
