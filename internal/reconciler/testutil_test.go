package reconciler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/netip"
	"sync"

	"gitlab.bluewillows.net/root/dynv6sync/internal/state"
	"gitlab.bluewillows.net/root/dynv6sync/pkg/address"
	"gitlab.bluewillows.net/root/dynv6sync/pkg/provider"
)

// =============================================================================
// Mock provider
// =============================================================================

// testMockProvider implements provider.Client in memory and records every
// call for verification.
type testMockProvider struct {
	mu sync.Mutex

	zones   []provider.Zone
	records map[int64][]provider.Record
	nextID  int64

	calls []string

	findErr   error
	getErr    error
	listErr   error
	createErr error
	updateErr error

	// echoID overrides the id returned by UpdateRecord/UpdateZone.
	echoID int64
}

func newTestMockProvider() *testMockProvider {
	return &testMockProvider{
		records: make(map[int64][]provider.Record),
		nextID:  1000,
	}
}

func (m *testMockProvider) addZone(z provider.Zone) {
	m.zones = append(m.zones, z)
}

func (m *testMockProvider) addRecord(zoneID int64, rec provider.Record) {
	m.records[zoneID] = append(m.records[zoneID], rec)
}

func (m *testMockProvider) record(zoneID, id int64) (provider.Record, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.records[zoneID] {
		if r.ID == id {
			return r, true
		}
	}
	return provider.Record{}, false
}

func (m *testMockProvider) zone(id int64) (provider.Zone, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, z := range m.zones {
		if z.ID == id {
			return z, true
		}
	}
	return provider.Zone{}, false
}

func (m *testMockProvider) callLog() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

func (m *testMockProvider) writeCalls() int {
	n := 0
	for _, c := range m.callLog() {
		switch c {
		case "CreateZone", "UpdateZone", "CreateRecord", "UpdateRecord":
			n++
		}
	}
	return n
}

func (m *testMockProvider) countCalls(name string) int {
	n := 0
	for _, c := range m.callLog() {
		if c == name {
			n++
		}
	}
	return n
}

func (m *testMockProvider) Name() string { return "mock" }

func (m *testMockProvider) FindZoneByName(_ context.Context, name string) (*provider.Zone, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, "FindZoneByName")
	if m.findErr != nil {
		return nil, m.findErr
	}
	for _, z := range m.zones {
		if z.Name == name {
			z := z
			return &z, nil
		}
	}
	return nil, provider.WrapError("mock", "find zone", provider.ErrNotFound)
}

func (m *testMockProvider) GetZone(_ context.Context, zoneID int64) (*provider.Zone, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, "GetZone")
	if m.getErr != nil {
		return nil, m.getErr
	}
	for _, z := range m.zones {
		if z.ID == zoneID {
			z := z
			return &z, nil
		}
	}
	return nil, provider.WrapError("mock", "get zone", provider.ErrNotFound)
}

func (m *testMockProvider) CreateZone(_ context.Context, name string, addrs provider.ZoneAddresses) (*provider.Zone, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, "CreateZone")
	if m.createErr != nil {
		return nil, m.createErr
	}
	m.nextID++
	z := provider.Zone{ID: m.nextID, Name: name, IPv4Address: addrs.IPv4Address, IPv6Prefix: addrs.IPv6Prefix}
	m.zones = append(m.zones, z)
	return &z, nil
}

func (m *testMockProvider) UpdateZone(_ context.Context, zoneID int64, addrs provider.ZoneAddresses) (*provider.Zone, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, "UpdateZone")
	if m.updateErr != nil {
		return nil, m.updateErr
	}
	for i, z := range m.zones {
		if z.ID != zoneID {
			continue
		}
		if addrs.IPv4Address != "" {
			z.IPv4Address = addrs.IPv4Address
		}
		if addrs.IPv6Prefix != "" {
			z.IPv6Prefix = addrs.IPv6Prefix
		}
		m.zones[i] = z
		if m.echoID != 0 {
			z.ID = m.echoID
		}
		return &z, nil
	}
	return nil, provider.WrapError("mock", "update zone", provider.ErrNotFound)
}

func (m *testMockProvider) ListRecords(_ context.Context, zoneID int64) ([]provider.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, "ListRecords")
	if m.listErr != nil {
		return nil, m.listErr
	}
	return append([]provider.Record(nil), m.records[zoneID]...), nil
}

func (m *testMockProvider) CreateRecord(_ context.Context, zoneID int64, rec provider.Record) (*provider.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, "CreateRecord")
	if m.createErr != nil {
		return nil, m.createErr
	}
	m.nextID++
	rec.ID = m.nextID
	m.records[zoneID] = append(m.records[zoneID], rec)
	return &rec, nil
}

func (m *testMockProvider) UpdateRecord(_ context.Context, zoneID, recordID int64, rec provider.Record) (*provider.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, "UpdateRecord")
	if m.updateErr != nil {
		return nil, m.updateErr
	}
	for i, r := range m.records[zoneID] {
		if r.ID != recordID {
			continue
		}
		rec.ID = recordID
		m.records[zoneID][i] = rec
		if m.echoID != 0 {
			rec.ID = m.echoID
		}
		return &rec, nil
	}
	return nil, provider.WrapError("mock", "update record", provider.ErrNotFound)
}

// =============================================================================
// Mock address source and store
// =============================================================================

type testSource struct {
	family provider.Family
	addr   netip.Addr
	err    error
}

func (s *testSource) Family() provider.Family { return s.family }

func (s *testSource) Lookup(context.Context) (netip.Addr, error) {
	if s.err != nil {
		return netip.Addr{}, s.err
	}
	return s.addr, nil
}

func v6Source(addr string) *testSource {
	return &testSource{family: provider.FamilyIPv6, addr: netip.MustParseAddr(addr)}
}

func v4Source(addr string) *testSource {
	return &testSource{family: provider.FamilyIPv4, addr: netip.MustParseAddr(addr)}
}

func unavailable(f provider.Family) *testSource {
	return &testSource{family: f, err: address.ErrUnavailable}
}

// memoryStore implements SnapshotStore in memory.
type memoryStore struct {
	snap    state.Snapshot
	saves   int
	saveErr error
}

func (s *memoryStore) Load(context.Context) state.Snapshot {
	return s.snap
}

func (s *memoryStore) Save(_ context.Context, snap state.Snapshot) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.saves++
	s.snap = snap
	return nil
}

var errBoom = errors.New("boom")

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestReconciler(client provider.Client, store SnapshotStore, cfg Config, sources ...address.Source) *Reconciler {
	return New(client, store, sources, WithConfig(cfg), WithLogger(discardLogger()))
}

func netipMust(s string) netip.Addr {
	return netip.MustParseAddr(s)
}
