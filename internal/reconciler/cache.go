package reconciler

import (
	"context"
	"log/slog"

	"gitlab.bluewillows.net/root/dynv6sync/pkg/provider"
)

// remoteCache memoizes the read-only provider calls made during one run so
// that ListRecords and GetZone are issued at most once.
type remoteCache struct {
	client provider.Client
	zoneID int64
	logger *slog.Logger

	zone    *provider.Zone
	zoneErr error

	records    []provider.Record
	recordsErr error
	listed     bool
}

func newRemoteCache(client provider.Client, zoneID int64, logger *slog.Logger) *remoteCache {
	return &remoteCache{
		client: client,
		zoneID: zoneID,
		logger: logger,
	}
}

// seedZone stores a zone already fetched during resolution.
func (c *remoteCache) seedZone(zone *provider.Zone) {
	if zone != nil {
		c.zone = zone
	}
}

// getZone returns the zone as reported by the provider.
func (c *remoteCache) getZone(ctx context.Context) (*provider.Zone, error) {
	if c.zone != nil || c.zoneErr != nil {
		return c.zone, c.zoneErr
	}

	c.zone, c.zoneErr = c.client.GetZone(ctx, c.zoneID)
	if c.zoneErr != nil {
		c.logger.Warn("failed to fetch zone",
			slog.Int64("zone_id", c.zoneID),
			slog.String("error", c.zoneErr.Error()),
		)
	}
	return c.zone, c.zoneErr
}

// findRecord returns the first record in provider order with the given
// name and type.
func (c *remoteCache) findRecord(ctx context.Context, name string, t provider.RecordType) (provider.Record, bool, error) {
	if !c.listed {
		c.listed = true
		c.records, c.recordsErr = c.client.ListRecords(ctx, c.zoneID)
		if c.recordsErr != nil {
			c.logger.Warn("failed to list records",
				slog.Int64("zone_id", c.zoneID),
				slog.String("error", c.recordsErr.Error()),
			)
		} else {
			c.logger.Debug("listed records",
				slog.Int64("zone_id", c.zoneID),
				slog.Int("count", len(c.records)),
			)
		}
	}

	if c.recordsErr != nil {
		return provider.Record{}, false, c.recordsErr
	}

	r, ok := provider.FindRecord(c.records, name, t)
	return r, ok, nil
}
