package reconciler

import (
	"context"
	"fmt"
	"log/slog"
	"net/netip"

	"gitlab.bluewillows.net/root/dynv6sync/internal/state"
	"gitlab.bluewillows.net/root/dynv6sync/pkg/provider"
)

// zoneResolution is the outcome of resolving the zone for a run.
type zoneResolution struct {
	zone state.Zone

	// remote is the zone as just returned by the provider, when a lookup
	// or creation happened this run.
	remote *provider.Zone

	// pending is set in dry-run when the zone would have been created.
	pending bool
}

// zoneFromConfig merges the cached zone with the configured one. It makes
// no network calls.
func (r *Reconciler) zoneFromConfig(cached state.Zone) (state.Zone, error) {
	cfg := r.config

	if cached.ID != 0 && cfg.ZoneID != 0 && cached.ID != cfg.ZoneID {
		return state.Zone{}, fmt.Errorf("%w: cached zone id %d differs from configured zone id %d",
			ErrConfigurationConflict, cached.ID, cfg.ZoneID)
	}
	if cached.Name != "" && cfg.ZoneName != "" && cached.Name != cfg.ZoneName {
		return state.Zone{}, fmt.Errorf("%w: cached zone %q differs from configured zone %q",
			ErrConfigurationConflict, cached.Name, cfg.ZoneName)
	}

	zone := cached
	if zone.ID == 0 {
		zone.ID = cfg.ZoneID
	}
	if zone.Name == "" {
		zone.Name = cfg.ZoneName
	}

	if zone.ID == 0 && zone.Name == "" {
		return state.Zone{}, fmt.Errorf("%w: no zone configured or cached", ErrZoneNotFound)
	}

	return zone, nil
}

// resolveZone fills in the zone id by name when it is not already known,
// creating the zone if configured to.
func (r *Reconciler) resolveZone(
	ctx context.Context,
	zone state.Zone,
	current map[provider.Family]netip.Addr,
	result *Result,
) (zoneResolution, error) {
	if zone.ID != 0 {
		r.logger.Debug("using known zone id", slog.Int64("zone_id", zone.ID))
		return zoneResolution{zone: zone}, nil
	}

	found, err := r.client.FindZoneByName(ctx, zone.Name)
	switch {
	case err == nil:
		zone.ID = found.ID
		r.logger.Info("resolved zone",
			slog.String("zone", zone.Name),
			slog.Int64("zone_id", zone.ID),
		)
		return zoneResolution{zone: zone, remote: found}, nil

	case !provider.IsNotFound(err):
		return zoneResolution{}, fmt.Errorf("resolving zone %q: %w", zone.Name, providerFailed(err))

	case !r.config.CreateZone:
		return zoneResolution{}, fmt.Errorf("%w: %q", ErrZoneNotFound, zone.Name)
	}

	var addrs provider.ZoneAddresses
	for _, f := range provider.Families {
		if addr, ok := current[f]; ok && addr.IsValid() {
			addrs.Set(f, addr.String())
		}
	}

	action := Action{
		Type:    ActionCreate,
		Status:  StatusSuccess,
		Target:  TargetZone,
		Name:    zone.Name,
		Address: addrs.IPv6Prefix,
	}
	if action.Address == "" {
		action.Address = addrs.IPv4Address
	}

	if r.config.DryRun {
		r.logger.Info("dry-run: would create zone", slog.String("zone", zone.Name))
		result.AddAction(action)
		return zoneResolution{zone: zone, pending: true}, nil
	}

	created, err := r.client.CreateZone(ctx, zone.Name, addrs)
	if err != nil {
		return zoneResolution{}, fmt.Errorf("creating zone %q: %w", zone.Name, providerFailed(err))
	}

	zone.ID = created.ID
	zone.IPv4 = created.IPv4Address
	zone.IPv6 = created.IPv6Prefix
	action.ID = created.ID
	result.AddAction(action)

	r.logger.Info("created zone",
		slog.String("zone", zone.Name),
		slog.Int64("zone_id", zone.ID),
	)

	return zoneResolution{zone: zone, remote: created}, nil
}
