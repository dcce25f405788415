// Package reconciler keeps a dynv6 zone, or one A/AAAA record pair inside
// it, in sync with the host's current addresses.
package reconciler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/netip"

	"gitlab.bluewillows.net/root/dynv6sync/internal/metrics"
	"gitlab.bluewillows.net/root/dynv6sync/internal/state"
	"gitlab.bluewillows.net/root/dynv6sync/pkg/address"
	"gitlab.bluewillows.net/root/dynv6sync/pkg/provider"
)

// Config holds reconciler configuration options.
type Config struct {
	// ZoneName is the zone's domain name, e.g. "example.dynv6.net".
	ZoneName string

	// ZoneID is the provider's numeric zone id. Takes precedence over
	// ZoneName for lookups.
	ZoneID int64

	// Prefix is the record name inside the zone ("home" for
	// home.example.dynv6.net).
	Prefix string

	// Apex updates the zone's own addresses instead of a record.
	Apex bool

	// CreateZone creates the zone when ZoneName is not found.
	CreateZone bool

	// DryRun if true, logs changes without applying them.
	DryRun bool
}

// Validate checks the configuration for contradictions.
func (c Config) Validate() error {
	if c.Apex && c.Prefix != "" {
		return fmt.Errorf("%w: apex mode does not take a prefix", ErrConfigurationConflict)
	}
	if !c.Apex && c.Prefix == "" {
		return fmt.Errorf("%w: a record prefix is required unless apex mode is enabled", ErrConfigurationConflict)
	}
	if c.ZoneID < 0 {
		return fmt.Errorf("%w: zone id must be positive", ErrConfigurationConflict)
	}
	return nil
}

// SnapshotStore loads and saves the state carried between runs.
type SnapshotStore interface {
	Load(ctx context.Context) state.Snapshot
	Save(ctx context.Context, snap state.Snapshot) error
}

// Reconciler coordinates one provider, one snapshot store and up to one
// address source per family.
//
// Each run:
//  1. Loads the snapshot
//  2. Discovers the current address for each family
//  3. Resolves the zone when it is not cached
//  4. Decides per family: nothing, create, unchanged or update
//  5. Issues at most one write per family
//  6. Persists the new snapshot once
type Reconciler struct {
	client  provider.Client
	store   SnapshotStore
	sources map[provider.Family]address.Source
	config  Config
	logger  *slog.Logger
}

// Option is a functional option for configuring the Reconciler.
type Option func(*Reconciler)

// WithLogger sets a custom logger for the reconciler.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Reconciler) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithConfig sets the reconciler configuration.
func WithConfig(cfg Config) Option {
	return func(r *Reconciler) {
		r.config = cfg
	}
}

// New creates a Reconciler. Nil sources are ignored; a later source for
// the same family replaces an earlier one.
func New(client provider.Client, store SnapshotStore, sources []address.Source, opts ...Option) *Reconciler {
	r := &Reconciler{
		client:  client,
		store:   store,
		sources: make(map[provider.Family]address.Source, len(sources)),
		logger:  slog.Default(),
	}

	for _, src := range sources {
		if src != nil {
			r.sources[src.Family()] = src
		}
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Reconcile performs one run.
//
// A non-nil error means the run aborted (configuration conflict, zone
// not found, zone lookup failure) and nothing was persisted, or that the
// final snapshot could not be saved. Per-family failures do not abort the
// run; they are reported as failed actions in the Result. A failed
// FindZoneByName or CreateZone call is not counted per family: it aborts
// the run with ErrProviderCallFailed and the snapshot is left untouched.
func (r *Reconciler) Reconcile(ctx context.Context) (*Result, error) {
	result := NewResult(r.config.DryRun)

	err := r.reconcile(ctx, result)
	result.Complete()
	r.recordMetrics(result, err)

	if err != nil {
		r.logger.Error("reconciliation aborted",
			slog.String("error", err.Error()),
			slog.Duration("duration", result.Duration()),
		)
		return result, err
	}

	r.logger.Info("reconciliation complete",
		slog.Int64("zone_id", result.ZoneID),
		slog.Int("created", result.CreatedCount()),
		slog.Int("updated", result.UpdatedCount()),
		slog.Int("failed", result.FailedCount()),
		slog.Int("skipped", len(result.Skipped())),
		slog.Bool("dry_run", result.DryRun),
		slog.Duration("duration", result.Duration()),
	)

	return result, nil
}

func (r *Reconciler) reconcile(ctx context.Context, result *Result) error {
	if err := r.config.Validate(); err != nil {
		return err
	}

	r.logger.Debug("starting reconciliation",
		slog.String("zone", r.config.ZoneName),
		slog.Int64("zone_id", r.config.ZoneID),
		slog.String("prefix", r.config.Prefix),
		slog.Bool("apex", r.config.Apex),
		slog.Bool("dry_run", r.config.DryRun),
	)

	// Step 1: Load snapshot and check it against configuration
	snap := r.store.Load(ctx)

	zone, err := r.zoneFromConfig(snap.Zone)
	if err != nil {
		return err
	}

	// Step 2: Discover current addresses
	current := r.discover(ctx)

	// Step 3: Resolve zone id if not cached
	res, err := r.resolveZone(ctx, zone, current, result)
	if err != nil {
		return err
	}
	result.ZoneID = res.zone.ID
	result.ZoneName = res.zone.Name

	if res.pending {
		// Dry-run with a zone that would be created: nothing else to plan.
		return nil
	}

	// Step 4: Plan per family
	remote := newRemoteCache(r.client, res.zone.ID, r.logger)
	remote.seedZone(res.remote)

	plans := make([]plan, 0, len(provider.Families))
	for _, f := range provider.Families {
		plans = append(plans, r.planFamily(ctx, f, current[f], snap, res.zone, remote))
	}

	// Step 5: Apply
	next := state.Snapshot{Zone: res.zone}
	for _, p := range plans {
		action, rec := r.apply(ctx, p, &next.Zone)
		result.AddAction(action)
		if rec != nil {
			next.Records = append(next.Records, *rec)
		}
	}

	// Step 6: Persist
	if r.config.DryRun {
		r.logger.Info("dry-run: snapshot not persisted")
		return nil
	}

	if err := r.store.Save(ctx, next); err != nil {
		return fmt.Errorf("persisting snapshot: %w", err)
	}
	result.Persisted = true

	return nil
}

// discover asks each configured source for its family's address. Failures
// leave the family absent for this run.
func (r *Reconciler) discover(ctx context.Context) map[provider.Family]netip.Addr {
	current := make(map[provider.Family]netip.Addr, len(provider.Families))

	for _, f := range provider.Families {
		src, ok := r.sources[f]
		if !ok {
			r.logger.Debug("no address source configured", slog.String("family", f.String()))
			metrics.SetCurrentAddress(f.String(), "")
			continue
		}

		addr, err := src.Lookup(ctx)
		if err != nil || !f.Matches(addr) {
			level := slog.LevelWarn
			if errors.Is(err, address.ErrUnavailable) {
				level = slog.LevelDebug
			}
			msg := "address source returned wrong family"
			if err != nil {
				msg = err.Error()
			}
			r.logger.Log(ctx, level, "address not available, family not updated this run",
				slog.String("family", f.String()),
				slog.String("error", msg),
			)
			metrics.SetCurrentAddress(f.String(), "")
			continue
		}

		r.logger.Debug("discovered address",
			slog.String("family", f.String()),
			slog.String("address", addr.String()),
		)
		metrics.SetCurrentAddress(f.String(), addr.String())
		current[f] = addr
	}

	return current
}

// recordMetrics records Prometheus metrics from a reconciliation result.
func (r *Reconciler) recordMetrics(result *Result, runErr error) {
	status := "success"
	switch {
	case runErr != nil:
		status = "error"
	case result.HasErrors():
		status = "partial"
	}
	metrics.RunsTotal.WithLabelValues(status).Inc()
	metrics.RunDuration.Observe(result.Duration().Seconds())

	if status == "success" {
		metrics.LastSuccessTimestamp.Set(float64(result.EndTime.Unix()))
	}

	for _, a := range result.Actions {
		family := a.Family.String()
		if a.Target == TargetZone {
			family = "zone"
		}
		metrics.RecordActionsTotal.WithLabelValues(family, string(a.Type), string(a.Status)).Inc()
	}
}

// providerFailed counts a failed provider call and wraps it.
func providerFailed(err error) error {
	op := "unknown"
	var pe *provider.ProviderError
	if errors.As(err, &pe) {
		op = pe.Operation
	}
	metrics.ProviderErrorsTotal.WithLabelValues(op).Inc()
	return fmt.Errorf("%w: %w", ErrProviderCallFailed, err)
}

// sameAddress compares a cached address string with a discovered address.
func sameAddress(cached string, current netip.Addr) bool {
	if cached == "" {
		return false
	}
	if addr, err := netip.ParseAddr(cached); err == nil {
		return addr.Unmap() == current.Unmap()
	}
	return cached == current.String()
}
