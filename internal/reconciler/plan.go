package reconciler

import (
	"context"
	"log/slog"
	"net/netip"

	"gitlab.bluewillows.net/root/dynv6sync/internal/state"
	"gitlab.bluewillows.net/root/dynv6sync/pkg/provider"
)

// Decision is what a family needs this run.
type Decision int

const (
	// DecisionNoOp: no current address, nothing to do.
	DecisionNoOp Decision = iota
	// DecisionCreate: no record known, create one.
	DecisionCreate
	// DecisionUnchanged: the known address already matches.
	DecisionUnchanged
	// DecisionUpdate: the known address differs.
	DecisionUpdate
	// DecisionFailed: the provider could not be asked what exists, so the
	// family is left alone.
	DecisionFailed
)

// String returns the decision name.
func (d Decision) String() string {
	switch d {
	case DecisionNoOp:
		return "noop"
	case DecisionCreate:
		return "create"
	case DecisionUnchanged:
		return "unchanged"
	case DecisionUpdate:
		return "update"
	case DecisionFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// plan is the decision for one family together with everything apply needs.
type plan struct {
	family   provider.Family
	decision Decision
	current  netip.Addr
	zoneID   int64

	// known is the record believed to exist, from the snapshot or adopted
	// from the provider. Unused in apex mode.
	known    state.Record
	hasKnown bool

	// previous is the address known before this run.
	previous string

	err error
}

// planFamily decides what to do for one family.
func (r *Reconciler) planFamily(
	ctx context.Context,
	f provider.Family,
	current netip.Addr,
	snap state.Snapshot,
	zone state.Zone,
	remote *remoteCache,
) plan {
	if r.config.Apex {
		return r.planApex(ctx, f, current, zone, remote)
	}
	return r.planRecord(ctx, f, current, snap, zone, remote)
}

func (r *Reconciler) planRecord(
	ctx context.Context,
	f provider.Family,
	current netip.Addr,
	snap state.Snapshot,
	zone state.Zone,
	remote *remoteCache,
) plan {
	p := plan{family: f, current: current, zoneID: zone.ID}
	p.known, p.hasKnown = snap.Record(f, r.config.Prefix)
	p.previous = p.known.Data

	if !current.IsValid() {
		p.decision = DecisionNoOp
		return p
	}

	if !p.hasKnown || p.known.ID == 0 {
		rec, ok, err := remote.findRecord(ctx, r.config.Prefix, f.RecordType())
		if err != nil {
			p.decision = DecisionFailed
			p.err = providerFailed(err)
			return p
		}
		if !ok {
			p.decision = DecisionCreate
			r.logPlan(p)
			return p
		}

		r.logger.Info("adopting existing record",
			slog.String("family", f.String()),
			slog.String("name", rec.Name),
			slog.Int64("record_id", rec.ID),
		)
		p.known = state.Record{ID: rec.ID, Type: rec.Type, Name: rec.Name, Data: rec.Data}
		p.hasKnown = true
		p.previous = rec.Data
	}

	if sameAddress(p.known.Data, current) {
		p.decision = DecisionUnchanged
	} else {
		p.decision = DecisionUpdate
	}
	r.logPlan(p)
	return p
}

func (r *Reconciler) planApex(
	ctx context.Context,
	f provider.Family,
	current netip.Addr,
	zone state.Zone,
	remote *remoteCache,
) plan {
	p := plan{family: f, current: current, zoneID: zone.ID}
	p.previous = zone.Address(f)

	if !current.IsValid() {
		p.decision = DecisionNoOp
		return p
	}

	if p.previous == "" {
		z, err := remote.getZone(ctx)
		if err != nil {
			p.decision = DecisionFailed
			p.err = providerFailed(err)
			return p
		}
		p.previous = z.Address(f)
	}

	if sameAddress(p.previous, current) {
		p.decision = DecisionUnchanged
	} else {
		p.decision = DecisionUpdate
	}
	r.logPlan(p)
	return p
}

func (r *Reconciler) logPlan(p plan) {
	r.logger.Debug("planned family",
		slog.String("family", p.family.String()),
		slog.String("decision", p.decision.String()),
		slog.String("previous", p.previous),
		slog.String("current", p.current.String()),
	)
}
