package reconciler

import (
	"context"
	"fmt"
	"log/slog"

	"gitlab.bluewillows.net/root/dynv6sync/internal/state"
	"gitlab.bluewillows.net/root/dynv6sync/pkg/provider"
)

// apply executes a plan and returns the action taken and the record to
// persist for the family, if any. In apex mode zone is updated in place
// and no record is returned.
func (r *Reconciler) apply(ctx context.Context, p plan, zone *state.Zone) (Action, *state.Record) {
	action := Action{
		Type:     ActionSkip,
		Status:   StatusSkipped,
		Target:   TargetRecord,
		Family:   p.family,
		Name:     r.config.Prefix,
		Previous: p.previous,
		ID:       p.known.ID,
	}
	if p.current.IsValid() {
		action.Address = p.current.String()
	}

	if r.config.Apex {
		action.Target = TargetApex
		action.ID = p.zoneID
		return r.applyApex(ctx, p, zone, action), nil
	}

	carried := func() *state.Record {
		if !p.hasKnown {
			return nil
		}
		rec := p.known
		return &rec
	}

	switch p.decision {
	case DecisionNoOp:
		action.Reason = ReasonNoAddress
		return action, carried()

	case DecisionFailed:
		action.Status = StatusFailed
		action.Reason = ReasonListFailed
		action.Error = p.err.Error()
		return action, carried()

	case DecisionUnchanged:
		action.Reason = ReasonUnchanged
		return action, carried()

	case DecisionCreate:
		action.Type = ActionCreate
		return r.createRecord(ctx, p, action)

	default:
		action.Type = ActionUpdate
		return r.updateRecord(ctx, p, action)
	}
}

func (r *Reconciler) createRecord(ctx context.Context, p plan, action Action) (Action, *state.Record) {
	want := provider.Record{
		Type: p.family.RecordType(),
		Name: r.config.Prefix,
		Data: p.current.String(),
	}

	if r.config.DryRun {
		r.logger.Info("dry-run: would create record",
			slog.String("family", p.family.String()),
			slog.String("name", want.Name),
			slog.String("address", want.Data),
		)
		action.Status = StatusSuccess
		return action, nil
	}

	created, err := r.client.CreateRecord(ctx, p.zoneID, want)
	if err != nil {
		err = providerFailed(err)
		r.logger.Error("failed to create record",
			slog.String("family", p.family.String()),
			slog.String("name", want.Name),
			slog.String("error", err.Error()),
		)
		action.Status = StatusFailed
		action.Error = err.Error()
		return action, nil
	}

	r.logger.Info("created record",
		slog.String("family", p.family.String()),
		slog.String("name", want.Name),
		slog.String("address", want.Data),
		slog.Int64("record_id", created.ID),
	)

	action.Status = StatusSuccess
	action.ID = created.ID
	return action, &state.Record{ID: created.ID, Type: want.Type, Name: want.Name, Data: want.Data}
}

func (r *Reconciler) updateRecord(ctx context.Context, p plan, action Action) (Action, *state.Record) {
	previous := p.known
	want := provider.Record{
		Type: p.family.RecordType(),
		Name: r.config.Prefix,
		Data: p.current.String(),
	}

	if r.config.DryRun {
		r.logger.Info("dry-run: would update record",
			slog.String("family", p.family.String()),
			slog.String("name", want.Name),
			slog.String("from", p.previous),
			slog.String("to", want.Data),
		)
		action.Status = StatusSuccess
		return action, &previous
	}

	updated, err := r.client.UpdateRecord(ctx, p.zoneID, previous.ID, want)
	if err == nil && updated.ID != previous.ID {
		err = fmt.Errorf("%w: updated record %d but provider returned id %d",
			ErrProviderInconsistency, previous.ID, updated.ID)
	} else if err != nil {
		err = providerFailed(err)
	}
	if err != nil {
		r.logger.Error("failed to update record",
			slog.String("family", p.family.String()),
			slog.String("name", want.Name),
			slog.Int64("record_id", previous.ID),
			slog.String("error", err.Error()),
		)
		action.Status = StatusFailed
		action.Error = err.Error()
		return action, &previous
	}

	r.logger.Info("updated record",
		slog.String("family", p.family.String()),
		slog.String("name", want.Name),
		slog.String("from", p.previous),
		slog.String("to", want.Data),
		slog.Int64("record_id", previous.ID),
	)

	action.Status = StatusSuccess
	return action, &state.Record{ID: previous.ID, Type: want.Type, Name: want.Name, Data: want.Data}
}

func (r *Reconciler) applyApex(ctx context.Context, p plan, zone *state.Zone, action Action) Action {
	switch p.decision {
	case DecisionNoOp:
		action.Reason = ReasonNoAddress
		return action

	case DecisionFailed:
		action.Status = StatusFailed
		action.Reason = ReasonZoneLookupFailed
		action.Error = p.err.Error()
		return action

	case DecisionUnchanged:
		action.Reason = ReasonUnchanged
		zone.SetAddress(p.family, p.previous)
		return action
	}

	action.Type = ActionUpdate
	addr := p.current.String()

	if r.config.DryRun {
		r.logger.Info("dry-run: would update zone apex",
			slog.String("family", p.family.String()),
			slog.Int64("zone_id", p.zoneID),
			slog.String("from", p.previous),
			slog.String("to", addr),
		)
		action.Status = StatusSuccess
		return action
	}

	var addrs provider.ZoneAddresses
	addrs.Set(p.family, addr)

	updated, err := r.client.UpdateZone(ctx, p.zoneID, addrs)
	if err == nil && updated.ID != p.zoneID {
		err = fmt.Errorf("%w: updated zone %d but provider returned id %d",
			ErrProviderInconsistency, p.zoneID, updated.ID)
	} else if err != nil {
		err = providerFailed(err)
	}
	if err != nil {
		r.logger.Error("failed to update zone apex",
			slog.String("family", p.family.String()),
			slog.Int64("zone_id", p.zoneID),
			slog.String("error", err.Error()),
		)
		action.Status = StatusFailed
		action.Error = err.Error()
		return action
	}

	r.logger.Info("updated zone apex",
		slog.String("family", p.family.String()),
		slog.Int64("zone_id", p.zoneID),
		slog.String("from", p.previous),
		slog.String("to", addr),
	)

	zone.SetAddress(p.family, addr)
	action.Status = StatusSuccess
	return action
}
