package reconciler

import (
	"fmt"
	"strings"
	"time"

	"gitlab.bluewillows.net/root/dynv6sync/pkg/provider"
)

// ActionType represents the type of reconciliation action.
type ActionType string

const (
	// ActionCreate indicates a record or zone will be/was created.
	ActionCreate ActionType = "create"
	// ActionUpdate indicates an address will be/was changed.
	ActionUpdate ActionType = "update"
	// ActionSkip indicates nothing needed to be written.
	ActionSkip ActionType = "skip"
)

// ActionStatus represents the outcome of an action.
type ActionStatus string

const (
	// StatusSuccess indicates the action completed successfully.
	StatusSuccess ActionStatus = "success"
	// StatusFailed indicates the action failed.
	StatusFailed ActionStatus = "failed"
	// StatusSkipped indicates the family was already in the desired state
	// or had no address.
	StatusSkipped ActionStatus = "skipped"
)

// Skip reasons.
const (
	ReasonUnchanged        = "unchanged"
	ReasonNoAddress        = "no address"
	ReasonListFailed       = "record lookup failed"
	ReasonZoneLookupFailed = "zone lookup failed"
)

// Target is what an action writes to.
type Target string

const (
	TargetRecord Target = "record"
	TargetApex   Target = "apex"
	TargetZone   Target = "zone"
)

// Action represents the outcome for one address family, or the creation
// of the zone itself.
type Action struct {
	// Type is the action type (create, update, skip).
	Type ActionType

	// Status is the outcome of the action.
	Status ActionStatus

	// Target is the kind of object written.
	Target Target

	// Family is the address family. Unset for zone actions.
	Family provider.Family

	// Name is the record prefix, or the zone name for zone actions.
	Name string

	// Address is the address written or planned.
	Address string

	// Previous is the address known before this run.
	Previous string

	// ID is the record or zone id at the provider, when known.
	ID int64

	// Reason explains a skip.
	Reason string

	// Error contains the error message if Status is StatusFailed.
	Error string

	// DryRun indicates this action was not actually executed.
	DryRun bool
}

// String returns a human-readable representation of the action.
func (a Action) String() string {
	status := string(a.Status)
	if a.DryRun && a.Status == StatusSuccess {
		status = "dry-run"
	}

	subject := fmt.Sprintf("%s %s %q", a.Target, a.Family, a.Name)
	if a.Target == TargetZone {
		subject = fmt.Sprintf("zone %q", a.Name)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "[%s] %s %s", status, a.Type, subject)
	if a.Address != "" {
		if a.Previous != "" && a.Previous != a.Address {
			fmt.Fprintf(&sb, " %s -> %s", a.Previous, a.Address)
		} else {
			fmt.Fprintf(&sb, " %s", a.Address)
		}
	}
	if a.Reason != "" {
		fmt.Fprintf(&sb, " (%s)", a.Reason)
	}
	if a.Error != "" {
		fmt.Fprintf(&sb, ": %s", a.Error)
	}
	return sb.String()
}

// Result holds the complete result of a reconciliation run.
type Result struct {
	// StartTime is when reconciliation started.
	StartTime time.Time

	// EndTime is when reconciliation completed.
	EndTime time.Time

	// ZoneID and ZoneName identify the zone reconciled.
	ZoneID   int64
	ZoneName string

	// Actions holds one entry per family, plus one for a zone creation.
	Actions []Action

	// Persisted is true when the snapshot was saved.
	Persisted bool

	// DryRun indicates if this was a dry-run (no changes applied).
	DryRun bool
}

// NewResult creates a new Result with the start time set to now.
func NewResult(dryRun bool) *Result {
	return &Result{
		StartTime: time.Now(),
		Actions:   make([]Action, 0, len(provider.Families)+1),
		DryRun:    dryRun,
	}
}

// Complete marks the result as complete with the end time set to now.
func (r *Result) Complete() {
	r.EndTime = time.Now()
}

// Duration returns the total reconciliation duration.
func (r *Result) Duration() time.Duration {
	if r.EndTime.IsZero() {
		return time.Since(r.StartTime)
	}
	return r.EndTime.Sub(r.StartTime)
}

// AddAction adds an action to the result.
func (r *Result) AddAction(action Action) {
	action.DryRun = r.DryRun
	r.Actions = append(r.Actions, action)
}

// Action returns the action recorded for a family.
func (r *Result) Action(f provider.Family) (Action, bool) {
	for _, a := range r.Actions {
		if a.Target != TargetZone && a.Family == f {
			return a, true
		}
	}
	return Action{}, false
}

// Created returns all successful create actions.
func (r *Result) Created() []Action {
	return r.filterActions(ActionCreate, StatusSuccess)
}

// Updated returns all successful update actions.
func (r *Result) Updated() []Action {
	return r.filterActions(ActionUpdate, StatusSuccess)
}

// Failed returns all failed actions.
func (r *Result) Failed() []Action {
	var failed []Action
	for _, a := range r.Actions {
		if a.Status == StatusFailed {
			failed = append(failed, a)
		}
	}
	return failed
}

// Skipped returns all skipped actions.
func (r *Result) Skipped() []Action {
	return r.filterActions(ActionSkip, StatusSkipped)
}

func (r *Result) filterActions(actionType ActionType, status ActionStatus) []Action {
	var filtered []Action
	for _, a := range r.Actions {
		if a.Type == actionType && a.Status == status {
			filtered = append(filtered, a)
		}
	}
	return filtered
}

// CreatedCount returns the number of records or zones created (or that
// would be in dry-run).
func (r *Result) CreatedCount() int {
	return len(r.Created())
}

// UpdatedCount returns the number of addresses changed.
func (r *Result) UpdatedCount() int {
	return len(r.Updated())
}

// FailedCount returns the number of failed actions.
func (r *Result) FailedCount() int {
	return len(r.Failed())
}

// HasErrors returns true if any actions failed.
func (r *Result) HasErrors() bool {
	return r.FailedCount() > 0
}

// Summary returns a human-readable summary of the reconciliation.
func (r *Result) Summary() string {
	var sb strings.Builder

	mode := "applied"
	if r.DryRun {
		mode = "dry-run"
	}

	fmt.Fprintf(&sb, "Reconciliation complete (%s) in %s\n", mode, r.Duration().Round(time.Millisecond))
	fmt.Fprintf(&sb, "  Zone: %s (%d)\n", r.ZoneName, r.ZoneID)
	fmt.Fprintf(&sb, "  Created: %d\n", r.CreatedCount())
	fmt.Fprintf(&sb, "  Updated: %d\n", r.UpdatedCount())
	fmt.Fprintf(&sb, "  Skipped: %d\n", len(r.Skipped()))

	if r.HasErrors() {
		fmt.Fprintf(&sb, "  Failed: %d\n", r.FailedCount())
		for _, a := range r.Failed() {
			fmt.Fprintf(&sb, "    - %s\n", a.String())
		}
	}

	return sb.String()
}

// ShortSummary returns a one-line summary for logs and health reports.
func (r *Result) ShortSummary() string {
	return fmt.Sprintf("%d created, %d updated, %d skipped, %d failed",
		r.CreatedCount(), r.UpdatedCount(), len(r.Skipped()), r.FailedCount())
}
