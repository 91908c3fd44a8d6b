package reconcile

import "github.com/hyperengineering/loginsync/internal/logins"

// ActionKind tags the variant of an Action.
type ActionKind int

const (
	// ActionDelete removes both overlay and mirror rows for a guid: the
	// incoming record was a tombstone.
	ActionDelete ActionKind = iota
	// ActionMirrorUpdate forwards an upstream record into the mirror
	// unchanged; no local edits are in play.
	ActionMirrorUpdate
	// ActionMirrorInsert inserts a brand-new mirror row for a record the
	// store has never seen, optionally already overridden.
	ActionMirrorInsert
	// ActionLocalUpdate is the result of a three-way merge that produced a
	// record different from upstream: the overlay is set to Changed and
	// the mirror is seeded with the upstream version as the new ancestor.
	ActionLocalUpdate
	// ActionTwoWayMerge resolves a record with no shared mirror ancestor
	// (a local-only row or a content dupe) against the incoming upstream
	// record, purely by timestamp.
	ActionTwoWayMerge
)

// Action is one tagged step of an UpdatePlan.
type Action struct {
	Kind ActionKind

	GUID string // ActionDelete

	// Upstream is written into the mirror as the new ancestor. It only
	// applies to the three action kinds that touch the mirror:
	// ActionMirrorUpdate, ActionMirrorInsert, and ActionLocalUpdate.
	// ActionTwoWayMerge has no shared ancestor to begin with, so it never
	// writes a mirror row (spec.md §4.6 lists no mirror write for it).
	Upstream      logins.Login
	UpstreamTime  logins.ServerTimestamp // all kinds but ActionDelete
	MirrorInserts bool                   // ActionMirrorInsert: overridden flag for the inserted mirror row

	LocalGUID string       // ActionTwoWayMerge: guid of the local/dupe row being merged into
	Merged    logins.Login // ActionLocalUpdate, ActionTwoWayMerge: the resulting overlay record
}

// UpdatePlan is an append-only list of actions to apply atomically.
type UpdatePlan struct {
	Actions []Action
}

func (p *UpdatePlan) planDelete(guid string) {
	p.Actions = append(p.Actions, Action{Kind: ActionDelete, GUID: guid})
}

func (p *UpdatePlan) planMirrorUpdate(upstream logins.Login, upstreamTime logins.ServerTimestamp) {
	p.Actions = append(p.Actions, Action{
		Kind: ActionMirrorUpdate, Upstream: upstream, UpstreamTime: upstreamTime,
	})
}

func (p *UpdatePlan) planMirrorInsert(upstream logins.Login, upstreamTime logins.ServerTimestamp, isOverride bool) {
	p.Actions = append(p.Actions, Action{
		Kind: ActionMirrorInsert, Upstream: upstream, UpstreamTime: upstreamTime, MirrorInserts: isOverride,
	})
}

// planLocalUpdate records a three-way merge that diverged from upstream:
// the overlay holds merged (still dirty), and upstream becomes the new
// mirror ancestor, shadowed by the overlay.
func (p *UpdatePlan) planLocalUpdate(merged, upstream logins.Login, upstreamTime logins.ServerTimestamp) {
	p.Actions = append(p.Actions, Action{
		Kind: ActionLocalUpdate, Merged: merged, Upstream: upstream, UpstreamTime: upstreamTime,
	})
}

// planTwoWayMerge records a merge with no shared mirror ancestor: the
// overlay at localGUID is set to merged and promoted to Changed. There was
// never a common ancestor, so unlike planLocalUpdate this writes no mirror
// row; one will exist naturally after this guid next syncs.
func (p *UpdatePlan) planTwoWayMerge(localGUID string, merged logins.Login, upstreamTime logins.ServerTimestamp) {
	p.Actions = append(p.Actions, Action{
		Kind: ActionTwoWayMerge, LocalGUID: localGUID, Merged: merged, UpstreamTime: upstreamTime,
	})
}
