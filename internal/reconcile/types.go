// Package reconcile implements the pure reconciliation engine: classifying
// incoming sync records against local state and producing an UpdatePlan
// (spec.md C4/C5). Nothing in this package touches a database directly;
// DupeFinder is the one seam where a caller must consult the local store.
package reconcile

import (
	"github.com/hyperengineering/loginsync/internal/logins"
)

// SyncLoginData is the per-record triple the reconciler classifies: the
// inbound payload is always present, mirror and local are each present at
// most once.
type SyncLoginData struct {
	GUID        string
	Inbound     logins.Payload
	InboundTime logins.ServerTimestamp
	Mirror      *logins.Login
	Local       *LocalLogin
}

// LocalLogin is an overlay row: a Login plus the bookkeeping fields needed
// for merge timing and tombstone detection.
type LocalLogin struct {
	Login         logins.Login
	LocalModified int64
	IsDeleted     bool
	SyncStatus    logins.SyncStatus
}

// IncomingChangeset is a batch of inbound payloads plus the batch's server
// timestamp.
type IncomingChangeset struct {
	Changes   []IncomingRecord
	Timestamp logins.ServerTimestamp
	// RequestID, when non-empty, is checked against the store's
	// sync-request ledger before the batch is applied, so a retried push
	// is recognized instead of reapplied. Optional: a caller that never
	// retries can leave it empty.
	RequestID string
}

// IncomingRecord pairs a single inbound payload with its per-record server
// timestamp.
type IncomingRecord struct {
	Payload         logins.Payload
	ServerTimestamp logins.ServerTimestamp
}

// OutgoingChangeset is the set of locally dirty rows to push to the server.
type OutgoingChangeset struct {
	Collection string
	Changes    []logins.Payload
}

// DupeFinder is satisfied by the local store: given an incoming record with
// no mirror and no local counterpart, find a content-equivalent overlay row
// if one exists (spec.md §4.5 dupe detection).
type DupeFinder interface {
	FindDupe(incoming logins.Login) (*LocalLogin, error)
}
