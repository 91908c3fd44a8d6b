package store

import "fmt"

// recordSyncRequest inserts id into the sync-request ledger, reporting
// whether it was newly recorded. A false result means id was already
// present: a retried push the store has already applied. The ledger is
// keyed by the caller-supplied RequestID (an oklog/ulid/v2 value in
// cmd/logins), not by any field of the changeset itself, so a byte-identical
// retry of the same push is recognized even if its contents alone would not
// be distinguishable from a legitimately repeated edit.
func (l *LoginDB) recordSyncRequest(id string, appliedAt int64) (bool, error) {
	res, err := l.db.Exec(
		`INSERT OR IGNORE INTO loginsSyncRequests (id, applied_at) VALUES (?, ?)`,
		id, appliedAt,
	)
	if err != nil {
		return false, fmt.Errorf("record sync request: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("record sync request: %w", err)
	}
	return n > 0, nil
}
