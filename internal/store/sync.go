package store

import (
	"fmt"
	"log/slog"
	"strconv"

	"github.com/hyperengineering/loginsync/internal/logins"
	"github.com/hyperengineering/loginsync/internal/reconcile"
)

// ApplyIncoming implements the Store contract's primary entry point:
// fetch-and-group (C4), reconcile (C5), and plan execution (C6), all
// before returning the currently dirty overlay rows as an
// OutgoingChangeset. The three steps plus the final write are sequential;
// the write itself is one transaction, so observers see the batch
// atomically.
func (l *LoginDB) ApplyIncoming(inbound reconcile.IncomingChangeset) (reconcile.OutgoingChangeset, error) {
	applied := false
	if inbound.RequestID != "" {
		fresh, err := l.recordSyncRequest(inbound.RequestID, nowMillis())
		if err != nil {
			return reconcile.OutgoingChangeset{}, fmt.Errorf("apply incoming: %w", err)
		}
		if !fresh {
			slog.Warn("apply incoming: duplicate sync request, skipping", "request_id", inbound.RequestID)
			return reconcile.OutgoingChangeset{}, fmt.Errorf("%w: %s", ErrDuplicateSyncRequest, inbound.RequestID)
		}
		// Only a batch that was actually applied keeps its ledger entry, so
		// a push that failed below can be retried with the same RequestID.
		defer func() {
			if !applied {
				if _, err := l.db.Exec(`DELETE FROM loginsSyncRequests WHERE id = ?`, inbound.RequestID); err != nil {
					slog.Warn("apply incoming: could not release sync request", "request_id", inbound.RequestID, "error", err)
				}
			}
		}()
	}

	records, err := l.fetchAndGroup(inbound.Changes)
	if err != nil {
		return reconcile.OutgoingChangeset{}, fmt.Errorf("apply incoming: %w", err)
	}

	plan, err := reconcile.Reconcile(records, inbound.Timestamp, l)
	if err != nil {
		return reconcile.OutgoingChangeset{}, fmt.Errorf("apply incoming: reconcile: %w", err)
	}

	if err := l.ExecutePlan(plan); err != nil {
		return reconcile.OutgoingChangeset{}, fmt.Errorf("apply incoming: %w", err)
	}
	applied = true

	return l.FetchOutgoing()
}

// SyncFinished is called by the sync client after it has successfully
// uploaded an OutgoingChangeset: it promotes the synced overlay rows into
// the mirror and records the new last_sync timestamp. This runs as a
// separate transaction from ApplyIncoming; if the process crashes between
// the two, the next sync simply re-fetches and re-reconciles (§5).
func (l *LoginDB) SyncFinished(newTimestamp logins.ServerTimestamp, recordsSynced []string) error {
	if err := l.markAsSynchronized(recordsSynced, newTimestamp); err != nil {
		return fmt.Errorf("sync finished: %w", err)
	}
	return nil
}

// FetchOutgoing returns every overlay row not yet Synced, as Payloads:
// tombstones for is_deleted rows, full records otherwise.
func (l *LoginDB) FetchOutgoing() (reconcile.OutgoingChangeset, error) {
	cols := sqlT().commonColsSQL
	rows, err := l.db.Query(`
		SELECT `+cols+`, is_deleted FROM loginsL
		WHERE sync_status != ?`, int(logins.StatusSynced))
	if err != nil {
		return reconcile.OutgoingChangeset{}, fmt.Errorf("fetch outgoing: %w", err)
	}
	defer rows.Close()

	changes := make([]logins.Payload, 0)
	for rows.Next() {
		login, isDeleted, err := scanLoginWithDeleted(rows)
		if err != nil {
			return reconcile.OutgoingChangeset{}, fmt.Errorf("fetch outgoing: scan: %w", err)
		}
		if isDeleted {
			changes = append(changes, logins.NewTombstonePayload(login.ID))
		} else {
			changes = append(changes, logins.NewPayload(login))
		}
	}
	if err := rows.Err(); err != nil {
		return reconcile.OutgoingChangeset{}, fmt.Errorf("fetch outgoing: %w", err)
	}

	return reconcile.OutgoingChangeset{Collection: outgoingCollectionName, Changes: changes}, nil
}

// outgoingCollectionName matches the collection name the wider sync
// client uses to route these changesets; spec.md §6 fixes it to
// "passwords".
const outgoingCollectionName = "passwords"

// markAsSynchronizedChunkMargin mirrors fetchChunkMargin: headroom below
// maxVarCount for the handful of parameters a mark-as-synchronized chunk
// needs beyond the guid list itself.
const markAsSynchronizedChunkMargin = 4

// markAsSynchronized implements the C6 promotion step: delete mirror rows
// for guids, copy non-deleted overlay rows for guids into the mirror,
// delete those overlay rows, then persist last_sync. Each guid-list DML
// is chunked by maxVarCount.
func (l *LoginDB) markAsSynchronized(guids []string, ts logins.ServerTimestamp) error {
	tx, err := l.db.Begin()
	if err != nil {
		return fmt.Errorf("mark as synchronized: begin: %w", err)
	}
	defer tx.Rollback()

	chunkSize := l.maxVarCount - markAsSynchronizedChunkMargin
	if chunkSize < 1 {
		chunkSize = 1
	}

	cols := sqlT().commonColsSQL
	for start := 0; start < len(guids); start += chunkSize {
		end := start + chunkSize
		if end > len(guids) {
			end = len(guids)
		}
		chunk := guids[start:end]
		placeholdersSQL := placeholders(len(chunk))
		args := make([]any, len(chunk))
		for i, g := range chunk {
			args[i] = g
		}

		if _, err := tx.Exec(`DELETE FROM loginsM WHERE guid IN (`+placeholdersSQL+`)`, args...); err != nil {
			return fmt.Errorf("mark as synchronized: delete mirror: %w", err)
		}

		insertArgs := append([]any{ts.Millis()}, args...)
		if _, err := tx.Exec(`
			INSERT OR IGNORE INTO loginsM (`+cols+`, is_overridden, server_modified)
			SELECT `+cols+`, 0, ?
			FROM loginsL WHERE is_deleted = 0 AND guid IN (`+placeholdersSQL+`)`, insertArgs...,
		); err != nil {
			return fmt.Errorf("mark as synchronized: promote overlay: %w", err)
		}

		if _, err := tx.Exec(`DELETE FROM loginsL WHERE guid IN (`+placeholdersSQL+`)`, args...); err != nil {
			return fmt.Errorf("mark as synchronized: delete overlay: %w", err)
		}
	}

	if _, err := tx.Exec(`
		INSERT INTO loginsSyncMeta (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		lastSyncMetaKey, strconv.FormatInt(ts.Millis(), 10),
	); err != nil {
		return fmt.Errorf("mark as synchronized: persist last_sync: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("mark as synchronized: commit: %w", err)
	}
	return nil
}
