package store

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/hyperengineering/loginsync/internal/logins"
	"github.com/hyperengineering/loginsync/internal/reconcile"
)

// fetchChunkMargin leaves headroom below maxVarCount for the small number
// of parameters a chunk query needs beyond the (idx, guid) pairs.
const fetchChunkMargin = 8

// fetchAndGroup implements C4: joins each incoming record against any
// matching mirror and local-overlay row, producing one SyncLoginData per
// input, in input order. Fails with ErrDuplicateGUID if the batch itself
// repeats a guid.
func (l *LoginDB) fetchAndGroup(records []reconcile.IncomingRecord) ([]reconcile.SyncLoginData, error) {
	seen := make(map[string]bool, len(records))
	out := make([]reconcile.SyncLoginData, len(records))
	for i, rec := range records {
		guid := rec.Payload.ID
		if seen[guid] {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateGUID, guid)
		}
		seen[guid] = true
		out[i] = reconcile.SyncLoginData{
			GUID:        guid,
			Inbound:     rec.Payload,
			InboundTime: rec.ServerTimestamp,
		}
	}

	perEntry := 2 // (idx, guid)
	chunkSize := (l.maxVarCount - fetchChunkMargin) / perEntry
	if chunkSize < 1 {
		chunkSize = 1
	}

	for start := 0; start < len(records); start += chunkSize {
		end := start + chunkSize
		if end > len(records) {
			end = len(records)
		}
		if err := l.fetchChunk(out, start, end); err != nil {
			return nil, err
		}
	}

	return out, nil
}

func (l *LoginDB) fetchChunk(out []reconcile.SyncLoginData, start, end int) error {
	cols := sqlT().commonColsSQL
	n := end - start

	values := make([]string, n)
	args := make([]any, 0, n*2)
	for i := 0; i < n; i++ {
		values[i] = "(?, ?)"
		args = append(args, i+start, out[start+i].GUID)
	}

	query := `
		WITH input(idx, guid) AS (VALUES ` + strings.Join(values, ", ") + `)
		SELECT input.idx, 1 AS is_mirror, ` + cols + `, NULL, NULL, NULL
		FROM input JOIN loginsM ON loginsM.guid = input.guid
		UNION ALL
		SELECT input.idx, 0 AS is_mirror, ` + cols + `, local_modified, sync_status, is_deleted
		FROM input JOIN loginsL ON loginsL.guid = input.guid`

	rows, err := l.db.Query(query, args...)
	if err != nil {
		return fmt.Errorf("fetch chunk: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var idx int
		var isMirror bool
		var localModified sql.NullInt64
		var syncStatus sql.NullInt64
		var isDeleted sql.NullBool

		login, err := scanTaggedLogin(rows, &idx, &isMirror, &localModified, &syncStatus, &isDeleted)
		if err != nil {
			return fmt.Errorf("fetch chunk: scan: %w", err)
		}

		if isMirror {
			mirror := login
			out[idx].Mirror = &mirror
			continue
		}
		out[idx].Local = &reconcile.LocalLogin{
			Login:         login,
			LocalModified: localModified.Int64,
			SyncStatus:    logins.SyncStatus(syncStatus.Int64),
			IsDeleted:     isDeleted.Bool,
		}
	}
	return rows.Err()
}
