package store

import (
	"database/sql"
	"fmt"

	"github.com/hyperengineering/loginsync/internal/logins"
	"github.com/hyperengineering/loginsync/internal/reconcile"
)

// ExecutePlan applies plan inside a single write transaction (C6). Any
// failure aborts the whole transaction; neither overlay nor mirror is
// left partially updated.
func (l *LoginDB) ExecutePlan(plan reconcile.UpdatePlan) error {
	tx, err := l.db.Begin()
	if err != nil {
		return fmt.Errorf("execute plan: begin: %w", err)
	}
	defer tx.Rollback()

	for _, action := range plan.Actions {
		if err := applyAction(tx, action); err != nil {
			return fmt.Errorf("execute plan: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("execute plan: commit: %w", err)
	}
	return nil
}

func applyAction(tx *sql.Tx, action reconcile.Action) error {
	switch action.Kind {
	case reconcile.ActionDelete:
		return applyDelete(tx, action.GUID)
	case reconcile.ActionMirrorUpdate:
		return applyMirrorUpdate(tx, action.Upstream, action.UpstreamTime)
	case reconcile.ActionMirrorInsert:
		return upsertMirror(tx, action.Upstream, action.UpstreamTime.Millis(), action.MirrorInserts)
	case reconcile.ActionLocalUpdate:
		return applyLocalUpdate(tx, action.Merged, action.Upstream, action.UpstreamTime)
	case reconcile.ActionTwoWayMerge:
		return applyOverlayMerge(tx, action.LocalGUID, action.Merged)
	default:
		return fmt.Errorf("unknown action kind %v", action.Kind)
	}
}

// applyDelete removes both sides of a guid: the inbound record was a
// tombstone and remote deletions always win.
func applyDelete(tx *sql.Tx, guid string) error {
	if _, err := tx.Exec(`DELETE FROM loginsM WHERE guid = ?`, guid); err != nil {
		return fmt.Errorf("delete mirror: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM loginsL WHERE guid = ?`, guid); err != nil {
		return fmt.Errorf("delete overlay: %w", err)
	}
	return nil
}

// applyMirrorUpdate forwards upstream into an existing mirror row
// unchanged and drops any overlay row for the same guid: the record was
// already in agreement with this client, or the three-way merge produced
// exactly upstream.
func applyMirrorUpdate(tx *sql.Tx, upstream logins.Login, upstreamTime logins.ServerTimestamp) error {
	if err := upsertMirror(tx, upstream, upstreamTime.Millis(), false); err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM loginsL WHERE guid = ?`, upstream.ID); err != nil {
		return fmt.Errorf("clear overlay after mirror update: %w", err)
	}
	return nil
}

// applyLocalUpdate handles ActionLocalUpdate: the overlay at merged's guid
// (which always equals upstream's, a three-way merge has a shared mirror
// ancestor by definition) is set to merged with sync_status promoted to at
// least Changed, and upstream is written into the mirror as the new
// ancestor, shadowed by the surviving overlay row.
func applyLocalUpdate(tx *sql.Tx, merged, upstream logins.Login, upstreamTime logins.ServerTimestamp) error {
	if err := applyOverlayMerge(tx, merged.ID, merged); err != nil {
		return err
	}
	if err := upsertMirror(tx, upstream, upstreamTime.Millis(), true); err != nil {
		return err
	}
	return nil
}

// applyOverlayMerge writes merged's fields into the overlay row at guid and
// sets sync_status to Changed unless the row is still New. Used by both ActionLocalUpdate
// and ActionTwoWayMerge; the latter has no shared ancestor, so it stops
// here and never touches the mirror (spec.md §4.6).
func applyOverlayMerge(tx *sql.Tx, guid string, merged logins.Login) error {
	_, err := tx.Exec(`
		UPDATE loginsL
		SET hostname            = ?,
		    httpRealm           = ?,
		    formSubmitURL       = ?,
		    usernameField       = ?,
		    passwordField       = ?,
		    username            = ?,
		    password            = ?,
		    timesUsed           = ?,
		    timeCreated         = ?,
		    timeLastUsed        = ?,
		    timePasswordChanged = ?,
		    sync_status         = CASE WHEN sync_status = ? THEN sync_status ELSE ? END
		WHERE guid = ?`,
		merged.Hostname, nullIfEmpty(merged.HTTPRealm), nullIfEmpty(merged.FormSubmitURL),
		merged.UsernameField, merged.PasswordField, merged.Username, merged.Password,
		merged.TimesUsed, merged.TimeCreated, merged.TimeLastUsed, merged.TimePasswordChanged,
		int(logins.StatusNew), int(logins.StatusChanged), guid,
	)
	if err != nil {
		return fmt.Errorf("update overlay from merge: %w", err)
	}
	return nil
}

// upsertMirror writes login into loginsM, creating the row if it does not
// already exist.
func upsertMirror(tx *sql.Tx, login logins.Login, serverModified int64, isOverridden bool) error {
	cols := sqlT().commonColsSQL
	_, err := tx.Exec(`
		INSERT INTO loginsM (`+cols+`, is_overridden, server_modified)
		VALUES (`+placeholders(len(commonCols))+`, ?, ?)
		ON CONFLICT(guid) DO UPDATE SET
		    hostname            = excluded.hostname,
		    httpRealm           = excluded.httpRealm,
		    formSubmitURL       = excluded.formSubmitURL,
		    usernameField       = excluded.usernameField,
		    passwordField       = excluded.passwordField,
		    username            = excluded.username,
		    password            = excluded.password,
		    timesUsed           = excluded.timesUsed,
		    timeCreated         = excluded.timeCreated,
		    timeLastUsed        = excluded.timeLastUsed,
		    timePasswordChanged = excluded.timePasswordChanged,
		    is_overridden       = excluded.is_overridden,
		    server_modified     = excluded.server_modified`,
		append(loginArgs(login), isOverridden, serverModified)...,
	)
	if err != nil {
		return fmt.Errorf("upsert mirror: %w", err)
	}
	return nil
}
