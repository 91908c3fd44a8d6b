package store

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hyperengineering/loginsync/internal/logins"
	"github.com/hyperengineering/loginsync/internal/reconcile"
)

func nowMillis() int64 {
	return time.Now().UnixMilli()
}

// GetByID returns the visible record (overlay or non-overridden mirror)
// for id, or nil if none exists.
func (l *LoginDB) GetByID(id string) (*logins.Login, error) {
	row := l.db.QueryRow(sqlT().getByID, id, id)
	login, err := scanLogin(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get by id: %w", err)
	}
	return &login, nil
}

// GetAll returns every visible login: non-deleted overlay rows plus
// non-overridden mirror rows, with no guid repeated (invariant 5).
func (l *LoginDB) GetAll() ([]logins.Login, error) {
	rows, err := l.db.Query(sqlT().getAll)
	if err != nil {
		return nil, fmt.Errorf("get all: %w", err)
	}
	defer rows.Close()

	out := make([]logins.Login, 0)
	for rows.Next() {
		login, err := scanLogin(rows)
		if err != nil {
			return nil, fmt.Errorf("scan login: %w", err)
		}
		out = append(out, login)
	}
	return out, rows.Err()
}

// Exists reports whether a visible record for id exists.
func (l *LoginDB) Exists(id string) (bool, error) {
	var exists bool
	err := l.db.QueryRow(`
		SELECT EXISTS(
			SELECT 1 FROM loginsL WHERE guid = ? AND is_deleted = 0
			UNION ALL
			SELECT 1 FROM loginsM WHERE guid = ? AND is_overridden = 0
		)`, id, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("exists: %w", err)
	}
	return exists, nil
}

// Add validates and inserts a brand-new login with SyncStatus=New. If
// login.ID is empty a fresh GUID is generated. Returns ErrDuplicateGUID if
// a row with that GUID already exists.
func (l *LoginDB) Add(login logins.Login) (logins.Login, error) {
	if err := login.CheckValid(); err != nil {
		return logins.Login{}, err
	}

	if login.ID == "" {
		id, err := logins.NewGUID()
		if err != nil {
			return logins.Login{}, err
		}
		login.ID = id
	}

	now := nowMillis()
	login.TimeCreated = now
	login.TimeLastUsed = now
	login.TimePasswordChanged = now
	login.TimesUsed = 1

	cols := sqlT().commonColsSQL
	res, err := l.db.Exec(
		`INSERT OR IGNORE INTO loginsL (`+cols+`, local_modified, is_deleted, sync_status)
		 VALUES (`+placeholders(len(commonCols))+`, ?, 0, ?)`,
		append(loginArgs(login), now, int(logins.StatusNew))...,
	)
	if err != nil {
		return logins.Login{}, fmt.Errorf("insert login: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return logins.Login{}, fmt.Errorf("insert login: %w", err)
	}
	if n == 0 {
		slog.Warn("add: guid already exists", "guid", login.ID)
		return logins.Login{}, fmt.Errorf("%w: %s", ErrDuplicateGUID, login.ID)
	}
	return login, nil
}

// Update validates and applies edits to an existing login, ensuring the
// overlay exists (cloning from the mirror if needed), marking the mirror
// overridden, and setting sync_status to Changed unless the row is still
// New. time_password_changed only advances if the password actually changed.
func (l *LoginDB) Update(login logins.Login) error {
	if err := login.CheckValid(); err != nil {
		return err
	}

	if err := l.ensureLocalOverlayExists(login.ID); err != nil {
		return err
	}
	if err := l.markMirrorOverridden(login.ID); err != nil {
		return err
	}

	now := nowMillis()
	_, err := l.db.Exec(`
		UPDATE loginsL
		SET local_modified      = ?,
		    timeLastUsed        = ?,
		    timePasswordChanged = CASE WHEN password = ? THEN timePasswordChanged ELSE ? END,
		    httpRealm           = ?,
		    formSubmitURL       = ?,
		    usernameField       = ?,
		    passwordField       = ?,
		    timesUsed           = timesUsed + 1,
		    username            = ?,
		    password            = ?,
		    hostname            = ?,
		    sync_status         = CASE WHEN sync_status = ? THEN sync_status ELSE ? END
		WHERE guid = ?`,
		now, now, login.Password, now,
		nullIfEmpty(login.HTTPRealm), nullIfEmpty(login.FormSubmitURL),
		login.UsernameField, login.PasswordField,
		login.Username, login.Password, login.Hostname,
		int(logins.StatusNew), int(logins.StatusChanged), login.ID,
	)
	if err != nil {
		return fmt.Errorf("update login: %w", err)
	}
	return nil
}

// Touch increments the usage counter for id without changing sync_status,
// per the spec note that merely using a record is not a sync-relevant edit.
func (l *LoginDB) Touch(id string) error {
	if err := l.ensureLocalOverlayExists(id); err != nil {
		return err
	}
	if err := l.markMirrorOverridden(id); err != nil {
		return err
	}

	now := nowMillis()
	_, err := l.db.Exec(`
		UPDATE loginsL
		SET timeLastUsed   = ?,
		    timesUsed      = timesUsed + 1,
		    local_modified = ?
		WHERE guid = ? AND is_deleted = 0`, now, now, id)
	if err != nil {
		return fmt.Errorf("touch login: %w", err)
	}
	return nil
}

// Delete removes id, returning whether it existed at the start of the
// call. Deleting an already-deleted record is idempotent and returns
// false on the second call even though tombstone rows may still be
// touched (spec.md §9).
func (l *LoginDB) Delete(id string) (bool, error) {
	existed, err := l.Exists(id)
	if err != nil {
		return false, err
	}
	now := nowMillis()

	if _, err := l.db.Exec(
		`DELETE FROM loginsL WHERE guid = ? AND sync_status = ?`,
		id, int(logins.StatusNew),
	); err != nil {
		return false, fmt.Errorf("delete overlay (new): %w", err)
	}

	if _, err := l.db.Exec(`
		UPDATE loginsL
		SET local_modified = ?,
		    sync_status    = ?,
		    is_deleted     = 1,
		    password       = '',
		    hostname       = '',
		    username       = ''
		WHERE guid = ?`, now, int(logins.StatusChanged), id,
	); err != nil {
		return false, fmt.Errorf("tombstone overlay: %w", err)
	}

	if _, err := l.db.Exec(`UPDATE loginsM SET is_overridden = 1 WHERE guid = ?`, id); err != nil {
		return false, fmt.Errorf("override mirror: %w", err)
	}

	if _, err := l.db.Exec(`
		INSERT OR IGNORE INTO loginsL (guid, local_modified, is_deleted, sync_status, hostname, timeCreated, timePasswordChanged, password, username)
		SELECT guid, ?, 1, ?, '', timeCreated, ?, '', ''
		FROM loginsM WHERE guid = ?`, now, int(logins.StatusChanged), now, id,
	); err != nil {
		return false, fmt.Errorf("insert tombstone from mirror: %w", err)
	}

	return existed, nil
}

// Wipe marks every visible record as a locally-deleted tombstone and
// overrides the mirror, preserving sync lineage (no mirror rows are
// deleted, unlike Reset).
func (l *LoginDB) Wipe() error {
	now := nowMillis()

	if _, err := l.db.Exec(`DELETE FROM loginsL WHERE sync_status = ?`, int(logins.StatusNew)); err != nil {
		return fmt.Errorf("wipe: delete new overlay rows: %w", err)
	}

	if _, err := l.db.Exec(`
		UPDATE loginsL
		SET local_modified = ?,
		    sync_status    = ?,
		    is_deleted     = 1,
		    password       = '',
		    hostname       = '',
		    username       = ''
		WHERE is_deleted = 0`, now, int(logins.StatusChanged),
	); err != nil {
		return fmt.Errorf("wipe: tombstone overlay rows: %w", err)
	}

	if _, err := l.db.Exec(`UPDATE loginsM SET is_overridden = 1`); err != nil {
		return fmt.Errorf("wipe: override mirror: %w", err)
	}

	if _, err := l.db.Exec(`
		INSERT OR IGNORE INTO loginsL (guid, local_modified, is_deleted, sync_status, hostname, timeCreated, timePasswordChanged, password, username)
		SELECT guid, ?, 1, ?, '', timeCreated, ?, '', ''
		FROM loginsM`, now, int(logins.StatusChanged), now,
	); err != nil {
		return fmt.Errorf("wipe: insert tombstones from mirror: %w", err)
	}

	return nil
}

// Reset re-creates an overlay row (SyncStatus=New) for every mirror row,
// clears the mirror entirely, and zeroes last_sync. Used when the server
// identity changes and the store must forget it ever synced.
func (l *LoginDB) Reset() error {
	slog.Info("executing reset on login store")

	if _, err := l.db.Exec(sqlT().cloneEntireMirror); err != nil {
		return fmt.Errorf("reset: clone mirror to overlay: %w", err)
	}
	if _, err := l.db.Exec(`DELETE FROM loginsM`); err != nil {
		return fmt.Errorf("reset: clear mirror: %w", err)
	}
	if _, err := l.db.Exec(`UPDATE loginsL SET sync_status = ?`, int(logins.StatusNew)); err != nil {
		return fmt.Errorf("reset: mark overlay new: %w", err)
	}
	if err := l.SetLastSync(0); err != nil {
		return fmt.Errorf("reset: clear last_sync: %w", err)
	}
	return nil
}

// FindDupe searches loginsL for an overlay row that is a content-dupe of
// incoming, per Login.IsDupeOf. Only overlay rows are searched, matching
// the reference implementation.
func (l *LoginDB) FindDupe(incoming logins.Login) (*reconcile.LocalLogin, error) {
	cols := sqlT().commonColsSQL
	rows, err := l.db.Query(`SELECT `+cols+`, local_modified, sync_status, is_deleted FROM loginsL
		WHERE is_deleted = 0 AND hostname IS ? AND httpRealm IS ? AND username IS ?`,
		incoming.Hostname, nullIfEmpty(incoming.HTTPRealm), incoming.Username)
	if err != nil {
		return nil, fmt.Errorf("find dupe: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		local, localModified, syncStatus, isDeleted, err := scanLocalLogin(rows)
		if err != nil {
			return nil, fmt.Errorf("find dupe: scan: %w", err)
		}
		if local.IsDupeOf(incoming) {
			return &reconcile.LocalLogin{
				Login:         local,
				LocalModified: localModified,
				IsDeleted:     isDeleted,
				SyncStatus:    syncStatus,
			}, nil
		}
	}
	return nil, rows.Err()
}

func (l *LoginDB) markMirrorOverridden(guid string) error {
	_, err := l.db.Exec(`UPDATE loginsM SET is_overridden = 1 WHERE guid = ?`, guid)
	if err != nil {
		return fmt.Errorf("mark mirror overridden: %w", err)
	}
	return nil
}

// ensureLocalOverlayExists clones the mirror row into the overlay if no
// overlay row exists yet. Returns ErrNoSuchRecord if neither side has the
// guid.
func (l *LoginDB) ensureLocalOverlayExists(guid string) error {
	var exists bool
	err := l.db.QueryRow(`SELECT EXISTS(SELECT 1 FROM loginsL WHERE guid = ?)`, guid).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check overlay exists: %w", err)
	}
	if exists {
		return nil
	}

	slog.Debug("no overlay row, cloning from mirror", "guid", guid)
	res, err := l.db.Exec(sqlT().cloneSingleMirror, guid)
	if err != nil {
		return fmt.Errorf("clone mirror to overlay: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("clone mirror to overlay: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNoSuchRecord, guid)
	}
	return nil
}
