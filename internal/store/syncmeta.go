package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"github.com/hyperengineering/loginsync/internal/logins"
)

const (
	lastSyncMetaKey    = "last_sync"
	globalStateMetaKey = "global_state"
)

func (l *LoginDB) putMeta(key, value string) error {
	_, err := l.db.Exec(`
		INSERT INTO loginsSyncMeta (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	if err != nil {
		return fmt.Errorf("put meta %s: %w", key, err)
	}
	return nil
}

func (l *LoginDB) getMeta(key string) (string, bool, error) {
	var value string
	err := l.db.QueryRow(`SELECT value FROM loginsSyncMeta WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get meta %s: %w", key, err)
	}
	return value, true, nil
}

// SetLastSync persists the timestamp of the most recent successful sync,
// stored as integer milliseconds.
func (l *LoginDB) SetLastSync(ts logins.ServerTimestamp) error {
	return l.putMeta(lastSyncMetaKey, strconv.FormatInt(ts.Millis(), 10))
}

// GetLastSync returns the last recorded sync timestamp, or nil if the
// store has never synced (or was Reset).
func (l *LoginDB) GetLastSync() (*logins.ServerTimestamp, error) {
	value, ok, err := l.getMeta(lastSyncMetaKey)
	if err != nil || !ok {
		return nil, err
	}
	ms, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parse last_sync: %w", err)
	}
	ts := logins.ServerTimestampFromMillis(ms)
	return &ts, nil
}

// SetGlobalState persists an opaque blob on behalf of the enclosing sync
// client.
func (l *LoginDB) SetGlobalState(state string) error {
	return l.putMeta(globalStateMetaKey, state)
}

// GetGlobalState returns the previously stored global_state blob, or nil
// if none has been set.
func (l *LoginDB) GetGlobalState() (*string, error) {
	value, ok, err := l.getMeta(globalStateMetaKey)
	if err != nil || !ok {
		return nil, err
	}
	return &value, nil
}
