package store

import "errors"

var (
	// ErrEncryptionUnsupported is returned by Open when an encryption key
	// is supplied but the configured storage engine cannot honor it.
	ErrEncryptionUnsupported = errors.New("store: encrypted storage is not supported by this build")
	// ErrDuplicateGUID is returned by Add when a row with the given GUID
	// already exists, and by the fetch step of apply-incoming when the
	// inbound batch itself contains a duplicate GUID.
	ErrDuplicateGUID = errors.New("store: duplicate guid")
	// ErrNoSuchRecord is returned by Update when neither an overlay nor a
	// mirror row exists for the given GUID.
	ErrNoSuchRecord = errors.New("store: no such record")
	// ErrDuplicateSyncRequest is returned by ApplyIncoming when called
	// with a RequestID already recorded in the sync-request ledger: a
	// retried push that the store has already applied.
	ErrDuplicateSyncRequest = errors.New("store: sync request already applied")
)
