package logins

// Payload is the opaque wire record the core exchanges with a sync client.
// Encoding/decoding of the actual JSON bytes is the sync client's concern
// (spec.md §1); this type is the already-decoded shape the core consumes
// and produces.
type Payload struct {
	ID      string
	Deleted bool
	Login   Login // zero value when Deleted is true
}

// NewTombstonePayload returns a Payload representing a deletion.
func NewTombstonePayload(id string) Payload {
	return Payload{ID: id, Deleted: true}
}

// NewPayload returns a Payload carrying a live record.
func NewPayload(l Login) Payload {
	return Payload{ID: l.ID, Login: l}
}

// ServerTimestamp is fractional seconds since epoch as conveyed by the
// remote service.
type ServerTimestamp float64

// Millis converts a ServerTimestamp to integer milliseconds, the unit the
// store persists internally.
func (t ServerTimestamp) Millis() int64 {
	return int64(float64(t) * 1000.0)
}

// ServerTimestampFromMillis converts stored integer milliseconds back to a
// ServerTimestamp.
func ServerTimestampFromMillis(ms int64) ServerTimestamp {
	return ServerTimestamp(float64(ms) / 1000.0)
}
