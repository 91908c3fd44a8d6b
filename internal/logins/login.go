// Package logins defines the Login record, its validity rules, and the
// wire Payload the core exchanges with a sync client.
package logins

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// SyncStatus is the per-overlay-row state in the three-state machine
// described for loginsL.sync_status.
type SyncStatus int

const (
	// StatusNew marks a row created locally that the server has never seen.
	StatusNew SyncStatus = iota
	// StatusChanged marks a row whose overlay holds newer data (or a
	// tombstone) than the mirror.
	StatusChanged
	// StatusSynced marks an overlay row identical to its mirror row,
	// pending promotion.
	StatusSynced
)

func (s SyncStatus) String() string {
	switch s {
	case StatusNew:
		return "new"
	case StatusChanged:
		return "changed"
	case StatusSynced:
		return "synced"
	default:
		return fmt.Sprintf("sync_status(%d)", int(s))
	}
}

// MaxStatus returns the more "dirty" of two statuses: New ranks above
// Changed, and Changed above Synced.
func MaxStatus(a, b SyncStatus) SyncStatus {
	if a == StatusNew || b == StatusNew {
		return StatusNew
	}
	if a == StatusChanged || b == StatusChanged {
		return StatusChanged
	}
	return StatusSynced
}

// Login is a single saved password record.
type Login struct {
	ID                  string
	Hostname            string
	HTTPRealm           string
	FormSubmitURL       string
	Username            string
	Password            string
	UsernameField       string
	PasswordField       string
	TimeCreated         int64
	TimeLastUsed        int64
	TimePasswordChanged int64
	TimesUsed           int64
}

// guidBytes is the number of random bytes used to generate a GUID. Base64
// url-encoding 9 bytes yields exactly 12 characters with no padding.
const guidBytes = 9

// NewGUID returns a fresh, cryptographically random GUID.
func NewGUID() (string, error) {
	buf := make([]byte, guidBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate guid: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

var (
	// ErrMissingHostname is returned when hostname fails to parse as an
	// absolute URL with a scheme.
	ErrMissingHostname = errors.New("login: hostname must be an absolute url with a scheme")
	// ErrRealmSubmitConflict is returned when neither or both of
	// HTTPRealm/FormSubmitURL are set.
	ErrRealmSubmitConflict = errors.New("login: exactly one of http_realm and form_submit_url must be set")
	// ErrEmptyPassword is returned when a non-deleted login has no password.
	ErrEmptyPassword = errors.New("login: password must not be empty")
)

// CheckValid enforces the field-validity rules from the data model: exactly
// one of HTTPRealm/FormSubmitURL set, a hostname that parses as an absolute
// URL, and a non-empty password.
func (l Login) CheckValid() error {
	u, err := url.Parse(l.Hostname)
	if err != nil || u.Scheme == "" {
		return fmt.Errorf("%w: %q", ErrMissingHostname, l.Hostname)
	}

	hasRealm := l.HTTPRealm != ""
	hasSubmit := l.FormSubmitURL != ""
	if hasRealm == hasSubmit {
		return ErrRealmSubmitConflict
	}

	if l.Password == "" {
		return ErrEmptyPassword
	}

	return nil
}

// EqualForMerge reports whether two logins are identical for reconciliation
// purposes: every user-visible field except the usage counters TimesUsed
// and TimeLastUsed.
func (l Login) EqualForMerge(o Login) bool {
	return l.ID == o.ID &&
		l.Hostname == o.Hostname &&
		l.HTTPRealm == o.HTTPRealm &&
		l.FormSubmitURL == o.FormSubmitURL &&
		l.Username == o.Username &&
		l.Password == o.Password &&
		l.UsernameField == o.UsernameField &&
		l.PasswordField == o.PasswordField &&
		l.TimeCreated == o.TimeCreated &&
		l.TimePasswordChanged == o.TimePasswordChanged
}

// urlHostPort returns host:port (or just host) for a URL string, or "" if
// it does not parse. Used by dupe detection's substring match.
func urlHostPort(rawURL string) string {
	if rawURL == "" {
		return ""
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return ""
	}
	return u.Host
}

// IsDupeOf reports whether l is a content-dupe of candidate per the rule in
// spec.md §4.5: matching hostname/http_realm/username, and either neither
// side has a form_submit_url or the incoming form-submit host:port is a
// substring of the candidate's form_submit_url. This is a substring match,
// not URL equality — intentional, see DESIGN.md.
func (candidate Login) IsDupeOf(incoming Login) bool {
	if candidate.Hostname != incoming.Hostname || candidate.HTTPRealm != incoming.HTTPRealm || candidate.Username != incoming.Username {
		return false
	}

	hostPort := urlHostPort(incoming.FormSubmitURL)
	if hostPort == "" {
		return candidate.FormSubmitURL == ""
	}
	return strings.Contains(candidate.FormSubmitURL, hostPort)
}
