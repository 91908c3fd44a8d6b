package reconcile

import "github.com/hyperengineering/loginsync/internal/logins"

// newerWins resolves a single string field when there is no common
// ancestor: local wins only if strictly newer than upstream, otherwise
// upstream wins (ties favor upstream).
func newerWins(local, upstream string, localModified int64, upstreamTime logins.ServerTimestamp) string {
	if localModified > upstreamTime.Millis() {
		return local
	}
	return upstream
}

// threeWayField resolves one field given a common mirror ancestor: if
// local didn't change it from the ancestor, take upstream; if upstream
// didn't change it, take local; otherwise both sides changed it and the
// newer write wins.
func threeWayField(local, mirror, upstream string, localModified int64, upstreamTime logins.ServerTimestamp) string {
	if local == mirror {
		return upstream
	}
	if upstream == mirror {
		return local
	}
	return newerWins(local, upstream, localModified, upstreamTime)
}

func maxInt64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}

// threeWayMerge implements the §4.5 three-way field policy: local, mirror
// (the common ancestor) and upstream are reconciled field by field.
func threeWayMerge(local LocalLogin, mirror, upstream logins.Login, upstreamTime logins.ServerTimestamp) logins.Login {
	lm := local.LocalModified
	l := local.Login

	merged := logins.Login{
		ID:            upstream.ID,
		TimeCreated:   mirror.TimeCreated,
		Hostname:      threeWayField(l.Hostname, mirror.Hostname, upstream.Hostname, lm, upstreamTime),
		HTTPRealm:     threeWayField(l.HTTPRealm, mirror.HTTPRealm, upstream.HTTPRealm, lm, upstreamTime),
		FormSubmitURL: threeWayField(l.FormSubmitURL, mirror.FormSubmitURL, upstream.FormSubmitURL, lm, upstreamTime),
		Username:      threeWayField(l.Username, mirror.Username, upstream.Username, lm, upstreamTime),
		Password:      threeWayField(l.Password, mirror.Password, upstream.Password, lm, upstreamTime),
		UsernameField: threeWayField(l.UsernameField, mirror.UsernameField, upstream.UsernameField, lm, upstreamTime),
		PasswordField: threeWayField(l.PasswordField, mirror.PasswordField, upstream.PasswordField, lm, upstreamTime),
	}

	// times_used: fold the local increment since the mirror into upstream's count.
	localDelta := l.TimesUsed - mirror.TimesUsed
	if localDelta < 0 {
		localDelta = 0
	}
	merged.TimesUsed = upstream.TimesUsed + localDelta

	merged.TimeLastUsed = maxInt64(l.TimeLastUsed, upstream.TimeLastUsed)

	// time_password_changed: max over whichever side(s) actually changed
	// the password relative to the mirror ancestor.
	changedAt := mirror.TimePasswordChanged
	sawChange := false
	if l.Password != mirror.Password {
		changedAt, sawChange = l.TimePasswordChanged, true
	}
	if upstream.Password != mirror.Password {
		if !sawChange || upstream.TimePasswordChanged > changedAt {
			changedAt = upstream.TimePasswordChanged
		}
		sawChange = true
	}
	merged.TimePasswordChanged = changedAt

	return merged
}

// twoWayMerge resolves a record with no shared ancestor strictly by
// timestamp, field by field (spec.md §4.5 two-way merge).
func twoWayMerge(local logins.Login, localModified int64, upstream logins.Login, upstreamTime logins.ServerTimestamp) logins.Login {
	merged := logins.Login{
		ID:                  upstream.ID,
		Hostname:            newerWins(local.Hostname, upstream.Hostname, localModified, upstreamTime),
		HTTPRealm:           newerWins(local.HTTPRealm, upstream.HTTPRealm, localModified, upstreamTime),
		FormSubmitURL:       newerWins(local.FormSubmitURL, upstream.FormSubmitURL, localModified, upstreamTime),
		Username:            newerWins(local.Username, upstream.Username, localModified, upstreamTime),
		Password:            newerWins(local.Password, upstream.Password, localModified, upstreamTime),
		UsernameField:       newerWins(local.UsernameField, upstream.UsernameField, localModified, upstreamTime),
		PasswordField:       newerWins(local.PasswordField, upstream.PasswordField, localModified, upstreamTime),
		TimeCreated:         local.TimeCreated,
		TimesUsed:           maxInt64(local.TimesUsed, upstream.TimesUsed),
		TimeLastUsed:        maxInt64(local.TimeLastUsed, upstream.TimeLastUsed),
		TimePasswordChanged: maxInt64(local.TimePasswordChanged, upstream.TimePasswordChanged),
	}
	return merged
}
