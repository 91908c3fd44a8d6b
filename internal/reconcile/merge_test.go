package reconcile

import (
	"testing"

	"github.com/hyperengineering/loginsync/internal/logins"
)

func TestThreeWayMerge_UsernameLocalPasswordRemote(t *testing.T) {
	// spec.md §8 concrete scenario 2.
	mirror := logins.Login{ID: "g", Username: "a", Password: "p1", TimePasswordChanged: 100}
	local := LocalLogin{
		Login:         logins.Login{ID: "g", Username: "a2", Password: "p1", TimePasswordChanged: 100},
		LocalModified: 200,
	}
	upstream := logins.Login{ID: "g", Username: "a", Password: "p2", TimePasswordChanged: 300}
	upstreamTime := logins.ServerTimestampFromMillis(300)

	merged := threeWayMerge(local, mirror, upstream, upstreamTime)

	if merged.Username != "a2" {
		t.Errorf("expected username a2, got %q", merged.Username)
	}
	if merged.Password != "p2" {
		t.Errorf("expected password p2, got %q", merged.Password)
	}
	if merged.TimePasswordChanged != 300 {
		t.Errorf("expected time_password_changed 300, got %d", merged.TimePasswordChanged)
	}
	if merged.EqualForMerge(upstream) {
		t.Error("merged should differ from upstream, triggering LocalUpdate not MirrorUpdate")
	}
}

func TestThreeWayMerge_TimesUsedFoldsLocalDelta(t *testing.T) {
	mirror := logins.Login{ID: "g", TimesUsed: 5}
	local := LocalLogin{Login: logins.Login{ID: "g", TimesUsed: 8}, LocalModified: 10}
	upstream := logins.Login{ID: "g", TimesUsed: 20}

	merged := threeWayMerge(local, mirror, upstream, logins.ServerTimestampFromMillis(0))

	if merged.TimesUsed != 23 {
		t.Errorf("expected 20 + (8-5) = 23, got %d", merged.TimesUsed)
	}
}

func TestThreeWayMerge_TimesUsedDeltaNeverNegative(t *testing.T) {
	mirror := logins.Login{ID: "g", TimesUsed: 10}
	local := LocalLogin{Login: logins.Login{ID: "g", TimesUsed: 3}, LocalModified: 10}
	upstream := logins.Login{ID: "g", TimesUsed: 20}

	merged := threeWayMerge(local, mirror, upstream, logins.ServerTimestampFromMillis(0))

	if merged.TimesUsed != 20 {
		t.Errorf("expected negative local delta clamped to 0, got %d", merged.TimesUsed)
	}
}

func TestThreeWayMerge_BothSidesChangedPasswordNewerWins(t *testing.T) {
	mirror := logins.Login{ID: "g", Password: "p0", TimePasswordChanged: 0}
	local := LocalLogin{
		Login:         logins.Login{ID: "g", Password: "local-pw", TimePasswordChanged: 500},
		LocalModified: 500,
	}
	upstream := logins.Login{ID: "g", Password: "upstream-pw", TimePasswordChanged: 100}

	merged := threeWayMerge(local, mirror, upstream, logins.ServerTimestampFromMillis(100))

	if merged.Password != "local-pw" {
		t.Errorf("expected newer local write to win, got %q", merged.Password)
	}
	if merged.TimePasswordChanged != 500 {
		t.Errorf("expected newer side's time_password_changed, got %d", merged.TimePasswordChanged)
	}
}

func TestTwoWayMerge_NewerWinsPerField(t *testing.T) {
	local := logins.Login{ID: "g", Username: "local-user", Password: "local-pw", TimesUsed: 2, TimeLastUsed: 50}
	upstream := logins.Login{ID: "g", Username: "upstream-user", Password: "upstream-pw", TimesUsed: 9, TimeLastUsed: 999}

	merged := twoWayMerge(local, 1000, upstream, logins.ServerTimestampFromMillis(100))

	if merged.Username != "local-user" || merged.Password != "local-pw" {
		t.Errorf("expected local fields to win on newer local_modified, got %+v", merged)
	}
	if merged.TimesUsed != 9 {
		t.Errorf("expected max times_used, got %d", merged.TimesUsed)
	}
	if merged.TimeLastUsed != 999 {
		t.Errorf("expected max time_last_used, got %d", merged.TimeLastUsed)
	}
}

func TestTwoWayMerge_TieFavorsUpstream(t *testing.T) {
	local := logins.Login{ID: "g", Username: "local-user"}
	upstream := logins.Login{ID: "g", Username: "upstream-user"}

	merged := twoWayMerge(local, 100, upstream, logins.ServerTimestampFromMillis(100))

	if merged.Username != "upstream-user" {
		t.Errorf("expected tie to favor upstream, got %q", merged.Username)
	}
}
