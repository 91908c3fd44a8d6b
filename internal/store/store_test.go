package store

import (
	"testing"
	"time"

	"github.com/hyperengineering/loginsync/internal/logins"
)

func openTestDB(t *testing.T) *LoginDB {
	t.Helper()
	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func validLogin() logins.Login {
	return logins.Login{
		Hostname:      "https://ex.com",
		FormSubmitURL: "https://ex.com/",
		Username:      "a",
		Password:      "p",
	}
}

func TestAdd_FreshLogin(t *testing.T) {
	// spec.md §8 concrete scenario 1.
	db := openTestDB(t)

	added, err := db.Add(validLogin())
	if err != nil {
		t.Fatal(err)
	}

	all, err := db.GetAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 1 {
		t.Fatalf("expected one row, got %d", len(all))
	}

	got, err := db.GetByID(added.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got == nil || got.Username != "a" {
		t.Fatalf("expected round-trip of added login, got %+v", got)
	}

	outgoing, err := db.FetchOutgoing()
	if err != nil {
		t.Fatal(err)
	}
	if len(outgoing.Changes) != 1 || outgoing.Changes[0].Deleted {
		t.Fatalf("expected one non-tombstone outgoing payload, got %+v", outgoing.Changes)
	}
}

func TestAdd_RejectsInvalidLogin(t *testing.T) {
	db := openTestDB(t)
	invalid := validLogin()
	invalid.Password = ""
	if _, err := db.Add(invalid); err == nil {
		t.Error("expected validation error for empty password")
	}
}

func TestAdd_DuplicateGUIDRejected(t *testing.T) {
	db := openTestDB(t)
	login := validLogin()
	login.ID = "fixed-guid01"

	if _, err := db.Add(login); err != nil {
		t.Fatal(err)
	}
	if _, err := db.Add(login); err == nil {
		t.Error("expected ErrDuplicateGUID on second add with same guid")
	}
}

func TestDelete_IsIdempotentFalseOnSecondCall(t *testing.T) {
	// spec.md §8 invariant 5.
	db := openTestDB(t)
	added, err := db.Add(validLogin())
	if err != nil {
		t.Fatal(err)
	}

	existed, err := db.Delete(added.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !existed {
		t.Error("expected first delete to report existed=true")
	}

	exists, err := db.Exists(added.ID)
	if err != nil {
		t.Fatal(err)
	}
	if exists {
		t.Error("expected record to no longer be visible after delete")
	}

	existed, err = db.Delete(added.ID)
	if err != nil {
		t.Fatal(err)
	}
	if existed {
		t.Error("expected second delete to report existed=false, per spec.md §9")
	}
}

func TestUpdate_AfterAddKeepsStatusNewAndNoMirrorRow(t *testing.T) {
	// spec.md §8 invariant 6.
	db := openTestDB(t)
	added, err := db.Add(validLogin())
	if err != nil {
		t.Fatal(err)
	}

	updated := added
	updated.Username = "b"
	if err := db.Update(updated); err != nil {
		t.Fatal(err)
	}

	var syncStatus int
	var mirrorCount int
	if err := db.db.QueryRow(`SELECT sync_status FROM loginsL WHERE guid = ?`, added.ID).Scan(&syncStatus); err != nil {
		t.Fatal(err)
	}
	if err := db.db.QueryRow(`SELECT COUNT(*) FROM loginsM WHERE guid = ?`, added.ID).Scan(&mirrorCount); err != nil {
		t.Fatal(err)
	}
	if logins.SyncStatus(syncStatus) != logins.StatusNew {
		t.Errorf("expected sync_status to remain New, got %v", logins.SyncStatus(syncStatus))
	}
	if mirrorCount != 0 {
		t.Errorf("expected no mirror row after update-after-add, got %d", mirrorCount)
	}
}

func TestUpdate_PasswordUnchangedPreservesTimePasswordChanged(t *testing.T) {
	// spec.md §8 invariant 7.
	db := openTestDB(t)
	added, err := db.Add(validLogin())
	if err != nil {
		t.Fatal(err)
	}

	unchanged := added
	unchanged.Username = "renamed"
	if err := db.Update(unchanged); err != nil {
		t.Fatal(err)
	}

	got, err := db.GetByID(added.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.TimePasswordChanged != added.TimePasswordChanged {
		t.Errorf("expected time_password_changed unchanged, got %d want %d", got.TimePasswordChanged, added.TimePasswordChanged)
	}

	time.Sleep(2 * time.Millisecond)
	changed := added
	changed.Password = "new-password"
	if err := db.Update(changed); err != nil {
		t.Fatal(err)
	}
	got, err = db.GetByID(added.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.TimePasswordChanged <= added.TimePasswordChanged {
		t.Errorf("expected time_password_changed to advance on password change, got %d", got.TimePasswordChanged)
	}
}

func TestTouch_DoesNotChangeSyncStatus(t *testing.T) {
	db := openTestDB(t)
	added, err := db.Add(validLogin())
	if err != nil {
		t.Fatal(err)
	}

	if err := db.Touch(added.ID); err != nil {
		t.Fatal(err)
	}

	var syncStatus int
	if err := db.db.QueryRow(`SELECT sync_status, timesUsed FROM loginsL WHERE guid = ?`, added.ID).Scan(&syncStatus, new(int64)); err != nil {
		t.Fatal(err)
	}
	if logins.SyncStatus(syncStatus) != logins.StatusNew {
		t.Errorf("expected touch to leave sync_status untouched, got %v", logins.SyncStatus(syncStatus))
	}
}

func TestGetAll_NoDuplicateGUIDs(t *testing.T) {
	// spec.md §8 invariant 3.
	db := openTestDB(t)
	for i := 0; i < 3; i++ {
		l := validLogin()
		l.Username = l.Username + string(rune('0'+i))
		if _, err := db.Add(l); err != nil {
			t.Fatal(err)
		}
	}

	all, err := db.GetAll()
	if err != nil {
		t.Fatal(err)
	}
	seen := make(map[string]bool)
	for _, l := range all {
		if seen[l.ID] {
			t.Fatalf("duplicate guid %s in get_all", l.ID)
		}
		seen[l.ID] = true
	}
}

func TestReset_RecreatesOverlayFromMirrorAsNew(t *testing.T) {
	db := openTestDB(t)
	added, err := db.Add(validLogin())
	if err != nil {
		t.Fatal(err)
	}
	if err := db.SyncFinished(logins.ServerTimestampFromMillis(100), []string{added.ID}); err != nil {
		t.Fatal(err)
	}

	if err := db.Reset(); err != nil {
		t.Fatal(err)
	}

	var syncStatus int
	if err := db.db.QueryRow(`SELECT sync_status FROM loginsL WHERE guid = ?`, added.ID).Scan(&syncStatus); err != nil {
		t.Fatal(err)
	}
	if logins.SyncStatus(syncStatus) != logins.StatusNew {
		t.Errorf("expected reset overlay row to be New, got %v", logins.SyncStatus(syncStatus))
	}

	var mirrorCount int
	if err := db.db.QueryRow(`SELECT COUNT(*) FROM loginsM`).Scan(&mirrorCount); err != nil {
		t.Fatal(err)
	}
	if mirrorCount != 0 {
		t.Errorf("expected mirror cleared after reset, got %d rows", mirrorCount)
	}

	lastSync, err := db.GetLastSync()
	if err != nil {
		t.Fatal(err)
	}
	if lastSync == nil || *lastSync != 0 {
		t.Errorf("expected last_sync cleared to zero, got %v", lastSync)
	}
}
