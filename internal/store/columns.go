package store

import (
	"database/sql"
	"strings"
	"sync"

	"github.com/hyperengineering/loginsync/internal/logins"
)

// commonCols lists the Login fields shared by loginsL and loginsM, in the
// order every SELECT/INSERT built from them uses.
var commonCols = []string{
	"guid",
	"hostname",
	"httpRealm",
	"formSubmitURL",
	"usernameField",
	"passwordField",
	"username",
	"password",
	"timesUsed",
	"timeCreated",
	"timeLastUsed",
	"timePasswordChanged",
}

// sqlTemplates holds lazily-built SQL strings derived from commonCols.
// They are immutable once constructed and safe to share across goroutines;
// this is the only global mutable state in the package, matching the
// "lazily-initialized table of SQL templates" design note.
type sqlTemplates struct {
	commonColsSQL     string
	getAll            string
	getByID           string
	cloneEntireMirror string
	cloneSingleMirror string
}

var (
	templatesOnce sync.Once
	templates     sqlTemplates
)

func sqlT() *sqlTemplates {
	templatesOnce.Do(func() {
		cols := strings.Join(commonCols, ", ")
		templates = sqlTemplates{
			commonColsSQL: cols,
			getAll: `
				SELECT ` + cols + ` FROM loginsL WHERE is_deleted = 0
				UNION ALL
				SELECT ` + cols + ` FROM loginsM WHERE is_overridden = 0`,
			getByID: `
				SELECT ` + cols + ` FROM loginsL WHERE is_deleted = 0 AND guid = ?
				UNION ALL
				SELECT ` + cols + ` FROM loginsM WHERE is_overridden = 0 AND guid = ?
				LIMIT 1`,
			cloneEntireMirror: `
				INSERT OR IGNORE INTO loginsL (` + cols + `, local_modified, is_deleted, sync_status)
				SELECT ` + cols + `, NULL, 0, 0
				FROM loginsM`,
			cloneSingleMirror: `
				INSERT OR IGNORE INTO loginsL (` + cols + `, local_modified, is_deleted, sync_status)
				SELECT ` + cols + `, NULL, 0, 2
				FROM loginsM WHERE guid = ?`, // sync_status 2 = StatusSynced: the clone is identical to its mirror row
		}
	})
	return &templates
}

func placeholders(n int) string {
	ph := make([]string, n)
	for i := range ph {
		ph[i] = "?"
	}
	return strings.Join(ph, ", ")
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanLogin scans a row produced by a SELECT over commonCols, in order,
// into a logins.Login.
func scanLogin(row rowScanner) (logins.Login, error) {
	var l logins.Login
	var httpRealm, formSubmitURL nullableString
	err := row.Scan(
		&l.ID,
		&l.Hostname,
		&httpRealm,
		&formSubmitURL,
		&l.UsernameField,
		&l.PasswordField,
		&l.Username,
		&l.Password,
		&l.TimesUsed,
		&l.TimeCreated,
		&l.TimeLastUsed,
		&l.TimePasswordChanged,
	)
	if err != nil {
		return logins.Login{}, err
	}
	l.HTTPRealm = string(httpRealm)
	l.FormSubmitURL = string(formSubmitURL)
	return l, nil
}

// scanLocalLogin scans a row produced by a SELECT over commonCols followed
// by local_modified, sync_status, is_deleted, as FindDupe's query does.
func scanLocalLogin(row rowScanner) (logins.Login, int64, logins.SyncStatus, bool, error) {
	var l logins.Login
	var httpRealm, formSubmitURL nullableString
	var localModified int64
	var syncStatus int
	var isDeleted bool
	err := row.Scan(
		&l.ID,
		&l.Hostname,
		&httpRealm,
		&formSubmitURL,
		&l.UsernameField,
		&l.PasswordField,
		&l.Username,
		&l.Password,
		&l.TimesUsed,
		&l.TimeCreated,
		&l.TimeLastUsed,
		&l.TimePasswordChanged,
		&localModified,
		&syncStatus,
		&isDeleted,
	)
	if err != nil {
		return logins.Login{}, 0, 0, false, err
	}
	l.HTTPRealm = string(httpRealm)
	l.FormSubmitURL = string(formSubmitURL)
	return l, localModified, logins.SyncStatus(syncStatus), isDeleted, nil
}

// scanTaggedLogin scans one row of the C4 fetch-chunk query: idx, is_mirror,
// commonCols, then local_modified/sync_status/is_deleted (NULL on the
// mirror arm of the union).
func scanTaggedLogin(row rowScanner, idx *int, isMirror *bool, localModified *sql.NullInt64, syncStatus *sql.NullInt64, isDeleted *sql.NullBool) (logins.Login, error) {
	var l logins.Login
	var httpRealm, formSubmitURL nullableString
	err := row.Scan(
		idx,
		isMirror,
		&l.ID,
		&l.Hostname,
		&httpRealm,
		&formSubmitURL,
		&l.UsernameField,
		&l.PasswordField,
		&l.Username,
		&l.Password,
		&l.TimesUsed,
		&l.TimeCreated,
		&l.TimeLastUsed,
		&l.TimePasswordChanged,
		localModified,
		syncStatus,
		isDeleted,
	)
	if err != nil {
		return logins.Login{}, err
	}
	l.HTTPRealm = string(httpRealm)
	l.FormSubmitURL = string(formSubmitURL)
	return l, nil
}

// scanLoginWithDeleted scans a row produced by a SELECT over commonCols
// followed by is_deleted, as FetchOutgoing's query does.
func scanLoginWithDeleted(row rowScanner) (logins.Login, bool, error) {
	var l logins.Login
	var httpRealm, formSubmitURL nullableString
	var isDeleted bool
	err := row.Scan(
		&l.ID,
		&l.Hostname,
		&httpRealm,
		&formSubmitURL,
		&l.UsernameField,
		&l.PasswordField,
		&l.Username,
		&l.Password,
		&l.TimesUsed,
		&l.TimeCreated,
		&l.TimeLastUsed,
		&l.TimePasswordChanged,
		&isDeleted,
	)
	if err != nil {
		return logins.Login{}, false, err
	}
	l.HTTPRealm = string(httpRealm)
	l.FormSubmitURL = string(formSubmitURL)
	return l, isDeleted, nil
}

// loginArgs returns the bound arguments for inserting/selecting a logins.Login's
// common columns, in commonCols order.
func loginArgs(l logins.Login) []any {
	return []any{
		l.ID,
		l.Hostname,
		nullIfEmpty(l.HTTPRealm),
		nullIfEmpty(l.FormSubmitURL),
		l.UsernameField,
		l.PasswordField,
		l.Username,
		l.Password,
		l.TimesUsed,
		l.TimeCreated,
		l.TimeLastUsed,
		l.TimePasswordChanged,
	}
}
