package store

import "database/sql/driver"

// nullableString scans a SQL NULL as the empty string, used for the
// optional HTTPRealm/FormSubmitURL columns which are stored as NULL rather
// than "" when absent.
type nullableString string

func (n *nullableString) Scan(value any) error {
	if value == nil {
		*n = ""
		return nil
	}
	switch v := value.(type) {
	case string:
		*n = nullableString(v)
	case []byte:
		*n = nullableString(v)
	default:
		*n = ""
	}
	return nil
}

// nullIfEmpty returns nil (SQL NULL) for an empty string, or the string
// itself otherwise, so optional columns round-trip as NULL rather than "".
func nullIfEmpty(s string) driver.Value {
	if s == "" {
		return nil
	}
	return s
}
