// Package migrations embeds the goose-managed SQL schema migrations for
// the login store.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
