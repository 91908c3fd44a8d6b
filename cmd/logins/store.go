package main

import (
	"encoding/json"
	"io"

	"github.com/hyperengineering/loginsync/internal/store"
)

// resolveDB opens the store at the configured path, applying any --db
// override. Callers are responsible for closing it.
func resolveDB() (*store.LoginDB, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return store.Open(cfg.Database.Path, store.WithEncryptionKey(cfg.Database.EncryptionKey))
}

// printJSON marshals v to JSON and writes it to w, matching the CLI
// convention used throughout the store subcommands.
func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
