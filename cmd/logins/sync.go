package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/hyperengineering/loginsync/internal/logins"
	"github.com/hyperengineering/loginsync/internal/reconcile"
	"github.com/oklog/ulid/v2"
	"github.com/spf13/cobra"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Drive a sync round against an already-decoded incoming changeset",
}

var syncApplyCmd = &cobra.Command{
	Use:   "apply <incoming.json> <server-now>",
	Short: "Apply an incoming changeset and print the resulting outgoing changeset",
	Long: "Reads a JSON array of {payload, server_timestamp} records from a file " +
		"(the wire encoding itself is the sync client's concern, per spec.md) " +
		"and runs it through the reconciler, printing the outgoing changeset.",
	Args: cobra.ExactArgs(2),
	RunE: runSyncApply,
}

var syncFinishedCmd = &cobra.Command{
	Use:   "finished <new-timestamp> <guid...>",
	Short: "Record that an outgoing changeset was pushed successfully",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runSyncFinished,
}

func init() {
	syncCmd.AddCommand(syncApplyCmd)
	syncCmd.AddCommand(syncFinishedCmd)
}

// fileLogin is the JSON shape of a Login in an incoming-changeset file.
// The core never encodes or decodes this itself (spec.md §1); this is the
// CLI's own test-harness encoding, not a wire format.
type fileLogin struct {
	Hostname            string `json:"hostname"`
	HTTPRealm           string `json:"http_realm"`
	FormSubmitURL       string `json:"form_submit_url"`
	Username            string `json:"username"`
	Password            string `json:"password"`
	UsernameField       string `json:"username_field"`
	PasswordField       string `json:"password_field"`
	TimeCreated         int64  `json:"time_created"`
	TimeLastUsed        int64  `json:"time_last_used"`
	TimePasswordChanged int64  `json:"time_password_changed"`
	TimesUsed           int64  `json:"times_used"`
}

type filePayload struct {
	ID      string    `json:"id"`
	Deleted bool      `json:"deleted"`
	Login   fileLogin `json:"login"`
}

type fileIncomingRecord struct {
	Payload         filePayload `json:"payload"`
	ServerTimestamp float64     `json:"server_timestamp"`
}

func (p filePayload) toPayload() logins.Payload {
	if p.Deleted {
		return logins.NewTombstonePayload(p.ID)
	}
	l := p.Login
	return logins.NewPayload(logins.Login{
		ID:                  p.ID,
		Hostname:            l.Hostname,
		HTTPRealm:           l.HTTPRealm,
		FormSubmitURL:       l.FormSubmitURL,
		Username:            l.Username,
		Password:            l.Password,
		UsernameField:       l.UsernameField,
		PasswordField:       l.PasswordField,
		TimeCreated:         l.TimeCreated,
		TimeLastUsed:        l.TimeLastUsed,
		TimePasswordChanged: l.TimePasswordChanged,
		TimesUsed:           l.TimesUsed,
	})
}

func payloadToFile(p logins.Payload) filePayload {
	if p.Deleted {
		return filePayload{ID: p.ID, Deleted: true}
	}
	l := p.Login
	return filePayload{
		ID: p.ID,
		Login: fileLogin{
			Hostname:            l.Hostname,
			HTTPRealm:           l.HTTPRealm,
			FormSubmitURL:       l.FormSubmitURL,
			Username:            l.Username,
			Password:            l.Password,
			UsernameField:       l.UsernameField,
			PasswordField:       l.PasswordField,
			TimeCreated:         l.TimeCreated,
			TimeLastUsed:        l.TimeLastUsed,
			TimePasswordChanged: l.TimePasswordChanged,
			TimesUsed:           l.TimesUsed,
		},
	}
}

func runSyncApply(cmd *cobra.Command, args []string) error {
	path := args[0]
	serverNow, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return fmt.Errorf("parse server-now: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read incoming changeset: %w", err)
	}

	var fileRecords []fileIncomingRecord
	if err := json.Unmarshal(data, &fileRecords); err != nil {
		return fmt.Errorf("parse incoming changeset: %w", err)
	}

	records := make([]reconcile.IncomingRecord, len(fileRecords))
	for i, rec := range fileRecords {
		records[i] = reconcile.IncomingRecord{
			Payload:         rec.Payload.toPayload(),
			ServerTimestamp: logins.ServerTimestamp(rec.ServerTimestamp),
		}
	}

	db, err := resolveDB()
	if err != nil {
		return err
	}
	defer db.Close()

	changeset := reconcile.IncomingChangeset{
		Changes:   records,
		Timestamp: logins.ServerTimestamp(serverNow),
		RequestID: ulid.Make().String(),
	}

	outgoing, err := db.ApplyIncoming(changeset)
	if err != nil {
		return fmt.Errorf("apply incoming: %w", err)
	}

	out := make([]filePayload, len(outgoing.Changes))
	for i, c := range outgoing.Changes {
		out[i] = payloadToFile(c)
	}
	return printJSON(cmd.OutOrStdout(), map[string]any{
		"collection": outgoing.Collection,
		"changes":    out,
	})
}

func runSyncFinished(cmd *cobra.Command, args []string) error {
	newTimestamp, err := strconv.ParseFloat(args[0], 64)
	if err != nil {
		return fmt.Errorf("parse new-timestamp: %w", err)
	}
	guids := args[1:]

	db, err := resolveDB()
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.SyncFinished(logins.ServerTimestamp(newTimestamp), guids); err != nil {
		return fmt.Errorf("sync finished: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "recorded sync of %d records at %v\n", len(guids), newTimestamp)
	return nil
}
