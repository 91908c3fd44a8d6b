package main

import (
	"fmt"

	"github.com/hyperengineering/loginsync/internal/logins"
	"github.com/spf13/cobra"
)

var (
	addHostname      string
	addUsername      string
	addPassword      string
	addHTTPRealm     string
	addFormSubmitURL string
	addUsernameField string
	addPasswordField string
	addJSONOutput    bool
)

var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a new login",
	Args:  cobra.NoArgs,
	RunE:  runAdd,
}

func init() {
	addCmd.Flags().StringVar(&addHostname, "hostname", "", "Absolute origin URL, e.g. https://example.com (required)")
	addCmd.Flags().StringVar(&addUsername, "username", "", "Username (required)")
	addCmd.Flags().StringVar(&addPassword, "password", "", "Password (required)")
	addCmd.Flags().StringVar(&addHTTPRealm, "http-realm", "", "HTTP auth realm; mutually exclusive with --form-submit-url")
	addCmd.Flags().StringVar(&addFormSubmitURL, "form-submit-url", "", "Form submit target URL; mutually exclusive with --http-realm")
	addCmd.Flags().StringVar(&addUsernameField, "username-field", "", "Form field name for the username")
	addCmd.Flags().StringVar(&addPasswordField, "password-field", "", "Form field name for the password")
	addCmd.Flags().BoolVar(&addJSONOutput, "json", false, "Output in JSON format")
}

func runAdd(cmd *cobra.Command, args []string) error {
	db, err := resolveDB()
	if err != nil {
		return err
	}
	defer db.Close()

	login := logins.Login{
		Hostname:      addHostname,
		HTTPRealm:     addHTTPRealm,
		FormSubmitURL: addFormSubmitURL,
		Username:      addUsername,
		Password:      addPassword,
		UsernameField: addUsernameField,
		PasswordField: addPasswordField,
	}

	added, err := db.Add(login)
	if err != nil {
		return fmt.Errorf("add login: %w", err)
	}

	if addJSONOutput {
		return printJSON(cmd.OutOrStdout(), added)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "added login %s for %s\n", added.ID, added.Hostname)
	return nil
}
