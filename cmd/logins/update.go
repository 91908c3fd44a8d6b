package main

import (
	"fmt"

	"github.com/hyperengineering/loginsync/internal/logins"
	"github.com/spf13/cobra"
)

var (
	updateHostname      string
	updateUsername      string
	updatePassword      string
	updateHTTPRealm     string
	updateFormSubmitURL string
	updateUsernameField string
	updatePasswordField string
)

var updateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Update an existing login",
	Args:  cobra.ExactArgs(1),
	RunE:  runUpdate,
}

func init() {
	updateCmd.Flags().StringVar(&updateHostname, "hostname", "", "Absolute origin URL (required)")
	updateCmd.Flags().StringVar(&updateUsername, "username", "", "Username (required)")
	updateCmd.Flags().StringVar(&updatePassword, "password", "", "Password (required)")
	updateCmd.Flags().StringVar(&updateHTTPRealm, "http-realm", "", "HTTP auth realm; mutually exclusive with --form-submit-url")
	updateCmd.Flags().StringVar(&updateFormSubmitURL, "form-submit-url", "", "Form submit target URL; mutually exclusive with --http-realm")
	updateCmd.Flags().StringVar(&updateUsernameField, "username-field", "", "Form field name for the username")
	updateCmd.Flags().StringVar(&updatePasswordField, "password-field", "", "Form field name for the password")
}

func runUpdate(cmd *cobra.Command, args []string) error {
	db, err := resolveDB()
	if err != nil {
		return err
	}
	defer db.Close()

	login := logins.Login{
		ID:            args[0],
		Hostname:      updateHostname,
		HTTPRealm:     updateHTTPRealm,
		FormSubmitURL: updateFormSubmitURL,
		Username:      updateUsername,
		Password:      updatePassword,
		UsernameField: updateUsernameField,
		PasswordField: updatePasswordField,
	}

	if err := db.Update(login); err != nil {
		return fmt.Errorf("update login: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "updated login %s\n", login.ID)
	return nil
}
