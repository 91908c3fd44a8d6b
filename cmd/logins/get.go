package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var getCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Fetch a single login by id",
	Args:  cobra.ExactArgs(1),
	RunE:  runGet,
}

func runGet(cmd *cobra.Command, args []string) error {
	db, err := resolveDB()
	if err != nil {
		return err
	}
	defer db.Close()

	login, err := db.GetByID(args[0])
	if err != nil {
		return fmt.Errorf("get login: %w", err)
	}
	if login == nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "no login found for %s\n", args[0])
		return nil
	}
	return printJSON(cmd.OutOrStdout(), login)
}
