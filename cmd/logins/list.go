package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all visible logins",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func runList(cmd *cobra.Command, args []string) error {
	db, err := resolveDB()
	if err != nil {
		return err
	}
	defer db.Close()

	all, err := db.GetAll()
	if err != nil {
		return fmt.Errorf("list logins: %w", err)
	}
	return printJSON(cmd.OutOrStdout(), all)
}
