package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var touchCmd = &cobra.Command{
	Use:   "touch <id>",
	Short: "Record that a login was used, without marking it dirty for sync",
	Args:  cobra.ExactArgs(1),
	RunE:  runTouch,
}

func runTouch(cmd *cobra.Command, args []string) error {
	db, err := resolveDB()
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.Touch(args[0]); err != nil {
		return fmt.Errorf("touch login: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "touched login %s\n", args[0])
	return nil
}
