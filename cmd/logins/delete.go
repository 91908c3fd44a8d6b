package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var deleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a login by id. Idempotent: reports whether it existed",
	Args:  cobra.ExactArgs(1),
	RunE:  runDelete,
}

func runDelete(cmd *cobra.Command, args []string) error {
	db, err := resolveDB()
	if err != nil {
		return err
	}
	defer db.Close()

	existed, err := db.Delete(args[0])
	if err != nil {
		return fmt.Errorf("delete login: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "deleted login %s (existed: %v)\n", args[0], existed)
	return nil
}
