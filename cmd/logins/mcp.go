package main

import (
	"fmt"

	"github.com/hyperengineering/loginsync/mcp"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the MCP server, exposing the login store over stdio",
	Args:  cobra.NoArgs,
	RunE:  runMCP,
}

func runMCP(cmd *cobra.Command, args []string) error {
	db, err := resolveDB()
	if err != nil {
		return err
	}
	defer db.Close()

	server := mcp.NewServer(db)
	if err := server.Run(); err != nil {
		return fmt.Errorf("run mcp server: %w", err)
	}
	return nil
}
