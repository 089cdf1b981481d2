package main

import (
	"github.com/spf13/cobra"

	"github.com/Lin-Jiong-HDU/cellguard/internal/mcpserver"
)

func getServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the scanner as MCP tools over stdio",
		Long: `Run an MCP server on stdin/stdout exposing two tools:

  scan_code   scan one cell; blocked results carry a rejection message
  list_rules  list the detection rules

Logs go to stderr.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return mcpserver.New(newScanner(cfg.Scanner), logger, version).ServeStdio()
		},
	}
}
