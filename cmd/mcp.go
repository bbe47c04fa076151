package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	mcpserver "github.com/ziadkadry99/datenollm/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP server for AI agent integration",
	Long:  `Starts a Model Context Protocol (MCP) server on stdio exposing the ask, filter and history_context tools.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		// Stdout carries the protocol, so logs stay on stderr.
		orch, err := createOrchestrator(cfg, newLogger(cfg.LogLevel))
		if err != nil {
			return err
		}

		mcpserver.Version = Version

		fmt.Fprintf(os.Stderr, "datenollm MCP server started on stdio (model=%s)\n", orch.Settings().Model)

		return mcpserver.NewServer(orch).Serve()
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
