package cli

import (
	"fmt"

	"github.com/neilberkman/dmclient/cmd/dmclient/mcp"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "serve-mcp",
	Short: "Start MCP server exposing the archive catalog",
	Long: `Start an MCP (Model Context Protocol) server over stdio that lets an
assistant list, look up and search cataloged campaign archives.

Example client configuration:
  {
    "mcpServers": {
      "dmclient": {
        "command": "dmclient",
        "args": ["serve-mcp"]
      }
    }
  }
`,
	RunE: runMCP,
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(cmd *cobra.Command, args []string) error {
	if err := mcp.StartServer(dbPath, cfg.ArchiveDir, logger); err != nil {
		return fmt.Errorf("MCP server failed: %w", err)
	}
	return nil
}
