package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docqa/internal/adapters/driving/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Model Context Protocol integration",
}

var mcpPort int

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Expose docqa to MCP clients",
	Long: `Serve the answer_questions tool and the settings resource over MCP.

Without --port the server speaks JSON-RPC on stdin and stdout, which is
what desktop assistants launch:

  {"mcpServers": {"docqa": {"command": "docqa", "args": ["mcp", "serve"]}}}

With --port it serves the streamable HTTP transport instead, for the MCP
Inspector or remote clients:

  docqa mcp serve --port 8080`,
	RunE: runMCPServe,
}

func init() {
	mcpServeCmd.Flags().IntVarP(&mcpPort, "port", "p", 0, "serve HTTP on this port instead of stdio")
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	a, err := openApp(cmd.Context(), nil)
	if err != nil {
		return err
	}
	defer a.Close() //nolint:errcheck

	server, err := mcp.NewServer(&mcp.Ports{
		Answering: a.Answering,
		Settings:  a.SettingsService,
	}, mcp.WithVersion(version))
	if err != nil {
		return err
	}

	if mcpPort > 0 {
		return server.RunHTTP(cmd.Context(), fmt.Sprintf(":%d", mcpPort))
	}
	return server.Run(cmd.Context())
}
