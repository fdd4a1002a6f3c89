package cli

import (
	"github.com/spf13/cobra"

	"github.com/custodia-labs/docqa/internal/adapters/driving/httpapi"
	"github.com/custodia-labs/docqa/internal/logger"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Start the HTTP API server.

Routes:
  POST /hackrx/run  answer questions about a document (Bearer token required)
  GET  /health      report the models in use

The bearer token is read from HACKRX_API_KEY or 'server.api_key' in config.toml.
The server stops gracefully on SIGINT or SIGTERM.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVarP(&serveAddr, "addr", "a", "", "listen address (default from settings, :8000)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	a, err := openApp(cmd.Context(), nil)
	if err != nil {
		return err
	}
	defer a.Close() //nolint:errcheck

	if a.Settings.Server.APIKey == "" {
		logger.Warn("No API key configured, every run request will be rejected")
	}

	addr := a.Settings.Server.Addr
	if serveAddr != "" {
		addr = serveAddr
	}

	server := httpapi.NewServer(a.Answering, httpapi.Config{
		APIKey:         a.Settings.Server.APIKey,
		RequestTimeout: a.Settings.Server.RequestTimeout,
	})
	return server.Run(cmd.Context(), addr)
}
