// Package cli provides the docqa command line interface.
package cli

import (
	"context"
	"errors"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/docqa/internal/app"
	"github.com/custodia-labs/docqa/internal/core/services"
	"github.com/custodia-labs/docqa/internal/logger"
)

var (
	version = "dev"

	verbose   bool
	configDir string
	envFile   string
)

// openApp assembles the answering pipeline. Tests replace it.
var openApp = func(ctx context.Context, progress services.ProgressFunc) (*app.App, error) {
	return app.New(ctx, app.Options{ConfigDir: configDir, Progress: progress})
}

// settingsService is the settings port used by the settings commands.
// It is opened lazily from the config directory unless set by SetSettingsService.
var settingsService settingsManager

var rootCmd = &cobra.Command{
	Use:   "docqa",
	Short: "Answer questions about PDF and DOCX documents",
	Long: `docqa answers natural-language questions about a single remote PDF or DOCX
document. The document is fetched, split into overlapping chunks and embedded,
then every question is answered concurrently from the most relevant chunks.

Run 'docqa serve' to start the HTTP API or 'docqa ask' for a one-shot run.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "print pipeline debug logs")
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "configuration directory (default ~/.docqa)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before reading settings")
}

// SetVersion sets the version reported by 'docqa version'.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// SetSettingsService injects the settings port.
func SetSettingsService(s settingsManager) {
	settingsService = s
}

// Execute runs the root command with the given context.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func setup(_ *cobra.Command, _ []string) error {
	logger.SetVerbose(verbose)
	logger.SetColour(term.IsTerminal(int(os.Stderr.Fd())))

	if envFile == "" {
		return nil
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// loadSettingsService returns the injected settings port or opens one.
func loadSettingsService() (settingsManager, error) {
	if settingsService != nil {
		return settingsService, nil
	}
	svc, err := app.NewSettingsService(app.Options{ConfigDir: configDir})
	if err != nil {
		return nil, err
	}
	settingsService = svc
	return svc, nil
}
