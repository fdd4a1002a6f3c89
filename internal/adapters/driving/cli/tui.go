package cli

import (
	"fmt"
	"runtime/debug"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docqa/internal/adapters/driving/tui"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
	"github.com/custodia-labs/docqa/internal/logger"
)

var tuiInline bool

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Ask questions about a document interactively",
	Long: `Open the terminal UI: enter a document URL, queue questions, read the
answers and switch providers without editing config.toml.

  Tab       document / question field
  Enter     queue question, select
  Ctrl+R    answer the queue
  j/k       move through answers
  n         more questions, same document
  Esc       back
  Ctrl+C    quit`,
	RunE: runTUI,
}

// runProgram is swapped out in tests, which have no terminal.
var runProgram = func(app *tui.App) error {
	return app.Run()
}

func init() {
	tuiCmd.Flags().BoolVar(&tuiInline, "inline", false, "draw in the normal screen buffer instead of the alternate screen")
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, _ []string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			logger.Debug("tui panic stack:\n%s", debug.Stack())
			err = fmt.Errorf("tui: panic: %v", r)
		}
	}()

	a, err := openApp(cmd.Context(), nil)
	if err != nil {
		return err
	}
	defer a.Close() //nolint:errcheck

	var settings driving.SettingsService
	if a.SettingsService != nil {
		settings = a.SettingsService
	}

	ui, err := tui.NewApp(tui.NewPorts(a.Answering, settings))
	if err != nil {
		return fmt.Errorf("tui: %w", err)
	}
	ui.WithContext(cmd.Context())
	if tuiInline {
		ui.Inline()
	}

	if err := runProgram(ui); err != nil {
		return fmt.Errorf("tui: %w", err)
	}
	return nil
}
