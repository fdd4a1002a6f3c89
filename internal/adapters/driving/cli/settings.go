package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
)

// settingsManager adds the provider reachability checks run after an
// interactive change.
type settingsManager interface {
	driving.SettingsService
	ValidateEmbeddingConfig() error
	ValidateLLMConfig() error
}

// stdin feeds the interactive prompts.
var stdin io.Reader = os.Stdin

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show or change settings",
	Long: `Print the effective settings, or change them interactively with a
subcommand. Environment overrides are included in what is shown.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective settings",
	RunE:  runSettingsShow,
}

var settingsWizardCmd = &cobra.Command{
	Use:   "wizard",
	Short: "Configure embedding, LLM and API key in one pass",
	RunE:  runSettingsWizard,
}

var settingsEmbeddingCmd = &cobra.Command{
	Use:   "embedding",
	Short: "Choose the embedding provider",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withPrompter(cmd, func(svc settingsManager, p *prompter) error {
			return p.configure(embeddingRole(svc))
		})
	},
}

var settingsLLMCmd = &cobra.Command{
	Use:   "llm",
	Short: "Choose the answering LLM provider",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withPrompter(cmd, func(svc settingsManager, p *prompter) error {
			return p.configure(llmRole(svc))
		})
	},
}

var settingsAPIKeyCmd = &cobra.Command{
	Use:   "api-key",
	Short: "Set the bearer token the HTTP API requires",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withPrompter(cmd, func(svc settingsManager, p *prompter) error {
			return p.apiKey(svc)
		})
	},
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd, settingsWizardCmd, settingsEmbeddingCmd, settingsLLMCmd, settingsAPIKeyCmd)
	rootCmd.AddCommand(settingsCmd)
}

type row struct{ label, value string }

func printSection(cmd *cobra.Command, title string, rows ...row) {
	cmd.Printf("[%s]\n", title)
	for _, r := range rows {
		if r.value == "" {
			continue
		}
		cmd.Printf("  %-18s %s\n", r.label+":", r.value)
	}
	cmd.Println()
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	svc, err := loadSettingsService()
	if err != nil {
		return err
	}
	s, err := svc.Get()
	if err != nil {
		return fmt.Errorf("reading settings: %w", err)
	}

	printSection(cmd, "server",
		row{"address", s.Server.Addr},
		row{"api key", displayKey(s.Server.APIKey)},
		row{"request timeout", s.Server.RequestTimeout.String()},
	)
	printSection(cmd, "pipeline",
		row{"chunk size", strconv.Itoa(s.Pipeline.ChunkSize)},
		row{"chunk overlap", strconv.Itoa(s.Pipeline.ChunkOverlap)},
		row{"concurrency", strconv.Itoa(s.Pipeline.ConcurrencyLimit)},
		row{"index cache", strconv.Itoa(s.Pipeline.IndexCacheSize)},
	)
	printSection(cmd, "retrieval",
		row{"k", strconv.Itoa(s.Retrieval.K)},
		row{"fetch_k", strconv.Itoa(s.Retrieval.FetchK)},
		row{"lambda", strconv.FormatFloat(s.Retrieval.Lambda, 'f', 2, 64)},
	)
	printSection(cmd, "embedding", providerRows(s.Embedding.Provider, s.Embedding.Model, s.Embedding.BaseURL, s.Embedding.APIKey, s.Embedding.IsConfigured())...)
	printSection(cmd, "llm", providerRows(s.LLM.Provider, s.LLM.Model, s.LLM.BaseURL, s.LLM.APIKey, s.LLM.IsConfigured())...)
	printSection(cmd, "index store",
		row{"kind", string(s.IndexStore.Kind)},
		row{"dsn", s.IndexStore.DSN},
	)

	if err := svc.Validate(); err != nil {
		cmd.Printf("Warning: %v\n", err)
		cmd.Println("Run 'docqa settings wizard' to fix it.")
		return nil
	}
	cmd.Println("Configuration is valid.")
	return nil
}

func providerRows(p domain.AIProvider, model, baseURL, apiKey string, configured bool) []row {
	rows := []row{
		{"provider", p.Description()},
		{"model", model},
		{"base url", baseURL},
	}
	if p.RequiresAPIKey() {
		rows = append(rows, row{"api key", displayKey(apiKey)})
	}
	status := "configured"
	if !configured {
		status = "not configured"
	}
	return append(rows, row{"status", status})
}

func runSettingsWizard(cmd *cobra.Command, _ []string) error {
	return withPrompter(cmd, func(svc settingsManager, p *prompter) error {
		steps := []struct {
			title string
			run   func() error
		}{
			{"Embedding provider", func() error { return p.configure(embeddingRole(svc)) }},
			{"LLM provider", func() error { return p.configure(llmRole(svc)) }},
			{"HTTP API key", func() error { return p.apiKey(svc) }},
		}
		for i, step := range steps {
			cmd.Printf("Step %d/%d: %s\n\n", i+1, len(steps), step.title)
			if err := step.run(); err != nil {
				return err
			}
		}

		if err := svc.Validate(); err != nil {
			cmd.Printf("Saved, with a warning: %v\n", err)
			return nil
		}
		cmd.Println("All settings are valid and saved.")
		return nil
	})
}

func withPrompter(cmd *cobra.Command, fn func(settingsManager, *prompter) error) error {
	svc, err := loadSettingsService()
	if err != nil {
		return err
	}
	return fn(svc, &prompter{cmd: cmd, in: bufio.NewReader(stdin)})
}

// role is one provider slot: embeddings or the answering LLM.
type role struct {
	name      string
	providers []domain.AIProvider
	models    map[domain.AIProvider]string
	set       func(p domain.AIProvider, model, apiKey string) error
	check     func() error
}

func embeddingRole(svc settingsManager) role {
	return role{
		name:      "Embedding",
		providers: domain.AllEmbeddingProviders(),
		models:    domain.DefaultEmbeddingModels(),
		set:       svc.SetEmbeddingProvider,
		check:     svc.ValidateEmbeddingConfig,
	}
}

func llmRole(svc settingsManager) role {
	return role{
		name:      "LLM",
		providers: domain.AllLLMProviders(),
		models:    domain.DefaultLLMModels(),
		set:       svc.SetLLMProvider,
		check:     svc.ValidateLLMConfig,
	}
}

type prompter struct {
	cmd *cobra.Command
	in  *bufio.Reader
}

func (p *prompter) configure(r role) error {
	for i, prov := range r.providers {
		p.cmd.Printf("  %d. %s\n", i+1, prov.Description())
	}
	p.cmd.Print("Provider [1]: ")
	provider := r.providers[parseChoice(p.line(), len(r.providers), 1)-1]

	model := r.models[provider]
	p.cmd.Printf("Model [%s]: ", model)
	if m := p.line(); m != "" {
		model = m
	}

	var apiKey string
	if provider.RequiresAPIKey() {
		p.cmd.Print("API key: ")
		if apiKey = p.secret(); apiKey == "" {
			return errors.New("API key is required for this provider")
		}
	}

	if err := r.set(provider, model, apiKey); err != nil {
		return fmt.Errorf("saving %s provider: %w", r.name, err)
	}

	p.cmd.Print("Checking connectivity... ")
	if err := r.check(); err != nil {
		p.cmd.Printf("FAILED: %v\n", err)
		return fmt.Errorf("%s configuration validation failed: %w", r.name, err)
	}
	p.cmd.Println("OK")
	p.cmd.Printf("%s provider configured: %s (%s)\n\n", r.name, provider.Description(), model)
	return nil
}

func (p *prompter) apiKey(svc settingsManager) error {
	s, err := svc.Get()
	if err != nil {
		return fmt.Errorf("reading settings: %w", err)
	}

	p.cmd.Printf("API key [%s]: ", displayKey(s.Server.APIKey))
	key := p.secret()
	switch {
	case key != "":
		s.Server.APIKey = key
		if err := svc.Save(s); err != nil {
			return fmt.Errorf("saving API key: %w", err)
		}
		p.cmd.Println("API key saved.")
	case s.Server.APIKey != "":
		p.cmd.Println("Keeping existing API key.")
	default:
		return errors.New("an API key is required to serve requests")
	}
	p.cmd.Println()
	return nil
}

func (p *prompter) line() string {
	s, _ := p.in.ReadString('\n')
	return strings.TrimSpace(s)
}

// secret reads without echo on a terminal.
func (p *prompter) secret() string {
	defer p.cmd.Println()
	if f, ok := stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		if b, err := term.ReadPassword(int(f.Fd())); err == nil {
			return strings.TrimSpace(string(b))
		}
	}
	return p.line()
}

// parseChoice maps a 1-based menu answer into [1, n], falling back to def.
func parseChoice(input string, n, def int) int {
	v, err := strconv.Atoi(input)
	if err != nil || v < 1 || v > n {
		return def
	}
	return v
}

func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}

func displayKey(key string) string {
	if key == "" {
		return "(not set)"
	}
	return maskAPIKey(key)
}
