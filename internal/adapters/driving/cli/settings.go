package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/manualqa/internal/core/domain"
)

// secretKeys are masked when printed.
var secretKeys = map[string]bool{"embedding.api_key": true}

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and configure embedding, chunking, retrieval and logging settings.

Settings are stored in config.toml in the configuration directory.
Environment variables override stored values, e.g. MANUALQA_CHUNKING_SIZE=500.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runSettingsShow,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a single setting",
	Long: `Validate and persist a single setting.

Examples:
  manualqa settings set retrieval.top_k 6
  manualqa settings set retrieval.strategy mmr
  manualqa settings set embedding.provider hash
  manualqa settings set answer.empty_context refuse`,
	Args: cobra.ExactArgs(2),
	RunE: runSettingsSet,
}

var settingsKeysCmd = &cobra.Command{
	Use:   "keys",
	Short: "List settable keys",
	Args:  cobra.NoArgs,
	RunE:  runSettingsKeys,
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	settingsCmd.AddCommand(settingsKeysCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errNoSettings
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println("Current Settings")
	cmd.Println("================")
	cmd.Println()

	cmd.Println("[Embedding]")
	cmd.Printf("  Provider: %s\n", settings.Embedding.Provider.Description())
	cmd.Printf("  Model: %s\n", settings.Embedding.Model)
	if settings.Embedding.Provider != domain.EmbeddingProviderHash {
		cmd.Printf("  Base URL: %s\n", settings.Embedding.BaseURL)
	}
	if settings.Embedding.Provider == domain.EmbeddingProviderOpenAI {
		if settings.Embedding.APIKey != "" {
			cmd.Printf("  API Key: %s\n", maskAPIKey(settings.Embedding.APIKey))
		} else {
			cmd.Printf("  API Key: (not set)\n")
		}
	}
	cmd.Printf("  Batch size: %d\n", settings.Embedding.BatchSize)
	cmd.Printf("  Cache: %s (%d entries)\n", settings.Embedding.Cache, settings.Embedding.CacheSize)
	cmd.Println()

	cmd.Println("[Chunking]")
	cmd.Printf("  Size: %d characters\n", settings.Chunking.Size)
	cmd.Printf("  Overlap: %d characters\n", settings.Chunking.Overlap)
	cmd.Println()

	cmd.Println("[Retrieval]")
	cmd.Printf("  Top K: %d\n", settings.Retrieval.TopK)
	cmd.Printf("  Strategy: %s\n", settings.Retrieval.Strategy.Description())
	if settings.Retrieval.MinScore > 0 {
		cmd.Printf("  Min score: %.2f\n", settings.Retrieval.MinScore)
	} else {
		cmd.Printf("  Min score: (disabled)\n")
	}
	cmd.Printf("  Index: %s\n", settings.Index.Backend)
	cmd.Println()

	cmd.Println("[Answer]")
	cmd.Printf("  Empty context: %s\n", settings.Answer.EmptyContext)
	if settings.Answer.MaxTokens > 0 {
		cmd.Printf("  Max tokens: %d\n", settings.Answer.MaxTokens)
	}
	cmd.Println()

	cmd.Println("[LLM]")
	cmd.Printf("  Max attempts: %d\n", settings.LLM.MaxAttempts)
	cmd.Printf("  Requests per second: %g\n", settings.LLM.RequestsPerSecond)
	cmd.Printf("  Timeout: %ds\n", settings.LLM.TimeoutSeconds)
	cmd.Printf("  Ollama URL: %s\n", settings.LLM.OllamaURL)
	cmd.Println()

	cmd.Println("[Log]")
	cmd.Printf("  Level: %s\n", settings.Log.Level)
	cmd.Printf("  Format: %s\n", settings.Log.Format)
	if settings.Log.File != "" {
		cmd.Printf("  File: %s\n", settings.Log.File)
	}
	cmd.Println()

	if err := settingsService.Validate(); err != nil {
		cmd.Printf("Warning: %v\n", err)
		cmd.Println("Run 'manualqa settings set <key> <value>' to fix configuration issues.")
	} else {
		cmd.Println("Configuration is valid.")
	}

	return nil
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errNoSettings
	}

	key, value := strings.TrimSpace(args[0]), args[1]
	if err := settingsService.Set(key, value); err != nil {
		return err
	}

	shown := value
	if secretKeys[key] {
		shown = maskAPIKey(value)
	}
	cmd.Printf("Set %s = %s\n", key, shown)
	return nil
}

func runSettingsKeys(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errNoSettings
	}
	for _, key := range settingsService.Keys() {
		cmd.Println(key)
	}
	return nil
}

func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
