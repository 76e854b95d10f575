package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/manualqa/internal/core/domain"
)

var providersJSON bool

var providersCmd = &cobra.Command{
	Use:   "providers",
	Short: "List LLM providers and models",
	Long: `List the LLM providers and models accepted by ask and chat, with the
environment variable each provider reads its API key from.`,
	Args: cobra.NoArgs,
	RunE: runProviders,
}

func init() {
	providersCmd.Flags().BoolVar(&providersJSON, "json", false, "output the catalogue as JSON")
	rootCmd.AddCommand(providersCmd)
}

func runProviders(cmd *cobra.Command, _ []string) error {
	providers := domain.SupportedProviders()
	if providerCatalog != nil {
		providers = providerCatalog.ListSupportedProviders()
	}

	if providersJSON {
		data, err := json.MarshalIndent(providers, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal providers: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	for _, p := range providers {
		cmd.Printf("%s (%s)\n", p.DisplayName, p.Name)
		if p.RequiresAPIKey {
			cmd.Printf("  API key: $%s", p.KeyEnvVar)
			if p.KeyURL != "" {
				cmd.Printf(" (get one at %s)", p.KeyURL)
			}
			cmd.Println()
		}
		cmd.Printf("  Models: %s\n", strings.Join(p.ModelIDs(), ", "))
		cmd.Println()
	}
	return nil
}
