package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var healthJSON bool

var errUnhealthy = errors.New("health check failed")

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check the embedding service and LLM providers",
	Long: `Ping the configured embedding service and list the LLM providers that
ask and chat can build. Exits non-zero when the embedder is unreachable or no
provider is registered.`,
	Args: cobra.NoArgs,
	RunE: runHealth,
}

func init() {
	healthCmd.Flags().BoolVar(&healthJSON, "json", false, "output the report as JSON")
	rootCmd.AddCommand(healthCmd)
}

func runHealth(cmd *cobra.Command, _ []string) error {
	if healthService == nil {
		return errNoHealth
	}

	report := healthService.Check(cmd.Context())

	if healthJSON {
		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal health report: %w", err)
		}
		cmd.Println(string(data))
	} else {
		cmd.Printf("Embedding: %s ", report.EmbeddingModel)
		if report.EmbeddingReachable {
			cmd.Println("OK")
		} else {
			cmd.Printf("UNREACHABLE (%s)\n", report.EmbeddingError)
		}

		names := make([]string, len(report.Providers))
		for i, p := range report.Providers {
			names[i] = string(p)
		}
		if len(names) == 0 {
			cmd.Println("LLM providers: none registered")
		} else {
			cmd.Printf("LLM providers: %s\n", strings.Join(names, ", "))
		}
	}

	if !report.Healthy() {
		return errUnhealthy
	}
	return nil
}
