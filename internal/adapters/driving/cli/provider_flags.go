package cli

import (
	"bufio"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/manualqa/internal/core/domain"
)

// Overridable in tests.
var (
	lookupEnv    = os.Getenv
	stdinIsTerm  = func() bool { return term.IsTerminal(int(os.Stdin.Fd())) }
	readPassword = readPasswordStdin
)

// providerFlags are the per-request provider selection flags shared by ask and chat.
type providerFlags struct {
	provider    string
	model       string
	apiKey      string
	temperature float64
	k           int
}

func (f *providerFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.provider, "provider", "p", string(domain.ProviderGroq), "LLM provider: groq, gemini or ollama")
	cmd.Flags().StringVarP(&f.model, "model", "m", "", "model id (default: the provider's first catalogued model)")
	cmd.Flags().StringVar(&f.apiKey, "api-key", "", "provider API key (default: from the environment)")
	cmd.Flags().Float64VarP(&f.temperature, "temperature", "t", domain.DefaultTemperature, "sampling temperature (0-2)")
	cmd.Flags().IntVarP(&f.k, "top-k", "k", 0, "context chunks per question (default from settings)")
}

// config validates the flags into a ProviderConfig, prompting for a missing
// API key when stdin is a terminal.
func (f *providerFlags) config(cmd *cobra.Command) (domain.ProviderConfig, error) {
	name := domain.ProviderName(strings.ToLower(strings.TrimSpace(f.provider)))
	model := f.model
	if model == "" {
		model = domain.DefaultModel(name)
	}

	cfg, err := domain.NewProviderConfig(string(name), model, f.apiKey, f.temperature)
	if err != nil {
		return domain.ProviderConfig{}, explain(err)
	}

	if cfg.Credential == "" && cfg.Provider.RequiresAPIKey() && !credentialInEnv(cfg.Provider) && stdinIsTerm() {
		cmd.PrintErrf("%s API key: ", cfg.Provider.Description())
		key := readPassword()
		cmd.PrintErrln()
		cfg = cfg.WithCredential(strings.TrimSpace(key))
	}
	return cfg, nil
}

func credentialInEnv(p domain.ProviderName) bool {
	for _, v := range p.CredentialEnvVars() {
		if lookupEnv(v) != "" {
			return true
		}
	}
	return false
}

//nolint:errcheck // CLI helper, error ignored for UX
func readPasswordStdin() string {
	// Try to read password without echo
	if term.IsTerminal(int(os.Stdin.Fd())) {
		password, err := term.ReadPassword(int(os.Stdin.Fd()))
		if err == nil {
			return string(password)
		}
	}
	// Fallback to regular input
	reader := bufio.NewReader(os.Stdin)
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}
