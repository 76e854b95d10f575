// Package cli implements the manualqa command line with cobra.
//
// Commands read their services from package-level ports set with
// SetServices, or built lazily by the Bootstrap hook on first use.
package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/manualqa/internal/core/ports/driving"
	"github.com/custodia-labs/manualqa/internal/logger"
)

// version is set at build time with -ldflags "-X .../cli.version=...".
var version = "dev"

// annotationNoServices marks commands that run without the service graph.
const annotationNoServices = "manualqa/no-services"

var (
	ingestService   driving.IngestService
	answerService   driving.AnswerService
	sessionService  driving.SessionService
	providerCatalog driving.ProviderCatalog
	settingsService driving.SettingsService
	healthService   driving.HealthService
)

// Services holds the driving ports used by the commands.
type Services struct {
	Ingest    driving.IngestService
	Answer    driving.AnswerService
	Sessions  driving.SessionService
	Providers driving.ProviderCatalog
	Settings  driving.SettingsService
	Health    driving.HealthService

	// Close releases adapters. Optional.
	Close func() error
}

// Options are the global flags passed to Bootstrap.
type Options struct {
	ConfigDir string
	Verbose   bool
}

// Bootstrap builds the service graph for the given options.
type Bootstrap func(ctx context.Context, opts Options) (*Services, error)

var (
	bootstrap    Bootstrap
	closeAdapter func() error

	verbose   bool
	configDir string
)

var rootCmd = &cobra.Command{
	Use:   "manualqa",
	Short: "Ask cited questions about machine manuals",
	Long: `manualqa loads PDF and HTML machine manuals into a session, finds the
passages relevant to a question and asks an LLM (Groq, Gemini or a local
Ollama model) to answer from those passages, citing them as [file#N].`,
	SilenceUsage:       true,
	PersistentPreRunE:  setup,
	PersistentPostRunE: teardown,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log pipeline steps at debug level")
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "configuration directory (default ~/.manualqa)")
}

// SetServices installs the ports used by the commands.
func SetServices(s *Services) {
	if s == nil {
		s = &Services{}
	}
	ingestService = s.Ingest
	answerService = s.Answer
	sessionService = s.Sessions
	providerCatalog = s.Providers
	settingsService = s.Settings
	healthService = s.Health
	closeAdapter = s.Close
}

// SetBootstrap sets the hook that builds services before a command runs.
func SetBootstrap(b Bootstrap) {
	bootstrap = b
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func setup(cmd *cobra.Command, _ []string) error {
	logger.SetVerbose(verbose)

	if bootstrap == nil || cmd.Annotations[annotationNoServices] == "true" {
		return nil
	}
	s, err := bootstrap(cmd.Context(), Options{ConfigDir: configDir, Verbose: verbose})
	if err != nil {
		return err
	}
	SetServices(s)
	return nil
}

func teardown(_ *cobra.Command, _ []string) error {
	if closeAdapter == nil {
		return nil
	}
	err := closeAdapter()
	closeAdapter = nil
	return err
}

var (
	errNoIngest   = errors.New("ingest service not configured")
	errNoAnswer   = errors.New("answer service not configured")
	errNoSettings = errors.New("settings service not configured")
	errNoHealth   = errors.New("health service not configured")
)
