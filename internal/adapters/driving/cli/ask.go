package cli

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/manualqa/internal/core/domain"
)

var (
	askFiles     []string
	askSessionID string
	askJSON      bool
	askProvider  providerFlags
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Answer one question from manuals",
	Long: `Load the given manuals into a fresh session and answer a single question
from them. The answer cites the passages it used as [file#N].

Examples:
  manualqa ask -f hp200.pdf "How often should the hydraulic filter be replaced?"
  manualqa ask -f a.pdf -f b.html -p gemini -m gemini-2.5-flash "What is the max pressure?"
  manualqa ask -f hp200.pdf -p ollama -m llama3.2 --json "Which oil grade?"`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().StringArrayVarP(&askFiles, "file", "f", nil, "manual to load (.pdf, .html, .htm); repeatable")
	askCmd.Flags().StringVar(&askSessionID, "session", "", "session id (default: a new random id)")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output the answer and sources as JSON")
	askProvider.register(askCmd)
	rootCmd.AddCommand(askCmd)
}

// askOutput is the --json shape.
type askOutput struct {
	Answer   string      `json:"answer"`
	Grounded bool        `json:"grounded"`
	Provider string      `json:"provider,omitempty"`
	Model    string      `json:"model,omitempty"`
	Sources  []askSource `json:"sources"`
}

type askSource struct {
	Label   string  `json:"label"`
	Page    int     `json:"page,omitempty"`
	Score   float64 `json:"score"`
	Content string  `json:"content"`
}

func runAsk(cmd *cobra.Command, args []string) error {
	if answerService == nil {
		return errNoAnswer
	}

	cfg, err := askProvider.config(cmd)
	if err != nil {
		return err
	}

	sessionID := askSessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	ctx := cmd.Context()
	if err := ingestFiles(ctx, cmd, sessionID, askFiles); err != nil {
		return err
	}
	defer removeSession(cmd, sessionID)

	answer, err := answerService.Ask(ctx, sessionID, args[0], cfg, askProvider.k)
	if err != nil {
		return explain(err)
	}

	if askJSON {
		return outputAnswerJSON(cmd, answer)
	}
	cmd.Println(answer.Text)
	printSources(cmd, answer.Sources)
	return nil
}

func outputAnswerJSON(cmd *cobra.Command, answer *domain.Answer) error {
	out := askOutput{
		Answer:   answer.Text,
		Grounded: answer.Grounded,
		Provider: string(answer.Provider),
		Model:    answer.Model,
		Sources:  make([]askSource, len(answer.Sources)),
	}
	for i, sc := range answer.Sources {
		out.Sources[i] = askSource{
			Label:   sc.Chunk.Label(),
			Page:    sc.Chunk.Page,
			Score:   sc.Score,
			Content: sc.Chunk.Content,
		}
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal answer: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

// removeSession drops a one-shot session. Failures are only logged.
func removeSession(cmd *cobra.Command, sessionID string) {
	if sessionService == nil {
		return
	}
	if err := sessionService.RemoveSession(cmd.Context(), sessionID); err != nil {
		cmd.PrintErrf("warning: removing session %s: %v\n", sessionID, err)
	}
}
