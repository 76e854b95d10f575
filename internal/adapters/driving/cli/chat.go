package cli

import (
	"bufio"
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/manualqa/internal/core/domain"
)

var (
	chatFiles    []string
	chatProvider providerFlags
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Ask questions about manuals interactively",
	Long: `Load the given manuals into a session and answer questions read from stdin
until EOF or /quit.

Commands:
  /sources            - Toggle printing sources under each answer
  /docs               - List the loaded documents
  /provider NAME [M]  - Switch provider (and model) for the next questions
  /quit               - Exit`,
	Args: cobra.NoArgs,
	RunE: runChat,
}

func init() {
	chatCmd.Flags().StringArrayVarP(&chatFiles, "file", "f", nil, "manual to load (.pdf, .html, .htm); repeatable")
	chatProvider.register(chatCmd)
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, _ []string) error {
	if answerService == nil {
		return errNoAnswer
	}

	cfg, err := chatProvider.config(cmd)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	sessionID := uuid.NewString()
	if err := ingestFiles(ctx, cmd, sessionID, chatFiles); err != nil {
		return err
	}
	defer removeSession(cmd, sessionID)

	c := &chat{cmd: cmd, sessionID: sessionID, cfg: cfg, showSources: true}
	cmd.PrintErrf("Using %s. Type /quit to exit.\n", cfg)

	scanner := bufio.NewScanner(cmd.InOrStdin())
	for {
		cmd.PrintErr("> ")
		if !scanner.Scan() {
			cmd.PrintErrln()
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if done := c.handle(ctx, line); done {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
	}
}

// chat holds the state of one interactive session.
type chat struct {
	cmd         *cobra.Command
	sessionID   string
	cfg         domain.ProviderConfig
	showSources bool
}

// handle runs one input line and reports whether the loop should stop.
func (c *chat) handle(ctx context.Context, line string) bool {
	if strings.HasPrefix(line, "/") {
		return c.command(ctx, strings.Fields(line))
	}

	answer, err := answerService.Ask(ctx, c.sessionID, line, c.cfg, chatProvider.k)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return true
		}
		c.cmd.PrintErrf("error: %v\n", explain(err))
		return false
	}

	c.cmd.Println(answer.Text)
	if c.showSources {
		printSources(c.cmd, answer.Sources)
	}
	c.cmd.Println()
	return false
}

func (c *chat) command(ctx context.Context, fields []string) bool {
	switch fields[0] {
	case "/quit", "/exit":
		return true

	case "/sources":
		c.showSources = !c.showSources
		state := "off"
		if c.showSources {
			state = "on"
		}
		c.cmd.PrintErrf("sources %s\n", state)

	case "/docs":
		if sessionService == nil {
			c.cmd.PrintErrln("session service not configured")
			return false
		}
		info, err := sessionService.Session(ctx, c.sessionID)
		if err != nil {
			c.cmd.PrintErrf("error: %v\n", err)
			return false
		}
		for _, d := range info.Documents {
			c.cmd.Printf("  %s (%s, %d pages)\n", d.Filename, d.Format, d.PageCount)
		}
		c.cmd.Printf("  %d chunks\n", info.Chunks)

	case "/provider":
		if len(fields) < 2 {
			c.cmd.PrintErrln("usage: /provider NAME [MODEL]")
			return false
		}
		next := providerFlags{provider: fields[1], temperature: c.cfg.Temperature}
		if len(fields) > 2 {
			next.model = fields[2]
		}
		if domain.ProviderName(strings.ToLower(fields[1])) == c.cfg.Provider {
			next.apiKey = c.cfg.Credential
		}
		cfg, err := next.config(c.cmd)
		if err != nil {
			c.cmd.PrintErrf("error: %v\n", err)
			return false
		}
		c.cfg = cfg
		c.cmd.PrintErrf("Using %s.\n", cfg)

	default:
		c.cmd.PrintErrf("unknown command %s\n", fields[0])
	}
	return false
}
