package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/manualqa/internal/core/domain"
	"github.com/custodia-labs/manualqa/internal/core/ports/driven"
	"github.com/custodia-labs/manualqa/internal/core/ports/driving"
	"github.com/custodia-labs/manualqa/internal/logger"
)

// Ensure AnswerService implements the interface.
var _ driving.AnswerService = (*AnswerService)(nil)

// NoContextMarker replaces the context block when retrieval finds nothing.
const NoContextMarker = "NO SUPPORTING CONTEXT FOUND"

// RefusalText is the answer returned under the refuse policy when retrieval finds nothing.
const RefusalText = "The uploaded documents do not contain enough information to answer this question."

// AnswerService retrieves context and asks the selected provider for a cited answer.
type AnswerService struct {
	retriever *Retriever
	providers driven.LLMProviderFactory
	prompts   driven.PromptStore
	settings  domain.AnswerSettings
}

// NewAnswerService creates an answer service.
func NewAnswerService(retriever *Retriever, providers driven.LLMProviderFactory, settings domain.AnswerSettings) *AnswerService {
	if !settings.EmptyContext.IsValid() {
		settings.EmptyContext = domain.EmptyContextGenerate
	}
	return &AnswerService{retriever: retriever, providers: providers, settings: settings}
}

// SetPromptStore sets the store for customised prompt texts.
func (s *AnswerService) SetPromptStore(store driven.PromptStore) {
	s.prompts = store
}

// Retrieve returns the chunks Ask would use.
func (s *AnswerService) Retrieve(ctx context.Context, sessionID, question string, k int) (domain.RetrievalResult, error) {
	return s.retriever.Retrieve(ctx, sessionID, question, k)
}

// Ask answers question from the session's documents using the provider in cfg.
// It never modifies the session.
func (s *AnswerService) Ask(
	ctx context.Context, sessionID, question string, cfg domain.ProviderConfig, k int,
) (*domain.Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, fmt.Errorf("%w: question is required", domain.ErrInvalidInput)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	result, err := s.retriever.Retrieve(ctx, sessionID, question, k)
	if err != nil {
		return nil, err
	}

	if len(result) == 0 && s.settings.EmptyContext == domain.EmptyContextRefuse {
		logger.Debug("no context for session %s, refusing", sessionID)
		return &domain.Answer{Text: RefusalText, Sources: domain.RetrievalResult{}}, nil
	}

	logger.Section("Generation")
	system := s.prompt(driven.PromptAnswerSystem, driven.DefaultAnswerSystemPrompt)
	prompt := buildPrompt(s.prompt(driven.PromptAnswerCitations, driven.DefaultAnswerCitationsPrompt), question, result)

	genErr := func(err error) error {
		return &domain.GenerationError{Provider: cfg.Provider, Model: cfg.Model, Err: err}
	}

	provider, err := s.providers.Provider(ctx, cfg)
	if err != nil {
		return nil, genErr(err)
	}

	text, err := provider.Generate(ctx, prompt, driven.GenerateOptions{
		System:      system,
		Temperature: cfg.Temperature,
		MaxTokens:   s.settings.MaxTokens,
	})
	if err != nil {
		logger.Warn("generation with %s failed: %v", cfg, err)
		return nil, genErr(err)
	}

	logger.Debug("generated %d characters with %s", len(text), cfg)
	return &domain.Answer{
		Text:     strings.TrimSpace(text),
		Sources:  result,
		Grounded: len(result) > 0,
		Provider: provider.Name(),
		Model:    provider.ModelName(),
	}, nil
}

// prompt loads a customised prompt, falling back to def.
func (s *AnswerService) prompt(name, def string) string {
	if s.prompts == nil {
		return def
	}
	text, err := s.prompts.Load(name)
	if err != nil || strings.TrimSpace(text) == "" {
		logger.Debug("using default %s prompt: %v", name, err)
		return def
	}
	return text
}

// BuildPrompt assembles the labelled context blocks, question and default
// citation instructions. The system prompt travels separately in
// GenerateOptions.System.
func BuildPrompt(question string, result domain.RetrievalResult) string {
	return buildPrompt(driven.DefaultAnswerCitationsPrompt, question, result)
}

func buildPrompt(citations, question string, result domain.RetrievalResult) string {
	var b strings.Builder
	b.WriteString("Context:\n")

	if len(result) == 0 {
		b.WriteString(NoContextMarker)
		b.WriteString("\n")
	}
	for i, sc := range result {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString("[")
		b.WriteString(sc.Chunk.Label())
		b.WriteString("]")
		if sc.Chunk.Page > 0 {
			fmt.Fprintf(&b, " (page %d)", sc.Chunk.Page)
		}
		b.WriteString("\n")
		b.WriteString(strings.TrimSpace(sc.Chunk.Content))
		b.WriteString("\n")
	}

	b.WriteString("\nQuestion: ")
	b.WriteString(question)
	b.WriteString("\n\n")
	b.WriteString(citations)
	b.WriteString("\n\nAnswer:")
	return b.String()
}
