package mcp

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/manualqa/internal/core/domain"
)

// maxFileBytes bounds a single uploaded or read file.
const maxFileBytes = 64 << 20

// FileInput is one uploaded file. Exactly one of Path and ContentBase64 is set.
type FileInput struct {
	Filename      string `json:"filename,omitempty" jsonschema:"name the file is cited under; defaults to the base name of path"`
	Path          string `json:"path,omitempty" jsonschema:"local path of a .pdf, .html or .htm file"`
	ContentBase64 string `json:"content_base64,omitempty" jsonschema:"base64-encoded file content"`
}

// IngestFilesInput is the input schema for the ingest_files tool.
type IngestFilesInput struct {
	SessionID string      `json:"session_id" jsonschema:"session to load the files into; created on first use"`
	Files     []FileInput `json:"files" jsonschema:"files to load"`
}

// IngestFilesOutput is the output schema for the ingest_files tool.
type IngestFilesOutput struct {
	SessionID string             `json:"session_id"`
	Results   []FileResultOutput `json:"results"`
	Ingested  int                `json:"ingested"`
	Failed    int                `json:"failed"`
}

// FileResultOutput reports the outcome for one file.
type FileResultOutput struct {
	Filename   string `json:"filename"`
	DocumentID string `json:"document_id,omitempty"`
	Chunks     int    `json:"chunks"`
	Error      string `json:"error,omitempty"`
}

// AskInput is the input schema for the ask tool.
type AskInput struct {
	SessionID   string   `json:"session_id" jsonschema:"session holding the uploaded manuals"`
	Question    string   `json:"question" jsonschema:"the question to answer"`
	Provider    string   `json:"provider" jsonschema:"LLM provider: groq, gemini or ollama"`
	Model       string   `json:"model,omitempty" jsonschema:"model id; defaults to the provider's first catalogued model"`
	APIKey      string   `json:"api_key,omitempty" jsonschema:"provider API key; defaults to the provider's environment variable"`
	Temperature *float64 `json:"temperature,omitempty" jsonschema:"sampling temperature between 0 and 2 (default 0.7)"`
	K           int      `json:"k,omitempty" jsonschema:"number of context chunks (default from settings)"`
}

// AskOutput is the output schema for the ask tool.
type AskOutput struct {
	Answer   string         `json:"answer"`
	Grounded bool           `json:"grounded"`
	Provider string         `json:"provider,omitempty"`
	Model    string         `json:"model,omitempty"`
	Sources  []SourceOutput `json:"sources"`
}

// SourceOutput is one retrieved chunk.
type SourceOutput struct {
	Label    string  `json:"label"`
	Filename string  `json:"filename"`
	Page     int     `json:"page,omitempty"`
	Score    float64 `json:"score"`
	Content  string  `json:"content"`
}

// RetrieveInput is the input schema for the retrieve tool.
type RetrieveInput struct {
	SessionID string `json:"session_id" jsonschema:"session holding the uploaded manuals"`
	Query     string `json:"query" jsonschema:"text to find relevant passages for"`
	K         int    `json:"k,omitempty" jsonschema:"number of chunks (default from settings)"`
}

// RetrieveOutput is the output schema for the retrieve tool.
type RetrieveOutput struct {
	Sources []SourceOutput `json:"sources"`
	Count   int            `json:"count"`
}

// SessionInput identifies a session.
type SessionInput struct {
	SessionID string `json:"session_id" jsonschema:"the session id"`
}

// RemoveSessionOutput is the output schema for the remove_session tool.
type RemoveSessionOutput struct {
	Removed bool `json:"removed"`
}

// ListProvidersOutput is the output schema for the list_providers tool.
type ListProvidersOutput struct {
	Providers []domain.ProviderInfo `json:"providers"`
}

// HealthOutput is the output schema for the health tool.
type HealthOutput struct {
	Healthy            bool     `json:"healthy"`
	EmbeddingModel     string   `json:"embedding_model"`
	EmbeddingReachable bool     `json:"embedding_reachable"`
	EmbeddingError     string   `json:"embedding_error,omitempty"`
	Providers          []string `json:"providers"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ingest_files",
		Description: "Load PDF or HTML manuals into a session so they can be questioned",
	}, s.handleIngestFiles)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ask",
		Description: "Answer a question from a session's manuals with cited sources",
	}, s.handleAsk)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "retrieve",
		Description: "Return the manual passages most relevant to a query, without generating an answer",
	}, s.handleRetrieve)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "remove_session",
		Description: "Delete a session and everything loaded into it",
	}, s.handleRemoveSession)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_providers",
		Description: "List the LLM providers and models that ask accepts",
	}, s.handleListProviders)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "health",
		Description: "Check that the embedding service is reachable and list the LLM providers ask can use",
	}, s.handleHealth)
}

func (s *Server) handleIngestFiles(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input IngestFilesInput,
) (*mcp.CallToolResult, IngestFilesOutput, error) {
	if len(input.Files) == 0 {
		return nil, IngestFilesOutput{}, fmt.Errorf("%w: no files given", domain.ErrInvalidInput)
	}

	output := IngestFilesOutput{SessionID: input.SessionID}

	// Files that cannot be read are reported alongside the loader results.
	var (
		raws  []domain.RawDocument
		slots []int
	)
	output.Results = make([]FileResultOutput, len(input.Files))
	for i, f := range input.Files {
		raw, err := readFile(f)
		output.Results[i].Filename = raw.Filename
		if err != nil {
			output.Results[i].Error = err.Error()
			continue
		}
		raws = append(raws, raw)
		slots = append(slots, i)
	}

	if len(raws) > 0 {
		results, err := s.ports.Ingest.Ingest(ctx, input.SessionID, raws)
		if err != nil {
			return nil, IngestFilesOutput{}, err
		}
		for j, r := range results {
			out := &output.Results[slots[j]]
			out.DocumentID = r.DocumentID
			out.Chunks = r.Chunks
			if r.Err != nil {
				out.Error = r.Err.Error()
			}
		}
	}

	for _, r := range output.Results {
		if r.Error == "" {
			output.Ingested++
		} else {
			output.Failed++
		}
	}
	return nil, output, nil
}

// readFile resolves a FileInput into a raw document.
func readFile(f FileInput) (domain.RawDocument, error) {
	raw := domain.RawDocument{Filename: f.Filename}
	if raw.Filename == "" && f.Path != "" {
		raw.Filename = filepath.Base(f.Path)
	}

	switch {
	case f.Path != "" && f.ContentBase64 != "":
		return raw, errors.New("set either path or content_base64, not both")
	case f.Path != "":
		info, err := os.Stat(f.Path)
		if err != nil {
			return raw, fmt.Errorf("reading %s: %w", f.Path, err)
		}
		if info.Size() > maxFileBytes {
			return raw, fmt.Errorf("%s is larger than %d MiB", f.Path, maxFileBytes>>20)
		}
		data, err := os.ReadFile(f.Path)
		if err != nil {
			return raw, fmt.Errorf("reading %s: %w", f.Path, err)
		}
		raw.Content = data
	case f.ContentBase64 != "":
		if raw.Filename == "" {
			return raw, errors.New("filename is required with content_base64")
		}
		data, err := base64.StdEncoding.DecodeString(f.ContentBase64)
		if err != nil {
			return raw, fmt.Errorf("decoding content_base64: %w", err)
		}
		if len(data) > maxFileBytes {
			return raw, fmt.Errorf("%s is larger than %d MiB", raw.Filename, maxFileBytes>>20)
		}
		raw.Content = data
	default:
		return raw, errors.New("path or content_base64 is required")
	}
	return raw, nil
}

func (s *Server) handleAsk(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskInput,
) (*mcp.CallToolResult, AskOutput, error) {
	model := input.Model
	if model == "" {
		model = domain.DefaultModel(domain.ProviderName(strings.ToLower(strings.TrimSpace(input.Provider))))
	}
	temperature := domain.DefaultTemperature
	if input.Temperature != nil {
		temperature = *input.Temperature
	}

	cfg, err := domain.NewProviderConfig(input.Provider, model, input.APIKey, temperature)
	if err != nil {
		return nil, AskOutput{}, err
	}

	answer, err := s.ports.Answer.Ask(ctx, input.SessionID, input.Question, cfg, input.K)
	if err != nil {
		return nil, AskOutput{}, err
	}

	return nil, AskOutput{
		Answer:   answer.Text,
		Grounded: answer.Grounded,
		Provider: string(answer.Provider),
		Model:    answer.Model,
		Sources:  sourcesOutput(answer.Sources),
	}, nil
}

func (s *Server) handleRetrieve(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input RetrieveInput,
) (*mcp.CallToolResult, RetrieveOutput, error) {
	result, err := s.ports.Answer.Retrieve(ctx, input.SessionID, input.Query, input.K)
	if err != nil {
		return nil, RetrieveOutput{}, err
	}
	sources := sourcesOutput(result)
	return nil, RetrieveOutput{Sources: sources, Count: len(sources)}, nil
}

func (s *Server) handleRemoveSession(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SessionInput,
) (*mcp.CallToolResult, RemoveSessionOutput, error) {
	if s.ports.Sessions == nil {
		return nil, RemoveSessionOutput{}, errNoSessionService
	}
	if err := s.ports.Sessions.RemoveSession(ctx, input.SessionID); err != nil {
		return nil, RemoveSessionOutput{}, err
	}
	return nil, RemoveSessionOutput{Removed: true}, nil
}

func (s *Server) handleListProviders(
	_ context.Context,
	_ *mcp.CallToolRequest,
	_ struct{},
) (*mcp.CallToolResult, ListProvidersOutput, error) {
	if s.ports.Providers == nil {
		return nil, ListProvidersOutput{Providers: domain.SupportedProviders()}, nil
	}
	return nil, ListProvidersOutput{Providers: s.ports.Providers.ListSupportedProviders()}, nil
}

func (s *Server) handleHealth(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ struct{},
) (*mcp.CallToolResult, HealthOutput, error) {
	if s.ports.Health == nil {
		return nil, HealthOutput{}, errNoHealthService
	}
	report := s.ports.Health.Check(ctx)
	providers := make([]string, len(report.Providers))
	for i, p := range report.Providers {
		providers[i] = string(p)
	}
	return nil, HealthOutput{
		Healthy:            report.Healthy(),
		EmbeddingModel:     report.EmbeddingModel,
		EmbeddingReachable: report.EmbeddingReachable,
		EmbeddingError:     report.EmbeddingError,
		Providers:          providers,
	}, nil
}

func sourcesOutput(result domain.RetrievalResult) []SourceOutput {
	out := make([]SourceOutput, len(result))
	for i, sc := range result {
		out[i] = SourceOutput{
			Label:    sc.Chunk.Label(),
			Filename: sc.Chunk.Filename,
			Page:     sc.Chunk.Page,
			Score:    sc.Score,
			Content:  sc.Chunk.Content,
		}
	}
	return out
}
