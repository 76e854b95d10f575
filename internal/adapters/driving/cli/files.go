package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/manualqa/internal/core/domain"
)

// readFiles loads each path as an upload named after its base name.
func readFiles(paths []string) ([]domain.RawDocument, error) {
	raws := make([]domain.RawDocument, 0, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", p, err)
		}
		raws = append(raws, domain.RawDocument{Filename: filepath.Base(p), Content: data})
	}
	return raws, nil
}

// ingestFiles loads paths into the session and prints one line per file.
// It fails only when no file could be loaded.
func ingestFiles(ctx context.Context, cmd *cobra.Command, sessionID string, paths []string) error {
	if ingestService == nil {
		return errNoIngest
	}
	if len(paths) == 0 {
		return errors.New("at least one --file is required")
	}

	raws, err := readFiles(paths)
	if err != nil {
		return err
	}

	results, err := ingestService.Ingest(ctx, sessionID, raws)
	if err != nil {
		return fmt.Errorf("loading documents: %w", err)
	}

	loaded := 0
	var failures []error
	for _, r := range results {
		if r.OK() {
			loaded++
			cmd.PrintErrf("Loaded %s (%d chunks)\n", r.Filename, r.Chunks)
			continue
		}
		cmd.PrintErrf("Skipped %s: %v\n", r.Filename, r.Err)
		failures = append(failures, r.Err)
	}

	if loaded == 0 {
		return explain(fmt.Errorf("no documents could be loaded: %w", errors.Join(failures...)))
	}
	return nil
}

// printSources lists retrieved chunks under the answer.
func printSources(cmd *cobra.Command, sources domain.RetrievalResult) {
	if len(sources) == 0 {
		return
	}
	cmd.Println()
	cmd.Println("Sources:")
	for _, sc := range sources {
		page := ""
		if sc.Chunk.Page > 0 {
			page = fmt.Sprintf(" page %d", sc.Chunk.Page)
		}
		cmd.Printf("  [%s]%s (%.2f)\n", sc.Chunk.Label(), page, sc.Score)
	}
}
