package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/manualqa/internal/core/domain"
	"github.com/custodia-labs/manualqa/internal/core/ports/driven"
	"github.com/custodia-labs/manualqa/internal/core/ports/driving"
	"github.com/custodia-labs/manualqa/internal/logger"
)

// Ensure IngestService implements the interface.
var _ driving.IngestService = (*IngestService)(nil)

// IngestService loads, chunks, embeds and indexes uploads into a session.
type IngestService struct {
	store       *SessionStore
	normalisers driven.NormaliserRegistry
	pipeline    driven.PostProcessorPipeline
	embedder    driven.EmbeddingService
}

// NewIngestService creates an ingest service.
func NewIngestService(
	store *SessionStore,
	normalisers driven.NormaliserRegistry,
	pipeline driven.PostProcessorPipeline,
	embedder driven.EmbeddingService,
) *IngestService {
	return &IngestService{
		store:       store,
		normalisers: normalisers,
		pipeline:    pipeline,
		embedder:    embedder,
	}
}

// loaded is a file that extracted and chunked successfully.
type loaded struct {
	slot   int
	doc    domain.Document
	chunks []domain.Chunk
}

// Ingest loads files into the session, creating it on first use. Files that
// fail to load are reported individually. The rest are embedded and indexed
// together: if that fails, none of them are added.
func (s *IngestService) Ingest(ctx context.Context, sessionID string, files []domain.RawDocument) ([]domain.IngestResult, error) {
	logger.Section("Ingest")

	if err := ValidateSessionID(sessionID); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sess, err := s.store.GetOrCreate(sessionID)
	if err != nil {
		return nil, err
	}

	results := make([]domain.IngestResult, len(files))
	var batch []loaded

	for i := range files {
		results[i].Filename = files[i].Filename

		item, err := s.load(ctx, sessionID, &files[i])
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return results, ctxErr
			}
			logger.Warn("skipping %s: %v", files[i].Filename, err)
			results[i].Err = err
			continue
		}
		item.slot = i
		batch = append(batch, item)
	}

	if len(batch) == 0 {
		return results, nil
	}

	if err := s.commit(ctx, sess, batch); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return results, ctxErr
		}
		logger.Error("ingest into session %s failed: %v", sessionID, err)
		for _, item := range batch {
			results[item.slot].Err = err
		}
		return results, nil
	}

	for _, item := range batch {
		results[item.slot].DocumentID = item.doc.ID
		results[item.slot].Chunks = len(item.chunks)
	}
	logger.Info("ingested %d of %d files into session %s", len(batch), len(files), sessionID)
	return results, nil
}

// load extracts and chunks one file.
func (s *IngestService) load(ctx context.Context, sessionID string, raw *domain.RawDocument) (loaded, error) {
	res, err := s.normalisers.Normalise(ctx, raw)
	if err != nil {
		return loaded{}, err
	}

	doc := res.Document
	doc.SessionID = sessionID
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now()
	}

	chunks, err := s.pipeline.Process(ctx, &doc)
	if err != nil {
		return loaded{}, fmt.Errorf("chunking %s: %w", raw.Filename, err)
	}
	if len(chunks) == 0 {
		return loaded{}, &domain.ExtractionError{Filename: raw.Filename, Err: errors.New("no text to index")}
	}

	logger.Debug("%s: %d characters, %d chunks", raw.Filename, len(doc.Content), len(chunks))
	return loaded{doc: doc, chunks: chunks}, nil
}

// commit embeds every chunk of the batch in one call and inserts them in one
// index write. The session's documents change only if both succeed.
func (s *IngestService) commit(ctx context.Context, sess *Session, batch []loaded) error {
	sess.ingestMu.Lock()
	defer sess.ingestMu.Unlock()

	model := s.embedder.ModelName()
	if existing := sess.Model(); existing != "" && existing != model {
		return &domain.EmbeddingError{
			Model: model,
			Err:   fmt.Errorf("session %s was indexed with %q", sess.ID(), existing),
		}
	}

	var chunks []domain.Chunk
	for _, item := range batch {
		chunks = append(chunks, item.chunks...)
	}
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Content
	}

	vectors, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return asEmbeddingError(model, err)
	}
	if len(vectors) != len(texts) {
		return &domain.EmbeddingError{
			Model: model,
			Err:   fmt.Errorf("got %d vectors for %d chunks", len(vectors), len(texts)),
		}
	}

	if err := sess.Index().Insert(ctx, chunks, vectors); err != nil {
		return fmt.Errorf("indexing: %w", err)
	}

	docs := make([]domain.Document, len(batch))
	for i, item := range batch {
		docs[i] = item.doc
	}
	sess.record(docs, model)
	return nil
}
