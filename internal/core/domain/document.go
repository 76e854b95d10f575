package domain

import (
	"fmt"
	"sort"
	"time"
)

// Document represents a loaded file with its extracted text.
// It is immutable once ingested and lives as long as its session.
type Document struct {
	// ID is the unique identifier for the document.
	ID string

	// SessionID links to the Session that ingested this document.
	SessionID string

	// Filename is the upload name, used in provenance labels.
	Filename string

	// Format is the format the document was loaded as.
	Format Format

	// Title is the human-readable title.
	Title string

	// PageCount is the number of pages for PDFs, zero otherwise.
	PageCount int

	// PageOffsets holds the rune offset at which each page starts in Content.
	PageOffsets []int

	// Content is the full extracted text before chunking.
	Content string

	// Size is the byte size of the uploaded file.
	Size int

	// Metadata contains arbitrary key-value pairs.
	Metadata map[string]any

	// CreatedAt is when the document was ingested.
	CreatedAt time.Time
}

// PageAt returns the 1-based page containing the rune offset, or 0 if the
// document has no page structure.
func (d *Document) PageAt(offset int) int {
	if len(d.PageOffsets) == 0 {
		return 0
	}
	// First page whose start is beyond offset, minus one.
	i := sort.Search(len(d.PageOffsets), func(i int) bool {
		return d.PageOffsets[i] > offset
	})
	if i == 0 {
		return 1
	}
	return i
}

// Chunk represents a retrievable span within a document.
// Provenance is attached at creation and never reconstructed from text.
type Chunk struct {
	// ID is the unique identifier for the chunk.
	ID string

	// SessionID links to the owning Session.
	SessionID string

	// DocumentID links to the parent Document.
	DocumentID string

	// Filename is the parent document's upload name.
	Filename string

	// Sequence is the ordinal position within the document, starting at 0.
	Sequence int

	// Start and End are rune offsets of the span in the document content.
	Start int
	End   int

	// Page is the 1-based page where the chunk starts, 0 when unknown.
	Page int

	// Content is the text content of this chunk.
	Content string

	// Embedding is the vector representation, set during ingestion.
	Embedding []float32
}

// Label returns the provenance tag used for citations, e.g. "manual.pdf#3".
func (c Chunk) Label() string {
	return fmt.Sprintf("%s#%d", c.Filename, c.Sequence+1)
}

// ScoredChunk pairs a chunk with its similarity to a query.
type ScoredChunk struct {
	Chunk Chunk
	Score float64
}

// RetrievalResult is ordered by descending score. It may be empty.
type RetrievalResult []ScoredChunk

// Chunks returns the chunks without scores.
func (r RetrievalResult) Chunks() []Chunk {
	out := make([]Chunk, len(r))
	for i := range r {
		out[i] = r[i].Chunk
	}
	return out
}

// Answer is a generated response with the exact chunks used as context.
type Answer struct {
	// Text is the generated answer.
	Text string

	// Sources are the retrieved chunks given to the model.
	Sources RetrievalResult

	// Grounded is false when no supporting context was found.
	Grounded bool

	// Provider and Model identify the generator. Empty when no model was called.
	Provider ProviderName
	Model    string
}

// IngestResult reports the outcome for one uploaded file.
type IngestResult struct {
	// Filename is the upload name.
	Filename string

	// DocumentID is set on success.
	DocumentID string

	// Chunks is the number of chunks indexed for the file.
	Chunks int

	// Err is an UnsupportedFormatError, ExtractionError or EmbeddingError
	// when the file was not ingested.
	Err error
}

// OK returns true if the file was ingested.
func (r IngestResult) OK() bool {
	return r.Err == nil
}

// SessionInfo summarises a session for listing.
type SessionInfo struct {
	ID         string
	Documents  []Document
	Chunks     int
	Dimensions int
	Model      string
	CreatedAt  time.Time
}
