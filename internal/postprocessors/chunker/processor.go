// Package chunker provides a boundary-aware overlapping text chunker.
package chunker

import (
	"context"
	"strconv"
	"strings"
	"unicode"

	"github.com/google/uuid"

	"github.com/custodia-labs/manualqa/internal/core/domain"
)

// DefaultChunkSize is the default number of characters per chunk.
const DefaultChunkSize = 700

// DefaultChunkOverlap is the default number of overlapping characters.
const DefaultChunkOverlap = 100

// chunkNamespace scopes deterministic chunk IDs.
var chunkNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/custodia-labs/manualqa/chunk"))

// Split points, most preferred first. Whitespace and hard cuts follow.
var separators = [][]string{
	{"\n\n"},
	{"\n"},
	{". ", "! ", "? "},
}

// Processor splits document content into overlapping chunks.
// Sizes and offsets are counted in runes.
// It implements the PostProcessor interface.
type Processor struct {
	chunkSize int
	overlap   int
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithChunkSize sets the chunk size in characters.
func WithChunkSize(size int) Option {
	return func(p *Processor) {
		if size > 0 {
			p.chunkSize = size
		}
	}
}

// WithOverlap sets the overlap between chunks in characters.
func WithOverlap(overlap int) Option {
	return func(p *Processor) {
		if overlap >= 0 {
			p.overlap = overlap
		}
	}
}

// New creates a new chunker processor with the given options.
func New(opts ...Option) *Processor {
	p := &Processor{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultChunkOverlap,
	}

	for _, opt := range opts {
		opt(p)
	}

	// Ensure overlap doesn't exceed chunk size
	if p.overlap >= p.chunkSize {
		p.overlap = p.chunkSize / 4
	}

	return p
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "chunker"
}

// ChunkSize returns the effective chunk size.
func (p *Processor) ChunkSize() int { return p.chunkSize }

// Overlap returns the effective overlap.
func (p *Processor) Overlap() int { return p.overlap }

// Process splits the document content into chunks.
// Input chunks are ignored; this processor creates new chunks from document content.
// Whitespace-only spans are dropped; sequence numbers count emitted chunks only.
func (p *Processor) Process(ctx context.Context, doc *domain.Document, _ []domain.Chunk) ([]domain.Chunk, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if doc.Content == "" {
		// Empty content produces no chunks
		return nil, nil
	}

	runes := []rune(doc.Content)
	spans := p.split(runes)
	chunks := make([]domain.Chunk, 0, len(spans))

	for _, s := range spans {
		text := string(runes[s.start:s.end])
		if strings.TrimSpace(text) == "" {
			continue
		}
		seq := len(chunks)
		chunks = append(chunks, domain.Chunk{
			ID:         ChunkID(doc.ID, seq),
			SessionID:  doc.SessionID,
			DocumentID: doc.ID,
			Filename:   doc.Filename,
			Sequence:   seq,
			Start:      s.start,
			End:        s.end,
			Page:       doc.PageAt(s.start + leadingSpace(text)),
			Content:    text,
		})
	}

	return chunks, nil
}

// ChunkID returns the deterministic ID of the seq-th chunk of a document.
func ChunkID(documentID string, seq int) string {
	return uuid.NewSHA1(chunkNamespace, []byte(documentID+"#"+strconv.Itoa(seq))).String()
}

type span struct {
	start, end int
}

// split returns spans covering [0, len(text)). Each span is at most
// chunkSize long and overlaps its predecessor by at most overlap.
func (p *Processor) split(text []rune) []span {
	n := len(text)
	var spans []span

	start, prevEnd := 0, 0
	for start < n {
		limit := start + p.chunkSize
		end := n
		if limit < n {
			// Never pick a split that would not advance coverage.
			lo := max(start+max(p.chunkSize/2, 1), prevEnd+1)
			end = findSplit(text, lo, limit)
		}

		spans = append(spans, span{start: start, end: end})
		if end >= n {
			break
		}

		next := wordStart(text, end-p.overlap, end)
		if next <= start {
			next = start + 1
		}
		start, prevEnd = next, end
	}

	return spans
}

// findSplit returns the preferred end offset in [lo, hi].
func findSplit(text []rune, lo, hi int) int {
	for _, level := range separators {
		best := -1
		for _, sep := range level {
			if e := lastSeparatorEnd(text, sep, lo, hi); e > best {
				best = e
			}
		}
		if best >= 0 {
			return best
		}
	}

	for e := hi; e >= lo; e-- {
		if unicode.IsSpace(text[e-1]) {
			return e
		}
	}

	return hi
}

// lastSeparatorEnd returns the largest e in [lo, hi] such that text[e-len(sep):e]
// equals sep, or -1.
func lastSeparatorEnd(text []rune, sep string, lo, hi int) int {
	s := []rune(sep)
	for e := hi; e >= lo && e >= len(s); e-- {
		if runesEqual(text[e-len(s):e], s) {
			return e
		}
	}
	return -1
}

func runesEqual(a, b []rune) bool {
	for i := range b {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// leadingSpace returns the number of leading whitespace runes.
func leadingSpace(s string) int {
	n := 0
	for _, r := range s {
		if !unicode.IsSpace(r) {
			break
		}
		n++
	}
	return n
}

// wordStart returns the first word start in [from, to), or from if none.
func wordStart(text []rune, from, to int) int {
	if from < 0 {
		from = 0
	}
	for i := from; i < to; i++ {
		if !unicode.IsSpace(text[i]) && (i == 0 || unicode.IsSpace(text[i-1])) {
			return i
		}
	}
	return from
}
