package chunker

import (
	"context"
	"math/rand"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/custodia-labs/manualqa/internal/core/domain"
)

func TestNew(t *testing.T) {
	t.Run("default values", func(t *testing.T) {
		p := New()
		if p.chunkSize != DefaultChunkSize {
			t.Errorf("expected chunkSize %d, got %d", DefaultChunkSize, p.chunkSize)
		}
		if p.overlap != DefaultChunkOverlap {
			t.Errorf("expected overlap %d, got %d", DefaultChunkOverlap, p.overlap)
		}
	})

	t.Run("custom chunk size", func(t *testing.T) {
		p := New(WithChunkSize(500))
		if p.ChunkSize() != 500 {
			t.Errorf("expected chunkSize 500, got %d", p.ChunkSize())
		}
	})

	t.Run("overlap exceeds chunk size", func(t *testing.T) {
		p := New(WithChunkSize(100), WithOverlap(150))
		if p.Overlap() != 25 {
			t.Errorf("expected overlap reduced to 25, got %d", p.Overlap())
		}
	})

	t.Run("zero values ignored", func(t *testing.T) {
		p := New(WithChunkSize(0), WithOverlap(-1))
		if p.chunkSize != DefaultChunkSize {
			t.Errorf("expected default chunkSize, got %d", p.chunkSize)
		}
		if p.overlap != DefaultChunkOverlap {
			t.Errorf("expected default overlap, got %d", p.overlap)
		}
	})
}

func TestProcessor_Name(t *testing.T) {
	p := New()
	if p.Name() != "chunker" {
		t.Errorf("expected name 'chunker', got '%s'", p.Name())
	}
}

func TestProcessor_Process_EmptyContent(t *testing.T) {
	p := New()
	doc := &domain.Document{ID: "test-doc", Content: ""}

	chunks, err := p.Process(context.Background(), doc, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) != 0 {
		t.Errorf("expected 0 chunks for empty content, got %d", len(chunks))
	}
}

func TestProcessor_Process_WhitespaceOnly(t *testing.T) {
	p := New(WithChunkSize(10), WithOverlap(2))
	doc := &domain.Document{ID: "test-doc", Content: strings.Repeat(" \n", 30)}

	chunks, err := p.Process(context.Background(), doc, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) != 0 {
		t.Errorf("expected whitespace-only spans to be dropped, got %d chunks", len(chunks))
	}
}

func TestProcessor_Process_SmallContent(t *testing.T) {
	p := New(WithChunkSize(100), WithOverlap(20))
	doc := &domain.Document{
		ID:        "doc-1",
		SessionID: "s1",
		Filename:  "manual.pdf",
		Content:   "Replace the hydraulic filter every 500 hours.",
	}

	chunks, err := p.Process(context.Background(), doc, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}

	c := chunks[0]
	if c.Content != doc.Content {
		t.Errorf("expected full content, got %q", c.Content)
	}
	if c.DocumentID != "doc-1" || c.SessionID != "s1" || c.Filename != "manual.pdf" {
		t.Errorf("provenance not attached: %+v", c)
	}
	if c.Sequence != 0 || c.Start != 0 || c.End != utf8.RuneCountInString(doc.Content) {
		t.Errorf("unexpected span: seq=%d start=%d end=%d", c.Sequence, c.Start, c.End)
	}
	if c.Label() != "manual.pdf#1" {
		t.Errorf("unexpected label %q", c.Label())
	}
}

func TestProcessor_Process_PrefersParagraphBreak(t *testing.T) {
	p := New(WithChunkSize(60), WithOverlap(0))
	first := "Section one covers the pump. It has two valves."
	second := "Section two covers the filter housing and its seals."
	doc := &domain.Document{ID: "d", Content: first + "\n\n" + second}

	chunks, err := p.Process(context.Background(), doc, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}
	if strings.TrimSpace(chunks[0].Content) != first {
		t.Errorf("expected first chunk to end at the paragraph break, got %q", chunks[0].Content)
	}
	if chunks[1].Content != second {
		t.Errorf("expected second paragraph, got %q", chunks[1].Content)
	}
}

func TestProcessor_Process_SentenceBeforeWhitespace(t *testing.T) {
	p := New(WithChunkSize(40), WithOverlap(0))
	doc := &domain.Document{ID: "d", Content: "Check oil level daily. Top up with grade ISO VG 46 when low."}

	chunks, err := p.Process(context.Background(), doc, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) < 2 {
		t.Fatalf("expected at least 2 chunks, got %d", len(chunks))
	}
	if chunks[0].Content != "Check oil level daily. " {
		t.Errorf("expected split after sentence end, got %q", chunks[0].Content)
	}
}

func TestProcessor_Process_HardCut(t *testing.T) {
	p := New(WithChunkSize(10), WithOverlap(0))
	doc := &domain.Document{ID: "d", Content: strings.Repeat("x", 25)}

	chunks, err := p.Process(context.Background(), doc, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(chunks))
	}
	if chunks[2].Content != "xxxxx" {
		t.Errorf("expected short final chunk, got %q", chunks[2].Content)
	}
}

func TestProcessor_Process_MultiByteRunes(t *testing.T) {
	p := New(WithChunkSize(7), WithOverlap(2))
	doc := &domain.Document{ID: "d", Content: strings.Repeat("Ölstand prüfen ", 6)}

	chunks, err := p.Process(context.Background(), doc, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, c := range chunks {
		if !utf8.ValidString(c.Content) {
			t.Errorf("chunk split inside a rune: %q", c.Content)
		}
		if n := utf8.RuneCountInString(c.Content); n > 7 {
			t.Errorf("chunk has %d runes, want <= 7", n)
		}
	}
}

func TestProcessor_Process_Deterministic(t *testing.T) {
	p := New(WithChunkSize(80), WithOverlap(15))
	doc := &domain.Document{ID: "doc-42", Content: sampleText(rand.New(rand.NewSource(7)), 2000)}

	a, err := p.Process(context.Background(), doc, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := p.Process(context.Background(), doc, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(a) != len(b) {
		t.Fatalf("chunk counts differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i].ID != b[i].ID || a[i].Content != b[i].Content || a[i].Start != b[i].Start {
			t.Errorf("chunk %d differs between runs", i)
		}
	}
}

func TestProcessor_Process_PageAttribution(t *testing.T) {
	p := New(WithChunkSize(20), WithOverlap(0))
	page1 := "Page one text here."
	page2 := "Page two text here."
	doc := &domain.Document{
		ID:          "d",
		Content:     page1 + "\n\n" + page2,
		PageOffsets: []int{0, len(page1) + 2},
	}

	chunks, err := p.Process(context.Background(), doc, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}
	if chunks[0].Page != 1 || chunks[1].Page != 2 {
		t.Errorf("expected pages 1 and 2, got %d and %d", chunks[0].Page, chunks[1].Page)
	}
}

func TestProcessor_Process_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New().Process(ctx, &domain.Document{ID: "d", Content: "text"}, nil)
	if err == nil {
		t.Error("expected error for cancelled context")
	}
}

func TestSplit_Properties(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	params := []struct{ size, overlap int }{
		{1, 0}, {5, 1}, {40, 10}, {100, 0}, {100, 99}, {700, 100},
	}

	for _, tc := range params {
		for trial := 0; trial < 20; trial++ {
			text := []rune(sampleText(rng, rng.Intn(3000)))
			p := New(WithChunkSize(tc.size), WithOverlap(tc.overlap))
			spans := p.split(text)

			if len(text) == 0 {
				if len(spans) != 0 {
					t.Fatalf("size=%d: expected no spans for empty text", tc.size)
				}
				continue
			}

			var rebuilt strings.Builder
			prevEnd := 0
			for i, s := range spans {
				if s.end-s.start > p.chunkSize {
					t.Fatalf("size=%d: span %d has length %d", tc.size, i, s.end-s.start)
				}
				if i == 0 && s.start != 0 {
					t.Fatalf("first span starts at %d", s.start)
				}
				if i > 0 {
					if s.start > prevEnd {
						t.Fatalf("gap between spans %d and %d", i-1, i)
					}
					if prevEnd-s.start > p.overlap {
						t.Fatalf("overlap %d exceeds %d", prevEnd-s.start, p.overlap)
					}
					if s.end <= prevEnd {
						t.Fatalf("span %d does not advance coverage", i)
					}
				}
				rebuilt.WriteString(string(text[max(prevEnd, s.start):s.end]))
				prevEnd = s.end
			}

			if prevEnd != len(text) {
				t.Fatalf("coverage ends at %d, text has %d runes", prevEnd, len(text))
			}
			if rebuilt.String() != string(text) {
				t.Fatalf("size=%d overlap=%d: reconstruction differs", tc.size, tc.overlap)
			}
		}
	}
}

func TestChunkID_Deterministic(t *testing.T) {
	if ChunkID("doc", 0) != ChunkID("doc", 0) {
		t.Error("expected identical IDs for identical input")
	}
	if ChunkID("doc", 0) == ChunkID("doc", 1) {
		t.Error("expected different IDs for different sequences")
	}
}

// sampleText builds manual-like prose with mixed separators.
func sampleText(rng *rand.Rand, n int) string {
	words := []string{"pump", "valve", "Filter", "replace", "hours", "pressure", "bar", "Öl", "prüfen", "seal", "500"}
	seps := []string{" ", " ", " ", ". ", "\n", "\n\n", "! ", "? "}
	var b strings.Builder
	for utf8.RuneCountInString(b.String()) < n {
		b.WriteString(words[rng.Intn(len(words))])
		b.WriteString(seps[rng.Intn(len(seps))])
	}
	return string([]rune(b.String())[:n])
}
