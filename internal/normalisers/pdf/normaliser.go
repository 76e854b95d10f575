package pdf

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/ledongthuc/pdf"

	"github.com/custodia-labs/manualqa/internal/core/domain"
	"github.com/custodia-labs/manualqa/internal/core/ports/driven"
	"github.com/custodia-labs/manualqa/internal/logger"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// pageSeparator joins page texts so page boundaries read as paragraph breaks.
const pageSeparator = "\n\n"

// errNoText is returned when no page yields any text, e.g. scanned manuals.
var errNoText = errors.New("no extractable text")

var (
	crlf          = strings.NewReplacer("\r\n", "\n", "\r", "\n")
	multiNewlines = regexp.MustCompile(`\n{3,}`)
)

// Normaliser handles PDF documents.
type Normaliser struct{}

// New creates a new PDF normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// Format returns the format this normaliser handles.
func (n *Normaliser) Format() domain.Format {
	return domain.FormatPDF
}

// Normalise extracts the text of every page.
// Corrupt, encrypted and image-only PDFs fail with *domain.ExtractionError.
func (n *Normaliser) Normalise(ctx context.Context, raw *domain.RawDocument) (result *driven.NormaliseResult, err error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	// The parser panics on some malformed input.
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = &domain.ExtractionError{Filename: raw.Filename, Err: fmt.Errorf("parser panic: %v", r)}
		}
	}()

	pages, err := extractPages(ctx, raw.Content)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, &domain.ExtractionError{Filename: raw.Filename, Err: err}
	}

	content, offsets := joinPages(pages)
	if strings.TrimSpace(content) == "" {
		return nil, &domain.ExtractionError{Filename: raw.Filename, Err: errNoText}
	}

	logger.Debug("pdf: %s extracted %d pages, %d characters", raw.Filename, len(pages), utf8.RuneCountInString(content))

	doc := domain.Document{
		ID:          uuid.New().String(),
		Filename:    raw.Filename,
		Format:      domain.FormatPDF,
		Title:       titleFromFilename(raw.Filename),
		PageCount:   len(pages),
		PageOffsets: offsets,
		Content:     content,
		Size:        len(raw.Content),
		CreatedAt:   time.Now(),
		Metadata: map[string]any{
			"format": "pdf",
			"pages":  len(pages),
		},
	}

	return &driven.NormaliseResult{
		Document: doc,
	}, nil
}

// extractPages returns the cleaned plain text of each page in order.
func extractPages(ctx context.Context, content []byte) ([]string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}

	numPages := reader.NumPage()
	if numPages == 0 {
		return nil, fmt.Errorf("pdf has no pages")
	}

	pages := make([]string, 0, numPages)
	for i := 1; i <= numPages; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		page := reader.Page(i)
		if page.V.IsNull() {
			pages = append(pages, "")
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", i, err)
		}
		pages = append(pages, cleanPageText(text))
	}

	return pages, nil
}

// joinPages concatenates pages and returns the rune offset where each starts.
func joinPages(pages []string) (string, []int) {
	var b strings.Builder
	offsets := make([]int, len(pages))
	pos := 0

	for i, text := range pages {
		if i > 0 {
			b.WriteString(pageSeparator)
			pos += utf8.RuneCountInString(pageSeparator)
		}
		offsets[i] = pos
		b.WriteString(text)
		pos += utf8.RuneCountInString(text)
	}

	return b.String(), offsets
}

func cleanPageText(text string) string {
	text = strings.ToValidUTF8(text, "")
	text = crlf.Replace(text)
	text = multiNewlines.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

// titleFromFilename derives a readable title from the upload name.
func titleFromFilename(filename string) string {
	name := filepath.Base(filename)
	name = strings.TrimSuffix(name, filepath.Ext(name))
	name = strings.ReplaceAll(name, "_", " ")
	return strings.ReplaceAll(name, "-", " ")
}
