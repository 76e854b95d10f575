package html

import (
	"context"
	"fmt"
	"html"
	"path/filepath"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/text/encoding/charmap"

	"github.com/custodia-labs/manualqa/internal/core/domain"
	"github.com/custodia-labs/manualqa/internal/core/ports/driven"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser handles HTML documents.
type Normaliser struct{}

// New creates a new HTML normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// Format returns the format this normaliser handles.
func (n *Normaliser) Format() domain.Format {
	return domain.FormatHTML
}

// Normalise converts an HTML document to a normalised document.
// The Content field contains the text with HTML tags stripped.
// Chunking is handled by the PostProcessor pipeline.
func (n *Normaliser) Normalise(ctx context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rawContent, encoding, err := decode(raw.Content)
	if err != nil {
		return nil, &domain.ExtractionError{Filename: raw.Filename, Err: err}
	}

	content := stripHTML(rawContent)
	if content == "" {
		return nil, &domain.ExtractionError{Filename: raw.Filename, Err: fmt.Errorf("no extractable text")}
	}

	doc := domain.Document{
		ID:        uuid.New().String(),
		Filename:  raw.Filename,
		Format:    domain.FormatHTML,
		Title:     extractHTMLTitle(rawContent, raw.Filename),
		Content:   content,
		Size:      len(raw.Content),
		CreatedAt: time.Now(),
		Metadata: map[string]any{
			"format":   "html",
			"encoding": encoding,
		},
	}

	return &driven.NormaliseResult{
		Document: doc,
	}, nil
}

// decode returns the content as UTF-8. Bytes that are not valid UTF-8
// are read as ISO-8859-1, which every byte sequence satisfies.
func decode(b []byte) (string, string, error) {
	if utf8.Valid(b) {
		return string(b), "utf-8", nil
	}
	out, err := charmap.ISO8859_1.NewDecoder().Bytes(b)
	if err != nil {
		return "", "", fmt.Errorf("decode latin-1: %w", err)
	}
	return string(out), "iso-8859-1", nil
}

// Pre-compiled regular expressions for HTML parsing performance.
var (
	titleTag       = regexp.MustCompile(`(?is)<title[^>]*>(.*?)</title>`)
	scriptTag      = regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`)
	styleTag       = regexp.MustCompile(`(?is)<style[^>]*>.*?</style>`)
	noscriptTag    = regexp.MustCompile(`(?is)<noscript[^>]*>.*?</noscript>`)
	headTag        = regexp.MustCompile(`(?is)<head[^>]*>.*?</head>`)
	svgTag         = regexp.MustCompile(`(?is)<svg[^>]*>.*?</svg>`)
	htmlComments   = regexp.MustCompile(`(?s)<!--.*?-->`)
	paragraphTags  = regexp.MustCompile(`(?i)</?(p|div|h[1-6]|blockquote|pre|table|section|article|ul|ol|dl)(\s[^>]*)?>`)
	lineBreakTags  = regexp.MustCompile(`(?i)</(li|tr|dt|dd)>|<br\s*/?>|<hr\s*/?>`)
	cellCloseTags  = regexp.MustCompile(`(?i)</t[dh]>`)
	allTags        = regexp.MustCompile(`<[^>]+>`)
	multiSpaces    = regexp.MustCompile(`[ \t\r\f\v]+`)
	whitespace     = regexp.MustCompile(`\s+`)
	filenameDashes = strings.NewReplacer("_", " ", "-", " ")
	nbsp           = strings.NewReplacer("\u00a0", " ")
)

// extractHTMLTitle extracts a title from the HTML content or falls back to filename.
func extractHTMLTitle(content, filename string) string {
	matches := titleTag.FindStringSubmatch(content)
	if len(matches) > 1 {
		title := strings.Join(strings.Fields(html.UnescapeString(matches[1])), " ")
		if title != "" {
			return title
		}
	}

	name := filepath.Base(filename)
	name = strings.TrimSuffix(name, filepath.Ext(name))
	return filenameDashes.Replace(name)
}

// stripHTML removes HTML tags and extracts readable text content.
// Paragraph-level elements are separated by a blank line, list items and
// explicit breaks by a single newline.
func stripHTML(content string) string {
	// Remove non-content elements entirely
	content = scriptTag.ReplaceAllString(content, "")
	content = styleTag.ReplaceAllString(content, "")
	content = noscriptTag.ReplaceAllString(content, "")
	content = headTag.ReplaceAllString(content, "")
	content = svgTag.ReplaceAllString(content, "")
	content = htmlComments.ReplaceAllString(content, "")

	// Source line breaks are insignificant; only markup produces breaks
	content = whitespace.ReplaceAllString(content, " ")

	content = paragraphTags.ReplaceAllString(content, "\n\n")
	content = lineBreakTags.ReplaceAllString(content, "\n")
	content = cellCloseTags.ReplaceAllString(content, " ")
	content = allTags.ReplaceAllString(content, "")

	content = html.UnescapeString(content)
	content = nbsp.Replace(content)
	content = multiSpaces.ReplaceAllString(content, " ")

	// Trim lines and fold runs of blank lines into one paragraph break
	var b strings.Builder
	blank := false
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			blank = b.Len() > 0
			continue
		}
		if b.Len() > 0 {
			if blank {
				b.WriteString("\n\n")
			} else {
				b.WriteByte('\n')
			}
		}
		b.WriteString(line)
		blank = false
	}

	return b.String()
}
