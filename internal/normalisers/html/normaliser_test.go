package html

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/manualqa/internal/core/domain"
	"github.com/custodia-labs/manualqa/internal/core/ports/driven"
)

func TestFormat(t *testing.T) {
	assert.Equal(t, domain.FormatHTML, New().Format())
}

func TestNormalise_Success(t *testing.T) {
	raw := &domain.RawDocument{
		Filename: "pump-guide.html",
		Content:  []byte("<html><head><title>Pump Guide</title></head><body><p>Prime the pump before start-up.</p></body></html>"),
	}

	result, err := New().Normalise(context.Background(), raw)
	require.NoError(t, err)
	require.NotNil(t, result)

	doc := result.Document
	assert.NotEmpty(t, doc.ID)
	assert.Equal(t, "pump-guide.html", doc.Filename)
	assert.Equal(t, domain.FormatHTML, doc.Format)
	assert.Equal(t, "Pump Guide", doc.Title)
	assert.Equal(t, "Prime the pump before start-up.", doc.Content)
	assert.Equal(t, len(raw.Content), doc.Size)
	assert.Zero(t, doc.PageCount)
	assert.Equal(t, "utf-8", doc.Metadata["encoding"])
}

func TestNormalise_NilDocument(t *testing.T) {
	result, err := New().Normalise(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Nil(t, result)
}

func TestNormalise_NoText(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"empty", ""},
		{"only markup", "<html><head><title>T</title></head><body><script>x()</script></body></html>"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New().Normalise(context.Background(), &domain.RawDocument{
				Filename: "blank.html",
				Content:  []byte(tc.content),
			})
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrExtraction)

			var extErr *domain.ExtractionError
			require.ErrorAs(t, err, &extErr)
			assert.Equal(t, "blank.html", extErr.Filename)
		})
	}
}

func TestNormalise_Latin1Fallback(t *testing.T) {
	// "Öl prüfen" in ISO-8859-1: Ö=0xD6, ü=0xFC
	content := []byte("<p>\xd6l pr\xfcfen</p>")

	result, err := New().Normalise(context.Background(), &domain.RawDocument{
		Filename: "wartung.htm",
		Content:  content,
	})
	require.NoError(t, err)
	assert.Equal(t, "Öl prüfen", result.Document.Content)
	assert.Equal(t, "iso-8859-1", result.Document.Metadata["encoding"])
}

func TestNormalise_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New().Normalise(ctx, &domain.RawDocument{Filename: "a.html", Content: []byte("<p>x</p>")})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestExtractHTMLTitle(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		filename string
		expected string
	}{
		{"title tag", "<title>My Manual</title>", "doc.html", "My Manual"},
		{"title with extra spaces", "<title>   Spaced \n Title   </title>", "doc.html", "Spaced Title"},
		{"title with entities", "<title>Pumps &amp; Valves</title>", "doc.html", "Pumps & Valves"},
		{"no title", "<body>Just content</body>", "my_service-manual.html", "my service manual"},
		{"empty title", "<title></title><body>Content</body>", "readme.htm", "readme"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, extractHTMLTitle(tc.content, tc.filename))
		})
	}
}

func TestStripHTML(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"simple paragraph", "<p>Hello World</p>", "Hello World"},
		{"nested inline tags", "<div><p><strong>Bold</strong> text</p></div>", "Bold text"},
		{"paragraphs separated by blank line", "<p>Before</p><p>After</p>", "Before\n\nAfter"},
		{"script removed", "<p>Before</p><script>alert('x');</script><p>After</p>", "Before\n\nAfter"},
		{"style removed", "<style>.foo { color: red; }</style><p>Content</p>", "Content"},
		{"noscript removed", "<p>Content</p><noscript>No JS</noscript>", "Content"},
		{"head removed", "<head><meta charset='utf-8'><title>T</title></head><body>Content</body>", "Content"},
		{"br to newline", "Line 1<br>Line 2<br/>Line 3", "Line 1\nLine 2\nLine 3"},
		{"list items on lines", "<ul><li>Item 1</li><li>Item 2</li></ul>", "Item 1\nItem 2"},
		{"headings", "<h1>Title</h1><h2>Subtitle</h2><p>Content</p>", "Title\n\nSubtitle\n\nContent"},
		{"entities decoded", "<p>&lt;tag&gt; &amp; &quot;quotes&quot;</p>", "<tag> & \"quotes\""},
		{"non-breaking space", "<p>500&nbsp;hours</p>", "500 hours"},
		{"comments removed", "<p>Before</p><!-- note --><p>After</p>", "Before\n\nAfter"},
		{"links keep text", `<a href="https://example.com">Click here</a>`, "Click here"},
		{"images removed", `<p>See <img src="a.png" alt="A"> here</p>`, "See here"},
		{"table cells spaced", "<table><tr><td>Cell 1</td><td>Cell 2</td></tr></table>", "Cell 1 Cell 2"},
		{"svg removed", `<p>Before</p><svg width="100"><circle cx="50"/></svg><p>After</p>`, "Before\n\nAfter"},
		{"pre is a paragraph", "<pre>code</pre>text", "code\n\ntext"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, stripHTML(tc.input))
		})
	}
}

func TestNormalise_ComplexHTML(t *testing.T) {
	complexHTML := `<!DOCTYPE html>
<html>
<head>
    <meta charset="utf-8">
    <title>Hydraulic Press HP-200</title>
    <style>body { font-family: Arial; }</style>
</head>
<body>
    <h1>Maintenance</h1>
    <p>Replace the <strong>hydraulic filter</strong> every 500 hours.</p>
    <ul>
        <li>Check oil level</li>
        <li>Inspect seals</li>
    </ul>
    <script>console.log('removed');</script>
    <!-- internal note -->
    <footer><p>&copy; 2024 Example Corp</p></footer>
</body>
</html>`

	result, err := New().Normalise(context.Background(), &domain.RawDocument{
		Filename: "hp200.html",
		Content:  []byte(complexHTML),
	})
	require.NoError(t, err)

	doc := result.Document
	assert.Equal(t, "Hydraulic Press HP-200", doc.Title)
	assert.Contains(t, doc.Content, "Replace the hydraulic filter every 500 hours.")
	assert.Contains(t, doc.Content, "Check oil level\nInspect seals")
	assert.Contains(t, doc.Content, "© 2024 Example Corp")
	assert.NotContains(t, doc.Content, "console.log")
	assert.NotContains(t, doc.Content, "font-family")
	assert.NotContains(t, doc.Content, "internal note")
	assert.NotContains(t, doc.Content, "\n\n\n")
}

func TestInterfaceCompliance(t *testing.T) {
	var _ driven.Normaliser = (*Normaliser)(nil)
}

func BenchmarkStripHTML(b *testing.B) {
	content := `<html>
<head><title>Test</title><style>body{}</style></head>
<body>
<h1>Heading</h1>
<p>Paragraph with <strong>bold</strong> and <em>italic</em>.</p>
<ul><li>Item 1</li><li>Item 2</li></ul>
<script>alert('test');</script>
</body>
</html>`

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = stripHTML(content)
	}
}
