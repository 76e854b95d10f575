package domain

import (
	"path/filepath"
	"strings"
)

// Format identifies a loadable document format.
type Format string

// Supported document formats.
const (
	FormatPDF  Format = "pdf"
	FormatHTML Format = "html"
)

// IsValid returns true if the format has a loader.
func (f Format) IsValid() bool {
	return f == FormatPDF || f == FormatHTML
}

// String returns the string representation.
func (f Format) String() string {
	return string(f)
}

// SupportedFormats returns all loadable formats.
func SupportedFormats() []Format {
	return []Format{FormatPDF, FormatHTML}
}

// FormatFromFilename derives the format from a file extension.
// Returns an UnsupportedFormatError for anything other than .pdf, .html or .htm.
func FormatFromFilename(filename string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".pdf":
		return FormatPDF, nil
	case ".html", ".htm":
		return FormatHTML, nil
	default:
		return "", &UnsupportedFormatError{Filename: filename, Format: strings.TrimPrefix(ext, ".")}
	}
}

// RawDocument represents an uploaded file before loading.
type RawDocument struct {
	// Filename is the name the file was uploaded under.
	Filename string

	// Format is the declared format. Empty means derive from Filename.
	Format Format

	// Content is the raw bytes.
	Content []byte
}

// ResolveFormat returns the declared format, or derives it from the filename.
func (r RawDocument) ResolveFormat() (Format, error) {
	if r.Format == "" {
		return FormatFromFilename(r.Filename)
	}
	f := Format(strings.ToLower(string(r.Format)))
	if !f.IsValid() {
		return "", &UnsupportedFormatError{Filename: r.Filename, Format: string(r.Format)}
	}
	return f, nil
}
