// Package html provides a Normaliser implementation for HTML manuals.
// It extracts readable text content from HTML, stripping tags, scripts,
// styles, and decoding entities. Block elements become paragraph breaks
// so the chunker can split on them.
package html
