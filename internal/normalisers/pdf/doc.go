// Package pdf provides a Normaliser for PDF manuals backed by
// github.com/ledongthuc/pdf. Pages are joined with a blank line and
// their start offsets recorded so chunks can cite a page.
package pdf
