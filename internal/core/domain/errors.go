package domain

import (
	"errors"
	"fmt"
	"time"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// Ingestion Errors.

	// ErrUnsupportedFormat indicates a file whose format cannot be loaded.
	ErrUnsupportedFormat = errors.New("unsupported format")

	// ErrExtraction indicates a file could not be read or yielded no text.
	ErrExtraction = errors.New("extraction failed")

	// ErrEmbedding indicates the embedding backend failed.
	ErrEmbedding = errors.New("embedding failed")

	// Index and Session Errors.

	// ErrDimensionMismatch indicates a vector whose length differs from the index.
	ErrDimensionMismatch = errors.New("dimension mismatch")

	// ErrIndexClosed indicates the vector index has been deleted.
	ErrIndexClosed = errors.New("vector index closed")

	// ErrSessionNotFound indicates an unknown or removed session id.
	ErrSessionNotFound = errors.New("session not found")

	// Provider Errors.

	// ErrInvalidProviderConfig indicates a ProviderConfig that failed validation.
	ErrInvalidProviderConfig = errors.New("invalid provider config")

	// ErrInvalidCredential indicates the provider rejected the credential.
	ErrInvalidCredential = errors.New("invalid credential")

	// ErrRateLimited indicates the API rate limit was exceeded.
	ErrRateLimited = errors.New("rate limited")

	// ErrProviderUnavailable indicates the provider could not be reached or is overloaded.
	ErrProviderUnavailable = errors.New("provider unavailable")

	// ErrGeneration indicates answer generation failed.
	ErrGeneration = errors.New("generation failed")
)

// UnsupportedFormatError reports a file whose extension or declared format
// has no loader.
type UnsupportedFormatError struct {
	Filename string
	Format   string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("%s: unsupported format %q", e.Filename, e.Format)
}

// Is reports whether target is ErrUnsupportedFormat.
func (e *UnsupportedFormatError) Is(target error) bool {
	return target == ErrUnsupportedFormat
}

// ExtractionError reports a per-file loading failure.
type ExtractionError struct {
	Filename string
	Err      error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract %s: %v", e.Filename, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// Is reports whether target is ErrExtraction.
func (e *ExtractionError) Is(target error) bool {
	return target == ErrExtraction
}

// EmbeddingError reports an embedding backend failure.
type EmbeddingError struct {
	Model string
	Err   error
}

func (e *EmbeddingError) Error() string {
	if e.Model == "" {
		return fmt.Sprintf("embedding: %v", e.Err)
	}
	return fmt.Sprintf("embedding (%s): %v", e.Model, e.Err)
}

func (e *EmbeddingError) Unwrap() error { return e.Err }

// Is reports whether target is ErrEmbedding.
func (e *EmbeddingError) Is(target error) bool {
	return target == ErrEmbedding
}

// DimensionMismatchError reports a vector that does not fit the index.
type DimensionMismatchError struct {
	Expected int
	Got      int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("dimension mismatch: index has %d, got %d", e.Expected, e.Got)
}

// Is reports whether target is ErrDimensionMismatch.
func (e *DimensionMismatchError) Is(target error) bool {
	return target == ErrDimensionMismatch
}

// SessionNotFoundError reports an operation on an absent session.
type SessionNotFoundError struct {
	SessionID string
}

func (e *SessionNotFoundError) Error() string {
	return fmt.Sprintf("session %q not found", e.SessionID)
}

// Is reports whether target is ErrSessionNotFound.
func (e *SessionNotFoundError) Is(target error) bool {
	return target == ErrSessionNotFound
}

// ProviderError is a classified failure from an LLM provider.
// Kind is one of ErrInvalidCredential, ErrRateLimited, ErrProviderUnavailable
// or ErrGeneration.
type ProviderError struct {
	Provider   ProviderName
	Kind       error
	StatusCode int
	RetryAfter time.Duration
	Err        error
}

func (e *ProviderError) Error() string {
	msg := fmt.Sprintf("%s: %v", e.Provider, e.Kind)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (status %d)", e.StatusCode)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ProviderError) Unwrap() error { return e.Err }

// Is matches the error's Kind.
func (e *ProviderError) Is(target error) bool {
	return e.Kind != nil && target == e.Kind
}

// GenerationError wraps any provider failure surfaced by answer generation.
// The cause remains reachable through errors.Is and errors.As.
type GenerationError struct {
	Provider ProviderName
	Model    string
	Err      error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generate with %s/%s: %v", e.Provider, e.Model, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// Is reports whether target is ErrGeneration.
func (e *GenerationError) Is(target error) bool {
	return target == ErrGeneration
}

// IsInvalidCredential checks if the error indicates a rejected credential.
func IsInvalidCredential(err error) bool {
	return errors.Is(err, ErrInvalidCredential)
}

// IsRateLimited checks if the error indicates rate limiting.
func IsRateLimited(err error) bool {
	return errors.Is(err, ErrRateLimited)
}

// IsProviderUnavailable checks if the error indicates an unreachable provider.
func IsProviderUnavailable(err error) bool {
	return errors.Is(err, ErrProviderUnavailable)
}

// IsRetryable reports whether a provider call may succeed if repeated.
func IsRetryable(err error) bool {
	return IsRateLimited(err) || IsProviderUnavailable(err)
}

// RetryAfter returns the provider-suggested wait, or zero.
func RetryAfter(err error) time.Duration {
	var perr *ProviderError
	if errors.As(err, &perr) {
		return perr.RetryAfter
	}
	return 0
}
