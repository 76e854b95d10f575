package normalisers

import (
	"context"
	"sort"
	"sync"

	"github.com/custodia-labs/manualqa/internal/core/domain"
	"github.com/custodia-labs/manualqa/internal/core/ports/driven"
	"github.com/custodia-labs/manualqa/internal/normalisers/html"
	"github.com/custodia-labs/manualqa/internal/normalisers/pdf"
)

// Ensure Registry implements the interface.
var _ driven.NormaliserRegistry = (*Registry)(nil)

// Registry maps formats to normalisers.
type Registry struct {
	mu          sync.RWMutex
	normalisers map[domain.Format]driven.Normaliser
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		normalisers: make(map[domain.Format]driven.Normaliser),
	}
}

// RegisterDefaults registers the PDF and HTML normalisers.
func RegisterDefaults(r *Registry) {
	r.Register(pdf.New())
	r.Register(html.New())
}

// Register adds a normaliser, replacing any previous one for its format.
func (r *Registry) Register(n driven.Normaliser) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.normalisers[n.Format()] = n
}

// Normalise resolves the document format and loads it with the matching normaliser.
func (r *Registry) Normalise(ctx context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	format, err := raw.ResolveFormat()
	if err != nil {
		return nil, err
	}

	r.mu.RLock()
	n, ok := r.normalisers[format]
	r.mu.RUnlock()
	if !ok {
		return nil, &domain.UnsupportedFormatError{Filename: raw.Filename, Format: string(format)}
	}

	return n.Normalise(ctx, raw)
}

// SupportedFormats returns registered formats in sorted order.
func (r *Registry) SupportedFormats() []domain.Format {
	r.mu.RLock()
	defer r.mu.RUnlock()

	formats := make([]domain.Format, 0, len(r.normalisers))
	for f := range r.normalisers {
		formats = append(formats, f)
	}
	sort.Slice(formats, func(i, j int) bool { return formats[i] < formats[j] })
	return formats
}
