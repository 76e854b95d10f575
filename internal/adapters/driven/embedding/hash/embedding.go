// Package hash provides an offline embedding service based on feature hashing.
//
// Vectors are signed counts of lower-cased word unigrams and bigrams hashed
// into a fixed number of buckets, then L2-normalised. Texts sharing words
// score higher under cosine similarity, which is enough for keyword-heavy
// manuals and for deterministic tests.
package hash

import (
	"context"
	"hash/fnv"
	"math"
	"strconv"
	"strings"
	"unicode"

	"github.com/custodia-labs/manualqa/internal/core/ports/driven"
)

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingService = (*EmbeddingService)(nil)

// DefaultDimensions is the default number of buckets.
const DefaultDimensions = 512

// EmbeddingService hashes text into fixed-size vectors.
type EmbeddingService struct {
	dims int
}

// NewEmbeddingService creates a hashing embedder with dims buckets.
// Non-positive dims use DefaultDimensions.
func NewEmbeddingService(dims int) *EmbeddingService {
	if dims <= 0 {
		dims = DefaultDimensions
	}
	return &EmbeddingService{dims: dims}
}

// Embed hashes a single text.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.vector(text), nil
}

// EmbedBatch hashes each text independently.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(texts) == 0 {
		return nil, nil
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = s.vector(t)
	}
	return out, nil
}

// Dimensions returns the number of buckets.
func (s *EmbeddingService) Dimensions() int {
	return s.dims
}

// ModelName identifies the hashing scheme and size, e.g. "hash-512".
func (s *EmbeddingService) ModelName() string {
	return "hash-" + strconv.Itoa(s.dims)
}

// Ping always succeeds.
func (s *EmbeddingService) Ping(context.Context) error {
	return nil
}

// Close releases resources.
func (s *EmbeddingService) Close() error {
	return nil
}

func (s *EmbeddingService) vector(text string) []float32 {
	vec := make([]float32, s.dims)
	words := tokenize(text)

	for i, w := range words {
		s.add(vec, w)
		if i > 0 {
			s.add(vec, words[i-1]+" "+w)
		}
	}

	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	if sum == 0 {
		return vec
	}
	inv := float32(1 / math.Sqrt(sum))
	for i := range vec {
		vec[i] *= inv
	}
	return vec
}

func (s *EmbeddingService) add(vec []float32, feature string) {
	h := fnv.New64a()
	_, _ = h.Write([]byte(feature))
	sum := h.Sum64()

	bucket := sum % uint64(s.dims)
	if sum>>63 == 1 {
		vec[bucket]--
	} else {
		vec[bucket]++
	}
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
