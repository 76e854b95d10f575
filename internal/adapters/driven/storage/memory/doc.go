// Package memory provides in-process implementations of driven ports:
// an exact cosine vector index, an LRU embedding cache and a config
// store used in tests.
package memory
