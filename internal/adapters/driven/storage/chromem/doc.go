// Package chromem provides a session vector index backed by chromem-go.
//
// Each session owns one collection named after the session. Vectors are
// supplied by the caller; chromem's own embedding functions are never used.
package chromem
