// Package domain holds the values every other package shares: document
// references, parsed segments, chunks, per-question results, settings and
// the sentinel errors callers match with errors.Is.
//
// It imports only the standard library.
package domain
