// Package normalisers provides implementations of the Normaliser interface
// for the supported document formats. Each normaliser turns one staged
// file format into text segments.
//
// Normalisers are registered with a Registry at startup and selected by
// the document's format.
package normalisers
