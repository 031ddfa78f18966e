// Package normalisers provides implementations of the Normaliser interface.
// Each normaliser knows how to turn one upstream record format into
// canonical documents.
package normalisers
