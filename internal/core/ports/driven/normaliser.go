package driven

import "github.com/custodia-labs/regdesk/internal/core/domain"

// Normaliser turns upstream records into canonical documents.
// It is pure: no I/O and no clock.
type Normaliser interface {
	// Normalise validates and converts one record. A record that cannot
	// become a document yields a *domain.ValidationError; the caller drops
	// it and carries on with the batch.
	Normalise(raw *domain.RawRecord) (*domain.Document, error)
}
