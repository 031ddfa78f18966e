package driven

import (
	"context"

	"github.com/custodia-labs/regdesk/internal/core/domain"
)

// DocumentReader is the read-only view of the store used by the serving path.
// Every method takes typed, parameterised filters; there is no way to pass
// query text through to the database.
type DocumentReader interface {
	// GetDocument retrieves a document by ID.
	// Returns domain.ErrNotFound if absent.
	GetDocument(ctx context.Context, id string) (*domain.Document, error)

	// SearchDocuments returns documents matching the query, newest first.
	SearchDocuments(ctx context.Context, q domain.DocumentQuery) ([]domain.Document, error)

	// CountByType counts documents matching the query grouped by type.
	// The query's Limit is ignored.
	CountByType(ctx context.Context, q domain.DocumentQuery) ([]domain.TypeCount, error)

	// ListAgencies returns agencies with their document counts, by name.
	ListAgencies(ctx context.Context, q domain.AgencyQuery) ([]domain.AgencySummary, error)

	// CountDocuments returns the total number of stored documents.
	CountDocuments(ctx context.Context) (int, error)
}

// DocumentWriter is the ingestion-side view of the store.
// Each write is atomic for one document including its agency associations.
type DocumentWriter interface {
	// GetContentHash returns the stored content hash for a document.
	// Returns domain.ErrNotFound if absent.
	GetContentHash(ctx context.Context, id string) (string, error)

	// InsertDocument stores a new document.
	InsertDocument(ctx context.Context, doc *domain.Document) error

	// UpdateDocument replaces a stored document's fields and agencies.
	UpdateDocument(ctx context.Context, doc *domain.Document) error

	// Purge deletes every document and agency. Only full refresh calls it.
	Purge(ctx context.Context) error
}

// DocumentStore combines both views.
type DocumentStore interface {
	DocumentReader
	DocumentWriter
}
