package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/custodia-labs/regdesk/internal/core/domain"
	"github.com/custodia-labs/regdesk/internal/core/ports/driven"
)

// Ensure DocumentStore implements the interface.
var _ driven.DocumentStore = (*DocumentStore)(nil)

// DocumentStore is an in-memory implementation of driven.DocumentStore.
// Filtering mirrors the SQLite store.
type DocumentStore struct {
	mu        sync.RWMutex
	documents map[string]domain.Document
	agencies  map[string]domain.Agency
}

// NewDocumentStore creates a new in-memory document store.
func NewDocumentStore() *DocumentStore {
	return &DocumentStore{
		documents: make(map[string]domain.Document),
		agencies:  make(map[string]domain.Agency),
	}
}

// GetContentHash returns the stored content hash for a document.
func (s *DocumentStore) GetContentHash(_ context.Context, id string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.documents[id]
	if !ok {
		return "", domain.ErrNotFound
	}
	return doc.ContentHash, nil
}

// InsertDocument stores a new document.
func (s *DocumentStore) InsertDocument(_ context.Context, doc *domain.Document) error {
	if doc == nil || doc.ID == "" {
		return domain.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.documents[doc.ID]; exists {
		return domain.ErrInvalidInput
	}
	s.put(doc)
	return nil
}

// UpdateDocument replaces a stored document, keeping its creation time.
func (s *DocumentStore) UpdateDocument(_ context.Context, doc *domain.Document) error {
	if doc == nil {
		return domain.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.documents[doc.ID]
	if !ok {
		return domain.ErrNotFound
	}
	cp := *doc
	cp.CreatedAt = existing.CreatedAt
	s.put(&cp)
	return nil
}

// put stores a copy of doc and registers its agencies. Caller holds mu.
func (s *DocumentStore) put(doc *domain.Document) {
	cp := *doc
	cp.Agencies = append([]domain.Agency(nil), doc.Agencies...)
	for _, a := range cp.Agencies {
		registered, ok := s.agencies[a.ID]
		switch {
		case !ok:
			s.agencies[a.ID] = a
		case registered.Acronym == "" && a.Acronym != "":
			registered.Acronym = a.Acronym
			s.agencies[a.ID] = registered
		}
	}
	s.documents[cp.ID] = cp
}

// Purge deletes every document and agency.
func (s *DocumentStore) Purge(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.documents = make(map[string]domain.Document)
	s.agencies = make(map[string]domain.Agency)
	return nil
}

// GetDocument retrieves a document by ID.
func (s *DocumentStore) GetDocument(_ context.Context, id string) (*domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.documents[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return s.withAgencyNames(doc), nil
}

// SearchDocuments returns matching documents, newest first.
func (s *DocumentStore) SearchDocuments(_ context.Context, q domain.DocumentQuery) ([]domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var results []domain.Document //nolint:prealloc // size unknown until filtered
	for _, doc := range s.documents {
		if matches(&doc, &q) {
			results = append(results, *s.withAgencyNames(doc))
		}
	}

	sort.Slice(results, func(i, j int) bool {
		if !results[i].PublicationDate.Equal(results[j].PublicationDate) {
			return results[i].PublicationDate.After(results[j].PublicationDate)
		}
		return results[i].ID > results[j].ID
	})

	if q.Limit > 0 && len(results) > q.Limit {
		results = results[:q.Limit]
	}
	return results, nil
}

// CountByType counts matching documents grouped by type.
func (s *DocumentStore) CountByType(_ context.Context, q domain.DocumentQuery) ([]domain.TypeCount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[domain.DocumentType]int)
	for _, doc := range s.documents {
		if matches(&doc, &q) {
			counts[doc.Type]++
		}
	}

	results := make([]domain.TypeCount, 0, len(counts))
	for typ, n := range counts {
		results = append(results, domain.TypeCount{Type: typ, Count: n})
	}
	sort.Slice(results, func(i, j int) bool { return results[i].Type < results[j].Type })
	return results, nil
}

// ListAgencies returns agencies that have documents, by name.
func (s *DocumentStore) ListAgencies(_ context.Context, q domain.AgencyQuery) ([]domain.AgencySummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[string]int)
	for _, doc := range s.documents {
		for _, a := range doc.Agencies {
			counts[a.ID]++
		}
	}

	needle := strings.ToLower(q.NameContains)
	var results []domain.AgencySummary
	for id, n := range counts {
		agency := s.agencies[id]
		if needle != "" && !strings.Contains(strings.ToLower(agency.Name), needle) {
			continue
		}
		results = append(results, domain.AgencySummary{Agency: agency, Documents: n})
	}
	sort.Slice(results, func(i, j int) bool { return results[i].Name < results[j].Name })

	if q.Limit > 0 && len(results) > q.Limit {
		results = results[:q.Limit]
	}
	return results, nil
}

// CountDocuments returns the total number of stored documents.
func (s *DocumentStore) CountDocuments(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.documents), nil
}

// withAgencyNames returns a copy of doc with agency display names as
// registered. Caller holds mu.
func (s *DocumentStore) withAgencyNames(doc domain.Document) *domain.Document {
	agencies := make([]domain.Agency, len(doc.Agencies))
	for i, a := range doc.Agencies {
		if registered, ok := s.agencies[a.ID]; ok {
			a = registered
		}
		agencies[i] = a
	}
	doc.Agencies = agencies
	return &doc
}

func matches(doc *domain.Document, q *domain.DocumentQuery) bool {
	if q.Type != "" && doc.Type != q.Type {
		return false
	}
	if !q.PublishedAfter.IsZero() && doc.PublicationDate.Before(q.PublishedAfter) {
		return false
	}
	if !q.PublishedBefore.IsZero() && doc.PublicationDate.After(q.PublishedBefore) {
		return false
	}
	if q.Keyword != "" {
		kw := strings.ToLower(q.Keyword)
		if !strings.Contains(strings.ToLower(doc.Title), kw) &&
			!strings.Contains(strings.ToLower(doc.Abstract), kw) &&
			!strings.Contains(strings.ToLower(doc.FullText), kw) {
			return false
		}
	}
	if q.Agency != "" {
		needle := strings.ToLower(q.Agency)
		found := false
		for _, a := range doc.Agencies {
			if strings.Contains(a.ID, needle) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
