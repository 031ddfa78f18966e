package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/regdesk/internal/core/domain"
	"github.com/custodia-labs/regdesk/internal/core/ports/driven"
)

// Upserter writes normalised documents, skipping unchanged ones.
type Upserter struct {
	store driven.DocumentWriter
	now   func() time.Time
}

// NewUpserter creates an upserter over a document writer.
func NewUpserter(store driven.DocumentWriter) *Upserter {
	return &Upserter{store: store, now: time.Now}
}

// UpsertOne inserts doc if absent, updates it if its content hash changed,
// and leaves the store untouched otherwise. doc.ContentHash is set.
func (u *Upserter) UpsertOne(ctx context.Context, doc *domain.Document) (domain.UpsertOutcome, error) {
	hash, err := ContentHash(doc)
	if err != nil {
		return 0, err
	}
	doc.ContentHash = hash

	stored, err := u.store.GetContentHash(ctx, doc.ID)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		now := u.now().UTC()
		doc.CreatedAt, doc.UpdatedAt = now, now
		if err := u.store.InsertDocument(ctx, doc); err != nil {
			return 0, fmt.Errorf("insert %s: %w", doc.ID, err)
		}
		return domain.UpsertInserted, nil

	case err != nil:
		return 0, fmt.Errorf("get content hash %s: %w", doc.ID, err)

	case stored == hash:
		return domain.UpsertUnchanged, nil

	default:
		doc.UpdatedAt = u.now().UTC()
		if err := u.store.UpdateDocument(ctx, doc); err != nil {
			return 0, fmt.Errorf("update %s: %w", doc.ID, err)
		}
		return domain.UpsertUpdated, nil
	}
}

// Upsert writes a batch in order. It stops at the first store failure and
// returns the counts so far with the error.
func (u *Upserter) Upsert(ctx context.Context, docs []domain.Document) (domain.UpsertStats, error) {
	var stats domain.UpsertStats
	for i := range docs {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		outcome, err := u.UpsertOne(ctx, &docs[i])
		if err != nil {
			return stats, err
		}
		stats.Add(outcome)
	}
	return stats, nil
}
