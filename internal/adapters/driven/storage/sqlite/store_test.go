package sqlite

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/regdesk/internal/core/domain"
)

func setupTestStore(t *testing.T) (*Store, func()) {
	t.Helper()
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	return store, func() { _ = store.Close() }
}

func mustDate(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := domain.ParseDate(s)
	require.NoError(t, err)
	return d
}

func testDocument(t *testing.T, id, published string, typ domain.DocumentType, agencies ...string) *domain.Document {
	t.Helper()
	now := time.Date(2025, 3, 10, 15, 4, 5, 123456789, time.UTC)
	doc := &domain.Document{
		ID:              id,
		Title:           "Title " + id,
		Type:            typ,
		PublicationDate: mustDate(t, published),
		Abstract:        "Abstract for " + id,
		SourceURL:       "https://www.federalregister.gov/d/" + id,
		ContentHash:     "hash-" + id,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	for _, name := range agencies {
		display, key := domain.NormaliseAgencyName(name)
		doc.Agencies = append(doc.Agencies, domain.Agency{ID: key, Name: display})
	}
	return doc
}

// ==================== Store Tests ====================

func TestNewStore_CreatesDatabase(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir)
	require.NoError(t, err)
	defer store.Close()

	assert.Equal(t, filepath.Join(dir, "regdesk.db"), store.Path())
	assert.FileExists(t, store.Path())
}

func TestNewStore_MigrationsRecordedOnce(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	// Reopening must not re-run any migration.
	store, err = NewStore(dir)
	require.NoError(t, err)
	defer store.Close()

	var versions int
	require.NoError(t, store.db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&versions))
	assert.Equal(t, 3, versions)
}

func TestNewStore_ForeignKeysEnabled(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	var on int
	require.NoError(t, store.db.QueryRow("PRAGMA foreign_keys").Scan(&on))
	assert.Equal(t, 1, on)
}

// ==================== DocumentStore Tests ====================

func TestDocumentStore_InsertAndGet(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	docs := store.DocumentStore()

	doc := testDocument(t, "2025-00001", "2025-01-02", domain.DocumentTypeRule,
		"Environmental Protection Agency", "Department of Energy")
	require.NoError(t, docs.InsertDocument(ctx, doc))

	got, err := docs.GetDocument(ctx, "2025-00001")
	require.NoError(t, err)
	assert.Equal(t, doc.Title, got.Title)
	assert.Equal(t, doc.Type, got.Type)
	assert.True(t, doc.PublicationDate.Equal(got.PublicationDate))
	assert.Equal(t, doc.Abstract, got.Abstract)
	assert.Equal(t, doc.SourceURL, got.SourceURL)
	assert.Equal(t, doc.ContentHash, got.ContentHash)
	assert.True(t, doc.CreatedAt.Equal(got.CreatedAt))
	assert.Equal(t, doc.Agencies, got.Agencies)

	hash, err := docs.GetContentHash(ctx, "2025-00001")
	require.NoError(t, err)
	assert.Equal(t, "hash-2025-00001", hash)
}

func TestDocumentStore_NotFound(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	docs := store.DocumentStore()

	_, err := docs.GetDocument(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = docs.GetContentHash(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	err = docs.UpdateDocument(ctx, testDocument(t, "missing", "2025-01-02", domain.DocumentTypeRule))
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDocumentStore_InsertDuplicateFails(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	docs := store.DocumentStore()

	require.NoError(t, docs.InsertDocument(ctx, testDocument(t, "2025-1", "2025-01-02", domain.DocumentTypeRule, "EPA")))
	assert.Error(t, docs.InsertDocument(ctx, testDocument(t, "2025-1", "2025-01-02", domain.DocumentTypeRule, "EPA")))

	n, err := docs.CountDocuments(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestDocumentStore_UpdateReplacesAgencies(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	docs := store.DocumentStore()

	original := testDocument(t, "2025-1", "2025-01-02", domain.DocumentTypeProposedRule, "EPA", "DOE")
	require.NoError(t, docs.InsertDocument(ctx, original))

	updated := testDocument(t, "2025-1", "2025-01-03", domain.DocumentTypeRule, "FDA")
	updated.Title = "Final rule"
	updated.ContentHash = "hash-v2"
	updated.CreatedAt = time.Time{}
	updated.UpdatedAt = original.UpdatedAt.Add(time.Hour)
	require.NoError(t, docs.UpdateDocument(ctx, updated))

	got, err := docs.GetDocument(ctx, "2025-1")
	require.NoError(t, err)
	assert.Equal(t, "Final rule", got.Title)
	assert.Equal(t, domain.DocumentTypeRule, got.Type)
	assert.Equal(t, "hash-v2", got.ContentHash)
	assert.True(t, original.CreatedAt.Equal(got.CreatedAt), "creation time kept")
	assert.True(t, updated.UpdatedAt.Equal(got.UpdatedAt))
	assert.Equal(t, []domain.Agency{{ID: "fda", Name: "FDA"}}, got.Agencies)

	agencies, err := docs.ListAgencies(ctx, domain.AgencyQuery{})
	require.NoError(t, err)
	require.Len(t, agencies, 1, "agencies without documents are not listed")
	assert.Equal(t, "FDA", agencies[0].Name)
}

func TestDocumentStore_SearchFilters(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	docs := store.DocumentStore()

	for _, d := range []*domain.Document{
		testDocument(t, "2025-1", "2025-01-15", domain.DocumentTypeExecutiveOrder, "Executive Office of the President"),
		testDocument(t, "2025-2", "2025-02-20", domain.DocumentTypeExecutiveOrder, "Executive Office of the President"),
		testDocument(t, "2025-3", "2025-02-21", domain.DocumentTypeRule, "Environmental Protection Agency"),
		testDocument(t, "2025-4", "2025-02-21", domain.DocumentTypeNotice, "Environmental Protection Agency"),
	} {
		require.NoError(t, docs.InsertDocument(ctx, d))
	}

	ids := func(q domain.DocumentQuery) []string {
		t.Helper()
		results, err := docs.SearchDocuments(ctx, q)
		require.NoError(t, err)
		out := make([]string, len(results))
		for i, r := range results {
			out[i] = r.ID
		}
		return out
	}

	assert.Equal(t, []string{"2025-4", "2025-3", "2025-2", "2025-1"}, ids(domain.DocumentQuery{}))
	assert.Equal(t, []string{"2025-2", "2025-1"}, ids(domain.DocumentQuery{Type: domain.DocumentTypeExecutiveOrder}))
	assert.Equal(t, []string{"2025-2"}, ids(domain.DocumentQuery{
		Type:           domain.DocumentTypeExecutiveOrder,
		PublishedAfter: mustDate(t, "2025-02-09"),
	}))
	assert.Equal(t, []string{"2025-2", "2025-1"}, ids(domain.DocumentQuery{
		PublishedBefore: mustDate(t, "2025-02-20"),
	}), "date bounds are inclusive")
	assert.Equal(t, []string{"2025-4", "2025-3"}, ids(domain.DocumentQuery{Agency: "PROTECTION"}))
	assert.Equal(t, []string{"2025-3"}, ids(domain.DocumentQuery{Keyword: "for 2025-3"}))
	assert.Equal(t, []string{"2025-4"}, ids(domain.DocumentQuery{Limit: 1}))

	results, err := docs.SearchDocuments(ctx, domain.DocumentQuery{Type: domain.DocumentTypeRule})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Environmental Protection Agency", results[0].Agencies[0].Name)
}

func TestDocumentStore_SearchIsLiteral(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	docs := store.DocumentStore()

	plain := testDocument(t, "2025-1", "2025-01-02", domain.DocumentTypeRule)
	plain.Title = "Air quality standards"
	percent := testDocument(t, "2025-2", "2025-01-03", domain.DocumentTypeRule)
	percent.Title = "A 100% renewable target"
	require.NoError(t, docs.InsertDocument(ctx, plain))
	require.NoError(t, docs.InsertDocument(ctx, percent))

	for _, kw := range []string{"%", "_", "'; DROP TABLE documents; --"} {
		results, err := docs.SearchDocuments(ctx, domain.DocumentQuery{Keyword: kw})
		require.NoError(t, err, kw)
		for _, r := range results {
			assert.Equal(t, "2025-2", r.ID, "keyword %q matched literally", kw)
		}
	}

	n, err := docs.CountDocuments(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestDocumentStore_CountByType(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	docs := store.DocumentStore()

	require.NoError(t, docs.InsertDocument(ctx, testDocument(t, "1", "2025-01-01", domain.DocumentTypeRule, "EPA")))
	require.NoError(t, docs.InsertDocument(ctx, testDocument(t, "2", "2025-01-02", domain.DocumentTypeRule, "DOE")))
	require.NoError(t, docs.InsertDocument(ctx, testDocument(t, "3", "2025-01-03", domain.DocumentTypeNotice, "EPA")))

	counts, err := docs.CountByType(ctx, domain.DocumentQuery{})
	require.NoError(t, err)
	assert.Equal(t, []domain.TypeCount{
		{Type: domain.DocumentTypeNotice, Count: 1},
		{Type: domain.DocumentTypeRule, Count: 2},
	}, counts)

	counts, err = docs.CountByType(ctx, domain.DocumentQuery{Agency: "epa", Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, []domain.TypeCount{
		{Type: domain.DocumentTypeNotice, Count: 1},
		{Type: domain.DocumentTypeRule, Count: 1},
	}, counts, "limit is ignored")
}

func TestDocumentStore_ListAgencies(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	docs := store.DocumentStore()

	require.NoError(t, docs.InsertDocument(ctx, testDocument(t, "1", "2025-01-01", domain.DocumentTypeRule, "Food and Drug Administration", "Department of Energy")))
	require.NoError(t, docs.InsertDocument(ctx, testDocument(t, "2", "2025-01-02", domain.DocumentTypeRule, "Department of Energy")))

	agencies, err := docs.ListAgencies(ctx, domain.AgencyQuery{})
	require.NoError(t, err)
	require.Len(t, agencies, 2)
	assert.Equal(t, "Department of Energy", agencies[0].Name)
	assert.Equal(t, 2, agencies[0].Documents)
	assert.Equal(t, "Food and Drug Administration", agencies[1].Name)

	agencies, err = docs.ListAgencies(ctx, domain.AgencyQuery{NameContains: "drug"})
	require.NoError(t, err)
	require.Len(t, agencies, 1)
	assert.Equal(t, "food and drug administration", agencies[0].ID)

	agencies, err = docs.ListAgencies(ctx, domain.AgencyQuery{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, agencies, 1)
}

func TestDocumentStore_Purge(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	docs := store.DocumentStore()

	require.NoError(t, docs.InsertDocument(ctx, testDocument(t, "1", "2025-01-01", domain.DocumentTypeRule, "EPA")))
	require.NoError(t, docs.Purge(ctx))

	n, err := docs.CountDocuments(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	agencies, err := docs.ListAgencies(ctx, domain.AgencyQuery{})
	require.NoError(t, err)
	assert.Empty(t, agencies)

	// Reinsertion after purge works with the same IDs.
	require.NoError(t, docs.InsertDocument(ctx, testDocument(t, "1", "2025-01-01", domain.DocumentTypeRule, "EPA")))
}

func TestDocumentStore_DetailFieldsRoundTrip(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	docs := store.DocumentStore()

	doc := testDocument(t, "2025-01001", "2025-01-02", domain.DocumentTypeRule, "Environmental Protection Agency")
	doc.EffectiveDate = mustDate(t, "2025-02-01")
	doc.Significant = true
	doc.FullText = "Section 1. Emission limits for stationary turbines."
	require.NoError(t, docs.InsertDocument(ctx, doc))

	got, err := docs.GetDocument(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, "2025-02-01", domain.FormatDate(got.EffectiveDate))
	assert.True(t, got.Significant)
	assert.Equal(t, doc.FullText, got.FullText)

	plain := testDocument(t, "2025-01002", "2025-01-03", domain.DocumentTypeNotice)
	require.NoError(t, docs.InsertDocument(ctx, plain))
	got, err = docs.GetDocument(ctx, plain.ID)
	require.NoError(t, err)
	assert.True(t, got.EffectiveDate.IsZero())
	assert.False(t, got.Significant)
	assert.Empty(t, got.FullText)
}

func TestDocumentStore_KeywordSearchesFullText(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	docs := store.DocumentStore()

	withBody := testDocument(t, "1", "2025-01-02", domain.DocumentTypeRule)
	withBody.FullText = "Requirements for stationary turbines."
	require.NoError(t, docs.InsertDocument(ctx, withBody))
	require.NoError(t, docs.InsertDocument(ctx, testDocument(t, "2", "2025-01-03", domain.DocumentTypeRule)))

	results, err := docs.SearchDocuments(ctx, domain.DocumentQuery{Keyword: "turbines"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "1", results[0].ID)
}

func TestDocumentStore_AgencyAcronymFilledOnce(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	docs := store.DocumentStore()

	first := testDocument(t, "1", "2025-01-02", domain.DocumentTypeRule, "Environmental Protection Agency")
	require.NoError(t, docs.InsertDocument(ctx, first))

	second := testDocument(t, "2", "2025-01-03", domain.DocumentTypeRule, "Environmental Protection Agency")
	second.Agencies[0].Acronym = "EPA"
	require.NoError(t, docs.InsertDocument(ctx, second))

	third := testDocument(t, "3", "2025-01-04", domain.DocumentTypeRule, "Environmental Protection Agency")
	third.Agencies[0].Acronym = "XYZ"
	require.NoError(t, docs.InsertDocument(ctx, third))

	agencies, err := docs.ListAgencies(ctx, domain.AgencyQuery{})
	require.NoError(t, err)
	require.Len(t, agencies, 1)
	assert.Equal(t, "EPA", agencies[0].Acronym)

	got, err := docs.GetDocument(ctx, "1")
	require.NoError(t, err)
	require.Len(t, got.Agencies, 1)
	assert.Equal(t, "EPA", got.Agencies[0].Acronym)
}

func TestDocumentStore_ConcurrentReadsDuringWrites(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	docs := store.DocumentStore()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 20; i++ {
			id := time.Date(2025, 1, 1+i, 0, 0, 0, 0, time.UTC).Format("2006-01-02")
			assert.NoError(t, docs.InsertDocument(ctx, testDocument(t, id, id, domain.DocumentTypeNotice, "EPA")))
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 20; i++ {
			results, err := docs.SearchDocuments(ctx, domain.DocumentQuery{Agency: "epa"})
			assert.NoError(t, err)
			for _, r := range results {
				assert.Len(t, r.Agencies, 1, "a document is never seen without its agencies")
			}
		}
	}()
	wg.Wait()

	n, err := docs.CountDocuments(ctx)
	require.NoError(t, err)
	assert.Equal(t, 20, n)
}

// ==================== WatermarkStore Tests ====================

func TestWatermarkStore_LoadEmpty(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	w, err := store.WatermarkStore().Load(context.Background())
	require.NoError(t, err)
	assert.True(t, w.IsZero())
}

func TestWatermarkStore_CommitReplaces(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	wm := store.WatermarkStore()

	require.NoError(t, wm.Commit(ctx, domain.Watermark{LastProcessedDate: mustDate(t, "2025-01-02"), UpdatedAt: time.Now()}))
	require.NoError(t, wm.Commit(ctx, domain.Watermark{LastProcessedDate: mustDate(t, "2025-01-05"), UpdatedAt: time.Now()}))

	w, err := wm.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "2025-01-05", domain.FormatDate(w.LastProcessedDate))
	assert.False(t, w.UpdatedAt.IsZero())

	var rows int
	require.NoError(t, store.db.QueryRow("SELECT COUNT(*) FROM watermark").Scan(&rows))
	assert.Equal(t, 1, rows)

	assert.ErrorIs(t, wm.Commit(ctx, domain.Watermark{}), domain.ErrInvalidInput)
}

func TestWatermarkStore_Clear(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	wm := store.WatermarkStore()

	require.NoError(t, wm.Commit(ctx, domain.Watermark{LastProcessedDate: mustDate(t, "2025-01-05"), UpdatedAt: time.Now()}))
	require.NoError(t, wm.Clear(ctx))

	w, err := wm.Load(ctx)
	require.NoError(t, err)
	assert.True(t, w.IsZero())

	// Clearing an empty store is a no-op.
	require.NoError(t, wm.Clear(ctx))
}

// ==================== RunLock Tests ====================

func TestRunLock_ExcludesSecondHandle(t *testing.T) {
	dir := t.TempDir()
	first, err := NewStore(dir)
	require.NoError(t, err)
	defer first.Close()
	second, err := NewStore(dir)
	require.NoError(t, err)
	defer second.Close()

	ctx := context.Background()
	require.NoError(t, first.RunLock().Acquire(ctx, "run-a", time.Minute))

	err = second.RunLock().Acquire(ctx, "run-b", time.Minute)
	assert.ErrorIs(t, err, domain.ErrPipelineRunning)

	// The holder can renew.
	require.NoError(t, first.RunLock().Acquire(ctx, "run-a", time.Minute))

	// Releasing someone else's lease does nothing.
	require.NoError(t, second.RunLock().Release(ctx, "run-b"))
	assert.ErrorIs(t, second.RunLock().Acquire(ctx, "run-b", time.Minute), domain.ErrPipelineRunning)

	require.NoError(t, first.RunLock().Release(ctx, "run-a"))
	require.NoError(t, second.RunLock().Acquire(ctx, "run-b", time.Minute))
	assert.ErrorIs(t, first.RunLock().Acquire(ctx, "run-a", time.Minute), domain.ErrPipelineRunning)
}

func TestRunLock_ExpiredLeaseCanBeTaken(t *testing.T) {
	dir := t.TempDir()
	first, err := NewStore(dir)
	require.NoError(t, err)
	defer first.Close()
	second, err := NewStore(dir)
	require.NoError(t, err)
	defer second.Close()

	ctx := context.Background()
	require.NoError(t, first.RunLock().Acquire(ctx, "crashed", time.Millisecond))
	time.Sleep(10 * time.Millisecond)

	require.NoError(t, second.RunLock().Acquire(ctx, "run-b", time.Minute))

	var owner string
	require.NoError(t, second.db.QueryRow("SELECT owner FROM pipeline_lock").Scan(&owner))
	assert.Equal(t, "run-b", owner)
}

func TestRunLock_RejectsEmpty(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	assert.ErrorIs(t, store.RunLock().Acquire(context.Background(), "", time.Minute), domain.ErrInvalidInput)
	assert.ErrorIs(t, store.RunLock().Acquire(context.Background(), "run", 0), domain.ErrInvalidInput)
}

// ==================== RunHistoryStore Tests ====================

func TestRunHistoryStore_RecordAndList(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	runs := store.RunHistoryStore()
	start := time.Date(2025, 3, 10, 15, 0, 0, 0, time.UTC)

	first := &domain.RunReport{
		ID:                 "run-1",
		Mode:               domain.RunModeIncremental,
		Since:              mustDate(t, "2025-01-01"),
		Until:              mustDate(t, "2025-01-02"),
		State:              domain.StateDone,
		Fetched:            3,
		Pages:              1,
		Upsert:             domain.UpsertStats{Inserted: 2},
		ValidationErrors:   []domain.ValidationError{{DocumentID: "2025-x", Field: "title", Reason: "missing"}},
		CommittedWatermark: mustDate(t, "2025-01-02"),
		StartedAt:          start,
		EndedAt:            start.Add(2 * time.Second),
	}
	second := &domain.RunReport{
		ID:                "run-2",
		Mode:              domain.RunModeIncremental,
		State:             domain.StateAbort,
		FailedState:       domain.StateFetch,
		PreviousWatermark: mustDate(t, "2025-01-02"),
		Error:             "fatal fetch error",
		StartedAt:         start.Add(time.Hour),
	}
	require.NoError(t, runs.RecordRun(ctx, first))
	require.NoError(t, runs.RecordRun(ctx, second))

	list, err := runs.ListRuns(ctx, 0)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "run-2", list[0].ID)
	assert.Equal(t, domain.StateFetch, list[0].FailedState)
	assert.Equal(t, "fatal fetch error", list[0].Error)
	assert.True(t, list[0].EndedAt.IsZero())
	assert.Empty(t, list[0].ValidationErrors)

	got := list[1]
	assert.Equal(t, domain.StateDone, got.State)
	assert.Equal(t, 3, got.Fetched)
	assert.Equal(t, 2, got.Upsert.Inserted)
	assert.Equal(t, first.ValidationErrors, got.ValidationErrors)
	assert.Equal(t, "2025-01-02", domain.FormatDate(got.CommittedWatermark))
	assert.True(t, first.EndedAt.Equal(got.EndedAt))

	list, err = runs.ListRuns(ctx, 1)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "run-2", list[0].ID)
}

func TestRunHistoryStore_RejectsEmpty(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	assert.ErrorIs(t, store.RunHistoryStore().RecordRun(context.Background(), nil), domain.ErrInvalidInput)
}
