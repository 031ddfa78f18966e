package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/regdesk/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/regdesk/internal/core/domain"
	"github.com/custodia-labs/regdesk/internal/core/ports/driven"
)

// timeLayout is fixed-width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// Store is a unified SQLite-based storage that provides access to
// all store interfaces through wrapper types.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.regdesk/data/regdesk.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".regdesk", "data")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "regdesk.db")

	// Pragmas in the DSN apply to every pooled connection.
	dsn := dbPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// DocumentStore returns a DocumentStore interface backed by this store.
func (s *Store) DocumentStore() driven.DocumentStore {
	return &documentStore{store: s}
}

// WatermarkStore returns a WatermarkStore interface backed by this store.
func (s *Store) WatermarkStore() driven.WatermarkStore {
	return &watermarkStore{store: s}
}

// RunLock returns the cross-process pipeline run lease backed by this store.
func (s *Store) RunLock() driven.RunLock {
	return &runLock{store: s}
}

// RunHistoryStore returns a RunHistoryStore interface backed by this store.
func (s *Store) RunHistoryStore() driven.RunHistoryStore {
	return &runHistoryStore{store: s}
}

// SchedulerStore returns a SchedulerStore interface backed by this store.
func (s *Store) SchedulerStore() driven.SchedulerStore {
	return &schedulerStore{store: s}
}

// migrate runs all pending migrations, each in its own transaction.
func (s *Store) migrate(fsys fs.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// Extract version number (e.g., "001_initial.up.sql" -> 1)
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}

		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		if err := s.applyMigration(version, string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
	}

	return nil
}

func (s *Store) applyMigration(version int, script string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.Exec(script); err != nil {
		return err
	}
	if _, err := tx.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
		return err
	}
	return tx.Commit()
}

// ==================== Document Store ====================

// documentStore implements driven.DocumentStore.
type documentStore struct {
	store *Store
}

var _ driven.DocumentStore = (*documentStore)(nil)

const documentColumns = `d.id, d.title, d.type, d.publication_date, d.abstract, d.source_url,
	d.effective_date, d.significant, d.full_text, d.content_hash, d.created_at, d.updated_at`

// GetContentHash returns the stored content hash for a document.
func (s *documentStore) GetContentHash(ctx context.Context, id string) (string, error) {
	var hash string
	err := s.store.db.QueryRowContext(ctx, "SELECT content_hash FROM documents WHERE id = ?", id).Scan(&hash)
	if errors.Is(err, sql.ErrNoRows) {
		return "", domain.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("querying content hash: %w", err)
	}
	return hash, nil
}

// InsertDocument stores a new document with its agencies in one transaction.
func (s *documentStore) InsertDocument(ctx context.Context, doc *domain.Document) error {
	if doc == nil || doc.ID == "" {
		return domain.ErrInvalidInput
	}

	return s.inTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO documents (id, title, type, publication_date, abstract, source_url,
				effective_date, significant, full_text, content_hash, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, doc.ID, doc.Title, string(doc.Type), domain.FormatDate(doc.PublicationDate),
			doc.Abstract, doc.SourceURL,
			domain.FormatDate(doc.EffectiveDate), doc.Significant, doc.FullText, doc.ContentHash,
			formatTime(doc.CreatedAt), formatTime(doc.UpdatedAt))
		if err != nil {
			return fmt.Errorf("inserting document: %w", err)
		}
		return linkAgencies(ctx, tx, doc)
	})
}

// UpdateDocument replaces a stored document's fields and agencies.
// The creation time is kept.
func (s *documentStore) UpdateDocument(ctx context.Context, doc *domain.Document) error {
	if doc == nil {
		return domain.ErrInvalidInput
	}

	return s.inTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE documents SET
				title = ?, type = ?, publication_date = ?, abstract = ?, source_url = ?,
				effective_date = ?, significant = ?, full_text = ?,
				content_hash = ?, updated_at = ?
			WHERE id = ?
		`, doc.Title, string(doc.Type), domain.FormatDate(doc.PublicationDate),
			doc.Abstract, doc.SourceURL,
			domain.FormatDate(doc.EffectiveDate), doc.Significant, doc.FullText,
			doc.ContentHash, formatTime(doc.UpdatedAt), doc.ID)
		if err != nil {
			return fmt.Errorf("updating document: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("updating document: %w", err)
		}
		if n == 0 {
			return domain.ErrNotFound
		}

		if _, err := tx.ExecContext(ctx, "DELETE FROM document_agencies WHERE document_id = ?", doc.ID); err != nil {
			return fmt.Errorf("clearing agencies: %w", err)
		}
		return linkAgencies(ctx, tx, doc)
	})
}

// Purge deletes every document and agency.
func (s *documentStore) Purge(ctx context.Context) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		for _, table := range []string{"document_agencies", "documents", "agencies"} {
			if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
				return fmt.Errorf("purging %s: %w", table, err)
			}
		}
		return nil
	})
}

// GetDocument retrieves a document by ID.
func (s *documentStore) GetDocument(ctx context.Context, id string) (*domain.Document, error) {
	row := s.store.db.QueryRowContext(ctx, "SELECT "+documentColumns+" FROM documents d WHERE d.id = ?", id)

	doc, err := scanDocument(row)
	if err != nil {
		return nil, err
	}

	docs := []domain.Document{*doc}
	if err := s.loadAgencies(ctx, docs); err != nil {
		return nil, err
	}
	return &docs[0], nil
}

// SearchDocuments returns matching documents, newest first.
func (s *documentStore) SearchDocuments(ctx context.Context, q domain.DocumentQuery) ([]domain.Document, error) {
	where, args := documentFilter(&q)

	query := "SELECT " + documentColumns + " FROM documents d" + where +
		" ORDER BY d.publication_date DESC, d.id DESC"
	if q.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, q.Limit)
	}

	rows, err := s.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()

	var docs []domain.Document //nolint:prealloc // size unknown from query
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating documents: %w", err)
	}

	if err := s.loadAgencies(ctx, docs); err != nil {
		return nil, err
	}
	return docs, nil
}

// CountByType counts matching documents grouped by type.
func (s *documentStore) CountByType(ctx context.Context, q domain.DocumentQuery) ([]domain.TypeCount, error) {
	where, args := documentFilter(&q)

	rows, err := s.store.db.QueryContext(ctx,
		"SELECT d.type, COUNT(*) FROM documents d"+where+" GROUP BY d.type ORDER BY d.type", args...)
	if err != nil {
		return nil, fmt.Errorf("counting documents: %w", err)
	}
	defer rows.Close()

	var counts []domain.TypeCount
	for rows.Next() {
		var typ string
		var n int
		if err := rows.Scan(&typ, &n); err != nil {
			return nil, fmt.Errorf("scanning count: %w", err)
		}
		counts = append(counts, domain.TypeCount{Type: domain.DocumentType(typ), Count: n})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating counts: %w", err)
	}
	return counts, nil
}

// ListAgencies returns agencies that have documents, by name.
func (s *documentStore) ListAgencies(ctx context.Context, q domain.AgencyQuery) ([]domain.AgencySummary, error) {
	query := `
		SELECT a.id, a.name, a.acronym, COUNT(da.document_id)
		FROM agencies a
		JOIN document_agencies da ON da.agency_id = a.id`
	var args []any
	if q.NameContains != "" {
		query += ` WHERE a.name LIKE ? ESCAPE '\'`
		args = append(args, likePattern(q.NameContains))
	}
	query += " GROUP BY a.id, a.name, a.acronym ORDER BY a.name"
	if q.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, q.Limit)
	}

	rows, err := s.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying agencies: %w", err)
	}
	defer rows.Close()

	var agencies []domain.AgencySummary
	for rows.Next() {
		var a domain.AgencySummary
		if err := rows.Scan(&a.ID, &a.Name, &a.Acronym, &a.Documents); err != nil {
			return nil, fmt.Errorf("scanning agency: %w", err)
		}
		agencies = append(agencies, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating agencies: %w", err)
	}
	return agencies, nil
}

// CountDocuments returns the total number of stored documents.
func (s *documentStore) CountDocuments(ctx context.Context) (int, error) {
	var n int
	if err := s.store.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM documents").Scan(&n); err != nil {
		return 0, fmt.Errorf("counting documents: %w", err)
	}
	return n, nil
}

// loadAgencies fills in the agencies of docs with one IN query.
func (s *documentStore) loadAgencies(ctx context.Context, docs []domain.Document) error {
	if len(docs) == 0 {
		return nil
	}

	index := make(map[string]int, len(docs))
	placeholders := make([]string, len(docs))
	args := make([]any, len(docs))
	for i := range docs {
		index[docs[i].ID] = i
		placeholders[i] = "?"
		args[i] = docs[i].ID
	}

	rows, err := s.store.db.QueryContext(ctx, `
		SELECT da.document_id, a.id, a.name, a.acronym
		FROM document_agencies da
		JOIN agencies a ON a.id = da.agency_id
		WHERE da.document_id IN (`+strings.Join(placeholders, ", ")+`)
		ORDER BY da.document_id, da.position
	`, args...)
	if err != nil {
		return fmt.Errorf("querying document agencies: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var docID string
		var agency domain.Agency
		if err := rows.Scan(&docID, &agency.ID, &agency.Name, &agency.Acronym); err != nil {
			return fmt.Errorf("scanning document agency: %w", err)
		}
		if i, ok := index[docID]; ok {
			docs[i].Agencies = append(docs[i].Agencies, agency)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating document agencies: %w", err)
	}
	return nil
}

func (s *documentStore) inTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// linkAgencies registers the document's agencies and associations.
// The first display name seen for an agency is kept; an acronym fills in
// once one is known.
func linkAgencies(ctx context.Context, tx *sql.Tx, doc *domain.Document) error {
	for i, agency := range doc.Agencies {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO agencies (id, name, acronym) VALUES (?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET acronym = excluded.acronym
			WHERE agencies.acronym = '' AND excluded.acronym != ''
		`, agency.ID, agency.Name, agency.Acronym); err != nil {
			return fmt.Errorf("saving agency: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO document_agencies (document_id, agency_id, position) VALUES (?, ?, ?)",
			doc.ID, agency.ID, i); err != nil {
			return fmt.Errorf("linking agency: %w", err)
		}
	}
	return nil
}

// documentFilter renders q as a parameterised WHERE clause over alias d.
func documentFilter(q *domain.DocumentQuery) (string, []any) {
	var clauses []string
	var args []any

	if q.Type != "" {
		clauses = append(clauses, "d.type = ?")
		args = append(args, string(q.Type))
	}
	if !q.PublishedAfter.IsZero() {
		clauses = append(clauses, "d.publication_date >= ?")
		args = append(args, domain.FormatDate(q.PublishedAfter))
	}
	if !q.PublishedBefore.IsZero() {
		clauses = append(clauses, "d.publication_date <= ?")
		args = append(args, domain.FormatDate(q.PublishedBefore))
	}
	if q.Keyword != "" {
		pattern := likePattern(q.Keyword)
		clauses = append(clauses,
			`(d.title LIKE ? ESCAPE '\' OR d.abstract LIKE ? ESCAPE '\' OR d.full_text LIKE ? ESCAPE '\')`)
		args = append(args, pattern, pattern, pattern)
	}
	if q.Agency != "" {
		clauses = append(clauses, `EXISTS (
			SELECT 1 FROM document_agencies da
			WHERE da.document_id = d.id AND da.agency_id LIKE ? ESCAPE '\')`)
		args = append(args, likePattern(strings.ToLower(q.Agency)))
	}

	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

// likePattern wraps s for a literal substring LIKE match.
func likePattern(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(s) + "%"
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanDocument scans a document row without agencies.
func scanDocument(row rowScanner) (*domain.Document, error) {
	var doc domain.Document
	var typ, published, effective, createdAt, updatedAt string

	if err := row.Scan(&doc.ID, &doc.Title, &typ, &published, &doc.Abstract, &doc.SourceURL,
		&effective, &doc.Significant, &doc.FullText,
		&doc.ContentHash, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning document: %w", err)
	}

	date, err := domain.ParseDate(published)
	if err != nil {
		return nil, fmt.Errorf("document %s: %w", doc.ID, err)
	}
	doc.Type = domain.DocumentType(typ)
	doc.PublicationDate = date
	if effective != "" {
		if doc.EffectiveDate, err = domain.ParseDate(effective); err != nil {
			return nil, fmt.Errorf("document %s: %w", doc.ID, err)
		}
	}
	doc.CreatedAt = parseTime(createdAt)
	doc.UpdatedAt = parseTime(updatedAt)

	return &doc, nil
}

// formatTime formats t in UTC with timeLayout; zero formats as "".
func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(timeLayout)
}

// parseTime parses a timeLayout string, returning zero time on error.
func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
