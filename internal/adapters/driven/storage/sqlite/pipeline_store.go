package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/regdesk/internal/core/domain"
	"github.com/custodia-labs/regdesk/internal/core/ports/driven"
)

// ==================== Watermark Store ====================

// watermarkStore implements driven.WatermarkStore over the single-row
// watermark table.
type watermarkStore struct {
	store *Store
}

var _ driven.WatermarkStore = (*watermarkStore)(nil)

// Load returns the committed watermark, or a zero Watermark if none.
func (s *watermarkStore) Load(ctx context.Context) (domain.Watermark, error) {
	var date, updatedAt string
	err := s.store.db.QueryRowContext(ctx,
		"SELECT last_processed_date, updated_at FROM watermark WHERE id = 1").Scan(&date, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Watermark{}, nil
	}
	if err != nil {
		return domain.Watermark{}, fmt.Errorf("loading watermark: %w", err)
	}

	last, err := domain.ParseDate(date)
	if err != nil {
		return domain.Watermark{}, fmt.Errorf("loading watermark: %w", err)
	}
	return domain.Watermark{LastProcessedDate: last, UpdatedAt: parseTime(updatedAt)}, nil
}

// Commit durably stores the watermark.
func (s *watermarkStore) Commit(ctx context.Context, w domain.Watermark) error {
	if w.IsZero() {
		return fmt.Errorf("%w: empty watermark", domain.ErrInvalidInput)
	}

	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO watermark (id, last_processed_date, updated_at)
		VALUES (1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			last_processed_date = excluded.last_processed_date,
			updated_at = excluded.updated_at
	`, domain.FormatDate(w.LastProcessedDate), formatTime(w.UpdatedAt))
	if err != nil {
		return fmt.Errorf("committing watermark: %w", err)
	}
	return nil
}

// Clear deletes the watermark row.
func (s *watermarkStore) Clear(ctx context.Context) error {
	if _, err := s.store.db.ExecContext(ctx, "DELETE FROM watermark WHERE id = 1"); err != nil {
		return fmt.Errorf("clearing watermark: %w", err)
	}
	return nil
}

// ==================== Run Lock ====================

// runLock implements driven.RunLock as a single-row lease. Claiming and
// renewing are one upsert, so two processes cannot both win.
type runLock struct {
	store *Store
}

var _ driven.RunLock = (*runLock)(nil)

// Acquire claims or renews the lease.
func (l *runLock) Acquire(ctx context.Context, owner string, ttl time.Duration) error {
	if owner == "" || ttl <= 0 {
		return fmt.Errorf("%w: lease owner and ttl are required", domain.ErrInvalidInput)
	}

	now := time.Now().UTC()
	res, err := l.store.db.ExecContext(ctx, `
		INSERT INTO pipeline_lock (id, owner, expires_at) VALUES (1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			owner = excluded.owner,
			expires_at = excluded.expires_at
		WHERE pipeline_lock.owner = excluded.owner OR pipeline_lock.expires_at <= ?
	`, owner, formatTime(now.Add(ttl)), formatTime(now))
	if err != nil {
		return fmt.Errorf("acquiring run lease: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("acquiring run lease: %w", err)
	}
	if n == 0 {
		return domain.ErrPipelineRunning
	}
	return nil
}

// Release deletes the lease row if owner holds it.
func (l *runLock) Release(ctx context.Context, owner string) error {
	if _, err := l.store.db.ExecContext(ctx, "DELETE FROM pipeline_lock WHERE id = 1 AND owner = ?", owner); err != nil {
		return fmt.Errorf("releasing run lease: %w", err)
	}
	return nil
}

// ==================== Run History Store ====================

// runHistoryStore implements driven.RunHistoryStore.
type runHistoryStore struct {
	store *Store
}

var _ driven.RunHistoryStore = (*runHistoryStore)(nil)

// validationRecord is the stored form of a dropped record.
type validationRecord struct {
	DocumentID string `json:"document_id,omitempty"`
	Field      string `json:"field"`
	Reason     string `json:"reason"`
}

// RecordRun stores a run report, replacing any report with the same ID.
func (s *runHistoryStore) RecordRun(ctx context.Context, report *domain.RunReport) error {
	if report == nil || report.ID == "" {
		return domain.ErrInvalidInput
	}

	records := make([]validationRecord, len(report.ValidationErrors))
	for i, v := range report.ValidationErrors {
		records[i] = validationRecord{DocumentID: v.DocumentID, Field: v.Field, Reason: v.Reason}
	}
	validationJSON, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("marshalling validation errors: %w", err)
	}

	_, err = s.store.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO pipeline_runs (
			id, mode, since_date, until_date, state, failed_state,
			fetched, pages, inserted, updated, unchanged, validation_errors,
			previous_watermark, committed_watermark, error, started_at, ended_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, report.ID, string(report.Mode),
		nullString(domain.FormatDate(report.Since)), nullString(domain.FormatDate(report.Until)),
		string(report.State), nullString(string(report.FailedState)),
		report.Fetched, report.Pages,
		report.Upsert.Inserted, report.Upsert.Updated, report.Upsert.Unchanged,
		string(validationJSON),
		nullString(domain.FormatDate(report.PreviousWatermark)),
		nullString(domain.FormatDate(report.CommittedWatermark)),
		nullString(report.Error),
		formatTime(report.StartedAt), nullString(formatTime(report.EndedAt)))
	if err != nil {
		return fmt.Errorf("recording run: %w", err)
	}
	return nil
}

// ListRuns returns the most recent runs, newest first.
func (s *runHistoryStore) ListRuns(ctx context.Context, limit int) ([]domain.RunReport, error) {
	if limit <= 0 {
		limit = -1 // SQLite: no limit
	}

	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, mode, since_date, until_date, state, failed_state,
			fetched, pages, inserted, updated, unchanged, validation_errors,
			previous_watermark, committed_watermark, error, started_at, ended_at
		FROM pipeline_runs
		ORDER BY started_at DESC, rowid DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []domain.RunReport //nolint:prealloc // size unknown from query
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating runs: %w", err)
	}
	return runs, nil
}

func scanRun(rows *sql.Rows) (*domain.RunReport, error) {
	var run domain.RunReport
	var mode, state, validationJSON, startedAt string
	var since, until, failedState, previous, committed, errMsg, endedAt sql.NullString

	if err := rows.Scan(&run.ID, &mode, &since, &until, &state, &failedState,
		&run.Fetched, &run.Pages, &run.Upsert.Inserted, &run.Upsert.Updated, &run.Upsert.Unchanged,
		&validationJSON, &previous, &committed, &errMsg, &startedAt, &endedAt); err != nil {
		return nil, fmt.Errorf("scanning run: %w", err)
	}

	run.Mode = domain.RunMode(mode)
	run.State = domain.PipelineState(state)
	run.FailedState = domain.PipelineState(failedState.String)
	run.Since = parseNullableDate(since)
	run.Until = parseNullableDate(until)
	run.PreviousWatermark = parseNullableDate(previous)
	run.CommittedWatermark = parseNullableDate(committed)
	run.Error = errMsg.String
	run.StartedAt = parseTime(startedAt)
	run.EndedAt = parseTime(endedAt.String)

	var records []validationRecord
	if err := json.Unmarshal([]byte(validationJSON), &records); err != nil {
		return nil, fmt.Errorf("unmarshalling validation errors: %w", err)
	}
	for _, r := range records {
		run.ValidationErrors = append(run.ValidationErrors, domain.ValidationError{
			DocumentID: r.DocumentID, Field: r.Field, Reason: r.Reason,
		})
	}

	return &run, nil
}
