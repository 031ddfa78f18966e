package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/regdesk/internal/core/domain"
	"github.com/custodia-labs/regdesk/internal/core/ports/driven"
	"github.com/custodia-labs/regdesk/internal/core/ports/driving"
	"github.com/custodia-labs/regdesk/internal/logger"
)

// Ensure PipelineOrchestrator implements the interface.
var _ driving.PipelineOrchestrator = (*PipelineOrchestrator)(nil)

// PipelineOrchestrator drives one ingestion run at a time through
// LOAD_WATERMARK, FETCH, NORMALIZE, UPSERT and COMMIT_WATERMARK.
//
// The watermark is committed only after every record of the batch has been
// upserted, so an interrupted run is redone from the previous watermark and
// content hashes make the redo idempotent.
type PipelineOrchestrator struct {
	source     driven.DocumentSource
	normaliser driven.Normaliser
	store      driven.DocumentStore
	watermarks driven.WatermarkStore
	history    driven.RunHistoryStore
	upserter   *Upserter
	config     domain.PipelineConfig
	now        func() time.Time

	// runMu is the run guard; a second Run fails fast instead of queueing.
	runMu sync.Mutex

	// lock extends the run guard across processes sharing one store.
	lock     driven.RunLock
	leaseTTL time.Duration

	// Status tracking
	mu     sync.RWMutex
	active *domain.RunReport
}

// NewPipelineOrchestrator creates a pipeline orchestrator.
// history is optional; when nil, finished runs are only logged.
func NewPipelineOrchestrator(
	source driven.DocumentSource,
	normaliser driven.Normaliser,
	store driven.DocumentStore,
	watermarks driven.WatermarkStore,
	history driven.RunHistoryStore,
	config domain.PipelineConfig,
) *PipelineOrchestrator {
	return &PipelineOrchestrator{
		source:     source,
		normaliser: normaliser,
		store:      store,
		watermarks: watermarks,
		history:    history,
		upserter:   NewUpserter(store),
		config:     config,
		now:        time.Now,
	}
}

// SetClock replaces the wall clock. "Today" for range computation is the
// UTC civil date of now().
func (o *PipelineOrchestrator) SetClock(now func() time.Time) {
	o.now = now
	o.upserter.now = now
}

// defaultLeaseTTL bounds how long a crashed process blocks other runs.
const defaultLeaseTTL = 2 * time.Minute

// SetRunLock installs a cross-process run lease taken after the in-process
// guard. The lease is renewed every ttl/4 while the run is active; a ttl of
// zero uses two minutes.
func (o *PipelineOrchestrator) SetRunLock(lock driven.RunLock, ttl time.Duration) {
	if ttl <= 0 {
		ttl = defaultLeaseTTL
	}
	o.lock = lock
	o.leaseTTL = ttl
}

// Run executes one pipeline run.
func (o *PipelineOrchestrator) Run(ctx context.Context, opts domain.RunOptions) (*domain.RunReport, error) {
	if !o.runMu.TryLock() {
		return nil, domain.ErrPipelineRunning
	}
	defer o.runMu.Unlock()

	if opts.Mode == "" {
		opts.Mode = domain.RunModeIncremental
	}
	if opts.Mode != domain.RunModeIncremental && opts.Mode != domain.RunModeFullRefresh {
		return nil, fmt.Errorf("%w: run mode %q", domain.ErrInvalidInput, opts.Mode)
	}

	report := &domain.RunReport{
		ID:        uuid.New().String(),
		Mode:      opts.Mode,
		StartedAt: o.now().UTC(),
	}
	log := logger.With("run", report.ID, "mode", string(opts.Mode))

	if o.lock != nil {
		if err := o.lock.Acquire(ctx, report.ID, o.leaseTTL); err != nil {
			if !errors.Is(err, domain.ErrPipelineRunning) {
				err = fmt.Errorf("acquire run lease: %w", err)
			}
			return nil, err
		}
		var release func()
		ctx, release = o.holdLease(ctx, report.ID, log)
		defer release()
	}

	o.setActive(report)
	defer o.clearActive()

	log.Info("pipeline run started")

	err := o.execute(ctx, opts, report, log)
	if err != nil && errors.Is(context.Cause(ctx), domain.ErrRunLeaseLost) {
		err = fmt.Errorf("%w: %w", domain.ErrRunLeaseLost, err)
	}

	o.update(func() {
		report.EndedAt = o.now().UTC()
		if err != nil {
			report.FailedState = report.State
			report.State = domain.StateAbort
			report.Error = err.Error()
		}
	})

	if err != nil {
		log.Error("pipeline run aborted", "state", string(report.FailedState), "error", err)
	} else {
		log.Info("pipeline run finished",
			"fetched", report.Fetched,
			"inserted", report.Upsert.Inserted,
			"updated", report.Upsert.Updated,
			"unchanged", report.Upsert.Unchanged,
			"invalid", len(report.ValidationErrors),
			"watermark", domain.FormatDate(report.CommittedWatermark))
	}

	o.recordRun(ctx, report, log)
	return o.snapshot(report), err
}

// holdLease renews the run lease until the returned release func is called.
// Losing the lease to another owner cancels the run with ErrRunLeaseLost.
func (o *PipelineOrchestrator) holdLease(
	ctx context.Context,
	owner string,
	log *logger.Scoped,
) (context.Context, func()) {
	ctx, cancel := context.WithCancelCause(ctx)
	stop := make(chan struct{})
	stopped := make(chan struct{})

	go func() {
		defer close(stopped)
		ticker := time.NewTicker(o.leaseTTL / 4)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ctx.Done():
				return
			case <-ticker.C:
				err := o.lock.Acquire(ctx, owner, o.leaseTTL)
				switch {
				case err == nil:
				case errors.Is(err, domain.ErrPipelineRunning):
					log.Error("run lease lost", "error", err)
					cancel(domain.ErrRunLeaseLost)
					return
				default:
					log.Warn("run lease renewal failed", "error", err)
				}
			}
		}
	}()

	return ctx, func() {
		close(stop)
		<-stopped
		releaseCtx, done := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer done()
		if err := o.lock.Release(releaseCtx, owner); err != nil {
			log.Warn("run lease release failed", "error", err)
		}
		cancel(nil)
	}
}

// execute walks the state machine. The returned error aborts the run in
// whatever state it was raised.
func (o *PipelineOrchestrator) execute(
	ctx context.Context,
	opts domain.RunOptions,
	report *domain.RunReport,
	log *logger.Scoped,
) error {
	today := domain.TruncateDate(o.now())
	lookbackStart := today.AddDate(0, 0, -o.config.LookbackDays)

	// LOAD_WATERMARK; full refresh skips it and uses the lookback window.
	var prior domain.Watermark
	if opts.Mode == domain.RunModeIncremental {
		o.transition(report, domain.StateLoadWatermark, log)
		loaded, err := o.watermarks.Load(ctx)
		if err != nil {
			return fmt.Errorf("load watermark: %w", err)
		}
		prior = loaded
	}

	since := lookbackStart
	if !prior.IsZero() {
		// Inclusive: documents published later on the watermark day are
		// picked up again; unchanged ones are skipped by hash.
		since = prior.LastProcessedDate
	}
	if !opts.Since.IsZero() {
		since = domain.TruncateDate(opts.Since)
	}
	until := today
	if !opts.Until.IsZero() {
		until = domain.TruncateDate(opts.Until)
	}
	if since.After(until) {
		return fmt.Errorf("%w: since %s is after until %s",
			domain.ErrInvalidInput, domain.FormatDate(since), domain.FormatDate(until))
	}

	o.update(func() {
		report.Since = since
		report.Until = until
		report.PreviousWatermark = prior.LastProcessedDate
	})
	log.Debug("resolved date range", "since", domain.FormatDate(since), "until", domain.FormatDate(until))

	// FETCH
	o.transition(report, domain.StateFetch, log)
	raws, complete, err := o.fetch(ctx, since, until, report)
	if err != nil {
		return err
	}
	o.update(func() { report.Pages = complete.Pages })

	// NORMALIZE
	o.transition(report, domain.StateNormalize, log)
	docs, candidate := o.normalise(raws, report, log)

	// UPSERT
	o.transition(report, domain.StateUpsert, log)
	if opts.Mode == domain.RunModeFullRefresh && len(docs) > 0 {
		// Cleared first so a refresh interrupted after the purge is
		// redone from the lookback window rather than the old cursor.
		if err := o.watermarks.Clear(ctx); err != nil {
			return fmt.Errorf("clear watermark: %w", err)
		}
		if err := o.store.Purge(ctx); err != nil {
			return fmt.Errorf("purge store: %w", err)
		}
		log.Info("store purged for full refresh")
	}
	stats, err := o.upserter.Upsert(ctx, docs)
	o.update(func() { report.Upsert = stats })
	if err != nil {
		return fmt.Errorf("upsert: %w", err)
	}

	// COMMIT_WATERMARK
	o.transition(report, domain.StateCommitWatermark, log)
	next, commit := nextWatermark(opts.Mode, prior, candidate)
	if commit {
		next.UpdatedAt = o.now().UTC()
		if err := o.watermarks.Commit(ctx, next); err != nil {
			return fmt.Errorf("commit watermark: %w", err)
		}
		o.update(func() { report.CommittedWatermark = next.LastProcessedDate })
	}

	o.transition(report, domain.StateDone, log)
	return nil
}

// nextWatermark decides what COMMIT_WATERMARK writes. An empty batch writes
// nothing. Incremental runs only move the cursor forward; full refresh
// resets it to the reloaded batch.
func nextWatermark(mode domain.RunMode, prior domain.Watermark, candidate time.Time) (domain.Watermark, bool) {
	if candidate.IsZero() {
		return prior, false
	}
	if mode == domain.RunModeFullRefresh {
		return domain.Watermark{LastProcessedDate: domain.TruncateDate(candidate)}, true
	}
	next := prior.Advance(candidate)
	return next, next.LastProcessedDate.After(prior.LastProcessedDate)
}

// fetch drains the source. The batch counts as complete only once the
// source has signalled FetchComplete; channels closing without it is an
// incomplete fetch.
//
//nolint:gocognit // Coordinates two channels and cancellation
func (o *PipelineOrchestrator) fetch(
	ctx context.Context,
	since, until time.Time,
	report *domain.RunReport,
) ([]domain.RawRecord, *driven.FetchComplete, error) {
	recordsCh, errsCh := o.source.Fetch(ctx, since, until)

	var raws []domain.RawRecord
	var complete *driven.FetchComplete

	for recordsCh != nil || errsCh != nil {
		select {
		case <-ctx.Done():
			return nil, nil, ctx.Err()

		case err, ok := <-errsCh:
			if !ok {
				errsCh = nil
				continue
			}
			if fc, done := driven.IsFetchComplete(err); done {
				complete = fc
				continue
			}
			if err != nil {
				return nil, nil, fmt.Errorf("fetch: %w", err)
			}

		case raw, ok := <-recordsCh:
			if !ok {
				recordsCh = nil
				continue
			}
			raws = append(raws, raw)
			o.update(func() { report.Fetched++ })
		}
	}

	if complete == nil {
		return nil, nil, domain.ErrFetchIncomplete
	}
	return raws, complete, nil
}

// normalise converts the batch, collecting validation errors. It returns the
// valid documents and the latest publication date among them.
func (o *PipelineOrchestrator) normalise(
	raws []domain.RawRecord,
	report *domain.RunReport,
	log *logger.Scoped,
) ([]domain.Document, time.Time) {
	docs := make([]domain.Document, 0, len(raws))
	var invalid []domain.ValidationError
	var latest time.Time

	for i := range raws {
		doc, err := o.normaliser.Normalise(&raws[i])
		if err != nil {
			var ve *domain.ValidationError
			if !errors.As(err, &ve) {
				ve = &domain.ValidationError{DocumentID: raws[i].DocumentNumber, Reason: err.Error()}
			}
			log.Warn("dropping invalid record", "document", ve.DocumentID, "field", ve.Field, "reason", ve.Reason)
			invalid = append(invalid, *ve)
			continue
		}
		if doc.PublicationDate.After(latest) {
			latest = doc.PublicationDate
		}
		docs = append(docs, *doc)
	}

	o.update(func() { report.ValidationErrors = invalid })
	return docs, latest
}

// Status returns the active run, if any.
func (o *PipelineOrchestrator) Status(ctx context.Context) (*driving.PipelineStatus, error) {
	status := &driving.PipelineStatus{}

	o.mu.RLock()
	if o.active != nil {
		status.Running = true
		status.Run = copyReport(o.active)
	}
	o.mu.RUnlock()

	w, err := o.watermarks.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load watermark: %w", err)
	}
	status.Watermark = w

	n, err := o.store.CountDocuments(ctx)
	if err != nil {
		return nil, fmt.Errorf("count documents: %w", err)
	}
	status.Documents = n

	return status, nil
}

// History returns recent finished runs, newest first.
func (o *PipelineOrchestrator) History(ctx context.Context, limit int) ([]domain.RunReport, error) {
	if o.history == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = 10
	}
	return o.history.ListRuns(ctx, limit)
}

// recordRun stores the finished report. A cancelled run is still recorded.
func (o *PipelineOrchestrator) recordRun(ctx context.Context, report *domain.RunReport, log *logger.Scoped) {
	if o.history == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := o.history.RecordRun(ctx, o.snapshot(report)); err != nil {
		log.Warn("failed to record pipeline run", "error", err)
	}
}

func (o *PipelineOrchestrator) transition(report *domain.RunReport, state domain.PipelineState, log *logger.Scoped) {
	o.update(func() { report.State = state })
	log.Debug("state changed", "state", string(state))
}

// update mutates the active report under the status lock.
func (o *PipelineOrchestrator) update(fn func()) {
	o.mu.Lock()
	defer o.mu.Unlock()
	fn()
}

func (o *PipelineOrchestrator) setActive(report *domain.RunReport) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.active = report
}

func (o *PipelineOrchestrator) clearActive() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.active = nil
}

func (o *PipelineOrchestrator) snapshot(report *domain.RunReport) *domain.RunReport {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return copyReport(report)
}

// copyReport returns a copy safe to hand out while the run continues.
func copyReport(r *domain.RunReport) *domain.RunReport {
	cp := *r
	cp.ValidationErrors = append([]domain.ValidationError(nil), r.ValidationErrors...)
	return &cp
}
