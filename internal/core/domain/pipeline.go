package domain

import "time"

// Watermark is the persisted ingestion cursor: the most recent publication
// date that has been fully ingested.
type Watermark struct {
	// LastProcessedDate is the cursor value, midnight UTC. Zero means unset.
	LastProcessedDate time.Time

	// UpdatedAt is when the watermark was last committed.
	UpdatedAt time.Time
}

// IsZero reports whether no watermark has been committed.
func (w Watermark) IsZero() bool {
	return w.LastProcessedDate.IsZero()
}

// Advance returns the later of the current cursor and candidate.
// The watermark never moves backwards through Advance.
func (w Watermark) Advance(candidate time.Time) Watermark {
	if candidate.After(w.LastProcessedDate) {
		return Watermark{LastProcessedDate: TruncateDate(candidate)}
	}
	return Watermark{LastProcessedDate: w.LastProcessedDate}
}

// PipelineState is a state of the ingestion state machine.
type PipelineState string

// Pipeline states in execution order. Abort is reachable from any state.
const (
	StateLoadWatermark   PipelineState = "LOAD_WATERMARK"
	StateFetch           PipelineState = "FETCH"
	StateNormalize       PipelineState = "NORMALIZE"
	StateUpsert          PipelineState = "UPSERT"
	StateCommitWatermark PipelineState = "COMMIT_WATERMARK"
	StateDone            PipelineState = "DONE"
	StateAbort           PipelineState = "ABORT"
)

// RunMode selects how the pipeline chooses its date range.
type RunMode string

// Run modes.
const (
	// RunModeIncremental starts from the persisted watermark.
	RunModeIncremental RunMode = "incremental"

	// RunModeFullRefresh ignores the watermark, reloads the lookback window
	// and resets the watermark to the reloaded batch.
	RunModeFullRefresh RunMode = "full_refresh"
)

// RunOptions configures a single pipeline run.
type RunOptions struct {
	// Mode selects incremental or full-refresh behaviour.
	Mode RunMode

	// Since overrides the computed range start when non-zero.
	Since time.Time

	// Until overrides the computed range end (today) when non-zero.
	Until time.Time
}

// UpsertOutcome is the result of upserting a single document.
type UpsertOutcome int

const (
	// UpsertInserted means the document was new.
	UpsertInserted UpsertOutcome = iota

	// UpsertUpdated means the stored content hash differed.
	UpsertUpdated

	// UpsertUnchanged means the stored content hash matched; nothing written.
	UpsertUnchanged
)

// UpsertStats counts upsert outcomes over a batch.
type UpsertStats struct {
	Inserted  int
	Updated   int
	Unchanged int
}

// Add records one outcome.
func (s *UpsertStats) Add(o UpsertOutcome) {
	switch o {
	case UpsertInserted:
		s.Inserted++
	case UpsertUpdated:
		s.Updated++
	case UpsertUnchanged:
		s.Unchanged++
	}
}

// Written returns the number of rows actually written.
func (s UpsertStats) Written() int {
	return s.Inserted + s.Updated
}

// RunReport describes one pipeline run.
type RunReport struct {
	// ID is the unique run identifier.
	ID string

	// Mode is the run mode.
	Mode RunMode

	// Since and Until are the fetched publication date range (inclusive).
	Since time.Time
	Until time.Time

	// State is the last state reached: StateDone or StateAbort while
	// finished, otherwise the current state.
	State PipelineState

	// FailedState is the state in which an aborted run failed.
	FailedState PipelineState

	// Fetched is the number of raw records retrieved.
	Fetched int

	// Pages is the number of upstream pages retrieved.
	Pages int

	// Upsert counts inserted, updated and unchanged documents.
	Upsert UpsertStats

	// ValidationErrors lists records dropped by the normaliser.
	ValidationErrors []ValidationError

	// PreviousWatermark is the cursor before the run.
	PreviousWatermark time.Time

	// CommittedWatermark is the cursor written by the run, zero if none.
	CommittedWatermark time.Time

	// Error holds the abort reason.
	Error string

	// StartedAt and EndedAt bound the run.
	StartedAt time.Time
	EndedAt   time.Time
}

// Succeeded reports whether the run reached StateDone.
func (r *RunReport) Succeeded() bool {
	return r.State == StateDone
}
