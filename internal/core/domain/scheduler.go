package domain

import "time"

// TaskIDIncrementalIngest identifies the scheduled incremental pipeline run.
const TaskIDIncrementalIngest = "incremental-ingest"

// ScheduledTask is the persisted state of a recurring background task.
type ScheduledTask struct {
	// ID is the unique identifier for the task.
	ID string

	// Interval defines how often the task should run.
	Interval time.Duration

	// LastRun is when the task last started.
	LastRun time.Time

	// NextRun is when the task should run next.
	NextRun time.Time

	// LastError contains the last error message, if any.
	LastError string

	// LastSuccess is when the task last completed successfully.
	LastSuccess time.Time
}

// Due reports whether the task should run at now.
func (t *ScheduledTask) Due(now time.Time) bool {
	return t.NextRun.IsZero() || !t.NextRun.After(now)
}
