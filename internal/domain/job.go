package domain

import "time"

// JobKind distinguishes single-generation jobs from batch jobs. The two
// kinds carry different cache lifetimes.
type JobKind string

const (
	JobKindSingle JobKind = "single"
	JobKindBatch  JobKind = "batch"
)

// JobState enumerates job lifecycle states.
type JobState string

const (
	JobStatePending   JobState = "pending"
	JobStateRunning   JobState = "running"
	JobStateCompleted JobState = "completed"
	JobStateFailed    JobState = "failed"
	JobStateCancelled JobState = "cancelled"
)

// Terminal reports whether the state admits no further transitions.
func (s JobState) Terminal() bool {
	switch s {
	case JobStateCompleted, JobStateFailed, JobStateCancelled:
		return true
	}
	return false
}

// Job tracks one unit of asynchronous generation work. The orchestrator
// owns it during execution; everyone else reads copies through the status
// cache.
type Job struct {
	ID             string
	Kind           JobKind
	State          JobState
	TotalUnits     int
	CompletedUnits int
	ErrorMessage   string
	CreatedAt      time.Time
	LastUpdatedAt  time.Time
}
