package domain

import "time"

// GenerationCost is the fixed credit price of one generation, irrespective of
// style or prompt.
const GenerationCost = 1

// MaxPromptLength bounds the optional free-text hint.
const MaxPromptLength = 200

// JobStatus enumerates generation job lifecycle states.
type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

// Terminal reports whether no further transitions occur from s.
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// CanTransitionTo enforces the monotonic forward order
// pending -> processing -> completed|failed.
func (s JobStatus) CanTransitionTo(next JobStatus) bool {
	switch s {
	case JobStatusPending:
		return next == JobStatusProcessing
	case JobStatusProcessing:
		return next == JobStatusCompleted || next == JobStatusFailed
	default:
		return false
	}
}

// GenerationJob is one attempt to synthesize a styled image from an uploaded
// source. Created in pending by the start handler; mutated only by the worker
// that claims it.
type GenerationJob struct {
	ID               string
	UserID           string
	SourceKey        string
	OriginalURL      string
	Style            string
	Prompt           string
	Status           JobStatus
	ResultKey        string
	ResultURL        string
	ErrorMessage     string
	ProcessingTimeMs int64
	CreatedAt        time.Time
	UpdatedAt        time.Time
}
