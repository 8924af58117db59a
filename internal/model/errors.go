package model

import (
	"errors"
	"fmt"
)

var (
	// ErrPostNotFound is returned when a post id has no stored post
	ErrPostNotFound = errors.New("post not found")

	// ErrAnalysisNotFound is returned when a post has no stored analysis
	ErrAnalysisNotFound = errors.New("analysis not found")
)

// InferenceError reports a failed or timed-out model call.
// The orchestrator skips the post; the next batch run retries it.
type InferenceError struct {
	Provider  string
	Task      string
	Transient bool
	Err       error
}

func (e *InferenceError) Error() string {
	return fmt.Sprintf("inference %s/%s: %v", e.Provider, e.Task, e.Err)
}

func (e *InferenceError) Unwrap() error { return e.Err }

// ExternalLookupError reports a failed fact-check lookup. Scoring treats it as no fact-check.
type ExternalLookupError struct {
	PostID int64
	Err    error
}

func (e *ExternalLookupError) Error() string {
	return fmt.Sprintf("fact-check lookup for post %d: %v", e.PostID, e.Err)
}

func (e *ExternalLookupError) Unwrap() error { return e.Err }

// DuplicateAnalysisError reports a second analysis write for the same post
type DuplicateAnalysisError struct {
	PostID int64
}

func (e *DuplicateAnalysisError) Error() string {
	return fmt.Sprintf("analysis already exists for post %d", e.PostID)
}

// PersistenceError reports an unreachable or failing store. Fatal for a batch.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// ValidationError reports a record that violates its invariants
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation: " + e.Reason
	}
	return fmt.Sprintf("validation: %s %s", e.Field, e.Reason)
}

// IsTransient reports whether err is an inference failure worth retrying
func IsTransient(err error) bool {
	var ie *InferenceError
	return errors.As(err, &ie) && ie.Transient
}
