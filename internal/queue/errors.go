package queue

import (
	"errors"
	"fmt"
)

// ErrorClassifier allows errors to declare their classification.
type ErrorClassifier interface {
	// ErrorKind returns a string classification of the error:
	// "validation", "not_found" or "persistence".
	ErrorKind() string
}

// KindOf returns the classification of err, or "" when err is not classified.
func KindOf(err error) string {
	var classifier ErrorClassifier
	if errors.As(err, &classifier) {
		return classifier.ErrorKind()
	}
	return ""
}

// ValidationError reports an operation that would break a queue invariant or an
// illegal status transition. Callers skip the posting and continue.
type ValidationError struct {
	PostingID     string
	DestinationID string
	ContentID     string
	Day           string
	Reason        string
}

func (e *ValidationError) Error() string {
	if e.Day != "" {
		return fmt.Sprintf("queue validation: %s (destination %s, content %s, day %s)", e.Reason, e.DestinationID, e.ContentID, e.Day)
	}
	if e.PostingID != "" {
		return fmt.Sprintf("queue validation: posting %s: %s", e.PostingID, e.Reason)
	}
	return "queue validation: " + e.Reason
}

func (e *ValidationError) ErrorKind() string { return "validation" }

// NotFoundError reports an unknown posting id.
type NotFoundError struct {
	PostingID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("posting %s not found", e.PostingID)
}

func (e *NotFoundError) ErrorKind() string { return "not_found" }

// PersistenceError reports that the queue document could not be read or
// written. In-memory state is not durable past this point and the operation in
// progress must stop.
type PersistenceError struct {
	Op   string
	Path string
	Err  error
}

func (e *PersistenceError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("queue %s %s: %v", e.Op, e.Path, e.Err)
	}
	return fmt.Sprintf("queue %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

func (e *PersistenceError) ErrorKind() string { return "persistence" }
