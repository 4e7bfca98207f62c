package deploy

import (
	"errors"
	"fmt"
)

var (
	ErrConfiguration           = errors.New("configuration error")
	ErrEnvironmentMissing      = errors.New("environment missing")
	ErrVersionUnavailable      = errors.New("version unavailable")
	ErrVersioningMisconfigured = errors.New("versioning misconfigured")
	ErrRewriteFailed           = errors.New("entry rewrite failed")
	ErrNoFilesFound            = errors.New("no files found")
	ErrUploadFailed            = errors.New("upload failed")
	ErrInvalidationFailed      = errors.New("invalidation failed")
	ErrNotificationFailed      = errors.New("notification failed")
)

// softError marks a failure that is logged and reported but never aborts a run.
type softError struct {
	err error
}

func (e *softError) Error() string { return e.err.Error() }
func (e *softError) Unwrap() error { return e.err }

// Soft wraps err so the orchestrator records it and continues.
func Soft(err error) error {
	if err == nil {
		return nil
	}
	return &softError{err: err}
}

func IsSoft(err error) bool {
	var s *softError
	return errors.As(err, &s)
}

// StageError is the fatal error a run aborts with.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }
