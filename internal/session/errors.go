package session

import (
	"errors"
	"fmt"

	"github.com/julianstephens/checkin/internal/validation"
)

var (
	// ErrNotOpen is returned when the instance does not accept submissions at open time.
	ErrNotOpen = errors.New("check-in is not open")
	// ErrClosed is returned by edits and Submit after the session has ended.
	ErrClosed = errors.New("session is closed")
)

// ValidationFailedError blocks a submit. Result carries every group's errors.
type ValidationFailedError struct {
	Result validation.Result
}

func (e *ValidationFailedError) Error() string {
	return fmt.Sprintf("validation failed with %d error(s)", e.Result.Count())
}

// SubmissionError reports a failed hand-off to the Submitter. The draft is retained.
type SubmissionError struct {
	Err       error
	Retryable bool
}

func (e *SubmissionError) Error() string {
	if e.Retryable {
		return fmt.Sprintf("submission failed (your draft is saved, try again): %v", e.Err)
	}
	return fmt.Sprintf("submission failed: %v", e.Err)
}

func (e *SubmissionError) Unwrap() error {
	return e.Err
}
