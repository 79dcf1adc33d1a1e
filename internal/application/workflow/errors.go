package workflow

import (
	"errors"
	"fmt"
)

var (
	// ErrSessionEnded is returned for any action on a cancelled, closed, rejected or finished session
	ErrSessionEnded = errors.New("kiosk session has ended")

	// ErrWrongStep is returned when an action does not belong to the current step
	ErrWrongStep = errors.New("action does not match current step")

	// ErrInvalidOTP is returned when the verifier rejects a code
	ErrInvalidOTP = errors.New("verification code rejected")

	// ErrTermsNotAccepted is returned when the NDA checkbox is submitted unchecked
	ErrTermsNotAccepted = errors.New("terms must be accepted to continue")

	// ErrNothingToRetry is returned by Retry when no write is outstanding
	ErrNothingToRetry = errors.New("no failed write to retry")
)

// PersistenceError reports a failed Visit Record Store operation.
// The session stays on its current step.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("visit store %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// IsPersistence reports whether err is or wraps a *PersistenceError
func IsPersistence(err error) bool {
	var pe *PersistenceError
	return errors.As(err, &pe)
}
