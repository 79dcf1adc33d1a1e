package workflow

import "errors"

// ErrInvalidTransition is returned when a step transition is not allowed
var ErrInvalidTransition = errors.New("invalid step transition")
