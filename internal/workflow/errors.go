// Package workflow implements the gig handshake state machine: posting and
// application intake, acceptance, completion, and the two-party post-event
// confirmation.  Every transition runs as one transaction against the
// backing store; the confirmation path row-locks the application so the
// "both confirmed -> increment once" sequence cannot race.
package workflow

import (
    "errors"
    "fmt"
)

// ValidationError reports malformed input or a violated transition
// precondition.  The message is safe to surface to callers.
type ValidationError struct {
    Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func invalidf(format string, args ...interface{}) error {
    return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
    var ve *ValidationError
    return errors.As(err, &ve)
}
