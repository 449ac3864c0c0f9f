/*
errors.go - Engine failure modes

PURPOSE:
  The engine's own failure surface is deliberately narrow. Empty results,
  zero occurrences, and unbounded patterns clipped to empty windows are all
  normal outcomes, not errors. What remains:

  - A reversed window is a caller usage error (ErrInvalidWindow).
  - A structurally impossible variant reaching the generator is a programming
    defect in the upstream validator, and panics (see generate.go). It is not
    tolerated silently because that would hide the validator gap.

  Nothing here is retryable: the engine performs no I/O and has no transient
  failure modes.
*/
package recurrence

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidWindow is returned when a window's end precedes its start.
	ErrInvalidWindow = errors.New("invalid window: to before from")
)

// MalformedPatternError reports a variant that should have been rejected
// upstream. The generator panics with this type; recovering layers can
// present it as a 500 and log the validator gap.
type MalformedPatternError struct {
	Kind   PatternKind
	Detail string
}

func (e *MalformedPatternError) Error() string {
	return fmt.Sprintf("malformed %s pattern: %s", e.Kind, e.Detail)
}

// IsClientError reports whether the error is the caller's fault.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidWindow)
}
