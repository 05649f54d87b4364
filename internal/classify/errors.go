package classify

import (
	"errors"
	"fmt"
)

// ErrBadConfig reports an invalid agent configuration.
var ErrBadConfig = errors.New("classify: invalid config")

// RetrievalError wraps a candidate-search failure for one role. The
// agent degrades the role to an empty candidate set instead of failing
// the call.
type RetrievalError struct {
	Role string
	Err  error
}

func (e *RetrievalError) Error() string {
	return fmt.Sprintf("retrieve candidates for %q: %v", e.Role, e.Err)
}
func (e *RetrievalError) Unwrap() error { return e.Err }

// ClassificationError wraps a failed or timed-out generation call.
type ClassificationError struct{ Err error }

func (e *ClassificationError) Error() string { return "classification call: " + e.Err.Error() }
func (e *ClassificationError) Unwrap() error { return e.Err }

// ParseError reports a response that is not structurally valid JSON.
type ParseError struct{ Err error }

func (e *ParseError) Error() string { return "parse response: " + e.Err.Error() }
func (e *ParseError) Unwrap() error { return e.Err }
