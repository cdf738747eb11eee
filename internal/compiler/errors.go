package compiler

import (
	"context"
	"errors"
	"fmt"
)

// CompilationError represents a LaTeX compilation failure. LogOutput holds the
// compiler's combined output and is meant for server-side logs only.
type CompilationError struct {
	Message   string
	LogOutput string
	Cause     error
}

func (e *CompilationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("LaTeX compilation error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("LaTeX compilation error: %s", e.Message)
}

func (e *CompilationError) Unwrap() error {
	return e.Cause
}

// TimedOut reports whether the compiler was killed for exceeding its deadline.
func (e *CompilationError) TimedOut() bool {
	return errors.Is(e.Cause, context.DeadlineExceeded)
}
