package llm

import "fmt"

// GenerationError reports a failed or empty completion.
type GenerationError struct {
	Provider Provider
	Model    string
	Message  string
	Cause    error
}

func (e *GenerationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s generation failed (%s): %s: %v", e.Provider, e.Model, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s generation failed (%s): %s", e.Provider, e.Model, e.Message)
}

func (e *GenerationError) Unwrap() error {
	return e.Cause
}
