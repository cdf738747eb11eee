package generation

import "fmt"

// ValidationError is returned when a request fails field validation.
type ValidationError struct {
	Cause error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid request: %v", e.Cause)
}

func (e *ValidationError) Unwrap() error {
	return e.Cause
}

// APICallError represents an error calling the text-generation provider.
type APICallError struct {
	Message string
	Cause   error
}

func (e *APICallError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *APICallError) Unwrap() error {
	return e.Cause
}

// JobPostError reports that the posting behind job_url could not be retrieved.
type JobPostError struct {
	URL   string
	Cause error
}

func (e *JobPostError) Error() string {
	return fmt.Sprintf("failed to retrieve job posting from %s: %v", e.URL, e.Cause)
}

func (e *JobPostError) Unwrap() error {
	return e.Cause
}
