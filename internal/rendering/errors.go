// Package rendering assembles LaTeX résumés by filling the placeholders of a parsed template.
package rendering

import "fmt"

// TemplateError represents a template asset that could not be loaded or parsed.
type TemplateError struct {
	Message string
	Cause   error
}

func (e *TemplateError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("template error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("template error: %s", e.Message)
}

func (e *TemplateError) Unwrap() error {
	return e.Cause
}

// TemplateStructureError means the template lacks the declaration/fill-target pair of a
// placeholder marker. It is a deployment defect, not a user error.
type TemplateStructureError struct {
	Marker string
	Found  int
}

func (e *TemplateStructureError) Error() string {
	return fmt.Sprintf("template structure error: marker %q must appear at least twice, found %d", e.Marker, e.Found)
}

// PayloadValidationError reports a payload rejected before any section was rendered.
type PayloadValidationError struct {
	Field   string
	Message string
	Cause   error
}

func (e *PayloadValidationError) Error() string {
	msg := e.Message
	if e.Field != "" {
		msg = e.Field + ": " + msg
	}
	if e.Cause != nil {
		return fmt.Sprintf("invalid payload: %s: %v", msg, e.Cause)
	}
	return fmt.Sprintf("invalid payload: %s", msg)
}

func (e *PayloadValidationError) Unwrap() error {
	return e.Cause
}

// SectionFillError reports malformed data in one entry of a résumé section.
type SectionFillError struct {
	Section string
	Index   int
	Cause   error
}

func (e *SectionFillError) Error() string {
	return fmt.Sprintf("failed to render %s entry %d: %v", e.Section, e.Index, e.Cause)
}

func (e *SectionFillError) Unwrap() error {
	return e.Cause
}

// MissingFieldError is returned by a section builder when a required field is blank.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("missing required field %q", e.Field)
}

// RenderError represents a general rendering failure
type RenderError struct {
	Message string
	Cause   error
}

func (e *RenderError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("render error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("render error: %s", e.Message)
}

func (e *RenderError) Unwrap() error {
	return e.Cause
}
