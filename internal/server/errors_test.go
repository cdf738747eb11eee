package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/jonathan/resumeai/internal/compiler"
	"github.com/jonathan/resumeai/internal/generation"
	"github.com/jonathan/resumeai/internal/rendering"
	"github.com/jonathan/resumeai/internal/schemas"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, http.StatusOK},
		{"username taken", &ErrUsernameTaken{Username: "ada"}, http.StatusConflict},
		{"invalid credentials", &ErrInvalidCredentials{}, http.StatusUnauthorized},
		{"user not found", &ErrUserNotFound{UserID: uuid.New()}, http.StatusNotFound},
		{"bad request", &ErrBadRequest{Message: "invalid request body"}, http.StatusBadRequest},
		{"validation", &ErrValidation{Field: "Password", Message: "max"}, http.StatusUnprocessableEntity},
		{"schema", &schemas.ValidationError{Errors: []schemas.FieldError{{Field: "information", Message: "required"}}}, http.StatusUnprocessableEntity},
		{"payload", &rendering.PayloadValidationError{Field: "information.name", Message: "is required"}, http.StatusUnprocessableEntity},
		{"generation validation", &generation.ValidationError{Cause: errBoom}, http.StatusUnprocessableEntity},
		{"job post", &generation.JobPostError{URL: "https://x", Cause: errBoom}, http.StatusBadGateway},
		{"llm", &generation.APICallError{Message: "failed", Cause: errBoom}, http.StatusBadGateway},
		{"compile", &compiler.CompilationError{Message: "failed"}, http.StatusInternalServerError},
		{"compile timeout", &compiler.CompilationError{Message: "slow", Cause: context.DeadlineExceeded}, http.StatusGatewayTimeout},
		{"fill", &rendering.SectionFillError{Section: "education", Cause: &rendering.MissingFieldError{Field: "start_date"}}, http.StatusInternalServerError},
		{"template", &rendering.TemplateStructureError{Marker: "EDUCATION"}, http.StatusInternalServerError},
		{"deadline", fmt.Errorf("store: %w", context.DeadlineExceeded), http.StatusGatewayTimeout},
		{"wrapped", fmt.Errorf("outer: %w", &ErrUsernameTaken{Username: "ada"}), http.StatusConflict},
		{"unknown", errors.New("something"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.err))
		})
	}
}

func TestPublicMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"client errors are described", &ErrUsernameTaken{Username: "ada"}, "username already registered: ada"},
		{"schema errors name the field", &schemas.ValidationError{Errors: []schemas.FieldError{{Field: "output_format", Message: "must be one of pdf, tex, both"}}}, "validation error: output_format - must be one of pdf, tex, both"},
		{"fill names the section only", &rendering.SectionFillError{Section: "education", Index: 2, Cause: errors.New("/tmp/x")}, "could not render the education section"},
		{"compile hides diagnostics", &compiler.CompilationError{Message: "exit 12", LogOutput: "/srv/x.log"}, "document compilation failed"},
		{"template hides details", &rendering.TemplateStructureError{Marker: "EDUCATION", Found: 1}, "internal server error"},
		{"job post hides URL errors", &generation.JobPostError{URL: "https://x", Cause: errBoom}, "could not retrieve the job posting"},
		{"unknown", errors.New("pq: password authentication failed"), "internal server error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, publicMessage(tt.err))
		})
	}
}

func TestErrorMessages(t *testing.T) {
	assert.Equal(t, "invalid username or password", (&ErrInvalidCredentials{}).Error())
	assert.Equal(t, "validation error: Password - max", (&ErrValidation{Field: "Password", Message: "max"}).Error())
	assert.Equal(t, "validation error: bad", (&ErrValidation{Message: "bad"}).Error())
	assert.ErrorIs(t, &ErrBadRequest{Message: "x", Cause: errBoom}, errBoom)
}
