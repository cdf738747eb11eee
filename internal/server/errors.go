// Package server provides the HTTP API of the résumé service.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/jonathan/resumeai/internal/compiler"
	"github.com/jonathan/resumeai/internal/generation"
	"github.com/jonathan/resumeai/internal/rendering"
	"github.com/jonathan/resumeai/internal/schemas"
)

// ErrUsernameTaken indicates the username is already registered.
type ErrUsernameTaken struct {
	Username string
}

func (e *ErrUsernameTaken) Error() string {
	return fmt.Sprintf("username already registered: %s", e.Username)
}

// ErrInvalidCredentials indicates an unknown user or a wrong password. The two cases
// are deliberately indistinguishable.
type ErrInvalidCredentials struct{}

func (e *ErrInvalidCredentials) Error() string {
	return "invalid username or password"
}

// ErrUserNotFound indicates user was not found
type ErrUserNotFound struct {
	UserID uuid.UUID
}

func (e *ErrUserNotFound) Error() string {
	return fmt.Sprintf("user not found: %s", e.UserID)
}

// ErrValidation indicates request validation failure
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("validation error: %s", e.Message)
	}
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// ErrBadRequest indicates a body that could not be read or decoded.
type ErrBadRequest struct {
	Message string
	Cause   error
}

func (e *ErrBadRequest) Error() string {
	return e.Message
}

func (e *ErrBadRequest) Unwrap() error {
	return e.Cause
}

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	var (
		taken      *ErrUsernameTaken
		creds      *ErrInvalidCredentials
		notFound   *ErrUserNotFound
		badReq     *ErrBadRequest
		invalid    *ErrValidation
		fieldErrs  validator.ValidationErrors
		schemaErr  *schemas.ValidationError
		payloadErr *rendering.PayloadValidationError
		genInvalid *generation.ValidationError
		jobPost    *generation.JobPostError
		apiCall    *generation.APICallError
		compileErr *compiler.CompilationError
	)
	switch {
	case err == nil:
		return http.StatusOK
	case errors.As(err, &taken):
		return http.StatusConflict
	case errors.As(err, &creds):
		return http.StatusUnauthorized
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &badReq):
		return http.StatusBadRequest
	case errors.As(err, &invalid), errors.As(err, &fieldErrs), errors.As(err, &schemaErr),
		errors.As(err, &payloadErr), errors.As(err, &genInvalid):
		return http.StatusUnprocessableEntity
	case errors.As(err, &jobPost), errors.As(err, &apiCall):
		return http.StatusBadGateway
	case errors.As(err, &compileErr):
		if compileErr.TimedOut() {
			return http.StatusGatewayTimeout
		}
		return http.StatusInternalServerError
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// publicMessage returns what the caller may see for err. Client errors are described;
// server-side failures get a fixed message so that paths, compiler output and provider
// errors stay in the logs.
func publicMessage(err error) string {
	var (
		fill    *rendering.SectionFillError
		jobPost *generation.JobPostError
		apiCall *generation.APICallError
		compile *compiler.CompilationError
	)
	switch status := HTTPStatus(err); {
	case status < http.StatusInternalServerError:
		return clientMessage(err)
	case errors.As(err, &jobPost):
		return "could not retrieve the job posting"
	case errors.As(err, &apiCall):
		return "text generation failed"
	case errors.As(err, &compile):
		if compile.TimedOut() {
			return "document compilation timed out"
		}
		return "document compilation failed"
	case errors.As(err, &fill):
		return fmt.Sprintf("could not render the %s section", fill.Section)
	case status == http.StatusGatewayTimeout:
		return "request timed out"
	default:
		return "internal server error"
	}
}

// clientMessage describes a 4xx error.
func clientMessage(err error) string {
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		return describeValidationErrors(fieldErrs)
	}
	var schemaErr *schemas.ValidationError
	if errors.As(err, &schemaErr) && len(schemaErr.Errors) > 0 {
		first := schemaErr.Errors[0]
		return fmt.Sprintf("validation error: %s - %s", first.Field, first.Message)
	}
	return err.Error()
}

// describeValidationErrors renders the first validator failure. Tags are reported as-is.
func describeValidationErrors(errs validator.ValidationErrors) string {
	if len(errs) == 0 {
		return "validation error: invalid request"
	}
	fe := errs[0]
	return fmt.Sprintf("validation error: %s - %s", fe.Field(), fe.Tag())
}
