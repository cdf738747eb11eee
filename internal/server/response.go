package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/google/uuid"

	"github.com/jonathan/resumeai/internal/logger"
	"github.com/jonathan/resumeai/internal/server/middleware"
)

// maxBodyBytes bounds every request body.
const maxBodyBytes = 1 << 20

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error         string `json:"error"`
	CorrelationID string `json:"correlation_id,omitempty"`
}

// responder writes JSON responses and logs failures.
type responder struct {
	log *logger.Logger
}

// jsonResponse writes a JSON response
func (rs responder) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		rs.log.Warn("encoding JSON response failed", "error", err)
	}
}

// errorResponse writes a client-facing error message.
func (rs responder) errorResponse(w http.ResponseWriter, status int, message string) {
	rs.jsonResponse(w, status, ErrorResponse{Error: message})
}

// fail maps err to a status code and writes it. Server-side failures are logged in full
// and the caller gets a generic message with the request's correlation id.
func (rs responder) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := HTTPStatus(err)
	resp := ErrorResponse{Error: publicMessage(err)}
	if status >= http.StatusInternalServerError {
		id := middleware.GetRequestID(r.Context())
		if id == "" {
			id = uuid.NewString()
		}
		resp.CorrelationID = id
		rs.log.Error("request failed", "path", r.URL.Path, "status", status, "correlation_id", id, "error", err)
	} else {
		rs.log.Debug("request rejected", "path", r.URL.Path, "status", status, "error", err)
	}
	rs.jsonResponse(w, status, resp)
}

// decodeJSON reads a bounded JSON body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	body, err := readBody(w, r)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return &ErrBadRequest{Message: "invalid request body", Cause: err}
	}
	return nil
}

// readBody returns the raw request body, rejecting empty and oversized bodies.
func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, &ErrBadRequest{Message: "request body too large", Cause: err}
		}
		return nil, &ErrBadRequest{Message: "failed to read request body", Cause: err}
	}
	if len(body) == 0 {
		return nil, &ErrBadRequest{Message: "request body is empty"}
	}
	return body, nil
}
