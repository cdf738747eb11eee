package server

import (
	"encoding/json"
	"net/http"

	"github.com/jonathan/resumeai/internal/rendering"
	"github.com/jonathan/resumeai/internal/schemas"
	"github.com/jonathan/resumeai/internal/server/middleware"
	"github.com/jonathan/resumeai/internal/types"
)

// handleCreateResume renders a résumé payload to LaTeX source, a PDF or both.
func (s *Server) handleCreateResume(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(w, r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if err := schemas.ValidateCreateResume(body); err != nil {
		s.fail(w, r, err)
		return
	}

	var resume types.Resume
	if err := json.Unmarshal(body, &resume); err != nil {
		s.fail(w, r, &ErrBadRequest{Message: "invalid request body", Cause: err})
		return
	}
	if err := resume.Validate(); err != nil {
		s.fail(w, r, err)
		return
	}

	opts := s.render
	opts.Logger = s.log.With("request_id", middleware.GetRequestID(r.Context()))
	out, err := rendering.Render(r.Context(), &resume, opts)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	s.log.Info("resume rendered", "job", out.JobName, "format", string(resume.OutputFormat.OrDefault()), "pdf_bytes", len(out.PDF))
	s.jsonResponse(w, http.StatusOK, out.Response(resume.OutputFormat))
}
