package server

import (
	"context"
	"net/http"

	"github.com/jonathan/resumeai/internal/types"
)

// TextGenerator produces the AI-written résumé texts. *generation.Service implements it.
type TextGenerator interface {
	CoverLetter(ctx context.Context, req *types.CoverLetterRequest) (*types.CoverLetterResponse, error)
	ProjectDescription(ctx context.Context, req *types.ProjectDescriptionRequest) (*types.ProjectDescriptionResponse, error)
	Summary(ctx context.Context, req *types.SummaryRequest) (*types.SummaryResponse, error)
}

// generationHandler decodes a Req, passes it to generate and writes the result.
func generationHandler[Req, Resp any](s *Server, name string, generate func(context.Context, *Req) (*Resp, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.generator == nil {
			s.errorResponse(w, http.StatusServiceUnavailable, "text generation is not configured")
			return
		}

		var req Req
		if err := decodeJSON(w, r, &req); err != nil {
			s.fail(w, r, err)
			return
		}
		resp, err := generate(r.Context(), &req)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		s.log.Debug("text generated", "kind", name)
		s.jsonResponse(w, http.StatusOK, resp)
	}
}

func (s *Server) handleCoverLetter() http.HandlerFunc {
	return generationHandler(s, "cover-letter", func(ctx context.Context, req *types.CoverLetterRequest) (*types.CoverLetterResponse, error) {
		return s.generator.CoverLetter(ctx, req)
	})
}

func (s *Server) handleProjectDescription() http.HandlerFunc {
	return generationHandler(s, "project-description", func(ctx context.Context, req *types.ProjectDescriptionRequest) (*types.ProjectDescriptionResponse, error) {
		return s.generator.ProjectDescription(ctx, req)
	})
}

func (s *Server) handleSummary() http.HandlerFunc {
	return generationHandler(s, "summary", func(ctx context.Context, req *types.SummaryRequest) (*types.SummaryResponse, error) {
		return s.generator.Summary(ctx, req)
	})
}
