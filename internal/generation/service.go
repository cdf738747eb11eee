// Package generation produces cover letters, résumé summaries and project descriptions
// from user-supplied facts through an LLM client.
package generation

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jonathan/resumeai/internal/fetch"
	"github.com/jonathan/resumeai/internal/llm"
	"github.com/jonathan/resumeai/internal/logger"
	"github.com/jonathan/resumeai/internal/prompts"
	"github.com/jonathan/resumeai/internal/types"
	"github.com/jonathan/resumeai/internal/validation"
)

// Prompt keys in prompts.GenerationFile.
const (
	PromptCoverLetter        = "cover-letter"
	PromptProjectDescription = "project-description"
	PromptSummary            = "summary"
)

var errJobURLUnsupported = errors.New("job_url is not supported; provide job_post")

// maxJobPostChars bounds how much posting text is sent to the model.
const maxJobPostChars = 12000

// Service generates text for the generation endpoints.
type Service struct {
	client  llm.Client
	fetcher fetch.TextFetcher
	log     *logger.Logger
}

// NewService creates a Service. fetcher may be nil, in which case cover letters require
// job_post text.
func NewService(client llm.Client, fetcher fetch.TextFetcher, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{client: client, fetcher: fetcher, log: log}
}

// CoverLetter writes a cover letter for the posting in req. When only JobURL is set the
// posting is fetched first and quoted as external content.
func (s *Service) CoverLetter(ctx context.Context, req *types.CoverLetterRequest) (*types.CoverLetterResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, &ValidationError{Cause: err}
	}

	jobPost := truncate(strings.TrimSpace(req.JobPost), maxJobPostChars)
	if jobPost == "" {
		text, err := s.fetchJobPost(ctx, req.JobURL)
		if err != nil {
			return nil, err
		}
		jobPost = text
	}

	gen, err := s.generate(ctx, PromptCoverLetter, llm.TierStandard, map[string]string{
		"JobPost":        jobPost,
		"UserName":       req.UserName,
		"UserTitle":      req.UserTitle,
		"UserDegree":     req.UserDegree,
		"UserExperience": req.UserExperience,
		"UserSkills":     req.UserSkills,
	})
	if err != nil {
		return nil, err
	}
	return &types.CoverLetterResponse{CoverLetter: gen.Text, TokensUsed: gen.TokenCount}, nil
}

// ProjectDescription writes a one-sentence résumé description of a project.
func (s *Service) ProjectDescription(ctx context.Context, req *types.ProjectDescriptionRequest) (*types.ProjectDescriptionResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, &ValidationError{Cause: err}
	}

	details := ""
	if d := strings.TrimSpace(req.ProjectDescription); d != "" {
		details = "Additional Details: " + d
	}
	gen, err := s.generate(ctx, PromptProjectDescription, llm.TierLite, map[string]string{
		"ProjectName":       req.ProjectName,
		"Skills":            req.Skills,
		"AdditionalDetails": details,
	})
	if err != nil {
		return nil, err
	}
	return &types.ProjectDescriptionResponse{ProjectDescription: gen.Text}, nil
}

// Summary writes a professional summary paragraph.
func (s *Service) Summary(ctx context.Context, req *types.SummaryRequest) (*types.SummaryResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, &ValidationError{Cause: err}
	}

	achievements := strings.TrimSpace(req.Achievements)
	if achievements == "" {
		achievements = "Not specified"
	}
	gen, err := s.generate(ctx, PromptSummary, llm.TierStandard, map[string]string{
		"CurrentTitle":    req.CurrentTitle,
		"YearsExperience": req.YearsExperience,
		"Skills":          req.Skills,
		"Achievements":    achievements,
	})
	if err != nil {
		return nil, err
	}
	return &types.SummaryResponse{Summary: gen.Text}, nil
}

func (s *Service) generate(ctx context.Context, key string, tier llm.ModelTier, data map[string]string) (*llm.Generation, error) {
	prompt, err := prompts.Render(prompts.GenerationFile, key, data)
	if err != nil {
		return nil, &APICallError{Message: "failed to build prompt", Cause: err}
	}

	start := time.Now()
	gen, err := s.client.Generate(ctx, prompt, tier)
	if err != nil {
		s.log.Warn("text generation failed", "prompt", key, "tier", string(tier), "error", err)
		return nil, &APICallError{Message: "failed to generate content from LLM", Cause: err}
	}
	s.log.Info("text generated", "prompt", key, "model", s.client.GetModel(tier), "tokens", gen.TokenCount, "duration", time.Since(start))
	return gen, nil
}

func (s *Service) fetchJobPost(ctx context.Context, url string) (string, error) {
	if s.fetcher == nil {
		return "", &ValidationError{Cause: errJobURLUnsupported}
	}
	text, err := s.fetcher.FetchText(ctx, url)
	if err != nil {
		return "", &JobPostError{URL: url, Cause: err}
	}
	return validation.PrepareExternal(s.log, "job posting", url, truncate(text, maxJobPostChars)), nil
}

// truncate cuts s to at most n runes.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
