package types

import "github.com/go-playground/validator/v10"

// CoverLetterRequest asks for a cover letter tailored to a job posting. Either JobPost or
// JobURL must be set; when only JobURL is given the posting text is fetched.
type CoverLetterRequest struct {
	JobPost        string `json:"job_post,omitempty" validate:"required_without=JobURL"`
	JobURL         string `json:"job_url,omitempty" validate:"omitempty,url"`
	UserName       string `json:"user_name" validate:"required"`
	UserDegree     string `json:"user_degree"`
	UserTitle      string `json:"user_title"`
	UserExperience string `json:"user_experience"`
	UserSkills     string `json:"user_skills"`
}

// CoverLetterResponse carries the generated letter and the model's token usage.
type CoverLetterResponse struct {
	CoverLetter string `json:"cover_letter"`
	TokensUsed  int    `json:"tokens_used,omitempty"`
}

// ProjectDescriptionRequest asks for résumé bullet text describing a project.
type ProjectDescriptionRequest struct {
	ProjectName        string `json:"project_name" validate:"required"`
	Skills             string `json:"skills" validate:"required"`
	ProjectDescription string `json:"project_description,omitempty"`
}

// ProjectDescriptionResponse is the generated project description.
type ProjectDescriptionResponse struct {
	ProjectDescription string `json:"project_description"`
}

// SummaryRequest asks for a professional summary paragraph.
type SummaryRequest struct {
	CurrentTitle    string `json:"current_title" validate:"required"`
	YearsExperience string `json:"years_experience" validate:"required"`
	Skills          string `json:"skills" validate:"required"`
	Achievements    string `json:"achievements,omitempty"`
}

// SummaryResponse is the generated summary.
type SummaryResponse struct {
	Summary string `json:"summary"`
}

// CreateResumeResponse holds the artifacts produced by /create-resume. PDFFile is
// base64-encoded by encoding/json.
type CreateResumeResponse struct {
	PDFFile []byte  `json:"pdf_file"`
	TeXFile *string `json:"tex_file"`
}

// Validate validates the CoverLetterRequest using the validator.
func (r *CoverLetterRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}

// Validate validates the ProjectDescriptionRequest using the validator.
func (r *ProjectDescriptionRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}

// Validate validates the SummaryRequest using the validator.
func (r *SummaryRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}
