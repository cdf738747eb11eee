package rendering

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/jonathan/resumeai/internal/texdoc"
)

//go:embed templates/resume.tex
var defaultTemplate string

// Placeholder markers the default template declares and fills.
const (
	MarkerIdentity        = "infoPlaceholder"
	MarkerSummary         = "summaryPlaceholder"
	MarkerEducation       = "eduPlaceholder"
	MarkerExperience      = "expPlaceholder"
	MarkerProjects        = "projectsPlaceholder"
	MarkerTechnicalSkills = "techSkillsPlaceholder"
	MarkerSoftSkills      = "softSkillsPlaceholder"
)

// Markers lists every marker a template must provide, in rendering order.
var Markers = []string{
	MarkerIdentity,
	MarkerSummary,
	MarkerEducation,
	MarkerExperience,
	MarkerProjects,
	MarkerTechnicalSkills,
	MarkerSoftSkills,
}

// DefaultTemplate returns the embedded résumé template.
func DefaultTemplate() string {
	return defaultTemplate
}

// loadTemplate reads and parses a LaTeX template file. An empty path selects the
// embedded template.
func loadTemplate(templatePath string) (*texdoc.Document, error) {
	src := defaultTemplate
	if templatePath != "" {
		content, err := os.ReadFile(templatePath)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, &TemplateError{
					Message: fmt.Sprintf("template file not found: %s", templatePath),
					Cause:   err,
				}
			}
			return nil, &TemplateError{
				Message: fmt.Sprintf("failed to read template file: %s", templatePath),
				Cause:   err,
			}
		}
		src = string(content)
	}

	doc, err := texdoc.Parse(src)
	if err != nil {
		return nil, &TemplateError{Message: "failed to parse template", Cause: err}
	}
	return doc, nil
}
