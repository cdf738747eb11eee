package rendering

import (
	"context"

	"github.com/jonathan/resumeai/internal/types"
)

// Output holds the artifacts of one render. Source is set when the requested format
// includes the LaTeX source, PDF when it includes the compiled document.
type Output struct {
	JobName string
	Source  string
	PDF     []byte
}

// Render produces the artifacts selected by resume.OutputFormat (pdf when empty) and
// removes every file it wrote before returning, on success and on failure alike.
func Render(ctx context.Context, resume *types.Resume, opts Options) (*Output, error) {
	g, err := NewGenerator(resume, opts)
	if err != nil {
		return nil, err
	}
	defer g.Cleanup()

	format := resume.OutputFormat.OrDefault()
	out := &Output{JobName: g.JobName()}

	source, err := g.GenerateSource()
	if err != nil {
		return nil, err
	}
	if format.WantsSource() {
		out.Source = source
	}

	if format.WantsCompiled() {
		if _, err := g.GenerateCompiled(ctx); err != nil {
			return nil, err
		}
		pdf, err := g.ReadArtifact()
		if err != nil {
			return nil, err
		}
		out.PDF = pdf
	}
	return out, nil
}

// Response converts the output to the /create-resume response shape.
func (o *Output) Response(format types.OutputFormat) *types.CreateResumeResponse {
	resp := &types.CreateResumeResponse{}
	format = format.OrDefault()
	if format.WantsSource() {
		src := o.Source
		resp.TeXFile = &src
	}
	if format.WantsCompiled() {
		resp.PDFFile = o.PDF
	}
	return resp
}
