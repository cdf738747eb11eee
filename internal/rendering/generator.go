package rendering

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/resumeai/internal/compiler"
	"github.com/jonathan/resumeai/internal/logger"
	"github.com/jonathan/resumeai/internal/texdoc"
	"github.com/jonathan/resumeai/internal/types"
)

// MinIdentityFields is the number of populated identity fields needed to render the
// identity block.
const MinIdentityFields = 6

// State is the lifecycle stage of a Generator.
type State int

const (
	StateCreated State = iota
	StateTeXRendered
	StateCompiled
	StateCleanedUp
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateTeXRendered:
		return "tex-rendered"
	case StateCompiled:
		return "compiled"
	case StateCleanedUp:
		return "cleaned-up"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Options configures a Generator.
type Options struct {
	// TemplatePath overrides the embedded template.
	TemplatePath string
	// OutputDir receives the .tex source and compiler output. Defaults to a
	// "resumeai" directory under os.TempDir().
	OutputDir string
	Compiler  compiler.Compiler
	// Timeout bounds compilation. Defaults to compiler.DefaultTimeout.
	Timeout time.Duration
	Logger  *logger.Logger
	// Now is used for job names. Defaults to time.Now.
	Now func() time.Time
}

// Generator renders one résumé. It owns a freshly parsed template and the files produced
// for it, and is not safe for concurrent use.
type Generator struct {
	resume  types.Resume
	doc     *texdoc.Document
	targets map[string]*texdoc.Group
	opts    Options
	log     *logger.Logger

	jobName string
	state   State
	source  string
	texPath string
	pdfPath string
	written bool
}

// NewGenerator validates the payload, parses the template and resolves its markers. The
// payload is escaped into a private copy; resume is not modified.
func NewGenerator(resume *types.Resume, opts Options) (*Generator, error) {
	if err := checkPayload(resume); err != nil {
		return nil, err
	}

	doc, err := loadTemplate(opts.TemplatePath)
	if err != nil {
		return nil, err
	}
	targets, err := resolveMarkers(doc)
	if err != nil {
		return nil, err
	}

	if opts.OutputDir == "" {
		opts.OutputDir = filepath.Join(os.TempDir(), "resumeai")
	}
	if opts.Timeout <= 0 {
		opts.Timeout = compiler.DefaultTimeout
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}

	jobName := JobName(resume.Information.Name, opts.Now())
	g := &Generator{
		resume:  EscapeDeep(*resume),
		doc:     doc,
		targets: targets,
		opts:    opts,
		log:     log.With("job", jobName),
		jobName: jobName,
		state:   StateCreated,
	}
	g.log.Debug("generator created", "state", g.state.String())
	return g, nil
}

func checkPayload(resume *types.Resume) error {
	if resume == nil {
		return &PayloadValidationError{Message: "payload is empty"}
	}
	if strings.TrimSpace(resume.Information.Name) == "" {
		return &PayloadValidationError{Field: "information.name", Message: "is required"}
	}
	if f := resume.OutputFormat; f != "" && !f.Valid() {
		return &PayloadValidationError{Field: "output_format", Message: fmt.Sprintf("must be one of pdf, tex, both, got %q", f)}
	}
	return nil
}

// JobName derives a file-system safe name that is unique per call:
// the name without spaces or special characters, a timestamp and a random suffix.
func JobName(name string, now time.Time) string {
	var sb strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			sb.WriteRune(r)
		}
	}
	base := sb.String()
	if base == "" {
		base = "resume"
	}
	return fmt.Sprintf("%s-%s-%s", base, now.Format("20060102-150405"), uuid.NewString()[:8])
}

// JobName returns the name shared by every file this generator writes.
func (g *Generator) JobName() string { return g.jobName }

// State returns the current lifecycle stage.
func (g *Generator) State() State { return g.state }

// GenerateSource fills every section the payload provides and returns the LaTeX source.
// Calling it again returns the same text without re-running the fillers.
func (g *Generator) GenerateSource() (string, error) {
	switch g.state {
	case StateTeXRendered, StateCompiled:
		return g.source, nil
	case StateCleanedUp:
		return "", &RenderError{Message: "generator has been cleaned up"}
	}

	if err := g.fill(); err != nil {
		g.log.Warn("section rendering failed", "error", err)
		return "", err
	}
	g.source = g.doc.String()
	g.transition(StateTeXRendered)
	return g.source, nil
}

func (g *Generator) fill() error {
	r := g.resume
	steps := []struct {
		enabled bool
		run     func() error
	}{
		{r.Information.PopulatedFields() >= MinIdentityFields, func() error {
			return fillIdentity(g.targets[MarkerIdentity], r.Information)
		}},
		{strings.TrimSpace(r.Information.Summary) != "", func() error {
			return fillSummary(g.targets[MarkerSummary], r.Information.Summary)
		}},
		{len(r.Education) > 0, func() error {
			return fillEducation(g.targets[MarkerEducation], r.Education)
		}},
		{len(r.Experience) > 0, func() error {
			return fillExperience(g.targets[MarkerExperience], r.Experience)
		}},
		{len(r.Projects) > 0, func() error {
			return fillProjects(g.targets[MarkerProjects], r.Projects)
		}},
		{len(r.TechnicalSkills) > 0, func() error {
			return fillTechnicalSkills(g.targets[MarkerTechnicalSkills], r.TechnicalSkills)
		}},
		{len(r.SoftSkills) > 0, func() error {
			return fillSoftSkills(g.targets[MarkerSoftSkills], r.SoftSkills)
		}},
	}
	for _, step := range steps {
		if !step.enabled {
			continue
		}
		if err := step.run(); err != nil {
			return err
		}
	}
	return nil
}

// GenerateCompiled renders the source if needed, writes it to OutputDir and compiles it.
// It returns the path of the PDF. On failure every file written so far is removed.
func (g *Generator) GenerateCompiled(ctx context.Context) (string, error) {
	switch g.state {
	case StateCompiled:
		return g.pdfPath, nil
	case StateCleanedUp:
		return "", &RenderError{Message: "generator has been cleaned up"}
	}
	if g.opts.Compiler == nil {
		return "", &RenderError{Message: "no compiler configured"}
	}

	source, err := g.GenerateSource()
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(g.opts.OutputDir, 0755); err != nil {
		return "", &RenderError{Message: fmt.Sprintf("failed to create output directory: %s", g.opts.OutputDir), Cause: err}
	}
	g.texPath = filepath.Join(g.opts.OutputDir, g.jobName+".tex")
	g.written = true
	if err := os.WriteFile(g.texPath, []byte(source), 0644); err != nil {
		g.Cleanup()
		return "", &RenderError{Message: "failed to write LaTeX source", Cause: err}
	}

	start := time.Now()
	pdfPath, err := g.opts.Compiler.Compile(ctx, compiler.Job{
		SourcePath: g.jobName + ".tex",
		WorkDir:    g.opts.OutputDir,
		JobName:    g.jobName,
		Timeout:    g.opts.Timeout,
		Force:      true,
	})
	if err != nil {
		var compErr *compiler.CompilationError
		if errors.As(err, &compErr) {
			g.log.Error("compilation failed", "error", err, "timed_out", compErr.TimedOut(), "diagnostics", compErr.LogOutput)
		} else {
			g.log.Error("compilation failed", "error", err)
			err = &compiler.CompilationError{Message: "compiler failed", Cause: err}
		}
		g.Cleanup()
		return "", err
	}

	g.pdfPath = pdfPath
	g.log.Info("compiled", "duration", time.Since(start).String())
	g.transition(StateCompiled)
	return pdfPath, nil
}

// ReadArtifact returns the bytes of the compiled PDF.
func (g *Generator) ReadArtifact() ([]byte, error) {
	if g.state != StateCompiled {
		return nil, &RenderError{Message: fmt.Sprintf("no artifact in state %s", g.state)}
	}
	data, err := os.ReadFile(g.pdfPath)
	if err != nil {
		return nil, &RenderError{Message: "failed to read compiled PDF", Cause: err}
	}
	return data, nil
}

// Cleanup removes the source file and every compiler output for this job. It is safe to
// call in any state and more than once; failures are logged, never returned.
func (g *Generator) Cleanup() {
	if g.state == StateCleanedUp {
		return
	}
	if g.written {
		if g.opts.Compiler != nil {
			ctx, cancel := context.WithTimeout(context.Background(), g.opts.Timeout)
			if err := g.opts.Compiler.Clean(ctx, g.opts.OutputDir, g.jobName); err != nil {
				g.log.Warn("compiler cleanup failed", "error", err)
			}
			cancel()
		}
		g.removeJobFiles()
	}
	g.transition(StateCleanedUp)
}

func (g *Generator) removeJobFiles() {
	matches, err := filepath.Glob(filepath.Join(g.opts.OutputDir, g.jobName+".*"))
	if err != nil {
		g.log.Warn("listing job files failed", "error", err)
		return
	}
	for _, path := range matches {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			g.log.Warn("removing job file failed", "path", path, "error", err)
		}
	}
}

func (g *Generator) transition(to State) {
	g.log.Debug("generator state", "from", g.state.String(), "to", to.String())
	g.state = to
}
