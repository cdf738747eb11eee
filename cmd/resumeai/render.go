package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/jonathan/resumeai/internal/observability"
	"github.com/jonathan/resumeai/internal/rendering"
	"github.com/jonathan/resumeai/internal/schemas"
	"github.com/jonathan/resumeai/internal/types"
)

var (
	renderFormat  string
	renderOutDir  string
	renderVerbose bool
)

var renderCmd = &cobra.Command{
	Use:   "render FILE...",
	Short: "Render résumé payload files to LaTeX and PDF",
	Long: `Render one or more /create-resume payloads stored as JSON or YAML files. Files are
rendered concurrently; each writes <name>.tex and/or <name>.pdf into the output directory.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRender,
}

func init() {
	renderCmd.Flags().StringVarP(&renderFormat, "format", "f", "", "Output format: pdf, tex or both (overrides output_format in the files)")
	renderCmd.Flags().StringVarP(&renderOutDir, "out", "o", ".", "Directory to write outputs to")
	renderCmd.Flags().BoolVarP(&renderVerbose, "verbose", "v", false, "Print a summary box per file instead of bare paths")
	rootCmd.AddCommand(renderCmd)
}

func runRender(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadRuntime()
	if err != nil {
		return err
	}
	defer log.Sync()

	job := renderJob{
		Files:       args,
		Format:      types.OutputFormat(renderFormat),
		OutDir:      renderOutDir,
		Options:     renderOptions(cfg, log),
		Concurrency: cfg.MaxConcurrentCompiles,
	}
	start := time.Now()
	results, err := job.Run(cmd.Context())

	out := cmd.OutOrStdout()
	if renderVerbose {
		printer := observability.NewPrinter(out)
		for _, r := range results {
			if r.File != "" {
				printer.PrintRenderSummary(r)
			}
		}
		printer.PrintRenderTotals(results, time.Since(start))
	} else {
		for _, path := range writtenPaths(results) {
			fmt.Fprintln(out, path)
		}
	}
	return err
}

// renderJob renders a batch of payload files.
type renderJob struct {
	Files []string
	// Format overrides each file's output_format when set.
	Format      types.OutputFormat
	OutDir      string
	Options     rendering.Options
	Concurrency int
}

// Run renders every file and returns one summary per file, in input order. Files that
// were never started have an empty summary. The first failure cancels files not yet
// started; its error names the offending file.
func (j renderJob) Run(ctx context.Context) ([]observability.RenderSummary, error) {
	if j.Format != "" && !j.Format.Valid() {
		return nil, fmt.Errorf("invalid format %q: must be one of pdf, tex, both", j.Format)
	}
	stems := make(map[string]string, len(j.Files))
	for _, file := range j.Files {
		stem := fileStem(file)
		if prev, ok := stems[stem]; ok {
			return nil, fmt.Errorf("%s and %s would write the same outputs", prev, file)
		}
		stems[stem] = file
	}
	if err := os.MkdirAll(j.OutDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	results := make([]observability.RenderSummary, len(j.Files))
	g, ctx := errgroup.WithContext(ctx)
	if j.Concurrency > 0 {
		g.SetLimit(j.Concurrency)
	}
	for i, file := range j.Files {
		g.Go(func() error {
			results[i] = j.renderFile(ctx, file)
			if err := results[i].Err; err != nil {
				return fmt.Errorf("%s: %w", file, err)
			}
			return nil
		})
	}
	return results, g.Wait()
}

func (j renderJob) renderFile(ctx context.Context, file string) (summary observability.RenderSummary) {
	start := time.Now()
	summary = observability.RenderSummary{File: file, Format: string(j.Format)}
	defer func() { summary.Duration = time.Since(start) }()

	if summary.Err = ctx.Err(); summary.Err != nil {
		return summary
	}
	resume, err := loadPayload(file, j.Format)
	if err != nil {
		summary.Err = err
		return summary
	}
	format := resume.OutputFormat.OrDefault()
	summary.Format = string(format)

	opts := j.Options
	if opts.Logger != nil {
		opts.Logger = opts.Logger.With("file", file)
	}
	out, err := rendering.Render(ctx, resume, opts)
	if err != nil {
		summary.Err = err
		return summary
	}
	summary.JobName = out.JobName

	stem := filepath.Join(j.OutDir, fileStem(file))
	if format.WantsSource() {
		if err := os.WriteFile(stem+".tex", []byte(out.Source), 0644); err != nil {
			summary.Err = fmt.Errorf("failed to write source: %w", err)
			return summary
		}
		summary.Outputs = append(summary.Outputs, stem+".tex")
		summary.SourceBytes = len(out.Source)
	}
	if format.WantsCompiled() {
		if err := os.WriteFile(stem+".pdf", out.PDF, 0644); err != nil {
			summary.Err = fmt.Errorf("failed to write pdf: %w", err)
			return summary
		}
		summary.Outputs = append(summary.Outputs, stem+".pdf")
		summary.PDFBytes = len(out.PDF)
	}
	return summary
}

// writtenPaths flattens the outputs of every summary, in order.
func writtenPaths(results []observability.RenderSummary) []string {
	var paths []string
	for _, r := range results {
		paths = append(paths, r.Outputs...)
	}
	return paths
}

// loadPayload reads a JSON or YAML payload, checks it against the /create-resume schema
// and decodes it. A non-empty format replaces the file's output_format before checking.
func loadPayload(file string, format types.OutputFormat) (*types.Resume, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, err
	}

	isYAML := false
	switch strings.ToLower(filepath.Ext(file)) {
	case ".json":
	case ".yaml", ".yml":
		isYAML = true
	default:
		return nil, fmt.Errorf("unsupported payload file type %q: use .json, .yaml or .yml", filepath.Ext(file))
	}

	var doc map[string]any
	if isYAML {
		err = yaml.Unmarshal(data, &doc)
	} else {
		err = json.Unmarshal(data, &doc)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse payload: %w", err)
	}
	if doc == nil {
		return nil, fmt.Errorf("payload is empty")
	}
	if format != "" {
		doc["output_format"] = string(format)
	}
	if err := schemas.ValidateCreateResumeDocument(doc); err != nil {
		return nil, err
	}

	// Decode from the original bytes so skill categories keep their file order.
	var resume types.Resume
	if isYAML {
		err = yaml.Unmarshal(data, &resume)
	} else {
		err = json.Unmarshal(data, &resume)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode payload: %w", err)
	}
	if format != "" {
		resume.OutputFormat = format
	}
	if err := resume.Validate(); err != nil {
		return nil, err
	}
	return &resume, nil
}

func fileStem(file string) string {
	base := filepath.Base(file)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
