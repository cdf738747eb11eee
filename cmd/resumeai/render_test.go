package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/resumeai/internal/compiler"
	"github.com/jonathan/resumeai/internal/logger"
	"github.com/jonathan/resumeai/internal/rendering"
	"github.com/jonathan/resumeai/internal/schemas"
	"github.com/jonathan/resumeai/internal/types"
)

const jsonPayload = `{
  "information": {
    "name": "Jane Doe",
    "email": "jane@example.com",
    "phone": "555-0100",
    "address": "1 Main St",
    "linkedin": "linkedin.com/in/jane",
    "github": "github.com/jane",
    "summary": "Builds reliable systems"
  },
  "education": [{"school": "MIT", "degree": "BSc", "start_date": 2016, "end_date": "2020"}],
  "technical_skills": {"Languages": ["Go", "C#"]},
  "output_format": "tex"
}`

const yamlPayload = `information:
  name: John Roe
  email: john@example.com
  phone: "555-0101"
  address: 2 Side St
  linkedin: linkedin.com/in/john
  github: github.com/john
experience:
  - title: Engineer
    company: Acme
    start_date: 2020
    end_date: Present
    description: Shipped things
technical_skills:
  Zeta Tools: [Make]
  Alpha Languages: [Go]
output_format: tex
`

// fakeCompiler writes a small PDF for each job and counts the jobs it ran.
type fakeCompiler struct {
	err error
}

func (c *fakeCompiler) Compile(_ context.Context, job compiler.Job) (string, error) {
	if c.err != nil {
		return "", c.err
	}
	pdf := filepath.Join(job.WorkDir, job.JobName+".pdf")
	return pdf, os.WriteFile(pdf, []byte("%PDF-1.5 "+job.JobName), 0644)
}

func (c *fakeCompiler) Clean(context.Context, string, string) error { return nil }

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func newRenderJob(t *testing.T, files ...string) renderJob {
	t.Helper()
	return renderJob{
		Files:  files,
		OutDir: filepath.Join(t.TempDir(), "out"),
		Options: rendering.Options{
			OutputDir: t.TempDir(),
			Compiler:  &fakeCompiler{},
			Logger:    logger.Nop(),
		},
		Concurrency: 2,
	}
}

func TestRenderJob_JSONAndYAML(t *testing.T) {
	dir := t.TempDir()
	jsonFile := writeFile(t, dir, "jane.json", jsonPayload)
	yamlFile := writeFile(t, dir, "john.yaml", yamlPayload)
	job := newRenderJob(t, jsonFile, yamlFile)

	results, err := job.Run(context.Background())
	written := writtenPaths(results)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(job.OutDir, "jane.tex"),
		filepath.Join(job.OutDir, "john.tex"),
	}, written)

	jane, err := os.ReadFile(written[0])
	require.NoError(t, err)
	assert.Contains(t, string(jane), "Jane Doe")
	assert.Contains(t, string(jane), "2016")

	john, err := os.ReadFile(written[1])
	require.NoError(t, err)
	assert.Contains(t, string(john), "John Roe")
	zeta := strings.Index(string(john), "Zeta Tools")
	alpha := strings.Index(string(john), "Alpha Languages")
	require.True(t, zeta >= 0 && alpha >= 0)
	assert.Less(t, zeta, alpha, "skill categories keep file order")

	entries, err := os.ReadDir(job.Options.OutputDir)
	require.NoError(t, err)
	assert.Empty(t, entries, "working files are removed")
}

func TestRenderJob_FormatOverride(t *testing.T) {
	dir := t.TempDir()
	file := writeFile(t, dir, "jane.json", jsonPayload)
	job := newRenderJob(t, file)
	job.Format = types.FormatBoth

	results, err := job.Run(context.Background())
	written := writtenPaths(results)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(job.OutDir, "jane.tex"),
		filepath.Join(job.OutDir, "jane.pdf"),
	}, written)

	pdf, err := os.ReadFile(written[1])
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(pdf), "%PDF"))
}

func TestRenderJob_FormatSuppliesMissingOutputFormat(t *testing.T) {
	dir := t.TempDir()
	payload := strings.Replace(yamlPayload, "output_format: tex\n", "", 1)
	file := writeFile(t, dir, "john.yml", payload)

	job := newRenderJob(t, file)
	_, err := job.Run(context.Background())
	var schemaErr *schemas.ValidationError
	require.ErrorAs(t, err, &schemaErr)

	job.Format = types.FormatTeX
	results, err := job.Run(context.Background())
	written := writtenPaths(results)
	require.NoError(t, err)
	assert.Len(t, written, 1)
}

func TestRenderJob_Errors(t *testing.T) {
	dir := t.TempDir()
	good := writeFile(t, dir, "good.json", jsonPayload)

	tests := []struct {
		name    string
		files   []string
		format  types.OutputFormat
		wantErr string
	}{
		{"invalid format", []string{good}, "docx", "invalid format"},
		{"unsupported extension", []string{writeFile(t, dir, "resume.txt", jsonPayload)}, "", "unsupported payload file type"},
		{"missing file", []string{filepath.Join(dir, "nope.json")}, "", "nope.json"},
		{"malformed JSON", []string{writeFile(t, dir, "bad.json", "{")}, "", "failed to parse payload"},
		{"empty YAML", []string{writeFile(t, dir, "empty.yaml", "")}, "", "payload is empty"},
		{"schema violation", []string{writeFile(t, dir, "noname.json", `{"information": {}, "output_format": "tex"}`)}, "", "validation failed"},
		{"duplicate stems", []string{good, writeFile(t, dir, "good.yaml", yamlPayload)}, "", "would write the same outputs"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			job := newRenderJob(t, tt.files...)
			job.Format = tt.format
			_, err := job.Run(context.Background())
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestRenderJob_CompileFailureNamesFile(t *testing.T) {
	dir := t.TempDir()
	file := writeFile(t, dir, "jane.json", jsonPayload)
	job := newRenderJob(t, file)
	job.Format = types.FormatPDF
	job.Options.Compiler = &fakeCompiler{err: &compiler.CompilationError{Message: "latexmk failed", Cause: errors.New("exit 12")}}

	results, err := job.Run(context.Background())
	written := writtenPaths(results)
	require.Error(t, err)
	assert.Empty(t, written)
	assert.Contains(t, err.Error(), file)

	var compileErr *compiler.CompilationError
	assert.ErrorAs(t, err, &compileErr)
	_, statErr := os.Stat(filepath.Join(job.OutDir, "jane.pdf"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestRenderJob_ManyFilesConcurrently(t *testing.T) {
	dir := t.TempDir()
	var files []string
	for _, name := range []string{"a", "b", "c", "d", "e"} {
		files = append(files, writeFile(t, dir, name+".json", jsonPayload))
	}
	job := newRenderJob(t, files...)
	job.Format = types.FormatBoth

	results, err := job.Run(context.Background())
	written := writtenPaths(results)
	require.NoError(t, err)
	assert.Len(t, written, 10)
	assert.Equal(t, filepath.Join(job.OutDir, "a.tex"), written[0])
	assert.Equal(t, filepath.Join(job.OutDir, "e.pdf"), written[9])
}

func TestRenderJob_CanceledContext(t *testing.T) {
	file := writeFile(t, t.TempDir(), "jane.json", jsonPayload)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newRenderJob(t, file).Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFileStem(t *testing.T) {
	assert.Equal(t, "jane", fileStem("/tmp/x/jane.json"))
	assert.Equal(t, "jane.v2", fileStem("jane.v2.yaml"))
	assert.Equal(t, "noext", fileStem("noext"))
}

func TestRenderJob_Summaries(t *testing.T) {
	dir := t.TempDir()
	good := writeFile(t, dir, "jane.json", jsonPayload)
	bad := writeFile(t, dir, "bad.json", `{"information": {"name": "X"}, "output_format": "docx"}`)
	job := newRenderJob(t, good, bad)
	job.Concurrency = 1

	results, err := job.Run(context.Background())
	require.Error(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, good, results[0].File)
	assert.Equal(t, "tex", results[0].Format)
	assert.True(t, strings.HasPrefix(results[0].JobName, "JaneDoe-"))
	assert.Positive(t, results[0].SourceBytes)
	assert.Zero(t, results[0].PDFBytes)
	assert.NoError(t, results[0].Err)

	assert.Equal(t, bad, results[1].File)
	assert.Error(t, results[1].Err)
	assert.Empty(t, results[1].Outputs)
}
