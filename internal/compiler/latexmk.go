// Package compiler runs the external LaTeX toolchain that turns generated source into PDF.
package compiler

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/semaphore"
)

const (
	// DefaultTimeout bounds a single compilation.
	DefaultTimeout = 5 * time.Second
	// DefaultMaxConcurrent bounds how many latexmk processes run at once.
	DefaultMaxConcurrent = 4
)

// Job describes one compilation.
type Job struct {
	// SourcePath is the .tex file to compile. Relative paths are resolved against WorkDir.
	SourcePath string
	WorkDir    string
	// JobName names every output file (<JobName>.pdf, <JobName>.log, ...).
	JobName string
	Timeout time.Duration
	// Force keeps going past recoverable errors (latexmk -f).
	Force bool
}

// Compiler turns a LaTeX source file into a PDF.
type Compiler interface {
	Compile(ctx context.Context, job Job) (artifactPath string, err error)
	Clean(ctx context.Context, workDir, jobName string) error
}

// Latexmk drives the latexmk binary.
type Latexmk struct {
	Binary string
	sem    *semaphore.Weighted
}

// NewLatexmk returns a compiler that allows at most maxConcurrent processes at a time.
// An empty binary means "latexmk" from PATH.
func NewLatexmk(binary string, maxConcurrent int) *Latexmk {
	if binary == "" {
		binary = "latexmk"
	}
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrent
	}
	return &Latexmk{Binary: binary, sem: semaphore.NewWeighted(int64(maxConcurrent))}
}

// Available reports whether the binary can be found.
func (l *Latexmk) Available() bool {
	_, err := exec.LookPath(l.Binary)
	return err == nil
}

// Compile runs latexmk and returns the path of the produced PDF.
func (l *Latexmk) Compile(ctx context.Context, job Job) (string, error) {
	if job.JobName == "" {
		return "", &CompilationError{Message: "job name is required"}
	}
	if job.Timeout <= 0 {
		job.Timeout = DefaultTimeout
	}

	if err := l.sem.Acquire(ctx, 1); err != nil {
		return "", &CompilationError{Message: "waiting for a compiler slot", Cause: err}
	}
	defer l.sem.Release(1)

	ctx, cancel := context.WithTimeout(ctx, job.Timeout)
	defer cancel()

	args := []string{"-pdf", "-interaction=nonstopmode", "-jobname=" + job.JobName}
	if job.Force {
		args = append(args, "-f")
	}
	args = append(args, job.SourcePath)

	cmd := exec.CommandContext(ctx, l.Binary, args...)
	cmd.Dir = job.WorkDir
	// Grandchildren (pdflatex) may keep the output pipes open after latexmk is killed.
	cmd.WaitDelay = time.Second

	var out strings.Builder
	cmd.Stdout = &out
	cmd.Stderr = &out

	runErr := cmd.Run()
	logOutput := out.String()

	if ctx.Err() == context.DeadlineExceeded {
		return "", &CompilationError{
			Message:   fmt.Sprintf("compiler exceeded %s", job.Timeout),
			LogOutput: logOutput,
			Cause:     context.DeadlineExceeded,
		}
	}
	if runErr != nil {
		return "", &CompilationError{
			Message:   "compiler exited with an error",
			LogOutput: logOutput,
			Cause:     runErr,
		}
	}

	pdfPath := filepath.Join(job.WorkDir, job.JobName+".pdf")
	if _, err := os.Stat(pdfPath); err != nil {
		return "", &CompilationError{
			Message:   "PDF was not generated",
			LogOutput: logOutput,
			Cause:     err,
		}
	}
	return pdfPath, nil
}

// Clean removes latexmk's scratch files for jobName, including the PDF.
func (l *Latexmk) Clean(ctx context.Context, workDir, jobName string) error {
	ctx, cancel := context.WithTimeout(ctx, DefaultTimeout)
	defer cancel()

	args := []string{"-C", "-jobname=" + jobName}
	// Without a file argument latexmk acts on every .tex in workDir.
	if src := jobName + ".tex"; fileExists(filepath.Join(workDir, src)) {
		args = append(args, src)
	}
	cmd := exec.CommandContext(ctx, l.Binary, args...)
	cmd.Dir = workDir
	cmd.WaitDelay = time.Second
	if out, err := cmd.CombinedOutput(); err != nil {
		return &CompilationError{Message: "cleanup failed", LogOutput: string(out), Cause: err}
	}
	return nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
