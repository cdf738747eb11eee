// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, clip(title))
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(strings.TrimRight(content, "\n"), "\n") {
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, clip(line))
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// clip shortens a line to the box's inner width, counting runes.
func clip(line string) string {
	if utf8.RuneCountInString(line) <= boxWidth-4 {
		return line
	}
	r := []rune(line)
	return string(r[:boxWidth-7]) + "..."
}

// RenderSummary describes one rendered payload file.
type RenderSummary struct {
	File        string
	Format      string
	JobName     string
	Outputs     []string
	SourceBytes int
	PDFBytes    int
	Duration    time.Duration
	Err         error
}

// PrintRenderSummary outputs what a render produced, or why it failed.
func (p *Printer) PrintRenderSummary(s RenderSummary) {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Format:   %s\n", s.Format))
	if s.JobName != "" {
		sb.WriteString(fmt.Sprintf("Job:      %s\n", s.JobName))
	}
	sb.WriteString(fmt.Sprintf("Duration: %s\n", s.Duration.Round(time.Millisecond)))

	if s.Err != nil {
		sb.WriteString("\nFAILED:\n")
		sb.WriteString(s.Err.Error())
		p.printBox("RENDER "+filepath.Base(s.File), sb.String())
		return
	}

	if s.SourceBytes > 0 {
		sb.WriteString(fmt.Sprintf("Source:   %s\n", formatBytes(s.SourceBytes)))
	}
	if s.PDFBytes > 0 {
		sb.WriteString(fmt.Sprintf("PDF:      %s\n", formatBytes(s.PDFBytes)))
	}
	if len(s.Outputs) > 0 {
		sb.WriteString("\nWritten:\n")
		for i, out := range s.Outputs {
			if i >= maxItemsToShow {
				sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(s.Outputs)-maxItemsToShow))
				break
			}
			sb.WriteString(fmt.Sprintf("  • %s\n", out))
		}
	}

	p.printBox("RENDER "+filepath.Base(s.File), sb.String())
}

// PrintRenderTotals outputs a one-box summary of a batch.
func (p *Printer) PrintRenderTotals(summaries []RenderSummary, elapsed time.Duration) {
	var ok, failed, written int
	for _, s := range summaries {
		if s.Err != nil {
			failed++
			continue
		}
		ok++
		written += len(s.Outputs)
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Rendered: %d\n", ok))
	if failed > 0 {
		sb.WriteString(fmt.Sprintf("Failed:   %d\n", failed))
	}
	sb.WriteString(fmt.Sprintf("Files:    %d\n", written))
	sb.WriteString(fmt.Sprintf("Elapsed:  %s\n", elapsed.Round(time.Millisecond)))
	p.printBox("RENDER SUMMARY", sb.String())
}

func formatBytes(n int) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MiB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KiB", float64(n)/(1<<10))
	}
	return fmt.Sprintf("%d B", n)
}
