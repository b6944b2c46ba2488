// Package render writes validation reports for people and pipelines.
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"

	"github.com/ajitpratap0/adlint/internal/diag"
)

// JSON writes the report as indented JSON followed by a newline.
func JSON(w io.Writer, r *diag.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	return nil
}

// GapsMarkdown writes the findings as a markdown table for the generated
// document. Locations use the id form so rows survive record reordering.
func GapsMarkdown(w io.Writer, r *diag.Report) error {
	var b strings.Builder
	fmt.Fprintf(&b, "# Validation gaps: %s\n\n", r.ArchitectureID)
	if len(r.Diagnostics) == 0 {
		b.WriteString("No gaps or errors found.\n")
		_, err := io.WriteString(w, b.String())
		return err
	}
	fmt.Fprintf(&b, "%d error(s), %d warning(s).\n\n", r.Summary.Errors, r.Summary.Warnings)
	b.WriteString("| Severity | Code | Location | Message |\n")
	b.WriteString("|---|---|---|---|\n")
	for _, d := range r.Diagnostics {
		fmt.Fprintf(&b, "| %s | %s | `%s` | %s |\n", d.Severity, d.Code, d.Pos.ByID(), escapeCell(d.Message))
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", " ")
}

// Build writes validation_report.json and gaps.md into dir.
func Build(dir string, r *diag.Report) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("build: creating %s: %w", dir, err)
	}
	if err := writeFile(filepath.Join(dir, "validation_report.json"), r, JSON); err != nil {
		return fmt.Errorf("build: writing report: %w", err)
	}
	if err := writeFile(filepath.Join(dir, "gaps.md"), r, GapsMarkdown); err != nil {
		return fmt.Errorf("build: writing gaps: %w", err)
	}
	return nil
}

func writeFile(path string, r *diag.Report, fn func(io.Writer, *diag.Report) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := fn(f, r); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// Styles colour the terminal summary. Plain leaves text undecorated.
type Styles struct {
	Error, Warn, OK, Dim lipgloss.Style
}

// Plain returns styles that render text unchanged.
func Plain() Styles {
	s := lipgloss.NewStyle()
	return Styles{Error: s, Warn: s, OK: s, Dim: s}
}

// Colored returns the terminal colour scheme.
func Colored() Styles {
	return Styles{
		Error: lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
		Warn:  lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
		OK:    lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true),
		Dim:   lipgloss.NewStyle().Faint(true),
	}
}

// StylesFor picks colours only when f is a terminal.
func StylesFor(f *os.File) Styles {
	if isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()) {
		return Colored()
	}
	return Plain()
}

// Text writes a one-line-per-finding summary.
func Text(w io.Writer, r *diag.Report, st Styles) error {
	var b strings.Builder
	for _, d := range r.Diagnostics {
		sev := st.Warn.Render(string(d.Severity))
		if d.Severity == diag.SeverityError {
			sev = st.Error.Render(string(d.Severity))
		}
		fmt.Fprintf(&b, "%-5s %s %s %s\n", sev, d.Code, st.Dim.Render(d.Location), d.Message)
	}
	status := st.OK.Render(strings.ToUpper(string(r.Status)))
	if !r.OK() {
		status = st.Error.Render(strings.ToUpper(string(r.Status)))
	}
	fmt.Fprintf(&b, "%s: %s (%d errors, %d warnings)\n", r.ArchitectureID, status, r.Summary.Errors, r.Summary.Warnings)
	_, err := io.WriteString(w, b.String())
	return err
}
