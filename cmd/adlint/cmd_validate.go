package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/ajitpratap0/adlint/internal/diag"
	"github.com/ajitpratap0/adlint/internal/render"
)

func validateCmd() *cobra.Command {
	var (
		all        bool
		reportPath string
		format     string
		failOnWarn bool
	)

	cmd := &cobra.Command{
		Use:   "validate [architecture...]",
		Short: "Validate one or more architectures",
		Long: `Validate loads each architecture's YAML collections and prints every finding.

Exit status is 2 when any architecture has errors, 1 when --fail-on-warn is set
and warnings were found, and 0 otherwise.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != "text" && format != "json" {
				return fmt.Errorf("validate: unknown format %q (want text or json)", format)
			}
			logger := newLogger()

			engine, err := newEngine(logger)
			if err != nil {
				return fmt.Errorf("validate: %w", err)
			}
			ws := newWorkspace(engine)

			ids := args
			if all {
				ids, err = ws.ListArchitectures()
				if err != nil {
					return fmt.Errorf("validate: listing architectures: %w", err)
				}
			}
			if len(ids) == 0 {
				return errors.New("validate: name an architecture or pass --all")
			}

			reports, err := engine.ValidateAll(cmd.Context(), ws.Root(), ids)
			if err != nil {
				return fmt.Errorf("validate: %w", err)
			}

			out := cmd.OutOrStdout()
			if format == "json" {
				err = writeReports(out, reports)
			} else {
				st := render.Plain()
				if f, ok := out.(*os.File); ok {
					st = render.StylesFor(f)
				}
				for _, r := range reports {
					if err = render.Text(out, r, st); err != nil {
						break
					}
				}
			}
			if err != nil {
				return fmt.Errorf("validate: writing output: %w", err)
			}

			if reportPath != "" {
				if err := writeReportFile(reportPath, reports); err != nil {
					return fmt.Errorf("validate: %w", err)
				}
			}

			return exitStatus(reports, failOnWarn)
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "validate every architecture under the specs root")
	cmd.Flags().StringVar(&reportPath, "report", "", "also write the JSON report to this file")
	cmd.Flags().StringVar(&format, "format", "text", "output format: text or json")
	cmd.Flags().BoolVar(&failOnWarn, "fail-on-warn", false, "exit 1 when warnings are found")
	return cmd
}

// writeReports writes a single report as an object and several as an array.
func writeReports(w io.Writer, reports []*diag.Report) error {
	if len(reports) == 1 {
		return render.JSON(w, reports[0])
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(reports)
}

func writeReportFile(path string, reports []*diag.Report) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating report: %w", err)
	}
	if err := writeReports(f, reports); err != nil {
		_ = f.Close()
		return fmt.Errorf("writing report: %w", err)
	}
	return f.Close()
}

func exitStatus(reports []*diag.Report, failOnWarn bool) error {
	warned := false
	for _, r := range reports {
		if !r.OK() {
			return exitError{code: 2}
		}
		if r.Summary.Warnings > 0 {
			warned = true
		}
	}
	if failOnWarn && warned {
		return exitError{code: 1}
	}
	return nil
}
