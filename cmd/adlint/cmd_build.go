package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ajitpratap0/adlint/internal/render"
)

func buildCmd() *cobra.Command {
	var outDir string

	cmd := &cobra.Command{
		Use:   "build <architecture>",
		Short: "Write validation_report.json and gaps.md for an architecture",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()

			engine, err := newEngine(logger)
			if err != nil {
				return fmt.Errorf("build: %w", err)
			}
			ws := newWorkspace(engine)

			archID := args[0]
			report := engine.Validate(cmd.Context(), ws.Root(), archID)

			dir := outDir
			if dir == "" {
				dir = filepath.Join(cfg.Output.Dir, archID)
			}
			if err := render.Build(dir, report); err != nil {
				return err
			}
			logger.Info("build written", "architecture", archID, "dir", dir, "status", report.Status)
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s (%d errors, %d warnings) -> %s\n",
				archID, report.Status, report.Summary.Errors, report.Summary.Warnings, dir)

			if !report.OK() {
				return exitError{code: 2}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&outDir, "out", "", "output directory (default <output.dir>/<architecture>)")
	return cmd
}
