package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ajitpratap0/adlint/internal/render"
	"github.com/ajitpratap0/adlint/internal/watch"
)

func watchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch <architecture>",
		Short: "Re-validate an architecture whenever its YAML files change",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()

			engine, err := newEngine(logger)
			if err != nil {
				return fmt.Errorf("watch: %w", err)
			}
			ws := newWorkspace(engine)

			archID := args[0]
			dir, err := ws.Resolve(archID)
			if err != nil {
				return fmt.Errorf("watch: %w", err)
			}

			st := render.StylesFor(os.Stdout)
			run := func(ctx context.Context) {
				report := engine.Validate(ctx, ws.Root(), archID)
				if err := render.Text(os.Stdout, report, st); err != nil {
					logger.Error("watch: writing report", "error", err)
				}
			}
			run(cmd.Context())

			w, err := watch.New(dir, cfg.Watch.Debounce, logger, func(ctx context.Context, changed []string) {
				logger.Info("files changed", "architecture", archID, "files", changed)
				run(ctx)
			})
			if err != nil {
				return err
			}
			defer func() { _ = w.Close() }()

			logger.Info("watching", "architecture", archID, "dir", dir)
			if err := w.Run(cmd.Context()); err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("watch: %w", err)
			}
			return nil
		},
	}
	return cmd
}
