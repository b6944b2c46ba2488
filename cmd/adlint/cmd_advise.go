package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ajitpratap0/adlint/internal/advisor"
)

func adviseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "advise <architecture>",
		Short: "Ask Claude for remediation notes for an architecture's findings",
		Long: `Advise validates the architecture and sends its findings to Claude for
remediation notes. Requires ADLINT_CLAUDE_API_KEY or ANTHROPIC_API_KEY.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()

			adv, err := advisor.New(cfg.Claude.APIKey, cfg.Claude.Model, cfg.Claude.MaxFindings, logger)
			if err != nil {
				return err
			}
			engine, err := newEngine(logger)
			if err != nil {
				return fmt.Errorf("advise: %w", err)
			}
			ws := newWorkspace(engine)

			report := engine.Validate(cmd.Context(), ws.Root(), args[0])
			notes, err := adv.Advise(cmd.Context(), report)
			if err != nil {
				return fmt.Errorf("advise: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), notes)
			return nil
		},
	}
	return cmd
}
