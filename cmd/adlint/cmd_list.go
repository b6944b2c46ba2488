package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ajitpratap0/adlint/internal/schema"
	"github.com/ajitpratap0/adlint/internal/workspace"
)

func listCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List architectures under the specs root",
		RunE: func(cmd *cobra.Command, args []string) error {
			ws := workspace.New(cfg.Specs.Root, schema.Default())
			ids, err := ws.ListArchitectures()
			if err != nil {
				return fmt.Errorf("list: %w", err)
			}
			for _, id := range ids {
				fmt.Fprintln(cmd.OutOrStdout(), id)
			}
			return nil
		},
	}
	return cmd
}
