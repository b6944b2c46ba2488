package main

import (
	"encoding/json"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/spf13/cobra"

	"github.com/ajitpratap0/adlint/internal/schema"
)

func schemaCmd() *cobra.Command {
	var metadata bool

	cmd := &cobra.Command{
		Use:   "schema [entity]",
		Short: "Print the JSON Schema for one or all entity types",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg := schema.Default()
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")

			if metadata {
				return enc.Encode(reg.Metadata())
			}

			entities := reg.Order()
			if len(args) == 1 {
				entities = args
			}
			docs := make(map[string]*jsonschema.Schema, len(entities))
			for _, name := range entities {
				doc, err := reg.JSONSchema(name)
				if err != nil {
					return fmt.Errorf("schema: %w", err)
				}
				docs[name] = doc
			}
			if len(args) == 1 {
				return enc.Encode(docs[args[0]])
			}
			return enc.Encode(docs)
		},
	}

	cmd.Flags().BoolVar(&metadata, "metadata", false, "print editor metadata instead of JSON Schema")
	return cmd
}
