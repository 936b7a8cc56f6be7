package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/tonimelisma/lifegoal-go/internal/model"
)

// Export formats.
const (
	formatJSON = "json"
	formatYAML = "yaml"
)

func newExportCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Dump all goals, tasks, and board habits",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if format != formatJSON && format != formatYAML {
				return fmt.Errorf("--format must be %s or %s, got %q", formatJSON, formatYAML, format)
			}

			return withSession(cmd, func(_ context.Context, _ *CLIContext, s *session) error {
				snap, err := s.app.Current()
				if err != nil {
					return err
				}

				return writeExport(cmd.OutOrStdout(), snap.Data(), format)
			})
		},
	}

	cmd.Flags().StringVar(&format, "format", formatJSON, "output format: json or yaml")

	return cmd
}

// writeExport renders data in format. YAML keys follow the JSON field
// names so both exports describe the same document.
func writeExport(w io.Writer, data model.SnapshotData, format string) error {
	if format == formatJSON {
		return printJSON(w, data)
	}

	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encoding export: %w", err)
	}

	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("encoding export: %w", err)
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)

	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encoding YAML: %w", err)
	}

	return enc.Close()
}
