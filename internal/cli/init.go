package cli

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"
)

// MappingResult is one registry row in the init command output.
type MappingResult struct {
	ID            string `json:"id"`
	QualifiedName string `json:"qualified_name"`
	Table         string `json:"table"`
	ClassIDColumn string `json:"class_id_column,omitempty"`
}

// NewInitCommand creates the init command.
func NewInitCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the mapped tables for a model",
		Long: `Create (or extend) the tables and columns the model maps its entity
classes to, and record the class mapping registry.

Safe to run again after the model gains classes or properties: existing
tables only get the missing columns.

Example:
  ecreader init --db ./app.db --model ./model`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(rootOpts, cmd)
		},
	}
}

func runInit(opts *RootOptions, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	s, err := openSession(opts, true)
	if err != nil {
		return err
	}
	defer s.Close()

	ctx := cmd.Context()
	if err := s.store.ApplyModel(ctx, s.cat); err != nil {
		return WrapExitError(ExitCommandError, "failed to apply model", err)
	}
	mappings, err := s.store.ClassMappings(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read class mappings", err)
	}
	slog.Info("model applied", "db", opts.Database, "classes", len(mappings))

	out := make([]MappingResult, len(mappings))
	for i, m := range mappings {
		out[i] = MappingResult{
			ID:            fmt.Sprintf("0x%x", m.ClassID),
			QualifiedName: m.QualifiedName,
			Table:         m.Table,
			ClassIDColumn: m.ClassIDColumn,
		}
	}

	if opts.Format == "json" {
		return formatter.Success(out)
	}
	var sb strings.Builder
	for i, m := range out {
		if i > 0 {
			sb.WriteByte('\n')
		}
		fmt.Fprintf(&sb, "%s %s -> %s", m.ID, m.QualifiedName, m.Table)
	}
	return formatter.Success(sb.String())
}
