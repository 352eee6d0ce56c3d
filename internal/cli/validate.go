package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/ecreader/internal/catalog"
	"github.com/roach88/ecreader/internal/compiler"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid   bool                       `json:"valid"`
	Classes int                        `json:"classes"`
	Errors  []compiler.ValidationError `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <model-path>",
		Short: "Compile a model and check it without touching a database",
		Long: `Compile a CUE model and check it without touching a database.

Reports compile errors with their source position, cross-class reference
errors (E101-E105) and inheritance cycles.

Example:
  ecreader validate ./model`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	layouts, err := compiler.LoadModel(path)
	if err != nil {
		details := map[string]any{}
		var cErr *compiler.CompileError
		if errors.As(err, &cErr) {
			details["field"] = cErr.Field
			if cErr.Pos.IsValid() {
				details["file"] = cErr.Pos.Filename()
				details["line"] = cErr.Pos.Line()
			}
		}
		if outErr := formatter.Error(ErrCodeGeneric, err.Error(), details); outErr != nil {
			return outErr
		}
		return WrapExitError(ExitFailure, "model is invalid", err)
	}
	formatter.VerboseLog("Compiled %d class(es) from %s", len(layouts), path)

	// Cycles are only detectable once every class is known.
	if _, err := catalog.New(layouts); err != nil {
		if outErr := formatter.Error(ErrCodeGeneric, err.Error(), nil); outErr != nil {
			return outErr
		}
		return WrapExitError(ExitFailure, "model is invalid", err)
	}

	if opts.Format == "json" {
		return formatter.Success(ValidationResult{Valid: true, Classes: len(layouts)})
	}
	return formatter.Success(fmt.Sprintf("✓ Model valid: %d class(es)", len(layouts)))
}
