package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/ecreader/internal/instance"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose     bool
	Format      string // "json" | "text"
	Database    string
	Model       string
	NullArrays  string // "emit" | "omit"
	NullStructs string // "emit" | "omit"

	// TraceIDs allows overriding the response trace id generator (for
	// testing). If nil, defaults to UUIDv7Generator.
	TraceIDs TraceIDGenerator
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// ValidPolicies defines the allowed null-handling flag values.
var ValidPolicies = []string{"emit", "omit"}

// NewRootCommand creates the root command for the ecreader CLI.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{})
}

// newRootCommand builds the command tree around opts. Tests use it to
// inject a fixed TraceIDs generator.
func newRootCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ecreader",
		Short: "ecreader - instance reader for schema-mapped SQLite stores",
		Long:  "Materialize instances of a CUE-defined class model as JSON documents from their mapped SQLite tables.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isOneOf(opts.Format, ValidFormats) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			if !isOneOf(opts.NullArrays, ValidPolicies) {
				return fmt.Errorf("invalid --null-arrays %q: must be one of %v", opts.NullArrays, ValidPolicies)
			}
			if !isOneOf(opts.NullStructs, ValidPolicies) {
				return fmt.Errorf("invalid --null-structs %q: must be one of %v", opts.NullStructs, ValidPolicies)
			}

			// Logs go to stderr so JSON output stays parseable.
			level := slog.LevelInfo
			if opts.Verbose {
				level = slog.LevelDebug
			}
			handler := slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})
			slog.SetDefault(slog.New(handler))
			return nil
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.Database, "db", "", "path to SQLite database")
	cmd.PersistentFlags().StringVar(&opts.Model, "model", "", "path to the CUE model (file or directory)")
	cmd.PersistentFlags().StringVar(&opts.NullArrays, "null-arrays", "emit", "NULL array columns: emit [] or omit")
	cmd.PersistentFlags().StringVar(&opts.NullStructs, "null-structs", "emit", "all-unset structs: emit {} or omit")

	// Add subcommands
	cmd.AddCommand(NewInitCommand(opts))
	cmd.AddCommand(NewMaterializeCommand(opts))
	cmd.AddCommand(NewExtractCommand(opts))
	cmd.AddCommand(NewExistsCommand(opts))
	cmd.AddCommand(NewClassIDCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))

	return cmd
}

// readerOptions maps the null-handling flags onto instance.Options.
func (o *RootOptions) readerOptions() instance.Options {
	var opts instance.Options
	if o.NullArrays == "omit" {
		opts.NullArrays = instance.OmitNullArray
	}
	if o.NullStructs == "omit" {
		opts.NullStructs = instance.OmitNullStruct
	}
	return opts
}

func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	gen := o.TraceIDs
	if gen == nil {
		gen = UUIDv7Generator{}
	}
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   o.Verbose,
		TraceID:   gen.Generate(),
	}
}

func isOneOf(v string, allowed []string) bool {
	for _, a := range allowed {
		if a == v {
			return true
		}
	}
	return false
}
