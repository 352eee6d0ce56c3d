package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/ecreader/internal/doc"
)

// NewMaterializeCommand creates the materialize command.
func NewMaterializeCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "materialize <class> <instance-id>",
		Short: "Render one instance as a JSON document",
		Long: `Render one instance as a JSON document.

The class is "Schema.Class", "alias.Class" or a numeric class id. The
instance id is decimal or 0x-prefixed hex. The row must carry exactly the
given class; instances of derived classes are not matched.

Examples:
  ecreader materialize --db ./app.db --model ./model ts.P 0x1
  ecreader materialize --db ./app.db --model ./model TestSchema.Sub 42 --format json`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMaterialize(rootOpts, args[0], args[1], cmd)
		},
	}
}

func runMaterialize(opts *RootOptions, classRef, idRef string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	s, err := openSession(opts, true)
	if err != nil {
		return err
	}
	defer s.Close()

	classID, err := s.resolveClass(classRef)
	if err != nil {
		return formatter.ModelError("unknown class", err)
	}
	instanceID, err := parseInstanceID(idRef)
	if err != nil {
		return err
	}

	formatter.VerboseLog("Materializing %s %s", classRef, instanceID.Hex())
	text, err := s.reader.MaterializeJSON(cmd.Context(), classID, instanceID)
	if err != nil {
		return formatter.ModelError("materialize failed", err)
	}
	return formatter.Success(json.RawMessage(text))
}

// NewExtractCommand creates the extract command.
func NewExtractCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "extract <class> <instance-id> <property>",
		Short: "Render one property of an instance",
		Long: `Render one property of an instance as a JSON value.

An unset property prints null. ECInstanceId and ECClassId are accepted.

Example:
  ecreader extract --db ./app.db --model ./model ts.P 0x1 p2d`,
		Args:          cobra.ExactArgs(3),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExtract(rootOpts, args[0], args[1], args[2], cmd)
		},
	}
}

func runExtract(opts *RootOptions, classRef, idRef, property string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	s, err := openSession(opts, true)
	if err != nil {
		return err
	}
	defer s.Close()

	classID, err := s.resolveClass(classRef)
	if err != nil {
		return formatter.ModelError("unknown class", err)
	}
	instanceID, err := parseInstanceID(idRef)
	if err != nil {
		return err
	}

	v, err := s.reader.ExtractProperty(cmd.Context(), classID, instanceID, property)
	if err != nil {
		return formatter.ModelError("extract failed", err)
	}
	text, err := doc.MarshalString(v)
	if err != nil {
		return WrapExitError(ExitFailure, "render failed", err)
	}
	return formatter.Success(json.RawMessage(text))
}

// ExistsResult is the payload of the exists command.
type ExistsResult struct {
	Class    string `json:"class"`
	Property string `json:"property"`
	Exists   bool   `json:"exists"`
}

// NewExistsCommand creates the exists command.
func NewExistsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "exists <class> <property>",
		Short: "Report whether a class declares or inherits a property",
		Long: `Report whether a class declares or inherits a property.

Only the model is consulted; --db is not needed. Names are matched
case-insensitively.

Example:
  ecreader exists --model ./model ts.Sub Prop1`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExists(rootOpts, args[0], args[1], cmd)
		},
	}
}

func runExists(opts *RootOptions, classRef, property string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	s, err := openSession(opts, false)
	if err != nil {
		return err
	}
	defer s.Close()

	classID, err := s.resolveClass(classRef)
	if err != nil {
		return formatter.ModelError("unknown class", err)
	}
	ok, err := s.reader.PropExists(classID, property)
	if err != nil {
		return formatter.ModelError("exists failed", err)
	}

	if opts.Format == "json" {
		return formatter.Success(ExistsResult{Class: classRef, Property: property, Exists: ok})
	}
	return formatter.Success(ok)
}

// ClassIDResult is the payload of the classid command.
type ClassIDResult struct {
	ID            string `json:"id"`
	QualifiedName string `json:"qualified_name"`
}

// NewClassIDCommand creates the classid command.
func NewClassIDCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "classid <class>",
		Short: "Resolve a class name to its id",
		Long: `Resolve "Schema.Class" or "alias.Class" to its class id.

Example:
  ecreader classid --model ./model ts.P`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runClassID(rootOpts, args[0], cmd)
		},
	}
}

func runClassID(opts *RootOptions, name string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	s, err := openSession(opts, false)
	if err != nil {
		return err
	}
	defer s.Close()

	id, err := s.cat.LookupClass(name)
	if err != nil {
		return formatter.ModelError("unknown class", err)
	}
	qualified, err := s.cat.QualifiedName(id)
	if err != nil {
		return formatter.ModelError("unknown class", err)
	}

	if opts.Format == "json" {
		return formatter.Success(ClassIDResult{ID: id.Hex(), QualifiedName: qualified})
	}
	return formatter.Success(fmt.Sprintf("%s %s", id.Hex(), qualified))
}
