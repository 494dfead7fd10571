package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/rdfstore/internal/config"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid      bool               `json:"valid"`
	Store      config.StoreConfig `json:"store"`
	Namespaces int                `json:"namespaces"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <config>",
		Short: "Validate a configuration without opening the store",
		Long: `Check a CUE configuration file or directory against the schema.

Reports the first problem with its error code and position:
  E004 - the files could not be loaded
  E005 - the path does not exist
  E006 - the CUE does not build
  E201 - a value does not match the schema`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)
	f.VerboseLog("Validating %s", path)

	cfg, err := config.Load(path)
	if err != nil {
		var le *config.LoadError
		if !errors.As(err, &le) {
			return f.Fail(ExitFailure, "validation failed", err)
		}
		var details map[string]int
		if le.Pos.IsValid() {
			details = map[string]int{"line": le.Pos.Line(), "column": le.Pos.Column()}
		}
		if outErr := f.Error(le.Code, le.Message, details); outErr != nil {
			return outErr
		}
		if opts.Format != "json" && details != nil {
			fmt.Fprintf(f.Writer, "  at %s:%d\n", le.Pos.Filename(), le.Pos.Line())
		}
		exit := ExitFailure
		if le.Code == config.ErrCodeNotFound {
			exit = ExitCommandError
		}
		return WrapExitError(exit, "validation failed", err)
	}

	result := ValidationResult{Valid: true, Store: cfg.Store, Namespaces: len(cfg.Namespaces)}
	if opts.Format == "json" {
		return f.Success(result)
	}
	f.Mark(true, "Configuration is valid (%d namespaces)", result.Namespaces)
	return nil
}
