package cli

import (
	"github.com/spf13/cobra"

	"github.com/roach88/rdfstore/internal/adapter"
)

// NewUpdateCommand creates the update command.
func NewUpdateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update <text|@file|->",
		Short: "Run a SPARQL update",
		Long: `Apply a SPARQL update request to the store.

INSERT DATA, DELETE DATA, DELETE/INSERT WHERE, CLEAR, DROP and CREATE are
supported. LOAD, ADD, MOVE and COPY fail with UNSUPPORTED.

Examples:
  rdfstore update --db ./store.db 'INSERT DATA { <urn:a> <urn:p> <urn:b> }'
  rdfstore update --db ./store.db @cleanup.ru`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUpdate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runUpdate(opts *RootOptions, arg string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	text, err := readText(arg, cmd.InOrStdin())
	if err != nil {
		return f.Fail(ExitCommandError, "failed to read update", err)
	}

	s, _, err := opts.openStore(cmd, f)
	if err != nil {
		return err
	}
	defer closeStore(s, opts.logger(cmd))

	if err := s.Update(cmd.Context(), text, adapter.QueryOptions{}); err != nil {
		return f.Fail(ExitFailure, "update failed", err)
	}

	n, err := s.Len(cmd.Context(), nil)
	if err != nil {
		return f.Fail(ExitFailure, "failed to count triples", err)
	}
	if opts.Format == "json" {
		return f.Success(map[string]int{"triples": n})
	}
	f.Mark(true, "Update applied (%d triples in store)", n)
	return nil
}
