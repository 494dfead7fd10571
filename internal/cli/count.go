package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewCountCommand creates the count command.
func NewCountCommand(rootOpts *RootOptions) *cobra.Command {
	var graphFlag string

	cmd := &cobra.Command{
		Use:   "count",
		Short: "Count triples",
		Long: `Print the number of triples in one graph, or the number of distinct
triples over every graph.

Examples:
  rdfstore count --db ./store.db
  rdfstore count --db ./store.db --graph default`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := rootOpts.formatter(cmd)

			graph, err := parseGraph(graphFlag)
			if err != nil {
				return f.Fail(ExitCommandError, "invalid --graph", err)
			}

			s, _, err := rootOpts.openStore(cmd, f)
			if err != nil {
				return err
			}
			defer closeStore(s, rootOpts.logger(cmd))

			n, err := s.Len(cmd.Context(), graph)
			if err != nil {
				return f.Fail(ExitFailure, "failed to count triples", err)
			}
			if rootOpts.Format == "json" {
				return f.Success(map[string]int{"triples": n})
			}
			fmt.Fprintln(f.Writer, n)
			return nil
		},
	}

	cmd.Flags().StringVar(&graphFlag, "graph", "", "graph to count (IRI or \"default\")")

	return cmd
}
