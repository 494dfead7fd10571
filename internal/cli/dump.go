package cli

import (
	"bytes"

	"github.com/spf13/cobra"

	"github.com/roach88/rdfstore/internal/rdfio"
)

// DumpOptions holds flags for the dump command.
type DumpOptions struct {
	*RootOptions
	Syntax string
	Graph  string
	Base   string
}

// NewDumpCommand creates the dump command.
func NewDumpCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DumpOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "dump",
		Short: "Write the store as an RDF document",
		Long: `Serialize the store to standard output.

Without --graph the whole dataset is written, which needs a quad syntax
(nquads or trig). With --graph only that graph is written, as the
document's default graph.

Examples:
  rdfstore dump --db ./store.db
  rdfstore dump --db ./store.db --syntax turtle --graph http://example.org/g`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDump(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Syntax, "syntax", "nquads", "document syntax (nt, nq, ttl, trig, rdfxml, jsonld)")
	cmd.Flags().StringVar(&opts.Graph, "graph", "", "graph to write (IRI or \"default\")")
	cmd.Flags().StringVar(&opts.Base, "base", "", "base IRI for relative references")

	return cmd
}

func runDump(opts *DumpOptions, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	graph, err := parseGraph(opts.Graph)
	if err != nil {
		return f.Fail(ExitCommandError, "invalid --graph", err)
	}

	s, _, err := opts.openStore(cmd, f)
	if err != nil {
		return err
	}
	defer closeStore(s, opts.logger(cmd))

	// Buffer so a failed dump writes nothing but the error.
	var buf bytes.Buffer
	err = rdfio.Serialize(cmd.Context(), &buf, s, rdfio.SerializeOptions{
		Format:  opts.Syntax,
		BaseIRI: opts.Base,
		Graph:   graph,
	})
	if err != nil {
		return f.Fail(ExitFailure, "failed to dump store", err)
	}

	if opts.Format == "json" {
		return f.Success(map[string]string{"syntax": opts.Syntax, "document": buf.String()})
	}
	_, err = buf.WriteTo(f.Writer)
	return err
}
