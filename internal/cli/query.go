package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/rdfstore/internal/adapter"
	"github.com/roach88/rdfstore/internal/config"
)

// QueryOptions holds flags for the query command.
type QueryOptions struct {
	*RootOptions
	Union bool
	Graph string
}

// QueryOutput is the JSON form of a query result.
type QueryOutput struct {
	Form     string              `json:"form"`
	Answer   *bool               `json:"answer,omitempty"`
	Vars     []string            `json:"vars,omitempty"`
	Bindings []map[string]string `json:"bindings,omitempty"`
	Triples  []string            `json:"triples,omitempty"`
	Elapsed  string              `json:"elapsed"`
}

// NewQueryCommand creates the query command.
func NewQueryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &QueryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "query <text|@file|->",
		Short: "Run a SPARQL query",
		Long: `Evaluate a SPARQL ASK, SELECT or CONSTRUCT query.

The query is given inline, read from a file with @path, or read from
standard input with -. Prefixes bound in the configuration are available
without PREFIX declarations.

By default the query sees the stored default graph, or every graph when
the configuration sets union_default_graph. --union and --graph override
that.

Examples:
  rdfstore query --db ./store.db 'SELECT ?s WHERE { ?s ?p ?o }'
  rdfstore query --db ./store.db --union @likes.rq
  rdfstore query --db ./store.db --graph http://example.org/g 'ASK { ?s ?p ?o }'`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Union, "union", false, "query the union of all graphs")
	cmd.Flags().StringVar(&opts.Graph, "graph", "", "query one graph as the default graph")
	cmd.MarkFlagsMutuallyExclusive("union", "graph")

	return cmd
}

// scope resolves the query scope from the flags, falling back to cfg.
func scope(union bool, graphFlag string, cfg *config.Config) (adapter.Scope, error) {
	graph, err := parseGraph(graphFlag)
	if err != nil {
		return adapter.Scope{}, err
	}
	switch {
	case union:
		return adapter.UnionScope(), nil
	case graph != nil:
		return adapter.GraphScope(*graph), nil
	}
	return cfg.Scope(), nil
}

func runQuery(opts *QueryOptions, arg string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	text, err := readText(arg, cmd.InOrStdin())
	if err != nil {
		return f.Fail(ExitCommandError, "failed to read query", err)
	}

	s, cfg, err := opts.openStore(cmd, f)
	if err != nil {
		return err
	}
	defer closeStore(s, opts.logger(cmd))

	sc, err := scope(opts.Union, opts.Graph, cfg)
	if err != nil {
		return f.Fail(ExitCommandError, "invalid --graph", err)
	}

	start := time.Now()
	res, err := s.Query(cmd.Context(), text, adapter.QueryOptions{Scope: sc})
	if err != nil {
		return f.Fail(ExitFailure, "query failed", err)
	}
	out := queryOutput(res)
	out.Elapsed = time.Since(start).String()
	f.VerboseLog("Query evaluated in %s", out.Elapsed)

	if opts.Format == "json" {
		return f.Success(out)
	}
	printQueryText(f, out)
	return nil
}

func queryOutput(res adapter.Result) QueryOutput {
	switch r := res.(type) {
	case adapter.AskResult:
		answer := r.Answer
		return QueryOutput{Form: "ask", Answer: &answer}
	case adapter.SelectResult:
		out := QueryOutput{Form: "select", Vars: r.Vars, Bindings: make([]map[string]string, 0, len(r.Bindings))}
		for _, b := range r.Bindings {
			row := make(map[string]string, len(b))
			for k, v := range b {
				row[k] = v.N3()
			}
			out.Bindings = append(out.Bindings, row)
		}
		return out
	case adapter.ConstructResult:
		out := QueryOutput{Form: "construct", Triples: make([]string, 0, len(r.Triples))}
		for _, t := range r.Triples {
			out.Triples = append(out.Triples, t.String())
		}
		return out
	}
	return QueryOutput{Form: fmt.Sprintf("%T", res)}
}

// printQueryText writes ASK as true or false, SELECT as tab-separated rows
// under a header and CONSTRUCT as N-Triples lines.
func printQueryText(f *OutputFormatter, out QueryOutput) {
	switch out.Form {
	case "ask":
		fmt.Fprintln(f.Writer, *out.Answer)
	case "select":
		header := make([]string, len(out.Vars))
		for i, v := range out.Vars {
			header[i] = "?" + v
		}
		bold.Fprintln(f.Writer, strings.Join(header, "\t"))
		for _, row := range out.Bindings {
			cells := make([]string, len(out.Vars))
			for i, v := range out.Vars {
				cells[i] = row[v]
			}
			fmt.Fprintln(f.Writer, strings.Join(cells, "\t"))
		}
	case "construct":
		for _, t := range out.Triples {
			fmt.Fprintln(f.Writer, t)
		}
	}
}
