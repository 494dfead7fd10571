package cli

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/rdfstore/internal/metrics"
	"github.com/roach88/rdfstore/internal/rdf"
)

// StatsResult summarizes a store.
type StatsResult struct {
	Triples        int              `json:"triples"`
	DefaultTriples int              `json:"default_triples"`
	NamedGraphs    int              `json:"named_graphs"`
	Namespaces     int              `json:"namespaces"`
	Metrics        []metrics.Sample `json:"metrics"`
}

// NewStatsCommand creates the stats command.
func NewStatsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show store statistics",
		Long: `Show triple and graph counts for the store, followed by the metrics
recorded by this process.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStats(rootOpts, cmd)
		},
	}

	return cmd
}

func runStats(opts *RootOptions, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	s, _, err := opts.openStore(cmd, f)
	if err != nil {
		return err
	}
	defer closeStore(s, opts.logger(cmd))

	ctx := cmd.Context()
	var result StatsResult
	if result.Triples, err = s.Len(ctx, nil); err != nil {
		return f.Fail(ExitFailure, "failed to count triples", err)
	}
	def := rdf.DefaultGraphHandle()
	if result.DefaultTriples, err = s.Len(ctx, &def); err != nil {
		return f.Fail(ExitFailure, "failed to count triples", err)
	}
	graphs, err := s.Contexts(ctx, nil)
	if err != nil {
		return f.Fail(ExitFailure, "failed to list graphs", err)
	}
	for range graphs {
		result.NamedGraphs++
	}
	result.Namespaces = len(s.Namespaces())
	if result.Metrics, err = metrics.Snapshot(); err != nil {
		return f.Fail(ExitFailure, "failed to gather metrics", err)
	}

	if opts.Format == "json" {
		return f.Success(result)
	}

	f.Header("Store")
	fmt.Fprintf(f.Writer, "  triples:         %d\n", result.Triples)
	fmt.Fprintf(f.Writer, "  default graph:   %d\n", result.DefaultTriples)
	fmt.Fprintf(f.Writer, "  named graphs:    %d\n", result.NamedGraphs)
	fmt.Fprintf(f.Writer, "  namespaces:      %d\n", result.Namespaces)
	f.Header("Metrics")
	for _, m := range result.Metrics {
		fmt.Fprintf(f.Writer, "  %s%s %g\n", m.Name, labelText(m.Labels), m.Value)
	}
	return nil
}

func labelText(labels map[string]string) string {
	if len(labels) == 0 {
		return ""
	}
	parts := make([]string, 0, len(labels))
	for _, k := range slices.Sorted(maps.Keys(labels)) {
		parts = append(parts, fmt.Sprintf("%s=%q", k, labels[k]))
	}
	return "{" + strings.Join(parts, ",") + "}"
}
