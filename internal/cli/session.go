package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/rdfstore/internal/adapter"
	"github.com/roach88/rdfstore/internal/config"
	"github.com/roach88/rdfstore/internal/rdf"
)

func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   o.Verbose,
	}
}

// logger writes to the command's stderr, at debug level with --verbose.
func (o *RootOptions) logger(cmd *cobra.Command) *slog.Logger {
	level := slog.LevelInfo
	if o.Verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
}

// loadConfig reads --config, or returns the defaults without one. --db
// overrides the configured store path.
func (o *RootOptions) loadConfig() (*config.Config, error) {
	cfg := config.Default()
	if o.Config != "" {
		var err error
		if cfg, err = config.Load(o.Config); err != nil {
			return nil, err
		}
	}
	if o.Database != "" {
		cfg.Store.Path = o.Database
	}
	return cfg, nil
}

// openStore opens the configured store and binds the configured namespaces.
// The caller closes it.
func (o *RootOptions) openStore(cmd *cobra.Command, f *OutputFormatter) (*adapter.Store, *config.Config, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, nil, f.Fail(ExitCommandError, "failed to load configuration", err)
	}

	s := adapter.New(adapter.WithLogger(o.logger(cmd)), adapter.WithEngineOptions(cfg.EngineOptions()...))
	if err := s.Open(cfg.AdapterConfig()); err != nil {
		return nil, nil, f.Fail(ExitCommandError, "failed to open store", err)
	}
	cfg.Bind(s)

	if cfg.Store.Path == "" {
		f.VerboseLog("Using an in-memory store; changes are discarded on exit")
	} else {
		f.VerboseLog("Opened store %s", cfg.Store.Path)
	}
	return s, cfg, nil
}

func closeStore(s *adapter.Store, log *slog.Logger) {
	if err := s.Close(); err != nil {
		log.Error("error closing store", "error", err)
	}
}

// parseGraph reads a --graph value: "" selects nothing, "default" the
// default graph, anything else an IRI with or without angle brackets.
func parseGraph(s string) (*rdf.Graph, error) {
	s = strings.TrimSpace(s)
	switch s {
	case "":
		return nil, nil
	case "default":
		g := rdf.DefaultGraphHandle()
		return &g, nil
	}
	iri := strings.TrimSuffix(strings.TrimPrefix(s, "<"), ">")
	if iri == "" || strings.ContainsAny(iri, "<> \"") {
		return nil, fmt.Errorf("invalid graph IRI %q", s)
	}
	g := rdf.NamedGraph(iri)
	return &g, nil
}

// readText returns arg itself, the contents of the file named by @path,
// or standard input for "-".
func readText(arg string, stdin io.Reader) (string, error) {
	switch {
	case arg == "-":
		data, err := io.ReadAll(stdin)
		return string(data), err
	case strings.HasPrefix(arg, "@"):
		data, err := os.ReadFile(arg[1:])
		if err != nil {
			return "", err
		}
		return string(data), nil
	}
	return arg, nil
}
