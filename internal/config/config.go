// Package config loads store configuration written in CUE.
//
// A configuration file looks like:
//
//	store: {
//		path:                "data/store.db"
//		union_default_graph: true
//	}
//	namespaces: {
//		ex:   "http://example.com/"
//		foaf: "http://xmlns.com/foaf/0.1/"
//	}
//
// Every field is optional. An absent or empty path selects an ephemeral
// in-memory store.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/load"
	"cuelang.org/go/cue/token"

	"github.com/roach88/rdfstore/internal/adapter"
	"github.com/roach88/rdfstore/internal/engine"
	"github.com/roach88/rdfstore/internal/namespace"
)

//go:embed schema.cue
var schemaSource string

// Error codes reported by Load.
const (
	ErrCodeNotFound    = "E005" // path not found
	ErrCodeLoadFailed  = "E004" // CUE load failed
	ErrCodeBuildFailed = "E006" // CUE build failed
	ErrCodeInvalid     = "E201" // value does not match the schema
)

// LoadError reports a configuration that cannot be used.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsLoadError reports whether err is a *LoadError.
func IsLoadError(err error) bool {
	var le *LoadError
	return errors.As(err, &le)
}

// StoreConfig is the store section.
type StoreConfig struct {
	Path              string `json:"path"`
	UnionDefaultGraph bool   `json:"union_default_graph"`
	MaxSolutions      int    `json:"max_solutions"`
	BatchSize         int    `json:"batch_size"`
}

// Config is a loaded configuration.
type Config struct {
	Store StoreConfig

	// Namespaces in declaration order.
	Namespaces []namespace.Binding
}

// Default returns the configuration used without a file: an ephemeral
// store with no namespaces.
func Default() *Config {
	return &Config{}
}

// Load reads a configuration file, or every .cue file of a directory.
func Load(path string) (*Config, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("config not found: %s", path)}
	}

	ctx := cuecontext.New()
	var value cue.Value
	if info.IsDir() {
		instances := load.Instances([]string{"."}, &load.Config{Dir: path})
		if len(instances) == 0 {
			return nil, &LoadError{Code: ErrCodeLoadFailed, Message: "no CUE instances loaded"}
		}
		if inst := instances[0]; inst.Err != nil {
			return nil, &LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("loading CUE files: %v", inst.Err)}
		}
		value = ctx.BuildInstance(instances[0])
	} else {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, &LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("reading %s: %v", path, err)}
		}
		value = ctx.CompileBytes(data, cue.Filename(path))
	}
	if err := value.Err(); err != nil {
		return nil, fromCUEError(ErrCodeBuildFailed, err)
	}
	return decode(ctx, value)
}

// Parse reads a configuration from CUE source.
func Parse(src string) (*Config, error) {
	ctx := cuecontext.New()
	value := ctx.CompileString(src, cue.Filename("config.cue"))
	if err := value.Err(); err != nil {
		return nil, fromCUEError(ErrCodeBuildFailed, err)
	}
	return decode(ctx, value)
}

func decode(ctx *cue.Context, value cue.Value) (*Config, error) {
	schema := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, fromCUEError(ErrCodeBuildFailed, err)
	}
	unified := schema.LookupPath(cue.ParsePath("#Config")).Unify(value)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return nil, fromCUEError(ErrCodeInvalid, err)
	}

	cfg := &Config{}
	if store := unified.LookupPath(cue.ParsePath("store")); store.Exists() {
		if err := store.Decode(&cfg.Store); err != nil {
			return nil, fromCUEError(ErrCodeInvalid, err)
		}
	}

	if ns := unified.LookupPath(cue.ParsePath("namespaces")); ns.Exists() {
		iter, err := ns.Fields()
		if err != nil {
			return nil, fromCUEError(ErrCodeInvalid, err)
		}
		for iter.Next() {
			iri, err := iter.Value().String()
			if err != nil {
				return nil, fromCUEError(ErrCodeInvalid, err)
			}
			cfg.Namespaces = append(cfg.Namespaces, namespace.Binding{Prefix: iter.Label(), Namespace: iri})
		}
	}
	return cfg, nil
}

func fromCUEError(code string, err error) *LoadError {
	le := &LoadError{Code: code, Message: err.Error()}
	if errs := cueerrors.Errors(err); len(errs) > 0 {
		le.Message = errs[0].Error()
		le.Pos = errs[0].Position()
	}
	return le
}

// AdapterConfig returns the facade configuration.
func (c *Config) AdapterConfig() adapter.Config {
	return adapter.Config{Path: c.Store.Path}
}

// EngineOptions returns the engine options the configuration sets.
func (c *Config) EngineOptions() []engine.Option {
	var opts []engine.Option
	if c.Store.MaxSolutions > 0 {
		opts = append(opts, engine.WithMaxSolutions(c.Store.MaxSolutions))
	}
	return opts
}

// Scope returns the query scope the configuration selects.
func (c *Config) Scope() adapter.Scope {
	if c.Store.UnionDefaultGraph {
		return adapter.UnionScope()
	}
	return adapter.DefaultScope()
}

// Bind adds the configured namespaces to s without overriding existing
// bindings.
func (c *Config) Bind(s *adapter.Store) {
	for _, b := range c.Namespaces {
		s.Bind(b.Prefix, b.Namespace, false)
	}
}
