package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	rdfgo "github.com/geoknoesis/rdf-go/rdf"

	"github.com/roach88/rdfstore/internal/ir"
)

// Document formats.
const (
	FormatNTriples = rdfgo.FormatNTriples
	FormatNQuads   = rdfgo.FormatNQuads
	FormatTurtle   = rdfgo.FormatTurtle
	FormatTriG     = rdfgo.FormatTriG
	FormatRDFXML   = rdfgo.FormatRDFXML
	FormatJSONLD   = rdfgo.FormatJSONLD
)

// Format names a document serialization.
type Format = rdfgo.Format

// ParseFormat resolves a format name, file extension or media type.
func ParseFormat(name string) (Format, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	switch n {
	case "n-triples", "nt11", "application/n-triples":
		return FormatNTriples, nil
	case "n-quads", "application/n-quads":
		return FormatNQuads, nil
	case "text/turtle":
		return FormatTurtle, nil
	case "application/trig":
		return FormatTriG, nil
	case "pretty-xml", "application/rdf+xml":
		return FormatRDFXML, nil
	case "application/ld+json":
		return FormatJSONLD, nil
	}
	if f, ok := rdfgo.ParseFormat(n); ok {
		return f, nil
	}
	return "", &EvalError{
		Code:    ErrCodeFormat,
		Message: "unknown document format",
		Details: map[string]string{"format": name},
	}
}

// IsQuadFormat reports whether f can carry named graphs.
func IsQuadFormat(f Format) bool {
	return f == FormatNQuads || f == FormatTriG
}

// ReadOptions configures ReadDocument.
type ReadOptions struct {
	Format Format

	// BaseIRI resolves relative IRIs in Turtle and TriG documents.
	BaseIRI string

	// Graph receives statements that carry no graph. nil means the
	// default graph.
	Graph ir.Term

	// Blanks renames document blank nodes. nil keeps document labels.
	Blanks BlankNodeGenerator
}

// ReadDocument parses a document and calls fn for every quad, in
// document order. Parsing stops at the first error from fn.
func ReadDocument(ctx context.Context, r io.Reader, opts ReadOptions, fn func(ir.Quad) error) error {
	if opts.BaseIRI != "" && (opts.Format == FormatTurtle || opts.Format == FormatTriG) {
		r = io.MultiReader(strings.NewReader("@base <"+opts.BaseIRI+"> .\n"), r)
	}

	reader, err := rdfgo.NewReader(r, opts.Format, rdfgo.OptContext(ctx))
	if err != nil {
		if errors.Is(err, rdfgo.ErrUnsupportedFormat) {
			return &EvalError{Code: ErrCodeFormat, Message: "unsupported document format", Details: map[string]string{"format": string(opts.Format)}}
		}
		return &EvalError{Code: ErrCodeLoad, Message: "cannot read document", Cause: err}
	}
	defer reader.Close()

	codec := newStatementCodec(opts.Blanks)
	for n := 1; ; n++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		st, err := reader.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return &EvalError{Code: ErrCodeLoad, Message: "cannot parse document", Cause: err}
		}
		q, err := codec.quad(st, opts.Graph)
		if err != nil {
			return &EvalError{
				Code:    ErrCodeLoad,
				Message: "invalid statement",
				Details: map[string]string{"statement": fmt.Sprint(n)},
				Cause:   err,
			}
		}
		if err := fn(q); err != nil {
			return err
		}
	}
}

// Prefix is a namespace binding used when writing Turtle and TriG.
type Prefix struct {
	Name string
	IRI  string
}

// WriteOptions configures WriteDocument.
type WriteOptions struct {
	Format   Format
	BaseIRI  string
	Prefixes []Prefix
}

// WriteDocument serializes quads.
//
// N-Triples and N-Quads use the canonical term encoding, so equal input
// produces byte-identical output. Triple formats drop the graph component.
func WriteDocument(w io.Writer, quads []ir.Quad, opts WriteOptions) error {
	switch opts.Format {
	case FormatNTriples, FormatNQuads:
		return writeLines(w, quads, opts.Format == FormatNQuads)
	case FormatTurtle, FormatTriG:
		tw := newTurtleWriter(w, opts)
		return tw.write(quads, opts.Format == FormatTriG)
	case FormatRDFXML, FormatJSONLD:
		return writeWithEncoder(w, quads, opts.Format)
	}
	return &EvalError{Code: ErrCodeFormat, Message: "unsupported document format", Details: map[string]string{"format": string(opts.Format)}}
}

func writeLines(w io.Writer, quads []ir.Quad, withGraph bool) error {
	for _, q := range quads {
		if !withGraph {
			q.Graph = ir.DefaultGraph{}
		}
		if _, err := io.WriteString(w, q.String()+"\n"); err != nil {
			return err
		}
	}
	return nil
}

func writeWithEncoder(w io.Writer, quads []ir.Quad, format Format) error {
	enc, err := rdfgo.NewWriter(w, format)
	if err != nil {
		return &EvalError{Code: ErrCodeFormat, Message: "cannot create writer", Cause: err}
	}
	for _, q := range quads {
		q.Graph = ir.DefaultGraph{}
		if err := enc.Write(statement(q)); err != nil {
			enc.Close()
			return fmt.Errorf("write %s: %w", format, err)
		}
	}
	if err := enc.Flush(); err != nil {
		enc.Close()
		return fmt.Errorf("flush %s: %w", format, err)
	}
	return enc.Close()
}
