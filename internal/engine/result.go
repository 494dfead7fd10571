package engine

import "github.com/roach88/rdfstore/internal/ir"

// QueryResult is the outcome of a read query.
//
// This is a sealed interface - only Boolean, Solutions and Triples implement it.
type QueryResult interface {
	queryResult() // Marker method - seals interface to this package
}

// Boolean is the result of ASK.
type Boolean struct {
	Value bool
}

// Solutions is the result of SELECT.
//
// Rows[i][j] is the binding of Variables[j] in solution i, or nil when the
// variable is unbound in that solution.
type Solutions struct {
	Variables []string
	Rows      [][]ir.Term
}

// Triples is the result of CONSTRUCT. Duplicate triples are removed.
type Triples struct {
	Triples []ir.Triple
}

func (Boolean) queryResult()   {}
func (Solutions) queryResult() {}
func (Triples) queryResult()   {}

// Form names the result kind for logs and metrics.
func Form(r QueryResult) string {
	switch r.(type) {
	case Boolean:
		return "ask"
	case Solutions:
		return "select"
	case Triples:
		return "construct"
	}
	return "unknown"
}
