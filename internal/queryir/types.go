package queryir

import (
	"strings"

	"github.com/roach88/rdfstore/internal/ir"
)

// HiddenVarPrefix marks variables introduced for WHERE-clause blank nodes.
// Such variables are never returned by SELECT *.
const HiddenVarPrefix = "_bnode_"

// NoLimit is the Limit/Offset value meaning "not set".
const NoLimit = -1

// Node is a position in a triple pattern: either a variable or a constant term.
//
// This is a sealed interface - only Var and Const implement it.
type Node interface {
	patternNode() // Marker method - seals interface to this package
}

// Var is a query variable, stored without its leading '?'.
type Var string

func (Var) patternNode() {}

// Hidden reports whether the variable stands in for a blank node.
func (v Var) Hidden() bool {
	return strings.HasPrefix(string(v), HiddenVarPrefix)
}

// Const is a constant term in a pattern.
type Const struct {
	Term ir.Term
}

func (Const) patternNode() {}

// TriplePattern is a triple whose positions may be variables.
type TriplePattern struct {
	Subject   Node
	Predicate Node
	Object    Node
}

// QuadPattern is a triple pattern with a graph position.
// A nil Graph means the default graph of the dataset.
type QuadPattern struct {
	TriplePattern
	Graph Node
}

// Block is a run of triple patterns evaluated against one graph.
//
// Semantics:
//
//	Graph == nil        patterns match the query's default graph (per scope)
//	Graph == Const{g}   GRAPH <g> { patterns }
//	Graph == Var("g")   GRAPH ?g { patterns }, ?g ranges over named graphs
type Block struct {
	Graph    Node
	Patterns []TriplePattern
}

// Values is an inline data table. A nil entry in a row is UNDEF.
type Values struct {
	Vars []Var
	Rows [][]ir.Term
}

// Where is a group graph pattern: the join of its blocks and its VALUES tables.
// A query-level VALUES clause trailing the query body lands here too.
type Where struct {
	Blocks []Block
	Values []Values
}

// Query is a parsed read query.
//
// This is a sealed interface - only Select, Ask and Construct implement it.
type Query interface {
	queryNode() // Marker method - seals interface to this package
}

// Select projects solutions.
//
// Exactly one of Star, Projection or Count describes the projection.
type Select struct {
	Distinct   bool
	Star       bool
	Projection []Var
	Count      *Count
	Where      Where
	Limit      int
	Offset     int
}

func (Select) queryNode() {}

// Count is the single aggregate SELECT supports: (COUNT(...) AS ?alias).
//
// Args is empty for COUNT(*), one variable for COUNT(?v), and three
// variables for COUNT(TRIPLE(?s, ?p, ?o)).
type Count struct {
	Distinct bool
	Args     []Var
	Alias    Var
}

// Ask tests whether the pattern has any solution.
type Ask struct {
	Where Where
}

func (Ask) queryNode() {}

// Construct instantiates a template for every solution.
type Construct struct {
	Template []TriplePattern
	Where    Where
	Limit    int
	Offset   int
}

func (Construct) queryNode() {}

// UpdateOp is one operation of an update request.
//
// This is a sealed interface - only the types below implement it.
type UpdateOp interface {
	updateNode() // Marker method - seals interface to this package
}

// InsertData adds ground quads.
type InsertData struct {
	Quads []ir.Quad
}

// DeleteData removes ground quads.
type DeleteData struct {
	Quads []ir.Quad
}

// DeleteWhere removes every instantiation of the patterns.
type DeleteWhere struct {
	Patterns []QuadPattern
}

// Modify is DELETE { } INSERT { } WHERE { }, optionally scoped by WITH.
// With, when set, is the default graph for Where and for templates
// that carry no GRAPH of their own.
type Modify struct {
	With   ir.Term
	Delete []QuadPattern
	Insert []QuadPattern
	Where  Where
}

// GraphRefKind selects which graphs CLEAR and DROP apply to.
type GraphRefKind int

const (
	RefGraph GraphRefKind = iota
	RefDefault
	RefNamed
	RefAll
)

// GraphRef is the target of CLEAR or DROP. Graph is set only for RefGraph.
type GraphRef struct {
	Kind  GraphRefKind
	Graph ir.Term
}

// Clear empties graphs but keeps named graphs declared.
type Clear struct {
	Target GraphRef
	Silent bool
}

// Drop removes graphs. The default graph is cleared instead.
type Drop struct {
	Target GraphRef
	Silent bool
}

// Create declares an empty named graph.
type Create struct {
	Graph  ir.Term
	Silent bool
}

func (InsertData) updateNode()  {}
func (DeleteData) updateNode()  {}
func (DeleteWhere) updateNode() {}
func (Modify) updateNode()      {}
func (Clear) updateNode()       {}
func (Drop) updateNode()        {}
func (Create) updateNode()      {}

// Vars returns the variables of the pattern in order of first appearance.
func (p TriplePattern) Vars() []Var {
	var vars []Var
	for _, n := range []Node{p.Subject, p.Predicate, p.Object} {
		if v, ok := n.(Var); ok {
			vars = appendUnique(vars, v)
		}
	}
	return vars
}

// Vars returns every variable the group can bind, in order of first
// appearance: graph variables, pattern variables, then VALUES variables.
func (w Where) Vars() []Var {
	var vars []Var
	for _, b := range w.Blocks {
		if v, ok := b.Graph.(Var); ok {
			vars = appendUnique(vars, v)
		}
		for _, p := range b.Patterns {
			for _, v := range p.Vars() {
				vars = appendUnique(vars, v)
			}
		}
	}
	for _, table := range w.Values {
		for _, v := range table.Vars {
			vars = appendUnique(vars, v)
		}
	}
	return vars
}

// VisibleVars is Vars without hidden blank-node variables.
func (w Where) VisibleVars() []Var {
	out := []Var{}
	for _, v := range w.Vars() {
		if !v.Hidden() {
			out = append(out, v)
		}
	}
	return out
}

func appendUnique(vars []Var, v Var) []Var {
	for _, existing := range vars {
		if existing == v {
			return vars
		}
	}
	return append(vars, v)
}
