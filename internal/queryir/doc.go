// Package queryir provides the algebra that SPARQL queries and updates are
// parsed into before evaluation.
//
// ARCHITECTURE:
//
//	[SPARQL text] → sparql.Parse → [queryir] → querysql.Compile → [SQL over quads]
//	                                          → engine (VALUES join, templates, updates)
//
// The algebra covers a deliberately small fragment of SPARQL 1.1:
//   - Basic graph patterns, optionally wrapped in GRAPH blocks
//   - An inline VALUES table joined with the pattern solutions
//   - SELECT (with DISTINCT and a single COUNT aggregate), ASK, CONSTRUCT
//   - LIMIT and OFFSET
//   - INSERT/DELETE DATA, DELETE WHERE, DELETE/INSERT ... WHERE,
//     CLEAR, DROP and CREATE
//
// Everything else is rejected by the parser rather than approximated.
//
// SEALED INTERFACES:
//
// Query, UpdateOp and Node are sealed interfaces using the marker method
// pattern. Only types in this package implement them, so the compiler and
// engine can switch exhaustively:
//
//	switch q := query.(type) {
//	case Select:
//	case Ask:
//	case Construct:
//	}
//
// BLANK NODES:
//
// A blank node label in a WHERE pattern behaves like a variable that is never
// projected. The parser rewrites it to a Var whose name starts with
// HiddenVarPrefix. Blank nodes in INSERT templates stay constants and are
// renamed per solution by the engine.
package queryir
