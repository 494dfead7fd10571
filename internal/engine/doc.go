// Package engine is the quad engine behind the store facade.
//
// An Engine wraps one SQLite quad store and adds what the store alone
// does not do: reference counting for handles shared between facades,
// SPARQL query and update evaluation, and document load and dump.
//
// ARCHITECTURE:
//
// Query evaluation:
//  1. sparql parses the text into queryir values
//  2. queryir.Validate rejects requests that cannot run
//  3. querysql compiles the algebra into one parameterized SQL statement
//  4. the engine decodes the rows into Boolean, Solutions or Triples
//
// Joins, VALUES, DISTINCT, COUNT and LIMIT/OFFSET all run inside SQLite.
// Only CONSTRUCT templates and update templates are instantiated in Go.
//
// Updates run in one transaction per request. A Modify operation
// computes every solution of its WHERE clause before deleting or
// inserting anything.
//
// CRITICAL PATTERNS:
//
// Determinism:
// Every multi-row SQL statement ends in ORDER BY ... COLLATE BINARY over
// canonical term encodings, so equal stores give equal results in equal
// order. Blank node labels come from a BlankNodeGenerator; tests inject a
// SequenceGenerator.
//
// Bounded materialization:
// Updates and CONSTRUCT hold their solutions in memory and abort with a
// SolutionLimitError beyond WithMaxSolutions.
package engine
