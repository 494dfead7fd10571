// Package sparql parses the supported SPARQL 1.1 fragment into queryir.
//
// ParseQuery accepts SELECT, ASK and CONSTRUCT. ParseUpdate accepts the
// DATA forms, DELETE WHERE, DELETE/INSERT ... WHERE (with WITH), CLEAR,
// DROP and CREATE. Constructs outside the fragment such as FILTER,
// OPTIONAL, UNION or property paths fail with ErrCodeUnsupported so callers
// can tell "not supported" from "malformed".
//
// Prefixed names must be declared in the request's own prologue. Callers
// that manage namespaces elsewhere prepend PREFIX lines before parsing.
package sparql
