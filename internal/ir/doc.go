// Package ir provides the quad engine's own term model.
//
// This package contains type definitions and their canonical encoding only.
// The storage, query and engine packages import ir; ir imports nothing
// internal. This keeps the engine's term model the foundational layer of the
// backend with no circular dependencies.
//
// Key design constraints:
//   - Every Literal carries a datatype. Plain literals use xsd:string and
//     language-tagged literals use rdf:langString.
//   - Language tags are stored lowercase.
//   - Lexical forms are stored exactly as given, without Unicode normalization.
//   - The canonical encoding is N-Triples term syntax; the default graph
//     encodes as the empty string so it sorts before every named graph.
package ir
