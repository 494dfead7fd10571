// Package harness runs conformance scenarios against the store facade.
//
// # Scenario Format
//
// Scenarios are YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	namespaces:
//	  ex: http://example.org/
//	steps:
//	  - add:
//	      graph: ex:g
//	      data: |
//	        ex:tarek ex:likes ex:pizza .
//	    expect:
//	      count: 1
//	      count_in: { ex:g: 1, default: 0 }
//	  - query:
//	      text: SELECT ?o WHERE { ex:tarek ex:likes ?o }
//	      scope: union
//	    expect:
//	      rows:
//	        - { o: ex:pizza }
//	assertions:
//	  - type: contains
//	    graph: ex:g
//	    subject: ex:tarek
//
// Every step performs exactly one of add, remove, add_graph, remove_graph,
// bind, update or query. Terms are written in N-Triples syntax or as
// prefixed names; "default" names the default graph wherever a graph is
// expected.
//
// # Expectations
//
// A step's expect clause may check count, count_in, contexts, ask, rows,
// triples and error. A step without an expect clause must succeed.
//
// # Assertion Types
//
//   - trace_count: an operation ran exactly N times
//   - trace_order: operations first ran in the given order
//   - final_count: the final triple count of a graph or of the whole store
//   - contains: some final triple matches a pattern
//   - absent: no final triple matches a pattern
//
// # Deterministic Testing
//
// Each scenario runs against a fresh ephemeral store whose blank nodes are
// minted as b1, b2, ... The trace and the sorted N-Quads dump of the final
// store are compared with golden files by RunWithGolden.
package harness
