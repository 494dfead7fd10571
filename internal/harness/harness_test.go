package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runSource(t *testing.T, src string) *Result {
	t.Helper()
	s, err := ParseScenario([]byte(src))
	require.NoError(t, err)
	result, err := Run(s)
	require.NoError(t, err)
	return result
}

func TestRun_PassingSteps(t *testing.T) {
	result := runSource(t, `
name: passing
description: add, count and ask
namespaces:
  ex: http://example.org/
steps:
  - add:
      data: "ex:a ex:p ex:b ."
    expect:
      count: 1
      count_in: { default: 1 }
      contexts: []
  - query:
      text: "ASK { ex:a ex:p ex:b }"
    expect:
      ask: true
`)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Empty(t, result.Errors)
	require.Len(t, result.Trace, 2)
	assert.Equal(t, TraceEvent{Seq: 1, Op: OpAdd, Outcome: OutcomeOK}, result.Trace[0])
	assert.Equal(t, TraceEvent{Seq: 2, Op: OpQuery, Outcome: OutcomeOK, Result: true}, result.Trace[1])
	assert.Equal(t, []string{"<http://example.org/a> <http://example.org/p> <http://example.org/b> ."}, result.Dump)
}

func TestRun_ExpectationMismatch(t *testing.T) {
	result := runSource(t, `
name: mismatch
description: wrong count
namespaces:
  ex: http://example.org/
steps:
  - add:
      data: "ex:a ex:p ex:b ."
    expect:
      count: 2
`)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "steps[0] add: count: expected 2, got 1", result.Errors[0])
}

func TestRun_UnexpectedError(t *testing.T) {
	result := runSource(t, `
name: unexpected
description: a malformed update
steps:
  - update: "INSERT NOTHING"
`)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "steps[0] update: unexpected error")
	assert.Equal(t, OutcomeError, result.Trace[0].Outcome)
}

func TestRun_ExpectedError(t *testing.T) {
	result := runSource(t, `
name: expected
description: errors are matched by substring and state is still checked
namespaces:
  ex: http://example.org/
steps:
  - add:
      format: nt
      data: |
        <http://example.org/a> <http://example.org/p> <http://example.org/b> .
        <http://example.org/a> <http://example.org/p> .
    expect:
      error: LOAD_FAILED
      count: 0
  - update: "LOAD <http://example.org/remote.ttl>"
    expect:
      error: UNSUPPORTED
  - update: "CLEAR ALL"
    expect:
      error: anything
`)
	assert.False(t, result.Pass)
	assert.Equal(t, []string{`steps[2] update: expected error containing "anything", got success`}, result.Errors)
}

func TestRun_UnboundPrefix(t *testing.T) {
	result := runSource(t, `
name: unbound
description: prefixed names need a binding
steps:
  - add_graph: ex:g
`)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], `unbound prefix "ex"`)
}

func TestRun_BindStep(t *testing.T) {
	result := runSource(t, `
name: bind
description: bound prefixes are usable by later steps
steps:
  - bind: { prefix: ex, namespace: "http://example.org/" }
  - add_graph: ex:g
    expect:
      contexts: ["<http://example.org/g>"]
`)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestRun_BlankNodesAreMintedInOrder(t *testing.T) {
	result := runSource(t, `
name: blanks
description: document blank nodes become b1, b2
namespaces:
  ex: http://example.org/
steps:
  - add:
      data: |
        _:x ex:knows _:y .
`)
	require.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Equal(t, []string{"_:b1 <http://example.org/knows> _:b2 ."}, result.Dump)
}

func TestRun_RowsAndTriples(t *testing.T) {
	result := runSource(t, `
name: rows
description: rows and triples are compared as sets
namespaces:
  ex: http://example.org/
steps:
  - add:
      data: "ex:a ex:p ex:b, ex:c ."
  - query:
      text: "SELECT ?o WHERE { ex:a ex:p ?o }"
    expect:
      rows: [{ o: ex:c }, { o: ex:b }]
  - query:
      text: "CONSTRUCT { ?o ex:q ex:a } WHERE { ex:a ex:p ?o }"
    expect:
      triples: ["ex:b ex:q ex:a"]
`)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "steps[2] query: triples: expected")

	assert.Equal(t, []map[string]string{
		{"o": "<http://example.org/b>"},
		{"o": "<http://example.org/c>"},
	}, result.Trace[1].Result)
	assert.Equal(t, []string{
		"<http://example.org/b> <http://example.org/q> <http://example.org/a>",
		"<http://example.org/c> <http://example.org/q> <http://example.org/a>",
	}, result.Trace[2].Result)
}

func TestSplitTerms(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"ex:a ex:p ex:b", []string{"ex:a", "ex:p", "ex:b"}},
		{`ex:a  ex:p "two words"@en`, []string{"ex:a", "ex:p", `"two words"@en`}},
		{`ex:a ex:p "say \"hi there\""`, []string{"ex:a", "ex:p", `"say \"hi there\""`}},
		{"", nil},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, splitTerms(tt.in), tt.in)
	}
}
