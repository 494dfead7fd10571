package harness

import (
	"context"
	"fmt"
	"strings"

	"github.com/roach88/rdfstore/internal/adapter"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for _, event := range e.Trace {
			fmt.Fprintf(&buf, "  [%d] %s %s\n", event.Seq, event.Op, event.Outcome)
		}
	}
	return buf.String()
}

// assertTraceCount checks that the operation ran exactly the given number of times.
func assertTraceCount(trace []TraceEvent, assertion Assertion) error {
	count := 0
	for _, event := range trace {
		if event.Op == assertion.Op {
			count++
		}
	}

	if count != assertion.Count {
		return &AssertionError{
			Type:     AssertTraceCount,
			Expected: fmt.Sprintf("%d occurrences of %s", assertion.Count, assertion.Op),
			Actual:   fmt.Sprintf("%d occurrences", count),
			Trace:    trace,
		}
	}
	return nil
}

// assertTraceOrder checks that operations first ran in the given order.
// Intervening operations are allowed.
func assertTraceOrder(trace []TraceEvent, assertion Assertion) error {
	positions := make(map[string]int)
	for i, event := range trace {
		if _, seen := positions[event.Op]; !seen {
			positions[event.Op] = i + 1
		}
	}

	for _, op := range assertion.Ops {
		if positions[op] == 0 {
			return &AssertionError{
				Type:     AssertTraceOrder,
				Expected: fmt.Sprintf("all operations present: %v", assertion.Ops),
				Actual:   fmt.Sprintf("missing operation: %s", op),
				Trace:    trace,
			}
		}
	}

	for i := 1; i < len(assertion.Ops); i++ {
		prev, curr := assertion.Ops[i-1], assertion.Ops[i]
		if positions[prev] >= positions[curr] {
			return &AssertionError{
				Type:     AssertTraceOrder,
				Expected: fmt.Sprintf("operations in order: %v", assertion.Ops),
				Actual: fmt.Sprintf("%s (pos %d) should be before %s (pos %d)",
					prev, positions[prev], curr, positions[curr]),
				Trace: trace,
			}
		}
	}
	return nil
}

// assertFinalCount checks the triple count of a graph, or the distinct
// count over every graph.
func assertFinalCount(actx *AssertionContext, assertion Assertion) error {
	g, err := actx.Terms.optionalGraph(assertion.Graph)
	if err != nil {
		return err
	}
	n, err := actx.Store.Len(actx.Ctx, g)
	if err != nil {
		return err
	}
	if n != assertion.Count {
		return &AssertionError{
			Type:     AssertFinalCount,
			Expected: fmt.Sprintf("%d triples in %s", assertion.Count, graphDesc(assertion.Graph)),
			Actual:   fmt.Sprintf("%d triples", n),
		}
	}
	return nil
}

// assertMatch checks whether any triple matches the pattern. want selects
// contains (true) or absent (false).
func assertMatch(actx *AssertionContext, assertion Assertion, want bool) error {
	p, err := actx.Terms.pattern(assertion.Subject, assertion.Predicate, assertion.Object)
	if err != nil {
		return err
	}
	g, err := actx.Terms.optionalGraph(assertion.Graph)
	if err != nil {
		return err
	}
	seq, err := actx.Store.Triples(actx.Ctx, p, g)
	if err != nil {
		return err
	}

	found := 0
	for range seq {
		found++
	}
	if (found > 0) == want {
		return nil
	}

	desc := fmt.Sprintf("(%s %s %s) in %s",
		orAny(assertion.Subject), orAny(assertion.Predicate), orAny(assertion.Object), graphDesc(assertion.Graph))
	if want {
		return &AssertionError{Type: AssertContains, Expected: "a triple matching " + desc, Actual: "no match"}
	}
	return &AssertionError{Type: AssertAbsent, Expected: "no triple matching " + desc, Actual: fmt.Sprintf("%d matches", found)}
}

func orAny(s string) string {
	if s == "" {
		return "*"
	}
	return s
}

func graphDesc(g string) string {
	if g == "" {
		return "every graph"
	}
	return g
}

// AssertionContext provides store access for assertions on the final state.
type AssertionContext struct {
	Store *adapter.Store
	Terms resolver
	Ctx   context.Context
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertTraceCount:
			err = assertTraceCount(result.Trace, assertion)
		case AssertTraceOrder:
			err = assertTraceOrder(result.Trace, assertion)
		case AssertFinalCount, AssertContains, AssertAbsent:
			if actx == nil || actx.Store == nil {
				err = fmt.Errorf("assertion[%d]: %s requires a store", i, assertion.Type)
				break
			}
			switch assertion.Type {
			case AssertFinalCount:
				err = assertFinalCount(actx, assertion)
			case AssertContains:
				err = assertMatch(actx, assertion, true)
			default:
				err = assertMatch(actx, assertion, false)
			}
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}
	return errors
}
