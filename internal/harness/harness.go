package harness

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"slices"
	"strings"

	"github.com/roach88/rdfstore/internal/adapter"
	"github.com/roach88/rdfstore/internal/engine"
	"github.com/roach88/rdfstore/internal/rdf"
	"github.com/roach88/rdfstore/internal/rdfio"
	"github.com/roach88/rdfstore/internal/testutil"
)

// Harness executes the steps of one scenario against its own store.
type Harness struct {
	store  *adapter.Store
	blanks *testutil.BlankMinter
	terms  resolver
	logger *slog.Logger
	seq    int64
}

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh ephemeral store whose blank nodes are
// labelled b1, b2, ... in load order, so traces are reproducible.
// Execution flow:
// 1. Open the store and bind the scenario namespaces
// 2. Execute the steps, checking each expect clause
// 3. Dump the final store
// 4. Evaluate the assertions
func Run(scenario *Scenario) (*Result, error) {
	return RunWithLogger(scenario, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// RunWithLogger is Run with step logging sent to logger.
func RunWithLogger(scenario *Scenario, logger *slog.Logger) (*Result, error) {
	blanks := testutil.NewBlankMinter("b")
	st := adapter.New(
		adapter.WithLogger(logger),
		adapter.WithEngineOptions(engine.WithLogger(logger), engine.WithBlankNodeGenerator(blanks)),
	)
	if err := st.Open(adapter.Config{}); err != nil {
		return nil, fmt.Errorf("failed to open ephemeral store: %w", err)
	}
	defer st.Close()

	for _, prefix := range slices.Sorted(maps.Keys(scenario.Namespaces)) {
		st.Bind(prefix, scenario.Namespaces[prefix], false)
	}

	h := &Harness{
		store:  st,
		blanks: blanks,
		terms:  resolver{namespaceFor: st.NamespaceFor},
		logger: logger,
	}

	ctx := context.Background()
	result := NewResult()
	for i, step := range scenario.Steps {
		h.executeStep(ctx, i, step, result)
	}

	dump, err := h.dump(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to dump final state: %w", err)
	}
	result.Dump = dump

	actx := &AssertionContext{Store: st, Terms: h.terms, Ctx: ctx}
	for _, msg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(msg)
	}
	return result, nil
}

func (h *Harness) executeStep(ctx context.Context, i int, step Step, result *Result) {
	h.seq++
	event := TraceEvent{Seq: h.seq, Op: step.Op(), Graph: stepGraph(step), Outcome: OutcomeOK}

	answer, err := h.perform(ctx, step)
	if err != nil {
		event.Outcome = OutcomeError
	} else if answer != nil {
		event.Result = traceAnswer(answer)
	}
	result.AddTrace(event)

	h.logger.Info("step completed",
		"step", i,
		"op", event.Op,
		"outcome", event.Outcome,
		"blank_nodes", h.blanks.Current(),
	)

	for _, msg := range h.check(ctx, step.Expect, answer, err) {
		result.AddError(fmt.Sprintf("steps[%d] %s: %s", i, event.Op, msg))
	}
}

// perform runs the step operation. Only query steps return an answer.
func (h *Harness) perform(ctx context.Context, step Step) (adapter.Result, error) {
	switch step.Op() {
	case OpAdd:
		return nil, h.add(ctx, step.Add)

	case OpRemove:
		p, err := h.terms.pattern(step.Remove.Subject, step.Remove.Predicate, step.Remove.Object)
		if err != nil {
			return nil, err
		}
		g, err := h.terms.optionalGraph(step.Remove.Graph)
		if err != nil {
			return nil, err
		}
		return nil, h.store.Remove(ctx, p, g)

	case OpAddGraph:
		g, err := h.terms.graph(step.AddGraph)
		if err != nil {
			return nil, err
		}
		return nil, h.store.AddGraph(ctx, g)

	case OpRemoveGraph:
		g, err := h.terms.graph(step.RemoveGraph)
		if err != nil {
			return nil, err
		}
		return nil, h.store.RemoveGraph(ctx, g)

	case OpBind:
		h.store.Bind(step.Bind.Prefix, step.Bind.Namespace, step.Bind.Override)
		return nil, nil

	case OpUpdate:
		return nil, h.store.Update(ctx, step.Update, adapter.QueryOptions{})

	case OpQuery:
		opts, err := h.queryOptions(step.Query)
		if err != nil {
			return nil, err
		}
		return h.store.Query(ctx, step.Query.Text, opts)
	}
	return nil, fmt.Errorf("step names no operation")
}

func (h *Harness) add(ctx context.Context, step *DataStep) error {
	name := step.Format
	if name == "" {
		name = "turtle"
	}
	format, err := engine.ParseFormat(name)
	if err != nil {
		return err
	}

	graph := rdf.DefaultGraphHandle()
	if step.Graph != "" {
		if graph, err = h.terms.graph(step.Graph); err != nil {
			return err
		}
	}

	data := step.Data
	if format == engine.FormatTurtle || format == engine.FormatTriG {
		var b strings.Builder
		for _, ns := range h.store.Namespaces() {
			fmt.Fprintf(&b, "@prefix %s: <%s> .\n", ns.Prefix, ns.Namespace)
		}
		data = b.String() + data
	}

	return rdfio.Parse(ctx, strings.NewReader(data), h.store, rdfio.ParseOptions{
		Format: name,
		Graph:  graph,
	})
}

func (h *Harness) queryOptions(q *QueryStep) (adapter.QueryOptions, error) {
	var opts adapter.QueryOptions
	switch strings.TrimSpace(q.Scope) {
	case "", defaultGraphName:
		opts.Scope = adapter.DefaultScope()
	case "union":
		opts.Scope = adapter.UnionScope()
	default:
		g, err := h.terms.graph(q.Scope)
		if err != nil {
			return opts, err
		}
		opts.Scope = adapter.GraphScope(g)
	}

	if len(q.Bindings) > 0 {
		opts.InitBindings = make(map[string]rdf.Term, len(q.Bindings))
		for name, text := range q.Bindings {
			t, err := h.terms.term(text)
			if err != nil {
				return opts, fmt.Errorf("binding %s: %w", name, err)
			}
			opts.InitBindings[name] = t
		}
	}
	return opts, nil
}

// check compares the step outcome with its expect clause.
func (h *Harness) check(ctx context.Context, e *Expect, answer adapter.Result, stepErr error) []string {
	if e == nil {
		if stepErr != nil {
			return []string{fmt.Sprintf("unexpected error: %v", stepErr)}
		}
		return nil
	}

	var errs []string
	switch {
	case e.Error != "" && stepErr == nil:
		return []string{fmt.Sprintf("expected error containing %q, got success", e.Error)}
	case e.Error != "" && !strings.Contains(stepErr.Error(), e.Error):
		return []string{fmt.Sprintf("expected error containing %q, got %v", e.Error, stepErr)}
	case e.Error == "" && stepErr != nil:
		return []string{fmt.Sprintf("unexpected error: %v", stepErr)}
	}

	if e.Count != nil {
		n, err := h.store.Len(ctx, nil)
		if err != nil {
			errs = append(errs, fmt.Sprintf("count: %v", err))
		} else if n != *e.Count {
			errs = append(errs, fmt.Sprintf("count: expected %d, got %d", *e.Count, n))
		}
	}

	for _, name := range slices.Sorted(maps.Keys(e.CountIn)) {
		g, err := h.terms.graph(name)
		if err != nil {
			errs = append(errs, fmt.Sprintf("count_in %s: %v", name, err))
			continue
		}
		n, err := h.store.Len(ctx, &g)
		if err != nil {
			errs = append(errs, fmt.Sprintf("count_in %s: %v", name, err))
		} else if n != e.CountIn[name] {
			errs = append(errs, fmt.Sprintf("count_in %s: expected %d, got %d", name, e.CountIn[name], n))
		}
	}

	if e.Contexts != nil {
		errs = append(errs, h.checkContexts(ctx, e.Contexts)...)
	}

	if e.Error != "" {
		return errs
	}

	if e.Ask != nil {
		ask, ok := answer.(adapter.AskResult)
		switch {
		case !ok:
			errs = append(errs, fmt.Sprintf("ask: expected an ASK answer, got %T", answer))
		case ask.Answer != *e.Ask:
			errs = append(errs, fmt.Sprintf("ask: expected %t, got %t", *e.Ask, ask.Answer))
		}
	}

	if e.Rows != nil {
		errs = append(errs, h.checkRows(e.Rows, answer)...)
	}

	if e.Triples != nil {
		errs = append(errs, h.checkTriples(e.Triples, answer)...)
	}
	return errs
}

func (h *Harness) checkContexts(ctx context.Context, expected []string) []string {
	want := make([]string, 0, len(expected))
	for _, name := range expected {
		g, err := h.terms.graph(name)
		if err != nil {
			return []string{fmt.Sprintf("contexts: %v", err)}
		}
		want = append(want, g.String())
	}

	seq, err := h.store.Contexts(ctx, nil)
	if err != nil {
		return []string{fmt.Sprintf("contexts: %v", err)}
	}
	var got []string
	for g := range seq {
		got = append(got, g.String())
	}

	slices.Sort(want)
	slices.Sort(got)
	if !slices.Equal(want, got) {
		return []string{fmt.Sprintf("contexts: expected %v, got %v", want, got)}
	}
	return nil
}

func (h *Harness) checkRows(expected []map[string]string, answer adapter.Result) []string {
	sel, ok := answer.(adapter.SelectResult)
	if !ok {
		return []string{fmt.Sprintf("rows: expected a SELECT answer, got %T", answer)}
	}

	want := make([]string, 0, len(expected))
	for _, r := range expected {
		resolved := make(map[string]string, len(r))
		for name, text := range r {
			t, err := h.terms.term(text)
			if err != nil || t == nil {
				return []string{fmt.Sprintf("rows: variable %s: bad term %q", name, text)}
			}
			resolved[name] = t.N3()
		}
		want = append(want, rowKey(resolved))
	}
	got := make([]string, 0, len(sel.Bindings))
	for _, b := range sel.Bindings {
		got = append(got, rowKey(row(b)))
	}

	slices.Sort(want)
	slices.Sort(got)
	if !slices.Equal(want, got) {
		return []string{fmt.Sprintf("rows: expected %q, got %q", want, got)}
	}
	return nil
}

func (h *Harness) checkTriples(expected []string, answer adapter.Result) []string {
	con, ok := answer.(adapter.ConstructResult)
	if !ok {
		return []string{fmt.Sprintf("triples: expected a CONSTRUCT answer, got %T", answer)}
	}

	want := make([]string, 0, len(expected))
	for _, text := range expected {
		parts := splitTerms(text)
		if len(parts) != 3 {
			return []string{fmt.Sprintf("triples: %q is not three terms", text)}
		}
		p, err := h.terms.pattern(parts[0], parts[1], parts[2])
		if err != nil {
			return []string{fmt.Sprintf("triples: %v", err)}
		}
		want = append(want, tripleText(rdf.NewTriple(p.Subject, p.Predicate, p.Object)))
	}
	got := make([]string, 0, len(con.Triples))
	for _, t := range con.Triples {
		got = append(got, tripleText(t))
	}

	slices.Sort(want)
	slices.Sort(got)
	if !slices.Equal(want, got) {
		return []string{fmt.Sprintf("triples: expected %q, got %q", want, got)}
	}
	return nil
}

func (h *Harness) dump(ctx context.Context) ([]string, error) {
	var buf bytes.Buffer
	if err := h.store.Dump(ctx, &buf, adapter.DumpOptions{Format: engine.FormatNQuads}); err != nil {
		return nil, err
	}
	lines := []string{}
	for line := range strings.Lines(buf.String()) {
		if line = strings.TrimRight(line, "\n"); line != "" {
			lines = append(lines, line)
		}
	}
	return lines, nil
}

// traceAnswer renders a query answer deterministically.
func traceAnswer(answer adapter.Result) any {
	switch r := answer.(type) {
	case adapter.AskResult:
		return r.Answer
	case adapter.SelectResult:
		rows := make([]map[string]string, 0, len(r.Bindings))
		for _, b := range r.Bindings {
			rows = append(rows, row(b))
		}
		sortRows(rows)
		return rows
	case adapter.ConstructResult:
		triples := make([]string, 0, len(r.Triples))
		for _, t := range r.Triples {
			triples = append(triples, tripleText(t))
		}
		slices.Sort(triples)
		return triples
	}
	return nil
}

func stepGraph(step Step) string {
	switch {
	case step.Add != nil:
		return step.Add.Graph
	case step.Remove != nil:
		return step.Remove.Graph
	case step.AddGraph != "":
		return step.AddGraph
	case step.RemoveGraph != "":
		return step.RemoveGraph
	}
	return ""
}

// splitTerms splits "s p o" on whitespace outside quoted literals.
func splitTerms(s string) []string {
	var parts []string
	var cur strings.Builder
	inQuote, escaped := false, false
	for _, r := range s {
		switch {
		case escaped:
			escaped = false
		case inQuote && r == '\\':
			escaped = true
		case r == '"':
			inQuote = !inQuote
		case !inQuote && (r == ' ' || r == '\t'):
			if cur.Len() > 0 {
				parts = append(parts, cur.String())
				cur.Reset()
			}
			continue
		}
		cur.WriteRune(r)
	}
	if cur.Len() > 0 {
		parts = append(parts, cur.String())
	}
	return parts
}
