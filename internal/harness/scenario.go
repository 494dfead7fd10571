package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Scenario is a conformance scenario run against a fresh ephemeral store.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Namespaces are bound before the first step, in key order. They are
	// available to every term written in the scenario and to Turtle data.
	Namespaces map[string]string `yaml:"namespaces,omitempty"`

	// Steps run in order. Each step performs exactly one operation.
	Steps []Step `yaml:"steps"`

	// Assertions validate the trace and the final store.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// Step is one store operation with an optional expectation.
//
// Terms are written in N-Triples syntax or as prefixed names. The graph
// name "default" denotes the default graph.
type Step struct {
	Add         *DataStep    `yaml:"add,omitempty"`
	Remove      *PatternStep `yaml:"remove,omitempty"`
	AddGraph    string       `yaml:"add_graph,omitempty"`
	RemoveGraph string       `yaml:"remove_graph,omitempty"`
	Bind        *BindStep    `yaml:"bind,omitempty"`
	Update      string       `yaml:"update,omitempty"`
	Query       *QueryStep   `yaml:"query,omitempty"`

	Expect *Expect `yaml:"expect,omitempty"`
}

// DataStep loads a document.
type DataStep struct {
	// Graph receives the statements. Empty means the default graph.
	Graph string `yaml:"graph,omitempty"`

	// Format defaults to turtle. Turtle and TriG data see the scenario
	// namespaces as @prefix declarations.
	Format string `yaml:"format,omitempty"`

	Data string `yaml:"data"`
}

// PatternStep names a triple pattern. Empty positions are wildcards.
type PatternStep struct {
	// Graph restricts the pattern to one graph. Empty means every graph.
	Graph     string `yaml:"graph,omitempty"`
	Subject   string `yaml:"subject,omitempty"`
	Predicate string `yaml:"predicate,omitempty"`
	Object    string `yaml:"object,omitempty"`
}

// BindStep binds a prefix.
type BindStep struct {
	Prefix    string `yaml:"prefix"`
	Namespace string `yaml:"namespace"`
	Override  bool   `yaml:"override,omitempty"`
}

// QueryStep evaluates a read query.
type QueryStep struct {
	Text string `yaml:"text"`

	// Scope is "union", "default" (or empty), or a graph name.
	Scope string `yaml:"scope,omitempty"`

	// Bindings fix variables to terms.
	Bindings map[string]string `yaml:"bindings,omitempty"`
}

// Expect checks the outcome of a step. Only the fields present are checked.
type Expect struct {
	// Count is the number of distinct triples across every graph.
	Count *int `yaml:"count,omitempty"`

	// CountIn maps graph names to their triple counts.
	CountIn map[string]int `yaml:"count_in,omitempty"`

	// Contexts lists the named graphs, in any order.
	Contexts []string `yaml:"contexts,omitempty"`

	// Ask is the answer of an ASK query.
	Ask *bool `yaml:"ask,omitempty"`

	// Rows are the solutions of a SELECT query, in any order. A variable
	// absent from a row must be unbound in the matching solution.
	Rows []map[string]string `yaml:"rows,omitempty"`

	// Triples are the result of a CONSTRUCT query, in any order, each
	// written as "s p o".
	Triples []string `yaml:"triples,omitempty"`

	// Error is a substring of the error the step must fail with.
	Error string `yaml:"error,omitempty"`
}

// Assertion validates the trace or the final store.
type Assertion struct {
	// Type is one of the Assert constants.
	Type string `yaml:"type"`

	// Op is the step operation (used by trace_count).
	Op string `yaml:"op,omitempty"`

	// Ops is the expected operation order (used by trace_order).
	Ops []string `yaml:"ops,omitempty"`

	// Count is the expected number (used by trace_count and final_count).
	Count int `yaml:"count,omitempty"`

	// Graph restricts final_count, contains and absent. Empty means every
	// graph.
	Graph string `yaml:"graph,omitempty"`

	Subject   string `yaml:"subject,omitempty"`
	Predicate string `yaml:"predicate,omitempty"`
	Object    string `yaml:"object,omitempty"`
}

// Assertion type constants.
const (
	AssertTraceCount = "trace_count"
	AssertTraceOrder = "trace_order"
	AssertFinalCount = "final_count"
	AssertContains   = "contains"
	AssertAbsent     = "absent"
)

// Step operation names, as recorded in the trace.
const (
	OpAdd         = "add"
	OpRemove      = "remove"
	OpAddGraph    = "add_graph"
	OpRemoveGraph = "remove_graph"
	OpBind        = "bind"
	OpUpdate      = "update"
	OpQuery       = "query"
)

// Op returns the operation the step performs, or "" when it names none.
func (s Step) Op() string {
	ops := s.ops()
	if len(ops) != 1 {
		return ""
	}
	return ops[0]
}

func (s Step) ops() []string {
	var ops []string
	if s.Add != nil {
		ops = append(ops, OpAdd)
	}
	if s.Remove != nil {
		ops = append(ops, OpRemove)
	}
	if s.AddGraph != "" {
		ops = append(ops, OpAddGraph)
	}
	if s.RemoveGraph != "" {
		ops = append(ops, OpRemoveGraph)
	}
	if s.Bind != nil {
		ops = append(ops, OpBind)
	}
	if s.Update != "" {
		ops = append(ops, OpUpdate)
	}
	if s.Query != nil {
		ops = append(ops, OpQuery)
	}
	return ops
}

// LoadScenario reads and parses a scenario YAML file.
// Unknown fields are rejected so that typos fail loudly.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	for i, step := range s.Steps {
		switch ops := step.ops(); len(ops) {
		case 0:
			return fmt.Errorf("steps[%d]: an operation is required", i)
		case 1:
		default:
			return fmt.Errorf("steps[%d]: exactly one operation is allowed, found %v", i, ops)
		}
		if step.Add != nil && step.Add.Data == "" {
			return fmt.Errorf("steps[%d].add: data is required", i)
		}
		if step.Bind != nil && (step.Bind.Prefix == "" || step.Bind.Namespace == "") {
			return fmt.Errorf("steps[%d].bind: prefix and namespace are required", i)
		}
		if step.Query != nil && step.Query.Text == "" {
			return fmt.Errorf("steps[%d].query: text is required", i)
		}
		if e := step.Expect; e != nil && step.Query == nil && (e.Ask != nil || e.Rows != nil || e.Triples != nil) {
			return fmt.Errorf("steps[%d].expect: ask, rows and triples need a query step", i)
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}
	return nil
}

func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertTraceCount:
		if a.Op == "" {
			return fmt.Errorf("assertions[%d]: op is required for trace_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for trace_count", index)
		}
	case AssertTraceOrder:
		if len(a.Ops) == 0 {
			return fmt.Errorf("assertions[%d]: ops list is required for trace_order", index)
		}
	case AssertFinalCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for final_count", index)
		}
	case AssertContains, AssertAbsent:
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
