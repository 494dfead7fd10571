package queryir

import (
	"fmt"
	"slices"

	"github.com/roach88/rdfstore/internal/ir"
)

// ValidationResult contains the static analysis of a query or update.
//
// Errors make the request unexecutable. Warnings flag constructs that are
// legal but almost certainly mistakes, such as projecting a variable that
// nothing binds.
type ValidationResult struct {
	// OK is true when Errors is empty.
	OK bool

	Errors   []string
	Warnings []string
}

// Validate checks a query.
//
// Rules:
//  1. Projected variables should be bound by WHERE (warning)
//  2. The COUNT alias must not be a pattern variable (error)
//  3. CONSTRUCT template variables should be bound by WHERE (warning)
//  4. VALUES rows must match the variable list width (error)
//
// Validate is a pure function with no side effects.
func Validate(q Query) ValidationResult {
	v := &validator{errors: []string{}, warnings: []string{}}
	v.validateQuery(q)
	return v.result()
}

// ValidateUpdate checks every operation of an update request.
//
// Rules:
//  1. DELETE templates and DELETE DATA must not contain blank nodes (error)
//  2. Template variables should be bound by WHERE (warning)
//  3. VALUES rows must match the variable list width (error)
func ValidateUpdate(ops []UpdateOp) ValidationResult {
	v := &validator{errors: []string{}, warnings: []string{}}
	for i, op := range ops {
		v.validateUpdate(i, op)
	}
	return v.result()
}

// validator accumulates findings during traversal.
type validator struct {
	errors   []string
	warnings []string
}

func (v *validator) result() ValidationResult {
	return ValidationResult{OK: len(v.errors) == 0, Errors: v.errors, Warnings: v.warnings}
}

func (v *validator) addError(format string, args ...any) {
	v.errors = append(v.errors, fmt.Sprintf(format, args...))
}

func (v *validator) addWarning(format string, args ...any) {
	v.warnings = append(v.warnings, fmt.Sprintf(format, args...))
}

func (v *validator) validateQuery(q Query) {
	switch query := q.(type) {
	case Select:
		v.validateSelect(query)
	case Ask:
		v.validateWhere(query.Where)
	case Construct:
		v.validateWhere(query.Where)
		v.checkBound("CONSTRUCT template", templateVars(query.Template), query.Where)
	case nil:
		v.addError("nil query")
	default:
		v.addError("unknown query type: %T", q)
	}
}

func (v *validator) validateSelect(sel Select) {
	v.validateWhere(sel.Where)
	bound := sel.Where.Vars()

	if sel.Count != nil {
		if slices.Contains(bound, sel.Count.Alias) {
			v.addError("COUNT alias ?%s is already bound by the pattern", sel.Count.Alias)
		}
		v.checkBound("COUNT argument", sel.Count.Args, sel.Where)
		return
	}

	v.checkBound("projection", sel.Projection, sel.Where)
}

func (v *validator) validateWhere(w Where) {
	for _, table := range w.Values {
		for i, row := range table.Rows {
			if len(row) != len(table.Vars) {
				v.addError("VALUES row %d has %d terms, expected %d", i, len(row), len(table.Vars))
			}
		}
	}
}

func (v *validator) checkBound(what string, vars []Var, w Where) {
	bound := w.Vars()
	for _, name := range vars {
		if !slices.Contains(bound, name) {
			v.addWarning("%s variable ?%s is never bound", what, name)
		}
	}
}

func (v *validator) validateUpdate(i int, op UpdateOp) {
	switch u := op.(type) {
	case InsertData, Clear, Drop, Create:
		// ground or graph-level operations
	case DeleteData:
		for _, q := range u.Quads {
			if hasBlank(q.Subject) || hasBlank(q.Object) {
				v.addError("operation %d: blank nodes are not allowed in DELETE DATA", i)
				return
			}
		}
	case DeleteWhere:
		if quadPatternsHaveBlank(u.Patterns) {
			v.addError("operation %d: blank nodes are not allowed in DELETE WHERE", i)
		}
	case Modify:
		v.validateWhere(u.Where)
		if quadPatternsHaveBlank(u.Delete) {
			v.addError("operation %d: blank nodes are not allowed in DELETE templates", i)
		}
		v.checkBound(fmt.Sprintf("operation %d template", i), quadTemplateVars(u.Delete, u.Insert), u.Where)
	default:
		v.addError("operation %d: unknown update type %T", i, op)
	}
}

func templateVars(template []TriplePattern) []Var {
	var vars []Var
	for _, p := range template {
		for _, name := range p.Vars() {
			vars = appendUnique(vars, name)
		}
	}
	return vars
}

func quadTemplateVars(groups ...[]QuadPattern) []Var {
	var vars []Var
	for _, group := range groups {
		for _, p := range group {
			for _, name := range p.Vars() {
				vars = appendUnique(vars, name)
			}
			if g, ok := p.Graph.(Var); ok {
				vars = appendUnique(vars, g)
			}
		}
	}
	return vars
}

func quadPatternsHaveBlank(patterns []QuadPattern) bool {
	for _, p := range patterns {
		for _, n := range []Node{p.Subject, p.Object, p.Graph} {
			if c, ok := n.(Const); ok && hasBlank(c.Term) {
				return true
			}
		}
	}
	return false
}

func hasBlank(t ir.Term) bool {
	switch v := t.(type) {
	case ir.BlankNode:
		return true
	case ir.Triple:
		return hasBlank(v.Subject) || hasBlank(v.Object)
	}
	return false
}
