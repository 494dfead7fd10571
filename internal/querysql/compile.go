package querysql

import (
	"fmt"
	"strings"

	"github.com/roach88/rdfstore/internal/ir"
	"github.com/roach88/rdfstore/internal/queryir"
)

// Dataset selects what the patterns outside GRAPH blocks match.
type Dataset struct {
	// Union makes the default graph the set union of every graph.
	Union bool

	// Graph is the graph used as default graph when Union is false.
	// nil means the stored default graph.
	Graph ir.Term
}

// Plan is a compiled query.
//
// Columns names the result columns in order. Every column holds a canonical
// term encoding or NULL for an unbound variable. ASK plans have one unnamed
// column holding 0 or 1; COUNT plans have one column holding the count.
type Plan struct {
	SQL     string
	Params  []any
	Columns []queryir.Var
}

// SQLCompiler compiles queryir to parameterized SQL over the quads table.
//
// CRITICAL: Every multi-row query ends in ORDER BY ... COLLATE BINARY so
// results are deterministic.
// CRITICAL: All terms are parameterized, never interpolated.
type SQLCompiler struct {
	Dataset Dataset
}

// NewSQLCompiler creates a compiler for the given dataset.
func NewSQLCompiler(ds Dataset) *SQLCompiler {
	return &SQLCompiler{Dataset: ds}
}

// Compile converts a query to SQL.
func (c *SQLCompiler) Compile(q queryir.Query) (Plan, error) {
	if q == nil {
		return Plan{}, fmt.Errorf("cannot compile nil query")
	}

	switch query := q.(type) {
	case queryir.Select:
		return c.compileSelect(query)
	case queryir.Ask:
		return c.compileAsk(query)
	case queryir.Construct:
		return c.compileSolutions(query.Where, query.Where.Vars(), false, query.Limit, query.Offset)
	default:
		return Plan{}, fmt.Errorf("unsupported query type: %T", q)
	}
}

// CompileWhere returns every solution of w projected onto all of its
// variables, hidden ones included. Update evaluation uses it.
func (c *SQLCompiler) CompileWhere(w queryir.Where) (Plan, error) {
	return c.compileSolutions(w, w.Vars(), false, queryir.NoLimit, queryir.NoLimit)
}

func (c *SQLCompiler) compileSelect(q queryir.Select) (Plan, error) {
	if q.Count != nil {
		return c.compileCount(q)
	}
	cols := q.Projection
	if q.Star {
		cols = q.Where.VisibleVars()
	}
	return c.compileSolutions(q.Where, cols, q.Distinct, q.Limit, q.Offset)
}

func (c *SQLCompiler) compileSolutions(w queryir.Where, cols []queryir.Var, distinct bool, limit, offset int) (Plan, error) {
	b, err := c.build(w)
	if err != nil {
		return Plan{}, err
	}

	var sql strings.Builder
	sql.WriteString("SELECT ")
	if distinct {
		sql.WriteString("DISTINCT ")
	}
	sql.WriteString(b.selectList(cols))
	sql.WriteString(b.body())

	// MANDATORY: deterministic order over every projected column.
	if len(cols) > 0 {
		order := make([]string, len(cols))
		for i := range cols {
			order[i] = fmt.Sprintf("c%d COLLATE BINARY", i)
		}
		sql.WriteString(" ORDER BY " + strings.Join(order, ", "))
	}

	params := b.params()
	sql.WriteString(sliceClause(limit, offset, &params))
	return Plan{SQL: sql.String(), Params: params, Columns: cols}, nil
}

func (c *SQLCompiler) compileAsk(q queryir.Ask) (Plan, error) {
	b, err := c.build(q.Where)
	if err != nil {
		return Plan{}, err
	}
	// Single row, no ordering needed.
	return Plan{SQL: "SELECT EXISTS(SELECT 1" + b.body() + ")", Params: b.params()}, nil
}

// compileCount wraps the solutions in the COUNT aggregate.
// The result is a single row, so LIMIT and OFFSET apply to that row.
func (c *SQLCompiler) compileCount(q queryir.Select) (Plan, error) {
	b, err := c.build(q.Where)
	if err != nil {
		return Plan{}, err
	}
	count := q.Count

	var sql string
	switch len(count.Args) {
	case 0:
		if count.Distinct {
			visible := q.Where.VisibleVars()
			inner := "1"
			if len(visible) > 0 {
				inner = b.selectList(visible)
			}
			sql = "SELECT COUNT(*) FROM (SELECT DISTINCT " + inner + b.body() + ")"
		} else {
			sql = "SELECT COUNT(*)" + b.body()
		}
	case 1:
		fn := "COUNT("
		if count.Distinct {
			fn = "COUNT(DISTINCT "
		}
		sql = "SELECT " + fn + b.expr(count.Args[0]) + ")" + b.body()
	case 3:
		inner := "SELECT "
		if count.Distinct {
			inner += "DISTINCT "
		}
		inner += b.selectList(count.Args) + b.body()
		sql = "SELECT COUNT(*) FROM (" + inner + ") WHERE c0 IS NOT NULL AND c1 IS NOT NULL AND c2 IS NOT NULL"
	default:
		return Plan{}, fmt.Errorf("COUNT takes 0, 1 or 3 arguments, got %d", len(count.Args))
	}

	params := b.params()
	sql += sliceClause(q.Limit, q.Offset, &params)
	return Plan{SQL: sql, Params: params, Columns: []queryir.Var{count.Alias}}, nil
}

// sliceClause renders LIMIT/OFFSET. SQLite needs a LIMIT before OFFSET,
// and -1 means unbounded.
func sliceClause(limit, offset int, params *[]any) string {
	if limit < 0 && offset < 0 {
		return ""
	}
	if limit < 0 {
		limit = -1
	}
	if offset < 0 {
		offset = 0
	}
	*params = append(*params, limit, offset)
	return " LIMIT ? OFFSET ?"
}

// site is a column that binds a variable.
type site struct {
	column string
	// nullable marks VALUES columns, where NULL is UNDEF.
	nullable bool
}

// builder accumulates the FROM and WHERE parts of a query.
type builder struct {
	from        []string
	where       []string
	fromParams  []any
	whereParams []any
	sites       map[queryir.Var][]site
	order       []queryir.Var
}

func (c *SQLCompiler) build(w queryir.Where) (*builder, error) {
	b := &builder{sites: make(map[queryir.Var][]site)}

	alias := 0
	for _, block := range w.Blocks {
		for _, tp := range block.Patterns {
			q := fmt.Sprintf("q%d", alias)
			alias++
			b.from = append(b.from, "quads "+q)

			if err := c.scopePattern(b, q, block.Graph); err != nil {
				return nil, err
			}
			for _, pos := range []struct {
				column string
				node   queryir.Node
			}{
				{"subject", tp.Subject},
				{"predicate", tp.Predicate},
				{"object", tp.Object},
			} {
				if err := b.bindNode(q+"."+pos.column, pos.node); err != nil {
					return nil, err
				}
			}
		}
	}

	for i, table := range w.Values {
		b.addValues(fmt.Sprintf("v%d", i), table)
	}

	b.joinConditions()
	return b, nil
}

// scopePattern restricts the graph column of pattern alias q.
func (c *SQLCompiler) scopePattern(b *builder, q string, graph queryir.Node) error {
	switch g := graph.(type) {
	case nil:
		if c.Dataset.Union {
			// One representative row per distinct triple, so a triple stored
			// in several graphs matches once.
			b.where = append(b.where, fmt.Sprintf(
				"%[1]s.graph = (SELECT MIN(u.graph) FROM quads u WHERE u.subject = %[1]s.subject AND u.predicate = %[1]s.predicate AND u.object = %[1]s.object)", q))
			return nil
		}
		b.where = append(b.where, q+".graph = ?")
		b.whereParams = append(b.whereParams, ir.Encode(c.Dataset.Graph))
	case queryir.Const:
		if !ir.IsGraphName(g.Term) {
			return fmt.Errorf("%s cannot name a graph", ir.Encode(g.Term))
		}
		b.where = append(b.where, q+".graph = ?")
		b.whereParams = append(b.whereParams, ir.Encode(g.Term))
	case queryir.Var:
		// GRAPH ?g ranges over named graphs only.
		b.where = append(b.where, q+".graph <> ''")
		b.addSite(g, site{column: q + ".graph"})
	default:
		return fmt.Errorf("unsupported graph node %T", graph)
	}
	return nil
}

func (b *builder) bindNode(column string, n queryir.Node) error {
	switch node := n.(type) {
	case queryir.Var:
		b.addSite(node, site{column: column})
	case queryir.Const:
		b.where = append(b.where, column+" = ?")
		b.whereParams = append(b.whereParams, ir.Encode(node.Term))
	default:
		return fmt.Errorf("unsupported pattern node %T", n)
	}
	return nil
}

func (b *builder) addSite(v queryir.Var, s site) {
	if _, ok := b.sites[v]; !ok {
		b.order = append(b.order, v)
	}
	b.sites[v] = append(b.sites[v], s)
}

// addValues renders an inline table as a subquery. UNDEF cells are NULL.
func (b *builder) addValues(alias string, table queryir.Values) {
	width := len(table.Vars)
	if width == 0 {
		width = 1
	}

	var sub string
	if len(table.Rows) == 0 {
		cols := make([]string, width)
		for i := range cols {
			cols[i] = fmt.Sprintf("NULL AS column%d", i+1)
		}
		sub = "(SELECT " + strings.Join(cols, ", ") + " WHERE 0)"
	} else {
		rows := make([]string, len(table.Rows))
		for i, row := range table.Rows {
			cells := make([]string, width)
			for j := range cells {
				cells[j] = "?"
				if len(table.Vars) == 0 {
					b.fromParams = append(b.fromParams, 1)
					continue
				}
				var param any
				if j < len(row) && row[j] != nil {
					param = ir.Encode(row[j])
				}
				b.fromParams = append(b.fromParams, param)
			}
			rows[i] = "(" + strings.Join(cells, ", ") + ")"
		}
		sub = "(VALUES " + strings.Join(rows, ", ") + ")"
	}
	b.from = append(b.from, sub+" "+alias)

	for i, v := range table.Vars {
		b.addSite(v, site{column: fmt.Sprintf("%s.column%d", alias, i+1), nullable: true})
	}
}

// joinConditions equates every binding site of each variable.
// A NULL (UNDEF) site is compatible with anything.
func (b *builder) joinConditions() {
	for _, v := range b.order {
		sites := b.sites[v]
		var fixed, nullable []string
		for _, s := range sites {
			if s.nullable {
				nullable = append(nullable, s.column)
			} else {
				fixed = append(fixed, s.column)
			}
		}

		if len(fixed) > 0 {
			for _, col := range fixed[1:] {
				b.where = append(b.where, col+" = "+fixed[0])
			}
			for _, col := range nullable {
				b.where = append(b.where, fmt.Sprintf("(%s IS NULL OR %s = %s)", col, col, fixed[0]))
			}
			continue
		}
		for i := 0; i < len(nullable); i++ {
			for j := i + 1; j < len(nullable); j++ {
				b.where = append(b.where, fmt.Sprintf("(%[1]s IS NULL OR %[2]s IS NULL OR %[1]s = %[2]s)", nullable[i], nullable[j]))
			}
		}
	}
}

// expr returns the SQL expression holding v's value, NULL when nothing binds it.
func (b *builder) expr(v queryir.Var) string {
	sites := b.sites[v]
	if len(sites) == 0 {
		return "NULL"
	}
	for _, s := range sites {
		if !s.nullable {
			return s.column
		}
	}
	if len(sites) == 1 {
		return sites[0].column
	}
	cols := make([]string, len(sites))
	for i, s := range sites {
		cols[i] = s.column
	}
	return "COALESCE(" + strings.Join(cols, ", ") + ")"
}

// selectList renders "expr AS c0, expr AS c1, ...". With no columns it
// selects a constant so the statement stays valid.
func (b *builder) selectList(cols []queryir.Var) string {
	if len(cols) == 0 {
		return "1"
	}
	parts := make([]string, len(cols))
	for i, v := range cols {
		parts[i] = fmt.Sprintf("%s AS c%d", b.expr(v), i)
	}
	return strings.Join(parts, ", ")
}

func (b *builder) body() string {
	var sql string
	if len(b.from) > 0 {
		sql = " FROM " + strings.Join(b.from, ", ")
	}
	if len(b.where) > 0 {
		sql += " WHERE " + strings.Join(b.where, " AND ")
	}
	return sql
}

// params returns FROM parameters followed by WHERE parameters, matching
// placeholder order in body.
func (b *builder) params() []any {
	out := make([]any, 0, len(b.fromParams)+len(b.whereParams))
	out = append(out, b.fromParams...)
	return append(out, b.whereParams...)
}
