package sparql

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/roach88/rdfstore/internal/ir"
	"github.com/roach88/rdfstore/internal/queryir"
)

// termMode controls how blank nodes and variables are read.
type termMode int

const (
	// modePattern: WHERE clauses. Blank nodes become hidden variables.
	modePattern termMode = iota
	// modeTemplate: CONSTRUCT and DELETE/INSERT templates. Blank nodes stay constants.
	modeTemplate
	// modeData: INSERT DATA and DELETE DATA. Variables are rejected.
	modeData
)

// parser is a recursive-descent parser over a token slice.
type parser struct {
	toks     []token
	pos      int
	base     *url.URL
	prefixes map[string]string
	anon     int
}

// ParseQuery parses a SELECT, ASK or CONSTRUCT query.
//
// A VALUES clause trailing the query body is joined with the WHERE pattern.
func ParseQuery(text string) (queryir.Query, error) {
	p, err := newParser(text)
	if err != nil {
		return nil, err
	}
	if err := p.prologue(); err != nil {
		return nil, err
	}

	var q queryir.Query
	tok := p.peek()
	switch {
	case p.isKeyword("SELECT"):
		q, err = p.selectQuery()
	case p.isKeyword("ASK"):
		q, err = p.askQuery()
	case p.isKeyword("CONSTRUCT"):
		q, err = p.constructQuery()
	case p.isKeyword("DESCRIBE"):
		return nil, p.unsupported(tok, "DESCRIBE queries")
	case tok.Kind == tokEOF:
		return nil, p.errorf(tok, "empty query")
	default:
		return nil, p.errorf(tok, "expected SELECT, ASK or CONSTRUCT, found %s", tok.describe())
	}
	if err != nil {
		return nil, err
	}

	if p.isKeyword("VALUES") {
		p.advance()
		values, err := p.valuesBlock()
		if err != nil {
			return nil, err
		}
		q = appendValues(q, values)
	}
	if tok := p.peek(); tok.Kind != tokEOF {
		return nil, p.errorf(tok, "unexpected %s after query", tok.describe())
	}
	return q, nil
}

// ParseUpdate parses a sequence of update operations separated by ';'.
// A request with only a prologue yields no operations.
func ParseUpdate(text string) ([]queryir.UpdateOp, error) {
	p, err := newParser(text)
	if err != nil {
		return nil, err
	}

	ops := []queryir.UpdateOp{}
	for {
		if err := p.prologue(); err != nil {
			return nil, err
		}
		if p.peek().Kind == tokEOF {
			return ops, nil
		}
		op, err := p.updateOp()
		if err != nil {
			return nil, err
		}
		ops = append(ops, op)
		if !p.acceptPunct(";") {
			break
		}
	}
	if tok := p.peek(); tok.Kind != tokEOF {
		return nil, p.errorf(tok, "expected ';' or end of update, found %s", tok.describe())
	}
	return ops, nil
}

func newParser(text string) (*parser, error) {
	toks, err := tokenize(text)
	if err != nil {
		return nil, err
	}
	return &parser{toks: toks, prefixes: make(map[string]string)}, nil
}

func appendValues(q queryir.Query, v queryir.Values) queryir.Query {
	switch query := q.(type) {
	case queryir.Select:
		query.Where.Values = append(query.Where.Values, v)
		return query
	case queryir.Ask:
		query.Where.Values = append(query.Where.Values, v)
		return query
	case queryir.Construct:
		query.Where.Values = append(query.Where.Values, v)
		return query
	}
	return q
}

// --- token helpers ---

func (p *parser) peek() token {
	return p.toks[p.pos]
}

func (p *parser) advance() token {
	tok := p.toks[p.pos]
	if tok.Kind != tokEOF {
		p.pos++
	}
	return tok
}

func (p *parser) isKeyword(kw string) bool {
	tok := p.peek()
	return tok.Kind == tokKeyword && strings.EqualFold(tok.Text, kw)
}

func (p *parser) acceptKeyword(kw string) bool {
	if p.isKeyword(kw) {
		p.advance()
		return true
	}
	return false
}

func (p *parser) expectKeyword(kw string) error {
	if !p.acceptKeyword(kw) {
		tok := p.peek()
		return p.errorf(tok, "expected %s, found %s", kw, tok.describe())
	}
	return nil
}

func (p *parser) isPunct(s string) bool {
	tok := p.peek()
	return tok.Kind == tokPunct && tok.Text == s
}

func (p *parser) acceptPunct(s string) bool {
	if p.isPunct(s) {
		p.advance()
		return true
	}
	return false
}

func (p *parser) expectPunct(s string) error {
	if !p.acceptPunct(s) {
		tok := p.peek()
		return p.errorf(tok, "expected '%s', found %s", s, tok.describe())
	}
	return nil
}

func (p *parser) errorf(tok token, format string, args ...any) error {
	return &SyntaxError{Code: ErrCodeSyntax, Message: fmt.Sprintf(format, args...), Pos: tok.Pos}
}

func (p *parser) unsupported(tok token, what string) error {
	return &SyntaxError{Code: ErrCodeUnsupported, Message: what + " are not supported", Pos: tok.Pos}
}

// --- prologue ---

func (p *parser) prologue() error {
	for {
		switch {
		case p.acceptKeyword("BASE"):
			tok := p.advance()
			if tok.Kind != tokIRI {
				return p.errorf(tok, "expected IRI after BASE")
			}
			base, err := url.Parse(p.resolve(tok.Text))
			if err != nil {
				return p.errorf(tok, "invalid BASE IRI: %v", err)
			}
			p.base = base
		case p.acceptKeyword("PREFIX"):
			name := p.advance()
			if name.Kind != tokPName || !strings.HasSuffix(name.Text, ":") || strings.Count(name.Text, ":") != 1 {
				return p.errorf(name, "expected prefix declaration like ex:, found %s", name.describe())
			}
			ns := p.advance()
			if ns.Kind != tokIRI {
				return p.errorf(ns, "expected IRI for prefix %s", name.Text)
			}
			p.prefixes[strings.TrimSuffix(name.Text, ":")] = p.resolve(ns.Text)
		default:
			return nil
		}
	}
}

// resolve applies BASE to a relative IRI reference.
func (p *parser) resolve(ref string) string {
	if p.base == nil {
		return ref
	}
	u, err := url.Parse(ref)
	if err != nil || u.IsAbs() {
		return ref
	}
	return p.base.ResolveReference(u).String()
}

// --- queries ---

func (p *parser) selectQuery() (queryir.Query, error) {
	p.advance() // SELECT
	sel := queryir.Select{Limit: queryir.NoLimit, Offset: queryir.NoLimit}

	if p.acceptKeyword("DISTINCT") {
		sel.Distinct = true
	} else {
		p.acceptKeyword("REDUCED")
	}

	switch {
	case p.acceptPunct("*"):
		sel.Star = true
	case p.isPunct("("):
		count, err := p.countProjection()
		if err != nil {
			return nil, err
		}
		sel.Count = count
	case p.peek().Kind == tokVar:
		for p.peek().Kind == tokVar {
			sel.Projection = append(sel.Projection, queryir.Var(p.advance().Text))
		}
		if p.isPunct("(") {
			return nil, p.unsupported(p.peek(), "projection expressions mixed with variables")
		}
	default:
		tok := p.peek()
		return nil, p.errorf(tok, "expected projection, found %s", tok.describe())
	}

	if err := p.rejectDataset(); err != nil {
		return nil, err
	}
	where, err := p.whereClause()
	if err != nil {
		return nil, err
	}
	sel.Where = where
	if sel.Limit, sel.Offset, err = p.solutionModifiers(); err != nil {
		return nil, err
	}
	return sel, nil
}

// countProjection parses (COUNT([DISTINCT] * | ?v | TRIPLE(?s, ?p, ?o)) AS ?alias).
func (p *parser) countProjection() (*queryir.Count, error) {
	p.advance() // (
	if !p.isKeyword("COUNT") {
		return nil, p.unsupported(p.peek(), "projection expressions other than COUNT")
	}
	p.advance()
	if err := p.expectPunct("("); err != nil {
		return nil, err
	}

	count := &queryir.Count{}
	count.Distinct = p.acceptKeyword("DISTINCT")
	switch {
	case p.acceptPunct("*"):
	case p.peek().Kind == tokVar:
		count.Args = []queryir.Var{queryir.Var(p.advance().Text)}
	case p.acceptKeyword("TRIPLE"):
		if err := p.expectPunct("("); err != nil {
			return nil, err
		}
		for i := 0; i < 3; i++ {
			if i > 0 {
				if err := p.expectPunct(","); err != nil {
					return nil, err
				}
			}
			tok := p.advance()
			if tok.Kind != tokVar {
				return nil, p.unsupported(tok, "TRIPLE arguments other than variables")
			}
			count.Args = append(count.Args, queryir.Var(tok.Text))
		}
		if err := p.expectPunct(")"); err != nil {
			return nil, err
		}
	default:
		return nil, p.unsupported(p.peek(), "COUNT arguments other than *, a variable or TRIPLE(...)")
	}

	if err := p.expectPunct(")"); err != nil {
		return nil, err
	}
	if err := p.expectKeyword("AS"); err != nil {
		return nil, err
	}
	alias := p.advance()
	if alias.Kind != tokVar {
		return nil, p.errorf(alias, "expected variable after AS")
	}
	count.Alias = queryir.Var(alias.Text)
	if err := p.expectPunct(")"); err != nil {
		return nil, err
	}
	if p.isPunct("(") || p.peek().Kind == tokVar {
		return nil, p.unsupported(p.peek(), "multiple projection expressions")
	}
	return count, nil
}

func (p *parser) askQuery() (queryir.Query, error) {
	p.advance() // ASK
	if err := p.rejectDataset(); err != nil {
		return nil, err
	}
	where, err := p.whereClause()
	if err != nil {
		return nil, err
	}
	// Modifiers are accepted and ignored.
	if _, _, err := p.solutionModifiers(); err != nil {
		return nil, err
	}
	return queryir.Ask{Where: where}, nil
}

func (p *parser) constructQuery() (queryir.Query, error) {
	p.advance() // CONSTRUCT
	c := queryir.Construct{}

	if p.isPunct("{") {
		template, err := p.template()
		if err != nil {
			return nil, err
		}
		c.Template = template
		if err := p.rejectDataset(); err != nil {
			return nil, err
		}
		if c.Where, err = p.whereClause(); err != nil {
			return nil, err
		}
	} else {
		// CONSTRUCT WHERE { triples }: the pattern is its own template.
		if err := p.rejectDataset(); err != nil {
			return nil, err
		}
		if err := p.expectKeyword("WHERE"); err != nil {
			return nil, err
		}
		start := p.peek()
		where, err := p.group()
		if err != nil {
			return nil, err
		}
		if len(where.Values) > 0 {
			return nil, p.unsupported(start, "VALUES inside CONSTRUCT WHERE")
		}
		for _, b := range where.Blocks {
			if b.Graph != nil {
				return nil, p.unsupported(start, "GRAPH blocks inside CONSTRUCT WHERE")
			}
			c.Template = append(c.Template, b.Patterns...)
		}
		c.Where = where
	}

	var err error
	if c.Limit, c.Offset, err = p.solutionModifiers(); err != nil {
		return nil, err
	}
	return c, nil
}

func (p *parser) rejectDataset() error {
	if tok := p.peek(); p.isKeyword("FROM") {
		return p.unsupported(tok, "FROM clauses")
	}
	return nil
}

// whereClause parses [WHERE] GroupGraphPattern.
func (p *parser) whereClause() (queryir.Where, error) {
	p.acceptKeyword("WHERE")
	return p.group()
}

func (p *parser) solutionModifiers() (limit, offset int, err error) {
	limit, offset = queryir.NoLimit, queryir.NoLimit
	for _, kw := range []string{"GROUP", "HAVING", "ORDER"} {
		if p.isKeyword(kw) {
			return 0, 0, p.unsupported(p.peek(), kw+" clauses")
		}
	}
	for {
		switch {
		case p.acceptKeyword("LIMIT"):
			if limit, err = p.nonNegativeInt("LIMIT"); err != nil {
				return 0, 0, err
			}
		case p.acceptKeyword("OFFSET"):
			if offset, err = p.nonNegativeInt("OFFSET"); err != nil {
				return 0, 0, err
			}
		default:
			return limit, offset, nil
		}
	}
}

func (p *parser) nonNegativeInt(clause string) (int, error) {
	tok := p.advance()
	if tok.Kind != tokInteger || strings.HasPrefix(tok.Text, "-") {
		return 0, p.errorf(tok, "%s needs a non-negative integer", clause)
	}
	n, err := strconv.Atoi(strings.TrimPrefix(tok.Text, "+"))
	if err != nil {
		return 0, p.errorf(tok, "%s value out of range", clause)
	}
	return n, nil
}

// --- group graph patterns ---

// group parses { ... } and flattens nested groups into blocks.
func (p *parser) group() (queryir.Where, error) {
	var w queryir.Where
	if err := p.groupInto(&w, nil); err != nil {
		return queryir.Where{}, err
	}
	return w, nil
}

func (p *parser) groupInto(w *queryir.Where, graph queryir.Node) error {
	if err := p.expectPunct("{"); err != nil {
		return err
	}
	for {
		tok := p.peek()
		switch {
		case p.acceptPunct("}"):
			if p.isKeyword("UNION") || p.isKeyword("MINUS") {
				return p.unsupported(p.peek(), strings.ToUpper(p.peek().Text)+" patterns")
			}
			return nil
		case p.acceptPunct("."):
		case p.isPunct("{"):
			if err := p.groupInto(w, graph); err != nil {
				return err
			}
		case p.acceptKeyword("GRAPH"):
			g, err := p.graphName(modePattern)
			if err != nil {
				return err
			}
			if err := p.groupInto(w, g); err != nil {
				return err
			}
		case p.acceptKeyword("VALUES"):
			values, err := p.valuesBlock()
			if err != nil {
				return err
			}
			w.Values = append(w.Values, values)
		case tok.Kind == tokKeyword && isUnsupportedGroupKeyword(tok.Text):
			return p.unsupported(tok, strings.ToUpper(tok.Text)+" clauses")
		case tok.Kind == tokEOF:
			return p.errorf(tok, "unterminated group, expected '}'")
		default:
			patterns, err := p.triplesBlock(modePattern)
			if err != nil {
				return err
			}
			w.Blocks = append(w.Blocks, queryir.Block{Graph: graph, Patterns: patterns})
		}
	}
}

func isUnsupportedGroupKeyword(word string) bool {
	switch strings.ToUpper(word) {
	case "FILTER", "OPTIONAL", "MINUS", "UNION", "BIND", "SERVICE", "SELECT":
		return true
	}
	return false
}

// graphName parses the name after GRAPH: a variable or an IRI.
func (p *parser) graphName(mode termMode) (queryir.Node, error) {
	tok := p.peek()
	switch tok.Kind {
	case tokVar:
		if mode == modeData {
			return nil, p.errorf(tok, "variables are not allowed in data blocks")
		}
		p.advance()
		return queryir.Var(tok.Text), nil
	case tokIRI, tokPName:
		iri, err := p.iri()
		if err != nil {
			return nil, err
		}
		return queryir.Const{Term: iri}, nil
	}
	return nil, p.errorf(tok, "expected graph variable or IRI, found %s", tok.describe())
}

// triplesBlock parses triples up to the next '}', GRAPH or keyword.
// Statements are separated by '.'.
func (p *parser) triplesBlock(mode termMode) ([]queryir.TriplePattern, error) {
	var patterns []queryir.TriplePattern
	for {
		if err := p.triplesSameSubject(mode, &patterns); err != nil {
			return nil, err
		}
		if !p.acceptPunct(".") {
			return patterns, nil
		}
		tok := p.peek()
		if tok.Kind == tokKeyword || (tok.Kind == tokPunct && tok.Text != "[" && tok.Text != "<<") || tok.Kind == tokEOF {
			return patterns, nil
		}
	}
}

// triplesSameSubject parses Subject PropertyList or [ PropertyList ] PropertyList?.
func (p *parser) triplesSameSubject(mode termMode, out *[]queryir.TriplePattern) error {
	if p.isPunct("[") {
		subject, err := p.blankPropertyList(mode, out)
		if err != nil {
			return err
		}
		if p.isPunct(".") || p.isPunct("}") {
			return nil
		}
		return p.propertyList(mode, subject, out)
	}
	if p.isPunct("(") {
		return p.unsupported(p.peek(), "RDF collections")
	}

	start := p.peek()
	subject, err := p.node(mode, out)
	if err != nil {
		return err
	}
	if c, ok := subject.(queryir.Const); ok && !ir.IsSubject(c.Term) {
		return p.errorf(start, "%s cannot be a subject", ir.Encode(c.Term))
	}
	return p.propertyList(mode, subject, out)
}

func (p *parser) propertyList(mode termMode, subject queryir.Node, out *[]queryir.TriplePattern) error {
	for {
		verb, err := p.verb(mode)
		if err != nil {
			return err
		}
		for {
			object, err := p.node(mode, out)
			if err != nil {
				return err
			}
			*out = append(*out, queryir.TriplePattern{Subject: subject, Predicate: verb, Object: object})
			if !p.acceptPunct(",") {
				break
			}
		}
		if !p.acceptPunct(";") {
			return nil
		}
		// A trailing ';' is allowed before '.', ']' or '}'.
		for p.acceptPunct(";") {
		}
		if p.isPunct(".") || p.isPunct("]") || p.isPunct("}") {
			return nil
		}
	}
}

func (p *parser) verb(mode termMode) (queryir.Node, error) {
	tok := p.peek()
	var verb queryir.Node
	switch {
	case tok.Kind == tokKeyword && tok.Text == "a":
		p.advance()
		verb = queryir.Const{Term: ir.NewNamedNode(ir.RDFType)}
	case tok.Kind == tokVar:
		if mode == modeData {
			return nil, p.errorf(tok, "variables are not allowed in data blocks")
		}
		p.advance()
		verb = queryir.Var(tok.Text)
	case tok.Kind == tokIRI || tok.Kind == tokPName:
		iri, err := p.iri()
		if err != nil {
			return nil, err
		}
		verb = queryir.Const{Term: iri}
	case tok.Kind == tokPunct && (tok.Text == "^" || tok.Text == "!" || tok.Text == "("):
		return nil, p.unsupported(tok, "property paths")
	default:
		return nil, p.errorf(tok, "expected predicate, found %s", tok.describe())
	}
	if next := p.peek(); next.Kind == tokPunct && strings.Contains("/|*+", next.Text) {
		return nil, p.unsupported(next, "property paths")
	}
	if next := p.peek(); next.Kind == tokPunct && next.Text == "?" {
		return nil, p.unsupported(next, "property paths")
	}
	return verb, nil
}

// blankPropertyList parses [ ] or [ PropertyList ] and returns the node
// standing for the anonymous resource.
func (p *parser) blankPropertyList(mode termMode, out *[]queryir.TriplePattern) (queryir.Node, error) {
	p.advance() // [
	node := p.freshBlank(mode)
	if p.acceptPunct("]") {
		return node, nil
	}
	if err := p.propertyList(mode, node, out); err != nil {
		return nil, err
	}
	if err := p.expectPunct("]"); err != nil {
		return nil, err
	}
	return node, nil
}

func (p *parser) freshBlank(mode termMode) queryir.Node {
	p.anon++
	label := fmt.Sprintf("anon%d", p.anon)
	if mode == modePattern {
		return queryir.Var(queryir.HiddenVarPrefix + label)
	}
	return queryir.Const{Term: ir.NewBlankNode(label)}
}

// node parses a subject or object position.
func (p *parser) node(mode termMode, out *[]queryir.TriplePattern) (queryir.Node, error) {
	tok := p.peek()
	switch tok.Kind {
	case tokVar:
		if mode == modeData {
			return nil, p.errorf(tok, "variables are not allowed in data blocks")
		}
		p.advance()
		return queryir.Var(tok.Text), nil
	case tokBlank:
		p.advance()
		if mode == modePattern {
			return queryir.Var(queryir.HiddenVarPrefix + tok.Text), nil
		}
		return queryir.Const{Term: ir.NewBlankNode(tok.Text)}, nil
	case tokPunct:
		switch tok.Text {
		case "[":
			return p.blankPropertyList(mode, out)
		case "<<":
			return p.quotedTriple(mode)
		case "(":
			return nil, p.unsupported(tok, "RDF collections")
		}
	}
	term, err := p.constant()
	if err != nil {
		return nil, err
	}
	return queryir.Const{Term: term}, nil
}

// quotedTriple parses << s p o >>. Only ground quoted triples are supported.
func (p *parser) quotedTriple(mode termMode) (queryir.Node, error) {
	open := p.advance() // <<
	var nested []queryir.TriplePattern
	s, err := p.node(mode, &nested)
	if err != nil {
		return nil, err
	}
	pred, err := p.verb(mode)
	if err != nil {
		return nil, err
	}
	o, err := p.node(mode, &nested)
	if err != nil {
		return nil, err
	}
	if err := p.expectPunct(">>"); err != nil {
		return nil, err
	}

	sc, sok := s.(queryir.Const)
	pc, pok := pred.(queryir.Const)
	oc, ook := o.(queryir.Const)
	if !sok || !pok || !ook || len(nested) > 0 {
		return nil, p.unsupported(open, "variables and blank nodes inside quoted triple patterns")
	}
	if !ir.IsSubject(sc.Term) {
		return nil, p.errorf(open, "%s cannot be a subject", ir.Encode(sc.Term))
	}
	return queryir.Const{Term: ir.Triple{Subject: sc.Term, Predicate: pc.Term.(ir.NamedNode), Object: oc.Term}}, nil
}

// constant parses an IRI, prefixed name, literal, number or boolean.
func (p *parser) constant() (ir.Term, error) {
	tok := p.peek()
	switch tok.Kind {
	case tokIRI, tokPName:
		return p.iri()
	case tokString:
		p.advance()
		return p.literalSuffix(tok)
	case tokInteger:
		p.advance()
		return ir.NewTypedLiteral(tok.Text, ir.XSDInteger), nil
	case tokDecimal:
		p.advance()
		return ir.NewTypedLiteral(tok.Text, ir.XSDDecimal), nil
	case tokDouble:
		p.advance()
		return ir.NewTypedLiteral(tok.Text, ir.XSDDouble), nil
	case tokKeyword:
		switch strings.ToLower(tok.Text) {
		case "true", "false":
			p.advance()
			return ir.NewTypedLiteral(strings.ToLower(tok.Text), ir.XSDBoolean), nil
		}
		if isUnsupportedGroupKeyword(tok.Text) {
			return nil, p.unsupported(tok, strings.ToUpper(tok.Text)+" clauses")
		}
	}
	return nil, p.errorf(tok, "expected term, found %s", tok.describe())
}

func (p *parser) literalSuffix(str token) (ir.Term, error) {
	switch tok := p.peek(); tok.Kind {
	case tokLangTag:
		p.advance()
		lit, err := ir.NewLangLiteral(str.Text, tok.Text)
		if err != nil {
			return nil, p.errorf(tok, "invalid language tag %q", tok.Text)
		}
		return lit, nil
	case tokDatatypeMark:
		p.advance()
		dt, err := p.iri()
		if err != nil {
			return nil, err
		}
		return ir.NewTypedLiteral(str.Text, dt.IRI), nil
	}
	return ir.NewLiteral(str.Text), nil
}

// iri parses an IRI reference or a prefixed name.
func (p *parser) iri() (ir.NamedNode, error) {
	tok := p.advance()
	switch tok.Kind {
	case tokIRI:
		return ir.NewNamedNode(p.resolve(tok.Text)), nil
	case tokPName:
		prefix, local, _ := strings.Cut(tok.Text, ":")
		ns, ok := p.prefixes[prefix]
		if !ok {
			return ir.NamedNode{}, &SyntaxError{
				Code:    ErrCodeUndefinedPrefix,
				Message: fmt.Sprintf("prefix %q is not declared", prefix),
				Pos:     tok.Pos,
			}
		}
		return ir.NewNamedNode(ns + unescapeLocal(local)), nil
	}
	return ir.NamedNode{}, p.errorf(tok, "expected IRI, found %s", tok.describe())
}

func unescapeLocal(local string) string {
	if !strings.Contains(local, `\`) {
		return local
	}
	var b strings.Builder
	for i := 0; i < len(local); i++ {
		if local[i] == '\\' && i+1 < len(local) {
			i++
		}
		b.WriteByte(local[i])
	}
	return b.String()
}

// --- VALUES ---

// valuesBlock parses the data block after the VALUES keyword.
func (p *parser) valuesBlock() (queryir.Values, error) {
	var values queryir.Values

	if tok := p.peek(); tok.Kind == tokVar {
		p.advance()
		values.Vars = []queryir.Var{queryir.Var(tok.Text)}
		if err := p.expectPunct("{"); err != nil {
			return values, err
		}
		for !p.acceptPunct("}") {
			term, err := p.valuesTerm()
			if err != nil {
				return values, err
			}
			values.Rows = append(values.Rows, []ir.Term{term})
		}
		return values, nil
	}

	if err := p.expectPunct("("); err != nil {
		return values, err
	}
	for p.peek().Kind == tokVar {
		values.Vars = append(values.Vars, queryir.Var(p.advance().Text))
	}
	if err := p.expectPunct(")"); err != nil {
		return values, err
	}
	if err := p.expectPunct("{"); err != nil {
		return values, err
	}
	for !p.acceptPunct("}") {
		open := p.peek()
		if err := p.expectPunct("("); err != nil {
			return values, err
		}
		var row []ir.Term
		for !p.acceptPunct(")") {
			term, err := p.valuesTerm()
			if err != nil {
				return values, err
			}
			row = append(row, term)
		}
		if len(row) != len(values.Vars) {
			return values, p.errorf(open, "VALUES row has %d terms, expected %d", len(row), len(values.Vars))
		}
		values.Rows = append(values.Rows, row)
	}
	return values, nil
}

// valuesTerm parses one VALUES cell. UNDEF yields nil.
func (p *parser) valuesTerm() (ir.Term, error) {
	tok := p.peek()
	if tok.Kind == tokEOF {
		return nil, p.errorf(tok, "unterminated VALUES block")
	}
	if p.acceptKeyword("UNDEF") {
		return nil, nil
	}
	if tok.Kind == tokPunct && tok.Text == "<<" {
		node, err := p.quotedTriple(modeData)
		if err != nil {
			return nil, err
		}
		return node.(queryir.Const).Term, nil
	}
	return p.constant()
}

// template parses a CONSTRUCT template: triples only, blank nodes kept.
func (p *parser) template() ([]queryir.TriplePattern, error) {
	if err := p.expectPunct("{"); err != nil {
		return nil, err
	}
	var out []queryir.TriplePattern
	for !p.acceptPunct("}") {
		tok := p.peek()
		switch {
		case tok.Kind == tokEOF:
			return nil, p.errorf(tok, "unterminated template, expected '}'")
		case p.isKeyword("GRAPH"):
			return nil, p.unsupported(tok, "GRAPH blocks in CONSTRUCT templates")
		case p.acceptPunct("."):
		default:
			patterns, err := p.triplesBlock(modeTemplate)
			if err != nil {
				return nil, err
			}
			out = append(out, patterns...)
		}
	}
	return out, nil
}
