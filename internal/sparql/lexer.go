package sparql

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokIRI
	tokPName
	tokBlank
	tokVar
	tokString
	tokLangTag
	tokDatatypeMark
	tokInteger
	tokDecimal
	tokDouble
	tokKeyword
	tokPunct
)

func (k tokenKind) String() string {
	switch k {
	case tokEOF:
		return "end of input"
	case tokIRI:
		return "IRI"
	case tokPName:
		return "prefixed name"
	case tokBlank:
		return "blank node"
	case tokVar:
		return "variable"
	case tokString:
		return "string"
	case tokLangTag:
		return "language tag"
	case tokDatatypeMark:
		return "'^^'"
	case tokInteger, tokDecimal, tokDouble:
		return "number"
	case tokKeyword:
		return "keyword"
	default:
		return "punctuation"
	}
}

// token is one lexeme. Text holds the decoded value: the IRI without angle
// brackets, the variable name without '?', the unescaped string body.
type token struct {
	Kind tokenKind
	Text string
	Pos  int
}

func (t token) describe() string {
	switch t.Kind {
	case tokEOF:
		return "end of input"
	case tokString:
		return "string"
	case tokIRI:
		return "<" + t.Text + ">"
	case tokVar:
		return "?" + t.Text
	}
	return fmt.Sprintf("%q", t.Text)
}

// lexer splits SPARQL text into tokens.
type lexer struct {
	src string
	pos int
}

// tokenize lexes the whole input, ending with a tokEOF token.
func tokenize(src string) ([]token, error) {
	if !utf8.ValidString(src) {
		return nil, &SyntaxError{Code: ErrCodeSyntax, Message: "input is not valid UTF-8"}
	}
	l := &lexer{src: src}
	var toks []token
	for {
		tok, err := l.next()
		if err != nil {
			return nil, err
		}
		toks = append(toks, tok)
		if tok.Kind == tokEOF {
			return toks, nil
		}
	}
}

func (l *lexer) errorf(pos int, format string, args ...any) error {
	return &SyntaxError{Code: ErrCodeSyntax, Message: fmt.Sprintf(format, args...), Pos: pos}
}

func (l *lexer) peekByte(offset int) byte {
	if l.pos+offset < len(l.src) {
		return l.src[l.pos+offset]
	}
	return 0
}

func (l *lexer) skipSpaceAndComments() {
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		switch {
		case c == '#':
			for l.pos < len(l.src) && l.src[l.pos] != '\n' {
				l.pos++
			}
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			l.pos++
		default:
			return
		}
	}
}

func (l *lexer) next() (token, error) {
	l.skipSpaceAndComments()
	start := l.pos
	if l.pos >= len(l.src) {
		return token{Kind: tokEOF, Pos: start}, nil
	}

	c := l.src[l.pos]
	switch {
	case c == '<':
		if l.peekByte(1) == '<' {
			l.pos += 2
			return token{Kind: tokPunct, Text: "<<", Pos: start}, nil
		}
		if tok, ok, err := l.iri(); ok || err != nil {
			return tok, err
		}
		return l.operator(start), nil
	case c == '>' && l.peekByte(1) == '>':
		l.pos += 2
		return token{Kind: tokPunct, Text: ">>", Pos: start}, nil
	case c == '>' || c == '!' || (c == '&' && l.peekByte(1) == '&') || (c == '|' && l.peekByte(1) == '|'):
		return l.operator(start), nil
	case c == '?' || c == '$':
		l.pos++
		name := l.nameRun(false)
		if name == "" {
			return token{Kind: tokPunct, Text: string(c), Pos: start}, nil
		}
		return token{Kind: tokVar, Text: name, Pos: start}, nil
	case c == '_' && l.peekByte(1) == ':':
		l.pos += 2
		label := l.nameRun(true)
		label = strings.TrimRight(label, ".")
		l.pos = start + 2 + len(label)
		if label == "" {
			return token{}, l.errorf(start, "empty blank node label")
		}
		return token{Kind: tokBlank, Text: label, Pos: start}, nil
	case c == '"' || c == '\'':
		return l.str()
	case c == '@':
		l.pos++
		for l.pos < len(l.src) && (isASCIILetter(l.src[l.pos]) || isDigit(l.src[l.pos]) || l.src[l.pos] == '-') {
			l.pos++
		}
		if l.pos == start+1 {
			return token{}, l.errorf(start, "empty language tag")
		}
		return token{Kind: tokLangTag, Text: l.src[start+1 : l.pos], Pos: start}, nil
	case c == '^' && l.peekByte(1) == '^':
		l.pos += 2
		return token{Kind: tokDatatypeMark, Text: "^^", Pos: start}, nil
	case isDigit(c) || ((c == '+' || c == '-' || c == '.') && (isDigit(l.peekByte(1)) || (c != '.' && l.peekByte(1) == '.' && isDigit(l.peekByte(2))))):
		return l.number()
	case strings.IndexByte("{}()[].,;*/|^=!&+-", c) >= 0:
		l.pos++
		return token{Kind: tokPunct, Text: string(c), Pos: start}, nil
	}

	word := l.pnameRun()
	if word == "" {
		r, _ := utf8.DecodeRuneInString(l.src[l.pos:])
		return token{}, l.errorf(start, "unexpected character %q", r)
	}
	if strings.Contains(word, ":") {
		return token{Kind: tokPName, Text: word, Pos: start}, nil
	}
	return token{Kind: tokKeyword, Text: word, Pos: start}, nil
}

// operator lexes a comparison or logical operator: one of < > ! optionally
// followed by '=', or && and ||.
func (l *lexer) operator(start int) token {
	c, n := l.src[l.pos], l.peekByte(1)
	switch {
	case (c == '<' || c == '>' || c == '!') && n == '=':
		l.pos += 2
	case (c == '&' || c == '|') && n == c:
		l.pos += 2
	default:
		l.pos++
	}
	return token{Kind: tokPunct, Text: l.src[start:l.pos], Pos: start}
}

// iri lexes <...>. It reports ok=false when the '<' does not open an IRI.
func (l *lexer) iri() (token, bool, error) {
	start := l.pos
	var b strings.Builder
	i := l.pos + 1
	for i < len(l.src) {
		c := l.src[i]
		switch {
		case c == '>':
			l.pos = i + 1
			return token{Kind: tokIRI, Text: b.String(), Pos: start}, true, nil
		case c == '\\':
			r, n, err := l.uchar(i)
			if err != nil {
				return token{}, false, err
			}
			b.WriteRune(r)
			i += n
		case c <= ' ' || strings.IndexByte("<\"{}|^`", c) >= 0:
			return token{}, false, nil
		default:
			b.WriteByte(c)
			i++
		}
	}
	return token{}, false, nil
}

// uchar decodes \uXXXX or \UXXXXXXXX at offset i.
func (l *lexer) uchar(i int) (rune, int, error) {
	if i+1 >= len(l.src) {
		return 0, 0, l.errorf(i, "truncated escape")
	}
	width := 0
	switch l.src[i+1] {
	case 'u':
		width = 4
	case 'U':
		width = 8
	default:
		return 0, 0, l.errorf(i, "invalid escape \\%c", l.src[i+1])
	}
	if i+2+width > len(l.src) {
		return 0, 0, l.errorf(i, "truncated escape")
	}
	var r rune
	for _, h := range l.src[i+2 : i+2+width] {
		d, ok := hexValue(byte(h))
		if !ok {
			return 0, 0, l.errorf(i, "invalid hex digit in escape")
		}
		r = r<<4 | rune(d)
	}
	if !utf8.ValidRune(r) {
		return 0, 0, l.errorf(i, "escape is not a valid code point")
	}
	return r, 2 + width, nil
}

func (l *lexer) str() (token, error) {
	start := l.pos
	quote := l.src[l.pos]
	long := l.peekByte(1) == quote && l.peekByte(2) == quote
	if long {
		l.pos += 3
	} else {
		l.pos++
	}

	var b strings.Builder
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		switch {
		case c == quote && !long:
			l.pos++
			return token{Kind: tokString, Text: b.String(), Pos: start}, nil
		case c == quote && long && l.peekByte(1) == quote && l.peekByte(2) == quote:
			// A long string may end with up to two extra quote characters.
			for l.peekByte(3) == quote {
				b.WriteByte(quote)
				l.pos++
			}
			l.pos += 3
			return token{Kind: tokString, Text: b.String(), Pos: start}, nil
		case (c == '\n' || c == '\r') && !long:
			return token{}, l.errorf(start, "newline in string")
		case c == '\\':
			if err := l.stringEscape(&b); err != nil {
				return token{}, err
			}
		default:
			r, size := utf8.DecodeRuneInString(l.src[l.pos:])
			b.WriteRune(r)
			l.pos += size
		}
	}
	return token{}, l.errorf(start, "unterminated string")
}

func (l *lexer) stringEscape(b *strings.Builder) error {
	switch l.peekByte(1) {
	case 't':
		b.WriteByte('\t')
	case 'b':
		b.WriteByte('\b')
	case 'n':
		b.WriteByte('\n')
	case 'r':
		b.WriteByte('\r')
	case 'f':
		b.WriteByte('\f')
	case '"', '\'', '\\':
		b.WriteByte(l.peekByte(1))
	case 'u', 'U':
		r, n, err := l.uchar(l.pos)
		if err != nil {
			return err
		}
		b.WriteRune(r)
		l.pos += n
		return nil
	default:
		return l.errorf(l.pos, "invalid string escape")
	}
	l.pos += 2
	return nil
}

func (l *lexer) number() (token, error) {
	start := l.pos
	if c := l.src[l.pos]; c == '+' || c == '-' {
		l.pos++
	}
	kind := tokInteger
	l.digits()
	if l.peekByte(0) == '.' && isDigit(l.peekByte(1)) {
		kind = tokDecimal
		l.pos++
		l.digits()
	}
	if c := l.peekByte(0); c == 'e' || c == 'E' {
		save := l.pos
		l.pos++
		if c := l.peekByte(0); c == '+' || c == '-' {
			l.pos++
		}
		if !isDigit(l.peekByte(0)) {
			l.pos = save
		} else {
			kind = tokDouble
			l.digits()
		}
	}
	return token{Kind: kind, Text: l.src[start:l.pos], Pos: start}, nil
}

func (l *lexer) digits() {
	for l.pos < len(l.src) && isDigit(l.src[l.pos]) {
		l.pos++
	}
}

// nameRun consumes variable and blank-node label characters.
func (l *lexer) nameRun(allowDots bool) string {
	start := l.pos
	for l.pos < len(l.src) {
		r, size := utf8.DecodeRuneInString(l.src[l.pos:])
		if r == '_' || r == '-' && l.pos > start || unicode.IsLetter(r) || unicode.IsDigit(r) || (allowDots && r == '.' && l.pos > start) {
			l.pos += size
			continue
		}
		break
	}
	return l.src[start:l.pos]
}

// pnameRun consumes a keyword or prefixed name. A trailing '.' is left for
// the statement terminator.
func (l *lexer) pnameRun() string {
	start := l.pos
	for l.pos < len(l.src) {
		r, size := utf8.DecodeRuneInString(l.src[l.pos:])
		switch {
		case r == '\\' && l.pos+1 < len(l.src) && strings.IndexByte("_~.-!$&'()*+,;=/?#@%", l.src[l.pos+1]) >= 0:
			l.pos += 2
		case r == '%' && l.pos+2 < len(l.src) && isHex(l.src[l.pos+1]) && isHex(l.src[l.pos+2]):
			l.pos += 3
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '-' || r == ':' || (r == '.' && l.pos > start):
			l.pos += size
		default:
			return l.trimDots(start)
		}
	}
	return l.trimDots(start)
}

func (l *lexer) trimDots(start int) string {
	for l.pos > start && l.src[l.pos-1] == '.' && (l.pos-2 < start || l.src[l.pos-2] != '\\') {
		l.pos--
	}
	return l.src[start:l.pos]
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isASCIILetter(c byte) bool { return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' }

func isHex(c byte) bool {
	_, ok := hexValue(c)
	return ok
}

func hexValue(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}
