package ir

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Encode produces the canonical encoding of a term.
// CRITICAL: This is the ONLY serialization used for storage keys. Two terms
// are the same term iff their encodings are byte-identical.
//
// Differences from free-form N-Triples:
// 1. xsd:string is never written as an explicit datatype
// 2. Language tags are lowercase (enforced at construction)
// 3. The default graph encodes as ""
//
// Lexical forms are written as given. Literals that differ only in Unicode
// normalization are distinct terms.
func Encode(t Term) string {
	var b strings.Builder
	encodeTo(&b, t)
	return b.String()
}

func encodeTo(b *strings.Builder, t Term) {
	switch v := t.(type) {
	case nil, DefaultGraph:
		// default graph encodes as nothing
	case NamedNode:
		b.WriteByte('<')
		writeIRI(b, v.IRI)
		b.WriteByte('>')
	case BlankNode:
		b.WriteString("_:")
		b.WriteString(v.ID)
	case Literal:
		b.WriteByte('"')
		writeString(b, v.Value)
		b.WriteByte('"')
		switch {
		case v.Language != "":
			b.WriteByte('@')
			b.WriteString(v.Language)
		case v.Datatype.IRI != "" && v.Datatype.IRI != XSDString:
			b.WriteString("^^<")
			writeIRI(b, v.Datatype.IRI)
			b.WriteByte('>')
		}
	case Triple:
		b.WriteString("<< ")
		encodeTo(b, v.Subject)
		b.WriteByte(' ')
		encodeTo(b, v.Predicate)
		b.WriteByte(' ')
		encodeTo(b, v.Object)
		b.WriteString(" >>")
	case Quad:
		b.WriteString(v.String())
	}
}

// writeIRI escapes characters that may not appear inside an IRIREF.
func writeIRI(b *strings.Builder, iri string) {
	for _, r := range iri {
		switch {
		case r <= 0x20, strings.ContainsRune("<>\"{}|^`\\", r):
			fmt.Fprintf(b, "\\u%04X", r)
		default:
			b.WriteRune(r)
		}
	}
}

func writeString(b *strings.Builder, s string) {
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			if r < 0x20 || r == 0x7f {
				fmt.Fprintf(b, "\\u%04X", r)
			} else {
				b.WriteRune(r)
			}
		}
	}
}

// Decode parses a canonical encoding back into a term.
// The empty string decodes to DefaultGraph.
func Decode(s string) (Term, error) {
	if s == "" {
		return DefaultGraph{}, nil
	}
	d := &decoder{src: s}
	t, err := d.term()
	if err != nil {
		return nil, err
	}
	d.skipSpace()
	if d.pos != len(d.src) {
		return nil, fmt.Errorf("decode %q: trailing input at offset %d", s, d.pos)
	}
	return t, nil
}

// MustDecode is Decode for values read back from the store, which were
// produced by Encode. It panics on malformed input.
func MustDecode(s string) Term {
	t, err := Decode(s)
	if err != nil {
		panic(err)
	}
	return t
}

type decoder struct {
	src string
	pos int
}

func (d *decoder) skipSpace() {
	for d.pos < len(d.src) && (d.src[d.pos] == ' ' || d.src[d.pos] == '\t') {
		d.pos++
	}
}

func (d *decoder) errorf(format string, args ...any) error {
	return fmt.Errorf("decode %q at offset %d: %s", d.src, d.pos, fmt.Sprintf(format, args...))
}

func (d *decoder) term() (Term, error) {
	d.skipSpace()
	if d.pos >= len(d.src) {
		return nil, d.errorf("unexpected end of input")
	}
	switch {
	case strings.HasPrefix(d.src[d.pos:], "<<"):
		return d.tripleTerm()
	case d.src[d.pos] == '<':
		iri, err := d.iri()
		if err != nil {
			return nil, err
		}
		return NamedNode{IRI: iri}, nil
	case strings.HasPrefix(d.src[d.pos:], "_:"):
		d.pos += 2
		start := d.pos
		for d.pos < len(d.src) && d.src[d.pos] != ' ' && d.src[d.pos] != '\t' {
			d.pos++
		}
		if start == d.pos {
			return nil, d.errorf("empty blank node label")
		}
		return BlankNode{ID: d.src[start:d.pos]}, nil
	case d.src[d.pos] == '"':
		return d.literal()
	}
	return nil, d.errorf("unexpected character %q", d.src[d.pos])
}

func (d *decoder) tripleTerm() (Term, error) {
	d.pos += 2
	s, err := d.term()
	if err != nil {
		return nil, err
	}
	p, err := d.term()
	if err != nil {
		return nil, err
	}
	pred, ok := p.(NamedNode)
	if !ok {
		return nil, d.errorf("triple term predicate must be an IRI")
	}
	o, err := d.term()
	if err != nil {
		return nil, err
	}
	d.skipSpace()
	if !strings.HasPrefix(d.src[d.pos:], ">>") {
		return nil, d.errorf("unterminated triple term")
	}
	d.pos += 2
	return Triple{Subject: s, Predicate: pred, Object: o}, nil
}

func (d *decoder) iri() (string, error) {
	d.pos++ // '<'
	var b strings.Builder
	for d.pos < len(d.src) {
		c := d.src[d.pos]
		switch c {
		case '>':
			d.pos++
			return b.String(), nil
		case '\\':
			r, err := d.uchar()
			if err != nil {
				return "", err
			}
			b.WriteRune(r)
		default:
			b.WriteByte(c)
			d.pos++
		}
	}
	return "", d.errorf("unterminated IRI")
}

// uchar decodes \uXXXX or \UXXXXXXXX at the current position.
func (d *decoder) uchar() (rune, error) {
	if d.pos+1 >= len(d.src) {
		return 0, d.errorf("truncated escape")
	}
	width := 0
	switch d.src[d.pos+1] {
	case 'u':
		width = 4
	case 'U':
		width = 8
	default:
		return 0, d.errorf("invalid escape \\%c", d.src[d.pos+1])
	}
	start := d.pos + 2
	if start+width > len(d.src) {
		return 0, d.errorf("truncated unicode escape")
	}
	n, err := strconv.ParseUint(d.src[start:start+width], 16, 32)
	if err != nil || !utf8.ValidRune(rune(n)) {
		return 0, d.errorf("invalid unicode escape")
	}
	d.pos = start + width
	return rune(n), nil
}

func (d *decoder) literal() (Term, error) {
	d.pos++ // opening quote
	var b strings.Builder
	closed := false
	for d.pos < len(d.src) && !closed {
		c := d.src[d.pos]
		switch c {
		case '"':
			d.pos++
			closed = true
		case '\\':
			if d.pos+1 >= len(d.src) {
				return nil, d.errorf("truncated escape")
			}
			switch d.src[d.pos+1] {
			case 'u', 'U':
				r, err := d.uchar()
				if err != nil {
					return nil, err
				}
				b.WriteRune(r)
				continue
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
			case '"':
				b.WriteByte('"')
			case '\'':
				b.WriteByte('\'')
			case '\\':
				b.WriteByte('\\')
			default:
				return nil, d.errorf("invalid escape \\%c", d.src[d.pos+1])
			}
			d.pos += 2
		default:
			b.WriteByte(c)
			d.pos++
		}
	}
	if !closed {
		return nil, d.errorf("unterminated literal")
	}
	value := b.String()
	switch {
	case strings.HasPrefix(d.src[d.pos:], "@"):
		d.pos++
		start := d.pos
		for d.pos < len(d.src) && isLangChar(d.src[d.pos]) {
			d.pos++
		}
		return NewLangLiteral(value, d.src[start:d.pos])
	case strings.HasPrefix(d.src[d.pos:], "^^<"):
		d.pos += 2
		dt, err := d.iri()
		if err != nil {
			return nil, err
		}
		return NewTypedLiteral(value, dt), nil
	}
	return NewLiteral(value), nil
}

func isLangChar(c byte) bool {
	return c == '-' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}
