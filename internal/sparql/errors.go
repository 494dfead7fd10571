package sparql

import (
	"errors"
	"fmt"
)

// SyntaxError reports text the parser could not turn into the algebra.
type SyntaxError struct {
	// Code identifies the error category.
	Code SyntaxErrorCode

	// Message is a human-readable description.
	Message string

	// Pos is the byte offset in the input where the problem was found.
	Pos int
}

// SyntaxErrorCode categorizes syntax errors.
type SyntaxErrorCode string

const (
	// ErrCodeSyntax indicates malformed input.
	ErrCodeSyntax SyntaxErrorCode = "SYNTAX"

	// ErrCodeUnsupported indicates valid SPARQL outside the supported fragment.
	ErrCodeUnsupported SyntaxErrorCode = "UNSUPPORTED"

	// ErrCodeUndefinedPrefix indicates a prefixed name with no PREFIX declaration.
	ErrCodeUndefinedPrefix SyntaxErrorCode = "UNDEFINED_PREFIX"
)

// Error implements the error interface.
func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s at offset %d: %s", e.Code, e.Pos, e.Message)
}

// IsUnsupported returns true if the error rejects a SPARQL feature the
// fragment does not cover. Uses errors.As to handle wrapped errors.
func IsUnsupported(err error) bool {
	var se *SyntaxError
	if errors.As(err, &se) {
		return se.Code == ErrCodeUnsupported
	}
	return false
}

// IsSyntaxError returns true for any *SyntaxError in the chain.
func IsSyntaxError(err error) bool {
	var se *SyntaxError
	return errors.As(err, &se)
}
