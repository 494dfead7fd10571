package engine

import (
	"errors"
	"fmt"

	"github.com/roach88/rdfstore/internal/sparql"
)

// ErrClosed is returned by every operation on an engine whose last
// reference has been released.
var ErrClosed = errors.New("engine is closed")

// EvalError represents a failure to evaluate a query, update or document.
//
// EvalError includes structured fields for diagnostics. Cause carries the
// underlying error (a *sparql.SyntaxError for parse failures) and is
// reachable through errors.As.
type EvalError struct {
	// Code identifies the error category.
	Code EvalErrorCode

	// Message is a human-readable description.
	Message string

	// Details contains additional context.
	Details map[string]string

	Cause error
}

// EvalErrorCode categorizes evaluation errors.
type EvalErrorCode string

const (
	// ErrCodeParse indicates malformed query or update text.
	ErrCodeParse EvalErrorCode = "PARSE_ERROR"

	// ErrCodeUnsupported indicates a SPARQL feature outside the supported fragment.
	ErrCodeUnsupported EvalErrorCode = "UNSUPPORTED"

	// ErrCodeInvalid indicates a request that parsed but cannot be executed.
	ErrCodeInvalid EvalErrorCode = "INVALID_REQUEST"

	// ErrCodeGraphExists indicates CREATE GRAPH on an existing graph.
	ErrCodeGraphExists EvalErrorCode = "GRAPH_EXISTS"

	// ErrCodeGraphNotFound indicates CLEAR or DROP of a missing graph.
	ErrCodeGraphNotFound EvalErrorCode = "GRAPH_NOT_FOUND"

	// ErrCodeFormat indicates an unknown or unusable document format.
	ErrCodeFormat EvalErrorCode = "UNSUPPORTED_FORMAT"

	// ErrCodeLoad indicates a document that could not be parsed or stored.
	ErrCodeLoad EvalErrorCode = "LOAD_FAILED"
)

// Error implements the error interface.
func (e *EvalError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *EvalError) Unwrap() error {
	return e.Cause
}

// IsUnsupported returns true if the error rejects an unsupported feature.
// Uses errors.As to handle wrapped errors.
func IsUnsupported(err error) bool {
	var ee *EvalError
	if errors.As(err, &ee) {
		return ee.Code == ErrCodeUnsupported
	}
	return false
}

// IsParseError returns true if the request text was malformed.
func IsParseError(err error) bool {
	var ee *EvalError
	if errors.As(err, &ee) {
		return ee.Code == ErrCodeParse
	}
	return false
}

// CodeOf returns the EvalError code in err's chain, or "" if there is none.
func CodeOf(err error) EvalErrorCode {
	var ee *EvalError
	if errors.As(err, &ee) {
		return ee.Code
	}
	return ""
}

// newParseError classifies a parser failure.
func newParseError(what string, err error) *EvalError {
	code := ErrCodeParse
	if sparql.IsUnsupported(err) {
		code = ErrCodeUnsupported
	}
	return &EvalError{Code: code, Message: "cannot parse " + what, Cause: err}
}

func newGraphError(code EvalErrorCode, graph string) *EvalError {
	msg := "graph already exists"
	if code == ErrCodeGraphNotFound {
		msg = "graph does not exist"
	}
	return &EvalError{Code: code, Message: msg, Details: map[string]string{"graph": graph}}
}
