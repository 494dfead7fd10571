package adapter

import "errors"

var (
	// ErrAlreadyOpen is returned by Open on a store that is opened or closed,
	// including one opened lazily by an earlier operation.
	ErrAlreadyOpen = errors.New("store is already open")

	// ErrClosed is returned by operations on a closed store.
	ErrClosed = errors.New("store is closed")

	// ErrFormulaNotSupported is returned when a caller asks to store quoted
	// formulas.
	ErrFormulaNotSupported = errors.New("store is not formula aware")

	// ErrNotImplemented is returned for request shapes the store does not
	// support: prepared queries, extra evaluator arguments, and updates with
	// bindings or a non-default scope.
	ErrNotImplemented = errors.New("not implemented")

	// ErrUnexpectedResultShape is returned when the engine yields a result
	// that is neither a boolean, a solution sequence nor a triple sequence.
	ErrUnexpectedResultShape = errors.New("unexpected query result shape")

	// ErrNotPersistent is returned by Destroy for a configuration without a path.
	ErrNotPersistent = errors.New("configuration does not name a persistent store")
)
