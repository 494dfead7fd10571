package engine

import (
	"errors"
	"fmt"
)

// DefaultMaxSolutions bounds how many solutions an update or CONSTRUCT may
// materialize in memory before it is aborted.
const DefaultMaxSolutions = 1_000_000

// solutionQuota counts solutions as they are decoded and enforces the
// engine's limit. One quota is created per request.
//
// Queries that stream straight from SQL (SELECT, ASK) are not counted;
// updates and CONSTRUCT must hold every solution before acting on them.
type solutionQuota struct {
	limit   int // Maximum allowed solutions; 0 disables the check
	current int
}

func newSolutionQuota(limit int) *solutionQuota {
	return &solutionQuota{limit: limit}
}

// Check increments the counter and validates against the limit.
func (q *solutionQuota) Check() error {
	q.current++
	if q.limit > 0 && q.current > q.limit {
		return &SolutionLimitError{Solutions: q.current, Limit: q.limit}
	}
	return nil
}

// SolutionLimitError is returned when a request exceeds the solution quota.
// The request is aborted; an update makes no changes.
type SolutionLimitError struct {
	Solutions int // Solutions decoded when the limit was hit
	Limit     int // Maximum allowed solutions
}

// Error implements the error interface.
func (e *SolutionLimitError) Error() string {
	return fmt.Sprintf("request exceeded solution quota: %d solutions > %d limit", e.Solutions, e.Limit)
}

// IsSolutionLimitError returns true if the error is a SolutionLimitError.
// Uses errors.As to handle wrapped errors.
func IsSolutionLimitError(err error) bool {
	var se *SolutionLimitError
	return errors.As(err, &se)
}
