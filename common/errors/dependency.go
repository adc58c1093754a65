package errors

import (
	"errors"
	"fmt"
)

// Dependency names used in labels and page text
const (
	DependencyRedis = "Redis"
)

// DependencyError reports a failed round-trip to an external service.
// Its message is shown to visitors verbatim, so it always carries the
// "<Dependency> Error:" prefix.
type DependencyError struct {
	Dependency string
	Op         string
	Err        error
}

// NewDependencyError wraps err as a failure of dependency during op.
func NewDependencyError(dependency, op string, err error) *DependencyError {
	return &DependencyError{Dependency: dependency, Op: op, Err: err}
}

func (e *DependencyError) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("%s Error: %v", e.Dependency, e.Err)
	}
	return fmt.Sprintf("%s Error: %s: %v", e.Dependency, e.Op, e.Err)
}

func (e *DependencyError) Unwrap() error {
	return e.Err
}

// AsDependencyError reports whether err wraps a DependencyError.
func AsDependencyError(err error) (*DependencyError, bool) {
	var depErr *DependencyError
	if errors.As(err, &depErr) {
		return depErr, true
	}
	return nil, false
}

// Describe returns the page text for err. Errors that did not come from a
// dependency are attributed to fallback.
func Describe(err error, fallback string) string {
	if err == nil {
		return ""
	}
	if depErr, ok := AsDependencyError(err); ok {
		return depErr.Error()
	}
	return NewDependencyError(fallback, "", err).Error()
}
