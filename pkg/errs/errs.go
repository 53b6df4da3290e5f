// Package errs defines the error taxonomy used across the mission planner
// core: InvalidInput, NotFound, Conflict, ComputationFailed and the
// non-fatal Warning category (spec §7).
package errs

import (
	"fmt"

	"github.com/pkg/errors"
)

// Category is a closed enumeration of the error taxonomy.
type Category int

const (
	// CategoryInvalidInput covers malformed coordinates, non-monotonic
	// timestamps, unknown satellite ids, unknown AAR waypoint names.
	CategoryInvalidInput Category = iota
	// CategoryNotFound covers unknown mission/leg/route ids.
	CategoryNotFound
	// CategoryConflict covers concurrent-modification detection via
	// snapshot version.
	CategoryConflict
	// CategoryComputationFailed covers evaluator exceptions; the previous
	// good snapshot is retained by the caller.
	CategoryComputationFailed
	// CategoryWarning covers non-fatal advisories surfaced alongside an
	// otherwise successful result.
	CategoryWarning
)

func (c Category) String() string {
	switch c {
	case CategoryInvalidInput:
		return "invalid_input"
	case CategoryNotFound:
		return "not_found"
	case CategoryConflict:
		return "conflict"
	case CategoryComputationFailed:
		return "computation_failed"
	case CategoryWarning:
		return "warning"
	default:
		return "unknown"
	}
}

// Error is a categorized, wrapped error.
type Error struct {
	Category Category
	Op       string
	err      error
}

func (e *Error) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("%s: %v", e.Category, e.err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Category, e.Op, e.err)
}

func (e *Error) Unwrap() error { return e.err }

// Is reports whether target is an *Error with the same Category, so callers
// can do errors.Is(err, errs.NotFoundSentinel) style checks via the category
// sentinels below.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Category == t.Category
}

func newf(category Category, op, format string, args ...interface{}) *Error {
	return &Error{Category: category, Op: op, err: errors.Errorf(format, args...)}
}

func wrap(category Category, op string, err error) *Error {
	if err == nil {
		return nil
	}
	return &Error{Category: category, Op: op, err: errors.WithStack(err)}
}

// InvalidInput builds a CategoryInvalidInput error.
func InvalidInput(op, format string, args ...interface{}) *Error {
	return newf(CategoryInvalidInput, op, format, args...)
}

// WrapInvalidInput wraps err as CategoryInvalidInput.
func WrapInvalidInput(op string, err error) *Error { return wrap(CategoryInvalidInput, op, err) }

// NotFound builds a CategoryNotFound error.
func NotFound(op, format string, args ...interface{}) *Error {
	return newf(CategoryNotFound, op, format, args...)
}

// Conflict builds a CategoryConflict error.
func Conflict(op, format string, args ...interface{}) *Error {
	return newf(CategoryConflict, op, format, args...)
}

// ComputationFailed builds a CategoryComputationFailed error.
func ComputationFailed(op, format string, args ...interface{}) *Error {
	return newf(CategoryComputationFailed, op, format, args...)
}

// WrapComputationFailed wraps err as CategoryComputationFailed.
func WrapComputationFailed(op string, err error) *Error {
	return wrap(CategoryComputationFailed, op, err)
}

// Warning builds a CategoryWarning error. Warnings are non-fatal: callers
// typically collect their .Error() text into a response's warnings[] array
// rather than aborting the operation.
func Warning(op, format string, args ...interface{}) *Error {
	return newf(CategoryWarning, op, format, args...)
}

// Sentinel category markers for errors.Is comparisons.
var (
	NotFoundSentinel          = &Error{Category: CategoryNotFound}
	ConflictSentinel          = &Error{Category: CategoryConflict}
	InvalidInputSentinel      = &Error{Category: CategoryInvalidInput}
	ComputationFailedSentinel = &Error{Category: CategoryComputationFailed}
)

// CategoryOf extracts the Category from err, if it (or something it wraps)
// is an *Error.
func CategoryOf(err error) (Category, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Category, true
	}
	return 0, false
}
