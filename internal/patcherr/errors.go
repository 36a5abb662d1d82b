// Package patcherr defines the error taxonomy shared by the merger, the
// resolver, the strategies and the orchestrator.
package patcherr

import (
	"errors"
	"fmt"
)

// Code categorizes a patch error.
type Code string

const (
	// CodeMalformedPatch indicates a mod payload of the wrong JSON shape.
	// It is localized to one target; other targets continue.
	CodeMalformedPatch Code = "MALFORMED_PATCH"

	// CodeTargetNotFound indicates an expected anchor is absent. Whether this
	// is fatal for the target is decided by the strategy.
	CodeTargetNotFound Code = "TARGET_NOT_FOUND"

	// CodeCorruptBaseAsset indicates an index that should resolve does not,
	// or a well-known class is missing. Always fatal for the target.
	CodeCorruptBaseAsset Code = "CORRUPT_BASE_ASSET"
)

// Error is a categorized failure of one (target, strategy) unit.
type Error struct {
	// Code identifies the error category.
	Code Code

	// Message is a human-readable description.
	Message string

	// Target is the logical content-unit path, when known.
	Target string

	// Strategy is the strategy that raised the error, when known.
	Strategy string

	// Details carries additional context, e.g. the expected shape.
	Details map[string]string

	// Err is the underlying cause, if any.
	Err error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	switch {
	case e.Target != "" && e.Strategy != "":
		msg = fmt.Sprintf("%s (target=%s, strategy=%s)", msg, e.Target, e.Strategy)
	case e.Target != "":
		msg = fmt.Sprintf("%s (target=%s)", msg, e.Target)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Malformed creates a MalformedPatch error for target, naming the shape that
// was expected.
func Malformed(target, expected string, cause error) *Error {
	return &Error{
		Code:    CodeMalformedPatch,
		Message: fmt.Sprintf("expected %s", expected),
		Target:  target,
		Details: map[string]string{"expected": expected},
		Err:     cause,
	}
}

// NotFound creates a TargetNotFound error carrying the searched name.
func NotFound(what, name string) *Error {
	return &Error{
		Code:    CodeTargetNotFound,
		Message: fmt.Sprintf("%s %q not found", what, name),
		Details: map[string]string{"name": name},
	}
}

// Corrupt creates a CorruptBaseAsset error.
func Corrupt(format string, args ...any) *Error {
	return &Error{
		Code:    CodeCorruptBaseAsset,
		Message: fmt.Sprintf(format, args...),
	}
}

// WithUnit tags err with the (target, strategy) unit it belongs to. Errors
// that are not an *Error are wrapped as CorruptBaseAsset, since every
// non-categorized failure inside a strategy means the base data did not
// have the shape the strategy relies on.
func WithUnit(err error, target, strategy string) error {
	if err == nil {
		return nil
	}
	var pe *Error
	if errors.As(err, &pe) {
		tagged := *pe
		if tagged.Target == "" {
			tagged.Target = target
		}
		if tagged.Strategy == "" {
			tagged.Strategy = strategy
		}
		return &tagged
	}
	return &Error{
		Code:     CodeCorruptBaseAsset,
		Message:  "unexpected failure",
		Target:   target,
		Strategy: strategy,
		Err:      err,
	}
}

// CodeOf returns the code of the first *Error in err's chain.
func CodeOf(err error) (Code, bool) {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Code, true
	}
	return "", false
}

// IsMalformed reports whether err is a MalformedPatch error.
func IsMalformed(err error) bool { return hasCode(err, CodeMalformedPatch) }

// IsNotFound reports whether err is a TargetNotFound error.
func IsNotFound(err error) bool { return hasCode(err, CodeTargetNotFound) }

// IsCorrupt reports whether err is a CorruptBaseAsset error.
func IsCorrupt(err error) bool { return hasCode(err, CodeCorruptBaseAsset) }

func hasCode(err error, code Code) bool {
	c, ok := CodeOf(err)
	return ok && c == code
}

// Split flattens an errors.Join tree into its leaves, in order.
func Split(err error) []error {
	if err == nil {
		return nil
	}
	joined, ok := err.(interface{ Unwrap() []error })
	if !ok {
		return []error{err}
	}
	var out []error
	for _, e := range joined.Unwrap() {
		out = append(out, Split(e)...)
	}
	return out
}
