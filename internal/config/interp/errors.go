package interp

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for resolution failures. Each typed error below matches
// its sentinel with errors.Is.
var (
	// ErrKeyNotFound indicates a key reference to a path that does not exist.
	ErrKeyNotFound = errors.New("key not found")

	// ErrCyclicReference indicates key references that form a cycle.
	ErrCyclicReference = errors.New("cyclic reference")

	// ErrDurationParse indicates a malformed duration expression.
	ErrDurationParse = errors.New("invalid duration")

	// ErrRegexSyntax indicates an invalid regular expression.
	ErrRegexSyntax = errors.New("invalid regular expression")

	// ErrEvaluation indicates a snippet that failed to evaluate.
	ErrEvaluation = errors.New("snippet evaluation failed")

	// ErrEvaluationTimeout indicates a snippet that ran past its deadline.
	ErrEvaluationTimeout = errors.New("snippet evaluation timed out")
)

// ResolveError wraps any failure while resolving a placeholder with the
// location of the leaf that holds it.
type ResolveError struct {
	// Path is the dotted path of the leaf.
	Path string
	// Raw is the placeholder text as written, for example "k{ a.b }".
	Raw string
	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *ResolveError) Error() string {
	return fmt.Sprintf("resolving %s at %s: %v", e.Raw, e.Path, e.Err)
}

// Unwrap returns the underlying error.
func (e *ResolveError) Unwrap() error {
	return e.Err
}

// KeyNotFoundError is returned when a key reference names a missing path.
type KeyNotFoundError struct {
	// Key is the reference as written.
	Key string
	// Missing is the longest prefix of Key that could not be found.
	Missing string
}

// Error implements the error interface.
func (e *KeyNotFoundError) Error() string {
	if e.Missing != "" && e.Missing != e.Key {
		return fmt.Sprintf("key %q not found: no value at %s", e.Key, e.Missing)
	}
	return fmt.Sprintf("key %q not found", e.Key)
}

// Is implements error matching for KeyNotFoundError.
func (e *KeyNotFoundError) Is(target error) bool {
	return target == ErrKeyNotFound
}

// CyclicReferenceError is returned when resolving a leaf requires its own
// value.
type CyclicReferenceError struct {
	// Cycle lists the paths involved, starting and ending with the same path.
	Cycle []string
}

// Error implements the error interface.
func (e *CyclicReferenceError) Error() string {
	return "cyclic reference: " + strings.Join(e.Cycle, " -> ")
}

// Is implements error matching for CyclicReferenceError.
func (e *CyclicReferenceError) Is(target error) bool {
	return target == ErrCyclicReference
}

// DurationParseError is returned for malformed duration expressions.
type DurationParseError struct {
	Input   string
	Message string
}

// Error implements the error interface.
func (e *DurationParseError) Error() string {
	return fmt.Sprintf("invalid duration %q: %s", e.Input, e.Message)
}

// Is implements error matching for DurationParseError.
func (e *DurationParseError) Is(target error) bool {
	return target == ErrDurationParse
}

// RegexSyntaxError is returned for regular expressions that do not compile.
type RegexSyntaxError struct {
	Pattern string
	Err     error
}

// Error implements the error interface.
func (e *RegexSyntaxError) Error() string {
	return fmt.Sprintf("invalid regular expression %q: %v", e.Pattern, e.Err)
}

// Unwrap returns the underlying error.
func (e *RegexSyntaxError) Unwrap() error {
	return e.Err
}

// Is implements error matching for RegexSyntaxError.
func (e *RegexSyntaxError) Is(target error) bool {
	return target == ErrRegexSyntax
}

// EvaluationError is returned when a snippet fails to compile or run.
type EvaluationError struct {
	// Engine is the evaluator name, "lua" or "jq".
	Engine string
	// Expr is the snippet body.
	Expr string
	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *EvaluationError) Error() string {
	return fmt.Sprintf("%s snippet %q: %v", e.Engine, e.Expr, e.Err)
}

// Unwrap returns the underlying error.
func (e *EvaluationError) Unwrap() error {
	return e.Err
}

// Is implements error matching for EvaluationError.
func (e *EvaluationError) Is(target error) bool {
	return target == ErrEvaluation
}
