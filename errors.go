package ometa

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMaxDepth is returned when rule applications nest deeper
	// than the `engine.max_depth` setting allows
	ErrMaxDepth = errors.New("maximum rule nesting depth exceeded")

	// ErrBadRange is returned when the bounds of a range can't be
	// compared with each other or aren't in ascending order
	ErrBadRange = errors.New("invalid range")

	// ErrNoEvaluator is returned when a grammar carries action or
	// predicate text but the engine has no evaluator to run it
	ErrNoEvaluator = errors.New("no action evaluator configured")

	// ErrFail can be returned by evaluators to signal that the
	// action or predicate failed.  The engine turns it into a
	// Failure at the current position so it backtracks as usual.
	ErrFail = errors.New("action failed")
)

// ParseError is the error returned by a top-level parse that could
// not finish.  It carries the furthest failure seen during the whole
// parse and, for textual input, the source text so it can render a
// diagnostic.
type ParseError struct {
	Rule    string
	Failure *Failure
	Source  string
	text    bool
}

// Error returns the diagnostic for the failure
func (e *ParseError) Error() string {
	if !e.text {
		return e.Failure.Error()
	}
	return FormatFailure(e.Source, e.Failure)
}

// Unwrap gives access to the failure
func (e *ParseError) Unwrap() error {
	return e.Failure
}

// UndefinedRuleError is returned when a rule is applied but neither
// the grammar nor any of its ancestors defines it.  It's fatal: no
// choice operator will try an alternative after it.
type UndefinedRuleError struct {
	Name    string
	Grammar string
	Hints   []string
}

func (e *UndefinedRuleError) Error() string {
	msg := fmt.Sprintf("no rule named `%s` in grammar `%s`", e.Name, e.Grammar)
	switch len(e.Hints) {
	case 0:
		return msg
	case 1:
		return fmt.Sprintf("%s, did you mean `%s`?", msg, e.Hints[0])
	default:
		return fmt.Sprintf("%s, did you mean one of `%s`?", msg, strings.Join(e.Hints, "`, `"))
	}
}

// asFailure returns the failure within `err` if it's a backtracking
// error.  Every other error is considered fatal.
func asFailure(err error) (*Failure, bool) {
	var f *Failure
	if errors.As(err, &f) {
		return f, true
	}
	return nil, false
}
