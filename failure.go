package ometa

import (
	"fmt"
	"reflect"
	"sort"
)

// NoPosition is the position of failures that don't point anywhere
// in the input, like the one returned when a rule is found calling
// itself at the same position it started at.
const NoPosition = -1

// Kinds of expectations created by the engine.  Grammars are free to
// create their own kinds through `Expected`.
const (
	KindLiteral  = "literal"
	KindRange    = "range"
	KindMessage  = "message"
	KindIterable = "iterable"
)

// Expectation describes one item the parser wanted to see at the
// position of a failure.  Value is nil for items that are described
// by their kind alone, like "a letter".
type Expectation struct {
	Kind  string
	Value any
}

// Expected creates an expectation of kind `kind`, optionally carrying
// the exact value that was expected.
func Expected(kind string, value any) Expectation {
	return Expectation{Kind: kind, Value: value}
}

// Message creates an expectation that is rendered verbatim
func Message(msg string) Expectation {
	return Expectation{Kind: KindMessage, Value: msg}
}

func (x Expectation) equal(o Expectation) bool {
	return x.Kind == o.Kind && reflect.DeepEqual(x.Value, o.Value)
}

// Failure is the single error type that takes part in backtracking.
// Every combinator that can't match returns a *Failure, and every
// combinator that can recover from a mismatch (choice, repetition,
// lookahead, ...) only recovers from *Failure values.  Any other
// error is fatal and goes straight up to the caller of the parse.
type Failure struct {
	Position int
	Expected []Expectation
}

// NewFailure creates a failure at `pos`
func NewFailure(pos int, expected ...Expectation) *Failure {
	return &Failure{Position: pos, Expected: expected}
}

// Error returns a short description of the failure.  Use
// `FormatFailure` to render it against its source text.
func (f *Failure) Error() string {
	if f.Position == NoPosition {
		return "parse error: " + Reason(f)
	}
	return fmt.Sprintf("parse error at position %d: %s", f.Position, Reason(f))
}

// Is allows `errors.Is` to compare two failures by position and
// expected items
func (f *Failure) Is(target error) bool {
	o, ok := target.(*Failure)
	if !ok || o.Position != f.Position || len(o.Expected) != len(f.Expected) {
		return false
	}
	for i := range f.Expected {
		if !f.Expected[i].equal(o.Expected[i]) {
			return false
		}
	}
	return true
}

// add appends `items` that aren't already present in the failure
func (f *Failure) add(items ...Expectation) {
outer:
	for _, item := range items {
		for _, existing := range f.Expected {
			if existing.equal(item) {
				continue outer
			}
		}
		f.Expected = append(f.Expected, item)
	}
}

// JoinFailures returns the failure that went the furthest into the
// input.  Failures at that same position have their expected items
// merged in the order they were given.  Nil entries are skipped and
// the result is never nil.
func JoinFailures(failures ...*Failure) *Failure {
	live := make([]*Failure, 0, len(failures))
	for _, f := range failures {
		if f != nil {
			live = append(live, f)
		}
	}
	if len(live) == 0 {
		return NewFailure(NoPosition)
	}
	sort.SliceStable(live, func(i, j int) bool {
		return live[i].Position > live[j].Position
	})
	joined := NewFailure(live[0].Position)
	for _, f := range live {
		if f.Position != joined.Position {
			break
		}
		joined.add(f.Expected...)
	}
	return joined
}
