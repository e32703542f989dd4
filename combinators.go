package ometa

import (
	"fmt"
	"reflect"
	"strings"
	"unicode"
	"unicode/utf8"
)

// ParserFn is an expression that runs against the engine.  Every
// combinator below takes its operands as ParserFn values and runs
// them right away, so a compiled grammar is a tree of closures
// calling these methods.
type ParserFn func(e *Engine) (any, error)

// Anything returns the next token and advances the input
func (e *Engine) Anything() (any, error) {
	tok, err := e.input.Head()
	if err != nil {
		e.consider(err)
		return nil, err
	}
	e.input = e.input.Tail()
	return tok, nil
}

// Exactly matches the next token if it's equal to `want`.  Nothing
// is consumed when it isn't.
func (e *Engine) Exactly(want any) (any, error) {
	start := e.input
	tok, err := start.Head()
	if err == nil && tokenEqual(tok, want) {
		e.input = start.Tail()
		return tok, nil
	}
	return nil, e.failAt(start.Position(), Expected(KindLiteral, want))
}

// MatchString matches each rune of `s` against the next tokens and
// returns `s`.  The failure points at the first token that differs.
func (e *Engine) MatchString(s string) (any, error) {
	start := e.input
	for _, r := range s {
		if _, err := e.Exactly(r); err != nil {
			e.input = start
			return nil, err
		}
	}
	return s, nil
}

// Token is MatchString after skipping whitespace
func (e *Engine) Token(s string) (any, error) {
	start := e.input
	e.Spaces()
	v, err := e.MatchString(s)
	if err != nil {
		e.input = start
		return nil, err
	}
	return v, nil
}

// rangeSpan is the value of expectations created by Range
type rangeSpan struct {
	Lo, Hi any
}

func (r rangeSpan) String() string {
	return quote(r.Lo) + ".." + quote(r.Hi)
}

// Range matches the next token if it's within `lo` and `hi`, both
// inclusive.  Bounds that can't be compared with each other, or that
// aren't in ascending order, are a fatal ErrBadRange.
func (e *Engine) Range(lo, hi any) (any, error) {
	if c, err := compareTokens(lo, hi); err != nil || c > 0 {
		return nil, fmt.Errorf("%w: %s..%s", ErrBadRange, quote(lo), quote(hi))
	}
	start := e.input
	tok, err := start.Head()
	if err == nil {
		c1, err1 := compareTokens(lo, tok)
		c2, err2 := compareTokens(tok, hi)
		if err1 == nil && err2 == nil && c1 <= 0 && c2 <= 0 {
			e.input = start.Tail()
			return tok, nil
		}
	}
	return nil, e.failAt(start.Position(), Expected(KindRange, rangeSpan{lo, hi}))
}

// Sequence runs each expression in order and returns the value of
// the last one.  The input is restored if any of them fails.
func (e *Engine) Sequence(fns ...ParserFn) (any, error) {
	start := e.input
	var value any
	for _, fn := range fns {
		v, err := fn(e)
		if err != nil {
			e.input = start
			return nil, err
		}
		value = v
	}
	return value, nil
}

// Or returns the value of the first expression that matches.  When
// none does, the failures of all of them are merged.
func (e *Engine) Or(fns ...ParserFn) (any, error) {
	start := e.input
	failures := make([]*Failure, 0, len(fns))
	for _, fn := range fns {
		v, err := fn(e)
		if err == nil {
			return v, nil
		}
		f, ok := asFailure(err)
		if !ok {
			return nil, err
		}
		failures = append(failures, f)
		e.input = start
	}
	if len(failures) == 0 {
		return nil, e.failAt(start.Position())
	}
	return nil, JoinFailures(failures...)
}

// Xor tries every expression from the same position and succeeds only
// if exactly one of them matches.  More than one match fails with a
// message naming the first two values.
func (e *Engine) Xor(fns ...ParserFn) (any, error) {
	start := e.input
	var (
		failures []*Failure
		values   []any
		end      Input
	)
	for _, fn := range fns {
		e.input = start
		v, err := fn(e)
		if err != nil {
			f, ok := asFailure(err)
			if !ok {
				e.input = start
				return nil, err
			}
			failures = append(failures, f)
			continue
		}
		if len(values) == 0 {
			end = e.input
		}
		values = append(values, v)
	}
	e.input = start
	switch len(values) {
	case 0:
		if len(failures) == 0 {
			return nil, e.failAt(start.Position())
		}
		return nil, JoinFailures(failures...)
	case 1:
		e.input = end
		return values[0], nil
	}
	return nil, e.failAt(start.Position(),
		Message(fmt.Sprintf("ambiguous match: %s and %s", quote(values[0]), quote(values[1]))))
}

// Many runs `fn` until it fails and returns the values it produced
// after `initial`.  A match that doesn't consume input ends the
// repetition.
func (e *Engine) Many(fn ParserFn, initial ...any) (any, error) {
	values := make([]any, 0, len(initial))
	values = append(values, initial...)
	for {
		before := e.input
		v, err := fn(e)
		if err != nil {
			if _, ok := asFailure(err); !ok {
				return nil, err
			}
			e.input = before
			break
		}
		values = append(values, v)
		if e.input == before {
			break
		}
	}
	return values, nil
}

// Many1 is Many that requires at least one match
func (e *Engine) Many1(fn ParserFn) (any, error) {
	first, err := fn(e)
	if err != nil {
		return nil, err
	}
	return e.Many(fn, first)
}

// Optional returns nil instead of failing when `fn` doesn't match
func (e *Engine) Optional(fn ParserFn) (any, error) {
	start := e.input
	v, err := fn(e)
	if err != nil {
		if _, ok := asFailure(err); !ok {
			return nil, err
		}
		e.input = start
		return nil, nil
	}
	return v, nil
}

// Not succeeds without consuming input when `fn` fails, and fails
// when it matches
func (e *Engine) Not(fn ParserFn) (any, error) {
	start := e.input
	e.quiet++
	_, err := fn(e)
	e.quiet--
	e.input = start
	if err == nil {
		return nil, e.failAt(start.Position())
	}
	if _, ok := asFailure(err); !ok {
		return nil, err
	}
	return true, nil
}

// Lookahead runs `fn` and puts the input back where it was
func (e *Engine) Lookahead(fn ParserFn) (any, error) {
	start := e.input
	v, err := fn(e)
	e.input = start
	return v, err
}

// Bind runs `fn` and binds its value to `name` in `sc`
func (e *Engine) Bind(sc *Scope, name string, fn ParserFn) (any, error) {
	v, err := fn(e)
	if err != nil {
		return nil, err
	}
	sc.Set(name, v)
	return v, nil
}

// ListPattern reads the next token as a sequence of its own and
// requires `fn` to match all of it.  The token is returned.
func (e *Engine) ListPattern(fn ParserFn) (any, error) {
	start := e.input
	tok, err := e.Anything()
	if err != nil {
		return nil, err
	}
	in, err := NewInput(tok)
	if err != nil {
		e.input = start
		return nil, e.failAt(start.Position(), Expected(KindIterable, nil))
	}
	after := e.input
	e.input = in
	e.quiet++
	_, err = e.Sequence(fn, func(e *Engine) (any, error) { return e.End() })
	e.quiet--
	if err != nil {
		e.input = start
		if f, ok := asFailure(err); ok {
			return nil, e.failAt(start.Position(), f.Expected...)
		}
		return nil, err
	}
	e.input = after
	return tok, nil
}

// ConsumedBy returns the tokens `fn` consumed instead of its value.
// Tokens read from text come back as a string.
func (e *Engine) ConsumedBy(fn ParserFn) (any, error) {
	start := e.input
	if _, err := fn(e); err != nil {
		return nil, err
	}
	end := e.input

	sc, ec := asCursor(start), asCursor(end)
	if sc != nil && ec != nil && sc.text && sameData(sc, ec) {
		return textOf(sc, sc.pos, ec.pos), nil
	}
	var tokens []any
	for n := start; n != end; n = n.Tail() {
		tok, err := n.Head()
		if err != nil {
			break
		}
		tokens = append(tokens, tok)
	}
	if tokens == nil {
		tokens = []any{}
	}
	return tokens, nil
}

// Multiplicity tells how many times an interleave part may match
type Multiplicity int

const (
	One Multiplicity = iota
	ZeroOrOne
	ZeroOrMore
	OneOrMore
)

func (m Multiplicity) String() string {
	switch m {
	case ZeroOrOne:
		return "?"
	case ZeroOrMore:
		return "*"
	case OneOrMore:
		return "+"
	}
	return ""
}

func (m Multiplicity) repeats() bool { return m == ZeroOrMore || m == OneOrMore }

func (m Multiplicity) required() bool { return m == One || m == OneOrMore }

// InterleavePart is one operand of Interleave.  Parts with a name get
// their value bound in the scope given to Interleave.
type InterleavePart struct {
	Mode Multiplicity
	Fn   ParserFn
	Name string
}

// Interleave matches its parts in any order.  Single parts match at
// most once, repeating parts collect all their values in a list.  It
// fails when a required part never matched.
func (e *Engine) Interleave(sc *Scope, parts ...InterleavePart) (any, error) {
	start := e.input
	values := make([]any, len(parts))
	counts := make([]int, len(parts))
	for i, p := range parts {
		if p.Mode.repeats() {
			values[i] = []any{}
		}
	}

	var failures []*Failure
	for {
		matched := false
		failures = failures[:0]
		for i, p := range parts {
			if !p.Mode.repeats() && counts[i] > 0 {
				continue
			}
			before := e.input
			v, err := p.Fn(e)
			if err != nil {
				f, ok := asFailure(err)
				if !ok {
					e.input = start
					return nil, err
				}
				failures = append(failures, f)
				e.input = before
				continue
			}
			if p.Mode.repeats() && e.input == before {
				continue
			}
			counts[i]++
			if p.Mode.repeats() {
				values[i] = append(values[i].([]any), v)
			} else {
				values[i] = v
			}
			matched = true
			break
		}
		if !matched {
			break
		}
	}

	for i, p := range parts {
		if p.Mode.required() && counts[i] == 0 {
			e.input = start
			if len(failures) == 0 {
				return nil, e.failAt(e.Position())
			}
			return nil, JoinFailures(failures...)
		}
	}
	for i, p := range parts {
		if p.Name != "" {
			sc.Set(p.Name, values[i])
		}
	}
	return values, nil
}

// Pred fails at the current position unless `fn` returns a truthy
// value
func (e *Engine) Pred(fn ParserFn) (any, error) {
	v, err := fn(e)
	if err != nil {
		return nil, err
	}
	if !Truthy(v) {
		return nil, e.Fail()
	}
	return v, nil
}

// Action runs `fn` for its value without touching the input
func (e *Engine) Action(fn ParserFn) (any, error) {
	return fn(e)
}

// End matches the end of the input
func (e *Engine) End() (any, error) {
	start := e.input
	if _, err := start.Head(); err != nil {
		return true, nil
	}
	return nil, e.failAt(start.Position(), Expected("end of input", nil))
}

// Spaces skips whitespace runes
func (e *Engine) Spaces() (any, error) {
	for {
		tok, err := e.input.Head()
		if err != nil {
			break
		}
		r, ok := tok.(rune)
		if !ok || !unicode.IsSpace(r) {
			break
		}
		e.input = e.input.Tail()
	}
	return true, nil
}

// tokenEqual compares an input token with an expected value.  Runes
// and one rune strings are the same thing, and so are integers of
// different types that hold the same number.  Runes are never equal
// to integers.
func tokenEqual(tok, want any) bool {
	if a, ok := asRune(tok); ok {
		if b, ok := asRune(want); ok {
			return a == b
		}
	}
	if a, ok := asInt(tok); ok {
		if b, ok := asInt(want); ok {
			return a == b
		}
	}
	return reflect.DeepEqual(tok, want)
}

// compareTokens orders two tokens of compatible types
func compareTokens(a, b any) (int, error) {
	if x, ok := asRune(a); ok {
		if y, ok := asRune(b); ok {
			return cmpOrdered(x, y), nil
		}
	}
	if x, ok := asInt(a); ok {
		if y, ok := asInt(b); ok {
			return cmpOrdered(x, y), nil
		}
	}
	if x, ok := asFloat(a); ok {
		if y, ok := asFloat(b); ok {
			return cmpOrdered(x, y), nil
		}
	}
	if x, ok := a.(string); ok {
		if y, ok := b.(string); ok {
			return strings.Compare(x, y), nil
		}
	}
	return 0, fmt.Errorf("%w: can't compare %T with %T", ErrBadRange, a, b)
}

func cmpOrdered[T int32 | int64 | float64](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func asRune(v any) (rune, bool) {
	switch t := v.(type) {
	case rune:
		return t, true
	case string:
		if utf8.RuneCountInString(t) == 1 {
			r, _ := utf8.DecodeRuneInString(t)
			return r, true
		}
	}
	return 0, false
}

// asInt reads integers other than runes
func asInt(v any) (int64, bool) {
	if _, ok := v.(rune); ok {
		return 0, false
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32:
		return int64(rv.Uint()), true
	}
	return 0, false
}

func asFloat(v any) (float64, bool) {
	if i, ok := asInt(v); ok {
		return float64(i), true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	}
	return 0, false
}

func asCursor(in Input) *Cursor {
	if c, ok := in.(*Cursor); ok {
		return c
	}
	return nil
}

// sameData is true for cursors over the same backing sequence
func sameData(a, b *Cursor) bool {
	if len(a.data) != len(b.data) {
		return false
	}
	return len(a.data) == 0 || &a.data[0] == &b.data[0]
}

// textOf joins the runes of `c` between two positions
func textOf(c *Cursor, from, to int) string {
	var s strings.Builder
	for _, tok := range c.data[from:to] {
		if r, ok := tok.(rune); ok {
			s.WriteRune(r)
		}
	}
	return s.String()
}
