package ometa

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJoinFailures(t *testing.T) {
	for _, test := range []struct {
		Name     string
		Failures []*Failure
		Expected *Failure
	}{
		{
			Name:     "Nothing to join",
			Failures: nil,
			Expected: NewFailure(NoPosition),
		},
		{
			Name:     "Nil entries are skipped",
			Failures: []*Failure{nil, NewFailure(2, Expected("digit", nil)), nil},
			Expected: NewFailure(2, Expected("digit", nil)),
		},
		{
			Name: "Furthest wins",
			Failures: []*Failure{
				NewFailure(1, Expected(KindLiteral, 'a')),
				NewFailure(4, Expected(KindLiteral, 'b')),
				NewFailure(3, Expected(KindLiteral, 'c')),
			},
			Expected: NewFailure(4, Expected(KindLiteral, 'b')),
		},
		{
			Name: "Same position merges in order without duplicates",
			Failures: []*Failure{
				NewFailure(2, Expected(KindLiteral, 'b')),
				NewFailure(2, Expected(KindLiteral, 'c'), Expected(KindLiteral, 'b')),
				NewFailure(0, Expected(KindLiteral, 'x')),
				NewFailure(2, Expected("letter", nil)),
			},
			Expected: NewFailure(2,
				Expected(KindLiteral, 'b'),
				Expected(KindLiteral, 'c'),
				Expected("letter", nil),
			),
		},
		{
			Name: "Left recursion base case loses to any real failure",
			Failures: []*Failure{
				NewFailure(NoPosition),
				NewFailure(0, Expected("digit", nil)),
			},
			Expected: NewFailure(0, Expected("digit", nil)),
		},
	} {
		t.Run(test.Name, func(t *testing.T) {
			assert.Equal(t, test.Expected, JoinFailures(test.Failures...))
		})
	}
}

func TestJoinFailuresDoesNotChangeItsInput(t *testing.T) {
	a := NewFailure(1, Expected(KindLiteral, 'a'))
	b := NewFailure(1, Expected(KindLiteral, 'b'))
	JoinFailures(a, b)
	assert.Len(t, a.Expected, 1)
	assert.Len(t, b.Expected, 1)
}

func TestFailureError(t *testing.T) {
	f := NewFailure(3, Expected(KindLiteral, 'a'))
	assert.Equal(t, "parse error at position 3: expected the literal 'a'", f.Error())
	assert.Equal(t, "parse error: syntax error", NewFailure(NoPosition).Error())
}

func TestFailureIs(t *testing.T) {
	f := NewFailure(3, Expected(KindLiteral, 'a'))
	wrapped := fmt.Errorf("rule `x`: %w", f)

	assert.True(t, errors.Is(wrapped, NewFailure(3, Expected(KindLiteral, 'a'))))
	assert.False(t, errors.Is(wrapped, NewFailure(2, Expected(KindLiteral, 'a'))))
	assert.False(t, errors.Is(wrapped, NewFailure(3, Expected(KindLiteral, 'b'))))

	got, ok := asFailure(wrapped)
	require.True(t, ok)
	assert.Same(t, f, got)

	_, ok = asFailure(ErrMaxDepth)
	assert.False(t, ok)
}

func TestUndefinedRuleError(t *testing.T) {
	for _, test := range []struct {
		Name     string
		Err      *UndefinedRuleError
		Expected string
	}{
		{
			Name:     "No hints",
			Err:      &UndefinedRuleError{Name: "x", Grammar: "g"},
			Expected: "no rule named `x` in grammar `g`",
		},
		{
			Name:     "One hint",
			Err:      &UndefinedRuleError{Name: "exrp", Grammar: "g", Hints: []string{"expr"}},
			Expected: "no rule named `exrp` in grammar `g`, did you mean `expr`?",
		},
		{
			Name:     "Many hints",
			Err:      &UndefinedRuleError{Name: "ab", Grammar: "g", Hints: []string{"a", "b"}},
			Expected: "no rule named `ab` in grammar `g`, did you mean one of `a`, `b`?",
		},
	} {
		t.Run(test.Name, func(t *testing.T) {
			assert.Equal(t, test.Expected, test.Err.Error())
		})
	}
}
