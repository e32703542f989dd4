package ometa

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReason(t *testing.T) {
	for _, test := range []struct {
		Name     string
		Failure  *Failure
		Expected string
	}{
		{
			Name:     "No items",
			Failure:  NewFailure(0),
			Expected: "syntax error",
		},
		{
			Name:     "Kind alone",
			Failure:  NewFailure(0, Expected("digit", nil)),
			Expected: "expected a digit",
		},
		{
			Name:     "Kind starting with a vowel",
			Failure:  NewFailure(0, Expected(KindIterable, nil)),
			Expected: "expected an iterable",
		},
		{
			Name:     "Kind and value",
			Failure:  NewFailure(0, Expected("keyword", "while")),
			Expected: `expected the keyword "while"`,
		},
		{
			Name:     "Message",
			Failure:  NewFailure(0, Message("ambiguous match")),
			Expected: "ambiguous match",
		},
		{
			Name: "Two items",
			Failure: NewFailure(1,
				Expected(KindLiteral, 'b'),
				Expected(KindLiteral, 'c'),
			),
			Expected: "expected one of 'b' or 'c'",
		},
		{
			Name: "Mixed items",
			Failure: NewFailure(1,
				Expected("letter", nil),
				Expected(KindLiteral, "_"),
				Expected(KindRange, rangeSpan{'0', '9'}),
			),
			Expected: `expected one of a letter, "_", or '0'..'9'`,
		},
	} {
		t.Run(test.Name, func(t *testing.T) {
			assert.Equal(t, test.Expected, Reason(test.Failure))
		})
	}
}

func TestFormatFailure(t *testing.T) {
	for _, test := range []struct {
		Name     string
		Source   string
		Failure  *Failure
		Expected string
	}{
		{
			Name:    "Single line",
			Source:  "1+*",
			Failure: NewFailure(2, Expected("digit", nil)),
			Expected: `
1+*
  ^
Parse error at line 1, column 3: expected a digit`,
		},
		{
			Name:    "Second line with carriage return",
			Source:  "ab\ncd\r\nef",
			Failure: NewFailure(4),
			Expected: `
cd
 ^
Parse error at line 2, column 2: syntax error`,
		},
		{
			Name:    "Start of a line",
			Source:  "ab\ncd\r\nef",
			Failure: NewFailure(7, Expected(KindLiteral, 'x')),
			Expected: `
ef
^
Parse error at line 3, column 1: expected the literal 'x'`,
		},
		{
			Name:    "End of input",
			Source:  "ab",
			Failure: NewFailure(2, Message("end of input")),
			Expected: `
ab
  ^
Parse error at line 1, column 3: end of input`,
		},
		{
			Name:    "Columns count runes",
			Source:  "çã!",
			Failure: NewFailure(2),
			Expected: `
çã!
  ^
Parse error at line 1, column 3: syntax error`,
		},
		{
			Name:     "No position",
			Source:   "abc",
			Failure:  NewFailure(NoPosition),
			Expected: "Parse error: syntax error",
		},
	} {
		t.Run(test.Name, func(t *testing.T) {
			assert.Equal(t, test.Expected, FormatFailure(test.Source, test.Failure))
		})
	}
}

func TestHighlightFailure(t *testing.T) {
	out := HighlightFailure("1+*", NewFailure(2, Expected("digit", nil)))
	assert.Contains(t, out, "\x1b[")
	assert.Contains(t, out, "expected a digit")
}
