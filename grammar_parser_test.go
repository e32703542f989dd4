package ometa

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseGrammarTree(t *testing.T) {
	for _, test := range []struct {
		Name           string
		Grammar        string
		ExpectedOutput string
	}{
		{
			Name:    "Sequence",
			Grammar: "a = 'x' b*",
			ExpectedOutput: `Grammar(g) @ 0..10
└── Rule(a) @ 0..10
    └── Clause @ 0..10
        └── Sequence @ 3..10
            ├── Exactly('x') @ 4..7
            └── Many @ 8..10
                └── Apply(b) @ 8..9`,
		},
		{
			Name:    "Choice",
			Grammar: "a = b | c",
			ExpectedOutput: `Grammar(g) @ 0..9
└── Rule(a) @ 0..9
    └── Clause @ 0..9
        └── Or @ 3..9
            ├── Apply(b) @ 4..5
            └── Apply(c) @ 8..9`,
		},
		{
			Name:    "Range",
			Grammar: "d = '0'..'9'",
			ExpectedOutput: `Grammar(g) @ 0..12
└── Rule(d) @ 0..12
    └── Clause @ 0..12
        └── Range('0'..'9') @ 4..12`,
		},
	} {
		t.Run(test.Name, func(t *testing.T) {
			n, err := ParseGrammar("g", test.Grammar)
			require.NoError(t, err)
			assert.Equal(t, test.ExpectedOutput, PrettyString(n))
		})
	}
}

func TestParseGrammarText(t *testing.T) {
	for _, test := range []struct {
		Name     string
		Grammar  string
		Expected string
	}{
		{Name: "Literals", Grammar: `a = 'x' "while" 'abc' 42 -7 0x1f`, Expected: `a = 'x' "while" 'abc' 42 -7 31`},
		{Name: "Escapes", Grammar: `a = '\n' '\x41' 'ç' '\''`, Expected: `a = '\n' 'A' 'ç' '\''`},
		{Name: "Ranges", Grammar: `a = 'a'..'z' | 0..9`, Expected: `a = 'a'..'z' | 0..9`},
		{Name: "Postfix", Grammar: `a = b* c+ d? e:x :y`, Expected: `a = b* c+ d? e:x :y`},
		{Name: "Postfix and binding", Grammar: `a = b+:xs`, Expected: `a = b+:xs`},
		{Name: "Prefix", Grammar: `a = ~b ~~c`, Expected: `a = ~b ~~c`},
		{Name: "Groups", Grammar: `a = (b | c)* [d e] <f g>`, Expected: `a = (b | c)* [d e] <f g>`},
		{Name: "Xor binds tighter than or", Grammar: `a = b || c | d`, Expected: `a = b || c | d`},
		{Name: "Interleave", Grammar: `a = b && c*:cs && d?`, Expected: `a = b && c*:cs && d?`},
		{Name: "Applications", Grammar: `a = b(1, 'x') super.c(y)`, Expected: `a = b(1, 'x') super.c(y)`},
		{Name: "Empty arguments", Grammar: `a = b()`, Expected: `a = b`},
		{Name: "Host expressions", Grammar: `a = b:x ?(x > 1) !(log(x)) -> [x, f(x)]`, Expected: `a = b:x ?(x > 1) !(log(x)) -> [x, f(x)]`},
		{Name: "Rule value ends at a bar", Grammar: `a = b -> 1 | c -> x || y`, Expected: `a = b -> 1 | c -> x || y`},
		{Name: "Clause arguments", Grammar: "fact 0 = -> 1\nfact :n = -> n", Expected: "fact 0 = -> 1\nfact :n = -> n"},
	} {
		t.Run(test.Name, func(t *testing.T) {
			n, err := ParseGrammar("g", test.Grammar)
			require.NoError(t, err)
			assert.Equal(t, test.Expected, n.Text())
		})
	}
}

func TestParseGrammarLayout(t *testing.T) {
	src := `
# numbers
num = digit+:ds    # one or more
    -> ds

expr = expr '+' num
     | num

num = '-' num
`
	n, err := ParseGrammar("layout", src)
	require.NoError(t, err)
	assert.Equal(t, "layout", n.Name)
	require.Len(t, n.Rules, 2)

	num, ok := n.Rule("num")
	require.True(t, ok)
	assert.Len(t, num.Clauses, 2)
	assert.Equal(t, 0, num.Arity())

	expr, ok := n.Rule("expr")
	require.True(t, ok)
	require.Len(t, expr.Clauses, 1)
	or, ok := expr.Clauses[0].Body.(*OrNode)
	require.True(t, ok)
	assert.Len(t, or.Items, 2)

	assert.Equal(t, "num = digit+:ds -> ds\nnum = '-' num\nexpr = expr '+' num | num", n.Text())
}

func TestParseGrammarNodes(t *testing.T) {
	n, err := ParseGrammar("g", `r 'a' :x = ([1 2] && ~c) -> x`)
	require.NoError(t, err)
	r, ok := n.Rule("r")
	require.True(t, ok)
	assert.Equal(t, 2, r.Arity())

	clause := r.Clauses[0]
	require.Len(t, clause.Args, 2)
	assert.Equal(t, 'a', clause.Args[0].(*ExactlyNode).Value)
	bind := clause.Args[1].(*BindNode)
	assert.Equal(t, "x", bind.Name)
	assert.Nil(t, bind.Expr)

	seq := clause.Body.(*SequenceNode)
	require.Len(t, seq.Items, 2)
	inter := seq.Items[0].(*InterleaveNode)
	require.Len(t, inter.Parts, 2)
	list := inter.Parts[0].Expr.(*ListPatternNode)
	items := list.Expr.(*SequenceNode).Items
	assert.Equal(t, int64(1), items[0].(*ExactlyNode).Value)
	assert.IsType(t, &NotNode{}, inter.Parts[1].Expr)
	assert.Equal(t, "x", seq.Items[1].(*RuleValueNode).Expr.Source)
}

func TestParseGrammarErrors(t *testing.T) {
	for _, test := range []struct {
		Name     string
		Grammar  string
		Expected string
	}{
		{
			Name:    "Unterminated string",
			Grammar: `a = "abc`,
			Expected: `
a = "abc
        ^
Parse error at line 1, column 9: expected the literal '"'`,
		},
		{
			Name:    "Unbalanced group",
			Grammar: "a = (b | c",
		},
		{
			Name:    "Missing predicate expression",
			Grammar: "a = ?()",
		},
	} {
		t.Run(test.Name, func(t *testing.T) {
			_, err := ParseGrammar("g", test.Grammar)
			require.Error(t, err)
			var perr *ParseError
			require.ErrorAs(t, err, &perr)
			if test.Expected != "" {
				assert.Equal(t, test.Expected, err.Error())
			}
		})
	}
}
