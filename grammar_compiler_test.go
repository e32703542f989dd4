package ometa

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scoped(name string) func(map[string]any, *Scope) (any, error) {
	return func(_ map[string]any, sc *Scope) (any, error) {
		v, _ := sc.Get(name)
		return v, nil
	}
}

func compile(t *testing.T, src string, parent *Grammar) *Grammar {
	t.Helper()
	g, err := NewGrammarFromSource("g", src, parent, nil)
	require.NoError(t, err)
	return g
}

func TestCompiledArithmetic(t *testing.T) {
	g := compile(t, `
grammar = expr:e spaces end -> e
expr = expr:l '+' num:r -> add
     | expr:l '-' num:r -> sub
     | num
num = <digit+>:ds -> int
`, nil)
	ev := FuncEvaluator{
		"e": scoped("e"),
		"add": func(_ map[string]any, sc *Scope) (any, error) {
			l, _ := sc.Get("l")
			r, _ := sc.Get("r")
			return l.(int) + r.(int), nil
		},
		"sub": func(_ map[string]any, sc *Scope) (any, error) {
			l, _ := sc.Get("l")
			r, _ := sc.Get("r")
			return l.(int) - r.(int), nil
		},
		"int": func(_ map[string]any, sc *Scope) (any, error) {
			ds, _ := sc.Get("ds")
			n := 0
			for _, d := range ds.(string) {
				n = n*10 + int(d-'0')
			}
			return n, nil
		},
	}

	for _, test := range []struct {
		Input    string
		Expected int
	}{
		{Input: "7", Expected: 7},
		{Input: "10+20", Expected: 30},
		{Input: "10-2-3", Expected: 5},
		{Input: "1+2-3+40 ", Expected: 40},
	} {
		t.Run(test.Input, func(t *testing.T) {
			v, err := Parse(g, test.Input, WithEvaluator(ev))
			require.NoError(t, err)
			assert.Equal(t, test.Expected, v)
		})
	}

	_, err := Parse(g, "1+x", WithEvaluator(ev))
	var perr *ParseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, 2, perr.Failure.Position)
	assert.Equal(t, "expected a digit", Reason(perr.Failure))
}

func TestCompiledLiteralValues(t *testing.T) {
	g := compile(t, `
grammar = value
value = "true" -> true
      | "none" -> null
      | "num" -> 0x10
      | "float" -> 1.5
      | "str" -> 'it\'s'
      | "dq" -> "q"
`, nil)
	for _, test := range []struct {
		Input    string
		Expected any
	}{
		{Input: "true", Expected: true},
		{Input: "none", Expected: nil},
		{Input: "num", Expected: int64(16)},
		{Input: "float", Expected: 1.5},
		{Input: "str", Expected: "it's"},
		{Input: "dq", Expected: "q"},
	} {
		t.Run(test.Input, func(t *testing.T) {
			v, err := Parse(g, test.Input)
			require.NoError(t, err)
			assert.Equal(t, test.Expected, v)
		})
	}
}

func TestCompiledClauses(t *testing.T) {
	g := compile(t, `
greet 'h' = -> "first"
greet :x = -> "second"
pair = greet('h'):a greet("z"):b -> pair
r = 'a':x 'b' -> x
r = 'a' -> bound
`, nil)
	ev := FuncEvaluator{
		"pair": func(_ map[string]any, sc *Scope) (any, error) {
			a, _ := sc.Get("a")
			b, _ := sc.Get("b")
			return []any{a, b}, nil
		},
		"bound": func(_ map[string]any, sc *Scope) (any, error) {
			_, ok := sc.Get("x")
			return ok, nil
		},
		"x": scoped("x"),
	}

	t.Run("Arguments match clause patterns", func(t *testing.T) {
		e, err := NewEngine(g, "", WithEvaluator(ev))
		require.NoError(t, err)
		v, err := e.Parse("pair")
		require.NoError(t, err)
		assert.Equal(t, []any{"first", "second"}, v)
		assert.Equal(t, 0, e.Position())
	})

	t.Run("Arguments from Go", func(t *testing.T) {
		e, err := NewEngine(g, "")
		require.NoError(t, err)
		v, err := e.Apply("greet", "x")
		require.NoError(t, err)
		assert.Equal(t, "second", v)
	})

	t.Run("Clauses don't share bindings", func(t *testing.T) {
		e, err := NewEngine(g, "ac", WithEvaluator(ev))
		require.NoError(t, err)
		v, err := e.Parse("r")
		require.NoError(t, err)
		assert.Equal(t, false, v)
		assert.Equal(t, 1, e.Position())
	})
}

func TestCompiledSuperApply(t *testing.T) {
	base := compile(t, `greeting = "hello"`, nil)
	child := compile(t, `greeting = super.greeting:g "world" -> g`, base)

	e, err := NewEngine(child, "hello world", WithEvaluator(FuncEvaluator{"g": scoped("g")}))
	require.NoError(t, err)
	out, err := e.Parse("greeting")
	require.NoError(t, err)
	assert.Equal(t, "hello", out)
}

func TestCompiledOperators(t *testing.T) {
	ev := FuncEvaluator{
		"b":   scoped("b"),
		"c":   scoped("c"),
		"x":   scoped("x"),
		"n":   scoped("n"),
		"big": func(_ map[string]any, sc *Scope) (any, error) { v, _ := sc.Get("n"); return v.(rune) > '5', nil },
	}
	for _, test := range []struct {
		Name     string
		Grammar  string
		Input    any
		Expected any
		Fails    bool
		Err      string
	}{
		{Name: "Interleave", Grammar: `r = ('a' && 'b'+:b && 'c'?:c) -> b`, Input: "bab", Expected: []any{'b', 'b'}},
		{Name: "Interleave optional part", Grammar: `r = ('a' && 'b'+:b && 'c'?:c) -> c`, Input: "bab", Expected: nil},
		{Name: "List pattern", Grammar: `r = [1 2 3]`, Input: []any{[]any{1, 2, 3}}, Expected: []any{1, 2, 3}},
		{Name: "Nested list pattern", Grammar: `r = ['+' [anything:x] anything] -> x`, Input: []any{[]any{"+", []any{7}, 8}}, Expected: 7},
		{Name: "List pattern on a scalar", Grammar: `r = [anything]`, Input: []any{5}, Err: "expected an iterable"},
		{Name: "Consumed by", Grammar: `r = <letter letterOrDigit*>`, Input: "abc1 ", Expected: "abc1"},
		{Name: "Negation", Grammar: `r = ~'x' anything`, Input: "y", Expected: 'y'},
		{Name: "Negation fails", Grammar: `r = ~'x' anything`, Input: "x", Fails: true},
		{Name: "Lookahead", Grammar: `r = ~~'x' anything:x -> x`, Input: "x", Expected: 'x'},
		{Name: "Predicate", Grammar: `r = digit:n ?(big) -> n`, Input: "7", Expected: '7'},
		{Name: "Predicate fails", Grammar: `r = digit:n ?(big) -> n`, Input: "3", Fails: true},
		{Name: "Action", Grammar: `r = anything:x !(x) -> 1`, Input: "q", Expected: int64(1)},
		{Name: "Xor", Grammar: `r = 'a' || 'b'`, Input: "b", Expected: 'b'},
		{Name: "Ambiguous xor", Grammar: `r = "ab" || 'a' 'b'`, Input: "ab", Err: `ambiguous match: "ab" and 'b'`},
		{Name: "Ranges", Grammar: `r = 'a'..'f'+`, Input: "cafe", Expected: []any{'c', 'a', 'f', 'e'}},
		{Name: "Number ranges", Grammar: `r = 1..9`, Input: []any{9}, Expected: 9},
		{Name: "Token", Grammar: `r = "while" "(" -> "ok"`, Input: " while (", Expected: "ok"},
		{Name: "Match string", Grammar: `r = 'while'`, Input: "whilst", Err: "expected the literal 'e'"},
		{Name: "Apply with arguments", Grammar: `r = token("if") exactly('x')`, Input: " ifx", Expected: 'x'},
	} {
		t.Run(test.Name, func(t *testing.T) {
			g := compile(t, test.Grammar, nil)
			e, err := NewEngine(g, test.Input, WithEvaluator(ev))
			require.NoError(t, err)
			v, err := e.Parse("r")
			if test.Fails {
				requireFailure(t, err)
				return
			}
			if test.Err != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), test.Err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, test.Expected, v)
		})
	}
}

func TestCompileErrors(t *testing.T) {
	t.Run("Undefined rule", func(t *testing.T) {
		_, err := NewGrammarFromSource("g", "a = b digt", nil, nil)
		var undefined *UndefinedRuleError
		require.True(t, errors.As(err, &undefined))
		assert.Equal(t, "b", undefined.Name)
		assert.Contains(t, err.Error(), "did you mean `digit`?")
	})

	t.Run("Range out of order", func(t *testing.T) {
		_, err := NewGrammarFromSource("g", "a = 'z'..'a'", nil, nil)
		assert.ErrorIs(t, err, ErrBadRange)
	})

	t.Run("Empty range", func(t *testing.T) {
		_, err := NewGrammarFromSource("g", "a = 3..3", nil, nil)
		assert.ErrorIs(t, err, ErrBadRange)
	})

	t.Run("Without builtins", func(t *testing.T) {
		cfg := NewConfig()
		cfg.SetBool("grammar.builtins", false)
		_, err := NewGrammarFromSource("g", "a = letter", nil, cfg)
		var undefined *UndefinedRuleError
		assert.True(t, errors.As(err, &undefined))
	})

	t.Run("Syntax error", func(t *testing.T) {
		_, err := NewGrammarFromSource("g", "a = (", nil, nil)
		var perr *ParseError
		assert.True(t, errors.As(err, &perr))
	})
}

func TestCompileGoExpressions(t *testing.T) {
	// grammars built in Go can carry Go functions where text would go
	double := NewGoExprNode("double", func(e *Engine) (any, error) {
		v, _ := e.Scope().Get("d")
		return 2 * int(v.(rune)-'0'), nil
	})
	n := NewGrammarNode("go", []*RuleNode{
		NewRuleNode("grammar", []*ClauseNode{
			NewClauseNode(nil, NewSequenceNode([]AstNode{
				NewBindNode("d", NewApplyNode("digit", nil, Range{}), Range{}),
				NewRuleValueNode(double, Range{}),
			}, Range{}), Range{}),
		}, Range{}),
	}, Range{})

	g, err := Compile(n, nil, nil)
	require.NoError(t, err)
	v, err := Parse(g, "4")
	require.NoError(t, err)
	assert.Equal(t, 8, v)
	assert.Equal(t, "grammar = digit:d -> double", n.Text())
}
