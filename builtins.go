package ometa

import (
	"fmt"
	"sync"
	"unicode"
)

var (
	builtins     *Grammar
	builtinsOnce sync.Once
)

// Builtins returns the grammar every grammar without an explicit
// parent extends.  It defines the rules the engine itself knows how
// to run.
func Builtins() *Grammar {
	builtinsOnce.Do(func() {
		builtins = newGrammar("builtins", nil).
			Define("anything", 0, func(e *Engine, _ ...any) (any, error) { return e.Anything() }).
			Define("end", 0, func(e *Engine, _ ...any) (any, error) { return e.End() }).
			Define("spaces", 0, func(e *Engine, _ ...any) (any, error) { return e.Spaces() }).
			Define("exactly", 1, func(e *Engine, args ...any) (any, error) {
				want, err := ruleArg(e, args, 0)
				if err != nil {
					return nil, err
				}
				return e.Exactly(want)
			}).
			Define("token", 1, stringRule("token", (*Engine).Token)).
			Define("match_string", 1, stringRule("match_string", (*Engine).MatchString)).
			Define("letter", 0, charClass("letter", unicode.IsLetter)).
			Define("digit", 0, charClass("digit", unicode.IsDigit)).
			Define("letterOrDigit", 0, charClass("letter or digit", func(r rune) bool {
				return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
			})).
			Define("hexdigit", 0, charClass("hex digit", func(r rune) bool {
				return unicode.Is(unicode.ASCII_Hex_Digit, r)
			})).
			Define("octaldigit", 0, charClass("octal digit", func(r rune) bool {
				return r >= '0' && r <= '7'
			})).
			Define("apply", -1, func(e *Engine, args ...any) (any, error) {
				if len(args) == 0 {
					v, err := e.Anything()
					if err != nil {
						return nil, err
					}
					args = []any{v}
				}
				name, ok := args[0].(string)
				if !ok {
					return nil, fmt.Errorf("apply: rule name must be a string, got %T", args[0])
				}
				return e.Apply(name, args[1:]...)
			})
	})
	return builtins
}

// ruleArg returns the i-th argument given to a rule, or reads it from
// the input when the rule got its arguments through argument frames
func ruleArg(e *Engine, args []any, i int) (any, error) {
	if i < len(args) {
		return args[i], nil
	}
	return e.Anything()
}

func stringRule(name string, match func(*Engine, string) (any, error)) RuleFunc {
	return func(e *Engine, args ...any) (any, error) {
		v, err := ruleArg(e, args, 0)
		if err != nil {
			return nil, err
		}
		switch s := v.(type) {
		case string:
			return match(e, s)
		case rune:
			return match(e, string(s))
		}
		return nil, fmt.Errorf("%s: expected a string argument, got %T", name, v)
	}
}

// charClass creates a rule matching a single rune accepted by `pred`
func charClass(kind string, pred func(rune) bool) RuleFunc {
	return func(e *Engine, _ ...any) (any, error) {
		start := e.input
		tok, err := start.Head()
		if err == nil {
			if r, ok := asRune(tok); ok && pred(r) {
				e.input = start.Tail()
				return tok, nil
			}
		}
		return nil, e.failAt(start.Position(), Expected(kind, nil))
	}
}
