package ometa

import (
	"slices"

	"github.com/agnivade/levenshtein"
)

// RuleFunc is the procedure behind a rule.  It receives arguments
// only when the rule is applied with as many arguments as its arity,
// otherwise arguments arrive through the input.
type RuleFunc func(e *Engine, args ...any) (any, error)

// Rule is a named procedure of a grammar.  An Arity of -1 makes the
// rule take any number of arguments directly.
type Rule struct {
	Name  string
	Arity int
	Fn    RuleFunc
}

// Grammar is a set of rules that may extend a parent grammar.
// Looking up a rule tries the grammar's own rules first and then its
// ancestors, and `super.name` starts the lookup from the parent.
// Grammars shouldn't be changed after the first parse starts, and
// then they're safe to share between engines.
type Grammar struct {
	name   string
	rules  map[string]*Rule
	order  []string
	parent *Grammar
}

// NewGrammar creates an empty grammar.  Grammars without a parent
// extend the built-in rules.
func NewGrammar(name string, parent *Grammar) *Grammar {
	if parent == nil {
		parent = Builtins()
	}
	return newGrammar(name, parent)
}

func newGrammar(name string, parent *Grammar) *Grammar {
	return &Grammar{name: name, rules: map[string]*Rule{}, parent: parent}
}

// Define adds a rule to the grammar, replacing any rule of the same
// name it already had.  It returns the grammar so definitions can be
// chained.
func (g *Grammar) Define(name string, arity int, fn RuleFunc) *Grammar {
	if _, ok := g.rules[name]; !ok {
		g.order = append(g.order, name)
	}
	g.rules[name] = &Rule{Name: name, Arity: arity, Fn: fn}
	return g
}

// Name returns the name of the grammar
func (g *Grammar) Name() string { return g.name }

// Parent returns the grammar `g` extends
func (g *Grammar) Parent() *Grammar { return g.parent }

// Rule returns the rule `name` defined by `g` itself
func (g *Grammar) Rule(name string) (*Rule, bool) {
	r, ok := g.rules[name]
	return r, ok
}

// Rules returns the rules defined by `g` itself in definition order
func (g *Grammar) Rules() []*Rule {
	rules := make([]*Rule, len(g.order))
	for i, name := range g.order {
		rules[i] = g.rules[name]
	}
	return rules
}

// Has tells whether `name` can be applied from `g`
func (g *Grammar) Has(name string) bool {
	_, _, err := g.resolve(name)
	return err == nil
}

// resolve finds the rule `name` and the grammar that defines it
func (g *Grammar) resolve(name string) (*Rule, *Grammar, error) {
	for cur := g; cur != nil; cur = cur.parent {
		if r, ok := cur.rules[name]; ok {
			return r, cur, nil
		}
	}
	return nil, nil, &UndefinedRuleError{
		Name:    name,
		Grammar: g.name,
		Hints:   closestStrings(3, name, g.ruleNames()),
	}
}

// ruleNames lists all the rules that can be applied from `g`
func (g *Grammar) ruleNames() []string {
	var names []string
	seen := map[string]struct{}{}
	for cur := g; cur != nil; cur = cur.parent {
		for _, name := range cur.order {
			if _, ok := seen[name]; !ok {
				seen[name] = struct{}{}
				names = append(names, name)
			}
		}
	}
	return names
}

// closestStrings returns the candidates with the smallest edit
// distance to `a`, as long as it is not over `minDistance`
func closestStrings(minDistance int, a string, candidates []string) []string {
	closest := []string{}
	for _, c := range candidates {
		d := levenshtein.ComputeDistance(a, c)
		switch {
		case d < minDistance:
			closest = []string{c}
			minDistance = d
		case d == minDistance:
			closest = append(closest, c)
		}
	}
	slices.Sort(closest)
	return closest
}
