package ometa

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Compile turns a grammar tree into a grammar that can be run.  A nil
// parent makes the grammar extend the built-in rules, unless the
// `grammar.builtins` setting is off.  Rules applied but defined
// nowhere and ranges out of order are reported before anything runs.
func Compile(n *GrammarNode, parent *Grammar, cfg *Config) (*Grammar, error) {
	if cfg == nil {
		cfg = NewConfig()
	}
	if parent == nil && cfg.GetBool("grammar.builtins") {
		parent = Builtins()
	}
	g := newGrammar(n.Name, parent)
	c := &compiler{}
	if err := n.Accept(c); err != nil {
		return nil, err
	}
	for i, r := range n.Rules {
		g.Define(r.Name, r.Arity(), c.rules[i])
	}
	if err := check(n, g); err != nil {
		return nil, err
	}
	return g, nil
}

// NewGrammarFromSource reads a grammar written in the grammar syntax
// and compiles it
func NewGrammarFromSource(name, source string, parent *Grammar, cfg *Config) (*Grammar, error) {
	n, err := ParseGrammar(name, source)
	if err != nil {
		return nil, err
	}
	return Compile(n, parent, cfg)
}

// check looks for mistakes that would only show up once the parse
// reached them
func check(n *GrammarNode, g *Grammar) error {
	var errs []error
	reported := map[string]struct{}{}
	for _, r := range n.Rules {
		Inspect(r, func(node AstNode) bool {
			switch t := node.(type) {
			case *ApplyNode:
				if _, ok := reported[t.Name]; ok {
					break
				}
				if _, _, err := g.resolve(t.Name); err != nil {
					reported[t.Name] = struct{}{}
					errs = append(errs, fmt.Errorf("rule `%s`: %w", r.Name, err))
				}
			case *RangeNode:
				if c, err := compareTokens(t.Lo, t.Hi); err != nil || c >= 0 {
					errs = append(errs, fmt.Errorf("rule `%s`: %w: %s at %s", r.Name, ErrBadRange, t.Text(), t.Span()))
				}
			}
			return true
		})
	}
	return errors.Join(errs...)
}

// compiler walks the grammar tree and leaves the closure compiled
// from the last node visited in `fn`
type compiler struct {
	fn    ParserFn
	rules []RuleFunc
}

func (c *compiler) compile(n AstNode) (ParserFn, error) {
	if err := n.Accept(c); err != nil {
		return nil, err
	}
	return c.fn, nil
}

func (c *compiler) compileAll(nodes []AstNode) ([]ParserFn, error) {
	fns := make([]ParserFn, len(nodes))
	for i, n := range nodes {
		fn, err := c.compile(n)
		if err != nil {
			return nil, err
		}
		fns[i] = fn
	}
	return fns, nil
}

func (c *compiler) VisitGrammarNode(n *GrammarNode) error {
	c.rules = make([]RuleFunc, 0, len(n.Rules))
	for _, r := range n.Rules {
		if err := r.Accept(c); err != nil {
			return err
		}
	}
	return nil
}

// VisitRuleNode compiles a rule as the ordered choice of its clauses.
// Arguments given to the rule are pushed in front of the input for
// the clauses' argument patterns to match.
func (c *compiler) VisitRuleNode(n *RuleNode) error {
	clauses := make([]ParserFn, len(n.Clauses))
	for i, clause := range n.Clauses {
		fn, err := c.compile(clause)
		if err != nil {
			return fmt.Errorf("rule `%s`: %w", n.Name, err)
		}
		clauses[i] = fn
	}
	c.rules = append(c.rules, func(e *Engine, args ...any) (any, error) {
		if len(args) > 0 {
			e.pushArgs(args)
		}
		if len(clauses) == 1 {
			return clauses[0](e)
		}
		return e.Or(clauses...)
	})
	return nil
}

func (c *compiler) VisitClauseNode(n *ClauseNode) error {
	fns, err := c.compileAll(n.Args)
	if err != nil {
		return err
	}
	if n.Body != nil {
		body, err := c.compile(n.Body)
		if err != nil {
			return err
		}
		fns = append(fns, body)
	}
	c.fn = func(e *Engine) (any, error) {
		e.resetScope()
		return e.Sequence(fns...)
	}
	return nil
}

func (c *compiler) VisitApplyNode(n *ApplyNode) error {
	name, args := n.Name, c.hostArgs(n.Args)
	c.fn = func(e *Engine) (any, error) {
		vals, err := evalArgs(e, args)
		if err != nil {
			return nil, err
		}
		return e.Apply(name, vals...)
	}
	return nil
}

func (c *compiler) VisitSuperApplyNode(n *SuperApplyNode) error {
	name, args := n.Name, c.hostArgs(n.Args)
	c.fn = func(e *Engine) (any, error) {
		vals, err := evalArgs(e, args)
		if err != nil {
			return nil, err
		}
		return e.SuperApply(name, vals...)
	}
	return nil
}

func (c *compiler) hostArgs(args []*HostExprNode) []ParserFn {
	fns := make([]ParserFn, len(args))
	for i, a := range args {
		fns[i] = hostFn(a)
	}
	return fns
}

func evalArgs(e *Engine, args []ParserFn) ([]any, error) {
	if len(args) == 0 {
		return nil, nil
	}
	vals := make([]any, len(args))
	for i, fn := range args {
		v, err := fn(e)
		if err != nil {
			return nil, err
		}
		vals[i] = v
	}
	return vals, nil
}

func (c *compiler) VisitExactlyNode(n *ExactlyNode) error {
	v := n.Value
	c.fn = func(e *Engine) (any, error) { return e.Exactly(v) }
	return nil
}

func (c *compiler) VisitMatchStringNode(n *MatchStringNode) error {
	s := n.Value
	c.fn = func(e *Engine) (any, error) { return e.MatchString(s) }
	return nil
}

func (c *compiler) VisitTokenNode(n *TokenNode) error {
	s := n.Value
	c.fn = func(e *Engine) (any, error) { return e.Token(s) }
	return nil
}

func (c *compiler) VisitRangeNode(n *RangeNode) error {
	lo, hi := n.Lo, n.Hi
	c.fn = func(e *Engine) (any, error) { return e.Range(lo, hi) }
	return nil
}

func (c *compiler) VisitSequenceNode(n *SequenceNode) error {
	fns, err := c.compileAll(n.Items)
	if err != nil {
		return err
	}
	c.fn = func(e *Engine) (any, error) { return e.Sequence(fns...) }
	return nil
}

func (c *compiler) VisitOrNode(n *OrNode) error {
	fns, err := c.compileAll(n.Items)
	if err != nil {
		return err
	}
	c.fn = func(e *Engine) (any, error) { return e.Or(fns...) }
	return nil
}

func (c *compiler) VisitXorNode(n *XorNode) error {
	fns, err := c.compileAll(n.Items)
	if err != nil {
		return err
	}
	c.fn = func(e *Engine) (any, error) { return e.Xor(fns...) }
	return nil
}

func (c *compiler) VisitManyNode(n *ManyNode) error {
	fn, err := c.compile(n.Expr)
	if err != nil {
		return err
	}
	c.fn = func(e *Engine) (any, error) { return e.Many(fn) }
	return nil
}

func (c *compiler) VisitMany1Node(n *Many1Node) error {
	fn, err := c.compile(n.Expr)
	if err != nil {
		return err
	}
	c.fn = func(e *Engine) (any, error) { return e.Many1(fn) }
	return nil
}

func (c *compiler) VisitOptionalNode(n *OptionalNode) error {
	fn, err := c.compile(n.Expr)
	if err != nil {
		return err
	}
	c.fn = func(e *Engine) (any, error) { return e.Optional(fn) }
	return nil
}

func (c *compiler) VisitNotNode(n *NotNode) error {
	fn, err := c.compile(n.Expr)
	if err != nil {
		return err
	}
	c.fn = func(e *Engine) (any, error) { return e.Not(fn) }
	return nil
}

func (c *compiler) VisitLookaheadNode(n *LookaheadNode) error {
	fn, err := c.compile(n.Expr)
	if err != nil {
		return err
	}
	c.fn = func(e *Engine) (any, error) { return e.Lookahead(fn) }
	return nil
}

func (c *compiler) VisitBindNode(n *BindNode) error {
	fn := ParserFn((*Engine).Anything)
	if n.Expr != nil {
		var err error
		if fn, err = c.compile(n.Expr); err != nil {
			return err
		}
	}
	name := n.Name
	c.fn = func(e *Engine) (any, error) { return e.Bind(e.Scope(), name, fn) }
	return nil
}

func (c *compiler) VisitListPatternNode(n *ListPatternNode) error {
	fn, err := c.compile(n.Expr)
	if err != nil {
		return err
	}
	c.fn = func(e *Engine) (any, error) { return e.ListPattern(fn) }
	return nil
}

func (c *compiler) VisitConsumedByNode(n *ConsumedByNode) error {
	fn, err := c.compile(n.Expr)
	if err != nil {
		return err
	}
	c.fn = func(e *Engine) (any, error) { return e.ConsumedBy(fn) }
	return nil
}

func (c *compiler) VisitInterleaveNode(n *InterleaveNode) error {
	parts := make([]InterleavePart, len(n.Parts))
	for i, p := range n.Parts {
		fn, err := c.compile(p.Expr)
		if err != nil {
			return err
		}
		parts[i] = InterleavePart{Mode: p.Mode, Fn: fn, Name: p.Name}
	}
	c.fn = func(e *Engine) (any, error) { return e.Interleave(e.Scope(), parts...) }
	return nil
}

func (c *compiler) VisitHostExprNode(n *HostExprNode) error {
	c.fn = hostFn(n)
	return nil
}

func (c *compiler) VisitPredicateNode(n *PredicateNode) error {
	fn := hostFn(n.Expr)
	c.fn = func(e *Engine) (any, error) { return e.Pred(fn) }
	return nil
}

func (c *compiler) VisitActionNode(n *ActionNode) error {
	fn := hostFn(n.Expr)
	c.fn = func(e *Engine) (any, error) { return e.Action(fn) }
	return nil
}

func (c *compiler) VisitRuleValueNode(n *RuleValueNode) error {
	fn := hostFn(n.Expr)
	c.fn = func(e *Engine) (any, error) { return e.Action(fn) }
	return nil
}

// hostFn returns the closure that produces the value of a host
// expression.  Go functions are called as they are, literals become
// constants and anything else goes through the engine's evaluator.
func hostFn(n *HostExprNode) ParserFn {
	if n.Fn != nil {
		return n.Fn
	}
	if v, ok := parseLiteral(n.Source); ok {
		return func(*Engine) (any, error) { return v, nil }
	}
	src := n.Source
	return func(e *Engine) (any, error) { return e.Eval(src) }
}

// parseLiteral reads quoted strings, numbers, booleans and null
func parseLiteral(src string) (any, bool) {
	src = strings.TrimSpace(src)
	switch src {
	case "":
		return nil, false
	case "true", "True":
		return true, true
	case "false", "False":
		return false, true
	case "null", "nil", "None":
		return nil, true
	}
	switch src[0] {
	case '"', '`':
		if s, err := strconv.Unquote(src); err == nil {
			return s, true
		}
		return nil, false
	case '\'':
		if len(src) >= 2 && src[len(src)-1] == '\'' {
			inner := strings.ReplaceAll(src[1:len(src)-1], `\'`, `'`)
			if s, err := strconv.Unquote(`"` + strings.ReplaceAll(inner, `"`, `\"`) + `"`); err == nil {
				return s, true
			}
		}
		return nil, false
	}
	if !strings.ContainsRune("0123456789+-.", rune(src[0])) {
		return nil, false
	}
	if i, err := strconv.ParseInt(src, 0, 64); err == nil {
		return i, true
	}
	if f, err := strconv.ParseFloat(src, 64); err == nil {
		return f, true
	}
	return nil, false
}
