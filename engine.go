package ometa

import (
	"errors"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
)

// Engine runs the rules of a grammar over one input.  It owns the
// memo tables hanging off the input nodes, the furthest failure seen
// so far and the scopes of the rules currently running, so an Engine
// must not be shared between goroutines.  Create one per parse.
type Engine struct {
	grammar  *Grammar
	input    Input
	source   string
	text     bool
	furthest *Failure

	// scopes and owners are stacks with one entry per running rule.
	// owners holds the grammar that defines each rule, which is where
	// super applications start looking from.
	scopes []*Scope
	owners []*Grammar

	depth    int
	maxDepth int
	trace    bool

	// quiet counts the list patterns and negations the engine is
	// inside of.  Failures within them stay out of the furthest
	// failure: positions of a nested sequence aren't positions of
	// the outer input and a negation fails when its operand matches.
	quiet int

	cfg  *Config
	log  logrus.FieldLogger
	eval Evaluator
	env  map[string]any
}

// Option configures an Engine
type Option func(*Engine)

// WithConfig sets the configuration the engine reads its limits from
func WithConfig(cfg *Config) Option {
	return func(e *Engine) { e.cfg = cfg }
}

// WithLogger sets where rule tracing goes to
func WithLogger(log logrus.FieldLogger) Option {
	return func(e *Engine) { e.log = log }
}

// WithEvaluator sets the evaluator of actions and predicates
func WithEvaluator(ev Evaluator) Option {
	return func(e *Engine) { e.eval = ev }
}

// WithEnv sets the values every action and predicate can see
func WithEnv(env map[string]any) Option {
	return func(e *Engine) { e.env = env }
}

// NewEngine creates an engine that runs `g` over `input`.  The input
// can be anything NewInput accepts or an Input node.
func NewEngine(g *Grammar, input any, opts ...Option) (*Engine, error) {
	e := &Engine{
		grammar: g,
		cfg:     NewConfig(),
		env:     map[string]any{},
		scopes:  []*Scope{NewScope()},
	}
	switch in := input.(type) {
	case Input:
		e.input = in
	default:
		c, err := NewInput(input)
		if err != nil {
			return nil, err
		}
		e.input = c
	}
	if c := baseCursor(e.input); c != nil && c.IsText() {
		e.text = true
		e.source = textOf(c, 0, c.Len())
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		e.log = l
	}
	e.maxDepth = e.cfg.GetInt("engine.max_depth")
	e.trace = e.cfg.GetBool("engine.trace")
	return e, nil
}

// Grammar returns the grammar the engine was created with
func (e *Engine) Grammar() *Grammar { return e.grammar }

// Input returns the current input node
func (e *Engine) Input() Input { return e.input }

// SetInput moves the engine to `in`.  It's how combinators backtrack.
func (e *Engine) SetInput(in Input) { e.input = in }

// Position returns the position of the current input node
func (e *Engine) Position() int { return e.input.Position() }

// Furthest returns the failure that went the furthest into the input
// so far, or nil if nothing failed yet
func (e *Engine) Furthest() *Failure { return e.furthest }

// Scope returns the scope of the innermost running rule
func (e *Engine) Scope() *Scope { return e.scopes[len(e.scopes)-1] }

// Env returns the values shared with every action
func (e *Engine) Env() map[string]any { return e.env }

// Parse applies `rule` at the current input.  A failure that reaches
// this point becomes a *ParseError carrying the furthest failure of
// the whole parse.
func (e *Engine) Parse(rule string) (any, error) {
	value, err := e.Apply(rule)
	if err == nil {
		return value, nil
	}
	f, ok := asFailure(err)
	if !ok {
		return nil, err
	}
	return nil, &ParseError{
		Rule:    rule,
		Failure: JoinFailures(f, e.furthest),
		Source:  e.source,
		text:    e.text,
	}
}

// Parse runs the `grammar` rule of `g` over `source`
func Parse(g *Grammar, source any, opts ...Option) (any, error) {
	e, err := NewEngine(g, source, opts...)
	if err != nil {
		return nil, err
	}
	return e.Parse("grammar")
}

// Apply runs the rule `name` at the current input.  Rules without
// arguments are memoized per input node, and left recursion is grown
// from a seed until it stops consuming more input.
func (e *Engine) Apply(name string, args ...any) (any, error) {
	r, owner, err := e.grammar.resolve(name)
	if err != nil {
		return nil, err
	}
	return e.applyRule(r, owner, args)
}

// SuperApply runs the version of `name` that the grammar defining the
// running rule inherited from its parent
func (e *Engine) SuperApply(name string, args ...any) (any, error) {
	current := e.grammar
	if len(e.owners) > 0 {
		current = e.owners[len(e.owners)-1]
	}
	if current.parent == nil {
		return nil, &UndefinedRuleError{Name: name, Grammar: current.name}
	}
	r, owner, err := current.parent.resolve(name)
	if err != nil {
		return nil, err
	}

	// the memo entry of the overriding rule is set aside so the
	// ancestor doesn't take it for its own result
	in := e.input
	saved := in.memo(name)
	in.forget(name)
	defer func() {
		if saved != nil {
			in.setMemo(name, saved)
		} else {
			in.forget(name)
		}
	}()
	return e.applyRule(r, owner, args)
}

func (e *Engine) applyRule(r *Rule, owner *Grammar, args []any) (any, error) {
	if e.depth >= e.maxDepth {
		return nil, fmt.Errorf("%w: applying `%s` at position %d", ErrMaxDepth, r.Name, e.Position())
	}
	e.depth++
	e.owners = append(e.owners, owner)
	defer func() {
		e.depth--
		e.owners = e.owners[:len(e.owners)-1]
	}()

	switch {
	case r.Arity < 0 || (len(args) > 0 && len(args) == r.Arity):
		return e.invoke(r, args)
	case len(args) > 0:
		start := e.input
		e.pushArgs(args)
		value, err := e.invoke(r, nil)
		if err != nil {
			e.input = start
		}
		return value, err
	}
	return e.memoized(r)
}

// pushArgs places `args` in front of the input so the first argument
// is the next token read
func (e *Engine) pushArgs(args []any) {
	for i := len(args) - 1; i >= 0; i-- {
		e.input = newArgFrame(args[i], e.input)
	}
}

func (e *Engine) memoized(r *Rule) (any, error) {
	start := e.input
	if m := start.memo(r.Name); m != nil {
		if m.lr != nil {
			m.lr.detected = true
			e.tracef(r.Name, start, "left recursion detected")
			return nil, NewFailure(NoPosition)
		}
		e.tracef(r.Name, start, "memo hit")
		e.input = m.next
		return m.value, nil
	}

	before := map[string]struct{}{}
	for _, k := range start.memoNames() {
		before[k] = struct{}{}
	}
	lr := &leftRecursion{}
	start.setMemo(r.Name, &memoEntry{lr: lr})

	value, err := e.invoke(r, nil)
	if err != nil {
		start.forget(r.Name)
		return nil, err
	}
	entry := &memoEntry{value: value, next: e.input}
	start.setMemo(r.Name, entry)
	if !lr.detected {
		return value, nil
	}

	for {
		// results other rules memoized at `start` while this one
		// was growing were computed against the previous seed
		for _, k := range start.memoNames() {
			if _, ok := before[k]; !ok && k != r.Name {
				start.forget(k)
			}
		}
		e.input = start
		e.tracef(r.Name, start, "growing seed")
		v, err := e.invoke(r, nil)
		if err != nil {
			if _, ok := asFailure(err); ok {
				break
			}
			return nil, err
		}
		if e.input.Position() <= entry.next.Position() {
			break
		}
		entry = &memoEntry{value: v, next: e.input}
		start.setMemo(r.Name, entry)
	}
	e.input = entry.next
	return entry.value, nil
}

// invoke calls the rule procedure within a fresh scope
func (e *Engine) invoke(r *Rule, args []any) (any, error) {
	start := e.input
	e.scopes = append(e.scopes, NewScope())
	defer func() { e.scopes = e.scopes[:len(e.scopes)-1] }()

	value, err := r.Fn(e, args...)
	if err != nil {
		e.consider(err)
		e.input = start
		if e.trace {
			e.log.WithFields(logrus.Fields{"rule": r.Name, "pos": start.Position()}).
				WithError(err).Debug("fail")
		}
		return nil, err
	}
	if e.trace {
		e.log.WithFields(logrus.Fields{
			"rule": r.Name,
			"pos":  start.Position(),
			"end":  e.input.Position(),
		}).Debug("match")
	}
	return value, nil
}

// resetScope empties the scope of the running rule.  Compiled rules
// call it before each clause so names bound by a clause that failed
// aren't seen by the next one.
func (e *Engine) resetScope() {
	e.Scope().reset()
}

// consider merges the failure in `err`, if any, into the furthest
// failure
func (e *Engine) consider(err error) {
	if e.quiet > 0 {
		return
	}
	if f, ok := asFailure(err); ok {
		e.furthest = JoinFailures(e.furthest, f)
	}
}

// failAt creates a failure and records it as a candidate for the
// furthest failure
func (e *Engine) failAt(pos int, items ...Expectation) *Failure {
	f := NewFailure(pos, items...)
	e.consider(f)
	return f
}

// Fail creates a failure at the current position
func (e *Engine) Fail(items ...Expectation) *Failure {
	return e.failAt(e.Position(), items...)
}

// Eval runs action text through the evaluator, giving it the scope
// of the running rule
func (e *Engine) Eval(expr string) (any, error) {
	if e.eval == nil {
		return nil, fmt.Errorf("%w: can't run `%s`", ErrNoEvaluator, expr)
	}
	value, err := e.eval.Evaluate(expr, e.env, e.Scope())
	if errors.Is(err, ErrFail) {
		return nil, e.Fail()
	}
	return value, err
}

func (e *Engine) tracef(rule string, in Input, msg string) {
	if !e.trace {
		return
	}
	e.log.WithFields(logrus.Fields{"rule": rule, "pos": in.Position()}).Trace(msg)
}
