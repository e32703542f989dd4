// Package jsaction runs the actions and predicates of a grammar as
// ECMAScript expressions through goja.
package jsaction

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dop251/goja"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/clarete/ometa"
)

var (
	// InterruptedMessage is the string value of ErrInterrupted
	InterruptedMessage = "RuntimeError: timeout"

	// ErrInterrupted is returned when an expression runs for longer
	// than the evaluator's timeout
	ErrInterrupted = errors.New(InterruptedMessage)
)

// failMarker is the value thrown by the `fail()` helper
const failMarker = "ometa.fail"

// Evaluator implements ometa.Evaluator.  Each expression is compiled
// once and kept in an LRU cache, and each evaluation gets a runtime
// of its own, so one Evaluator can serve many engines at once.
//
// The names bound by the running clause and the values of the parse
// environment are globals of the expression.  Runes show up as one
// character strings.  Calling `fail()` makes the expression fail the
// way a mismatch does, so the engine backtracks.
type Evaluator struct {
	programs *lru.Cache[string, *goja.Program]

	// Timeout interrupts expressions running for longer than it.
	// Zero means no limit.
	Timeout time.Duration
}

// New creates an evaluator caching up to `cacheSize` compiled
// expressions
func New(cacheSize int, timeout time.Duration) (*Evaluator, error) {
	programs, err := lru.New[string, *goja.Program](cacheSize)
	if err != nil {
		return nil, err
	}
	return &Evaluator{programs: programs, Timeout: timeout}, nil
}

// NewFromConfig creates an evaluator from the `jsaction.*` settings
func NewFromConfig(cfg *ometa.Config) (*Evaluator, error) {
	return New(
		cfg.GetInt("jsaction.cache_size"),
		time.Duration(cfg.GetInt("jsaction.timeout_ms"))*time.Millisecond,
	)
}

// Compile returns the program for `expr`, compiling it if it isn't
// cached yet
func (ev *Evaluator) Compile(expr string) (*goja.Program, error) {
	if p, ok := ev.programs.Get(expr); ok {
		return p, nil
	}
	// the line break keeps a trailing `//` comment from eating the
	// closing parenthesis
	p, err := goja.Compile("action", "("+expr+"\n)", true)
	if err != nil {
		return nil, fmt.Errorf("can't compile `%s`: %w", expr, err)
	}
	ev.programs.Add(expr, p)
	return p, nil
}

// Evaluate implements ometa.Evaluator
func (ev *Evaluator) Evaluate(expr string, env map[string]any, scope *ometa.Scope) (any, error) {
	p, err := ev.Compile(expr)
	if err != nil {
		return nil, err
	}

	o := goja.New()
	for k, v := range env {
		if err := o.Set(k, toJS(v)); err != nil {
			return nil, err
		}
	}
	if scope != nil {
		for _, name := range scope.Names() {
			v, _ := scope.Get(name)
			if err := o.Set(name, toJS(v)); err != nil {
				return nil, err
			}
		}
	}
	if err := o.Set("fail", func() { panic(o.ToValue(failMarker)) }); err != nil {
		return nil, err
	}

	if ev.Timeout > 0 {
		ctx, cancel := context.WithTimeout(context.Background(), ev.Timeout)
		done := make(chan struct{})
		go func() {
			select {
			case <-ctx.Done():
				// only a deadline means the expression was
				// still running
				if errors.Is(ctx.Err(), context.DeadlineExceeded) {
					o.Interrupt(InterruptedMessage)
				}
			case <-done:
			}
		}()
		defer func() {
			close(done)
			cancel()
		}()
	}

	v, err := o.RunProgram(p)
	if err != nil {
		var interrupted *goja.InterruptedError
		if errors.As(err, &interrupted) {
			return nil, fmt.Errorf("%w: `%s`", ErrInterrupted, expr)
		}
		var exc *goja.Exception
		if errors.As(err, &exc) && exc.Value() != nil && exc.Value().Export() == failMarker {
			return nil, ometa.ErrFail
		}
		return nil, fmt.Errorf("action `%s`: %w", expr, err)
	}
	return v.Export(), nil
}

// toJS converts parse values into values goja exposes naturally
func toJS(v any) any {
	switch t := v.(type) {
	case rune:
		return string(t)
	case []any:
		items := make([]any, len(t))
		for i, item := range t {
			items[i] = toJS(item)
		}
		return items
	case map[string]any:
		m := make(map[string]any, len(t))
		for k, item := range t {
			m[k] = toJS(item)
		}
		return m
	}
	return v
}
