package ometa

import "reflect"

// Evaluator runs the host-language text found in actions (`-> expr`),
// semantic predicates (`?(expr)`) and semantic actions (`!(expr)`).
// `env` holds the values the caller made available to the whole
// parse and `scope` the names bound by the running clause.
type Evaluator interface {
	Evaluate(expr string, env map[string]any, scope *Scope) (any, error)
}

// EvaluatorFunc adapts a function into an Evaluator
type EvaluatorFunc func(expr string, env map[string]any, scope *Scope) (any, error)

func (fn EvaluatorFunc) Evaluate(expr string, env map[string]any, scope *Scope) (any, error) {
	return fn(expr, env, scope)
}

// FuncEvaluator maps action text to Go functions.  It's the
// evaluator to reach for when a grammar is written in Go and the
// action text is just a key.
type FuncEvaluator map[string]func(env map[string]any, scope *Scope) (any, error)

func (fe FuncEvaluator) Evaluate(expr string, env map[string]any, scope *Scope) (any, error) {
	fn, ok := fe[expr]
	if !ok {
		return nil, &UnknownActionError{Expr: expr}
	}
	return fn(env, scope)
}

// UnknownActionError is returned by FuncEvaluator for text it has no
// function for
type UnknownActionError struct {
	Expr string
}

func (e *UnknownActionError) Error() string {
	return "no function registered for action `" + e.Expr + "`"
}

// Truthy decides whether a predicate result lets the parse go on.
// Nil, false, numeric zeros, empty strings and empty collections are
// false.  Everything else is true.
func Truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case rune:
		return t != 0
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int() != 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return rv.Uint() != 0
	case reflect.Float32, reflect.Float64:
		return rv.Float() != 0
	case reflect.Slice, reflect.Map, reflect.Array, reflect.String:
		return rv.Len() > 0
	case reflect.Pointer, reflect.Interface:
		return !rv.IsNil()
	}
	return true
}
