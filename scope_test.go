package ometa

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScope(t *testing.T) {
	sc := NewScope()
	sc.Set("b", 1)
	sc.Set("a", 2)
	sc.Set("b", 3)

	assert.Equal(t, []string{"b", "a"}, sc.Names())
	assert.Equal(t, 2, sc.Len())
	v, ok := sc.Get("b")
	assert.True(t, ok)
	assert.Equal(t, 3, v)
	_, ok = sc.Get("c")
	assert.False(t, ok)

	m := sc.Map()
	m["c"] = 4
	assert.Equal(t, 2, sc.Len())

	sc.reset()
	assert.Equal(t, 0, sc.Len())
	assert.Empty(t, sc.Names())
	_, ok = sc.Get("a")
	assert.False(t, ok)
}

func TestTruthy(t *testing.T) {
	for _, test := range []struct {
		Value    any
		Expected bool
	}{
		{nil, false},
		{false, false},
		{true, true},
		{0, false},
		{int64(3), true},
		{uint8(0), false},
		{0.0, false},
		{0.5, true},
		{"", false},
		{"x", true},
		{rune(0), false},
		{'a', true},
		{[]any{}, false},
		{[]any{nil}, true},
		{map[string]any{}, false},
		{(*Scope)(nil), false},
		{NewScope(), true},
		{struct{}{}, true},
	} {
		assert.Equal(t, test.Expected, Truthy(test.Value), "%#v", test.Value)
	}
}

func TestFuncEvaluator(t *testing.T) {
	ev := FuncEvaluator{
		"x": func(_ map[string]any, sc *Scope) (any, error) {
			v, _ := sc.Get("x")
			return v, nil
		},
	}
	sc := NewScope()
	sc.Set("x", "value")

	v, err := ev.Evaluate("x", nil, sc)
	require.NoError(t, err)
	assert.Equal(t, "value", v)

	_, err = ev.Evaluate("y", nil, sc)
	var unknown *UnknownActionError
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, "y", unknown.Expr)
	assert.Equal(t, "no function registered for action `y`", err.Error())
}
