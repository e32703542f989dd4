package ometa

import (
	"fmt"
	"reflect"
)

// Input is a node in the chain of positions a parse walks through.
// Nodes are never mutated by advancing: `Tail` hands out the next
// node and keeps handing out that same node, so backtracking is just
// holding on to an older Input.
type Input interface {
	// Head returns the token under this node or a *Failure when
	// there's nothing left to read
	Head() (any, error)

	// Tail returns the node right after this one
	Tail() Input

	// Position returns the offset of this node within its backing
	// sequence
	Position() int

	memo(name string) *memoEntry
	setMemo(name string, entry *memoEntry)
	forget(name string)
	memoNames() []string
}

// Cursor is the Input over a backing sequence of tokens.  All cursors
// created from the same `NewInput` call share the same backing slice.
type Cursor struct {
	data  []any
	pos   int
	text  bool
	memos map[string]*memoEntry
	next  *Cursor
}

// NewInput creates the first cursor over `v`.  Strings and rune
// slices become textual inputs whose tokens are runes.  Any other
// slice or array becomes an input of its elements.  Everything else,
// runes included, is not a sequence and returns an error.
func NewInput(v any) (*Cursor, error) {
	switch seq := v.(type) {
	case string:
		return newTextCursor([]rune(seq)), nil
	case []rune:
		return newTextCursor(seq), nil
	case []any:
		return &Cursor{data: seq}, nil
	case *Cursor:
		return seq, nil
	case nil:
		return nil, fmt.Errorf("can't read input from nil")
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		data := make([]any, rv.Len())
		for i := range data {
			data[i] = rv.Index(i).Interface()
		}
		return &Cursor{data: data}, nil
	}
	return nil, fmt.Errorf("can't read input from %T", v)
}

func newTextCursor(runes []rune) *Cursor {
	data := make([]any, len(runes))
	for i, r := range runes {
		data[i] = r
	}
	return &Cursor{data: data, text: true}
}

// Head returns the token under the cursor
func (c *Cursor) Head() (any, error) {
	if c.pos >= len(c.data) {
		return nil, NewFailure(c.pos, Message("end of input"))
	}
	return c.data[c.pos], nil
}

// Tail returns the cursor one token ahead.  It's created once and
// then reused, which is what makes two cursors at the same position
// of the same sequence the same pointer.
func (c *Cursor) Tail() Input {
	if c.next == nil {
		c.next = &Cursor{data: c.data, pos: c.pos + 1, text: c.text}
	}
	return c.next
}

// Position returns the token offset of the cursor
func (c *Cursor) Position() int { return c.pos }

// Len returns the length of the backing sequence
func (c *Cursor) Len() int { return len(c.data) }

// IsText is true for cursors created from strings or rune slices
func (c *Cursor) IsText() bool { return c.text }

func (c *Cursor) memo(name string) *memoEntry { return c.memos[name] }

func (c *Cursor) setMemo(name string, entry *memoEntry) {
	if c.memos == nil {
		c.memos = map[string]*memoEntry{}
	}
	c.memos[name] = entry
}

func (c *Cursor) forget(name string) { delete(c.memos, name) }

func (c *Cursor) memoNames() []string { return mapKeys(c.memos) }

// ArgFrame is a single token pushed in front of another Input.  It's
// how arguments reach rules that read their parameters from the input
// instead of receiving them as Go arguments.
type ArgFrame struct {
	arg    any
	parent Input
	memos  map[string]*memoEntry
}

func newArgFrame(arg any, parent Input) *ArgFrame {
	return &ArgFrame{arg: arg, parent: parent}
}

// Head returns the pushed argument
func (f *ArgFrame) Head() (any, error) { return f.arg, nil }

// Tail returns the input the frame was pushed on top of
func (f *ArgFrame) Tail() Input { return f.parent }

// Position returns the position of the input beneath the frame
func (f *ArgFrame) Position() int { return f.parent.Position() }

func (f *ArgFrame) memo(name string) *memoEntry { return f.memos[name] }

func (f *ArgFrame) setMemo(name string, entry *memoEntry) {
	if f.memos == nil {
		f.memos = map[string]*memoEntry{}
	}
	f.memos[name] = entry
}

func (f *ArgFrame) forget(name string) { delete(f.memos, name) }

func (f *ArgFrame) memoNames() []string { return mapKeys(f.memos) }

// leftRecursion is the sentinel stored while a rule runs.  Finding it
// again at the same position means the rule is left recursive.
type leftRecursion struct {
	detected bool
}

// memoEntry is either in progress (lr != nil) or done
type memoEntry struct {
	lr    *leftRecursion
	value any
	next  Input
}

// baseCursor walks through argument frames until it finds the cursor
// beneath them
func baseCursor(in Input) *Cursor {
	for in != nil {
		switch n := in.(type) {
		case *Cursor:
			return n
		case *ArgFrame:
			in = n.parent
		default:
			return nil
		}
	}
	return nil
}

func mapKeys(m map[string]*memoEntry) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	return keys
}
