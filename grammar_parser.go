package ometa

import (
	"strconv"
	"strings"
	"sync"
)

var (
	bootGrammar *Grammar
	bootOnce    sync.Once
)

// ParseGrammar reads grammar source into a tree.  The grammar that
// reads it is itself an ordinary grammar of Go rules running on the
// engine, so syntax errors come with the usual diagnostics.
func ParseGrammar(name, source string) (*GrammarNode, error) {
	e, err := NewEngine(grammarOfGrammars(), source)
	if err != nil {
		return nil, err
	}
	v, err := e.Parse("grammar")
	if err != nil {
		return nil, err
	}
	n := v.(*GrammarNode)
	n.Name = name
	return n, nil
}

func grammarOfGrammars() *Grammar {
	bootOnce.Do(func() {
		bootGrammar = NewGrammar("ometa", nil).
			Define("grammar", 0, parseGrammar).
			Define("clause", 0, parseClause).
			Define("name", 0, parseName).
			Define("expr", 0, parseExpr).
			Define("xor", 0, parseXor).
			Define("expr5", 0, parseInterleave).
			Define("expr4", 0, parseSequence).
			Define("expr3", 0, parsePostfix).
			Define("expr2", 0, parsePrefix).
			Define("expr1", 0, parsePrimary).
			Define("application", 0, parseApplication).
			Define("superApplication", 0, parseSuperApplication).
			Define("ruleValue", 0, parseRuleValue).
			Define("semanticPredicate", 0, parseSemanticPredicate).
			Define("semanticAction", 0, parseSemanticAction).
			Define("number", 0, parseNumber).
			Define("range", 0, parseRange).
			Define("character", 0, parseCharacter).
			Define("string", 0, parseString).
			Define("group", 0, parseGroup("(", ")", nil)).
			Define("listPattern", 0, parseGroup("[", "]", func(n AstNode, s Range) AstNode {
				return NewListPatternNode(n, s)
			})).
			Define("consumedBy", 0, parseGroup("<", ">", func(n AstNode, s Range) AstNode {
				return NewConsumedByNode(n, s)
			}))
	})
	return bootGrammar
}

// clauseDef is the value of the `clause` rule
type clauseDef struct {
	name   string
	clause *ClauseNode
}

func apply(name string) ParserFn {
	return func(e *Engine) (any, error) { return e.Apply(name) }
}

// GR: grammar = clause* spaces end
func parseGrammar(e *Engine, _ ...any) (any, error) {
	start := e.Position()
	defs, err := e.Many(apply("clause"))
	if err != nil {
		return nil, err
	}
	blank(e, false)
	if _, err := e.End(); err != nil {
		return nil, err
	}

	// clauses sharing a name become one rule, in the order each name
	// first shows up
	var rules []*RuleNode
	byName := map[string]*RuleNode{}
	for _, d := range defs.([]any) {
		def := d.(clauseDef)
		r, ok := byName[def.name]
		if !ok {
			r = NewRuleNode(def.name, nil, def.clause.Span())
			byName[def.name] = r
			rules = append(rules, r)
		}
		r.Clauses = append(r.Clauses, def.clause)
		r.rg.End = def.clause.Span().End
	}
	return NewGrammarNode("", rules, NewRange(start, e.Position())), nil
}

// GR: clause = spaces name expr4 ('=' expr)?
func parseClause(e *Engine, _ ...any) (any, error) {
	blank(e, false)
	start := e.Position()
	name, err := e.Apply("name")
	if err != nil {
		return nil, err
	}
	head, err := e.Apply("expr4")
	if err != nil {
		return nil, err
	}
	body, err := e.Optional(func(e *Engine) (any, error) {
		return e.Sequence(sym("="), apply("expr"))
	})
	if err != nil {
		return nil, err
	}

	var args []AstNode
	if body == nil {
		body = head
	} else if seq, ok := head.(*SequenceNode); ok {
		args = seq.Items
	} else {
		args = []AstNode{head.(AstNode)}
	}
	return clauseDef{
		name:   name.(string),
		clause: NewClauseNode(args, body.(AstNode), NewRange(start, e.Position())),
	}, nil
}

// GR: name = (letter | '_') letterOrDigit*
func parseName(e *Engine, _ ...any) (any, error) {
	blank(e, true)
	return e.ConsumedBy(func(e *Engine) (any, error) {
		return e.Sequence(
			func(e *Engine) (any, error) {
				return e.Or(apply("letter"), func(e *Engine) (any, error) { return e.Exactly('_') })
			},
			func(e *Engine) (any, error) { return e.Many(apply("letterOrDigit")) },
		)
	})
}

// GR: expr = xor ('|' ~'|' xor)*
func parseExpr(e *Engine, _ ...any) (any, error) {
	return parseInfix(e, "xor", "|", func(items []AstNode, s Range) AstNode {
		return NewOrNode(items, s)
	})
}

// GR: xor = expr5 ('||' expr5)*
func parseXor(e *Engine, _ ...any) (any, error) {
	return parseInfix(e, "expr5", "||", func(items []AstNode, s Range) AstNode {
		return NewXorNode(items, s)
	})
}

func parseInfix(e *Engine, operand, op string, node func([]AstNode, Range) AstNode) (any, error) {
	start := e.Position()
	first, err := e.Apply(operand)
	if err != nil {
		return nil, err
	}
	rest, err := e.Many(func(e *Engine) (any, error) {
		return e.Sequence(
			sym(op),
			func(e *Engine) (any, error) {
				return e.Not(func(e *Engine) (any, error) { return e.Exactly('|') })
			},
			apply(operand),
		)
	})
	if err != nil {
		return nil, err
	}
	if len(rest.([]any)) == 0 {
		return first, nil
	}
	return node(astNodes(append([]any{first}, rest.([]any)...)), NewRange(start, e.Position())), nil
}

// GR: expr5 = expr4 ('&&' expr4)*
func parseInterleave(e *Engine, _ ...any) (any, error) {
	start := e.Position()
	first, err := e.Apply("expr4")
	if err != nil {
		return nil, err
	}
	rest, err := e.Many(func(e *Engine) (any, error) {
		return e.Sequence(sym("&&"), apply("expr4"))
	})
	if err != nil {
		return nil, err
	}
	if len(rest.([]any)) == 0 {
		return first, nil
	}
	items := astNodes(append([]any{first}, rest.([]any)...))
	parts := make([]InterleavePartNode, len(items))
	for i, item := range items {
		parts[i] = interleavePart(item)
	}
	return NewInterleaveNode(parts, NewRange(start, e.Position())), nil
}

// interleavePart takes the multiplicity and the name of an operand of
// `&&` from the nodes wrapping it
func interleavePart(n AstNode) InterleavePartNode {
	var p InterleavePartNode
	if b, ok := n.(*BindNode); ok && b.Expr != nil {
		p.Name, n = b.Name, b.Expr
	}
	switch t := n.(type) {
	case *ManyNode:
		p.Mode, p.Expr = ZeroOrMore, t.Expr
	case *Many1Node:
		p.Mode, p.Expr = OneOrMore, t.Expr
	case *OptionalNode:
		p.Mode, p.Expr = ZeroOrOne, t.Expr
	default:
		p.Mode, p.Expr = One, n
	}
	return p
}

// GR: expr4 = expr3*
func parseSequence(e *Engine, _ ...any) (any, error) {
	start := e.Position()
	items, err := e.Many(apply("expr3"))
	if err != nil {
		return nil, err
	}
	nodes := astNodes(items.([]any))
	if len(nodes) == 1 {
		return nodes[0], nil
	}
	return NewSequenceNode(nodes, NewRange(start, e.Position())), nil
}

// GR: expr3 = expr2 ('*' | '+' | '?')? (':' name)?
// GR:       | ':' name
func parsePostfix(e *Engine, _ ...any) (any, error) {
	blank(e, true)
	start := e.Position()
	if _, err := e.Exactly(':'); err == nil {
		name, err := e.Apply("name")
		if err != nil {
			return nil, err
		}
		return NewBindNode(name.(string), nil, NewRange(start, e.Position())), nil
	}
	v, err := e.Apply("expr2")
	if err != nil {
		return nil, err
	}
	n := v.(AstNode)
	if op, err := e.Or(
		func(e *Engine) (any, error) { return e.Exactly('*') },
		func(e *Engine) (any, error) { return e.Exactly('+') },
		func(e *Engine) (any, error) { return e.Exactly('?') },
	); err == nil {
		s := NewRange(start, e.Position())
		switch op {
		case '*':
			n = NewManyNode(n, s)
		case '+':
			n = NewMany1Node(n, s)
		default:
			n = NewOptionalNode(n, s)
		}
	}
	if _, err := e.Exactly(':'); err == nil {
		name, err := e.Apply("name")
		if err != nil {
			return nil, err
		}
		n = NewBindNode(name.(string), n, NewRange(start, e.Position()))
	}
	return n, nil
}

// GR: expr2 = '~~' expr2 | '~' expr2 | expr1
func parsePrefix(e *Engine, _ ...any) (any, error) {
	blank(e, true)
	start := e.Position()
	return e.Or(
		func(e *Engine) (any, error) {
			v, err := e.Sequence(sym("~~"), apply("expr2"))
			if err != nil {
				return nil, err
			}
			return NewLookaheadNode(v.(AstNode), NewRange(start, e.Position())), nil
		},
		func(e *Engine) (any, error) {
			v, err := e.Sequence(sym("~"), apply("expr2"))
			if err != nil {
				return nil, err
			}
			return NewNotNode(v.(AstNode), NewRange(start, e.Position())), nil
		},
		apply("expr1"),
	)
}

// GR: expr1 = superApplication | application | ruleValue
// GR:       | semanticPredicate | semanticAction | number | range
// GR:       | character | string | group | listPattern | consumedBy
func parsePrimary(e *Engine, _ ...any) (any, error) {
	return e.Or(
		apply("superApplication"),
		apply("application"),
		apply("ruleValue"),
		apply("semanticPredicate"),
		apply("semanticAction"),
		apply("range"),
		apply("number"),
		apply("character"),
		apply("string"),
		apply("group"),
		apply("listPattern"),
		apply("consumedBy"),
	)
}

// GR: application = name ('(' hostArgs ')')?
func parseApplication(e *Engine, _ ...any) (any, error) {
	blank(e, true)
	start := e.Position()
	name, err := e.Apply("name")
	if err != nil {
		return nil, err
	}
	args, err := parseArgs(e)
	if err != nil {
		return nil, err
	}
	return NewApplyNode(name.(string), args, NewRange(start, e.Position())), nil
}

// GR: superApplication = "super." name ('(' hostArgs ')')?
func parseSuperApplication(e *Engine, _ ...any) (any, error) {
	start := e.Position()
	if _, err := sym("super.")(e); err != nil {
		return nil, err
	}
	name, err := e.Apply("name")
	if err != nil {
		return nil, err
	}
	args, err := parseArgs(e)
	if err != nil {
		return nil, err
	}
	return NewSuperApplyNode(name.(string), args, NewRange(start, e.Position())), nil
}

// parseArgs reads the arguments of an application, when the name is
// followed right away by an open parenthesis
func parseArgs(e *Engine) ([]*HostExprNode, error) {
	if _, err := e.Exactly('('); err != nil {
		return nil, nil
	}
	if _, err := e.Exactly(')'); err == nil {
		return nil, nil
	}
	var args []*HostExprNode
	for {
		arg, err := hostExpr(e, argStop)
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
		if _, err := e.Exactly(','); err != nil {
			break
		}
	}
	if _, err := e.Exactly(')'); err != nil {
		return nil, err
	}
	return args, nil
}

// GR: ruleValue = "->" hostExpr
func parseRuleValue(e *Engine, _ ...any) (any, error) {
	blank(e, true)
	start := e.Position()
	if _, err := sym("->")(e); err != nil {
		return nil, err
	}
	expr, err := hostExpr(e, ruleValueStop)
	if err != nil {
		return nil, err
	}
	return NewRuleValueNode(expr, NewRange(start, e.Position())), nil
}

// GR: semanticPredicate = "?(" hostExpr ')'
func parseSemanticPredicate(e *Engine, _ ...any) (any, error) {
	blank(e, true)
	start := e.Position()
	expr, err := parseParenExpr(e, "?(")
	if err != nil {
		return nil, err
	}
	return NewPredicateNode(expr, NewRange(start, e.Position())), nil
}

// GR: semanticAction = "!(" hostExpr ')'
func parseSemanticAction(e *Engine, _ ...any) (any, error) {
	blank(e, true)
	start := e.Position()
	expr, err := parseParenExpr(e, "!(")
	if err != nil {
		return nil, err
	}
	return NewActionNode(expr, NewRange(start, e.Position())), nil
}

func parseParenExpr(e *Engine, open string) (*HostExprNode, error) {
	start := e.input
	if _, err := sym(open)(e); err != nil {
		return nil, err
	}
	expr, err := hostExpr(e, parenStop)
	if err != nil {
		e.input = start
		return nil, err
	}
	if _, err := e.Exactly(')'); err != nil {
		e.input = start
		return nil, err
	}
	return expr, nil
}

// GR: number = '-'? ("0x" hexdigit+ | digit+)
func parseNumber(e *Engine, _ ...any) (any, error) {
	blank(e, true)
	start := e.Position()
	text, err := e.ConsumedBy(func(e *Engine) (any, error) {
		return e.Sequence(
			func(e *Engine) (any, error) {
				return e.Optional(func(e *Engine) (any, error) { return e.Exactly('-') })
			},
			func(e *Engine) (any, error) {
				return e.Or(
					func(e *Engine) (any, error) {
						return e.Sequence(
							func(e *Engine) (any, error) { return e.MatchString("0x") },
							func(e *Engine) (any, error) { return e.Many1(apply("hexdigit")) },
						)
					},
					func(e *Engine) (any, error) { return e.Many1(apply("digit")) },
				)
			},
		)
	})
	if err != nil {
		return nil, err
	}
	// base 0 reads 0x as hexadecimal and a leading zero as octal
	n, perr := strconv.ParseInt(text.(string), 0, 64)
	if perr != nil {
		return nil, e.failAt(start, Expected("number", nil))
	}
	return NewExactlyNode(n, NewRange(start, e.Position())), nil
}

// GR: range = (character | number) ".." (character | number)
func parseRange(e *Engine, _ ...any) (any, error) {
	blank(e, true)
	start := e.input
	bound := func(e *Engine) (any, error) {
		return e.Or(apply("character"), apply("number"))
	}
	lo, err := bound(e)
	if err != nil {
		return nil, err
	}
	if _, err := e.MatchString(".."); err != nil {
		e.input = start
		return nil, err
	}
	hi, err := bound(e)
	if err != nil {
		e.input = start
		return nil, err
	}
	l, lok := lo.(*ExactlyNode)
	h, hok := hi.(*ExactlyNode)
	if !lok || !hok {
		e.input = start
		return nil, e.failAt(start.Position(), Message("range bounds must be single characters or numbers"))
	}
	return NewRangeNode(l.Value, h.Value, NewRange(start.Position(), e.Position())), nil
}

// GR: character = '\'' (escapedChar | ~'\'' anything)* '\''
func parseCharacter(e *Engine, _ ...any) (any, error) {
	blank(e, true)
	start := e.Position()
	s, err := quoted(e, '\'')
	if err != nil {
		return nil, err
	}
	rg := NewRange(start, e.Position())
	if r := []rune(s); len(r) == 1 {
		return NewExactlyNode(r[0], rg), nil
	}
	return NewMatchStringNode(s, rg), nil
}

// GR: string = '"' (escapedChar | ~'"' anything)* '"'
func parseString(e *Engine, _ ...any) (any, error) {
	blank(e, true)
	start := e.Position()
	s, err := quoted(e, '"')
	if err != nil {
		return nil, err
	}
	return NewTokenNode(s, NewRange(start, e.Position())), nil
}

// quoted reads a literal delimited by `q`, resolving escapes
func quoted(e *Engine, q rune) (string, error) {
	start := e.input
	if _, err := e.Exactly(q); err != nil {
		return "", err
	}
	var s strings.Builder
	for {
		tok, err := e.input.Head()
		if err != nil {
			return "", unterminated(e, start, q)
		}
		e.input = e.input.Tail()
		r := tok.(rune)
		switch r {
		case q:
			return s.String(), nil
		case '\\':
			esc, err := escapedChar(e)
			if err != nil {
				e.input = start
				return "", err
			}
			s.WriteRune(esc)
		default:
			s.WriteRune(r)
		}
	}
}

// escapedChar reads what comes after a backslash
func escapedChar(e *Engine) (rune, error) {
	pos := e.Position()
	tok, err := e.Anything()
	if err != nil {
		return 0, err
	}
	switch r := tok.(rune); r {
	case 'n':
		return '\n', nil
	case 'r':
		return '\r', nil
	case 't':
		return '\t', nil
	case 'b':
		return '\b', nil
	case 'f':
		return '\f', nil
	case '0':
		return 0, nil
	case 'x', 'u':
		size := 2
		if r == 'u' {
			size = 4
		}
		var digits strings.Builder
		for i := 0; i < size; i++ {
			d, err := e.Apply("hexdigit")
			if err != nil {
				return 0, err
			}
			digits.WriteRune(d.(rune))
		}
		n, perr := strconv.ParseUint(digits.String(), 16, 32)
		if perr != nil {
			return 0, e.failAt(pos, Expected("escape sequence", nil))
		}
		return rune(n), nil
	default:
		return r, nil
	}
}

// GR: group = '(' expr ')'
func parseGroup(open, close string, wrap func(AstNode, Range) AstNode) RuleFunc {
	return func(e *Engine, _ ...any) (any, error) {
		blank(e, true)
		start := e.Position()
		v, err := e.Sequence(sym(open), apply("expr"))
		if err != nil {
			return nil, err
		}
		if _, err := sym(close)(e); err != nil {
			return nil, err
		}
		if wrap == nil {
			return v, nil
		}
		return wrap(v.(AstNode), NewRange(start, e.Position())), nil
	}
}

// sym skips blanks within a rule body and matches `s`
func sym(s string) ParserFn {
	return func(e *Engine) (any, error) {
		start := e.input
		blank(e, true)
		v, err := e.MatchString(s)
		if err != nil {
			e.input = start
			return nil, err
		}
		return v, nil
	}
}

// blank skips whitespace and `#` comments.  Within a rule body a line
// break only counts as blank when the next line is indented or
// empty, since a name at the start of a line begins a new clause.
func blank(e *Engine, inBody bool) {
	for {
		tok, err := e.input.Head()
		if err != nil {
			return
		}
		r, ok := tok.(rune)
		if !ok {
			return
		}
		switch r {
		case ' ', '\t', '\f', '\v':
		case '#':
			for {
				next := e.input.Tail()
				if t, err := next.Head(); err != nil || t == '\n' {
					break
				}
				e.input = next
			}
		case '\r', '\n':
			if inBody && !continuesBody(e.input.Tail()) {
				return
			}
		default:
			return
		}
		e.input = e.input.Tail()
	}
}

func continuesBody(in Input) bool {
	tok, err := in.Head()
	if err != nil {
		return false
	}
	switch tok {
	case ' ', '\t', '\r', '\n', '#':
		return true
	}
	return false
}

// stop conditions of host expressions at nesting depth zero

func argStop(r rune, _ Input) bool { return r == ',' }

func parenStop(rune, Input) bool { return false }

func ruleValueStop(r rune, next Input) bool {
	switch r {
	case '\r', '\n':
		return true
	case '|':
		t, err := next.Head()
		return err != nil || t != '|'
	}
	return false
}

// hostExpr reads host language text until `stop` says so or an
// unbalanced closing bracket shows up.  Brackets and quoted strings
// are skipped as a whole.
func hostExpr(e *Engine, stop func(r rune, next Input) bool) (*HostExprNode, error) {
	blank(e, true)
	start := e.input
	var (
		s     strings.Builder
		depth int
	)
loop:
	for {
		tok, err := e.input.Head()
		if err != nil {
			break
		}
		r := tok.(rune)
		switch {
		case depth == 0 && stop(r, e.input.Tail()):
			break loop
		case r == '(' || r == '[' || r == '{':
			depth++
		case r == ')' || r == ']' || r == '}':
			if depth == 0 {
				break loop
			}
			depth--
		case r == '"' || r == '\'' || r == '`':
			lit, err := rawQuoted(e, r)
			if err != nil {
				e.input = start
				return nil, err
			}
			s.WriteString(lit)
			continue
		}
		s.WriteRune(r)
		e.input = e.input.Tail()
	}
	src := strings.TrimSpace(s.String())
	if src == "" || depth > 0 {
		e.input = start
		return nil, e.failAt(e.Position(), Expected("host expression", nil))
	}
	return NewHostExprNode(src, NewRange(start.Position(), e.Position())), nil
}

// rawQuoted reads a quoted string of the host language keeping it as
// it was written
func rawQuoted(e *Engine, q rune) (string, error) {
	start := e.input
	var s strings.Builder
	s.WriteRune(q)
	e.input = e.input.Tail()
	for {
		tok, err := e.input.Head()
		if err != nil {
			return "", unterminated(e, start, q)
		}
		e.input = e.input.Tail()
		r := tok.(rune)
		s.WriteRune(r)
		switch r {
		case q:
			return s.String(), nil
		case '\\':
			if next, err := e.Anything(); err == nil {
				s.WriteRune(next.(rune))
			}
		}
	}
}

// unterminated reports the missing closing quote at the end of the
// input and moves back to the opening one
func unterminated(e *Engine, start Input, q rune) error {
	f := e.Fail(Expected(KindLiteral, q))
	e.input = start
	return f
}

func astNodes(values []any) []AstNode {
	nodes := make([]AstNode, len(values))
	for i, v := range values {
		nodes[i] = v.(AstNode)
	}
	return nodes
}
