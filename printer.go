package ometa

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/clarete/ometa/ascii"
)

type FormatToken int

const (
	FormatToken_None FormatToken = iota
	FormatToken_Span
	FormatToken_Literal
	FormatToken_Operator
	FormatToken_Operand
)

type FormatFunc[T any] func(input string, token T) string

type treePrinter[T any] struct {
	padStr []string
	output strings.Builder
	format FormatFunc[T]
}

func newTreePrinter[T any](format FormatFunc[T]) *treePrinter[T] {
	return &treePrinter[T]{format: format}
}

func (tp *treePrinter[T]) indent(s string) {
	tp.padStr = append(tp.padStr, s)
}

func (tp *treePrinter[T]) unindent() {
	tp.padStr = tp.padStr[:len(tp.padStr)-1]
}

func (tp *treePrinter[T]) padding() {
	for _, item := range tp.padStr {
		tp.write(item)
	}
}

func (tp *treePrinter[T]) write(s string) {
	tp.output.WriteString(s)
}

func (tp *treePrinter[T]) pwrite(s string) {
	tp.padding()
	tp.write(s)
}

func (tp *treePrinter[T]) writeToken(s string, token T) {
	tp.write(tp.format(s, token))
}

// children prints each item in its own branch below the current line
func (tp *treePrinter[T]) children(n int, each func(i int)) {
	for i := 0; i < n; i++ {
		tp.write("\n")
		if i == n-1 {
			tp.pwrite("└── ")
			tp.indent("    ")
		} else {
			tp.pwrite("├── ")
			tp.indent("│   ")
		}
		each(i)
		tp.unindent()
	}
}

func themeFormat(theme ascii.Theme) FormatFunc[FormatToken] {
	colors := map[FormatToken]string{
		FormatToken_Span:     theme.Span,
		FormatToken_Literal:  theme.Literal,
		FormatToken_Operator: theme.Operator,
		FormatToken_Operand:  theme.Operand,
	}
	return func(input string, token FormatToken) string {
		if c := colors[token]; c != "" {
			return c + input + ascii.Reset
		}
		return input
	}
}

// PrettyString renders a grammar node and everything beneath it as a
// tree
func PrettyString(n AstNode) string {
	return printAst(n, ascii.Theme{})
}

// HighlightString is PrettyString with ANSI colors
func HighlightString(n AstNode) string {
	return printAst(n, ascii.DefaultTheme)
}

func printAst(n AstNode, theme ascii.Theme) string {
	tp := newTreePrinter(themeFormat(theme))
	writeAstNode(tp, n)
	return tp.output.String()
}

func writeAstNode(tp *treePrinter[FormatToken], n AstNode) {
	op, rand := astLabel(n)
	tp.writeToken(op, FormatToken_Operator)
	if rand != "" {
		tp.write("(")
		tp.writeToken(rand, FormatToken_Operand)
		tp.write(")")
	}
	tp.write(" @ ")
	tp.writeToken(n.Span().String(), FormatToken_Span)

	children := Children(n)
	tp.children(len(children), func(i int) { writeAstNode(tp, children[i]) })
}

func astLabel(n AstNode) (string, string) {
	switch t := n.(type) {
	case *GrammarNode:
		return "Grammar", t.Name
	case *RuleNode:
		return "Rule", t.Name
	case *ClauseNode:
		return "Clause", ""
	case *ApplyNode:
		return "Apply", t.Name
	case *SuperApplyNode:
		return "SuperApply", t.Name
	case *ExactlyNode:
		return "Exactly", t.Text()
	case *MatchStringNode:
		return "MatchString", t.Text()
	case *TokenNode:
		return "Token", t.Text()
	case *RangeNode:
		return "Range", t.Text()
	case *SequenceNode:
		return "Sequence", ""
	case *OrNode:
		return "Or", ""
	case *XorNode:
		return "Xor", ""
	case *ManyNode:
		return "Many", ""
	case *Many1Node:
		return "Many1", ""
	case *OptionalNode:
		return "Optional", ""
	case *NotNode:
		return "Not", ""
	case *LookaheadNode:
		return "Lookahead", ""
	case *BindNode:
		return "Bind", t.Name
	case *ListPatternNode:
		return "ListPattern", ""
	case *ConsumedByNode:
		return "ConsumedBy", ""
	case *InterleaveNode:
		modes := make([]string, len(t.Parts))
		for i, p := range t.Parts {
			modes[i] = p.Mode.String()
			if modes[i] == "" {
				modes[i] = "1"
			}
			if p.Name != "" {
				modes[i] += ":" + p.Name
			}
		}
		return "Interleave", strings.Join(modes, ", ")
	case *HostExprNode:
		return "HostExpr", t.Source
	case *PredicateNode:
		return "Predicate", ""
	case *ActionNode:
		return "Action", ""
	case *RuleValueNode:
		return "RuleValue", ""
	}
	return fmt.Sprintf("%T", n), ""
}

// PrettyValue renders a parse result as a tree
func PrettyValue(v any) string {
	tp := newTreePrinter(themeFormat(ascii.Theme{}))
	writeValue(tp, v)
	return tp.output.String()
}

// HighlightValue is PrettyValue with ANSI colors
func HighlightValue(v any) string {
	tp := newTreePrinter(themeFormat(ascii.DefaultTheme))
	writeValue(tp, v)
	return tp.output.String()
}

func writeValue(tp *treePrinter[FormatToken], v any) {
	switch t := v.(type) {
	case nil:
		tp.writeToken("nil", FormatToken_Literal)
	case string:
		tp.writeToken(strconv.Quote(t), FormatToken_Literal)
	case rune:
		tp.writeToken(strconv.QuoteRune(t), FormatToken_Literal)
	case []any:
		tp.writeToken("List", FormatToken_Operator)
		tp.writeToken(fmt.Sprintf("<%d>", len(t)), FormatToken_Operand)
		tp.children(len(t), func(i int) { writeValue(tp, t[i]) })
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		tp.writeToken("Map", FormatToken_Operator)
		tp.writeToken(fmt.Sprintf("<%d>", len(t)), FormatToken_Operand)
		tp.children(len(keys), func(i int) {
			tp.writeToken(keys[i], FormatToken_Operand)
			tp.write(": ")
			writeValue(tp, t[keys[i]])
		})
	default:
		tp.writeToken(fmt.Sprintf("%v", t), FormatToken_Literal)
	}
}

var literalSanitizer = strings.NewReplacer(
	`\`, `\\`,
	string('\n'), `\n`,
	string('\r'), `\r`,
	string('\t'), `\t`,
)

// escapeLiteral escapes control characters and the quote `q` so `s`
// can be written back as a literal
func escapeLiteral(s string, q rune) string {
	s = literalSanitizer.Replace(s)
	return strings.ReplaceAll(s, string(q), `\`+string(q))
}
