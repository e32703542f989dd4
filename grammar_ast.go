package ometa

import (
	"fmt"
	"strconv"
	"strings"
)

// AstNode is a node of a grammar read by the grammar parser, or
// built by hand
type AstNode interface {
	// Span returns the range of the grammar source the node was
	// read from
	Span() Range

	// Text renders the node back as grammar source
	Text() string

	// String returns a compact description of the node and its span
	String() string

	// Accept calls the method of `v` that handles this node type
	Accept(v AstNodeVisitor) error
}

type span struct{ rg Range }

func (s span) Span() Range { return s.rg }

// Node Type: Apply

type ApplyNode struct {
	span
	Name string
	Args []*HostExprNode
}

func NewApplyNode(name string, args []*HostExprNode, s Range) *ApplyNode {
	return &ApplyNode{span: span{s}, Name: name, Args: args}
}

func (n ApplyNode) Text() string   { return n.Name + argsText(n.Args) }
func (n ApplyNode) String() string { return fmt.Sprintf("Apply(%s) @ %s", n.Name, n.rg) }

// Node Type: SuperApply

type SuperApplyNode struct {
	span
	Name string
	Args []*HostExprNode
}

func NewSuperApplyNode(name string, args []*HostExprNode, s Range) *SuperApplyNode {
	return &SuperApplyNode{span: span{s}, Name: name, Args: args}
}

func (n SuperApplyNode) Text() string   { return "super." + n.Name + argsText(n.Args) }
func (n SuperApplyNode) String() string { return fmt.Sprintf("SuperApply(%s) @ %s", n.Name, n.rg) }

func argsText(args []*HostExprNode) string {
	if len(args) == 0 {
		return ""
	}
	texts := make([]string, len(args))
	for i, a := range args {
		texts[i] = a.Text()
	}
	return "(" + strings.Join(texts, ", ") + ")"
}

// Node Type: Exactly

// ExactlyNode matches one token.  Value is a rune for character
// literals and an int64 for number literals.
type ExactlyNode struct {
	span
	Value any
}

func NewExactlyNode(v any, s Range) *ExactlyNode {
	return &ExactlyNode{span: span{s}, Value: v}
}

func (n ExactlyNode) Text() string {
	if r, ok := n.Value.(rune); ok {
		return quoteChar(string(r))
	}
	return fmt.Sprint(n.Value)
}

func (n ExactlyNode) String() string { return fmt.Sprintf("Exactly(%s) @ %s", n.Text(), n.rg) }

// Node Type: MatchString

type MatchStringNode struct {
	span
	Value string
}

func NewMatchStringNode(v string, s Range) *MatchStringNode {
	return &MatchStringNode{span: span{s}, Value: v}
}

func (n MatchStringNode) Text() string { return quoteChar(n.Value) }
func (n MatchStringNode) String() string {
	return fmt.Sprintf("MatchString(%s) @ %s", n.Text(), n.rg)
}

// Node Type: Token

type TokenNode struct {
	span
	Value string
}

func NewTokenNode(v string, s Range) *TokenNode {
	return &TokenNode{span: span{s}, Value: v}
}

func (n TokenNode) Text() string   { return strconv.Quote(n.Value) }
func (n TokenNode) String() string { return fmt.Sprintf("Token(%s) @ %s", n.Text(), n.rg) }

// Node Type: Range

type RangeNode struct {
	span
	Lo, Hi any
}

func NewRangeNode(lo, hi any, s Range) *RangeNode {
	return &RangeNode{span: span{s}, Lo: lo, Hi: hi}
}

func (n RangeNode) Text() string {
	return NewExactlyNode(n.Lo, n.rg).Text() + ".." + NewExactlyNode(n.Hi, n.rg).Text()
}

func (n RangeNode) String() string { return fmt.Sprintf("Range(%s) @ %s", n.Text(), n.rg) }

// Node Type: Sequence

type SequenceNode struct {
	span
	Items []AstNode
}

func NewSequenceNode(items []AstNode, s Range) *SequenceNode {
	return &SequenceNode{span: span{s}, Items: items}
}

func (n SequenceNode) Text() string {
	texts := make([]string, len(n.Items))
	for i, item := range n.Items {
		texts[i] = groupText(item, isChoice)
	}
	return strings.Join(texts, " ")
}

func (n SequenceNode) String() string { return listString("Sequence", n.Items, n.rg) }

// Node Type: Or

type OrNode struct {
	span
	Items []AstNode
}

func NewOrNode(items []AstNode, s Range) *OrNode {
	return &OrNode{span: span{s}, Items: items}
}

func (n OrNode) Text() string   { return joinText(n.Items, " | ") }
func (n OrNode) String() string { return listString("Or", n.Items, n.rg) }

// Node Type: Xor

type XorNode struct {
	span
	Items []AstNode
}

func NewXorNode(items []AstNode, s Range) *XorNode {
	return &XorNode{span: span{s}, Items: items}
}

func (n XorNode) Text() string   { return joinText(n.Items, " || ") }
func (n XorNode) String() string { return listString("Xor", n.Items, n.rg) }

// Node Type: Many

type ManyNode struct {
	span
	Expr AstNode
}

func NewManyNode(expr AstNode, s Range) *ManyNode {
	return &ManyNode{span: span{s}, Expr: expr}
}

func (n ManyNode) Text() string   { return groupText(n.Expr, isCompound) + "*" }
func (n ManyNode) String() string { return fmt.Sprintf("Many(%s) @ %s", n.Expr, n.rg) }

// Node Type: Many1

type Many1Node struct {
	span
	Expr AstNode
}

func NewMany1Node(expr AstNode, s Range) *Many1Node {
	return &Many1Node{span: span{s}, Expr: expr}
}

func (n Many1Node) Text() string   { return groupText(n.Expr, isCompound) + "+" }
func (n Many1Node) String() string { return fmt.Sprintf("Many1(%s) @ %s", n.Expr, n.rg) }

// Node Type: Optional

type OptionalNode struct {
	span
	Expr AstNode
}

func NewOptionalNode(expr AstNode, s Range) *OptionalNode {
	return &OptionalNode{span: span{s}, Expr: expr}
}

func (n OptionalNode) Text() string   { return groupText(n.Expr, isCompound) + "?" }
func (n OptionalNode) String() string { return fmt.Sprintf("Optional(%s) @ %s", n.Expr, n.rg) }

// Node Type: Not

type NotNode struct {
	span
	Expr AstNode
}

func NewNotNode(expr AstNode, s Range) *NotNode {
	return &NotNode{span: span{s}, Expr: expr}
}

func (n NotNode) Text() string   { return "~" + groupText(n.Expr, isCompound) }
func (n NotNode) String() string { return fmt.Sprintf("Not(%s) @ %s", n.Expr, n.rg) }

// Node Type: Lookahead

type LookaheadNode struct {
	span
	Expr AstNode
}

func NewLookaheadNode(expr AstNode, s Range) *LookaheadNode {
	return &LookaheadNode{span: span{s}, Expr: expr}
}

func (n LookaheadNode) Text() string   { return "~~" + groupText(n.Expr, isCompound) }
func (n LookaheadNode) String() string { return fmt.Sprintf("Lookahead(%s) @ %s", n.Expr, n.rg) }

// Node Type: Bind

// BindNode binds the value of Expr to Name.  A nil Expr binds the
// next token, which is what a bare `:name` means.
type BindNode struct {
	span
	Name string
	Expr AstNode
}

func NewBindNode(name string, expr AstNode, s Range) *BindNode {
	return &BindNode{span: span{s}, Name: name, Expr: expr}
}

func (n BindNode) Text() string {
	if n.Expr == nil {
		return ":" + n.Name
	}
	return groupText(n.Expr, isCompound) + ":" + n.Name
}

func (n BindNode) String() string { return fmt.Sprintf("Bind(%s) @ %s", n.Name, n.rg) }

// Node Type: ListPattern

type ListPatternNode struct {
	span
	Expr AstNode
}

func NewListPatternNode(expr AstNode, s Range) *ListPatternNode {
	return &ListPatternNode{span: span{s}, Expr: expr}
}

func (n ListPatternNode) Text() string   { return "[" + n.Expr.Text() + "]" }
func (n ListPatternNode) String() string { return fmt.Sprintf("ListPattern(%s) @ %s", n.Expr, n.rg) }

// Node Type: ConsumedBy

type ConsumedByNode struct {
	span
	Expr AstNode
}

func NewConsumedByNode(expr AstNode, s Range) *ConsumedByNode {
	return &ConsumedByNode{span: span{s}, Expr: expr}
}

func (n ConsumedByNode) Text() string   { return "<" + n.Expr.Text() + ">" }
func (n ConsumedByNode) String() string { return fmt.Sprintf("ConsumedBy(%s) @ %s", n.Expr, n.rg) }

// Node Type: Interleave

type InterleavePartNode struct {
	Mode Multiplicity
	Expr AstNode
	Name string
}

func (p InterleavePartNode) Text() string {
	text := groupText(p.Expr, isCompound) + p.Mode.String()
	if p.Name != "" {
		text += ":" + p.Name
	}
	return text
}

type InterleaveNode struct {
	span
	Parts []InterleavePartNode
}

func NewInterleaveNode(parts []InterleavePartNode, s Range) *InterleaveNode {
	return &InterleaveNode{span: span{s}, Parts: parts}
}

func (n InterleaveNode) Text() string {
	texts := make([]string, len(n.Parts))
	for i, p := range n.Parts {
		texts[i] = p.Text()
	}
	return strings.Join(texts, " && ")
}

func (n InterleaveNode) String() string {
	return fmt.Sprintf("Interleave(%d) @ %s", len(n.Parts), n.rg)
}

// Node Type: HostExpr

// HostExprNode is a piece of host language text, like the arguments
// of an application or the body of an action.  When Fn is set it's
// called instead of evaluating Source.
type HostExprNode struct {
	span
	Source string
	Fn     ParserFn
}

func NewHostExprNode(src string, s Range) *HostExprNode {
	return &HostExprNode{span: span{s}, Source: src}
}

// NewGoExprNode wraps a Go function as a host expression
func NewGoExprNode(name string, fn ParserFn) *HostExprNode {
	return &HostExprNode{Source: name, Fn: fn}
}

func (n HostExprNode) Text() string   { return n.Source }
func (n HostExprNode) String() string { return fmt.Sprintf("HostExpr(%s) @ %s", n.Source, n.rg) }

// Node Type: Predicate

type PredicateNode struct {
	span
	Expr *HostExprNode
}

func NewPredicateNode(expr *HostExprNode, s Range) *PredicateNode {
	return &PredicateNode{span: span{s}, Expr: expr}
}

func (n PredicateNode) Text() string   { return "?(" + n.Expr.Text() + ")" }
func (n PredicateNode) String() string { return fmt.Sprintf("Predicate(%s) @ %s", n.Expr.Source, n.rg) }

// Node Type: Action

type ActionNode struct {
	span
	Expr *HostExprNode
}

func NewActionNode(expr *HostExprNode, s Range) *ActionNode {
	return &ActionNode{span: span{s}, Expr: expr}
}

func (n ActionNode) Text() string   { return "!(" + n.Expr.Text() + ")" }
func (n ActionNode) String() string { return fmt.Sprintf("Action(%s) @ %s", n.Expr.Source, n.rg) }

// Node Type: RuleValue

type RuleValueNode struct {
	span
	Expr *HostExprNode
}

func NewRuleValueNode(expr *HostExprNode, s Range) *RuleValueNode {
	return &RuleValueNode{span: span{s}, Expr: expr}
}

func (n RuleValueNode) Text() string   { return "-> " + n.Expr.Text() }
func (n RuleValueNode) String() string { return fmt.Sprintf("RuleValue(%s) @ %s", n.Expr.Source, n.rg) }

// Node Type: Clause

// ClauseNode is one definition of a rule.  Args are patterns matched
// against the arguments the rule was applied with, before the body.
type ClauseNode struct {
	span
	Args []AstNode
	Body AstNode
}

func NewClauseNode(args []AstNode, body AstNode, s Range) *ClauseNode {
	return &ClauseNode{span: span{s}, Args: args, Body: body}
}

func (n ClauseNode) Text() string {
	var s strings.Builder
	for _, arg := range n.Args {
		s.WriteString(" ")
		s.WriteString(groupText(arg, isCompound))
	}
	if n.Body != nil {
		s.WriteString(" = ")
		s.WriteString(n.Body.Text())
	}
	return s.String()
}

func (n ClauseNode) String() string { return fmt.Sprintf("Clause(%d) @ %s", len(n.Args), n.rg) }

// Node Type: Rule

type RuleNode struct {
	span
	Name    string
	Clauses []*ClauseNode
}

func NewRuleNode(name string, clauses []*ClauseNode, s Range) *RuleNode {
	return &RuleNode{span: span{s}, Name: name, Clauses: clauses}
}

// Arity is the number of argument patterns of the rule's clauses
func (n RuleNode) Arity() int {
	arity := 0
	for _, c := range n.Clauses {
		arity = max(arity, len(c.Args))
	}
	return arity
}

func (n RuleNode) Text() string {
	lines := make([]string, len(n.Clauses))
	for i, c := range n.Clauses {
		lines[i] = n.Name + c.Text()
	}
	return strings.Join(lines, "\n")
}

func (n RuleNode) String() string { return fmt.Sprintf("Rule(%s) @ %s", n.Name, n.rg) }

// Node Type: Grammar

type GrammarNode struct {
	span
	Name  string
	Rules []*RuleNode
}

func NewGrammarNode(name string, rules []*RuleNode, s Range) *GrammarNode {
	return &GrammarNode{span: span{s}, Name: name, Rules: rules}
}

// Rule returns the rule named `name`
func (n GrammarNode) Rule(name string) (*RuleNode, bool) {
	for _, r := range n.Rules {
		if r.Name == name {
			return r, true
		}
	}
	return nil, false
}

func (n GrammarNode) Text() string {
	rules := make([]string, len(n.Rules))
	for i, r := range n.Rules {
		rules[i] = r.Text()
	}
	return strings.Join(rules, "\n")
}

func (n GrammarNode) String() string { return fmt.Sprintf("Grammar(%s) @ %s", n.Name, n.rg) }

// Helpers

func isChoice(n AstNode) bool {
	switch n.(type) {
	case *OrNode, *XorNode, *InterleaveNode:
		return true
	}
	return false
}

func isCompound(n AstNode) bool {
	if isChoice(n) {
		return true
	}
	switch n.(type) {
	case *SequenceNode, *RuleValueNode:
		return true
	}
	return false
}

func groupText(n AstNode, group func(AstNode) bool) string {
	if group(n) {
		return "(" + n.Text() + ")"
	}
	return n.Text()
}

func joinText(items []AstNode, sep string) string {
	texts := make([]string, len(items))
	for i, item := range items {
		texts[i] = item.Text()
	}
	return strings.Join(texts, sep)
}

func listString(name string, items []AstNode, rg Range) string {
	var s strings.Builder
	s.WriteString(name)
	s.WriteString("(")
	for i, item := range items {
		if i > 0 {
			s.WriteString(", ")
		}
		s.WriteString(item.String())
	}
	s.WriteString(") @ ")
	s.WriteString(rg.String())
	return s.String()
}

// quoteChar renders a single quoted literal
func quoteChar(s string) string {
	return "'" + escapeLiteral(s, '\'') + "'"
}
