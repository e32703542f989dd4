package ometa

type AstNodeVisitor interface {
	VisitGrammarNode(*GrammarNode) error
	VisitRuleNode(*RuleNode) error
	VisitClauseNode(*ClauseNode) error
	VisitApplyNode(*ApplyNode) error
	VisitSuperApplyNode(*SuperApplyNode) error
	VisitExactlyNode(*ExactlyNode) error
	VisitMatchStringNode(*MatchStringNode) error
	VisitTokenNode(*TokenNode) error
	VisitRangeNode(*RangeNode) error
	VisitSequenceNode(*SequenceNode) error
	VisitOrNode(*OrNode) error
	VisitXorNode(*XorNode) error
	VisitManyNode(*ManyNode) error
	VisitMany1Node(*Many1Node) error
	VisitOptionalNode(*OptionalNode) error
	VisitNotNode(*NotNode) error
	VisitLookaheadNode(*LookaheadNode) error
	VisitBindNode(*BindNode) error
	VisitListPatternNode(*ListPatternNode) error
	VisitConsumedByNode(*ConsumedByNode) error
	VisitInterleaveNode(*InterleaveNode) error
	VisitHostExprNode(*HostExprNode) error
	VisitPredicateNode(*PredicateNode) error
	VisitActionNode(*ActionNode) error
	VisitRuleValueNode(*RuleValueNode) error
}

func (n *GrammarNode) Accept(v AstNodeVisitor) error     { return v.VisitGrammarNode(n) }
func (n *RuleNode) Accept(v AstNodeVisitor) error        { return v.VisitRuleNode(n) }
func (n *ClauseNode) Accept(v AstNodeVisitor) error      { return v.VisitClauseNode(n) }
func (n *ApplyNode) Accept(v AstNodeVisitor) error       { return v.VisitApplyNode(n) }
func (n *SuperApplyNode) Accept(v AstNodeVisitor) error  { return v.VisitSuperApplyNode(n) }
func (n *ExactlyNode) Accept(v AstNodeVisitor) error     { return v.VisitExactlyNode(n) }
func (n *MatchStringNode) Accept(v AstNodeVisitor) error { return v.VisitMatchStringNode(n) }
func (n *TokenNode) Accept(v AstNodeVisitor) error       { return v.VisitTokenNode(n) }
func (n *RangeNode) Accept(v AstNodeVisitor) error       { return v.VisitRangeNode(n) }
func (n *SequenceNode) Accept(v AstNodeVisitor) error    { return v.VisitSequenceNode(n) }
func (n *OrNode) Accept(v AstNodeVisitor) error          { return v.VisitOrNode(n) }
func (n *XorNode) Accept(v AstNodeVisitor) error         { return v.VisitXorNode(n) }
func (n *ManyNode) Accept(v AstNodeVisitor) error        { return v.VisitManyNode(n) }
func (n *Many1Node) Accept(v AstNodeVisitor) error       { return v.VisitMany1Node(n) }
func (n *OptionalNode) Accept(v AstNodeVisitor) error    { return v.VisitOptionalNode(n) }
func (n *NotNode) Accept(v AstNodeVisitor) error         { return v.VisitNotNode(n) }
func (n *LookaheadNode) Accept(v AstNodeVisitor) error   { return v.VisitLookaheadNode(n) }
func (n *BindNode) Accept(v AstNodeVisitor) error        { return v.VisitBindNode(n) }
func (n *ListPatternNode) Accept(v AstNodeVisitor) error { return v.VisitListPatternNode(n) }
func (n *ConsumedByNode) Accept(v AstNodeVisitor) error  { return v.VisitConsumedByNode(n) }
func (n *InterleaveNode) Accept(v AstNodeVisitor) error  { return v.VisitInterleaveNode(n) }
func (n *HostExprNode) Accept(v AstNodeVisitor) error    { return v.VisitHostExprNode(n) }
func (n *PredicateNode) Accept(v AstNodeVisitor) error   { return v.VisitPredicateNode(n) }
func (n *ActionNode) Accept(v AstNodeVisitor) error      { return v.VisitActionNode(n) }
func (n *RuleValueNode) Accept(v AstNodeVisitor) error   { return v.VisitRuleValueNode(n) }

// Children returns the nodes directly beneath `n`
func Children(n AstNode) []AstNode {
	switch t := n.(type) {
	case *GrammarNode:
		items := make([]AstNode, len(t.Rules))
		for i, r := range t.Rules {
			items[i] = r
		}
		return items
	case *RuleNode:
		items := make([]AstNode, len(t.Clauses))
		for i, c := range t.Clauses {
			items[i] = c
		}
		return items
	case *ClauseNode:
		items := append([]AstNode{}, t.Args...)
		if t.Body != nil {
			items = append(items, t.Body)
		}
		return items
	case *ApplyNode:
		return hostNodes(t.Args)
	case *SuperApplyNode:
		return hostNodes(t.Args)
	case *SequenceNode:
		return t.Items
	case *OrNode:
		return t.Items
	case *XorNode:
		return t.Items
	case *ManyNode:
		return []AstNode{t.Expr}
	case *Many1Node:
		return []AstNode{t.Expr}
	case *OptionalNode:
		return []AstNode{t.Expr}
	case *NotNode:
		return []AstNode{t.Expr}
	case *LookaheadNode:
		return []AstNode{t.Expr}
	case *BindNode:
		if t.Expr == nil {
			return nil
		}
		return []AstNode{t.Expr}
	case *ListPatternNode:
		return []AstNode{t.Expr}
	case *ConsumedByNode:
		return []AstNode{t.Expr}
	case *InterleaveNode:
		items := make([]AstNode, len(t.Parts))
		for i, p := range t.Parts {
			items[i] = p.Expr
		}
		return items
	case *PredicateNode:
		return []AstNode{t.Expr}
	case *ActionNode:
		return []AstNode{t.Expr}
	case *RuleValueNode:
		return []AstNode{t.Expr}
	}
	return nil
}

// Inspect calls `fn` for `n` and every node beneath it, depth first.
// Returning false from `fn` skips the children of that node.
func Inspect(n AstNode, fn func(AstNode) bool) {
	if !fn(n) {
		return
	}
	for _, child := range Children(n) {
		Inspect(child, fn)
	}
}

func hostNodes(args []*HostExprNode) []AstNode {
	items := make([]AstNode, len(args))
	for i, a := range args {
		items[i] = a
	}
	return items
}
